// Package occupied implements the OccupiedList described in spec.md §3:
// an owned, sorted array of regions considered already in use.
package occupied

import (
	"sort"

	"strata/kernel/region"
)

// List is a sorted-by-Start array of occupied regions. Like
// kernelmap.Map, it does not allocate its storage: callers supply the
// backing slice, and Insert never grows it.
type List struct {
	regions []region.Region
	count   int
}

// NewFromBuffer wraps buf (len 0, capacity >= expected final size) as an
// empty List ready for Insert calls.
func NewFromBuffer(buf []region.Region) *List {
	return &List{regions: buf[:0]}
}

// Len reports the number of occupied regions.
func (l *List) Len() int {
	return l.count
}

// At returns the i'th region in Start order.
func (l *List) At(i int) region.Region {
	return l.regions[i]
}

// All returns the occupied regions in Start order. Callers must not
// retain the slice past the next Insert call.
func (l *List) All() []region.Region {
	return l.regions[:l.count]
}

// Insert performs a stable sorted insert of r, per spec.md §4.8 step 3
// ("insert that region into the sorted occupied list (sorted insert;
// stable)"). It panics if the backing buffer has no spare capacity,
// since that indicates the caller under-sized its MaxCopyRequest-derived
// allocation — a programmer error, not a runtime condition to recover
// from.
func (l *List) Insert(r region.Region) {
	if l.count == cap(l.regions) {
		panic("occupied: Insert into a full backing buffer")
	}
	l.regions = l.regions[:l.count+1]
	idx := sort.Search(l.count, func(i int) bool {
		return l.regions[i].Start > r.Start
	})
	copy(l.regions[idx+1:l.count+1], l.regions[idx:l.count])
	l.regions[idx] = r
	l.count++
}

// FirstIntersecting returns the index of the first region at or after
// `from` that intersects r, or -1 if none does. Because the list is
// sorted by Start, the placement engine can resume its scan `from` the
// last intersection point instead of rescanning from the beginning, per
// spec.md §4.3.
func (l *List) FirstIntersecting(r region.Region, from int) int {
	for i := from; i < l.count; i++ {
		if l.regions[i].Start >= r.End() {
			return -1
		}
		if l.regions[i].Intersects(r) {
			return i
		}
	}
	return -1
}
