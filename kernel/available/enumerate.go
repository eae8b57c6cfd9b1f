// Package available implements the Available-Memory Enumerator described
// in spec.md §4.4: the set of general-purpose memory minus the occupied
// set, derived on demand rather than materialised up front.
package available

import (
	"strata/kernel/kernelmap"
	"strata/kernel/occupied"
	"strata/kernel/region"
)

// Visit is called once per maximal free fragment, in ascending address
// order. Returning false stops enumeration early.
type Visit func(region.Region) bool

// Enumerate visits every maximal subrange of every general-purpose
// descriptor in m that is disjoint from occ, implementing spec.md §4.4:
// it subtracts occupied regions from each descriptor's span
// left-to-right and skips zero-sized residuals.
func Enumerate(m *kernelmap.Map, occ *occupied.List, pageSize uintptr, visit Visit) {
	occIdx := 0
	for i := 0; i < m.Len(); i++ {
		d := m.At(i)
		if d.Type != kernelmap.TypeGeneralPurpose {
			continue
		}

		span := d.AsRegion(pageSize)
		cursor := span.Start

		for occIdx < occ.Len() {
			o := occ.At(occIdx)
			if o.Start >= span.End() {
				break
			}
			if o.End() <= cursor {
				occIdx++
				continue
			}
			if o.Start > cursor {
				if !visit(region.Region{Start: cursor, Size: o.Start - cursor}) {
					return
				}
			}
			if o.End() > cursor {
				cursor = o.End()
			}
			if o.End() <= span.End() {
				occIdx++
				continue
			}
			break
		}

		if cursor < span.End() {
			if !visit(region.Region{Start: cursor, Size: span.End() - cursor}) {
				return
			}
		}
	}
}

// Count returns the number of free fragments Enumerate would visit,
// useful for sizing the fragment array before a second pass fills it in
// (spec.md §4.4's (a) counting use).
func Count(m *kernelmap.Map, occ *occupied.List, pageSize uintptr) int {
	n := 0
	Enumerate(m, occ, pageSize, func(region.Region) bool {
		n++
		return true
	})
	return n
}
