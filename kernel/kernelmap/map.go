package kernelmap

import (
	"sort"

	"strata/kernel"
	"strata/kernel/firmware"
	"strata/kernel/region"
)

const moduleName = "kernelmap"

// ErrBufferTooSmall is returned by BuildFromFirmware when the caller's
// backing buffer cannot hold one slot per firmware descriptor.
var ErrBufferTooSmall = kernel.New(moduleName, "destination buffer smaller than firmware descriptor count", kernel.KindInvalidArgument)

// Map is the owned, sanitised descriptor array spec.md §3/§4.2 describe:
// sorted ascending by VirtualStart, no two valid entries overlapping,
// adjacent mergeables merged. Invalid entries are retained at the tail
// of the backing array (the array keeps its allocated length) but are
// excluded from every public iteration.
//
// Map does not allocate its descriptor storage: callers supply the
// backing slice (sized via MaxConversionRequest or MaxCopyRequest and
// placed by the caller's own allocator), matching spec.md §4.2's "owned
// array" ownership model. Sanitising is not free of Go heap allocation:
// partitionValid uses a temporary Go slice for the invalid entries, and
// sort.Slice may allocate.
type Map struct {
	descriptors []Descriptor
	validCount  int
}

// MaxCopyRequest returns an upper bound for cloning m into another
// allocator: count * sizeof(KernelDescriptor), per spec.md §4.2's
// public contract.
func (m *Map) MaxCopyRequest() region.Request {
	return region.Request{
		Size:      uintptr(len(m.descriptors)) * descriptorSize,
		Alignment: descriptorAlign,
	}
}

// Len returns the number of valid descriptors.
func (m *Map) Len() int {
	return m.validCount
}

// At returns the i'th valid descriptor in VirtualStart order.
func (m *Map) At(i int) Descriptor {
	return m.descriptors[i]
}

// All returns the valid prefix as a slice. Callers must not retain or
// mutate it past the Map's lifetime; it aliases the Map's own storage.
func (m *Map) All() []Descriptor {
	return m.descriptors[:m.validCount]
}

// BuildFromFirmware converts fw into buf (which must be at least
// fw.Len() long) and sanitises the result in place, implementing
// spec.md §4.2 steps 1-5. Its only error is ErrBufferTooSmall, for a buf
// shorter than fw.Len(): unconvertible or contradictory entries are
// marked invalid rather than surfaced as errors, per spec.md §7's
// "CorruptMap ... handled locally".
func BuildFromFirmware(fw firmware.Map, firmwarePageSize, pageSize uintptr, buf []Descriptor) (*Map, error) {
	n := int(fw.Len())
	if len(buf) < n {
		return nil, ErrBufferTooSmall
	}

	it := firmware.NewIterator(fw)
	for i := 0; i < n; i++ {
		d, ok, err := it.Next()
		if !ok {
			break
		}
		if err != nil {
			buf[i] = Descriptor{Type: TypeInvalid}
			continue
		}
		buf[i] = convertOne(d, firmwarePageSize, pageSize)
	}

	m := &Map{descriptors: buf[:n]}
	m.sanitize(pageSize)
	return m, nil
}

// WrapSanitized builds a Map directly from already-converted descriptors
// (used when reconstructing the final map into its dedicated monotonic
// buffer during bootstrap, per spec.md §4.8 step 5 — the descriptors are
// copied verbatim, then re-sanitised defensively since merges are
// idempotent by construction, see the Map idempotence property in
// spec.md §8).
func WrapSanitized(buf []Descriptor, pageSize uintptr) *Map {
	m := &Map{descriptors: buf}
	m.sanitize(pageSize)
	return m
}

// sanitize implements spec.md §4.2 steps 2-5: partition invalid entries
// to the tail, sort the valid prefix by VirtualStart, run the single
// left-to-right merge pass, then re-partition once more since a merge
// can invalidate entries that were valid going in.
func (m *Map) sanitize(pageSize uintptr) {
	m.partitionValid()
	m.sortValid()
	m.mergePass(pageSize)
	m.partitionValid()
}

// partitionValid moves every TypeInvalid descriptor to the tail of the
// backing array without shrinking it, and updates validCount. Order
// among invalid entries is not meaningful; order among valid entries is
// preserved (stable partition) since mergePass depends on having already
// sorted them on the first call, and on re-partition after merging we
// must not disturb the sortedness merge established.
func (m *Map) partitionValid() {
	valid := m.descriptors[:0:len(m.descriptors)]
	invalid := make([]Descriptor, 0, len(m.descriptors))
	for _, d := range m.descriptors {
		if d.Type == TypeInvalid {
			invalid = append(invalid, d)
		} else {
			valid = append(valid, d)
		}
	}
	m.validCount = len(valid)
	copy(m.descriptors[m.validCount:], invalid)
}

func (m *Map) sortValid() {
	valid := m.descriptors[:m.validCount]
	sort.Slice(valid, func(i, j int) bool {
		return valid[i].VirtualStart < valid[j].VirtualStart
	})
}

// mergePass implements spec.md §4.2 step 4: a single left-to-right scan
// that pairs each descriptor with the nearest earlier descriptor that is
// still valid, replacing overlap/adjacency unions in place and
// invalidating the descriptor(s) that got folded away or that
// contradicted each other. Pairing with the nearest valid predecessor
// lets a descriptor merge with the neighbour it ends up next to once a
// contradicting pair between them has been invalidated.
func (m *Map) mergePass(pageSize uintptr) {
	valid := m.descriptors[:m.validCount]
	for i := 0; i+1 < len(valid); i++ {
		j := i
		for j >= 0 && valid[j].Type == TypeInvalid {
			j--
		}
		if j < 0 {
			continue
		}
		a, b := &valid[j], &valid[i+1]
		if b.VirtualStart < a.VirtualStart {
			continue // not adjacent in sort order; nothing to do
		}

		aEnd := a.VirtualEnd(pageSize)
		if a.VirtualStart+a.Pages*pageSize > b.VirtualStart && b.VirtualStart < aEnd {
			// Overlap.
			physicalLinesUp := b.PhysicalStart == a.PhysicalStart+(b.VirtualStart-a.VirtualStart)
			if a.Type == b.Type && physicalLinesUp {
				*b = union(*a, *b, pageSize)
				a.Type = TypeInvalid
			} else {
				a.Type = TypeInvalid
				b.Type = TypeInvalid
			}
			continue
		}

		if aEnd == b.VirtualStart && a.Type == b.Type &&
			b.PhysicalStart == a.PhysicalStart+a.Pages*pageSize {
			*b = union(*a, *b, pageSize)
			a.Type = TypeInvalid
		}
	}
}

// union returns the descriptor spanning both a and b, assuming they are
// adjacent or overlapping, same-typed, and physically contiguous.
func union(a, b Descriptor, pageSize uintptr) Descriptor {
	start := a.VirtualStart
	end := b.VirtualEnd(pageSize)
	if a.VirtualEnd(pageSize) > end {
		end = a.VirtualEnd(pageSize)
	}
	return Descriptor{
		Type:          a.Type,
		PhysicalStart: a.PhysicalStart,
		VirtualStart:  start,
		Pages:         (end - start) / pageSize,
	}
}
