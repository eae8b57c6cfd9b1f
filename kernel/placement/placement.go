// Package placement implements the Region Placement Engine described in
// spec.md §4.3: given a kernel memory map, a sorted occupied list, and a
// size+alignment request, it finds a properly aligned free sub-region.
package placement

import (
	"strata/kernel"
	"strata/kernel/kernelmap"
	"strata/kernel/occupied"
	"strata/kernel/region"
)

const moduleName = "placement"

// ErrCannotMeetRequest is returned when no descriptor can satisfy the
// request after accounting for every intersecting occupied region.
var ErrCannotMeetRequest = kernel.New(moduleName, "no free region satisfies the request", kernel.KindCannotMeetRequest)

// MeetRequest implements spec.md §4.3's first-fit-by-descriptor,
// lowest-address-within algorithm. pageSize must be the same kernel page
// size the map was built with.
//
// The Open Question in spec.md §9 about re-alignment after an
// intersection is resolved here the way the spec resolves it: the
// candidate is always re-aligned from the intersection's top, never from
// the original descriptor start plus accumulated slack.
func MeetRequest(m *kernelmap.Map, occ *occupied.List, req region.Request, pageSize uintptr) (region.Region, error) {
	for i := 0; i < m.Len(); i++ {
		d := m.At(i)
		if d.Type != kernelmap.TypeGeneralPurpose {
			continue
		}

		start, overflow := region.AlignUp(d.VirtualStart, req.Alignment)
		if overflow {
			continue
		}
		end, overflow := region.AddOverflows(start, req.Size)
		if overflow {
			continue
		}
		candidate := region.Region{Start: start, Size: end - start}

		fromIdx := 0
		for {
			if !d.ContainsRegion(candidate, pageSize) {
				break
			}

			hit := occ.FirstIntersecting(candidate, fromIdx)
			if hit < 0 {
				return candidate, nil
			}

			x := occ.At(hit)
			newStart, overflow := region.AlignUp(x.End(), req.Alignment)
			if overflow {
				break
			}
			newEnd, overflow := region.AddOverflows(newStart, req.Size)
			if overflow {
				break
			}
			candidate = region.Region{Start: newStart, Size: newEnd - newStart}
			fromIdx = hit
		}
	}

	return region.Region{}, ErrCannotMeetRequest
}
