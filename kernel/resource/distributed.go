package resource

import (
	"unsafe"

	"strata/kernel"
	"strata/kernel/region"
)

const distributedModule = "distributed"

// ErrDistributedExhausted is returned when every upstream failed to
// satisfy an allocation.
var ErrDistributedExhausted = kernel.New(distributedModule, "all upstreams exhausted", kernel.KindBadAlloc)

// usizeSize and usizeAlign describe the trailing routing tag distributed
// appends after every block, sized like the "usize" spec.md §4.6 refers
// to.
const (
	usizeSize  = unsafe.Sizeof(uintptr(0))
	usizeAlign = unsafe.Alignof(uintptr(0))
)

// Distributed round-robins... in the sense of trying each upstream in
// declaration order, per spec.md §4.6. It does not allocate storage for
// its upstream vector: the caller builds that slice and Distributed only
// borrows it for its lifetime. kernel/bootstrap builds it with make, on
// the Go heap, after the fragment array its elements point into has been
// filled in inside one of the manager's monotonic buffers. Distributed
// does not use any of its upstreams to allocate the vector.
type Distributed struct {
	upstreams []Resource
}

// NewDistributed wraps an already-placed slice of upstreams. The slice
// must not be resized by the caller after this call, per spec.md §5's
// "fragment array is not resized after the distributed resource
// captures pointers into it".
func NewDistributed(upstreams []Resource) *Distributed {
	return &Distributed{upstreams: upstreams}
}

// Allocate implements spec.md §4.6: it appends a trailing usize tag
// recording which upstream satisfied the request, so Deallocate can
// route back to it.
func (d *Distributed) Allocate(req region.Request) (uintptr, error) {
	padding, overflow := paddingFor(req.Size)
	if overflow {
		return 0, kernel.New(distributedModule, "request size overflows tag padding", kernel.KindBadAlloc)
	}
	actualSize, overflow := region.AddOverflows(req.Size+padding, usizeSize)
	if overflow {
		return 0, kernel.New(distributedModule, "request size overflows with routing tag", kernel.KindBadAlloc)
	}

	for i, up := range d.upstreams {
		ptr, err := up.Allocate(region.Request{Size: actualSize, Alignment: req.Alignment})
		if err != nil {
			continue
		}
		tagAddr := ptr + req.Size + padding
		*(*uintptr)(unsafe.Pointer(tagAddr)) = uintptr(i)
		return ptr, nil
	}

	return 0, ErrDistributedExhausted
}

// Deallocate recovers the upstream index from the trailing tag and
// forwards the release to that upstream.
func (d *Distributed) Deallocate(ptr uintptr, req region.Request) {
	padding, overflow := paddingFor(req.Size)
	if overflow {
		return
	}
	actualSize, overflow := region.AddOverflows(req.Size+padding, usizeSize)
	if overflow {
		return
	}
	tagAddr := ptr + req.Size + padding
	idx := *(*uintptr)(unsafe.Pointer(tagAddr))
	if int(idx) >= len(d.upstreams) {
		return
	}
	d.upstreams[idx].Deallocate(ptr, region.Request{Size: actualSize, Alignment: req.Alignment})
}

// IsEqual reports pointer identity, per spec.md §9.
func (d *Distributed) IsEqual(other Resource) bool {
	o, ok := other.(*Distributed)
	return ok && o == d
}

// paddingFor returns round_up(bytes, usizeAlign) - bytes.
func paddingFor(bytes uintptr) (uintptr, bool) {
	aligned, overflow := region.AlignUp(bytes, usizeAlign)
	if overflow {
		return 0, true
	}
	return aligned - bytes, false
}
