package resource

import (
	"strata/kernel"
	"strata/kernel/region"
)

const monotonicModule = "monotonic"

// ErrMonotonicExhausted is returned when a request does not fit in the
// remaining span.
var ErrMonotonicExhausted = kernel.New(monotonicModule, "monotonic buffer exhausted", kernel.KindBadAlloc)

// Monotonic is the fixed-span bump allocator described in spec.md §4.5.
// It has no upstream: Deallocate is a no-op, and once the span is
// consumed the only way to reclaim it is to discard the Monotonic
// itself. Single-threaded, matching the concurrency model in spec.md §5.
type Monotonic struct {
	base   uintptr
	end    uintptr
	cursor uintptr
}

// NewMonotonic creates a Monotonic over [base, base+size).
func NewMonotonic(base, size uintptr) *Monotonic {
	return &Monotonic{base: base, end: base + size, cursor: base}
}

// Allocate returns the next aligned pointer if it fits in the
// remaining span, advancing the cursor past it.
func (b *Monotonic) Allocate(req region.Request) (uintptr, error) {
	aligned, overflow := region.AlignUp(b.cursor, req.Alignment)
	if overflow {
		return 0, ErrMonotonicExhausted
	}
	next, overflow := region.AddOverflows(aligned, req.Size)
	if overflow || next > b.end {
		return 0, ErrMonotonicExhausted
	}
	b.cursor = next
	return aligned, nil
}

// Deallocate is a no-op: a bump allocator never reclaims individual
// blocks, per spec.md §4.5.
func (b *Monotonic) Deallocate(uintptr, region.Request) {}

// IsEqual reports pointer identity, per spec.md §9's is_equal
// resolution.
func (b *Monotonic) IsEqual(other Resource) bool {
	o, ok := other.(*Monotonic)
	return ok && o == b
}

// Remaining reports the number of unused bytes in the span, useful for
// diagnostics (see kernel/kfmt).
func (b *Monotonic) Remaining() uintptr {
	return b.end - b.cursor
}

// Span reports the total size the Monotonic was constructed over,
// useful for diagnostics (see kernel/kfmt).
func (b *Monotonic) Span() uintptr {
	return b.end - b.base
}
