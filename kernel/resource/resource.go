// Package resource implements the three composable memory-resource
// abstractions described in spec.md §4.5-§4.7: a monotonic bump
// allocator, a distributed fan-out allocator, and a buddy allocator.
// They compose over the Resource interface, the Go rendering of the
// "sealed sum type vs trait" design note in spec.md §9.
package resource

import "strata/kernel/region"

// Resource is implemented by every allocator in this package. Allocate
// returns the base address of a block satisfying req; Deallocate
// releases a block previously returned by Allocate with the same req.
// IsEqual is identity, per the Open Question resolution in spec.md §9
// ("this spec defines is_equal as identity and omits dynamic
// introspection").
type Resource interface {
	Allocate(req region.Request) (uintptr, error)
	Deallocate(ptr uintptr, req region.Request)
	IsEqual(other Resource) bool
}
