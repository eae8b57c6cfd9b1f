// Package kernelmap builds and sanitises the owned, sorted kernel memory
// map described in spec.md §4.2 out of a firmware.Map view.
package kernelmap

import (
	"unsafe"

	"strata/kernel/region"
)

// descriptorSize and descriptorAlign back MaxCopyRequest/
// MaxConversionRequest: the upper-bound helpers spec.md §4.2 requires.
// They are also exported (DescriptorSize/DescriptorAlign) for callers,
// such as kernel/bootstrap, that need to placement-construct raw arrays
// of Descriptor themselves.
var (
	descriptorSize  = unsafe.Sizeof(Descriptor{})
	descriptorAlign = unsafe.Alignof(Descriptor{})

	// DescriptorSize is sizeof(Descriptor).
	DescriptorSize = descriptorSize
	// DescriptorAlign is alignof(Descriptor).
	DescriptorAlign = descriptorAlign
)

// Type is the sanitised, three-value classification spec.md §3 defines
// for KernelMemoryType.
type Type int

const (
	// TypeGeneralPurpose marks memory available for the allocator
	// stack to carve up.
	TypeGeneralPurpose Type = iota
	// TypeUnusable marks memory the firmware reported but that this
	// core will never hand out (reserved, MMIO, ACPI tables, etc).
	TypeUnusable
	// TypeInvalid marks an entry filtered out during sanitisation:
	// it occupies a slot in the backing array but is excluded from
	// every public iteration.
	TypeInvalid
)

// Descriptor is the sanitised successor to a firmware.Descriptor,
// expressed in units of the kernel page size rather than the firmware
// page size.
type Descriptor struct {
	Type          Type
	PhysicalStart uintptr
	VirtualStart  uintptr
	// Pages is a count of kernel pages, not firmware pages.
	Pages uintptr
}

// VirtualEnd returns VirtualStart + Pages*pageSize. Callers must supply
// the same pageSize the descriptor was built with.
func (d Descriptor) VirtualEnd(pageSize uintptr) uintptr {
	return d.VirtualStart + d.Pages*pageSize
}

// AsRegion returns the descriptor's virtual span as a region.Region.
func (d Descriptor) AsRegion(pageSize uintptr) region.Region {
	return region.Region{Start: d.VirtualStart, Size: d.Pages * pageSize}
}

// ContainsRegion is the O(1) helper spec.md §4.2 calls out explicitly:
// r.start >= descriptor.virtual_start && r.end <= descriptor.virtual_end.
func (d Descriptor) ContainsRegion(r region.Region, pageSize uintptr) bool {
	return d.AsRegion(pageSize).Contains(r)
}
