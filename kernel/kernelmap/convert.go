package kernelmap

import (
	"strata/kernel/firmware"
	"strata/kernel/region"
)

// convertOne implements spec.md §4.2 step 1 for a single descriptor:
// map EfiConventionalMemory to general purpose, every other known type
// to unusable, translate the page count from the firmware page size to
// pageSize, and mark the result invalid on overflow or on collapsing to
// fewer than one kernel page.
func convertOne(fw firmware.Descriptor, firmwarePageSize, pageSize uintptr) Descriptor {
	kind := TypeUnusable
	if firmware.MemoryType(fw.Type) == firmware.TypeConventionalMemory {
		kind = TypeGeneralPurpose
	}

	byteSize := uintptr(fw.Pages) * firmwarePageSize
	if firmwarePageSize != 0 && byteSize/firmwarePageSize != uintptr(fw.Pages) {
		return Descriptor{Type: TypeInvalid}
	}

	virtualStart := uintptr(fw.VirtualStart)
	if _, overflow := region.AddOverflows(virtualStart, byteSize); overflow {
		return Descriptor{Type: TypeInvalid}
	}

	physicalStart := uintptr(fw.PhysicalStart)
	if _, overflow := region.AddOverflows(physicalStart, byteSize); overflow {
		return Descriptor{Type: TypeInvalid}
	}

	pages := byteSize / pageSize
	if pages == 0 {
		return Descriptor{Type: TypeInvalid}
	}
	// A partial trailing kernel page is dropped rather than rounded up,
	// since rounding up could claim firmware memory that in fact
	// belongs to the next (possibly different-typed) descriptor.
	truncatedBytes := pages * pageSize
	if truncatedBytes != byteSize && kind == TypeGeneralPurpose {
		// Conservatively keep only the whole-page-aligned prefix.
		byteSize = truncatedBytes
	}

	return Descriptor{
		Type:          kind,
		PhysicalStart: physicalStart,
		VirtualStart:  virtualStart,
		Pages:         pages,
	}
}

// MaxConversionRequest returns an upper bound on the bytes needed to
// hold the converted form of every descriptor in fw, per spec.md §4.2's
// public contract: firmware_count * sizeof(KernelDescriptor).
func MaxConversionRequest(fw firmware.Map) region.Request {
	return region.Request{
		Size:      uintptr(fw.Count) * descriptorSize,
		Alignment: descriptorAlign,
	}
}
