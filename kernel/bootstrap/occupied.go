package bootstrap

import "strata/kernel/region"

// OccupiedMemory implements spec.md §6's occupied_memory(env_v1): the
// regions considered occupied purely by virtue of existing before
// bootstrap runs, before any carving for bookkeeping happens. It writes
// into buf (which must have room for at least 4 entries: the firmware
// map's own storage, the environment record itself, the kernel image,
// and the kernel stack) and returns the populated prefix.
func OccupiedMemory(env Environment, envV1 EnvironmentV1, envRegion region.Region, buf []region.Region) []region.Region {
	fwStorage := region.Region{
		Start: envV1.Memmap.Descriptors,
		Size:  uintptr(envV1.Memmap.NumberOfDescriptors) * uintptr(envV1.Memmap.DescriptorSize),
	}

	out := buf[:0]
	out = append(out, fwStorage)
	out = append(out, envRegion)
	out = append(out, envV1.KernelImageRegion)
	out = append(out, envV1.KernelStackRegion)
	return out
}
