// Package bootstrap implements the Memory Manager Bootstrap described in
// spec.md §4.8 and the external Firmware boundary described in spec.md
// §6: the Environment/EnvironmentV1 records the (out-of-scope) boot
// entry point supplies, and the Build orchestrator that turns them into
// a fully composed MemoryManager.
package bootstrap

import (
	"strata/kernel"
	"strata/kernel/firmware"
	"strata/kernel/region"
)

const moduleName = "bootstrap"

// SupportedLeastCompatibleVersion is the only Environment version this
// core understands, per spec.md §6 ("must equal 1 for this core").
const SupportedLeastCompatibleVersion = 1

// Environment is the top-level record the bootloader hands over. Data
// points at a version-tagged payload; for LeastCompatibleVersion == 1 it
// points at an EnvironmentV1.
type Environment struct {
	Data                    uintptr
	Version                 uint32
	LeastCompatibleVersion  uint32
}

// FirmwareMap mirrors spec.md §6's FirmwareMap record: firmware.Map plus
// the two version fields the firmware boundary carries. Conversion to
// firmware.Map (the type the rest of this module operates on) is
// performed by AsMap.
type FirmwareMap struct {
	Descriptors             uintptr
	NumberOfDescriptors     uint64
	DescriptorSize          uint64
	DescriptorVersion       uint32
	LeastCompatibleVersion  uint32
}

// AsMap converts to the firmware package's iteration view.
func (f FirmwareMap) AsMap() firmware.Map {
	return firmware.Map{
		Base:    f.Descriptors,
		Count:   f.NumberOfDescriptors,
		Stride:  f.DescriptorSize,
		Version: f.DescriptorVersion,
	}
}

// EnvironmentV1 is the version-1 payload pointed to by Environment.Data,
// per spec.md §6.
type EnvironmentV1 struct {
	KernelImageRegion region.Region
	KernelStackRegion region.Region
	Memmap            FirmwareMap
}

// ErrUnsupportedVersion describes an Environment whose
// LeastCompatibleVersion is not SupportedLeastCompatibleVersion. No
// function in this package checks the version or returns this error.
var ErrUnsupportedVersion = kernel.New(moduleName, "unsupported environment least-compatible version", kernel.KindInvalidArgument)
