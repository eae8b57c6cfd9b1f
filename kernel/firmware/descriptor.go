// Package firmware implements the UEFI Memory-Map View described in
// spec.md §4.1: a typed, bounded, read-only iterator over an externally
// owned, runtime-stride array of firmware memory descriptors.
package firmware

// MemoryType classifies a firmware descriptor the way UEFI's
// EFI_MEMORY_TYPE enumeration does. Only the values this module cares
// about are named; anything else is "known but not general purpose".
type MemoryType uint64

const (
	TypeReservedMemoryType MemoryType = iota
	TypeLoaderCode
	TypeLoaderData
	TypeBootServicesCode
	TypeBootServicesData
	TypeRuntimeServicesCode
	TypeRuntimeServicesData
	TypeConventionalMemory
	TypeUnusableMemory
	TypeACPIReclaimMemory
	TypeACPIMemoryNVS
	TypeMemoryMappedIO
	TypeMemoryMappedIOPortSpace
	TypePalCode
	TypePersistentMemory
)

// Descriptor is one firmware-reported memory block. spec.md §3 specifies
// all fields as 64-bit regardless of their natural UEFI width, which is
// what lets restruct decode a fixed 40-byte window regardless of stride.
type Descriptor struct {
	Type          uint64
	PhysicalStart uint64
	VirtualStart  uint64
	Pages         uint64
	Attributes    uint64
}

// DescriptorSize is sizeof(Descriptor) per the wire layout above: five
// 8-byte fields.
const DescriptorSize = 40
