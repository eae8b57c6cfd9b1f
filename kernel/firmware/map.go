package firmware

import (
	"encoding/binary"
	"reflect"
	"unsafe"

	"github.com/go-restruct/restruct"

	"strata/kernel"
	"strata/kernel/region"
)

const moduleName = "firmware"

// restructByteOrder is the wire byte order for firmware descriptors.
// UEFI targets are little-endian on every platform this core supports.
var restructByteOrder = binary.LittleEndian

var (
	// ErrOutOfRange is returned by At when the requested index is
	// outside [0, Count).
	ErrOutOfRange = kernel.New(moduleName, "descriptor index out of range", kernel.KindInvalidArgument)
	// ErrWindowOverflow is returned when base+count*stride would
	// overflow uintptr; iteration is unsafe past that point.
	ErrWindowOverflow = kernel.New(moduleName, "memory map window overflows address space", kernel.KindOverflow)
)

// Map is the untyped, bounded view described in spec.md §4.1: an
// externally owned array of runtime-stride descriptor blobs. Stride may
// exceed DescriptorSize because firmware is free to append fields in
// future revisions; the extra trailing bytes are ignored.
//
// Iteration is safe iff Count*Stride bytes are readable starting at
// Base — this is a precondition the caller (the out-of-scope firmware
// acquisition step) must establish; Map itself only guards against the
// arithmetic overflowing, not against Base actually pointing at live
// memory.
type Map struct {
	Base    uintptr
	Count   uint64
	Stride  uint64
	Version uint32
}

// Validate checks that Count*Stride does not overflow uintptr and that
// Stride is large enough to hold one Descriptor, per spec.md §3's
// FirmwareMap invariant ("stride >= sizeof(FirmwareDescriptor)").
func (m Map) Validate() error {
	if m.Stride < DescriptorSize {
		return kernel.New(moduleName, "stride smaller than descriptor size", kernel.KindInvalidArgument)
	}
	total := uintptr(m.Stride) * uintptr(m.Count)
	if m.Count != 0 && total/uintptr(m.Count) != uintptr(m.Stride) {
		return ErrWindowOverflow
	}
	if _, overflow := region.AddOverflows(m.Base, total); overflow {
		return ErrWindowOverflow
	}
	return nil
}

// windowAt returns the DescriptorSize-byte window at index i as a Go
// byte slice, without copying. This reinterprets raw memory the same
// way the teacher's BitmapAllocator builds slices over allocator-owned
// memory: by hand-assembling a reflect.SliceHeader rather than going
// through a cgo-style cast, since Go's unsafe.Slice requires a typed
// pointer we do not have (the backing store is a bare uintptr).
func (m Map) windowAt(i uint64) []byte {
	addr := m.Base + uintptr(i*m.Stride)
	var hdr reflect.SliceHeader
	hdr.Data = addr
	hdr.Len = DescriptorSize
	hdr.Cap = DescriptorSize
	return *(*[]byte)(unsafe.Pointer(&hdr))
}

// Len reports the descriptor count.
func (m Map) Len() uint64 {
	return m.Count
}

// At performs random access: it decodes the DescriptorSize-byte window
// at Base+i*Stride into a Descriptor value, ignoring any stride bytes
// beyond DescriptorSize. Decoding uses restruct, the same struct-tag
// driven unpacker the retrieved exFAT reader uses for its on-disk
// structures, instead of hand-rolled binary.Read offset math.
func (m Map) At(i uint64) (Descriptor, error) {
	if i >= m.Count {
		return Descriptor{}, ErrOutOfRange
	}

	var d Descriptor
	raw := m.windowAt(i)
	if err := restructUnpack(raw, &d); err != nil {
		return Descriptor{}, kernel.New(moduleName, "malformed descriptor: "+err.Error(), kernel.KindCorruptMap)
	}
	return d, nil
}

// restructUnpack is split out so tests can substitute a pure-Go decoder
// when exercising windows backed by synthetic (non-pointer) byte slices
// that were never produced via windowAt.
var restructUnpack = func(raw []byte, d *Descriptor) error {
	return restruct.Unpack(raw, restructByteOrder, d)
}

// Iterator provides forward iteration over a Map without re-deriving the
// window slice machinery at each call site.
type Iterator struct {
	m     Map
	index uint64
}

// NewIterator returns a forward iterator positioned before the first
// descriptor.
func NewIterator(m Map) *Iterator {
	return &Iterator{m: m}
}

// Next advances the iterator and decodes the next descriptor, reporting
// ok=false once the array is exhausted.
func (it *Iterator) Next() (Descriptor, bool, error) {
	if it.index >= it.m.Count {
		return Descriptor{}, false, nil
	}
	d, err := it.m.At(it.index)
	it.index++
	if err != nil {
		return Descriptor{}, true, err
	}
	return d, true, nil
}
