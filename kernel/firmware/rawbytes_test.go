package firmware_test

import (
	"reflect"
	"unsafe"
)

// rawBytesAt views count bytes starting at addr as a []byte, the same
// reflect.SliceHeader technique firmware.Map.windowAt uses internally.
// Tests need it to populate memtest-backed memory before handing its
// base address to a firmware.Map.
func rawBytesAt(addr uintptr, count uintptr) []byte {
	var hdr reflect.SliceHeader
	hdr.Data = addr
	hdr.Len = int(count)
	hdr.Cap = int(count)
	return *(*[]byte)(unsafe.Pointer(&hdr))
}
