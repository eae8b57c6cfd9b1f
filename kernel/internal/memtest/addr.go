package memtest

import "unsafe"

// addrOf returns the address of m's backing array. m must be non-empty.
func addrOf(m []byte) uintptr {
	return uintptr(unsafe.Pointer(&m[0]))
}
