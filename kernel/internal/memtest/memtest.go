// Package memtest backs tests across kernel/... with real, addressable
// host memory. Every resource and bootstrap test in this module writes
// through raw uintptr/unsafe.Pointer values (block headers, routing
// tags, reconstructed descriptor arrays); exercising that against a
// synthetic byte slice risks the garbage collector moving or collecting
// the backing array mid-test. mmap-backed memory, like the file-backed
// mmap.MMap the teacher's pack uses for on-disk image data
// (CircleCashTeam-magiskboot_go's bootimg.go/cpio.go), is pinned for its
// entire lifetime and never scanned by the Go garbage collector.
package memtest

import (
	"os"

	"github.com/edsrzf/mmap-go"
)

// Region is a block of real, page-backed host memory usable as the
// "physical" address space a test's firmware/kernel descriptors point
// into.
type Region struct {
	mm   mmap.MMap
	file *os.File
	Base uintptr
	Size uintptr
}

// New maps size bytes of zeroed, addressable memory backed by a
// temporary file, mirroring mmap.Map(fd, mmap.RDWR, 0) from the
// retrieved pack but against a throwaway file instead of a real disk
// image.
func New(size uintptr) (*Region, error) {
	f, err := os.CreateTemp("", "strata-memtest-*")
	if err != nil {
		return nil, err
	}
	if err := f.Truncate(int64(size)); err != nil {
		f.Close()
		os.Remove(f.Name())
		return nil, err
	}

	m, err := mmap.Map(f, mmap.RDWR, 0)
	if err != nil {
		f.Close()
		os.Remove(f.Name())
		return nil, err
	}

	return &Region{
		mm:   m,
		file: f,
		Base: addrOf(m),
		Size: size,
	}, nil
}

// Close unmaps the region and removes its backing file.
func (r *Region) Close() {
	name := r.file.Name()
	r.mm.Unmap()
	r.file.Close()
	os.Remove(name)
}
