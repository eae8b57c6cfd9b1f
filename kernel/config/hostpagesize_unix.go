//go:build unix

package config

import "golang.org/x/sys/unix"

// HostPageSizeHint reports the real host OS page size. It exists purely
// so hosted tests can sanity-check KernelPageSize against the page size
// of the machine actually running go test; nothing on the bootstrap path
// depends on it, since the freestanding kernel this module models runs
// long before any host OS page size would be meaningful.
func HostPageSizeHint() int {
	return unix.Getpagesize()
}
