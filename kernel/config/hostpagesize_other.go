//go:build !unix

package config

// HostPageSizeHint falls back to KernelPageSize on non-unix hosts, where
// golang.org/x/sys/unix is unavailable.
func HostPageSizeHint() int {
	return KernelPageSize
}
