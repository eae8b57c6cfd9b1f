// Package kfmt is a small formatter for bootstrap diagnostics, in the
// spirit of the teacher's own goose/kernel/kfmt package (invoked
// throughout bitmap_allocator.go and bootmem_allocator.go as
// kfmt.Printf("[bitmap_alloc] page stats: ...")). Byte-count formatting
// is delegated to github.com/dustin/go-humanize rather than hand-rolled
// KiB/MiB division, matching its direct use in the sibling
// CircleCashTeam-magiskboot_go example (humanize.Bytes for entry sizes).
package kfmt

import (
	"fmt"

	"github.com/dustin/go-humanize"

	"strata/kernel"
)

// Report formats a diagnostic line and forwards it to r. It never
// allocates more than fmt.Sprintf itself does; callers on a genuinely
// allocation-free path should prefer Reporter.Report directly with a
// pre-built string.
func Report(r kernel.Reporter, format string, args ...interface{}) {
	if r == nil {
		return
	}
	r.Report(fmt.Sprintf(format, args...))
}

// Bytes renders a byte count the way bootstrap diagnostics want it
// shown: "12 MB" rather than a raw integer.
func Bytes(n uint64) string {
	return humanize.Bytes(n)
}

// RegionStats renders a one-line free/total summary
// ("[label] free: X / Y") after the teacher's BitmapAllocator.printStats
// format.
func RegionStats(label string, freeBytes, totalBytes uint64) string {
	return fmt.Sprintf("[%s] free: %s / %s", label, Bytes(freeBytes), Bytes(totalBytes))
}
