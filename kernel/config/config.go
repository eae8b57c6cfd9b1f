// Package config holds the target configuration constants spec.md §6
// requires the boot entry point to provide: kernel page size, platform
// maximum alignment, and the tunables the allocator stack derives its
// sizing from. These mirror the teacher's goose/kernel/mm package
// (PageSize, PageShift) generalised into one place instead of scattered
// per-subsystem constants.
package config

// KernelPageSize is the kernel's page granularity. It must be a power of
// two; callers that change it at build time are responsible for keeping
// it consistent with whatever paging setup (out of scope here) follows.
const KernelPageSize = 4096

// KernelPageShift is log2(KernelPageSize).
const KernelPageShift = 12

// FirmwarePageSize is the UEFI-defined page size firmware descriptors
// report page counts in. It is always 4 KiB per the UEFI specification,
// independent of KernelPageSize.
const FirmwarePageSize = 4096

// MaxAlign is the platform's maximum natural alignment for any scalar or
// pointer type; buddy block payloads are aligned to this value.
const MaxAlign = 16

// MemChunkLevels sets the buddy resource's smallest block size relative
// to KernelPageSize: SmallestChunk = KernelPageSize >> MemChunkLevels.
// 10 is the value used throughout spec.md's scenarios (S5, S6).
const MemChunkLevels = 10

// SmallestChunk is KernelPageSize >> MemChunkLevels: 4 bytes with the
// values above. That is smaller than a buddy block header plus its
// padding, so resource.NewBuddy rejects it as a minimum block size;
// nothing in this module passes these constants to bootstrap.Build.
const SmallestChunk = KernelPageSize >> MemChunkLevels

// DebugAssertEnabled is the debug-assert toggle. kernel.Assert does not
// read it; callers pass it as Assert's debugAssertEnabled argument. It is
// a package variable
// instead of a build tag so that tests can exercise both the debug and
// release assertion behaviour described in spec.md §7.
var DebugAssertEnabled = true
