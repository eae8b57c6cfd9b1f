// Command-free library package strata implements the CORE memory
// bootstrap of a small freestanding kernel: turning a firmware-supplied
// memory map into a composed allocator stack a kernel can hand out
// general-purpose memory from.
//
// The entry points are kernel/bootstrap (the orchestrator: Build and
// GeneralResource), kernel/kernelmap (the sanitised map it bootstraps
// from), and kernel/resource (the Monotonic/Distributed/Buddy resources
// it composes). See SPEC_FULL.md for the full module layout.
package strata
