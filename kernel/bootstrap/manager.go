package bootstrap

import (
	"reflect"
	"unsafe"

	"strata/kernel"
	"strata/kernel/available"
	"strata/kernel/kernelmap"
	"strata/kernel/kfmt"
	"strata/kernel/occupied"
	"strata/kernel/placement"
	"strata/kernel/region"
	"strata/kernel/resource"
)

// Reporter is the diagnostic sink Build prints its bootstrap stats to,
// the same "boot entry point assigns it, this module never assumes a
// concrete sink" pattern SchedulerHandoff follows in handoff.go. Left
// nil, Build stays silent, matching the teacher's own debug-build-only
// printStats/printMemoryMap calls.
var Reporter kernel.Reporter

// nTags is the fixed set of tagged bookkeeping purposes spec.md §4.8
// carves a region for before any general-purpose allocation is possible:
// the rebuilt kernel map, the rebuilt occupied list, and the fragment
// array. The "available" fragment-count estimate adds this many extra
// slots of slack because each of the nTags carving steps can split one
// free fragment into two.
const nTags = 3

var (
	regionSize  = unsafe.Sizeof(region.Region{})
	regionAlign = unsafe.Alignof(region.Region{})
)

// ErrOccupiedOutsideMap is returned by Build when an occupied region in
// the caller-supplied list is not contained in any descriptor of the
// caller-supplied map, per spec.md §4.8 step 1's sanity check.
var ErrOccupiedOutsideMap = kernel.New(moduleName, "occupied region not contained in any map descriptor", kernel.KindInvalidArgument)

// Manager is the fully composed MemoryManager spec.md §3 describes:
// owned copies of the kernel map, occupied list and fragment array, each
// living in its own monotonic buffer, backing a Buddy-over-Distributed
// allocator stack. Like the teacher's BitmapAllocator/BootmemAllocator,
// it is meant to be built once during boot and then handed, by pointer,
// to whatever comes next (see handoff.go); it is not safe for concurrent
// use, matching spec.md §5's single-threaded model.
type Manager struct {
	kmap        *kernelmap.Map
	occ         *occupied.List
	fragments   []resource.Monotonic
	distributed *resource.Distributed
	buddy       *resource.Buddy
	pageSize    uintptr
}

// GeneralResource returns the top of the allocator stack: the Resource
// every later subsystem should allocate kernel memory from, per
// spec.md §4.8's final step.
func (mgr *Manager) GeneralResource() resource.Resource {
	return mgr.buddy
}

// Close releases the buddy resource's top-level free blocks back to its
// upstream. It does not, and cannot, release the monotonic buffers
// themselves: per spec.md §4.5 a Monotonic never reclaims its span.
func (mgr *Manager) Close() {
	mgr.buddy.Close()
}

// Build implements spec.md §4.8's bootstrap algorithm: given a kernel
// map and a sorted occupied list (both already describing the machine's
// memory and whatever the boot entry point itself occupies, e.g. via
// OccupiedMemory), it carves bookkeeping space for its own rebuilt
// copies of both, enumerates whatever is left over into fragments, and
// composes a Distributed-over-fragments, Buddy-over-Distributed
// allocator stack over the result. Build inserts its nTags carved
// regions into occ, so occ's backing buffer needs room for nTags more
// entries (occupied.List.Insert panics on a full buffer).
//
// One Go-specific simplification from the literal spec.md §4.8 step 4 is
// recorded in DESIGN.md: the small Monotonic *objects* themselves (24
// bytes of base/end/cursor bookkeeping each) are ordinary Go values
// owned by Manager, rather than being placement-constructed into a
// fourth carved region. Only the spans those objects describe — and the
// kernel map, occupied list and fragment array backing arrays, which are
// reinterpreted in place the same way firmware.Map.windowAt reinterprets
// raw firmware memory — are placement-derived addresses.
func Build(kmap *kernelmap.Map, occ *occupied.List, pageSize uintptr, maxAlign uintptr, memChunkLevels uint) (*Manager, error) {
	// Step 1: every occupied region must already sit inside some valid
	// descriptor, general-purpose or not (an occupied region is never itself
	// general-purpose memory the allocator stack may hand out again).
	for i := 0; i < occ.Len(); i++ {
		if !containedInAnyDescriptor(kmap, occ.At(i), pageSize) {
			return nil, ErrOccupiedOutsideMap
		}
	}

	// Step 2: request every bookkeeping allotment using each
	// collection's own upper-bound helper, before any placement has
	// happened. The available estimate is computed against the
	// caller's original occupied list plus nTags slack, since the
	// nTags placements about to happen haven't split anything yet.
	memMapReq := kmap.MaxCopyRequest()

	occReq := region.Request{
		Size:      uintptr(occ.Len()+nTags) * regionSize,
		Alignment: regionAlign,
	}

	monoSize := unsafe.Sizeof(resource.Monotonic{})
	monoAlign := unsafe.Alignof(resource.Monotonic{})
	fragmentEstimate := available.Count(kmap, occ, pageSize) + nTags
	availableReq := region.Request{
		Size:      uintptr(fragmentEstimate) * monoSize,
		Alignment: monoAlign,
	}

	// Step 3: placement loop, MemMap then Occupied then Available, each
	// one inserted into the occupied list before the next is placed.
	memMapRegion, err := placement.MeetRequest(kmap, occ, memMapReq, pageSize)
	if err != nil {
		return nil, err
	}
	occ.Insert(memMapRegion)

	occRegion, err := placement.MeetRequest(kmap, occ, occReq, pageSize)
	if err != nil {
		return nil, err
	}
	occ.Insert(occRegion)

	availableRegion, err := placement.MeetRequest(kmap, occ, availableReq, pageSize)
	if err != nil {
		return nil, err
	}
	occ.Insert(availableRegion)

	memMapMono := resource.NewMonotonic(memMapRegion.Start, memMapRegion.Size)
	occMono := resource.NewMonotonic(occRegion.Start, occRegion.Size)
	availMono := resource.NewMonotonic(availableRegion.Start, availableRegion.Size)

	// Step 5: reconstruct the kernel map, the occupied list, and the
	// fragment array, each into its own dedicated monotonic buffer.
	finalMapBuf, err := allocDescriptors(memMapMono, kmap.Len())
	if err != nil {
		return nil, err
	}
	copy(finalMapBuf, kmap.All())
	finalMap := kernelmap.WrapSanitized(finalMapBuf, pageSize)

	finalOccBuf, err := allocRegions(occMono, occ.Len())
	if err != nil {
		return nil, err
	}
	finalOcc := occupied.NewFromBuffer(finalOccBuf)
	for i := 0; i < occ.Len(); i++ {
		finalOcc.Insert(occ.At(i))
	}

	fragCount := available.Count(finalMap, finalOcc, pageSize)
	fragBuf, err := allocMonotonics(availMono, fragCount)
	if err != nil {
		return nil, err
	}
	idx := 0
	available.Enumerate(finalMap, finalOcc, pageSize, func(r region.Region) bool {
		fragBuf[idx] = *resource.NewMonotonic(r.Start, r.Size)
		idx++
		return true
	})

	upstreams := make([]resource.Resource, len(fragBuf))
	for i := range fragBuf {
		upstreams[i] = &fragBuf[i]
	}

	// Step 6: compose Distributed over the fragment array, then Buddy
	// over Distributed, per spec.md §4.8's final assembly.
	distributed := resource.NewDistributed(upstreams)
	smallestChunk := pageSize >> memChunkLevels
	buddy, err := resource.NewBuddy(smallestChunk, pageSize, pageSize, maxAlign, distributed)
	if err != nil {
		return nil, err
	}

	mgr := &Manager{
		kmap:        finalMap,
		occ:         finalOcc,
		fragments:   fragBuf,
		distributed: distributed,
		buddy:       buddy,
		pageSize:    pageSize,
	}
	mgr.printStats(Reporter)
	return mgr, nil
}

// printStats reports the rebuilt kernel map/occupied list sizes and the
// total memory handed to the allocator stack, mirroring the teacher's
// BitmapAllocator.printStats/printMemoryMap diagnostics. A nil r is a
// no-op, per kfmt.Report.
func (mgr *Manager) printStats(r kernel.Reporter) {
	var totalAvailable uint64
	for i := range mgr.fragments {
		totalAvailable += uint64(mgr.fragments[i].Span())
	}
	kfmt.Report(r, "[bootstrap] kernel map rebuilt: %d descriptors", mgr.kmap.Len())
	kfmt.Report(r, "[bootstrap] occupied list rebuilt: %d regions", mgr.occ.Len())
	kfmt.Report(r, "[bootstrap] %s", kfmt.RegionStats("available", totalAvailable, totalAvailable))
	kfmt.Report(r, "[bootstrap] %d fragments, page size %s", len(mgr.fragments), kfmt.Bytes(uint64(mgr.pageSize)))
}

func containedInAnyDescriptor(m *kernelmap.Map, r region.Region, pageSize uintptr) bool {
	for i := 0; i < m.Len(); i++ {
		if m.At(i).ContainsRegion(r, pageSize) {
			return true
		}
	}
	return false
}

// allocDescriptors carves n*sizeof(kernelmap.Descriptor) bytes out of m
// and reinterprets them as a []kernelmap.Descriptor, the same
// reflect.SliceHeader technique firmware.Map.windowAt uses to view raw
// firmware memory as a typed window.
func allocDescriptors(m *resource.Monotonic, n int) ([]kernelmap.Descriptor, error) {
	if n == 0 {
		return nil, nil
	}
	req := region.Request{Size: uintptr(n) * kernelmap.DescriptorSize, Alignment: kernelmap.DescriptorAlign}
	addr, err := m.Allocate(req)
	if err != nil {
		return nil, err
	}
	var hdr reflect.SliceHeader
	hdr.Data = addr
	hdr.Len = n
	hdr.Cap = n
	return *(*[]kernelmap.Descriptor)(unsafe.Pointer(&hdr)), nil
}

func allocRegions(m *resource.Monotonic, n int) ([]region.Region, error) {
	if n == 0 {
		return nil, nil
	}
	req := region.Request{Size: uintptr(n) * regionSize, Alignment: regionAlign}
	addr, err := m.Allocate(req)
	if err != nil {
		return nil, err
	}
	var hdr reflect.SliceHeader
	hdr.Data = addr
	hdr.Len = n
	hdr.Cap = n
	return *(*[]region.Region)(unsafe.Pointer(&hdr)), nil
}

func allocMonotonics(m *resource.Monotonic, n int) ([]resource.Monotonic, error) {
	if n == 0 {
		return nil, nil
	}
	size := unsafe.Sizeof(resource.Monotonic{})
	align := unsafe.Alignof(resource.Monotonic{})
	req := region.Request{Size: uintptr(n) * size, Alignment: align}
	addr, err := m.Allocate(req)
	if err != nil {
		return nil, err
	}
	var hdr reflect.SliceHeader
	hdr.Data = addr
	hdr.Len = n
	hdr.Cap = n
	return *(*[]resource.Monotonic)(unsafe.Pointer(&hdr)), nil
}
