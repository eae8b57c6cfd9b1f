package resource_test

import (
	"testing"
	"unsafe"

	"strata/kernel/internal/memtest"
	"strata/kernel/region"
	"strata/kernel/resource"
)

const (
	buddyMinBlock = uintptr(64)
	buddyMaxBlock = uintptr(4096)
	buddyMaxAlign = uintptr(16)
)

func newBuddyOverRealMemory(t *testing.T, topBlocks uintptr) (*resource.Buddy, func()) {
	t.Helper()
	r, err := memtest.New(topBlocks * buddyMaxBlock)
	if err != nil {
		t.Fatalf("memtest.New: %v", err)
	}
	upstream := resource.NewMonotonic(r.Base, r.Size)
	b, err := resource.NewBuddy(buddyMinBlock, buddyMaxBlock, buddyMaxBlock, buddyMaxAlign, upstream)
	if err != nil {
		r.Close()
		t.Fatalf("NewBuddy: %v", err)
	}
	return b, r.Close
}

func TestBuddyRejectsInvalidBounds(t *testing.T) {
	cases := []struct {
		name               string
		min, max, topAlign uintptr
	}{
		{"min not power of two", 3, 4096, 4096},
		{"max not power of two", 64, 4000, 4096},
		{"min greater than max", 4096, 64, 4096},
		{"min too small for header", 8, 4096, 4096},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if _, err := resource.NewBuddy(c.min, c.max, c.topAlign, 16, nil); err != resource.ErrBuddyInvalidBounds {
				t.Fatalf("NewBuddy(%d,%d,%d) = %v, want ErrBuddyInvalidBounds", c.min, c.max, c.topAlign, err)
			}
		})
	}
}

func TestBuddyAllocateReturnsWritableMemory(t *testing.T) {
	b, closeFn := newBuddyOverRealMemory(t, 1)
	defer closeFn()

	ptr, err := b.Allocate(region.Request{Size: 8, Alignment: 8})
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}

	p := (*uint64)(unsafe.Pointer(ptr))
	*p = 0xdeadbeef
	if *p != 0xdeadbeef {
		t.Fatalf("round-tripped write through allocated memory failed")
	}

	b.Deallocate(ptr, region.Request{Size: 8, Alignment: 8})
}

// Distinctness (spec.md §8): no two blocks returned by Allocate without an
// intervening Deallocate ever overlap.
func TestBuddyAllocatedBlocksAreDistinct(t *testing.T) {
	b, closeFn := newBuddyOverRealMemory(t, 1)
	defer closeFn()

	req := region.Request{Size: 16, Alignment: 8}
	var ptrs []uintptr
	for {
		ptr, err := b.Allocate(req)
		if err != nil {
			break
		}
		ptrs = append(ptrs, ptr)
	}
	if len(ptrs) < 2 {
		t.Fatalf("expected to allocate multiple blocks before exhaustion, got %d", len(ptrs))
	}

	for i := range ptrs {
		for j := range ptrs {
			if i == j {
				continue
			}
			lo, hi := ptrs[i], ptrs[j]
			if lo <= ptrs[j] && ptrs[j] < lo+16 {
				_ = hi
				t.Fatalf("blocks %#x and %#x overlap", ptrs[i], ptrs[j])
			}
		}
	}
}

// Split/combine: freeing every sub-block derived from one top-level
// chunk must make the full chunk allocatable again without requesting a
// second one from the upstream.
func TestBuddySplitThenCombineReclaimsFullBlock(t *testing.T) {
	b, closeFn := newBuddyOverRealMemory(t, 1) // exactly one top-level chunk available
	defer closeFn()

	small := region.Request{Size: 16, Alignment: 8}
	var ptrs []uintptr
	for {
		ptr, err := b.Allocate(small)
		if err != nil {
			break
		}
		ptrs = append(ptrs, ptr)
	}

	for _, ptr := range ptrs {
		b.Deallocate(ptr, small)
	}

	big := region.Request{Size: buddyMaxBlock - 64, Alignment: 8}
	if _, err := b.Allocate(big); err != nil {
		t.Fatalf("Allocate after freeing every sub-block: %v, want success (combine should have reassembled the top-level block)", err)
	}
}

// Same reclaim property as above, but deallocating in reverse
// allocation order and then again with an interleaved order: buddyOf
// must still compute each block's sibling correctly at every level the
// combine loop walks, regardless of which half was allocated last.
func TestBuddySplitThenCombineReclaimsFullBlockOutOfOrder(t *testing.T) {
	small := region.Request{Size: 16, Alignment: 8}

	reverse := func(ptrs []uintptr) []uintptr {
		out := make([]uintptr, len(ptrs))
		for i, p := range ptrs {
			out[len(ptrs)-1-i] = p
		}
		return out
	}
	interleave := func(ptrs []uintptr) []uintptr {
		out := make([]uintptr, 0, len(ptrs))
		lo, hi := 0, len(ptrs)-1
		for lo <= hi {
			out = append(out, ptrs[hi])
			if lo != hi {
				out = append(out, ptrs[lo])
			}
			lo++
			hi--
		}
		return out
	}

	orders := map[string]func([]uintptr) []uintptr{
		"reverse":     reverse,
		"interleaved": interleave,
	}

	for name, order := range orders {
		t.Run(name, func(t *testing.T) {
			b, closeFn := newBuddyOverRealMemory(t, 1)
			defer closeFn()

			var ptrs []uintptr
			for {
				ptr, err := b.Allocate(small)
				if err != nil {
					break
				}
				ptrs = append(ptrs, ptr)
			}

			for _, ptr := range order(ptrs) {
				b.Deallocate(ptr, small)
			}

			big := region.Request{Size: buddyMaxBlock - 64, Alignment: 8}
			if _, err := b.Allocate(big); err != nil {
				t.Fatalf("Allocate after %s-order free: %v, want success (combine should have reassembled the top-level block)", name, err)
			}
		})
	}
}

func TestBuddyTooLargeRequestFails(t *testing.T) {
	b, closeFn := newBuddyOverRealMemory(t, 1)
	defer closeFn()

	if _, err := b.Allocate(region.Request{Size: buddyMaxBlock * 2, Alignment: 8}); err != resource.ErrBuddyTooLarge {
		t.Fatalf("Allocate(oversized) = %v, want ErrBuddyTooLarge", err)
	}
}

func TestBuddyUpstreamExhaustionSurfacesAsBadAlloc(t *testing.T) {
	b, closeFn := newBuddyOverRealMemory(t, 1)
	defer closeFn()

	req := region.Request{Size: buddyMaxBlock - 64, Alignment: 8}
	if _, err := b.Allocate(req); err != nil {
		t.Fatalf("first top-level Allocate: %v", err)
	}
	if _, err := b.Allocate(req); err != resource.ErrBuddyUpstreamExhausted {
		t.Fatalf("second top-level Allocate = %v, want ErrBuddyUpstreamExhausted", err)
	}
}
