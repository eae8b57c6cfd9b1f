package resource_test

import (
	"testing"

	"strata/kernel/region"
	"strata/kernel/resource"
)

func TestMonotonicAllocatesForward(t *testing.T) {
	m := resource.NewMonotonic(0x1000, 64)

	a, err := m.Allocate(region.Request{Size: 8, Alignment: 8})
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	if a != 0x1000 {
		t.Fatalf("first Allocate = %#x, want %#x", a, 0x1000)
	}

	b, err := m.Allocate(region.Request{Size: 8, Alignment: 8})
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	if b != 0x1008 {
		t.Fatalf("second Allocate = %#x, want %#x", b, 0x1008)
	}
}

func TestMonotonicRespectsAlignment(t *testing.T) {
	m := resource.NewMonotonic(0x1001, 64)
	a, err := m.Allocate(region.Request{Size: 8, Alignment: 16})
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	if a%16 != 0 {
		t.Fatalf("Allocate returned %#x, not aligned to 16", a)
	}
}

func TestMonotonicExhaustsAtSpanEnd(t *testing.T) {
	m := resource.NewMonotonic(0x1000, 16)
	if _, err := m.Allocate(region.Request{Size: 20, Alignment: 1}); err != resource.ErrMonotonicExhausted {
		t.Fatalf("oversized Allocate = %v, want ErrMonotonicExhausted", err)
	}
	if _, err := m.Allocate(region.Request{Size: 16, Alignment: 1}); err != nil {
		t.Fatalf("exact-fit Allocate failed: %v", err)
	}
	if _, err := m.Allocate(region.Request{Size: 1, Alignment: 1}); err != resource.ErrMonotonicExhausted {
		t.Fatalf("Allocate past exhaustion = %v, want ErrMonotonicExhausted", err)
	}
}

func TestMonotonicDeallocateIsNoop(t *testing.T) {
	m := resource.NewMonotonic(0x1000, 16)
	before := m.Remaining()
	m.Deallocate(0x1000, region.Request{Size: 8, Alignment: 1})
	if m.Remaining() != before {
		t.Fatalf("Deallocate changed Remaining(): before=%d after=%d", before, m.Remaining())
	}
}

func TestMonotonicIsEqualIsPointerIdentity(t *testing.T) {
	a := resource.NewMonotonic(0x1000, 16)
	b := resource.NewMonotonic(0x1000, 16)
	if !a.IsEqual(a) {
		t.Fatalf("a.IsEqual(a) = false, want true")
	}
	if a.IsEqual(b) {
		t.Fatalf("a.IsEqual(b) = true for distinct instances, want false")
	}
}
