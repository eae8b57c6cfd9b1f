package region_test

import (
	"math"
	"testing"
	"testing/quick"

	"strata/kernel/region"
)

func TestAddOverflows(t *testing.T) {
	if sum, overflow := region.AddOverflows(2, 3); overflow || sum != 5 {
		t.Fatalf("AddOverflows(2,3) = (%d,%v), want (5,false)", sum, overflow)
	}
	maxU := uintptr(math.MaxUint64)
	if _, overflow := region.AddOverflows(maxU, 1); !overflow {
		t.Fatalf("AddOverflows(MaxUint, 1) did not report overflow")
	}
}

func TestAlignUpRoundsToNextMultiple(t *testing.T) {
	cases := []struct{ x, align, want uintptr }{
		{0, 16, 0},
		{1, 16, 16},
		{16, 16, 16},
		{17, 16, 32},
	}
	for _, c := range cases {
		got, overflow := region.AlignUp(c.x, c.align)
		if overflow {
			t.Fatalf("AlignUp(%d,%d) unexpectedly overflowed", c.x, c.align)
		}
		if got != c.want {
			t.Fatalf("AlignUp(%d,%d) = %d, want %d", c.x, c.align, got, c.want)
		}
	}
}

func TestAlignUpRejectsNonPowerOfTwo(t *testing.T) {
	if _, overflow := region.AlignUp(5, 3); !overflow {
		t.Fatalf("AlignUp with a non-power-of-two alignment should report overflow")
	}
}

func TestIsPowerOfTwo(t *testing.T) {
	for _, x := range []uintptr{1, 2, 4, 1024} {
		if !region.IsPowerOfTwo(x) {
			t.Fatalf("IsPowerOfTwo(%d) = false, want true", x)
		}
	}
	for _, x := range []uintptr{0, 3, 6, 1023} {
		if region.IsPowerOfTwo(x) {
			t.Fatalf("IsPowerOfTwo(%d) = true, want false", x)
		}
	}
}

func TestCeilLog2(t *testing.T) {
	cases := []struct {
		x    uintptr
		want int
	}{
		{1, 0}, {2, 1}, {3, 2}, {4, 2}, {5, 3}, {1024, 10}, {1025, 11},
	}
	for _, c := range cases {
		if got := region.CeilLog2(c.x); got != c.want {
			t.Fatalf("CeilLog2(%d) = %d, want %d", c.x, got, c.want)
		}
	}
}

// Property: for any nonzero x and valid power-of-two align, AlignUp
// either overflows or returns a value that is a multiple of align and
// at least x.
func TestAlignUpProperty(t *testing.T) {
	f := func(x uint32, shift uint8) bool {
		align := uintptr(1) << (shift % 20)
		got, overflow := region.AlignUp(uintptr(x), align)
		if overflow {
			return true
		}
		return got >= uintptr(x) && got%align == 0
	}
	if err := quick.Check(f, nil); err != nil {
		t.Fatal(err)
	}
}

func TestRegionContainsAndIntersects(t *testing.T) {
	r, ok := region.New(100, 50)
	if !ok {
		t.Fatal("region.New unexpectedly failed")
	}
	inner := region.Region{Start: 110, Size: 10}
	if !r.Contains(inner) {
		t.Fatalf("%v should contain %v", r, inner)
	}
	outside := region.Region{Start: 200, Size: 10}
	if r.Contains(outside) || r.Intersects(outside) {
		t.Fatalf("%v should not contain/intersect %v", r, outside)
	}
	overlapping := region.Region{Start: 140, Size: 20}
	if !r.Intersects(overlapping) {
		t.Fatalf("%v should intersect %v", r, overlapping)
	}
}
