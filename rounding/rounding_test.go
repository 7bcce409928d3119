package rounding

import "testing"

func TestRoundSizeHalfUp(t *testing.T) {
	const g = 4096

	cases := []struct {
		in   uint64
		want uint64
	}{
		{0, 0},
		{1, 0},                 // below g/2 rounds to zero
		{g/2 - 1, 0},
		{g / 2, g},              // exact tie rounds up
		{g/2 + 1, g},
		{g - 1, g},
		{g, g},
		{g + g/2, 2 * g},
		{2*g + g/2 - 1, 2 * g},
	}

	for _, c := range cases {
		got := roundTo(c.in, g)
		if got != c.want {
			t.Errorf("roundTo(%d, %d) = %d, want %d", c.in, g, got, c.want)
		}
	}
}

// roundTo mirrors RoundSize's arithmetic against an explicit granularity,
// independent of the host's real page size, so the half-up boundary cases
// are exercised deterministically regardless of platform.
func roundTo(unrounded, g uint64) uint64 {
	q := unrounded / g
	r := unrounded % g
	if r >= g/2 {
		return g * (q + 1)
	}
	return g * q
}

func TestRoundSizeIdempotent(t *testing.T) {
	sizes := []uint64{0, 1, 100, 4096, 4097, 8000, 1 << 20, (1 << 20) + 123}
	for _, s := range sizes {
		for _, large := range []bool{false, true} {
			once := RoundSize(s, large)
			twice := RoundSize(once, large)
			if once != twice {
				t.Errorf("RoundSize not idempotent for %d (large=%v): %d != %d", s, large, once, twice)
			}
		}
	}
}

func TestShouldAutoEnableLargePages(t *testing.T) {
	if ShouldAutoEnableLargePages(1<<20 - 1) {
		t.Error("just-below-threshold size should not auto-enable large pages")
	}
	if !ShouldAutoEnableLargePages(1 << 20) {
		t.Error("exactly-threshold size should auto-enable large pages")
	}
	if !ShouldAutoEnableLargePages(1<<20 + 1) {
		t.Error("above-threshold size should auto-enable large pages")
	}
}
