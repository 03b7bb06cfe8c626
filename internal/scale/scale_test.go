package scale

import "testing"

func TestBitsThresholds(t *testing.T) {
	r := New()
	cases := []struct {
		scale float64
		want  int
	}{
		{100000, 2},
		{70000, 2},
		{69999, 3},
		{50000, 3},
		{3000, 10},
		{2.9, 24},
		{0, 24},
	}
	for _, c := range cases {
		got := r.Bits(c.scale)
		if got != c.want {
			t.Errorf("Bits(%v) = %d, want %d", c.scale, got, c.want)
		}
	}
}

func TestBitsClampsWithAdjustDetailLevel(t *testing.T) {
	r := &Resolver{AdjustDetailLevel: -5}
	if got := r.Bits(70000); got != 2 {
		t.Errorf("Bits = %d, want clamped to 2", got)
	}
	r2 := &Resolver{AdjustDetailLevel: 5}
	if got := r2.Bits(0); got != 24 {
		t.Errorf("Bits = %d, want clamped to 24", got)
	}
}

func TestSelectLevel(t *testing.T) {
	levels := []int{10, 18, 24}
	if got := SelectLevel(levels, 24); got != 2 {
		t.Errorf("SelectLevel = %d, want 2", got)
	}
	if got := SelectLevel(levels, 12); got != 0 {
		t.Errorf("SelectLevel = %d, want 0", got)
	}
	if got := SelectLevel(levels, 20); got != 1 {
		t.Errorf("SelectLevel = %d, want 1", got)
	}
}
