package garminunits

import (
	"math"
	"testing"
)

func TestDegRoundTrip(t *testing.T) {
	cases := []float64{0, 45, -45, 179.999, -179.999}
	for _, deg := range cases {
		units := FromDeg(deg)
		got := Deg(units)
		if math.Abs(got-deg) > 1e-3 {
			t.Errorf("Deg(FromDeg(%v)) = %v, want close to %v", deg, got, deg)
		}
	}
}

func TestRadMatchesDeg(t *testing.T) {
	units := int32(1 << 20)
	want := Deg(units) * math.Pi / 180.0
	if got := Rad(units); got != want {
		t.Errorf("Rad(%d) = %v, want %v", units, got, want)
	}
}

func TestInt24SignExtend(t *testing.T) {
	if got := Int24(0x000001); got != 1 {
		t.Errorf("Int24(0x1) = %d, want 1", got)
	}
	if got := Int24(0xFFFFFF); got != -1 {
		t.Errorf("Int24(0xFFFFFF) = %d, want -1", got)
	}
	if got := Int24(0x800000); got != -8388608 {
		t.Errorf("Int24(0x800000) = %d, want -8388608", got)
	}
}
