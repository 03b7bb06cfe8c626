// Package scale maps an on-screen scale (meters per pixel, roughly) to
// the Garmin map-level "bits" resolution a renderer should query, the
// same threshold table a Garmin-aware map viewer uses to decide which
// of a map's zoom levels to draw.
package scale

// thresholds pairs a minimum scale with the bits value to use at or
// above it, ordered from coarsest (smallest bits) to finest. Garmin
// map levels always carry fewer bits at coarser (more zoomed-out)
// scales, since subdivisions get merged as detail drops.
var thresholds = []struct {
	minScale float64
	bits     int
}{
	{70000.0, 2},
	{50000.0, 3},
	{30000.0, 4},
	{20000.0, 5},
	{15000.0, 6},
	{10000.0, 7},
	{7000.0, 8},
	{5000.0, 9},
	{3000.0, 10},
	{2000.0, 11},
	{1500.0, 12},
	{1000.0, 13},
	{700.0, 14},
	{500.0, 15},
	{300.0, 16},
	{200.0, 17},
	{100.0, 18},
	{70.0, 19},
	{30.0, 20},
	{15.0, 21},
	{7.0, 22},
	{3.0, 23},
}

// Resolver converts a viewer scale into the map-level bits to query,
// with an adjustable detail-level bias.
type Resolver struct {
	// AdjustDetailLevel shifts the resolved bits up (more detail) or
	// down (less detail) by a fixed offset, clamped to [2,24].
	AdjustDetailLevel int
}

// New returns a Resolver with no detail-level bias.
func New() *Resolver {
	return &Resolver{}
}

// Bits resolves scale (map units per pixel) to the map-level bits
// value a subdivision must carry to be considered at this zoom.
func (r *Resolver) Bits(scale float64) int {
	bits := 24
	for _, th := range thresholds {
		if scale >= th.minScale {
			bits = th.bits
			break
		}
	}
	bits += r.AdjustDetailLevel
	if bits < 2 {
		bits = 2
	}
	if bits > 24 {
		bits = 24
	}
	return bits
}

// SelectLevel returns the index into levelBits (sorted ascending, one
// entry per map level as stored in a subfile's TRE header) of the
// finest level whose bits value does not exceed resolved. It walks
// from the most detailed level backwards, matching the original
// viewer's "last level whose bits <= target" selection so that a level
// built with a coarser bit width than requested is never used.
func SelectLevel(levelBits []int, resolved int) int {
	idx := len(levelBits) - 1
	for idx > 0 && resolved < levelBits[idx] {
		idx--
	}
	return idx
}
