package geometry

import "testing"

// buildClassicShape assembles one classic polyline/polygon record: type
// byte, 24-bit label field, 16-bit first-vertex delta pair, bitstream
// length byte, bit-width nibble byte, sign byte, then the
// caller-supplied bitstream bytes.
func buildClassicShape(typ byte, label uint32, firstDLng, firstDLat int16, widthByte, signByte byte, stream []byte) []byte {
	out := []byte{
		typ,
		byte(label), byte(label >> 8), byte(label >> 16),
		byte(uint16(firstDLng)), byte(uint16(firstDLng) >> 8),
		byte(uint16(firstDLat)), byte(uint16(firstDLat) >> 8),
		byte(len(stream)),
		widthByte,
		signByte,
	}
	return append(out, stream...)
}

func TestDecodePolylinesOneDelta(t *testing.T) {
	// lonBits = 3+2=5, latBits = 2+2=4 (widthByte nibbles 3 and 2).
	// signByte=0x03: both axes carry a per-vertex sign bit.
	// One delta pair: dLon=+2 (sign=0,mag=2), dLat=-3 (sign=1,mag=3).
	// Bits MSB-first in this comment, but Reader packs LSB-first per byte;
	// build it via the same bit writer semantics as bitstream.Reader.Uint.
	data := buildClassicShape(1, 0, 0, 0, 0x23, 0x03, packBits([]bitField{
		{0, 1}, {2, 5}, // dLon sign=0, magnitude=2 (5 bits)
		{1, 1}, {3, 4}, // dLat sign=1, magnitude=3 (4 bits)
	}))

	shapes, err := DecodePolylines(data, 1000, 2000, 0)
	if err != nil {
		t.Fatalf("DecodePolylines: %v", err)
	}
	if len(shapes) != 1 {
		t.Fatalf("got %d shapes, want 1", len(shapes))
	}
	s := shapes[0]
	if s.Type != 1 {
		t.Errorf("Type = %d, want 1", s.Type)
	}
	if len(s.Points) != 2 {
		t.Fatalf("got %d points, want 2", len(s.Points))
	}
	if s.Points[0] != (Point{Lng: 1000, Lat: 2000}) {
		t.Errorf("first point = %+v, want {1000 2000}", s.Points[0])
	}
	if s.Points[1] != (Point{Lng: 1002, Lat: 1997}) {
		t.Errorf("second point = %+v, want {1002 1997}", s.Points[1])
	}
}

func TestDecodePolygonsNarrowerWidthBase(t *testing.T) {
	// Same nibble byte as above (0x23 -> nibbles 3,2) but isPolygon=true
	// drops the width base to 1, so lonBits=4, latBits=3. signByte=0x00:
	// neither axis carries a sign bit, so both deltas decode unsigned.
	data := buildClassicShape(7, 0, 0, 0, 0x23, 0x00, packBits([]bitField{
		{1, 4}, // dLon magnitude=1 (4 bits), no sign bit
		{2, 3}, // dLat magnitude=2 (3 bits), no sign bit
	}))

	shapes, err := DecodePolygons(data, 0, 0, 0)
	if err != nil {
		t.Fatalf("DecodePolygons: %v", err)
	}
	if len(shapes) != 1 || len(shapes[0].Points) != 2 {
		t.Fatalf("got %+v", shapes)
	}
	if shapes[0].Points[1] != (Point{Lng: 1, Lat: 2}) {
		t.Errorf("second point = %+v, want {1 2}", shapes[0].Points[1])
	}
}

func TestDecodePolylinesAxisSignIndependence(t *testing.T) {
	// signByte=0x01: only lon carries a per-vertex sign bit; lat is
	// always non-negative and has no sign bit in the stream at all.
	data := buildClassicShape(2, 0, 0, 0, 0x23, 0x01, packBits([]bitField{
		{1, 1}, {4, 5}, // dLon sign=1, magnitude=4 (5 bits) -> -4
		{6, 4}, // dLat magnitude=6 (4 bits), no sign bit -> +6
	}))

	shapes, err := DecodePolylines(data, 0, 0, 0)
	if err != nil {
		t.Fatalf("DecodePolylines: %v", err)
	}
	if len(shapes) != 1 || len(shapes[0].Points) != 2 {
		t.Fatalf("got %+v", shapes)
	}
	if shapes[0].Points[1] != (Point{Lng: -4, Lat: 6}) {
		t.Errorf("second point = %+v, want {-4 6}", shapes[0].Points[1])
	}
}

// bitField is one (value, width) pair packed LSB-first, matching
// bitstream.Reader's bit order.
type bitField struct {
	value uint32
	width int
}

func packBits(fields []bitField) []byte {
	var bitPos int
	var out []byte
	for _, f := range fields {
		for i := 0; i < f.width; i++ {
			byteIdx := bitPos / 8
			for byteIdx >= len(out) {
				out = append(out, 0)
			}
			bit := (f.value >> uint(i)) & 1
			out[byteIdx] |= byte(bit) << uint(bitPos%8)
			bitPos++
		}
	}
	return out
}

func TestDecodePointsBasic(t *testing.T) {
	// type=0x06, subtype=0x00 (no label), label pointer=0 (isLbl6=false),
	// dLng=+5, dLat=-5 as signed 16-bit.
	data := []byte{
		0x06, 0x00,
		0x00, 0x00, 0x00, // u24 label pointer, unused (hasLabel=false)
		0x05, 0x00, // dLng = +5
		0xFB, 0xFF, // dLat = -5
	}
	pois, err := DecodePoints(data, 100, 200, 0, false)
	if err != nil {
		t.Fatalf("DecodePoints: %v", err)
	}
	if len(pois) != 1 {
		t.Fatalf("got %d points, want 1", len(pois))
	}
	p := pois[0]
	if p.Pos.Lng != 105 || p.Pos.Lat != 195 {
		t.Errorf("Pos = %+v, want {105 195}", p.Pos)
	}
	if p.HasLabel {
		t.Errorf("HasLabel = true, want false")
	}
}

func TestDecodePointsWithLabel(t *testing.T) {
	// subtype top bit set -> hasLabel; label pointer's top bit set ->
	// isLbl6, offset = 0x000123.
	data := []byte{
		0x2F, 0x80,
		0x23, 0x01, 0x80, // u24: isLbl6 bit (0x800000) | offset 0x000123
		0x00, 0x00,
		0x00, 0x00,
	}
	pois, err := DecodePoints(data, 0, 0, 0, false)
	if err != nil {
		t.Fatalf("DecodePoints: %v", err)
	}
	if len(pois) != 1 {
		t.Fatalf("got %d points, want 1", len(pois))
	}
	p := pois[0]
	if !p.HasLabel {
		t.Errorf("HasLabel = false, want true")
	}
	if !p.IsLbl6 {
		t.Errorf("IsLbl6 = false, want true")
	}
	if p.LabelOffset != 0x000123 {
		t.Errorf("LabelOffset = %#x, want 0x123", p.LabelOffset)
	}
}

func TestDecodePolylinesEmpty(t *testing.T) {
	shapes, err := DecodePolylines(nil, 0, 0, 0)
	if err != nil {
		t.Fatalf("DecodePolylines(nil): %v", err)
	}
	if len(shapes) != 0 {
		t.Errorf("got %d shapes, want 0", len(shapes))
	}
}
