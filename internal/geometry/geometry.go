// Package geometry decodes the variable-bit-length delta-encoded
// polyline, polygon, and point records stored in a subdivision's RGN
// window.
package geometry

import (
	"encoding/binary"
	"fmt"

	"github.com/kiozen/gmapimg/internal/bitstream"
	"github.com/kiozen/gmapimg/internal/garminunits"
	"github.com/kiozen/gmapimg/internal/gmerr"
)

// Point is one decoded vertex in raw Garmin coordinate units.
type Point struct {
	Lng int32
	Lat int32
}

// Lon returns the vertex's longitude in radians.
func (p Point) Lon() float64 { return garminunits.Rad(p.Lng) }

// LatRad returns the vertex's latitude in radians.
func (p Point) LatRad() float64 { return garminunits.Rad(p.Lat) }

// Shape is a decoded polyline or polygon.
type Shape struct {
	Type           uint16
	Points         []Point
	LabelOffset    uint32
	LabelInNET     bool
	UseOrientation bool
}

// POI is a decoded point (or indexed point) record.
type POI struct {
	Type        uint16
	SubType     byte
	Pos         Point
	LabelOffset uint32
	IsLbl6      bool
	HasLabel    bool
}

// DecodePolylines decodes consecutive classic polyline records from data
// until it is exhausted.
func DecodePolylines(data []byte, centerLng, centerLat int32, shift uint) ([]Shape, error) {
	return decodeShapes(data, centerLng, centerLat, shift, false, false)
}

// DecodePolygons decodes consecutive classic polygon records. Polygons
// share the polyline wire format but use a one-bit-narrower nibble base
// for the per-axis bit-width fields (§4.3).
func DecodePolygons(data []byte, centerLng, centerLat int32, shift uint) ([]Shape, error) {
	return decodeShapes(data, centerLng, centerLat, shift, false, true)
}

// DecodePolylinesExtended decodes the NT ("decode2") variant, which
// stores its per-axis bit widths explicitly rather than via a nibble
// base and has no implicit extra-bit.
func DecodePolylinesExtended(data []byte, centerLng, centerLat int32, shift uint) ([]Shape, error) {
	return decodeShapes(data, centerLng, centerLat, shift, true, false)
}

func decodeShapes(data []byte, centerLng, centerLat int32, shift uint, extended, isPolygon bool) ([]Shape, error) {
	var shapes []Shape
	pos := 0
	for pos < len(data) {
		var (
			shape    Shape
			consumed int
			err      error
		)
		if extended {
			shape, consumed, err = decodeOneShapeExtended(data[pos:], centerLng, centerLat, shift)
		} else {
			shape, consumed, err = decodeOneShapeClassic(data[pos:], centerLng, centerLat, shift, isPolygon)
		}
		if err != nil {
			return shapes, fmt.Errorf("geometry: shape at offset %d: %w", pos, err)
		}
		if consumed == 0 {
			break
		}
		shapes = append(shapes, shape)
		pos += consumed
	}
	return shapes, nil
}

// decodeOneShapeClassic implements the classic (non-NT) "decode" format
// of §4.3: a type byte whose top bit is the per-vertex extra-bit flag, a
// 24-bit label/direction field, an explicit first delta, an explicit
// bitstream length, a nibble pair selecting the per-axis bit width, and
// a following sign byte whose low two bits say whether each axis's
// per-vertex deltas carry a variable sign.
func decodeOneShapeClassic(data []byte, centerLng, centerLat int32, shift uint, isPolygon bool) (Shape, int, error) {
	if len(data) < 1+3+4+1+1 {
		return Shape{}, 0, fmt.Errorf("record too short for header")
	}
	typ := uint16(data[0] & 0x7F)
	hasExtraBit := data[0]&0x80 != 0
	pos := 1

	labelField := uint32(data[pos]) | uint32(data[pos+1])<<8 | uint32(data[pos+2])<<16
	pos += 3
	labelOffset := labelField & 0x3FFFFF
	direction := labelField&0x400000 != 0
	labelInNET := labelField&0x800000 != 0

	firstDLng := int32(int16(binary.LittleEndian.Uint16(data[pos:])))
	pos += 2
	firstDLat := int32(int16(binary.LittleEndian.Uint16(data[pos:])))
	pos += 2
	lng := centerLng + firstDLng<<shift
	lat := centerLat + firstDLat<<shift
	points := []Point{{Lng: lng, Lat: lat}}

	bitstreamLen := int(data[pos])
	pos++
	if bitstreamLen&0x80 != 0 {
		if pos >= len(data) {
			return Shape{}, 0, fmt.Errorf("truncated extended bitstream length")
		}
		bitstreamLen = (bitstreamLen &^ 0x80) | int(data[pos])<<7
		pos++
	}
	if pos+1 > len(data) {
		return Shape{}, 0, fmt.Errorf("truncated bit-width nibbles")
	}
	widthByte := data[pos]
	pos++

	widthBase := 2
	if isPolygon {
		widthBase = 1
	}
	lonBits := int(widthByte&0x0F) + widthBase
	latBits := int((widthByte>>4)&0x0F) + widthBase

	if pos+1 > len(data) {
		return Shape{}, 0, fmt.Errorf("truncated sign byte")
	}
	signByte := data[pos]
	pos++
	lonNegate := signByte&0x01 != 0
	latNegate := signByte&0x02 != 0

	if pos+bitstreamLen > len(data) {
		return Shape{}, 0, gmerr.New(gmerr.Truncated, "classic shape bitstream extends past record")
	}
	stream := data[pos : pos+bitstreamLen]
	bits := bitstream.New(stream)

	need := func() int {
		n := lonBits + latBits
		if lonNegate {
			n++
		}
		if latNegate {
			n++
		}
		if hasExtraBit {
			n++
		}
		return n
	}
	for bits.Remaining() >= need() {
		dLon, err := decodeAxisDelta(bits, lonBits, lonNegate)
		if err != nil {
			return Shape{}, 0, err
		}
		dLat, err := decodeAxisDelta(bits, latBits, latNegate)
		if err != nil {
			return Shape{}, 0, err
		}
		if hasExtraBit {
			if _, err := bits.Bit(); err != nil {
				return Shape{}, 0, err
			}
		}
		lng += dLon
		lat += dLat
		points = append(points, Point{Lng: lng, Lat: lat})
	}

	consumed := pos + bitstreamLen
	return Shape{
		Type:           typ,
		Points:         points,
		LabelOffset:    labelOffset,
		LabelInNET:     labelInNET,
		UseOrientation: direction,
	}, consumed, nil
}

// decodeAxisDelta reads one axis's delta for a single vertex: a leading
// sign bit plus the magnitude when negate is set (the axis's deltas can
// go either way), or a bare non-negative magnitude when it isn't (§4.3
// step 6: "read a sign bit when its axis flag says negate").
func decodeAxisDelta(bits *bitstream.Reader, width int, negate bool) (int32, error) {
	if negate {
		return bits.Int(width)
	}
	v, err := bits.Uint(width)
	return int32(v), err
}

// decodeOneShapeExtended implements the NT "decode2" format: a u16
// type, an attribute byte, an explicit bit-width pair and an explicit
// bitstream length, with no implicit per-vertex extra bit.
func decodeOneShapeExtended(data []byte, centerLng, centerLat int32, shift uint) (Shape, int, error) {
	if len(data) < 2+1+3+1 {
		return Shape{}, 0, fmt.Errorf("record too short for extended header")
	}
	typ := binary.LittleEndian.Uint16(data[0:2])
	pos := 2
	attr := data[pos]
	pos++
	hasLabel := attr&0x01 != 0
	direction := attr&0x02 != 0

	var labelOffset uint32
	if hasLabel {
		if pos+3 > len(data) {
			return Shape{}, 0, fmt.Errorf("truncated extended label offset")
		}
		labelOffset = load24(data[pos:]) & 0x7FFFFF
		pos += 3
	}

	if pos+1 > len(data) {
		return Shape{}, 0, fmt.Errorf("truncated extended bit widths")
	}
	widthByte := data[pos]
	pos++
	lonBits := int(widthByte & 0x1F)
	latBits := int((widthByte >> 5) & 0x07)
	if pos+1 <= len(data) {
		latBits |= int(data[pos]&0x03) << 3
		pos++
	}

	if pos+2 > len(data) {
		return Shape{}, 0, fmt.Errorf("truncated extended bitstream length")
	}
	bitstreamLen := int(binary.LittleEndian.Uint16(data[pos:]))
	pos += 2

	lng := centerLng
	lat := centerLat
	points := []Point{{Lng: lng, Lat: lat}}

	if pos+bitstreamLen > len(data) {
		return Shape{}, 0, gmerr.New(gmerr.Truncated, "extended shape bitstream extends past record")
	}
	stream := data[pos : pos+bitstreamLen]
	bits := bitstream.New(stream)

	for bits.Remaining() >= lonBits+1+latBits+1 {
		dLon, err := bits.Int(lonBits)
		if err != nil {
			return Shape{}, 0, err
		}
		dLat, err := bits.Int(latBits)
		if err != nil {
			return Shape{}, 0, err
		}
		lng += dLon
		lat += dLat
		points = append(points, Point{Lng: lng, Lat: lat})
	}

	consumed := pos + bitstreamLen
	return Shape{
		Type:           typ,
		Points:         points,
		LabelOffset:    labelOffset,
		LabelInNET:     false,
		UseOrientation: direction,
	}, consumed, nil
}

// DecodePoints decodes consecutive point (or indexed point) records.
func DecodePoints(data []byte, centerLng, centerLat int32, shift uint, indexed bool) ([]POI, error) {
	var pois []POI
	pos := 0
	for pos+9 <= len(data) {
		p, consumed, err := decodeOnePoint(data[pos:], centerLng, centerLat, shift, indexed)
		if err != nil {
			return pois, fmt.Errorf("geometry: point at offset %d: %w", pos, err)
		}
		pois = append(pois, p)
		pos += consumed
	}
	return pois, nil
}

// decodeOnePoint implements the Point "decode" format of §4.3: type
// byte, subtype byte (top bit = "has label"), a u24 label pointer (bit
// 23 = isLbl6, low 23 bits = offset), then lng/lat deltas as signed
// 16-bit values.
func decodeOnePoint(data []byte, centerLng, centerLat int32, shift uint, indexed bool) (POI, int, error) {
	if len(data) < 1+1+3+2+2 {
		return POI{}, 0, fmt.Errorf("point record too short")
	}
	typ := data[0]
	subtype := data[1]
	hasLabel := subtype&0x80 != 0
	pos := 2

	labelField := load24(data[pos:])
	pos += 3
	isLbl6 := labelField&0x800000 != 0
	labelOffset := labelField & 0x7FFFFF

	dLng := int32(int16(binary.LittleEndian.Uint16(data[pos:])))
	pos += 2
	dLat := int32(int16(binary.LittleEndian.Uint16(data[pos:])))
	pos += 2

	p := POI{
		Type:        uint16(typ),
		SubType:     subtype & 0x7F,
		Pos:         Point{Lng: centerLng + dLng<<shift, Lat: centerLat + dLat<<shift},
		LabelOffset: labelOffset,
		IsLbl6:      isLbl6,
		HasLabel:    hasLabel,
	}

	if indexed {
		// indexed points carry an extra byte (house-number/search-index
		// hint) after the deltas that this reader does not use for
		// spatial queries.
		if pos < len(data) {
			pos++
		}
	}

	return p, pos, nil
}

func load24(b []byte) uint32 {
	var tmp [4]byte
	copy(tmp[:3], b[:3])
	return binary.LittleEndian.Uint32(tmp[:])
}
