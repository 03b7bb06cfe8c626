// Package styletab resolves point/polyline/polygon type codes to
// drawing style, merging a hardcoded fallback table with an optional
// TYP file overlay, the way a renderer picks which icon/color/pattern
// to use for a given record.
package styletab

import (
	"github.com/kiozen/gmapimg/internal/model"
)

// Key packs a type and subtype into the lookup key TYP tables use.
func Key(typ, subtype uint16) uint32 {
	return uint32(typ)<<8 | uint32(subtype)
}

// Styler answers style lookups for point/polyline/polygon records.
type Styler struct {
	points   map[uint32]model.PointType
	lines    map[uint32]model.LineType
	polygons map[uint32]model.PolygonType
	order    model.DrawOrder
}

// New builds a Styler with just the hardcoded fallback table loaded.
func New() *Styler {
	s := &Styler{
		points:   map[uint32]model.PointType{},
		lines:    map[uint32]model.LineType{},
		polygons: map[uint32]model.PolygonType{},
	}
	s.loadFallback()
	return s
}

// LoadTYP merges typ's point/line/polygon tables and draw order on top
// of the current table, overriding any fallback or previously loaded
// entries for the same type code.
func (s *Styler) LoadTYP(typ *model.TYPFile) {
	for _, p := range typ.Points {
		s.points[Key(uint16(p.Type), uint16(p.SubType))] = p
	}
	for _, l := range typ.Lines {
		s.lines[Key(uint16(l.Type), uint16(l.SubType))] = l
	}
	for _, poly := range typ.Polygons {
		s.polygons[Key(uint16(poly.Type), uint16(poly.SubType))] = poly
	}
	if len(typ.DrawOrder.Polygons) > 0 || len(typ.DrawOrder.Lines) > 0 || len(typ.DrawOrder.Points) > 0 {
		s.order = typ.DrawOrder
	}
}

// Point returns the style for a point type/subtype, and whether one was
// found (fallback or overlay).
func (s *Styler) Point(typ, subtype uint16) (model.PointType, bool) {
	p, ok := s.points[Key(typ, subtype)]
	return p, ok
}

// Line returns the style for a polyline type/subtype.
func (s *Styler) Line(typ, subtype uint16) (model.LineType, bool) {
	l, ok := s.lines[Key(typ, subtype)]
	return l, ok
}

// Polygon returns the style for a polygon type/subtype.
func (s *Styler) Polygon(typ, subtype uint16) (model.PolygonType, bool) {
	p, ok := s.polygons[Key(typ, subtype)]
	return p, ok
}

// DrawOrder returns the current painter's-algorithm polygon (and line,
// point) draw order, overlay-provided if one was loaded, else empty
// (meaning "undefined order, draw as encountered").
func (s *Styler) DrawOrder() model.DrawOrder {
	return s.order
}

// fallbackLine is one entry of the hardcoded polyline fallback table.
type fallbackLine struct {
	typ        uint16
	width      int
	day, night model.Color
}

// fallbackPolygon is one entry of the hardcoded polygon fallback table.
type fallbackPolygon struct {
	typ        uint16
	day, night model.Color
}

// fallbackLines covers the road/water/rail/boundary classes a Garmin
// topo map uses most: 0x01-0x0D are the road class ladder (motorway
// down to unpaved track), 0x14-0x1D are hydro/rail/boundary lines, and
// 0x20-0x25 are the contour lines Queries.FindPolylineCloseBy excludes.
var fallbackLines = []fallbackLine{
	{0x01, 6, model.Color{R: 200, G: 120, B: 50, Alpha: 255}, model.Color{R: 120, G: 70, B: 30, Alpha: 255}},
	{0x02, 5, model.Color{R: 220, G: 150, B: 60, Alpha: 255}, model.Color{R: 130, G: 85, B: 35, Alpha: 255}},
	{0x03, 4, model.Color{R: 240, G: 190, B: 80, Alpha: 255}, model.Color{R: 140, G: 105, B: 45, Alpha: 255}},
	{0x04, 3, model.Color{R: 250, G: 220, B: 120, Alpha: 255}, model.Color{R: 150, G: 125, B: 60, Alpha: 255}},
	{0x05, 3, model.Color{R: 255, G: 240, B: 160, Alpha: 255}, model.Color{R: 160, G: 140, B: 80, Alpha: 255}},
	{0x06, 2, model.Color{R: 255, G: 255, B: 255, Alpha: 255}, model.Color{R: 90, G: 90, B: 90, Alpha: 255}},
	{0x07, 2, model.Color{R: 230, G: 230, B: 230, Alpha: 255}, model.Color{R: 80, G: 80, B: 80, Alpha: 255}},
	{0x08, 1, model.Color{R: 210, G: 210, B: 210, Alpha: 255}, model.Color{R: 70, G: 70, B: 70, Alpha: 255}},
	{0x09, 1, model.Color{R: 190, G: 190, B: 190, Alpha: 255}, model.Color{R: 60, G: 60, B: 60, Alpha: 255}},
	{0x0A, 1, model.Color{R: 170, G: 170, B: 170, Alpha: 255}, model.Color{R: 55, G: 55, B: 55, Alpha: 255}},
	{0x0B, 1, model.Color{R: 210, G: 180, B: 140, Alpha: 255}, model.Color{R: 90, G: 75, B: 55, Alpha: 255}},
	{0x0C, 1, model.Color{R: 200, G: 170, B: 130, Alpha: 255}, model.Color{R: 85, G: 70, B: 50, Alpha: 255}},
	{0x0D, 1, model.Color{R: 190, G: 160, B: 120, Alpha: 255}, model.Color{R: 80, G: 65, B: 45, Alpha: 255}},
	{0x14, 2, model.Color{R: 120, G: 180, B: 255, Alpha: 255}, model.Color{R: 40, G: 80, B: 160, Alpha: 255}}, // river
	{0x15, 1, model.Color{R: 150, G: 200, B: 255, Alpha: 255}, model.Color{R: 50, G: 90, B: 170, Alpha: 255}}, // stream
	{0x16, 3, model.Color{R: 120, G: 120, B: 120, Alpha: 255}, model.Color{R: 200, G: 200, B: 200, Alpha: 255}}, // railway
	{0x17, 1, model.Color{R: 255, G: 0, B: 0, Alpha: 255}, model.Color{R: 200, G: 0, B: 0, Alpha: 255}}, // power line
	{0x18, 1, model.Color{R: 160, G: 0, B: 160, Alpha: 255}, model.Color{R: 120, G: 0, B: 120, Alpha: 255}}, // admin boundary
	{0x1C, 1, model.Color{R: 0, G: 0, B: 0, Alpha: 255}, model.Color{R: 255, G: 255, B: 255, Alpha: 255}}, // ferry route
	{0x1D, 2, model.Color{R: 80, G: 160, B: 80, Alpha: 255}, model.Color{R: 40, G: 100, B: 40, Alpha: 255}}, // trail
	{0x20, 1, model.Color{R: 180, G: 120, B: 60, Alpha: 180}, model.Color{R: 120, G: 80, B: 40, Alpha: 180}}, // contour (index)
	{0x21, 1, model.Color{R: 180, G: 120, B: 60, Alpha: 120}, model.Color{R: 120, G: 80, B: 40, Alpha: 120}}, // contour (intermediate)
	{0x22, 1, model.Color{R: 180, G: 120, B: 60, Alpha: 90}, model.Color{R: 120, G: 80, B: 40, Alpha: 90}},
	{0x23, 1, model.Color{R: 180, G: 120, B: 60, Alpha: 90}, model.Color{R: 120, G: 80, B: 40, Alpha: 90}},
	{0x24, 1, model.Color{R: 180, G: 120, B: 60, Alpha: 90}, model.Color{R: 120, G: 80, B: 40, Alpha: 90}},
	{0x25, 1, model.Color{R: 180, G: 120, B: 60, Alpha: 90}, model.Color{R: 120, G: 80, B: 40, Alpha: 90}},
}

// fallbackPolygons covers the land-cover classes a topo basemap uses:
// water, forest, builtup, park, and a handful of reserved/unclassified
// fill types so most type codes still resolve to something.
var fallbackPolygons = []fallbackPolygon{
	{0x01, model.Color{R: 120, G: 180, B: 255, Alpha: 255}, model.Color{R: 20, G: 40, B: 90, Alpha: 255}}, // water
	{0x02, model.Color{R: 200, G: 220, B: 255, Alpha: 200}, model.Color{R: 30, G: 50, B: 100, Alpha: 200}}, // marsh
	{0x0A, model.Color{R: 230, G: 230, B: 210, Alpha: 255}, model.Color{R: 50, G: 50, B: 45, Alpha: 255}}, // builtup area
	{0x13, model.Color{R: 180, G: 220, B: 160, Alpha: 255}, model.Color{R: 30, G: 60, B: 30, Alpha: 255}}, // park/reserve
	{0x14, model.Color{R: 150, G: 220, B: 150, Alpha: 255}, model.Color{R: 20, G: 55, B: 20, Alpha: 255}}, // forest
	{0x15, model.Color{R: 210, G: 230, B: 180, Alpha: 255}, model.Color{R: 45, G: 55, B: 30, Alpha: 255}}, // orchard/scrub
	{0x28, model.Color{R: 240, G: 240, B: 230, Alpha: 255}, model.Color{R: 55, G: 55, B: 50, Alpha: 255}}, // airport
	{0x32, model.Color{R: 225, G: 225, B: 225, Alpha: 255}, model.Color{R: 45, G: 45, B: 45, Alpha: 255}}, // building
	{0x3F, model.Color{R: 255, G: 250, B: 220, Alpha: 255}, model.Color{R: 60, G: 55, B: 35, Alpha: 255}}, // sand/beach
	{0x4A, model.Color{R: 235, G: 235, B: 235, Alpha: 255}, model.Color{R: 40, G: 40, B: 40, Alpha: 255}}, // parking lot
}

// loadFallback seeds the hardcoded topo type tables so a map still
// renders sensibly with no TYP file loaded, and installs the default
// painter's-algorithm polygon draw order (0x7F down to 0x00).
func (s *Styler) loadFallback() {
	for _, l := range fallbackLines {
		s.lines[Key(l.typ, 0)] = model.LineType{
			Type: int(l.typ), LineWidth: l.width,
			DayColor: l.day, NightColor: l.night,
		}
	}
	for _, p := range fallbackPolygons {
		s.polygons[Key(p.typ, 0)] = model.PolygonType{
			Type: int(p.typ), DayColor: p.day, NightColor: p.night,
		}
	}
	s.points[Key(0x2f, 0x06)] = model.PointType{
		Type: 0x2f06, SubType: 0x06,
		DayColor: model.Color{R: 0, G: 0, B: 0, Alpha: 255},
	}
	s.order = model.DrawOrder{Polygons: defaultPolygonDrawOrder()}
}

// defaultPolygonDrawOrder returns the permutation of 0x7F..0x00 (type
// codes in descending order) used as the painter's-algorithm polygon
// order before any TYP overlay is loaded.
func defaultPolygonDrawOrder() []int {
	order := make([]int, 0x80)
	for i := range order {
		order[i] = 0x7F - i
	}
	return order
}
