package styletab

import (
	"testing"

	"github.com/kiozen/gmapimg/internal/model"
)

func TestNewHasFallbackEntries(t *testing.T) {
	s := New()
	if _, ok := s.Polygon(0x01, 0x00); !ok {
		t.Errorf("expected fallback water polygon style")
	}
	if _, ok := s.Line(0x01, 0x00); !ok {
		t.Errorf("expected fallback major road line style")
	}
	if len(s.DrawOrder().Polygons) == 0 {
		t.Errorf("expected non-empty fallback draw order")
	}
}

func TestLoadTYPOverridesFallback(t *testing.T) {
	s := New()
	typ := &model.TYPFile{
		Polygons: []model.PolygonType{
			{Type: 0x01, SubType: 0x00, DayColor: model.Color{R: 1, G: 2, B: 3, Alpha: 255}},
		},
		DrawOrder: model.DrawOrder{Polygons: []int{0x14, 0x01}},
	}
	s.LoadTYP(typ)

	p, ok := s.Polygon(0x01, 0x00)
	if !ok {
		t.Fatalf("expected overridden polygon style to be present")
	}
	if p.DayColor.R != 1 || p.DayColor.G != 2 || p.DayColor.B != 3 {
		t.Errorf("DayColor = %+v, want overlay color", p.DayColor)
	}

	order := s.DrawOrder()
	if len(order.Polygons) != 2 || order.Polygons[0] != 0x14 {
		t.Errorf("DrawOrder = %+v, want overlay order [0x14, 0x01]", order)
	}
}

func TestDefaultDrawOrderIsPermutationOf0x7F(t *testing.T) {
	s := New()
	order := s.DrawOrder().Polygons
	if len(order) != 0x80 {
		t.Fatalf("got %d entries, want 128", len(order))
	}
	seen := make([]bool, 0x80)
	for _, v := range order {
		if v < 0 || v > 0x7F {
			t.Fatalf("draw order value %d out of range", v)
		}
		if seen[v] {
			t.Fatalf("draw order value %d repeated", v)
		}
		seen[v] = true
	}
}

func TestUnknownTypeNotFound(t *testing.T) {
	s := New()
	if _, ok := s.Point(0xFF, 0xFF); ok {
		t.Errorf("expected no style for an unregistered point type")
	}
}
