package spatialindex

import "testing"

func TestQueryIntersecting(t *testing.T) {
	idx := Build([]Entry{
		{Rect: Rect{West: 0, South: 0, East: 1, North: 1}, Payload: "a"},
		{Rect: Rect{West: 5, South: 5, East: 6, North: 6}, Payload: "b"},
	})

	hits := idx.Query(Rect{West: 0.5, South: 0.5, East: 2, North: 2})
	if len(hits) != 1 {
		t.Fatalf("got %d hits, want 1", len(hits))
	}
	if hits[0].Payload != "a" {
		t.Errorf("Payload = %v, want %q", hits[0].Payload, "a")
	}
}

func TestQueryNoMatch(t *testing.T) {
	idx := Build([]Entry{
		{Rect: Rect{West: 0, South: 0, East: 1, North: 1}, Payload: "a"},
	})
	hits := idx.Query(Rect{West: 10, South: 10, East: 11, North: 11})
	if len(hits) != 0 {
		t.Errorf("got %d hits, want 0", len(hits))
	}
}

func TestLen(t *testing.T) {
	idx := Build([]Entry{
		{Rect: Rect{West: 0, South: 0, East: 1, North: 1}},
		{Rect: Rect{West: 1, South: 1, East: 2, North: 2}},
	})
	if idx.Len() != 2 {
		t.Errorf("Len() = %d, want 2", idx.Len())
	}
}
