// Package spatialindex wraps rtreego to answer "which of these
// rectangles intersect the viewport" without a linear scan, for both
// the subfile-level index and each subfile's per-level subdivision
// index.
package spatialindex

import "github.com/dhconnelly/rtreego"

// Rect is an axis-aligned rectangle in radians, west/south being the
// minimum corner and east/north the maximum corner.
type Rect struct {
	West, South, East, North float64
}

// Intersects reports whether r and o overlap.
func (r Rect) Intersects(o Rect) bool {
	return r.West <= o.East && o.West <= r.East && r.South <= o.North && o.South <= r.North
}

// Entry is one item stored in the index: its rectangle plus an opaque
// payload the caller gets back from a query.
type Entry struct {
	Rect    Rect
	Payload any
}

func (e Entry) Bounds() rtreego.Rect {
	point := rtreego.Point{e.Rect.West, e.Rect.South}
	lengths := []float64{
		maxf(e.Rect.East-e.Rect.West, minSpan),
		maxf(e.Rect.North-e.Rect.South, minSpan),
	}
	rect, _ := rtreego.NewRect(point, lengths)
	return rect
}

// minSpan keeps degenerate (zero-area) rectangles valid for rtreego,
// which rejects a Rect with a zero-length side.
const minSpan = 1e-12

func maxf(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

// Index is a read-only-after-construction R-tree over a set of entries.
type Index struct {
	tree    *rtreego.Rtree
	entries []Entry
}

// Build constructs an Index over entries. Called once per subfile for
// the top-level index, and lazily per retained map level for a
// subfile's subdivision index.
func Build(entries []Entry) *Index {
	tree := rtreego.NewTree(2, 5, 20)
	for _, e := range entries {
		tree.Insert(e)
	}
	return &Index{tree: tree, entries: entries}
}

// Query returns every entry whose rectangle intersects bounds.
func (idx *Index) Query(bounds Rect) []Entry {
	if idx == nil || idx.tree == nil {
		return nil
	}
	point := rtreego.Point{bounds.West, bounds.South}
	lengths := []float64{
		maxf(bounds.East-bounds.West, minSpan),
		maxf(bounds.North-bounds.South, minSpan),
	}
	rect, err := rtreego.NewRect(point, lengths)
	if err != nil {
		return nil
	}
	hits := idx.tree.SearchIntersect(rect)
	out := make([]Entry, 0, len(hits))
	for _, h := range hits {
		out = append(out, h.(Entry))
	}
	return out
}

// Len reports how many entries the index holds.
func (idx *Index) Len() int { return len(idx.entries) }
