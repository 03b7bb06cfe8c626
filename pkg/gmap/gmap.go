// Package gmap is the top-level reader API: open a Garmin .img map,
// inspect its bounds and copyright, load a TYP style overlay, and run
// viewport queries and hit-tests against the decoded vector data.
package gmap

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"os"
	"sort"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/kiozen/gmapimg/internal/config"
	"github.com/kiozen/gmapimg/internal/container"
	"github.com/kiozen/gmapimg/internal/geometry"
	"github.com/kiozen/gmapimg/internal/gmerr"
	"github.com/kiozen/gmapimg/internal/label"
	"github.com/kiozen/gmapimg/internal/scale"
	"github.com/kiozen/gmapimg/internal/spatialindex"
	"github.com/kiozen/gmapimg/internal/styletab"
	"github.com/kiozen/gmapimg/internal/subfile"
	"github.com/kiozen/gmapimg/pkg/typconv"
)

var log = logrus.WithField("component", "mapsource")

// Point is a map-space coordinate in radians, the Garmin convention
// spec.md names; this package never projects to or from screen pixels,
// leaving that to the caller.
type Point struct {
	Lon, Lat float64
}

// Rect is an axis-aligned viewport or bounding rectangle in radians.
type Rect = subfile.Bounds

// Feature is one decoded, styled vector record returned from a query.
type Feature struct {
	Type, SubType int
	Points        []Point
	Label         string
	// Labels holds every sub-field a LBL6 POI record carries (name,
	// city, street, ...); Label is always Labels[0] when both are set.
	Labels        []string
	SubfileName   string
}

// SceneBatch is the visible-feature result of one Query call, in
// document order: subfile order, then subdivision order, then record
// order within a subdivision.
type SceneBatch struct {
	Polygons  []Feature
	Polylines []Feature
	Points    []Feature
	POIs      []Feature
	// Partial is true if Query returned early on cancellation.
	Partial bool
}

type loadedSubfile struct {
	sf     *subfile.Subfile
	levels map[int]*spatialindex.Index // lazily built per retained map level
}

// Map holds every subfile of one opened container, ready for queries.
type Map struct {
	path   string
	c      *container.Container
	data   []byte
	subs   []*loadedSubfile
	bounds Rect
	copyrightList []string

	subfileIndex *spatialindex.Index
	styler       *styletab.Styler
	scaler       *scale.Resolver
	cfg          config.Config
}

// Open parses path's container and every valid subfile's TRE/RGN/LBL/
// NET headers, merging their bounding rectangles into the map's global
// area and deduplicating copyright strings.
func Open(path string, cfg config.Config) (*Map, error) {
	c, err := container.Open(path)
	if err != nil {
		return nil, err
	}

	m := &Map{
		path:   path,
		c:      c,
		data:   c.Window.Bytes(),
		styler: styletab.New(),
		scaler: &scale.Resolver{AdjustDetailLevel: cfg.DetailLevelAdjust},
		cfg:    cfg,
	}

	seenCopyright := map[string]bool{}
	entries := make([]spatialindex.Entry, 0, len(c.Subfiles))
	haveBounds := false

	for _, sfRaw := range c.Subfiles {
		sf, err := subfile.ReadBasics(sfRaw.Name, sfRaw.Parts, m.data)
		if err != nil {
			log.WithField("subfile", sfRaw.Name).WithError(err).Warn("skipping unreadable subfile")
			continue
		}
		if err := sf.Bounds.Validate(); err != nil {
			log.WithField("subfile", sfRaw.Name).WithError(err).Warn("skipping subfile with invalid bounds")
			continue
		}

		m.subs = append(m.subs, &loadedSubfile{sf: sf, levels: map[int]*spatialindex.Index{}})
		m.bounds = unionBounds(m.bounds, sf.Bounds, !haveBounds)
		haveBounds = true

		if sf.Copyright != "" && !seenCopyright[sf.Copyright] {
			seenCopyright[sf.Copyright] = true
			m.copyrightList = append(m.copyrightList, sf.Copyright)
		}

		entries = append(entries, spatialindex.Entry{
			Rect:    rectOf(sf.Bounds),
			Payload: len(m.subs) - 1,
		})
	}

	m.subfileIndex = spatialindex.Build(entries)

	m.loadEmbeddedTYP()

	if cfg.DefaultTYPPath != "" {
		if err := m.SetTypFile(cfg.DefaultTYPPath); err != nil {
			log.WithError(err).Warn("failed to load default TYP overlay")
		}
	}

	return m, nil
}

// loadEmbeddedTYP merges the style overlay from the first subfile that
// carries an embedded TYP part, per §4.6: the hardcoded fallback table
// is always installed first (in styletab.New), and an embedded TYP, if
// present, overlays it next; SetTypFile's explicit external TYP (loaded
// after Open returns) takes precedence over both.
func (m *Map) loadEmbeddedTYP() {
	for _, ls := range m.subs {
		if ls.sf.TYPSize == 0 {
			continue
		}
		typBytes, err := slice(m.data, ls.sf.TYPOffset, ls.sf.TYPSize)
		if err != nil {
			log.WithField("subfile", ls.sf.Name).WithError(err).Warn("embedded TYP part out of range")
			continue
		}
		typ, err := typconv.ParseBinaryTYP(bytes.NewReader(typBytes), int64(len(typBytes)))
		if err != nil {
			log.WithField("subfile", ls.sf.Name).WithError(err).Warn("failed to parse embedded TYP")
			continue
		}
		m.styler.LoadTYP(typ)
		return
	}
}

func slice(data []byte, offset, size int64) ([]byte, error) {
	if offset < 0 || size < 0 || offset+size > int64(len(data)) {
		return nil, fmt.Errorf("out of range: offset=%d size=%d len=%d", offset, size, len(data))
	}
	return data[offset : offset+size], nil
}

// Close releases the map's underlying file window.
func (m *Map) Close() error {
	return m.c.Close()
}

// Bounds returns the map's overall bounding rectangle, the union of
// every loaded subfile's bounds.
func (m *Map) Bounds() Rect { return m.bounds }

// Copyright returns every subfile's copyright string, deduplicated and
// joined with newlines.
func (m *Map) Copyright() string {
	out := ""
	for i, c := range m.copyrightList {
		if i > 0 {
			out += "\n"
		}
		out += c
	}
	return out
}

// SetTypFile loads a binary TYP file and merges its styles over the
// current table: entries for the type codes it defines are replaced,
// and entries from the fallback or an earlier overlay for other type
// codes remain.
func (m *Map) SetTypFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return gmerr.Wrap(gmerr.Truncated, "open TYP overlay", err)
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return gmerr.Wrap(gmerr.Truncated, "stat TYP overlay", err)
	}

	typ, err := typconv.ParseBinaryTYP(f, stat.Size())
	if err != nil {
		return gmerr.Wrap(gmerr.UnsupportedFormat, "parse TYP overlay", err)
	}

	m.styler.LoadTYP(typ)
	return nil
}

// Query runs a viewport/zoom query: it picks the deepest map level
// whose bits do not exceed scaleBits, visits every subfile and
// subdivision intersecting viewport at that level, decodes their RGN
// geometry, and attaches labels and styles. Cancellation is checked
// between subfiles and between geometry classes within a subdivision;
// on observed cancellation the partial batch collected so far is
// returned with Partial set.
func (m *Map) Query(ctx context.Context, viewport Rect, scaleBits int) (*SceneBatch, error) {
	traceID := uuid.New().String()
	qlog := log.WithField("query", traceID)

	batch := &SceneBatch{}
	vp := rectOf(viewport)

	hits := m.subfileIndex.Query(vp)
	sort.Slice(hits, func(i, j int) bool { return hits[i].Payload.(int) < hits[j].Payload.(int) })
	for _, hit := range hits {
		if ctx.Err() != nil {
			batch.Partial = true
			qlog.Debug("query cancelled before subfile")
			return batch, nil
		}

		idx := hit.Payload.(int)
		ls := m.subs[idx]

		if err := m.queryOneSubfile(ctx, ls, vp, scaleBits, batch); err != nil {
			qlog.WithField("subfile", ls.sf.Name).WithError(err).Warn("subfile query failed, skipping")
			continue
		}
	}

	return batch, nil
}

func (m *Map) queryOneSubfile(ctx context.Context, ls *loadedSubfile, vp spatialindex.Rect, scaleBits int, batch *SceneBatch) error {
	sf := ls.sf
	if len(sf.Levels) == 0 {
		return nil
	}

	levelBits := make([]int, len(sf.Levels))
	for i, lv := range sf.Levels {
		levelBits[i] = lv.Bits
	}
	levelIdx := scale.SelectLevel(levelBits, scaleBits)
	wantLevel := sf.Levels[levelIdx].Level

	idx, ok := ls.levels[wantLevel]
	if !ok {
		var entries []spatialindex.Entry
		for i, sd := range sf.Subdivisions {
			if sd.Level != wantLevel {
				continue
			}
			entries = append(entries, spatialindex.Entry{
				Rect: spatialindex.Rect{West: sd.West, South: sd.South, East: sd.East, North: sd.North},
				Payload: i,
			})
		}
		idx = spatialindex.Build(entries)
		ls.levels[wantLevel] = idx
	}

	hits := idx.Query(vp)
	sort.Slice(hits, func(i, j int) bool { return hits[i].Payload.(int) < hits[j].Payload.(int) })
	for _, hit := range hits {
		if ctx.Err() != nil {
			batch.Partial = true
			return nil
		}

		sd := sf.Subdivisions[hit.Payload.(int)]
		m.decodeSubdivision(ctx, sf, sd, vp, batch)
	}
	return nil
}

func (m *Map) decodeSubdivision(ctx context.Context, sf *subfile.Subfile, sd subfile.Subdivision, vp spatialindex.Rect, batch *SceneBatch) {
	win, err := sf.RegionWindow(m.data, sd)
	if err != nil {
		log.WithField("subfile", sf.Name).WithError(err).Debug("subdivision RGN window unreadable")
		return
	}

	sec, err := subfile.SectionsFor(win, sd)
	if err != nil {
		log.WithField("subfile", sf.Name).WithError(err).Debug("subdivision sections malformed")
		return
	}

	if ctx.Err() != nil {
		batch.Partial = true
		return
	}
	if len(sec.Points) > 0 {
		pois, _ := geometry.DecodePoints(sec.Points, sd.CenterLng, sd.CenterLat, sd.Shift, false)
		batch.Points = append(batch.Points, m.toPointFeatures(sf, pois, vp)...)
	}

	if ctx.Err() != nil {
		batch.Partial = true
		return
	}
	if len(sec.IdxPoints) > 0 {
		pois, _ := geometry.DecodePoints(sec.IdxPoints, sd.CenterLng, sd.CenterLat, sd.Shift, true)
		batch.POIs = append(batch.POIs, m.toPointFeatures(sf, pois, vp)...)
	}

	if ctx.Err() != nil {
		batch.Partial = true
		return
	}
	if len(sec.Polylines) > 0 {
		shapes, _ := geometry.DecodePolylines(sec.Polylines, sd.CenterLng, sd.CenterLat, sd.Shift)
		batch.Polylines = append(batch.Polylines, m.toShapeFeatures(sf, shapes, vp, false)...)
	}

	if ctx.Err() != nil {
		batch.Partial = true
		return
	}
	if len(sec.Polygons) > 0 {
		shapes, _ := geometry.DecodePolygons(sec.Polygons, sd.CenterLng, sd.CenterLat, sd.Shift)
		batch.Polygons = append(batch.Polygons, m.toShapeFeatures(sf, shapes, vp, true)...)
	}
}

func (m *Map) toPointFeatures(sf *subfile.Subfile, pois []geometry.POI, vp spatialindex.Rect) []Feature {
	out := make([]Feature, 0, len(pois))
	for _, p := range pois {
		lon, lat := p.Pos.Lon(), p.Pos.LatRad()
		if lon < vp.West || lon > vp.East || lat < vp.South || lat > vp.North {
			continue
		}
		f := Feature{Type: int(p.Type), SubType: int(p.SubType), Points: []Point{{Lon: lon, Lat: lat}}, SubfileName: sf.Name}
		if p.HasLabel && sf.Labels != nil {
			target := label.TargetLBL1
			if p.IsLbl6 {
				target = label.TargetLBL6
			}
			if p.IsLbl6 {
				if fields, err := sf.Labels.GetPOIFields(target, p.LabelOffset); err == nil && len(fields) > 0 {
					f.Labels = fields
					f.Label = fields[0]
				}
			} else if s, err := sf.Labels.Get(target, p.LabelOffset); err == nil {
				f.Label = s
			}
		}
		out = append(out, f)
	}
	return out
}

func (m *Map) toShapeFeatures(sf *subfile.Subfile, shapes []geometry.Shape, vp spatialindex.Rect, polygon bool) []Feature {
	out := make([]Feature, 0, len(shapes))
	for _, s := range shapes {
		if shapeOutside(s, vp) {
			continue
		}
		pts := make([]Point, len(s.Points))
		for i, gp := range s.Points {
			pts[i] = Point{Lon: gp.Lon(), Lat: gp.LatRad()}
		}
		f := Feature{Type: int(s.Type), Points: pts, SubfileName: sf.Name}
		if s.LabelOffset != 0 && sf.Labels != nil {
			target := label.TargetLBL1
			if s.LabelInNET {
				target = label.TargetNET1
			}
			if lbl, err := sf.Labels.Get(target, s.LabelOffset); err == nil {
				f.Label = lbl
			}
		}
		out = append(out, f)
	}
	return out
}

func shapeOutside(s geometry.Shape, vp spatialindex.Rect) bool {
	if len(s.Points) == 0 {
		return true
	}
	minLon, maxLon := math.Inf(1), math.Inf(-1)
	minLat, maxLat := math.Inf(1), math.Inf(-1)
	for _, p := range s.Points {
		lon, lat := p.Lon(), p.LatRad()
		minLon, maxLon = math.Min(minLon, lon), math.Max(maxLon, lon)
		minLat, maxLat = math.Min(minLat, lat), math.Max(maxLat, lat)
	}
	return maxLon < vp.West || minLon > vp.East || maxLat < vp.South || minLat > vp.North
}

func rectOf(b Rect) spatialindex.Rect {
	return spatialindex.Rect{West: b.West, South: b.South, East: b.East, North: b.North}
}

func unionBounds(acc, b Rect, first bool) Rect {
	if first {
		return b
	}
	return Rect{
		North: math.Max(acc.North, b.North),
		South: math.Min(acc.South, b.South),
		East:  math.Max(acc.East, b.East),
		West:  math.Min(acc.West, b.West),
	}
}

// queryAround runs Query over a small viewport centered on pt, radius
// wide, at the finest map level (bits 24), for the nearest-feature
// lookups below.
func (m *Map) queryAround(ctx context.Context, pt Point, radius float64) (*SceneBatch, error) {
	vp := Rect{
		North: pt.Lat + radius,
		South: pt.Lat - radius,
		East:  pt.Lon + radius,
		West:  pt.Lon - radius,
	}
	return m.Query(ctx, vp, 24)
}

// pixelRadius converts a pixel distance threshold to radians given
// unitsPerPixel (the caller's current projection scale, map radians
// per screen pixel) — the host app owns the projection itself per
// this module's radian-only contract.
func pixelRadius(thresholdPx, unitsPerPixel float64) float64 {
	return thresholdPx * unitsPerPixel
}

// FindPOICloseBy returns the closest point or indexed-point feature to
// pt within a Manhattan distance of thresholdPx screen pixels
// (unitsPerPixel converts pixels to the map's radian units), searching
// plain points before POIs and returning the first hit in that order.
func (m *Map) FindPOICloseBy(ctx context.Context, pt Point, thresholdPx, unitsPerPixel float64) (Feature, bool, error) {
	r := pixelRadius(thresholdPx, unitsPerPixel)
	batch, err := m.queryAround(ctx, pt, r*2)
	if err != nil {
		return Feature{}, false, err
	}

	best, ok := closestManhattan(batch.Points, pt, r)
	if ok {
		return best, true, nil
	}
	return closestManhattan(batch.POIs, pt, r)
}

func closestManhattan(features []Feature, pt Point, maxDist float64) (Feature, bool) {
	bestDist := math.Inf(1)
	var best Feature
	found := false
	for _, f := range features {
		if len(f.Points) == 0 {
			continue
		}
		d := math.Abs(f.Points[0].Lon-pt.Lon) + math.Abs(f.Points[0].Lat-pt.Lat)
		if d <= maxDist && d < bestDist {
			bestDist = d
			best = f
			found = true
		}
	}
	return best, found
}

// InfoResult is the combined hit-test result of InfoAt.
type InfoResult struct {
	Polylines []Feature
	Polygons  []Feature
}

// InfoAt returns every polygon containing pt (ray-casting, odd
// crossings) and the polyline nearest to pt, if it lies within
// thresholdPx (parametric projection onto each segment; polylines tied
// at that smallest distance are all returned).
func (m *Map) InfoAt(ctx context.Context, pt Point, thresholdPx, unitsPerPixel float64) (InfoResult, error) {
	r := pixelRadius(thresholdPx, unitsPerPixel)
	batch, err := m.queryAround(ctx, pt, r*4)
	if err != nil {
		return InfoResult{}, err
	}

	var res InfoResult
	for _, f := range batch.Polygons {
		if pointInPolygon(pt, f.Points) {
			res.Polygons = append(res.Polygons, f)
		}
	}

	bestDist := math.Inf(1)
	for _, f := range batch.Polylines {
		d := distanceToPolyline(pt, f.Points)
		if d > r {
			continue
		}
		if d < bestDist {
			bestDist = d
			res.Polylines = []Feature{f}
		} else if d == bestDist {
			res.Polylines = append(res.Polylines, f)
		}
	}
	return res, nil
}

// contourTypeMin/Max exclude contour-line polylines (type 0x20..0x25)
// from FindPolylineCloseBy, per this map format's line-type convention.
const (
	contourTypeMin = 0x20
	contourTypeMax = 0x25
)

// FindPolylineCloseBy returns the polyline whose distance to both pt1
// and pt2 is within thresholdPx, minimizing the larger of the two
// distances; contour lines are never matched.
func (m *Map) FindPolylineCloseBy(ctx context.Context, pt1, pt2 Point, thresholdPx, unitsPerPixel float64) (Feature, bool, error) {
	r := pixelRadius(thresholdPx, unitsPerPixel)
	mid := Point{Lon: (pt1.Lon + pt2.Lon) / 2, Lat: (pt1.Lat + pt2.Lat) / 2}
	radius := math.Abs(pt1.Lon-pt2.Lon) + math.Abs(pt1.Lat-pt2.Lat) + r*2
	batch, err := m.queryAround(ctx, mid, radius)
	if err != nil {
		return Feature{}, false, err
	}

	bestScore := math.Inf(1)
	var best Feature
	found := false
	for _, f := range batch.Polylines {
		if f.Type >= contourTypeMin && f.Type <= contourTypeMax {
			continue
		}
		d1 := distanceToPolyline(pt1, f.Points)
		d2 := distanceToPolyline(pt2, f.Points)
		if d1 > r || d2 > r {
			continue
		}
		score := math.Max(d1, d2)
		if score < bestScore {
			bestScore = score
			best = f
			found = true
		}
	}
	return best, found, nil
}

// pointInPolygon implements the standard ray-casting odd-crossings
// test against polygon's closed vertex ring.
func pointInPolygon(pt Point, polygon []Point) bool {
	inside := false
	n := len(polygon)
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		pi, pj := polygon[i], polygon[j]
		if (pi.Lat > pt.Lat) != (pj.Lat > pt.Lat) &&
			pt.Lon < (pj.Lon-pi.Lon)*(pt.Lat-pi.Lat)/(pj.Lat-pi.Lat)+pi.Lon {
			inside = !inside
		}
	}
	return inside
}

// distanceToPolyline returns the smallest perpendicular (or endpoint)
// distance from pt to any segment of line, via parametric projection
// of pt onto each segment.
func distanceToPolyline(pt Point, line []Point) float64 {
	best := math.Inf(1)
	for i := 0; i+1 < len(line); i++ {
		d := distanceToSegment(pt, line[i], line[i+1])
		if d < best {
			best = d
		}
	}
	return best
}

func distanceToSegment(pt, a, b Point) float64 {
	dx, dy := b.Lon-a.Lon, b.Lat-a.Lat
	lenSq := dx*dx + dy*dy
	if lenSq == 0 {
		return math.Hypot(pt.Lon-a.Lon, pt.Lat-a.Lat)
	}
	t := ((pt.Lon-a.Lon)*dx + (pt.Lat-a.Lat)*dy) / lenSq
	t = math.Max(0, math.Min(1, t))
	projLon := a.Lon + t*dx
	projLat := a.Lat + t*dy
	return math.Hypot(pt.Lon-projLon, pt.Lat-projLat)
}

// MapLevels returns the distinct map-level bits values present across
// every loaded subfile, ascending.
func (m *Map) MapLevels() []int {
	seen := map[int]bool{}
	for _, ls := range m.subs {
		for _, lv := range ls.sf.Levels {
			seen[lv.Bits] = true
		}
	}
	out := make([]int, 0, len(seen))
	for b := range seen {
		out = append(out, b)
	}
	sort.Ints(out)
	return out
}

// Styler exposes the map's style table for a renderer that wants to
// look up draw colors/icons/patterns directly rather than re-deriving
// them from Feature.Type/SubType.
func (m *Map) Styler() *styletab.Styler { return m.styler }

