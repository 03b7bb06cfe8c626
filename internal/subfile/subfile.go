// Package subfile parses one Garmin subfile's TRE (map-level tree),
// RGN (geometry region), LBL (labels) and NET (street name indirection)
// headers into the structures MapSource needs to run a spatial query.
package subfile

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/kiozen/gmapimg/internal/container"
	"github.com/kiozen/gmapimg/internal/garminunits"
	"github.com/kiozen/gmapimg/internal/gmerr"
	"github.com/kiozen/gmapimg/internal/label"
)

// Byte offsets inside a TRE part's header, following the layout common
// to classic (non-NT) Garmin map headers.
const (
	treHeaderSizeOff   = 0x00
	treNorthOff        = 0x0F
	treEastOff         = 0x12
	treSouthOff        = 0x15
	treWestOff         = 0x18
	trePOIFlagsOff     = 0x25
	treMapLevelsOff    = 0x1B // u32 offset, u32 size, u16 record size (tre1)
	treSubdivOff       = 0x27 // u32 offset, u32 size, u16 record size (tre2)
	treExtendedOff     = 0x41 // optional tre7: u32 offset, u32 size, u16 record size
	treHeaderMinExtLen = 0x9A
)

const (
	mapLevelRecordSize = 4 // bits(1) + level/inherited packed(1) + subdivision count(2)
	subdivRecordSize16 = 16
	subdivRecordSize14 = 14
)

// MapLevel is one entry in a subfile's map-level tree.
type MapLevel struct {
	Bits      int
	Level     int
	Inherited bool
}

// Bounds is a geographic rectangle in radians.
type Bounds struct {
	North, South, East, West float64
}

// Subdivision is one node of the subdivision tree, carrying the RGN
// byte range its geometry records live in.
type Subdivision struct {
	N, Next                        uint32
	Terminate                      bool
	RgnStart, RgnEnd               uint32
	HasPoints, HasIdxPoints        bool
	HasPolylines, HasPolygons      bool
	CenterLng, CenterLat           int32
	Level                          int
	Shift                          uint
	North, South, East, West       float64
	OffsetPoints2, LengthPoints2   uint32
	OffsetPolylines2, LengthPolylines2 uint32
	OffsetPolygons2, LengthPolygons2   uint32
}

// Subfile is the parsed basics of one named subfile: bounds, copyright,
// map levels, subdivisions, and a label table ready for lookups.
type Subfile struct {
	Name         string
	Transparent  bool
	Copyright    string
	Bounds       Bounds
	Levels       []MapLevel
	Subdivisions []Subdivision
	Labels       *label.Table

	// TYPOffset/TYPSize locate an embedded TYP part, if this subfile
	// carries one; TYPSize is 0 when there is none.
	TYPOffset, TYPSize int64

	rgnOffset int64
	rgnSize   int64
}

// ReadBasics parses sf's TRE/RGN/LBL/NET parts out of data (the whole
// container's backing bytes) per the part byte ranges in parts.
func ReadBasics(name string, parts map[string]container.Part, data []byte) (*Subfile, error) {
	tre, ok := parts["TRE"]
	if !ok {
		return nil, gmerr.New(gmerr.Truncated, "missing TRE part").WithSubfile(name)
	}
	rgn, ok := parts["RGN"]
	if !ok {
		return nil, gmerr.New(gmerr.Truncated, "missing RGN part").WithSubfile(name)
	}

	treData, err := slice(data, tre.Offset, tre.Size)
	if err != nil {
		return nil, gmerr.Wrap(gmerr.Truncated, "TRE part", err).WithSubfile(name)
	}

	sf := &Subfile{Name: name, rgnOffset: rgn.Offset, rgnSize: rgn.Size}
	if typPart, ok := parts["TYP"]; ok {
		sf.TYPOffset, sf.TYPSize = typPart.Offset, typPart.Size
	}

	headerSize := int(binary.LittleEndian.Uint16(treData[treHeaderSizeOff:]))
	if headerSize < treSouthOff+3 || headerSize > len(treData) {
		return nil, gmerr.New(gmerr.Truncated, "TRE header shorter than bounds fields").WithSubfile(name)
	}

	poiFlags := treData[trePOIFlagsOff]
	sf.Transparent = poiFlags&0x02 != 0

	north := garminunits.Rad(garminunits.Int24(load24(treData[treNorthOff:])))
	east := garminunits.Rad(garminunits.Int24(load24(treData[treEastOff:])))
	south := garminunits.Rad(garminunits.Int24(load24(treData[treSouthOff:])))
	west := garminunits.Rad(garminunits.Int24(load24(treData[treWestOff:])))

	// ±π wraparound normalization: a subfile spanning the antimeridian
	// encodes east==west (the whole circle) or west>0 && east<0.
	if east == west {
		east = -east
	}
	if west > 0 && east < 0 {
		east = -east
	}
	if north < south {
		return nil, gmerr.New(gmerr.InvalidBounds, "north < south after normalization").WithSubfile(name)
	}
	sf.Bounds = Bounds{North: north, South: south, East: east, West: west}

	copyright, _ := readCString(treData, int64(headerSize), 0x7FFF)
	sf.Copyright = copyright

	levels, counts, err := readMapLevels(treData)
	if err != nil {
		return nil, gmerr.Wrap(gmerr.Truncated, "map levels", err).WithSubfile(name)
	}
	sf.Levels = levels

	subdivs, err := readSubdivisions(treData, levels, counts, rgn.Size)
	if err != nil {
		return nil, gmerr.Wrap(gmerr.Truncated, "subdivisions", err).WithSubfile(name)
	}
	sf.Subdivisions = subdivs

	if headerSize >= treHeaderMinExtLen {
		if err := readExtendedOffsets(treData, sf.Subdivisions); err != nil {
			return nil, gmerr.Wrap(gmerr.Truncated, "NT extended offsets", err).WithSubfile(name)
		}
	}

	coding := label.CodingUTF8
	codepage := 0
	if lbl, ok := parts["LBL"]; ok {
		lblData, err := slice(data, lbl.Offset, lbl.Size)
		if err == nil && len(lblData) > 0x1E {
			lblHeaderSize := int(binary.LittleEndian.Uint16(lblData[0:]))
			lblCoding := lblData[0x1A]
			offsetLbl1 := binary.LittleEndian.Uint32(lblData[0x0F:])
			var offsetLbl6 uint32
			if lblHeaderSize > 0xAA {
				codepage = int(binary.LittleEndian.Uint16(lblData[0xAA:]))
			}
			switch lblCoding {
			case 0x06:
				coding = label.Coding6Bit
				offsetLbl6 = offsetLbl1
			case 0x09:
				coding = label.Coding8Bit
			case 0x0A:
				coding = label.CodingUTF8
			default:
				coding = label.CodingUTF8
			}

			tbl, err := label.New(coding, codepage)
			if err == nil {
				if int(offsetLbl1) < len(lblData) {
					tbl.Register(label.TargetLBL1, lblData[offsetLbl1:])
				}
				if offsetLbl6 != 0 && int(offsetLbl6) < len(lblData) {
					tbl.Register(label.TargetLBL6, lblData[offsetLbl6:])
				}
				sf.Labels = tbl
			}

			if net, ok := parts["NET"]; ok {
				netData, err := slice(data, net.Offset, net.Size)
				if err == nil && len(netData) > 0x0F {
					offsetNet1 := binary.LittleEndian.Uint32(netData[0x09:])
					if tbl != nil && int(offsetNet1) < len(netData) {
						tbl.Register(label.TargetNET1, netData[offsetNet1:])
					}
				}
			}
		}
	}

	return sf, nil
}

func readMapLevels(tre []byte) ([]MapLevel, []int, error) {
	offset := binary.LittleEndian.Uint32(tre[treMapLevelsOff:])
	size := binary.LittleEndian.Uint32(tre[treMapLevelsOff+4:])

	if int(offset)+int(size) > len(tre) {
		return nil, nil, fmt.Errorf("map-level table out of range")
	}
	raw := tre[offset : offset+size]

	n := len(raw) / mapLevelRecordSize
	levels := make([]MapLevel, 0, n)
	counts := make([]int, 0, n)
	for i := 0; i < n; i++ {
		rec := raw[i*mapLevelRecordSize:]
		bits := rec[0]
		packed := rec[1]
		nsubdiv := int(binary.LittleEndian.Uint16(rec[2:]))

		levels = append(levels, MapLevel{
			Bits:      int(bits),
			Level:     int(packed & 0x0F),
			Inherited: packed&0x80 != 0,
		})
		counts = append(counts, nsubdiv)
	}
	return levels, counts, nil
}

// readSubdivisions walks the 16-byte-record levels first (which carry a
// Next pointer), then the single deepest level's 14-byte records,
// advancing the current map level each time that level's subdivision
// count is exhausted so Shift tracks the level each subdivision
// actually belongs to. RgnStart/RgnEnd are offsets relative to the RGN
// part's own data, not absolute file offsets.
func readSubdivisions(tre []byte, levels []MapLevel, counts []int, rgnSize int64) ([]Subdivision, error) {
	offset := binary.LittleEndian.Uint32(tre[treSubdivOff:])
	size := binary.LittleEndian.Uint32(tre[treSubdivOff+4:])
	if int(offset)+int(size) > len(tre) {
		return nil, fmt.Errorf("subdivision table out of range")
	}
	raw := tre[offset : offset+size]

	total := 0
	lastCount := 0
	for _, c := range counts {
		total += c
		lastCount = c
	}
	nextCount := total - lastCount

	subdivs := make([]Subdivision, 0, total)
	pos := 0
	levelIdx := 0
	remaining := 0
	if len(counts) > 0 {
		remaining = counts[0]
	}
	advance := func() {
		for remaining == 0 && levelIdx+1 < len(counts) {
			levelIdx++
			remaining = counts[levelIdx]
		}
	}
	shiftFor := func() uint {
		if levelIdx >= len(levels) {
			return 0
		}
		return uint(24 - levels[levelIdx].Bits)
	}
	levelFor := func() int {
		if levelIdx >= len(levels) {
			return 0
		}
		return levels[levelIdx].Level
	}

	for i := 0; i < nextCount && pos+subdivRecordSize16 <= len(raw); i++ {
		advance()
		rec := raw[pos:]
		pos += subdivRecordSize16

		sd := decodeSubdivRecord(rec, true, levelFor(), shiftFor())
		sd.N = uint32(i)
		if i > 0 {
			subdivs[i-1].RgnEnd = sd.RgnStart
		}
		subdivs = append(subdivs, sd)
		if remaining > 0 {
			remaining--
		}
	}

	for i := nextCount; i < total && pos+subdivRecordSize14 <= len(raw); i++ {
		advance()
		rec := raw[pos:]
		pos += subdivRecordSize14

		sd := decodeSubdivRecord(rec, false, levelFor(), shiftFor())
		sd.N = uint32(i)
		if i > 0 {
			subdivs[i-1].RgnEnd = sd.RgnStart
		}
		subdivs = append(subdivs, sd)
		if remaining > 0 {
			remaining--
		}
	}

	if len(subdivs) > 0 {
		subdivs[len(subdivs)-1].RgnEnd = uint32(rgnSize)
	}
	return subdivs, nil
}

const treSubdivWidth = 0x10

func decodeSubdivRecord(rec []byte, hasNext bool, level int, shift uint) Subdivision {
	pos := 0
	var sd Subdivision
	rgnOff := load24(rec[pos:])
	elements := rec[pos+3]
	pos += 4

	sd.HasPolygons = elements&0x80 != 0
	sd.HasPolylines = elements&0x40 != 0
	sd.HasIdxPoints = elements&0x20 != 0
	sd.HasPoints = elements&0x10 != 0
	sd.RgnStart = rgnOff

	centerLng := garminunits.Int24(load24(rec[pos:]))
	pos += 3
	centerLat := garminunits.Int24(load24(rec[pos:]))
	pos += 3
	sd.CenterLng = centerLng
	sd.CenterLat = centerLat

	widthRaw := binary.LittleEndian.Uint16(rec[pos:])
	pos += 2
	width := int32(widthRaw&0x7FFF) << shift
	terminate := widthRaw&0x8000 != 0
	sd.Terminate = terminate

	var height int32
	if hasNext {
		next := binary.LittleEndian.Uint16(rec[pos:])
		pos += 2
		sd.Next = uint32(next)
		height = int32(binary.LittleEndian.Uint16(rec[pos:])) << shift
		pos += 2
	} else {
		height = int32(binary.LittleEndian.Uint16(rec[pos:])) << shift
		pos += 2
	}

	sd.North = garminunits.Rad(centerLat + height + 1)
	sd.South = garminunits.Rad(centerLat - height)
	sd.East = garminunits.Rad(centerLng + width + 1)
	sd.West = garminunits.Rad(centerLng - width)
	sd.Level = level
	sd.Shift = shift
	return sd
}

// readExtendedOffsets fills in the NT tre7 offsetX2/lengthX2 fields for
// each subdivision, deriving each length as the difference between
// consecutive offsets. The final entry has no successor, so its
// LengthX2 fields are left at zero.
func readExtendedOffsets(tre []byte, subdivs []Subdivision) error {
	offset := binary.LittleEndian.Uint32(tre[treExtendedOff:])
	size := binary.LittleEndian.Uint32(tre[treExtendedOff+4:])
	recSize := int(binary.LittleEndian.Uint16(tre[treExtendedOff+8:]))
	if size == 0 || recSize == 0 {
		return nil
	}
	if int(offset)+int(size) > len(tre) {
		return fmt.Errorf("tre7 table out of range")
	}
	raw := tre[offset : offset+size]

	n := len(raw) / recSize
	if n > len(subdivs) {
		n = len(subdivs)
	}

	for i := 0; i < n; i++ {
		rec := raw[i*recSize:]
		p := 0
		subdivs[i].OffsetPolygons2 = load24(rec[p:])
		p += 3
		if recSize >= 8 {
			subdivs[i].OffsetPolylines2 = load24(rec[p:])
			p += 3
		}
		if recSize >= 12 {
			subdivs[i].OffsetPoints2 = load24(rec[p:])
			p += 3
		}
	}
	for i := 1; i < n; i++ {
		subdivs[i-1].LengthPolygons2 = subdivs[i].OffsetPolygons2 - subdivs[i-1].OffsetPolygons2
		if recSize >= 8 {
			subdivs[i-1].LengthPolylines2 = subdivs[i].OffsetPolylines2 - subdivs[i-1].OffsetPolylines2
		}
		if recSize >= 12 {
			subdivs[i-1].LengthPoints2 = subdivs[i].OffsetPoints2 - subdivs[i-1].OffsetPoints2
		}
	}
	return nil
}

func load24(b []byte) uint32 {
	var tmp [4]byte
	copy(tmp[:3], b[:3])
	return binary.LittleEndian.Uint32(tmp[:])
}

func slice(data []byte, offset, size int64) ([]byte, error) {
	if offset < 0 || size < 0 || offset+size > int64(len(data)) {
		return nil, fmt.Errorf("out of range: offset=%d size=%d len=%d", offset, size, len(data))
	}
	return data[offset : offset+size], nil
}

func readCString(data []byte, offset int64, maxLen int) (string, error) {
	if offset < 0 || int(offset) >= len(data) {
		return "", nil
	}
	end := int(offset)
	limit := len(data)
	if int(offset)+maxLen < limit {
		limit = int(offset) + maxLen
	}
	for end < limit && data[end] != 0 {
		end++
	}
	return string(data[offset:end]), nil
}

// RegionWindow returns the byte range of data (the whole container's
// backing bytes) that holds sd's RGN records: points, indexed points,
// polylines and polygons, in that order, for the classic (non-NT)
// layout. NT subdivisions instead use the OffsetX2/LengthX2 fields
// filled in by readExtendedOffsets.
func (sf *Subfile) RegionWindow(data []byte, sd Subdivision) ([]byte, error) {
	start := sf.rgnOffset + int64(sd.RgnStart)
	end := sf.rgnOffset + int64(sd.RgnEnd)
	if start < 0 || end < start || end > sf.rgnOffset+sf.rgnSize || end > int64(len(data)) {
		return nil, gmerr.New(gmerr.Truncated, "subdivision RGN window out of range").WithSubfile(sf.Name)
	}
	return data[start:end], nil
}

// Sections is sd's RGN window split into the four element-type byte
// ranges it actually carries (classic, non-NT layout). A subdivision
// with more than one element type present carries a small table of
// u16 offsets (relative to the window start) at the very front of the
// window, one entry per present type except the last, which instead
// runs to the window's end.
type Sections struct {
	Points, IdxPoints, Polylines, Polygons []byte
}

// SectionsFor splits win (as returned by RegionWindow) into its
// element-type ranges per sd's element flags.
func SectionsFor(win []byte, sd Subdivision) (Sections, error) {
	objCnt := 0
	for _, has := range []bool{sd.HasPoints, sd.HasIdxPoints, sd.HasPolylines, sd.HasPolygons} {
		if has {
			objCnt++
		}
	}
	if objCnt == 0 {
		return Sections{}, nil
	}

	tableLen := (objCnt - 1) * 2
	if tableLen > len(win) {
		return Sections{}, fmt.Errorf("subdivision section offset table out of range")
	}
	offsets := win[:tableLen]
	next := 0 // index into offsets, advanced as each type but the last consumes one entry

	readOffset := func() (int, error) {
		if next*2+2 > len(offsets) {
			return 0, fmt.Errorf("subdivision section offset table truncated")
		}
		v := int(binary.LittleEndian.Uint16(offsets[next*2:]))
		next++
		return v, nil
	}

	var opnt, oidx, opline, opgon int
	haveAny := false

	if sd.HasPoints {
		opnt = tableLen
		haveAny = true
	}
	if sd.HasIdxPoints {
		if haveAny {
			v, err := readOffset()
			if err != nil {
				return Sections{}, err
			}
			oidx = v
		} else {
			oidx = tableLen
		}
		haveAny = true
	}
	if sd.HasPolylines {
		if haveAny {
			v, err := readOffset()
			if err != nil {
				return Sections{}, err
			}
			opline = v
		} else {
			opline = tableLen
		}
		haveAny = true
	}
	if sd.HasPolygons {
		if haveAny {
			v, err := readOffset()
			if err != nil {
				return Sections{}, err
			}
			opgon = v
		} else {
			opgon = tableLen
		}
	}

	end := len(win)
	clip := func(start, stop int) ([]byte, error) {
		if start < 0 || stop < start || stop > len(win) {
			return nil, fmt.Errorf("subdivision section out of range: %d..%d (window %d bytes)", start, stop, len(win))
		}
		return win[start:stop], nil
	}

	var sec Sections
	var err error
	if sd.HasPoints {
		stop := end
		if oidx != 0 {
			stop = oidx
		} else if opline != 0 {
			stop = opline
		} else if opgon != 0 {
			stop = opgon
		}
		if sec.Points, err = clip(opnt, stop); err != nil {
			return Sections{}, err
		}
	}
	if sd.HasIdxPoints {
		stop := end
		if opline != 0 {
			stop = opline
		} else if opgon != 0 {
			stop = opgon
		}
		if sec.IdxPoints, err = clip(oidx, stop); err != nil {
			return Sections{}, err
		}
	}
	if sd.HasPolylines {
		stop := end
		if opgon != 0 {
			stop = opgon
		}
		if sec.Polylines, err = clip(opline, stop); err != nil {
			return Sections{}, err
		}
	}
	if sd.HasPolygons {
		if sec.Polygons, err = clip(opgon, end); err != nil {
			return Sections{}, err
		}
	}
	return sec, nil
}

// Validate returns an InvalidBounds error when any bound is NaN or
// north lies below south; zero-area rectangles are accepted.
func (b Bounds) Validate() error {
	if math.IsNaN(b.North) || math.IsNaN(b.South) || math.IsNaN(b.East) || math.IsNaN(b.West) {
		return gmerr.New(gmerr.InvalidBounds, "NaN bound")
	}
	if b.North < b.South {
		return gmerr.New(gmerr.InvalidBounds, "north below south")
	}
	return nil
}
