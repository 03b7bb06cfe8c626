package subfile

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/kiozen/gmapimg/internal/container"
)

func putInt24(buf []byte, off int, v int32) {
	u := uint32(v) & 0xFFFFFF
	buf[off] = byte(u)
	buf[off+1] = byte(u >> 8)
	buf[off+2] = byte(u >> 16)
}

func buildTRE(t *testing.T) []byte {
	t.Helper()
	buf := make([]byte, 0x6C)

	binary.LittleEndian.PutUint16(buf[treHeaderSizeOff:], 0x30)

	putInt24(buf, treNorthOff, 1000)
	putInt24(buf, treEastOff, -50)
	putInt24(buf, treSouthOff, -1000)
	putInt24(buf, treWestOff, 100)

	buf[trePOIFlagsOff] = 0x02 // transparent

	binary.LittleEndian.PutUint32(buf[treMapLevelsOff:], 0x40)
	binary.LittleEndian.PutUint32(buf[treMapLevelsOff+4:], 4)

	binary.LittleEndian.PutUint32(buf[treSubdivOff:], 0x50)
	binary.LittleEndian.PutUint32(buf[treSubdivOff+4:], 28)

	copy(buf[0x30:], "TEST\x00")

	// one map level: bits=24, level=0, not inherited, 2 subdivisions.
	buf[0x40] = 24
	buf[0x41] = 0x00
	binary.LittleEndian.PutUint16(buf[0x42:], 2)

	// subdivision 0 (14-byte record): rgnOff=0, all element flags set,
	// center (100,200), width=10, height=20.
	rec0 := buf[0x50:]
	rec0[3] = 0xF0
	putInt24(rec0, 4, 100)
	putInt24(rec0, 7, 200)
	binary.LittleEndian.PutUint16(rec0[10:], 10)
	binary.LittleEndian.PutUint16(rec0[12:], 20)

	// subdivision 1 (14-byte record): rgnOff=64, no flags, center
	// (300,400), width=5, height=8.
	rec1 := buf[0x50+14:]
	binary.LittleEndian.PutUint16(rec1[0:], 64)
	putInt24(rec1, 4, 300)
	putInt24(rec1, 7, 400)
	binary.LittleEndian.PutUint16(rec1[10:], 5)
	binary.LittleEndian.PutUint16(rec1[12:], 8)

	return buf
}

func TestReadBasicsBoundsAndSubdivisions(t *testing.T) {
	data := buildTRE(t)
	parts := map[string]container.Part{
		"TRE": {Name: "TEST", Type: "TRE", Offset: 0, Size: int64(len(data))},
		"RGN": {Name: "TEST", Type: "RGN", Offset: 1000, Size: 500},
	}

	sf, err := ReadBasics("TEST", parts, data)
	if err != nil {
		t.Fatalf("ReadBasics: %v", err)
	}

	if !sf.Transparent {
		t.Errorf("Transparent = false, want true")
	}
	if sf.Copyright != "TEST" {
		t.Errorf("Copyright = %q, want %q", sf.Copyright, "TEST")
	}

	// west>0 && east<0 triggers the antimeridian flip: east becomes +50.
	if math.Abs(sf.Bounds.East-radOf(50)) > 1e-9 {
		t.Errorf("East = %v, want Rad(50)=%v", sf.Bounds.East, radOf(50))
	}
	if math.Abs(sf.Bounds.West-radOf(100)) > 1e-9 {
		t.Errorf("West = %v, want Rad(100)", sf.Bounds.West)
	}

	if len(sf.Levels) != 1 {
		t.Fatalf("got %d levels, want 1", len(sf.Levels))
	}
	if sf.Levels[0].Bits != 24 {
		t.Errorf("level bits = %d, want 24", sf.Levels[0].Bits)
	}

	if len(sf.Subdivisions) != 2 {
		t.Fatalf("got %d subdivisions, want 2", len(sf.Subdivisions))
	}
	if sf.Subdivisions[0].RgnStart != 0 {
		t.Errorf("subdiv0 RgnStart = %d, want 0", sf.Subdivisions[0].RgnStart)
	}
	if sf.Subdivisions[0].RgnEnd != 64 {
		t.Errorf("subdiv0 RgnEnd = %d, want 64 (chained to subdiv1's RgnStart)", sf.Subdivisions[0].RgnEnd)
	}
	if sf.Subdivisions[1].RgnEnd != 500 {
		t.Errorf("subdiv1 RgnEnd = %d, want 500 (rgn.Size, relative to RGN part start)", sf.Subdivisions[1].RgnEnd)
	}
	if !sf.Subdivisions[0].HasPoints || !sf.Subdivisions[0].HasPolygons {
		t.Errorf("subdiv0 element flags not decoded: %+v", sf.Subdivisions[0])
	}
}

func radOf(units int32) float64 {
	return float64(units) * 360.0 / (1 << 24) * math.Pi / 180.0
}

func TestReadBasicsMissingRGN(t *testing.T) {
	data := buildTRE(t)
	parts := map[string]container.Part{
		"TRE": {Name: "TEST", Type: "TRE", Offset: 0, Size: int64(len(data))},
	}
	if _, err := ReadBasics("TEST", parts, data); err == nil {
		t.Fatalf("expected error for missing RGN part")
	}
}

func TestSectionsForSingleType(t *testing.T) {
	sd := Subdivision{HasPolygons: true}
	win := []byte{0xAA, 0xBB, 0xCC}
	sec, err := SectionsFor(win, sd)
	if err != nil {
		t.Fatalf("SectionsFor: %v", err)
	}
	if string(sec.Polygons) != string(win) {
		t.Errorf("Polygons = %v, want whole window", sec.Polygons)
	}
	if sec.Points != nil || sec.Polylines != nil {
		t.Errorf("unexpected non-nil sections: %+v", sec)
	}
}

func TestSectionsForPointsAndPolygons(t *testing.T) {
	// two types present: table has 1 entry (objCnt-1=1), giving the
	// polygons start offset; points run from the table's end to it.
	sd := Subdivision{HasPoints: true, HasPolygons: true}
	win := make([]byte, 10)
	binary.LittleEndian.PutUint16(win[0:], 4) // polygons start at offset 4
	copy(win[2:4], []byte{0x01, 0x02})        // points data
	copy(win[4:], []byte{0x03, 0x04, 0x05, 0x06, 0x07, 0x08})

	sec, err := SectionsFor(win, sd)
	if err != nil {
		t.Fatalf("SectionsFor: %v", err)
	}
	if len(sec.Points) != 2 {
		t.Errorf("Points len = %d, want 2", len(sec.Points))
	}
	if len(sec.Polygons) != 6 {
		t.Errorf("Polygons len = %d, want 6", len(sec.Polygons))
	}
}
