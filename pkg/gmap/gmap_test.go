package gmap

import (
	"context"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/kiozen/gmapimg/internal/config"
)

func putInt24(buf []byte, off int, v int32) {
	u := uint32(v) & 0xFFFFFF
	buf[off] = byte(u)
	buf[off+1] = byte(u >> 8)
	buf[off+2] = byte(u >> 16)
}

// buildTestIMG writes a minimal but complete .img file: one subfile
// with a one-level, one-subdivision TRE and an RGN part holding a
// single two-vertex classic polygon record (width byte 0x22 selects
// 3-bit lon/lat magnitudes over the polygon base of 1, sign byte 0x03
// gives both axes a sign bit, and the stream byte 0x74 packs dLon=+2,
// dLat=-3).
func buildTestIMG(t *testing.T) string {
	t.Helper()
	const blockSize = 512

	tre := make([]byte, 0x6C)
	binary.LittleEndian.PutUint16(tre[0x00:], 0x30) // header size

	putInt24(tre, 0x0F, 8000000)  // north
	putInt24(tre, 0x12, 4000000)  // east
	putInt24(tre, 0x15, -8000000) // south
	putInt24(tre, 0x18, -4000000) // west

	binary.LittleEndian.PutUint32(tre[0x1B:], 0x40) // map levels offset
	binary.LittleEndian.PutUint32(tre[0x1F:], 4)    // map levels size (1 record)

	binary.LittleEndian.PutUint32(tre[0x27:], 0x50) // subdiv offset
	binary.LittleEndian.PutUint32(tre[0x2B:], 14)   // subdiv size (1x 14-byte record)

	tre[0x40] = 24 // bits
	tre[0x41] = 0  // level 0, not inherited
	binary.LittleEndian.PutUint16(tre[0x42:], 1)

	rec := tre[0x50:]
	rec[3] = 0x80 // HasPolygons only
	putInt24(rec, 4, 0)
	putInt24(rec, 7, 0)
	binary.LittleEndian.PutUint16(rec[10:], 5) // width
	binary.LittleEndian.PutUint16(rec[12:], 5) // height

	rgn := []byte{
		0x01,             // type
		0x00, 0x00, 0x00, // label field
		0x00, 0x00, 0x00, 0x00, // first vertex delta (0, 0)
		0x01, // bitstream length
		0x22, // width nibbles
		0x03, // sign byte
		0x74, // bitstream
	}

	buf := make([]byte, 0x600+3*512+6*blockSize)
	buf[0] = 0x00
	copy(buf[0x10:], []byte("DSKIMG\x00"))
	copy(buf[0x41:], []byte("GARMIN\x00"))
	buf[0x40] = 0x600 / 0x200
	buf[0x61] = 9
	buf[0x62] = 0

	fat := buf[0x600:]
	writeEntry := func(i int, typ string, block uint16, size uint32) {
		e := fat[i*512 : (i+1)*512]
		e[0] = 0x01
		copy(e[1:9], []byte("TESTMAP "))
		copy(e[9:12], []byte(typ))
		binary.LittleEndian.PutUint32(e[12:16], size)
		binary.LittleEndian.PutUint16(e[32:34], block)
	}
	// Block numbers 6/7 land past the header+FAT region (0x600 + 3
	// FAT entries = 3072 bytes = block 6's start), avoiding any
	// collision between the FAT directory and the subfile data blocks.
	writeEntry(0, "TRE", 6, uint32(len(tre)))
	writeEntry(1, "RGN", 7, uint32(len(rgn)))

	copy(buf[6*blockSize:], tre)
	copy(buf[7*blockSize:], rgn)

	dir := t.TempDir()
	path := filepath.Join(dir, "test.img")
	if err := os.WriteFile(path, buf, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestOpenAndQuery(t *testing.T) {
	path := buildTestIMG(t)
	m, err := Open(path, config.Default())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer m.Close()

	viewport := Rect{North: 0.01, South: -0.01, East: 0.01, West: -0.01}
	batch, err := m.Query(context.Background(), viewport, 24)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if batch.Partial {
		t.Errorf("batch unexpectedly partial")
	}
	if len(batch.Polygons) != 1 {
		t.Fatalf("got %d polygons, want 1", len(batch.Polygons))
	}
	if len(batch.Polygons[0].Points) != 2 {
		t.Errorf("got %d points, want 2 (start + 1 delta)", len(batch.Polygons[0].Points))
	}
}

func TestQueryRespectsCancellation(t *testing.T) {
	path := buildTestIMG(t)
	m, err := Open(path, config.Default())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer m.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	viewport := Rect{North: 0.01, South: -0.01, East: 0.01, West: -0.01}
	batch, err := m.Query(ctx, viewport, 24)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if !batch.Partial {
		t.Errorf("expected Partial=true for a pre-cancelled context")
	}
}

func TestFindPOICloseByNoMatch(t *testing.T) {
	path := buildTestIMG(t)
	m, err := Open(path, config.Default())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer m.Close()

	_, found, err := m.FindPOICloseBy(context.Background(), Point{}, 10, 1e-6)
	if err != nil {
		t.Fatalf("FindPOICloseBy: %v", err)
	}
	if found {
		t.Errorf("expected no POI match in a polygon-only fixture")
	}
}
