package img

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
)

func buildIMGWithTYP(t *testing.T, typData []byte) string {
	t.Helper()
	const fatEntrySize = 512
	const blockSize = 512

	buf := make([]byte, 0x600+3*fatEntrySize+4*blockSize)
	buf[0] = 0x00
	copy(buf[0x10:], []byte("DSKIMG\x00"))
	copy(buf[0x41:], []byte("GARMIN\x00"))
	buf[0x40] = 0x600 / 0x200
	buf[0x61] = 9
	buf[0x62] = 0

	fat := buf[0x600:]
	e := fat[0:fatEntrySize]
	e[0] = 0x01
	copy(e[1:9], []byte("TESTTYP "))
	copy(e[9:12], []byte("TYP"))
	binary.LittleEndian.PutUint32(e[12:16], uint32(len(typData)))
	binary.LittleEndian.PutUint16(e[32:34], 2)

	copy(buf[2*blockSize:], typData)

	dir := t.TempDir()
	path := filepath.Join(dir, "test.img")
	if err := os.WriteFile(path, buf, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestExtractTYP(t *testing.T) {
	want := []byte("fake-typ-data-contents")
	path := buildIMGWithTYP(t, want)

	dir := t.TempDir()
	files, err := ExtractTYP(path, dir)
	if err != nil {
		t.Fatalf("ExtractTYP: %v", err)
	}
	if len(files) != 1 {
		t.Fatalf("got %d files, want 1", len(files))
	}

	got, err := os.ReadFile(files[0])
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(got) != string(want) {
		t.Errorf("extracted content = %q, want %q", got, want)
	}
}

func TestExtractTYPNoneFound(t *testing.T) {
	path := buildIMGWithTYP(t, nil)
	// overwrite the TYP part type so nothing matches
	data, _ := os.ReadFile(path)
	copy(data[0x600+9:], []byte("RGN"))
	os.WriteFile(path, data, 0o644)

	if _, err := ExtractTYP(path, t.TempDir()); err == nil {
		t.Fatalf("expected error when no TYP parts present")
	}
}
