package container

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/kiozen/gmapimg/internal/gmerr"
)

func buildMinimalIMG(t *testing.T, extraEntries func(fat []byte)) string {
	t.Helper()
	const blockSize = 512
	const fatOffsetField = 0x600 / 0x200 // stored in units of 0x200

	buf := make([]byte, 0x600+4*fatEntrySize+4*blockSize)

	// xorByte / lock byte
	buf[0] = 0x00
	copy(buf[headerSigOff:], []byte("DSKIMG\x00"))
	copy(buf[headerIdOff:], []byte("GARMIN\x00"))
	buf[offsetFATOff] = fatOffsetField
	buf[e1Offset] = 9
	buf[e2Offset] = 0 // blocksize = 1<<9 = 512

	fat := buf[0x600:]
	writeEntry := func(i int, name, typ string, block uint16, size uint32) {
		e := fat[i*fatEntrySize : (i+1)*fatEntrySize]
		e[0] = fatFlagNormal
		copy(e[1:9], []byte(name))
		copy(e[9:12], []byte(typ))
		binary.LittleEndian.PutUint32(e[12:16], size)
		binary.LittleEndian.PutUint16(e[32:34], block)
	}
	writeEntry(0, "TESTMAP ", "TRE", 2, 64)
	writeEntry(1, "TESTMAP ", "RGN", 3, 64)
	// entries from index 2 on are left zeroed (flag 0x00 terminates the
	// FAT) unless extraEntries fills index 2, leaving index 3 as terminator

	if extraEntries != nil {
		extraEntries(fat)
	}

	dir := t.TempDir()
	path := filepath.Join(dir, "test.img")
	if err := os.WriteFile(path, buf, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestOpenParsesSubfiles(t *testing.T) {
	path := buildMinimalIMG(t, nil)
	c, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer c.Close()

	if len(c.Subfiles) != 1 {
		t.Fatalf("got %d subfiles, want 1", len(c.Subfiles))
	}
	sf := c.Subfiles[0]
	if sf.Name != "TESTMAP" {
		t.Errorf("Name = %q, want %q", sf.Name, "TESTMAP")
	}
	if _, ok := sf.Parts["TRE"]; !ok {
		t.Errorf("missing TRE part")
	}
	if _, ok := sf.Parts["RGN"]; !ok {
		t.Errorf("missing RGN part")
	}
}

func TestOpenLockedFile(t *testing.T) {
	path := buildMinimalIMG(t, nil)
	data, _ := os.ReadFile(path)
	data[0] = 0x81
	os.WriteFile(path, data, 0o644)

	_, err := Open(path)
	if !gmerr.Is(err, gmerr.Locked) {
		t.Fatalf("Open: got %v, want Locked", err)
	}
}

func TestOpenBadMagic(t *testing.T) {
	path := buildMinimalIMG(t, nil)
	data, _ := os.ReadFile(path)
	copy(data[headerSigOff:], []byte("XXXXXX"))
	os.WriteFile(path, data, 0o644)

	_, err := Open(path)
	if !gmerr.Is(err, gmerr.BadMagic) {
		t.Fatalf("Open: got %v, want BadMagic", err)
	}
}

func TestOpenRejectsGMP(t *testing.T) {
	path := buildMinimalIMG(t, func(fat []byte) {
		e := fat[2*fatEntrySize : 3*fatEntrySize]
		e[0] = fatFlagNormal
		copy(e[1:9], []byte("NTFILE  "))
		copy(e[9:12], []byte("GMP"))
		binary.LittleEndian.PutUint32(e[12:16], 64)
		binary.LittleEndian.PutUint16(e[32:34], 4)
	})

	_, err := Open(path)
	if !gmerr.Is(err, gmerr.UnsupportedFormat) {
		t.Fatalf("Open: got %v, want UnsupportedFormat", err)
	}
}
