// Package container walks a Garmin IMG file's FAT directory and groups
// its blocks into named subfiles, rejecting locked files and NT/GMP
// composite subfiles up front.
package container

import (
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/kiozen/gmapimg/internal/filewindow"
	"github.com/kiozen/gmapimg/internal/gmerr"
)

const (
	fatEntrySize  = 512
	fatDirOffset  = 0x600
	headerSigOff  = 0x10
	headerIdOff   = 0x41
	e1Offset      = 0x61
	e2Offset      = 0x62
	offsetFATOff  = 0x40
	fatFlagNormal = 0x01
)

// Part is one named section of a subfile ("TRE", "RGN", "LBL", ...)
// and the contiguous byte range it occupies in the file.
type Part struct {
	Name   string // 8-char subfile name, space-trimmed
	Type   string // 3-char part type
	Offset int64
	Size   int64
}

// Subfile groups every part sharing one 8-char name.
type Subfile struct {
	Name  string
	Parts map[string]Part // keyed by part type: "TRE","RGN","LBL","NET","NOD","DEM","TYP"
}

// IsGMP reports whether this subfile uses the NT composite container
// format (a single "GMP" part instead of separate TRE/RGN/LBL/...),
// which this module does not support.
func (s Subfile) IsGMP() bool {
	_, ok := s.Parts["GMP"]
	return ok
}

// Container is a parsed FAT directory: an ordered list of subfiles plus
// the file window backing their byte ranges.
type Container struct {
	Window   *filewindow.Window
	Subfiles []Subfile
}

var log = logrus.WithField("component", "container")

// Open walks path's FAT directory and returns its subfile grouping. It
// does not parse subfile contents; see the subfile package for that.
func Open(path string) (*Container, error) {
	w, err := filewindow.Open(path)
	if err != nil {
		return nil, err
	}
	c, err := parse(w)
	if err != nil {
		w.Close()
		return nil, err
	}
	return c, nil
}

// Close releases the container's underlying file window.
func (c *Container) Close() error {
	return c.Window.Close()
}

func parse(w *filewindow.Window) (*Container, error) {
	data := w.Bytes()
	if len(data) < 1 {
		return nil, gmerr.New(gmerr.Truncated, "empty file")
	}

	if data[0] != 0x00 {
		return nil, gmerr.New(gmerr.Locked, "file carries a write-lock XOR mask")
	}

	if len(data) < 0x100 {
		return nil, gmerr.New(gmerr.Truncated, "file too small for a header")
	}

	sig := string(data[headerSigOff : headerSigOff+6])
	if sig != "DSKIMG" && sig != "DSDIMG" {
		return nil, gmerr.New(gmerr.BadMagic, fmt.Sprintf("unexpected container signature %q", sig))
	}
	ident := trimNul(data[headerIdOff : headerIdOff+6])
	if ident != "GARMIN" {
		return nil, gmerr.New(gmerr.BadMagic, fmt.Sprintf("unexpected container identifier %q", ident))
	}

	e1 := data[e1Offset]
	e2 := data[e2Offset]
	blockSize := int64(1) << (uint(e1) + uint(e2))
	if blockSize <= 0 {
		return nil, gmerr.New(gmerr.BadMagic, "invalid block size exponents")
	}

	offsetFATField := data[offsetFATOff]
	offsetFAT := int64(offsetFATField) * 0x200
	if offsetFAT == 0 {
		offsetFAT = fatDirOffset
	}

	subfileOrder := []string{}
	subfiles := map[string]*Subfile{}
	seen := map[string]bool{}

	pos := offsetFAT
	fsize := int64(len(data))
	for pos+fatEntrySize <= fsize {
		entry := data[pos : pos+fatEntrySize]
		flag := entry[0]
		if flag == 0x00 {
			break
		}
		pos += fatEntrySize
		if flag != fatFlagNormal {
			continue
		}

		name := string(entry[1:9])
		typ := string(entry[9:12])
		size := int64(binary.LittleEndian.Uint32(entry[12:16]))
		block0 := binary.LittleEndian.Uint16(entry[32:34])

		key := name + typ
		// Mirrors the original three-way de-dup condition: a nonzero
		// size, a key not already seen, and a name that isn't blank
		// padding (first char not a space).
		if size == 0 || seen[key] || name[0] == ' ' {
			continue
		}
		seen[key] = true

		trimmedName := strings.TrimRight(name, " ")
		if trimmedName == "MAPSOURC" || trimmedName == "SENDMAP2" {
			continue
		}

		if block0 == 0 || block0 == 0xFFFF {
			log.WithField("subfile", trimmedName).Warn("FAT entry has no data block, skipping")
			continue
		}

		sf, ok := subfiles[trimmedName]
		if !ok {
			sf = &Subfile{Name: trimmedName, Parts: map[string]Part{}}
			subfiles[trimmedName] = sf
			subfileOrder = append(subfileOrder, trimmedName)
		}
		sf.Parts[strings.TrimRight(typ, " ")] = Part{
			Name:   trimmedName,
			Type:   strings.TrimRight(typ, " "),
			Offset: int64(block0) * blockSize,
			Size:   size,
		}
	}

	if pos == offsetFAT || pos >= fsize {
		return nil, gmerr.New(gmerr.Truncated, "FAT directory did not terminate within the file")
	}

	result := make([]Subfile, 0, len(subfileOrder))
	for _, name := range subfileOrder {
		sf := *subfiles[name]
		if sf.IsGMP() {
			return nil, gmerr.New(gmerr.UnsupportedFormat, "NT/GMP composite subfile").WithSubfile(sf.Name)
		}
		result = append(result, sf)
	}

	return &Container{Window: w, Subfiles: result}, nil
}

func trimNul(b []byte) string {
	end := 0
	for end < len(b) && b[end] != 0 {
		end++
	}
	return string(b[:end])
}
