// Package label decodes Garmin label tables (LBL1/LBL6/NET1/POI) using
// the three codings a subfile's LBL header can declare: 6-bit packed
// uppercase ASCII, an 8-bit Windows codepage, or UTF-8.
package label

import (
	"fmt"
	"strings"

	"github.com/elliotwutingfeng/asciiset"
	"golang.org/x/text/encoding/charmap"

	"github.com/kiozen/gmapimg/internal/bitstream"
	"github.com/kiozen/gmapimg/internal/gmerr"
)

// Coding identifies the LBL header's declared string encoding.
type Coding int

const (
	Coding6Bit Coding = 0x06
	Coding8Bit Coding = 0x09
	CodingUTF8 Coding = 0x0A
)

// Target identifies which of the four label lookup tables an offset
// belongs to; the coding and codepage are shared across all four.
type Target int

const (
	TargetLBL1 Target = iota // general labels
	TargetLBL6               // 6-bit only variant of the general table
	TargetNET1               // street/highway names, reached via NET indirection
	TargetPOI                // points of interest
)

var sixBitAlphabet, _ = asciiset.MakeASCIISet(" ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789,.'")

// UnknownCodepage describes one degradation warning (a byte that decoded
// to a character outside the expected 6-bit alphabet). The decoders in
// this package skip such characters and do not produce UnknownCodepage
// values.
type UnknownCodepage struct {
	Offset int
	Byte   byte
}

// Table decodes labels out of one or more byte ranges, sharing a coding
// and codepage across all of them.
type Table struct {
	coding   Coding
	codepage int
	decoder  *charmap.Charmap

	lbl1 []byte
	lbl6 []byte
	net1 []byte
	poi  []byte
}

// New builds a Table for the given coding/codepage. The codepage is only
// consulted when coding is Coding8Bit.
func New(coding Coding, codepage int) (*Table, error) {
	t := &Table{coding: coding, codepage: codepage}
	if coding == Coding8Bit {
		cm := codepageCharmap(codepage)
		if cm == nil {
			return nil, gmerr.New(gmerr.UnsupportedFormat, fmt.Sprintf("unknown label codepage %d", codepage))
		}
		t.decoder = cm
	}
	return t, nil
}

func codepageCharmap(cp int) *charmap.Charmap {
	switch cp {
	case 1250:
		return charmap.Windows1250
	case 1251:
		return charmap.Windows1251
	case 1252:
		return charmap.Windows1252
	case 1253:
		return charmap.Windows1253
	case 1254:
		return charmap.Windows1254
	case 1255:
		return charmap.Windows1255
	case 1256:
		return charmap.Windows1256
	case 1257:
		return charmap.Windows1257
	case 1258:
		return charmap.Windows1258
	default:
		return nil
	}
}

// Register attaches the raw bytes backing one of the four lookup
// targets. A subfile with no NET part, for example, never calls
// Register(TargetNET1, ...).
func (t *Table) Register(target Target, data []byte) {
	switch target {
	case TargetLBL1:
		t.lbl1 = data
	case TargetLBL6:
		t.lbl6 = data
	case TargetNET1:
		t.net1 = data
	case TargetPOI:
		t.poi = data
	}
}

func (t *Table) bytesFor(target Target) ([]byte, error) {
	var data []byte
	switch target {
	case TargetLBL1:
		data = t.lbl1
	case TargetLBL6:
		data = t.lbl6
	case TargetNET1:
		data = t.net1
	case TargetPOI:
		data = t.poi
	default:
		return nil, fmt.Errorf("label: unknown target %d", target)
	}
	if data == nil {
		return nil, fmt.Errorf("label: target %d not registered", target)
	}
	return data, nil
}

// Get decodes the label string starting at the given byte offset within
// target's table, per the coding this Table was constructed with.
func (t *Table) Get(target Target, offset uint32) (string, error) {
	data, err := t.bytesFor(target)
	if err != nil {
		return "", err
	}
	if int(offset) >= len(data) {
		return "", gmerr.New(gmerr.Truncated, "label offset past end of table")
	}
	data = data[offset:]

	switch t.coding {
	case Coding6Bit:
		return decode6Bit(data)
	case Coding8Bit:
		return t.decode8Bit(data)
	case CodingUTF8:
		return decodeUTF8(data)
	default:
		return "", gmerr.New(gmerr.UnsupportedFormat, fmt.Sprintf("unknown label coding 0x%02x", int(t.coding)))
	}
}

// sixBitChars maps a packed 6-bit code to its ASCII character. 0x00 is
// the string terminator; codes 0x1B-0x1F are separator/control values
// that never appear inside a label and are mapped to space here, and
// 0x20-0x29 are the digits.
var sixBitChars = " ABCDEFGHIJKLMNOPQRSTUVWXYZ     0123456789"

// decode6Bit unpacks 4 characters out of every 3 bytes until a 0x00
// terminator (encoded as 0) or the data runs out. Codes past the table,
// and characters outside the expected alphabet, are dropped from the
// result; no warning is reported for them.
func decode6Bit(data []byte) (string, error) {
	var sb strings.Builder
	bits := bitstream.New(data)
	for {
		if bits.Remaining() < 6 {
			break
		}
		code, err := bits.Uint(6)
		if err != nil {
			return "", err
		}
		if code == 0 {
			break
		}
		if int(code) >= len(sixBitChars) {
			continue
		}
		ch := sixBitChars[code]
		if !sixBitAlphabet.Contains(ch) {
			continue
		}
		sb.WriteByte(ch)
	}
	return sb.String(), nil
}

func (t *Table) decode8Bit(data []byte) (string, error) {
	end := 0
	for end < len(data) && data[end] != 0 {
		end++
	}
	decoded, err := t.decoder.NewDecoder().Bytes(data[:end])
	if err != nil {
		return "", fmt.Errorf("label: codepage decode: %w", err)
	}
	return string(decoded), nil
}

// lbl6FieldOrder names the sub-fields a LBL6 POI record's mask byte can
// select, in bit order (bit 0 first). The format allows up to 9; this
// module names the seven the original documents.
var lbl6FieldOrder = []string{"name", "city", "street_number", "street", "zip", "phone", "exit"}

// GetPOIFields decodes a LBL6 POI record at offset: a leading mask byte
// selects which of lbl6FieldOrder's sub-fields follow, each coded and
// terminated the same way as a normal label, packed back-to-back in bit
// order. It returns one string per set bit, in that order.
func (t *Table) GetPOIFields(target Target, offset uint32) ([]string, error) {
	data, err := t.bytesFor(target)
	if err != nil {
		return nil, err
	}
	if int(offset) >= len(data) {
		return nil, gmerr.New(gmerr.Truncated, "POI offset past end of table")
	}
	mask := data[offset]
	pos := int(offset) + 1

	var out []string
	for bit, name := range lbl6FieldOrder {
		if mask&(1<<uint(bit)) == 0 {
			continue
		}
		if pos >= len(data) {
			return out, gmerr.New(gmerr.Truncated, fmt.Sprintf("POI field %s truncated", name))
		}
		s, consumed, err := t.decodeFieldAt(data[pos:])
		if err != nil {
			return out, err
		}
		out = append(out, s)
		pos += consumed
	}
	return out, nil
}

// decodeFieldAt decodes one coded, terminated string starting at data[0]
// and reports how many bytes it consumed (string plus terminator).
func (t *Table) decodeFieldAt(data []byte) (string, int, error) {
	switch t.coding {
	case Coding6Bit:
		s, err := decode6Bit(data)
		if err != nil {
			return "", 0, err
		}
		// 4 chars per 3 bytes, rounded up to the terminator's own triplet.
		consumed := ((len(s)+1)*6 + 7) / 8
		if consumed%3 != 0 {
			consumed += 3 - consumed%3
		}
		return s, consumed, nil
	case Coding8Bit:
		s, err := t.decode8Bit(data)
		if err != nil {
			return "", 0, err
		}
		end := 0
		for end < len(data) && data[end] != 0 {
			end++
		}
		return s, end + 1, nil
	case CodingUTF8:
		s, err := decodeUTF8(data)
		if err != nil {
			return "", 0, err
		}
		return s, len(s) + 1, nil
	default:
		return "", 0, gmerr.New(gmerr.UnsupportedFormat, fmt.Sprintf("unknown label coding 0x%02x", int(t.coding)))
	}
}

func decodeUTF8(data []byte) (string, error) {
	end := 0
	for end < len(data) && data[end] != 0 {
		end++
	}
	return string(data[:end]), nil
}
