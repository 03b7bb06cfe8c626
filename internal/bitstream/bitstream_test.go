package bitstream

import "testing"

func TestUintRoundTrip(t *testing.T) {
	// 0b1011 in the low 4 bits of byte 0, 0b101 in the next 3 bits.
	data := []byte{0b0101_1011}
	r := New(data)

	v, err := r.Uint(4)
	if err != nil {
		t.Fatalf("Uint(4): %v", err)
	}
	if v != 0b1011 {
		t.Errorf("first field = %b, want 1011", v)
	}

	v2, err := r.Uint(4)
	if err != nil {
		t.Fatalf("Uint(4): %v", err)
	}
	if v2 != 0b0101 {
		t.Errorf("second field = %b, want 0101", v2)
	}

	if !r.AtEnd() {
		t.Errorf("expected AtEnd after consuming all bits")
	}
}

func TestIntSignBit(t *testing.T) {
	// leading sign bit 1 (negative), then magnitude 5 (0b101) over 3 bits.
	data := []byte{0b0000_1011}
	r := New(data)
	v, err := r.Int(3)
	if err != nil {
		t.Fatalf("Int(3): %v", err)
	}
	if v != -5 {
		t.Errorf("Int(3) = %d, want -5", v)
	}
}

func TestReadPastEnd(t *testing.T) {
	r := New([]byte{0x00})
	if _, err := r.Uint(16); err == nil {
		t.Errorf("expected error reading past end of a 1-byte buffer")
	}
}

func TestAlign(t *testing.T) {
	r := New([]byte{0xFF, 0xFF})
	if _, err := r.Uint(3); err != nil {
		t.Fatalf("Uint(3): %v", err)
	}
	r.Align()
	if r.BitsRead() != 8 {
		t.Errorf("BitsRead after Align = %d, want 8", r.BitsRead())
	}
}
