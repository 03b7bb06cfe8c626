package label

import "testing"

func TestDecodeUTF8(t *testing.T) {
	tbl, err := New(CodingUTF8, 65001)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	tbl.Register(TargetLBL1, []byte("Hauptstraße\x00trailing"))

	got, err := tbl.Get(TargetLBL1, 0)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != "Hauptstraße" {
		t.Errorf("Get = %q, want %q", got, "Hauptstraße")
	}
}

func TestDecode8Bit(t *testing.T) {
	tbl, err := New(Coding8Bit, 1252)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	tbl.Register(TargetPOI, []byte("Cafe\x00"))

	got, err := tbl.Get(TargetPOI, 0)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != "Cafe" {
		t.Errorf("Get = %q, want %q", got, "Cafe")
	}
}

func TestDecode6Bit(t *testing.T) {
	tbl, err := New(Coding6Bit, 0)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	// encode "AB" (codes 1,2), LSB-first 6-bit fields packed across bytes.
	data := []byte{0x81, 0x00}
	tbl.Register(TargetLBL6, data)

	got, err := tbl.Get(TargetLBL6, 0)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != "AB" {
		t.Errorf("Get = %q, want %q", got, "AB")
	}
}

func TestGetPOIFieldsNameAndCity(t *testing.T) {
	tbl, err := New(CodingUTF8, 0)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	// mask=0x03 selects name (bit0) and city (bit1).
	data := append([]byte{0x03}, []byte("Joe's Diner\x00Springfield\x00")...)
	tbl.Register(TargetLBL6, data)

	got, err := tbl.GetPOIFields(TargetLBL6, 0)
	if err != nil {
		t.Fatalf("GetPOIFields: %v", err)
	}
	want := []string{"Joe's Diner", "Springfield"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("field %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestUnregisteredTarget(t *testing.T) {
	tbl, _ := New(CodingUTF8, 0)
	if _, err := tbl.Get(TargetNET1, 0); err == nil {
		t.Errorf("expected error for unregistered target")
	}
}

func TestUnknownCodepage(t *testing.T) {
	if _, err := New(Coding8Bit, 9999); err == nil {
		t.Errorf("expected error for unknown codepage")
	}
}
