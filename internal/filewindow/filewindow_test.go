package filewindow

import (
	"os"
	"path/filepath"
	"testing"
)

func TestOpenReadAtAndClose(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.bin")
	want := []byte("hello garmin")
	if err := os.WriteFile(path, want, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	w, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if w.Size() != int64(len(want)) {
		t.Errorf("Size = %d, want %d", w.Size(), len(want))
	}

	buf := make([]byte, 5)
	n, err := w.ReadAt(buf, 0)
	if err != nil {
		t.Fatalf("ReadAt: %v", err)
	}
	if n != 5 || string(buf) != "hello" {
		t.Errorf("ReadAt = %q, want %q", buf[:n], "hello")
	}

	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

func TestOpenEmptyFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "empty.bin")
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	w, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer w.Close()
	if w.Size() != 0 {
		t.Errorf("Size = %d, want 0", w.Size())
	}
}
