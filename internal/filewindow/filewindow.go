// Package filewindow provides scoped, platform-aware access to an open
// .img/.typ file: memory-mapped on unix, buffered ReadAt elsewhere.
// Slices handed out by a mapped window are only valid until Close.
package filewindow

import "os"

// Window owns one open file and exposes it as a byte slice.
type Window struct {
	f      *os.File
	data   []byte
	mapped bool
	closer func() error
}

// Size returns the file's length in bytes.
func (w *Window) Size() int64 { return int64(len(w.data)) }

// Bytes returns the full backing slice. Valid only until Close.
func (w *Window) Bytes() []byte { return w.data }

// ReadAt implements io.ReaderAt over the window's backing slice, so
// existing io.ReaderAt-based readers work unchanged against a mapped
// window.
func (w *Window) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 || off > int64(len(w.data)) {
		return 0, os.ErrInvalid
	}
	n := copy(p, w.data[off:])
	if n < len(p) {
		return n, errShortRead
	}
	return n, nil
}

var errShortRead = &readError{"filewindow: short read at end of file"}

type readError struct{ msg string }

func (e *readError) Error() string { return e.msg }

// Open acquires a Window over path, memory-mapping it on unix platforms
// and falling back to a one-shot buffered read elsewhere.
func Open(path string) (*Window, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	return open(f)
}

// Close releases the window's resources. Safe to call from a deferred
// statement on every exit path.
func (w *Window) Close() error {
	if w.closer != nil {
		return w.closer()
	}
	return nil
}
