//go:build unix

package filewindow

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

func open(f *os.File) (*Window, error) {
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	size := info.Size()
	if size == 0 {
		f.Close()
		return &Window{f: f, data: nil}, nil
	}

	data, err := unix.Mmap(int(f.Fd()), 0, int(size), unix.PROT_READ, unix.MAP_PRIVATE)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("filewindow: mmap: %w", err)
	}

	w := &Window{f: f, data: data, mapped: true}
	w.closer = func() error {
		if err := unix.Munmap(w.data); err != nil {
			f.Close()
			return fmt.Errorf("filewindow: munmap: %w", err)
		}
		return f.Close()
	}
	return w, nil
}
