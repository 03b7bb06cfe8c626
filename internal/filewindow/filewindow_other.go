//go:build !unix

package filewindow

import (
	"io"
	"os"
)

func open(f *os.File) (*Window, error) {
	data, err := io.ReadAll(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	w := &Window{f: f, data: data, mapped: false}
	w.closer = f.Close
	return w, nil
}
