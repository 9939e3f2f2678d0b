//go:build !(linux || darwin || freebsd || netbsd || openbsd || dragonfly)

package mmap

import (
	"io"
	"os"
)

// mapFile falls back to reading the file into memory on platforms without
// mmap(2). The view behaves the same way; Close just drops the buffer.
func mapFile(f *os.File, size int) (*View, error) {
	data := make([]byte, size)
	if _, err := io.ReadFull(io.NewSectionReader(f, 0, int64(size)), data); err != nil {
		return nil, err
	}
	return &View{data: data}, nil
}

func adviseWillNeed([]byte) error {
	return nil
}
