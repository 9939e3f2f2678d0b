//go:build linux || darwin || freebsd || netbsd || openbsd || dragonfly

package mmap

import (
	"os"

	"golang.org/x/sys/unix"
)

// mapFile creates a PROT_READ, MAP_PRIVATE mapping of the file.
// Private mappings never write back to the file, which is what a scanner wants.
func mapFile(f *os.File, size int) (*View, error) {
	data, err := unix.Mmap(int(f.Fd()), 0, size, unix.PROT_READ, unix.MAP_PRIVATE)
	if err != nil {
		return nil, err
	}

	return &View{
		data:    data,
		release: unix.Munmap,
	}, nil
}

func adviseWillNeed(data []byte) error {
	if len(data) == 0 {
		return nil
	}
	return unix.Madvise(data, unix.MADV_WILLNEED)
}
