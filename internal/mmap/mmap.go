// Package mmap provides read-only memory-mapped views over open files.
//
// A View covers exactly the size the caller passes to Map and is owned by a
// single goroutine. Close releases the mapping; it does not close the file,
// which stays the caller's responsibility so that descriptor and mapping can
// be released independently on every exit path.
package mmap

import (
	"errors"
	"fmt"
	"math"
	"os"
)

// Common errors for mapping operations
var (
	ErrEmpty    = errors.New("mmap: cannot map empty file")
	ErrTooLarge = errors.New("mmap: file too large to map")
	ErrClosed   = errors.New("mmap: view is closed")
)

// View is a read-only mapping of one file's contents.
type View struct {
	data   []byte
	path   string
	closed bool

	// release undoes the platform mapping; nil for views that own heap memory.
	release func([]byte) error
}

// MapFunc maps size bytes of f. Map is the production implementation; tests
// substitute failing variants.
type MapFunc func(f *os.File, size int64) (*View, error)

// Map creates a read-only private mapping of the first size bytes of f.
func Map(f *os.File, size int64) (*View, error) {
	if size == 0 {
		return nil, ErrEmpty
	}
	if size < 0 || uint64(size) > math.MaxInt {
		return nil, fmt.Errorf("%w: %d bytes", ErrTooLarge, size)
	}

	v, err := mapFile(f, int(size))
	if err != nil {
		return nil, fmt.Errorf("mmap %s: %w", f.Name(), err)
	}
	v.path = f.Name()
	return v, nil
}

// Bytes returns the mapped region. The slice must not be used after Close.
func (v *View) Bytes() []byte {
	if v == nil || v.closed {
		return nil
	}
	return v.data
}

// Len returns the length of the mapping.
func (v *View) Len() int {
	if v == nil {
		return 0
	}
	return len(v.data)
}

// Path returns the name of the file the view was created from.
func (v *View) Path() string {
	return v.path
}

// WillNeed advises the kernel that the whole view will be read soon.
// It is a performance hint; callers may ignore the returned error.
func (v *View) WillNeed() error {
	if v == nil || v.closed {
		return ErrClosed
	}
	return adviseWillNeed(v.data)
}

// Close releases the mapping. Calling Close more than once is a no-op.
func (v *View) Close() error {
	if v == nil || v.closed {
		return nil
	}
	v.closed = true

	data := v.data
	v.data = nil
	if v.release == nil {
		return nil
	}
	return v.release(data)
}
