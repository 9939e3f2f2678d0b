package mmap

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeTemp(t *testing.T, content []byte) *os.File {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data.bin")
	if err := os.WriteFile(path, content, 0644); err != nil {
		t.Fatalf("failed to write test file: %v", err)
	}
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("failed to open test file: %v", err)
	}
	t.Cleanup(func() { f.Close() })
	return f
}

func TestMapReadsContent(t *testing.T) {
	content := bytes.Repeat([]byte("mapscan "), 1024)
	f := writeTemp(t, content)

	v, err := Map(f, int64(len(content)))
	if err != nil {
		t.Fatalf("Map failed: %v", err)
	}
	defer v.Close()

	if v.Len() != len(content) {
		t.Errorf("expected length %d, got %d", len(content), v.Len())
	}
	if !bytes.Equal(v.Bytes(), content) {
		t.Error("mapped bytes differ from file content")
	}
	if v.Path() != f.Name() {
		t.Errorf("expected path %s, got %s", f.Name(), v.Path())
	}
	if err := v.WillNeed(); err != nil {
		t.Errorf("WillNeed returned error: %v", err)
	}
}

func TestMapEmptyFile(t *testing.T) {
	f := writeTemp(t, nil)

	v, err := Map(f, 0)
	if !errors.Is(err, ErrEmpty) {
		t.Fatalf("expected ErrEmpty, got %v", err)
	}
	if v != nil {
		t.Error("expected nil view for empty file")
	}
}

func TestMapNegativeSize(t *testing.T) {
	f := writeTemp(t, []byte("x"))

	if _, err := Map(f, -1); !errors.Is(err, ErrTooLarge) {
		t.Fatalf("expected ErrTooLarge, got %v", err)
	}
}

func TestMapClosedFile(t *testing.T) {
	f := writeTemp(t, []byte("content"))
	f.Close()

	if _, err := Map(f, 7); err == nil {
		t.Fatal("expected error mapping a closed file")
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	f := writeTemp(t, []byte("hello"))

	v, err := Map(f, 5)
	if err != nil {
		t.Fatalf("Map failed: %v", err)
	}

	if err := v.Close(); err != nil {
		t.Fatalf("first Close failed: %v", err)
	}
	if err := v.Close(); err != nil {
		t.Errorf("second Close should be a no-op, got %v", err)
	}
	if v.Bytes() != nil {
		t.Error("Bytes should return nil after Close")
	}
	if !errors.Is(v.WillNeed(), ErrClosed) {
		t.Error("WillNeed should report ErrClosed after Close")
	}
}

func TestNilView(t *testing.T) {
	var v *View
	if v.Bytes() != nil || v.Len() != 0 {
		t.Error("nil view should be empty")
	}
	if err := v.Close(); err != nil {
		t.Errorf("Close on nil view returned %v", err)
	}
}
