package filelock

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"
)

func TestNewFileLock(t *testing.T) {
	lockPath := filepath.Join(t.TempDir(), "test.lock")

	lock := NewFileLock(lockPath)
	if lock == nil {
		t.Fatal("NewFileLock should not return nil")
	}
	if lock.Path() != lockPath {
		t.Errorf("Expected lock path %s, got %s", lockPath, lock.Path())
	}
}

func TestLockUnlock(t *testing.T) {
	lock := NewFileLock(filepath.Join(t.TempDir(), "test.lock"))

	if err := lock.Lock(); err != nil {
		t.Fatalf("Failed to acquire lock: %v", err)
	}
	if err := lock.Unlock(); err != nil {
		t.Fatalf("Failed to release lock: %v", err)
	}
}

func TestWithLock_SerialisesUpdates(t *testing.T) {
	tmpDir := t.TempDir()
	lockPath := filepath.Join(tmpDir, "counter.lock")
	counterPath := filepath.Join(tmpDir, "counter.txt")
	if err := os.WriteFile(counterPath, []byte("0"), 0644); err != nil {
		t.Fatal(err)
	}

	const goroutines = 8
	const iterations = 10

	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < iterations; j++ {
				err := WithLock(lockPath, func() error {
					data, err := os.ReadFile(counterPath)
					if err != nil {
						return err
					}
					n, err := strconv.Atoi(string(data))
					if err != nil {
						return err
					}
					return os.WriteFile(counterPath, []byte(strconv.Itoa(n+1)), 0644)
				})
				if err != nil {
					t.Errorf("WithLock failed: %v", err)
					return
				}
			}
		}()
	}
	wg.Wait()

	data, err := os.ReadFile(counterPath)
	if err != nil {
		t.Fatal(err)
	}
	if got := string(data); got != strconv.Itoa(goroutines*iterations) {
		t.Errorf("Expected counter %d, got %s", goroutines*iterations, got)
	}
}

func TestWithLock_ReturnsCallbackError(t *testing.T) {
	want := fmt.Errorf("callback failed")
	err := WithLock(filepath.Join(t.TempDir(), "x.lock"), func() error { return want })
	if err != want {
		t.Errorf("Expected callback error, got %v", err)
	}
}

func TestAtomicWrite(t *testing.T) {
	tests := []struct {
		name string
		perm os.FileMode
	}{
		{"default permissions", 0644},
		{"private permissions", 0600},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "nested", "config.yaml")

			if err := AtomicWrite(path, []byte("first"), tt.perm); err != nil {
				t.Fatalf("AtomicWrite failed: %v", err)
			}
			if err := AtomicWrite(path, []byte("second"), tt.perm); err != nil {
				t.Fatalf("AtomicWrite overwrite failed: %v", err)
			}

			data, err := os.ReadFile(path)
			if err != nil {
				t.Fatal(err)
			}
			if string(data) != "second" {
				t.Errorf("Expected content 'second', got %q", data)
			}

			info, err := os.Stat(path)
			if err != nil {
				t.Fatal(err)
			}
			if info.Mode().Perm() != tt.perm {
				t.Errorf("Expected permissions %v, got %v", tt.perm, info.Mode().Perm())
			}

			entries, err := os.ReadDir(filepath.Dir(path))
			if err != nil {
				t.Fatal(err)
			}
			for _, e := range entries {
				if strings.HasPrefix(e.Name(), ".tmp-") {
					t.Errorf("Temp file left behind: %s", e.Name())
				}
			}
		})
	}
}

func TestLockAndWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".mapscan", "config.yaml")

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if err := LockAndWrite(path, []byte(fmt.Sprintf("workers: %d\n", i))); err != nil {
				t.Errorf("LockAndWrite failed: %v", err)
			}
		}(i)
	}
	wg.Wait()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(data), "workers: ") || strings.Count(string(data), "\n") != 1 {
		t.Errorf("Expected one complete write, got %q", data)
	}
	if _, err := os.Stat(path + ".lock"); err != nil {
		t.Errorf("Expected lock file next to target: %v", err)
	}
}
