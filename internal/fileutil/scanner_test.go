package fileutil

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
)

func createTree(t *testing.T, root string, files []string) {
	t.Helper()
	for _, f := range files {
		path := filepath.Join(root, f)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatalf("failed to create directory: %v", err)
		}
		if err := os.WriteFile(path, []byte("rule r { condition: true }"), 0644); err != nil {
			t.Fatalf("failed to create file: %v", err)
		}
	}
}

func baseNames(paths []string) []string {
	names := make([]string, len(paths))
	for i, p := range paths {
		names[i] = filepath.Base(p)
	}
	sort.Strings(names)
	return names
}

func TestScanDirectory(t *testing.T) {
	tmpDir := t.TempDir()

	// tmpDir/
	//   malware.yar
	//   packers.YARA
	//   notes.txt
	//   .disabled.yar
	//   extra/
	//     webshells.yar
	//     deeper/
	//       exploits.yara
	//   .git/
	//     config.yar
	createTree(t, tmpDir, []string{
		"malware.yar",
		"packers.YARA",
		"notes.txt",
		".disabled.yar",
		"extra/webshells.yar",
		"extra/deeper/exploits.yara",
		".git/config.yar",
	})

	tests := []struct {
		name          string
		opts          ScanOptions
		wantFileNames []string
	}{
		{
			name:          "flat scan with no filter",
			opts:          ScanOptions{},
			wantFileNames: []string{"malware.yar", "notes.txt", "packers.YARA"},
		},
		{
			name:          "rule extensions",
			opts:          ScanOptions{Extensions: []string{".yar", ".yara"}},
			wantFileNames: []string{"malware.yar", "packers.YARA"},
		},
		{
			name:          "extension without dot prefix",
			opts:          ScanOptions{Extensions: []string{"yar"}},
			wantFileNames: []string{"malware.yar"},
		},
		{
			name:          "recursive",
			opts:          ScanOptions{Extensions: []string{".yar", ".yara"}, Recursive: true},
			wantFileNames: []string{"exploits.yara", "malware.yar", "packers.YARA", "webshells.yar"},
		},
		{
			name:          "recursive with max depth",
			opts:          ScanOptions{Extensions: []string{".yar", ".yara"}, Recursive: true, MaxDepth: 2},
			wantFileNames: []string{"malware.yar", "packers.YARA", "webshells.yar"},
		},
		{
			name:          "hidden included",
			opts:          ScanOptions{Extensions: []string{".yar"}, Recursive: true, IncludeHidden: true},
			wantFileNames: []string{".disabled.yar", "config.yar", "malware.yar", "webshells.yar"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := ScanDirectory(tmpDir, tt.opts)
			if err != nil {
				t.Fatalf("ScanDirectory() error = %v", err)
			}
			got := baseNames(result.Files)
			want := append([]string(nil), tt.wantFileNames...)
			sort.Strings(want)
			if strings.Join(got, ",") != strings.Join(want, ",") {
				t.Errorf("ScanDirectory() files = %v, want %v", got, want)
			}
			if len(result.Errors) != 0 {
				t.Errorf("ScanDirectory() unexpected errors: %v", result.Errors)
			}
		})
	}
}

func TestScanDirectory_AbsoluteSortedPaths(t *testing.T) {
	tmpDir := t.TempDir()
	createTree(t, tmpDir, []string{"c.yar", "a.yar", "b.yar"})

	oldWd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(tmpDir); err != nil {
		t.Fatal(err)
	}
	defer os.Chdir(oldWd)

	result, err := ScanDirectory(".", ScanOptions{})
	if err != nil {
		t.Fatalf("ScanDirectory() error = %v", err)
	}
	if len(result.Files) != 3 {
		t.Fatalf("expected 3 files, got %d", len(result.Files))
	}
	for _, f := range result.Files {
		if !filepath.IsAbs(f) {
			t.Errorf("expected absolute path, got %s", f)
		}
	}
	if !sort.StringsAreSorted(result.Files) {
		t.Errorf("expected sorted output, got %v", result.Files)
	}
}

func TestScanDirectory_SkipsSymlinks(t *testing.T) {
	tmpDir := t.TempDir()
	outside := t.TempDir()
	createTree(t, tmpDir, []string{"real.yar"})
	createTree(t, outside, []string{"target.yar", "sub/other.yar"})

	if err := os.Symlink(filepath.Join(outside, "target.yar"), filepath.Join(tmpDir, "link.yar")); err != nil {
		t.Skipf("symlinks not supported: %v", err)
	}
	if err := os.Symlink(filepath.Join(outside, "sub"), filepath.Join(tmpDir, "linkdir")); err != nil {
		t.Skipf("symlinks not supported: %v", err)
	}

	result, err := ScanDirectory(tmpDir, ScanOptions{Recursive: true})
	if err != nil {
		t.Fatalf("ScanDirectory() error = %v", err)
	}
	got := baseNames(result.Files)
	if len(got) != 1 || got[0] != "real.yar" {
		t.Errorf("expected only real.yar, got %v", got)
	}
}

func TestScanDirectory_Errors(t *testing.T) {
	tmpDir := t.TempDir()
	file := filepath.Join(tmpDir, "file.yar")
	createTree(t, tmpDir, []string{"file.yar"})

	tests := []struct {
		name    string
		dir     string
		wantErr string
	}{
		{
			name:    "missing directory",
			dir:     filepath.Join(tmpDir, "missing"),
			wantErr: "failed to access directory",
		},
		{
			name:    "file instead of directory",
			dir:     file,
			wantErr: "path is not a directory",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ScanDirectory(tt.dir, ScanOptions{})
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want substring %q", err, tt.wantErr)
			}
		})
	}
}

func TestScanDirectory_UnreadableSubdirectory(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permission checks do not apply to root")
	}
	tmpDir := t.TempDir()
	createTree(t, tmpDir, []string{"top.yar", "locked/inner.yar"})

	locked := filepath.Join(tmpDir, "locked")
	if err := os.Chmod(locked, 0000); err != nil {
		t.Fatal(err)
	}
	defer os.Chmod(locked, 0755)

	result, err := ScanDirectory(tmpDir, ScanOptions{Recursive: true})
	if err != nil {
		t.Fatalf("ScanDirectory() error = %v", err)
	}
	if got := baseNames(result.Files); len(got) != 1 || got[0] != "top.yar" {
		t.Errorf("expected only top.yar, got %v", got)
	}
	if len(result.Errors) != 1 {
		t.Errorf("expected 1 error for the locked directory, got %v", result.Errors)
	}
}

func TestScanDirectory_EmptyDirectory(t *testing.T) {
	result, err := ScanDirectory(t.TempDir(), ScanOptions{Recursive: true})
	if err != nil {
		t.Fatalf("ScanDirectory() error = %v", err)
	}
	if result.Files == nil {
		t.Error("expected empty slice, got nil")
	}
	if len(result.Files) != 0 {
		t.Errorf("expected no files, got %v", result.Files)
	}
}
