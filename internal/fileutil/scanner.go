package fileutil

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ScanOptions configures which files ScanDirectory returns
type ScanOptions struct {
	// Extensions is a list of file extensions to include (e.g., ".yar", "yara").
	// Matching is case-insensitive. Empty means every file.
	Extensions []string
	// Recursive descends into subdirectories
	Recursive bool
	// MaxDepth limits recursion depth (0 = unlimited, 1 = current dir only)
	MaxDepth int
	// IncludeHidden also returns dot files and descends into dot directories
	IncludeHidden bool
}

// ScanResult contains the results of a directory scan
type ScanResult struct {
	// Files contains the absolute paths of all matched files, sorted
	Files []string
	// Errors contains the unreadable subdirectories encountered
	Errors []error
}

// ScanDirectory lists the regular files under dir matching opts. Symbolic
// links, devices and other special files are never returned.
func ScanDirectory(dir string, opts ScanOptions) (*ScanResult, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to access directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("path is not a directory: %s", dir)
	}

	root, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve path %s: %w", dir, err)
	}

	extMap := make(map[string]bool)
	for _, ext := range opts.Extensions {
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		extMap[strings.ToLower(ext)] = true
	}

	result := &ScanResult{
		Files:  make([]string, 0),
		Errors: make([]error, 0),
	}

	var visit func(path string, depth int) error
	visit = func(path string, depth int) error {
		entries, err := os.ReadDir(path)
		if err != nil {
			if depth == 1 {
				return fmt.Errorf("failed to read directory: %w", err)
			}
			result.Errors = append(result.Errors, fmt.Errorf("error accessing %s: %w", path, err))
			return nil
		}

		for _, e := range entries {
			name := e.Name()
			if !opts.IncludeHidden && strings.HasPrefix(name, ".") {
				continue
			}
			full := filepath.Join(path, name)

			switch {
			case e.IsDir():
				if !opts.Recursive || (opts.MaxDepth > 0 && depth >= opts.MaxDepth) {
					continue
				}
				if err := visit(full, depth+1); err != nil {
					return err
				}
			case e.Type().IsRegular():
				if len(extMap) > 0 && !extMap[strings.ToLower(filepath.Ext(name))] {
					continue
				}
				result.Files = append(result.Files, full)
			}
		}
		return nil
	}

	if err := visit(root, 1); err != nil {
		return nil, err
	}

	// Sort files for consistent output
	sort.Strings(result.Files)

	return result, nil
}
