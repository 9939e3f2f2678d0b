package rules

import (
	"fmt"
	"os"

	"github.com/harrison/mapscan/internal/fileutil"
)

// DefaultExtensions are the rule file extensions picked up by LoadDir when
// none are given.
var DefaultExtensions = []string{".yar", ".yara"}

// SkippedFile is a rule file that failed to compile.
type SkippedFile struct {
	Path string
	Err  error
}

// LoadResult reports which rule files were accepted and which were skipped.
type LoadResult struct {
	Loaded  []string
	Skipped []SkippedFile
	Rules   int
}

// LoadDir compiles every rule file directly inside dir. Each file is
// validated on its own; a broken file is recorded in the result and skipped
// while the others are kept. Files are processed in sorted order, so a rule
// may reference rules of files sorted before it.
//
// The LoadResult is returned even when err is non-nil (ErrNoRules), so
// callers can report the skipped files.
func LoadDir(dir string, exts []string) (*Ruleset, *LoadResult, error) {
	if len(exts) == 0 {
		exts = DefaultExtensions
	}

	found, err := fileutil.ScanDirectory(dir, fileutil.ScanOptions{Extensions: exts})
	if err != nil {
		return nil, nil, fmt.Errorf("rules directory: %w", err)
	}

	result := &LoadResult{}
	for _, ferr := range found.Errors {
		result.Skipped = append(result.Skipped, SkippedFile{Err: ferr})
	}

	c := NewCompiler()
	for _, path := range found.Files {
		data, err := os.ReadFile(path)
		if err != nil {
			result.Skipped = append(result.Skipped, SkippedFile{Path: path, Err: err})
			continue
		}
		before := c.Len()
		if err := c.Add(Source{Name: path, Data: data}); err != nil {
			result.Skipped = append(result.Skipped, SkippedFile{Path: path, Err: err})
			continue
		}
		result.Loaded = append(result.Loaded, path)
		result.Rules += c.Len() - before
	}

	rs, err := c.Ruleset()
	if err != nil {
		return nil, result, fmt.Errorf("%s: %w", dir, err)
	}
	return rs, result, nil
}
