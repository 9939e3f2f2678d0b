package display

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/harrison/mapscan/internal/rules"
)

// Warning represents a user-facing warning message
type Warning struct {
	Title      string   // Main warning title
	Message    string   // Detailed explanation (optional)
	Files      []string // Related files (optional)
	Suggestion string   // Action to take (optional)
}

// Display shows a formatted warning, in yellow when useColor is set
func (w Warning) Display(out io.Writer, useColor bool) {
	var b strings.Builder

	if useColor {
		b.WriteString(ansiYellow)
	}
	b.WriteString("Warning: ")
	b.WriteString(w.Title)
	b.WriteString("\n")

	if w.Message != "" {
		b.WriteString("    ")
		b.WriteString(w.Message)
		b.WriteString("\n")
	}

	if len(w.Files) > 0 {
		b.WriteString("    ")
		if len(w.Files) == 1 {
			b.WriteString("Affected file:\n")
		} else {
			b.WriteString("Affected files:\n")
		}

		for i, file := range w.Files {
			b.WriteString("      ")
			b.WriteString(fmt.Sprintf("%d. %s", i+1, file))
			b.WriteString("\n")
		}
	}

	if w.Suggestion != "" {
		b.WriteString("    Suggestion:\n")
		b.WriteString("    ")
		b.WriteString(w.Suggestion)
		b.WriteString("\n")
	}

	if useColor {
		b.WriteString(ansiReset)
	}

	fmt.Fprint(out, b.String())
}

// WarnSkippedRules creates a warning listing rule files that failed to
// compile, each with its first error.
func WarnSkippedRules(rulesDir string, skipped []rules.SkippedFile) Warning {
	files := make([]string, 0, len(skipped))
	for _, s := range skipped {
		if s.Path == "" {
			files = append(files, s.Err.Error())
			continue
		}
		files = append(files, fmt.Sprintf("%s: %v", filepath.Base(s.Path), errorLine(s.Err)))
	}

	title := "1 rule file skipped"
	if len(skipped) != 1 {
		title = fmt.Sprintf("%d rule files skipped", len(skipped))
	}

	return Warning{
		Title:      title,
		Message:    "The remaining rules are still used for this scan.",
		Files:      files,
		Suggestion: fmt.Sprintf("Run 'mapscan validate %s' to check the rule files", rulesDir),
	}
}

// errorLine drops the directory part of a compile error location so the
// listing stays readable.
func errorLine(err error) string {
	var ce *rules.CompileError
	if errors.As(err, &ce) {
		if ce.Line == 0 {
			return ce.Msg
		}
		return fmt.Sprintf("line %d: %s", ce.Line, ce.Msg)
	}
	return err.Error()
}
