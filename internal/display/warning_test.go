package display

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/harrison/mapscan/internal/rules"
)

func TestDisplayWarning_TitleOnly(t *testing.T) {
	var buf bytes.Buffer
	Warning{Title: "Configuration Missing"}.Display(&buf, false)

	if got := buf.String(); got != "Warning: Configuration Missing\n" {
		t.Errorf("unexpected output %q", got)
	}
}

func TestDisplayWarning_Color(t *testing.T) {
	tests := []struct {
		name     string
		useColor bool
	}{
		{"colored", true},
		{"plain", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			Warning{Title: "x"}.Display(&buf, tt.useColor)
			output := buf.String()

			hasYellow := strings.HasPrefix(output, "\x1b[33m")
			hasReset := strings.HasSuffix(output, "\x1b[0m")
			if hasYellow != tt.useColor || hasReset != tt.useColor {
				t.Errorf("useColor=%v but output %q", tt.useColor, output)
			}
		})
	}
}

func TestDisplayWarning_Complete(t *testing.T) {
	var buf bytes.Buffer
	w := Warning{
		Title:      "Bad Setting",
		Message:    "workers is negative",
		Files:      []string{"a.yaml", "b.yaml"},
		Suggestion: "Use 0",
	}
	w.Display(&buf, false)

	want := "Warning: Bad Setting\n" +
		"    workers is negative\n" +
		"    Affected files:\n" +
		"      1. a.yaml\n" +
		"      2. b.yaml\n" +
		"    Suggestion:\n" +
		"    Use 0\n"
	if got := buf.String(); got != want {
		t.Errorf("Display() =\n%q\nwant\n%q", got, want)
	}
}

func TestDisplayWarning_SingleFile(t *testing.T) {
	var buf bytes.Buffer
	Warning{Title: "t", Files: []string{"only.yar"}}.Display(&buf, false)

	if !strings.Contains(buf.String(), "Affected file:\n      1. only.yar\n") {
		t.Errorf("expected singular heading, got %q", buf.String())
	}
}

func TestWarnSkippedRules(t *testing.T) {
	skipped := []rules.SkippedFile{
		{
			Path: "/rules/broken.yar",
			Err:  &rules.CompileError{File: "/rules/broken.yar", Line: 7, Msg: `undefined string "$b"`},
		},
		{
			Path: "/rules/unreadable.yar",
			Err:  errors.New("permission denied"),
		},
		{
			Err: errors.New("/rules/sub: permission denied"),
		},
	}

	w := WarnSkippedRules("/rules", skipped)

	if w.Title != "3 rule files skipped" {
		t.Errorf("Title = %q", w.Title)
	}
	wantFiles := []string{
		`broken.yar: line 7: undefined string "$b"`,
		"unreadable.yar: permission denied",
		"/rules/sub: permission denied",
	}
	if len(w.Files) != len(wantFiles) {
		t.Fatalf("Files = %v, want %v", w.Files, wantFiles)
	}
	for i := range wantFiles {
		if w.Files[i] != wantFiles[i] {
			t.Errorf("Files[%d] = %q, want %q", i, w.Files[i], wantFiles[i])
		}
	}
	if !strings.Contains(w.Suggestion, "mapscan validate /rules") {
		t.Errorf("Suggestion = %q", w.Suggestion)
	}
}

func TestWarnSkippedRules_Singular(t *testing.T) {
	w := WarnSkippedRules("r", []rules.SkippedFile{{Path: "r/x.yar", Err: errors.New("boom")}})
	if w.Title != "1 rule file skipped" {
		t.Errorf("Title = %q", w.Title)
	}
}
