package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/harrison/mapscan/internal/cmd"
)

func TestRun_Version(t *testing.T) {
	var stdout, stderr bytes.Buffer
	if code := run([]string{"--version"}, &stdout, &stderr); code != cmd.ExitOK {
		t.Fatalf("exit code = %d, stderr: %s", code, stderr.String())
	}
	if !strings.Contains(stdout.String(), "mapscan version") {
		t.Errorf("unexpected version output %q", stdout.String())
	}
}

func TestRun_ExitCodes(t *testing.T) {
	t.Setenv("MAPSCAN_HOME", t.TempDir())

	emptyRules := t.TempDir()
	scanDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(scanDir, "f"), []byte("data"), 0644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		args []string
		want int
	}{
		{"unknown command", []string{"frobnicate"}, cmd.ExitFailure},
		{"missing arguments", []string{"scan"}, cmd.ExitFailure},
		{"no usable rules", []string{"scan", emptyRules, scanDir}, cmd.ExitNoRules},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			if code := run(tt.args, &stdout, &stderr); code != tt.want {
				t.Errorf("exit code = %d, want %d", code, tt.want)
			}
			if !strings.HasPrefix(stderr.String(), "Error: ") && !strings.Contains(stderr.String(), "\nError: ") {
				t.Errorf("expected an error line on stderr, got %q", stderr.String())
			}
		})
	}
}
