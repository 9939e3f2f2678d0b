package logger

import (
	"bytes"
	"strings"
	"testing"
)

// TestLogLevelFiltering verifies that messages are filtered based on log level
func TestLogLevelFiltering(t *testing.T) {
	levels := []string{"trace", "debug", "info", "warn", "error"}

	for ci, configured := range levels {
		for mi, message := range levels {
			shouldAppear := mi >= ci
			t.Run(configured+"/"+message, func(t *testing.T) {
				buf := &bytes.Buffer{}
				logger := NewConsoleLogger(buf, configured)

				switch message {
				case "trace":
					logger.LogTrace("msg")
				case "debug":
					logger.LogDebug("msg")
				case "info":
					logger.LogInfo("msg")
				case "warn":
					logger.LogWarn("msg")
				case "error":
					logger.LogError("msg")
				}

				got := strings.Contains(buf.String(), "["+strings.ToUpper(message)+"] msg")
				if got != shouldAppear {
					t.Errorf("level %s, message %s: appeared=%v, want %v\noutput: %q",
						configured, message, got, shouldAppear, buf.String())
				}
			})
		}
	}
}

func TestNormalizeLogLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"trace", "trace"},
		{"DEBUG", "debug"},
		{" Info ", "info"},
		{"warn", "warn"},
		{"ERROR", "error"},
		{"", "info"},
		{"verbose", "info"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := normalizeLogLevel(tt.input); got != tt.expected {
				t.Errorf("normalizeLogLevel(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestFileErrorsAreDebugOnly(t *testing.T) {
	tests := []struct {
		level        string
		shouldAppear bool
	}{
		{"trace", true},
		{"debug", true},
		{"info", false},
		{"error", false},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			buf := &bytes.Buffer{}
			logger := NewConsoleLogger(buf, tt.level)
			logger.LogFileError("/data/locked.bin", errPermission)
			logger.LogSkippedDir("/data/private", errPermission)

			out := buf.String()
			if got := strings.Contains(out, "/data/locked.bin"); got != tt.shouldAppear {
				t.Errorf("file error appeared=%v, want %v", got, tt.shouldAppear)
			}
			if got := strings.Contains(out, "/data/private"); got != tt.shouldAppear {
				t.Errorf("skipped dir appeared=%v, want %v", got, tt.shouldAppear)
			}
		})
	}
}

func TestScannedFilesAreTraceOnly(t *testing.T) {
	for _, level := range []string{"trace", "debug", "info"} {
		t.Run(level, func(t *testing.T) {
			buf := &bytes.Buffer{}
			logger := NewConsoleLogger(buf, level)
			logger.LogFileScanned("/data/clean.bin", 4096)

			want := level == "trace"
			if got := strings.Contains(buf.String(), "[TRACE] Scanned /data/clean.bin (4.0 KiB)"); got != want {
				t.Errorf("scanned file appeared=%v, want %v\noutput: %q", got, want, buf.String())
			}
		})
	}
}
