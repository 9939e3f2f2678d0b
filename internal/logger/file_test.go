package logger

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/harrison/mapscan/internal/models"
)

func newTestFileLogger(t *testing.T, level string) (*FileLogger, string) {
	t.Helper()
	logDir := filepath.Join(t.TempDir(), "logs")
	logger, err := NewFileLogger(logDir, level)
	if err != nil {
		t.Fatalf("NewFileLogger() error = %v", err)
	}
	t.Cleanup(func() { logger.Close() })
	return logger, logDir
}

func readLog(t *testing.T, logger *FileLogger) string {
	t.Helper()
	if err := logger.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	data, err := os.ReadFile(logger.Path())
	if err != nil {
		t.Fatalf("failed to read run log: %v", err)
	}
	return string(data)
}

// TestLogDirectoryCreation verifies the log directory is created on initialization
func TestLogDirectoryCreation(t *testing.T) {
	_, logDir := newTestFileLogger(t, "info")

	info, err := os.Stat(logDir)
	if err != nil {
		t.Fatalf("expected log directory %s: %v", logDir, err)
	}
	if !info.IsDir() {
		t.Errorf("%s is not a directory", logDir)
	}
}

// TestPerRunLogFile verifies a timestamped log file is created per run
func TestPerRunLogFile(t *testing.T) {
	logger, logDir := newTestFileLogger(t, "info")

	name := filepath.Base(logger.Path())
	if !regexp.MustCompile(`^scan-\d{8}-\d{6}\.log$`).MatchString(name) {
		t.Errorf("unexpected run log name %q", name)
	}
	if filepath.Dir(logger.Path()) != logDir {
		t.Errorf("run log %s not in %s", logger.Path(), logDir)
	}
}

func TestLatestSymlink(t *testing.T) {
	logger, logDir := newTestFileLogger(t, "info")

	target, err := os.Readlink(filepath.Join(logDir, "latest.log"))
	if err != nil {
		t.Fatalf("expected latest.log symlink: %v", err)
	}
	if target != filepath.Base(logger.Path()) {
		t.Errorf("latest.log -> %s, want %s", target, filepath.Base(logger.Path()))
	}
}

// TestLatestSymlink_Concurrent opens several loggers on one directory at once;
// the symlink must end up valid.
func TestLatestSymlink_Concurrent(t *testing.T) {
	logDir := filepath.Join(t.TempDir(), "logs")

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			logger, err := NewFileLogger(logDir, "info")
			if err != nil {
				t.Errorf("NewFileLogger() error = %v", err)
				return
			}
			logger.Close()
		}()
	}
	wg.Wait()

	if _, err := os.Stat(filepath.Join(logDir, "latest.log")); err != nil {
		t.Errorf("latest.log does not resolve: %v", err)
	}
}

func TestRunLogHeader(t *testing.T) {
	logger, _ := newTestFileLogger(t, "info")
	content := readLog(t, logger)

	if !strings.HasPrefix(content, "=== mapscan Scan Log ===\n") {
		t.Errorf("missing header: %q", content)
	}
	if !strings.Contains(content, "Run ID: "+logger.RunID()) {
		t.Errorf("header missing run ID %s", logger.RunID())
	}
	if _, err := uuid.Parse(logger.RunID()); err != nil {
		t.Errorf("run ID is not a UUID: %v", err)
	}
	if !strings.Contains(content, "Started at: ") {
		t.Error("header missing start time")
	}
}

func TestFileLogger_ScanEvents(t *testing.T) {
	tests := []struct {
		name    string
		level   string
		present []string
		absent  []string
	}{
		{
			name:    "trace records scanned files",
			level:   "trace",
			present: []string{"[TRACE] Scanned /data/b.bin (2.0 KiB)", "Cannot scan /data/a.bin"},
		},
		{
			name:  "debug records file errors",
			level: "debug",
			present: []string{
				"[INFO] Scanning /data with 4 workers",
				"[DEBUG] Cannot scan /data/a.bin: permission denied",
				"[DEBUG] Skipping directory /data/private: permission denied",
				"=== Scan Summary ===",
				"Files scanned: 3",
			},
			absent: []string{"Scanned /data/b.bin"},
		},
		{
			name:    "info drops file errors",
			level:   "info",
			present: []string{"Scanning /data", "Files scanned: 3"},
			absent:  []string{"Cannot scan", "Skipping directory"},
		},
		{
			name:    "summary survives error level",
			level:   "error",
			present: []string{"=== Scan Summary ==="},
			absent:  []string{"Scanning /data"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, _ := newTestFileLogger(t, tt.level)
			logger.LogScanStart("/data", 4)
			logger.LogFileScanned("/data/b.bin", 2048)
			logger.LogFileError("/data/a.bin", errPermission)
			logger.LogSkippedDir("/data/private", errPermission)
			logger.LogSummary(models.ScanStats{FilesScanned: 3, Duration: time.Second})

			content := readLog(t, logger)
			for _, want := range tt.present {
				if !strings.Contains(content, want) {
					t.Errorf("log missing %q\n%s", want, content)
				}
			}
			for _, unwanted := range tt.absent {
				if strings.Contains(content, unwanted) {
					t.Errorf("log should not contain %q\n%s", unwanted, content)
				}
			}
			if strings.Contains(content, "\x1b[") {
				t.Error("file log must not contain ANSI escapes")
			}
		})
	}
}

func TestFileLogger_CloseTwice(t *testing.T) {
	logger, _ := newTestFileLogger(t, "info")
	if err := logger.Close(); err != nil {
		t.Fatalf("first Close() error = %v", err)
	}
	if err := logger.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
	// writes after close are dropped
	logger.LogInfo("late")
}

func TestFileLogger_DefaultDir(t *testing.T) {
	tmpDir := t.TempDir()
	oldWd, _ := os.Getwd()
	if err := os.Chdir(tmpDir); err != nil {
		t.Fatal(err)
	}
	defer os.Chdir(oldWd)

	logger, err := NewFileLogger("", "info")
	if err != nil {
		t.Fatalf("NewFileLogger() error = %v", err)
	}
	defer logger.Close()

	if _, err := os.Stat(filepath.Join(tmpDir, ".mapscan", "logs")); err != nil {
		t.Errorf("expected default log directory: %v", err)
	}
}
