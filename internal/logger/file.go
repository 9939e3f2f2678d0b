package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/harrison/mapscan/internal/filelock"
	"github.com/harrison/mapscan/internal/models"
)

// DefaultLogDir is used when no log directory is configured.
var DefaultLogDir = filepath.Join(".mapscan", "logs")

// FileLogger logs scan events to a per-run file in a log directory.
// Each run gets scan-YYYYMMDD-HHMMSS.log and latest.log is pointed at it.
// It is thread-safe and supports log level filtering.
type FileLogger struct {
	logDir   string
	runLog   *os.File
	runFile  string
	runID    string
	logLevel string
	mu       sync.Mutex
}

// NewFileLogger creates a FileLogger in logDir at the given level. The
// directory is created if missing. Concurrent runs sharing a log directory
// serialise the latest.log update on a lock file in that directory.
func NewFileLogger(logDir string, logLevel string) (*FileLogger, error) {
	if logDir == "" {
		logDir = DefaultLogDir
	}
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	started := time.Now()
	runFile := filepath.Join(logDir, fmt.Sprintf("scan-%s.log", started.Format("20060102-150405")))

	file, err := os.OpenFile(runFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to create run log file: %w", err)
	}

	if err := updateLatest(logDir, runFile); err != nil {
		file.Close()
		return nil, err
	}

	logger := &FileLogger{
		logDir:   logDir,
		runLog:   file,
		runFile:  runFile,
		runID:    uuid.NewString(),
		logLevel: normalizeLogLevel(logLevel),
	}

	logger.writeRunLog("=== mapscan Scan Log ===\n")
	logger.writeRunLog(fmt.Sprintf("Run ID: %s\n", logger.runID))
	logger.writeRunLog(fmt.Sprintf("Started at: %s\n\n", started.Format(time.RFC3339)))

	return logger, nil
}

// updateLatest repoints logDir/latest.log at runFile.
func updateLatest(logDir, runFile string) error {
	symlinkPath := filepath.Join(logDir, "latest.log")
	return filelock.WithLock(filepath.Join(logDir, ".latest.lock"), func() error {
		if _, err := os.Lstat(symlinkPath); err == nil {
			if err := os.Remove(symlinkPath); err != nil {
				return fmt.Errorf("failed to remove old symlink: %w", err)
			}
		}
		if err := os.Symlink(filepath.Base(runFile), symlinkPath); err != nil {
			return fmt.Errorf("failed to create symlink: %w", err)
		}
		return nil
	})
}

// Path returns the run log file path.
func (fl *FileLogger) Path() string {
	return fl.runFile
}

// RunID returns the identifier written in the run log header.
func (fl *FileLogger) RunID() string {
	return fl.runID
}

func (fl *FileLogger) shouldLog(messageLevel string) bool {
	return logLevelToInt(messageLevel) >= logLevelToInt(fl.logLevel)
}

// LogTrace logs a trace-level message (most verbose).
func (fl *FileLogger) LogTrace(message string) {
	fl.logWithLevel("TRACE", message)
}

// LogDebug logs a debug-level message.
func (fl *FileLogger) LogDebug(message string) {
	fl.logWithLevel("DEBUG", message)
}

// LogInfo logs an info-level message.
func (fl *FileLogger) LogInfo(message string) {
	fl.logWithLevel("INFO", message)
}

// LogWarn logs a warning-level message.
func (fl *FileLogger) LogWarn(message string) {
	fl.logWithLevel("WARN", message)
}

// LogError logs an error-level message.
func (fl *FileLogger) LogError(message string) {
	fl.logWithLevel("ERROR", message)
}

func (fl *FileLogger) logWithLevel(level string, message string) {
	if !fl.shouldLog(strings.ToLower(level)) {
		return
	}
	fl.writeRunLog(fmt.Sprintf("[%s] [%s] %s\n", timestamp(), level, message))
}

// LogScanStart records the scan root and pool size at INFO level.
func (fl *FileLogger) LogScanStart(root string, workers int) {
	fl.LogInfo(fmt.Sprintf("Scanning %s with %d workers", root, workers))
}

// LogFileScanned records every scanned file at TRACE level.
func (fl *FileLogger) LogFileScanned(path string, size int64) {
	if !fl.shouldLog("trace") {
		return
	}
	fl.LogTrace(fmt.Sprintf("Scanned %s (%s)", path, humanize.IBytes(uint64(size))))
}

// LogFileError records a file that could not be scanned at DEBUG level.
func (fl *FileLogger) LogFileError(path string, err error) {
	fl.LogDebug(fmt.Sprintf("Cannot scan %s: %v", path, err))
}

// LogSkippedDir records an unreadable directory at DEBUG level.
func (fl *FileLogger) LogSkippedDir(path string, err error) {
	fl.LogDebug(fmt.Sprintf("Skipping directory %s: %v", path, err))
}

// LogSummary records the scan summary regardless of level.
func (fl *FileLogger) LogSummary(stats models.ScanStats) {
	ts := timestamp()
	var b strings.Builder
	for _, line := range summaryLines(stats, nil) {
		fmt.Fprintf(&b, "[%s] %s\n", ts, line)
	}
	fl.writeRunLog(b.String())
}

// Close flushes and closes the run log file.
// It should be called when the logger is no longer needed.
func (fl *FileLogger) Close() error {
	fl.mu.Lock()
	defer fl.mu.Unlock()

	if fl.runLog != nil {
		if err := fl.runLog.Sync(); err != nil {
			return fmt.Errorf("failed to sync run log: %w", err)
		}
		if err := fl.runLog.Close(); err != nil {
			return fmt.Errorf("failed to close run log: %w", err)
		}
		fl.runLog = nil
	}

	return nil
}

// writeRunLog is a thread-safe helper to write to the run log file.
func (fl *FileLogger) writeRunLog(message string) {
	fl.mu.Lock()
	defer fl.mu.Unlock()

	if fl.runLog != nil {
		fl.runLog.WriteString(message)
	}
}
