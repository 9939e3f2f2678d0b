package logger

import "github.com/harrison/mapscan/internal/models"

// Multi implements Logger by delegating to multiple loggers in order.
// Nil entries are skipped.
type Multi []Logger

// NewMulti builds a Multi from the non-nil loggers given.
func NewMulti(loggers ...Logger) Multi {
	m := make(Multi, 0, len(loggers))
	for _, l := range loggers {
		if l != nil {
			m = append(m, l)
		}
	}
	return m
}

// LogScanStart forwards to all loggers
func (m Multi) LogScanStart(root string, workers int) {
	for _, l := range m {
		l.LogScanStart(root, workers)
	}
}

// LogFileScanned forwards to all loggers
func (m Multi) LogFileScanned(path string, size int64) {
	for _, l := range m {
		l.LogFileScanned(path, size)
	}
}

// LogFileError forwards to all loggers
func (m Multi) LogFileError(path string, err error) {
	for _, l := range m {
		l.LogFileError(path, err)
	}
}

// LogSkippedDir forwards to all loggers
func (m Multi) LogSkippedDir(path string, err error) {
	for _, l := range m {
		l.LogSkippedDir(path, err)
	}
}

// LogSummary forwards to all loggers
func (m Multi) LogSummary(stats models.ScanStats) {
	for _, l := range m {
		l.LogSummary(stats)
	}
}

// LogDebug forwards to all loggers
func (m Multi) LogDebug(message string) {
	for _, l := range m {
		l.LogDebug(message)
	}
}

// LogInfo forwards to all loggers
func (m Multi) LogInfo(message string) {
	for _, l := range m {
		l.LogInfo(message)
	}
}

// LogWarn forwards to all loggers
func (m Multi) LogWarn(message string) {
	for _, l := range m {
		l.LogWarn(message)
	}
}

// LogError forwards to all loggers
func (m Multi) LogError(message string) {
	for _, l := range m {
		l.LogError(message)
	}
}
