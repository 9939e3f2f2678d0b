// Package scanner walks a directory tree and scans every regular file with a
// matching engine.
//
// One producer (the Walker, running on the caller's goroutine) feeds paths
// into an unbounded TaskQueue. A fixed Pool of workers pops paths, maps each
// file read-only and hands the bytes to the engine. Matches go through the
// Reporter. Counters live in Stats behind a single mutex.
//
// Termination: once the walk returns the queue is marked finished, which
// wakes every idle worker; workers exit when the queue is empty and
// finished, and Run joins them before reading the counters.
package scanner

import (
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"
	"time"

	"github.com/harrison/mapscan/internal/mmap"
	"github.com/harrison/mapscan/internal/models"
	"github.com/harrison/mapscan/internal/rules"
)

var (
	// ErrNoEngine is returned by Run when no engine is given.
	ErrNoEngine = errors.New("no matching engine")

	// ErrInvalidRoot is returned by Run when the scan root is missing or not
	// a directory.
	ErrInvalidRoot = errors.New("invalid scan root")
)

// Engine matches rules against a buffer. Implementations must be safe for
// concurrent use; onMatch is called for each satisfied rule with ctx passed
// through unchanged.
type Engine interface {
	Scan(data []byte, ctx string, onMatch rules.MatchFunc) error
}

// Logger receives scan progress events. Implementations must be safe for
// concurrent use: LogFileError is called from the workers.
type Logger interface {
	LogScanStart(root string, workers int)
	LogFileScanned(path string, size int64)
	LogFileError(path string, err error)
	LogSkippedDir(path string, err error)
	LogSummary(stats models.ScanStats)
}

type nopLogger struct{}

func (nopLogger) LogScanStart(string, int)     {}
func (nopLogger) LogFileScanned(string, int64) {}
func (nopLogger) LogFileError(string, error)   {}
func (nopLogger) LogSkippedDir(string, error)  {}
func (nopLogger) LogSummary(models.ScanStats)  {}

// Options configures a scan run.
type Options struct {
	// Workers is the pool size. 0 means runtime.NumCPU().
	Workers int
	// Logger receives progress events and the summary. nil discards them.
	Logger Logger
	// Out receives one line per match. nil discards them.
	Out io.Writer
	// Quiet suppresses match lines; matches are still counted.
	Quiet bool
	// Color enables ANSI colors in match lines.
	Color bool

	// mapFile replaces mmap.Map in tests.
	mapFile mmap.MapFunc
}

// Run scans every regular file below root with engine and returns the
// aggregated counters. Per-file failures are counted, not returned; the
// error is non-nil only when the scan could not start.
func Run(engine Engine, root string, opts Options) (models.ScanStats, error) {
	if engine == nil {
		return models.ScanStats{}, ErrNoEngine
	}

	info, err := os.Stat(root)
	if err != nil {
		return models.ScanStats{}, fmt.Errorf("%w: %w", ErrInvalidRoot, err)
	}
	if !info.IsDir() {
		return models.ScanStats{}, fmt.Errorf("%w: %s is not a directory", ErrInvalidRoot, root)
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	logger := opts.Logger
	if logger == nil {
		logger = nopLogger{}
	}

	stats := &Stats{}
	queue := NewTaskQueue()
	reporter := NewReporter(stats, opts.Out, opts.Quiet, opts.Color)
	pool := NewPool(workers, engine, queue, stats, reporter, logger)
	if opts.mapFile != nil {
		pool.mapFile = opts.mapFile
	}
	walker := NewWalker(queue, logger)

	logger.LogScanStart(root, workers)
	start := time.Now()

	pool.Start()
	walker.Walk(root)
	queue.MarkFinished()
	pool.Wait()

	result := stats.Snapshot()
	result.Duration = time.Since(start)
	result.Workers = workers
	result.FilesQueued = walker.FilesQueued
	result.DirsWalked = walker.DirsWalked
	result.DirsSkipped = walker.DirsSkipped

	logger.LogSummary(result)
	return result, nil
}
