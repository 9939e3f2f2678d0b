package scanner

import (
	"errors"
	"fmt"
	"os"
	"runtime/debug"
	"sync"

	"github.com/harrison/mapscan/internal/mmap"
)

var (
	// ErrNotRegular is recorded when a queued path is no longer a regular file.
	ErrNotRegular = errors.New("not a regular file")

	// ErrMemoryFault is recorded when the mapped file could not be read,
	// typically because it was truncated during the scan.
	ErrMemoryFault = errors.New("memory fault while scanning mapped file")
)

// Pool runs a fixed number of workers that drain the task queue.
type Pool struct {
	size     int
	engine   Engine
	queue    *TaskQueue
	stats    *Stats
	reporter *Reporter
	logger   Logger
	mapFile  mmap.MapFunc

	wg sync.WaitGroup
}

// NewPool returns a pool of size workers. Workers start with Start.
func NewPool(size int, engine Engine, q *TaskQueue, stats *Stats, reporter *Reporter, logger Logger) *Pool {
	if size < 1 {
		size = 1
	}
	if logger == nil {
		logger = nopLogger{}
	}
	return &Pool{
		size:     size,
		engine:   engine,
		queue:    q,
		stats:    stats,
		reporter: reporter,
		logger:   logger,
		mapFile:  mmap.Map,
	}
}

// Start launches the workers.
func (p *Pool) Start() {
	for i := 0; i < p.size; i++ {
		p.wg.Add(1)
		go p.work()
	}
}

// Wait blocks until every worker has returned, which happens once the queue
// is finished and drained.
func (p *Pool) Wait() {
	p.wg.Wait()
}

func (p *Pool) work() {
	defer p.wg.Done()
	for {
		path, ok := p.queue.Pop()
		if !ok {
			return
		}
		p.scanFile(path)
	}
}

// scanFile runs one file through the engine. The descriptor and the mapping
// are released on every path out of this function.
func (p *Pool) scanFile(path string) {
	f, err := os.Open(path)
	if err != nil {
		p.fail(path, err)
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		p.fail(path, err)
		return
	}
	if !info.Mode().IsRegular() {
		p.fail(path, ErrNotRegular)
		return
	}

	size := info.Size()
	if size == 0 {
		p.stats.addEmpty()
		return
	}

	view, err := p.mapFile(f, size)
	if err != nil {
		p.fail(path, err)
		return
	}
	defer view.Close()

	// Read-ahead is only a hint.
	_ = view.WillNeed()

	if err := p.scanView(view, path); err != nil {
		p.fail(path, err)
		return
	}
	p.stats.addScanned(uint64(size))
	p.logger.LogFileScanned(path, size)
}

// scanView calls the engine with memory faults on the mapping turned into
// an error instead of a crash.
func (p *Pool) scanView(view *mmap.View, path string) (err error) {
	defer debug.SetPanicOnFault(debug.SetPanicOnFault(true))
	defer func() {
		if r := recover(); r != nil {
			if fault, ok := r.(interface{ Addr() uintptr }); ok {
				err = fmt.Errorf("%w at %#x", ErrMemoryFault, fault.Addr())
				return
			}
			panic(r)
		}
	}()

	return p.engine.Scan(view.Bytes(), path, p.reporter.OnMatch)
}

func (p *Pool) fail(path string, err error) {
	p.stats.addError()
	p.logger.LogFileError(path, err)
}
