package scanner

import (
	"os"
	"path/filepath"
)

// Walker traverses a directory tree depth-first on the calling goroutine and
// pushes every regular file into the queue. Symbolic links are never
// followed; devices, sockets and pipes are skipped.
type Walker struct {
	queue  *TaskQueue
	logger Logger

	// Producer-local counters, read after Walk returns.
	FilesQueued uint64
	DirsWalked  uint64
	DirsSkipped uint64
}

// NewWalker returns a walker feeding q.
func NewWalker(q *TaskQueue, logger Logger) *Walker {
	if logger == nil {
		logger = nopLogger{}
	}
	return &Walker{queue: q, logger: logger}
}

// Walk visits root and everything below it. A directory that cannot be read
// is skipped along with its subtree.
func (w *Walker) Walk(root string) {
	entries, err := os.ReadDir(root)
	if err != nil {
		w.DirsSkipped++
		w.logger.LogSkippedDir(root, err)
		return
	}
	w.DirsWalked++

	for _, e := range entries {
		path := filepath.Join(root, e.Name())
		switch typ := e.Type(); {
		case typ.IsDir():
			w.Walk(path)
		case typ.IsRegular():
			w.queue.Push(path)
			w.FilesQueued++
		}
	}
}
