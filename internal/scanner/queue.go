package scanner

import "sync"

// QueueState is the lifecycle phase of a TaskQueue. It only moves forward.
type QueueState int

const (
	// Loading: the walker may still push paths.
	Loading QueueState = iota
	// Draining: loading finished, paths remain to be popped.
	Draining
	// Closed: loading finished and the queue is empty. Pop returns false.
	Closed
)

func (s QueueState) String() string {
	switch s {
	case Loading:
		return "loading"
	case Draining:
		return "draining"
	case Closed:
		return "closed"
	default:
		return "unknown"
	}
}

type task struct {
	path string
	next *task
}

// TaskQueue is an unbounded FIFO of file paths shared by one producer and
// any number of consumers. Consumers block in Pop until a path is available
// or the producer has called MarkFinished and the queue is empty.
type TaskQueue struct {
	mu   sync.Mutex
	cond *sync.Cond

	head, tail *task // tail == nil iff the queue is empty
	size       int

	finishedLoading bool
}

// NewTaskQueue returns an empty queue in the Loading state.
func NewTaskQueue() *TaskQueue {
	q := &TaskQueue{}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// Push appends path and wakes one waiting consumer. Pushing after
// MarkFinished is a programming error and panics.
func (q *TaskQueue) Push(path string) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.finishedLoading {
		panic("scanner: Push on a finished task queue")
	}

	t := &task{path: path}
	if q.tail == nil {
		q.head = t
	} else {
		q.tail.next = t
	}
	q.tail = t
	q.size++

	q.cond.Signal()
}

// Pop removes and returns the oldest path. It blocks while the queue is
// empty and loading has not finished. ok is false once the queue is Closed.
func (q *TaskQueue) Pop() (path string, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for q.tail == nil && !q.finishedLoading {
		q.cond.Wait()
	}
	if q.tail == nil {
		return "", false
	}

	t := q.head
	q.head = t.next
	if q.head == nil {
		q.tail = nil
	}
	q.size--
	return t.path, true
}

// MarkFinished records that no more paths will be pushed and wakes every
// waiting consumer. Calling it more than once has no further effect.
func (q *TaskQueue) MarkFinished() {
	q.mu.Lock()
	q.finishedLoading = true
	q.mu.Unlock()

	q.cond.Broadcast()
}

// State returns the current lifecycle phase.
func (q *TaskQueue) State() QueueState {
	q.mu.Lock()
	defer q.mu.Unlock()

	switch {
	case !q.finishedLoading:
		return Loading
	case q.tail != nil:
		return Draining
	default:
		return Closed
	}
}

// Len returns the number of queued paths.
func (q *TaskQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.size
}
