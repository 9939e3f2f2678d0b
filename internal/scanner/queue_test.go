package scanner

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

func TestTaskQueue_FIFO(t *testing.T) {
	q := NewTaskQueue()
	for _, p := range []string{"a", "b", "c"} {
		q.Push(p)
	}
	q.MarkFinished()

	for _, want := range []string{"a", "b", "c"} {
		got, ok := q.Pop()
		if !ok {
			t.Fatalf("Pop() returned done, want %q", want)
		}
		if got != want {
			t.Errorf("Pop() = %q, want %q", got, want)
		}
	}
	if _, ok := q.Pop(); ok {
		t.Error("Pop() on a finished empty queue should report done")
	}
}

func TestTaskQueue_States(t *testing.T) {
	q := NewTaskQueue()
	if q.State() != Loading {
		t.Errorf("new queue state = %v, want loading", q.State())
	}

	q.Push("x")
	if q.Len() != 1 {
		t.Errorf("Len() = %d, want 1", q.Len())
	}
	q.MarkFinished()
	if q.State() != Draining {
		t.Errorf("state after finish with items = %v, want draining", q.State())
	}

	q.Pop()
	if q.State() != Closed {
		t.Errorf("state after drain = %v, want closed", q.State())
	}

	q.MarkFinished()
	if q.State() != Closed {
		t.Errorf("second MarkFinished changed state to %v", q.State())
	}
}

func TestTaskQueue_EmptyFinishIsClosed(t *testing.T) {
	q := NewTaskQueue()
	q.MarkFinished()
	if q.State() != Closed {
		t.Errorf("state = %v, want closed", q.State())
	}
}

func TestTaskQueue_PushAfterFinishPanics(t *testing.T) {
	q := NewTaskQueue()
	q.MarkFinished()

	defer func() {
		if recover() == nil {
			t.Error("expected Push after MarkFinished to panic")
		}
	}()
	q.Push("late")
}

// TestTaskQueue_Liveness checks that W consumers always terminate and that
// every pushed path is popped exactly once, including when nothing is pushed.
func TestTaskQueue_Liveness(t *testing.T) {
	tests := []struct {
		workers int
		tasks   int
	}{
		{workers: 64, tasks: 0},
		{workers: 64, tasks: 1},
		{workers: 16, tasks: 10},
		{workers: 1, tasks: 1000},
		{workers: 32, tasks: 5000},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("W=%d,T=%d", tt.workers, tt.tasks), func(t *testing.T) {
			q := NewTaskQueue()

			var mu sync.Mutex
			seen := make(map[string]int)

			var wg sync.WaitGroup
			for i := 0; i < tt.workers; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					for {
						p, ok := q.Pop()
						if !ok {
							return
						}
						mu.Lock()
						seen[p]++
						mu.Unlock()
					}
				}()
			}

			for i := 0; i < tt.tasks; i++ {
				q.Push(fmt.Sprintf("file-%d", i))
			}
			q.MarkFinished()

			done := make(chan struct{})
			go func() {
				wg.Wait()
				close(done)
			}()
			select {
			case <-done:
			case <-time.After(10 * time.Second):
				t.Fatal("consumers did not terminate")
			}

			if len(seen) != tt.tasks {
				t.Errorf("popped %d distinct paths, want %d", len(seen), tt.tasks)
			}
			for p, n := range seen {
				if n != 1 {
					t.Errorf("path %s popped %d times", p, n)
				}
			}
			if q.State() != Closed {
				t.Errorf("final state = %v, want closed", q.State())
			}
		})
	}
}
