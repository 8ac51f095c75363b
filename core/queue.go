package core

import (
	"sync"

	"github.com/eapache/queue"
)

// TaskQueue is the storage contract shared by worker-local queues and the
// pool's global overflow queue. Implementations must be safe for concurrent
// producers and consumers; callers never take an external lock. All
// operations are non-blocking.
type TaskQueue interface {
	// Push appends a task, transferring ownership to the queue.
	Push(t Task)

	// TryPop removes and returns the head task, reporting false when empty.
	TryPop() (Task, bool)

	// PopUpTo removes and returns at most max tasks from the head. Workers
	// use it to amortize contention: one bulk grab instead of max pops.
	PopUpTo(max int) []Task

	// Len reports the number of queued tasks.
	Len() int

	// IsEmpty reports whether the queue holds no tasks.
	IsEmpty() bool

	// Drain empties the queue and returns everything it held. Shutdown uses
	// the returned tasks to abandon their promises.
	Drain() []Task
}

// =============================================================================
// FIFOTaskQueue: mutex-guarded ring buffer
// =============================================================================

// FIFOTaskQueue is the MPMC queue used for both tiers. The ring buffer keeps
// push/pop O(1) without slice reslicing, and it resizes in both directions,
// so a drained queue gives its memory back. Critical sections are a few
// pointer moves, keeping the queue effectively non-blocking under the
// contention levels a fixed-size pool produces.
type FIFOTaskQueue struct {
	mu   sync.Mutex
	ring *queue.Queue
}

// NewFIFOTaskQueue creates an empty queue.
func NewFIFOTaskQueue() *FIFOTaskQueue {
	return &FIFOTaskQueue{ring: queue.New()}
}

// Push appends a task.
func (q *FIFOTaskQueue) Push(t Task) {
	q.mu.Lock()
	q.ring.Add(t)
	q.mu.Unlock()
}

// TryPop removes and returns the head task.
func (q *FIFOTaskQueue) TryPop() (Task, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.ring.Length() == 0 {
		return Task{}, false
	}
	return q.ring.Remove().(Task), true
}

// PopUpTo removes and returns at most max tasks.
func (q *FIFOTaskQueue) PopUpTo(max int) []Task {
	if max <= 0 {
		return nil
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	n := q.ring.Length()
	if n == 0 {
		return nil
	}
	if n > max {
		n = max
	}

	batch := make([]Task, n)
	for i := range batch {
		batch[i] = q.ring.Remove().(Task)
	}
	return batch
}

// Len reports the number of queued tasks.
func (q *FIFOTaskQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.ring.Length()
}

// IsEmpty reports whether the queue holds no tasks.
func (q *FIFOTaskQueue) IsEmpty() bool {
	return q.Len() == 0
}

// Drain empties the queue and returns the removed tasks in order.
func (q *FIFOTaskQueue) Drain() []Task {
	q.mu.Lock()
	defer q.mu.Unlock()

	n := q.ring.Length()
	if n == 0 {
		return nil
	}

	drained := make([]Task, n)
	for i := range drained {
		drained[i] = q.ring.Remove().(Task)
	}
	return drained
}
