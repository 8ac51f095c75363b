package core

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// FutureStatus describes the lifecycle of a shared state. Transitions are
// monotonic: pending -> {ready|error} -> consumed. A state never goes back
// to pending once satisfied.
type FutureStatus int32

const (
	// StatusPending means no value or error has been stored yet.
	StatusPending FutureStatus = iota

	// StatusReady means a value is stored and Get will succeed.
	StatusReady

	// StatusError means an error is stored; Get returns it without
	// consuming, so repeated Get calls observe the same error.
	StatusError

	// StatusConsumed means a previous Get moved the value out.
	StatusConsumed
)

// String renders the status for logs and test failures.
func (s FutureStatus) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusReady:
		return "ready"
	case StatusError:
		return "error"
	case StatusConsumed:
		return "consumed"
	default:
		return "unknown"
	}
}

// waitSpinCount bounds the lock-free polling a waiter does before parking on
// the done channel. Results produced within the spin window avoid the
// channel wakeup entirely.
const waitSpinCount = 100

// Void is the result type of tasks that produce no value.
type Void = struct{}

// =============================================================================
// sharedState: the synchronization cell between one promise and one future
// =============================================================================

// sharedState carries the result across threads. The status atomic is the
// publication point: the value or error is written under mu strictly before
// the status store, so any goroutine that observes a non-pending status also
// observes the stored result. done is closed exactly once, on the
// pending -> {ready|error} transition, and is what blocked waiters park on.
type sharedState[T any] struct {
	status    atomic.Int32
	retrieved atomic.Bool

	mu    sync.Mutex
	value T
	err   error

	done chan struct{}
}

func newSharedState[T any]() *sharedState[T] {
	return &sharedState[T]{done: make(chan struct{})}
}

func (s *sharedState[T]) currentStatus() FutureStatus {
	return FutureStatus(s.status.Load())
}

// setValue stores the result and publishes ready. Only the first
// satisfaction of the state wins.
func (s *sharedState[T]) setValue(v T) error {
	s.mu.Lock()
	if s.currentStatus() != StatusPending {
		s.mu.Unlock()
		return ErrPromiseAlreadySatisfied
	}
	s.value = v
	s.status.Store(int32(StatusReady))
	s.mu.Unlock()

	close(s.done)
	return nil
}

// setError stores the error and publishes it. Same first-wins rule as
// setValue.
func (s *sharedState[T]) setError(err error) error {
	s.mu.Lock()
	if s.currentStatus() != StatusPending {
		s.mu.Unlock()
		return ErrPromiseAlreadySatisfied
	}
	s.err = err
	s.status.Store(int32(StatusError))
	s.mu.Unlock()

	close(s.done)
	return nil
}

// abandon satisfies a still-pending state with ErrBrokenPromise so waiters
// are released. No-op once the state is satisfied; safe to call repeatedly.
func (s *sharedState[T]) abandon() {
	s.mu.Lock()
	if s.currentStatus() != StatusPending {
		s.mu.Unlock()
		return
	}
	s.err = ErrBrokenPromise
	s.status.Store(int32(StatusError))
	s.mu.Unlock()

	close(s.done)
}

// waitResolved blocks until the state leaves pending or ctx is done. Spins
// briefly first; tasks that finish quickly never touch the channel.
func (s *sharedState[T]) waitResolved(ctx context.Context) error {
	for i := 0; i < waitSpinCount; i++ {
		if s.currentStatus() != StatusPending {
			return nil
		}
	}

	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// waitTimed blocks up to d and reports whether the state left pending.
func (s *sharedState[T]) waitTimed(d time.Duration) bool {
	if s.currentStatus() != StatusPending {
		return true
	}
	if d <= 0 {
		return false
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-s.done:
		return true
	case <-timer.C:
		// The state may have resolved in the race window.
		return s.currentStatus() != StatusPending
	}
}

// get implements the consuming read. The error path deliberately does not
// consume: an error result stays observable on every subsequent call, while
// a value is moved out exactly once.
func (s *sharedState[T]) get(ctx context.Context) (T, error) {
	var zero T
	if err := s.waitResolved(ctx); err != nil {
		return zero, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.currentStatus() {
	case StatusReady:
		v := s.value
		s.value = zero
		s.status.Store(int32(StatusConsumed))
		return v, nil
	case StatusError:
		return zero, s.err
	default:
		return zero, ErrFutureAlreadyConsumed
	}
}

// =============================================================================
// TaskPromise: the producer handle
// =============================================================================

// TaskPromise is the producer side of a shared state. Exactly one future can
// be retrieved from it, and exactly one SetValue or SetError succeeds. A
// promise that will never be satisfied must be abandoned so the paired
// future resolves instead of blocking forever; the pool does this for every
// task still queued at shutdown.
//
// The zero value has no state; all operations on it fail with ErrNoState.
type TaskPromise[T any] struct {
	state *sharedState[T]
}

// NewTaskPromise creates a promise with a fresh shared state.
func NewTaskPromise[T any]() *TaskPromise[T] {
	return &TaskPromise[T]{state: newSharedState[T]()}
}

// Future retrieves the observer handle. The second and later calls fail with
// ErrFutureAlreadyRetrieved.
func (p *TaskPromise[T]) Future() (*TaskFuture[T], error) {
	if p == nil || p.state == nil {
		return nil, ErrNoState
	}
	if !p.state.retrieved.CompareAndSwap(false, true) {
		return nil, ErrFutureAlreadyRetrieved
	}
	return &TaskFuture[T]{state: p.state}, nil
}

// SetValue satisfies the promise with a value, waking any blocked future
// holder. Fails with ErrPromiseAlreadySatisfied on the second satisfaction
// and ErrNoState on a zero-value promise.
func (p *TaskPromise[T]) SetValue(v T) error {
	if p == nil || p.state == nil {
		return ErrNoState
	}
	return p.state.setValue(v)
}

// SetError satisfies the promise with an error. Same rules as SetValue.
func (p *TaskPromise[T]) SetError(err error) error {
	if p == nil || p.state == nil {
		return ErrNoState
	}
	return p.state.setError(err)
}

// Abandon resolves a still-pending state with ErrBrokenPromise. Call it when
// the producer gives up; it is idempotent and a no-op after satisfaction.
func (p *TaskPromise[T]) Abandon() {
	if p == nil || p.state == nil {
		return
	}
	p.state.abandon()
}

// =============================================================================
// TaskFuture: the observer handle
// =============================================================================

// TaskFuture is the consumer side of a shared state. Get blocks until the
// paired promise is satisfied; Wait/WaitFor/WaitUntil observe resolution
// without consuming the value.
//
// The zero value has no state; Get and Wait fail with ErrNoState, the timed
// waits report false.
type TaskFuture[T any] struct {
	state *sharedState[T]
}

// Valid reports whether the future is bound to a shared state.
func (f *TaskFuture[T]) Valid() bool {
	return f != nil && f.state != nil
}

// Status returns the current lifecycle phase without blocking. A future with
// no state reports StatusPending.
func (f *TaskFuture[T]) Status() FutureStatus {
	if !f.Valid() {
		return StatusPending
	}
	return f.state.currentStatus()
}

// IsReady reports whether Get would return without blocking.
func (f *TaskFuture[T]) IsReady() bool {
	return f.Valid() && f.state.currentStatus() != StatusPending
}

// Get blocks until the result is available, then returns it. A stored value
// is moved out and the state becomes consumed; a second Get fails with
// ErrFutureAlreadyConsumed. A stored error is returned without consuming, so
// every Get observes it. Cancelling ctx abandons the wait, not the task.
func (f *TaskFuture[T]) Get(ctx context.Context) (T, error) {
	if !f.Valid() {
		var zero T
		return zero, ErrNoState
	}
	return f.state.get(ctx)
}

// Wait blocks until the state resolves or ctx is done, without consuming the
// result. Returns nil once resolved.
func (f *TaskFuture[T]) Wait(ctx context.Context) error {
	if !f.Valid() {
		return ErrNoState
	}
	return f.state.waitResolved(ctx)
}

// WaitFor blocks up to d and reports whether the state resolved.
func (f *TaskFuture[T]) WaitFor(d time.Duration) bool {
	if !f.Valid() {
		return false
	}
	return f.state.waitTimed(d)
}

// WaitUntil blocks until the deadline and reports whether the state
// resolved.
func (f *TaskFuture[T]) WaitUntil(deadline time.Time) bool {
	if !f.Valid() {
		return false
	}
	return f.state.waitTimed(time.Until(deadline))
}
