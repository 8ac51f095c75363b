package core

import "time"

// Task is the unit of deferred work: a zero-argument closure plus the hooks
// connecting it to a paired promise when one exists. A Task is owned by
// whichever queue currently holds it; ownership transfers on dequeue and the
// Task is dropped after execution.
//
// run executes the user function. fail, when set, satisfies the paired
// promise with an error (the worker uses it to forward a recovered panic).
// abandon, when set, resolves the paired promise with ErrBrokenPromise; the
// pool invokes it for tasks still queued at shutdown so no future holder is
// left blocked.
type Task struct {
	name    string
	run     func()
	fail    func(error)
	abandon func()

	// enqueuedAt is stamped by the pool on submission and carried through
	// requeues, so execution records report the true queue wait.
	enqueuedAt time.Time
}

// NewTask wraps a plain closure with no result channel. Panics are still
// contained and logged by the executing worker; they just have no future to
// land in.
func NewTask(fn func()) Task {
	return Task{name: funcName(fn), run: fn}
}

// NewNamedTask is NewTask with an explicit name for execution records.
func NewNamedTask(name string, fn func()) Task {
	return Task{name: name, run: fn}
}

// Name returns the task's display name.
func (t Task) Name() string {
	return t.name
}

// valid reports whether the task holds work. Zero Tasks come out of empty
// queue reads and must not be executed.
func (t Task) valid() bool {
	return t.run != nil
}

// =============================================================================
// Promise-backed task construction
// =============================================================================

// NewTaskPair builds the promise/future pair for fn and returns the future
// together with the Task to queue. The task body invokes fn and forwards its
// value or error into the promise; a panic escaping fn is recovered by the
// executing worker and forwarded through the fail hook as a *PanicError.
func NewTaskPair[T any](fn func() (T, error)) (*TaskFuture[T], Task) {
	promise := NewTaskPromise[T]()
	future, _ := promise.Future()

	t := Task{
		name: funcName(fn),
		run: func() {
			v, err := fn()
			if err != nil {
				promise.SetError(err)
				return
			}
			promise.SetValue(v)
		},
		fail: func(err error) {
			promise.SetError(err)
		},
		abandon: promise.Abandon,
	}
	return future, t
}

// NewVoidTaskPair is NewTaskPair for work that produces no value.
func NewVoidTaskPair(fn func() error) (*TaskFuture[Void], Task) {
	future, t := NewTaskPair(func() (Void, error) {
		return Void{}, fn()
	})
	t.name = funcName(fn)
	return future, t
}

// voidTaskPair adapts a resultless closure for the pool's plain Enqueue
// methods, keeping fn's symbol as the task name instead of the wrapper's.
func voidTaskPair(fn func()) (*TaskFuture[Void], Task) {
	future, t := NewTaskPair(func() (Void, error) {
		fn()
		return Void{}, nil
	})
	t.name = funcName(fn)
	return future, t
}
