package core

import (
	"errors"
	"fmt"
)

// Errors returned by the future/promise primitives. They mirror the misuse
// cases a std-style promise can hit and are surfaced synchronously at the
// call that violated the contract.
var (
	// ErrNoState is returned when an operation is invoked on a zero-value
	// future or promise that has no associated shared state.
	ErrNoState = errors.New("stealpool: no associated state")

	// ErrPromiseAlreadySatisfied is returned by SetValue/SetError when the
	// shared state already holds a value or an error. Only the first
	// satisfaction wins.
	ErrPromiseAlreadySatisfied = errors.New("stealpool: promise already satisfied")

	// ErrFutureAlreadyRetrieved is returned by TaskPromise.Future on the
	// second and later calls. A promise hands out at most one future.
	ErrFutureAlreadyRetrieved = errors.New("stealpool: future already retrieved")

	// ErrBrokenPromise is the error a future resolves with when its promise
	// was abandoned before being satisfied. Waiters are always released,
	// never left blocked.
	ErrBrokenPromise = errors.New("stealpool: broken promise")

	// ErrFutureAlreadyConsumed is returned by Get once the value has been
	// moved out by a previous successful Get.
	ErrFutureAlreadyConsumed = errors.New("stealpool: future value already consumed")
)

// Errors returned by pool lifecycle and configuration calls. Submission
// failures are reported through ok-booleans instead (see ThreadPool), so a
// caller can treat a missing future as droppable without error plumbing.
var (
	// ErrPoolStopped is returned when a lifecycle operation requires a
	// running pool but Shutdown has already completed.
	ErrPoolStopped = errors.New("stealpool: pool is stopped")

	// ErrPoolAlreadyRunning is returned by Initialize on a pool whose
	// workers are already up.
	ErrPoolAlreadyRunning = errors.New("stealpool: pool already running")

	// ErrWorkerNotFound is returned when a worker index is out of range or
	// a debug name matches no worker.
	ErrWorkerNotFound = errors.New("stealpool: worker not found")

	// ErrLastIndirectWorker is returned by SetWorkerSharingMode when the
	// requested change would leave no worker accepting indirect
	// submissions, which would stall EnqueueToWorker.
	ErrLastIndirectWorker = errors.New("stealpool: last indirect-accepting worker")

	// ErrInvalidConfig wraps configuration validation failures.
	ErrInvalidConfig = errors.New("stealpool: invalid config")

	// ErrTaskPanicked is the sentinel wrapped by PanicError; use errors.Is
	// against it to detect a panicking task behind a future.
	ErrTaskPanicked = errors.New("stealpool: task panicked")
)

// PanicError carries the recovered panic value of a task into the paired
// future. Get returns it as-is; the original value stays available through
// the Value field and the stack captured at recovery time through Stack.
type PanicError struct {
	// Value is the value passed to panic.
	Value any

	// Stack is the goroutine stack at the point of recovery.
	Stack []byte
}

// Error formats the panic value.
func (e *PanicError) Error() string {
	return fmt.Sprintf("%v: %v", ErrTaskPanicked, e.Value)
}

// Unwrap makes errors.Is(err, ErrTaskPanicked) work.
func (e *PanicError) Unwrap() error {
	return ErrTaskPanicked
}

// errInvalidConfig wraps a validation failure message under ErrInvalidConfig.
func errInvalidConfig(msg string) error {
	return fmt.Errorf("%w: %s", ErrInvalidConfig, msg)
}
