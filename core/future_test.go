package core

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// TestTaskPromise_OnlyFirstSatisfactionWins verifies single satisfaction
// Given: a promise
// When: SetValue succeeds and further SetValue/SetError calls follow
// Then: the later calls fail with ErrPromiseAlreadySatisfied and the stored
// value is unchanged
func TestTaskPromise_OnlyFirstSatisfactionWins(t *testing.T) {
	// Arrange
	promise := NewTaskPromise[int]()
	future, err := promise.Future()
	if err != nil {
		t.Fatalf("Future failed: %v", err)
	}

	// Act
	if err := promise.SetValue(42); err != nil {
		t.Fatalf("first SetValue failed: %v", err)
	}

	// Assert - later satisfactions are refused
	if err := promise.SetValue(99); !errors.Is(err, ErrPromiseAlreadySatisfied) {
		t.Errorf("second SetValue error = %v, want ErrPromiseAlreadySatisfied", err)
	}
	if err := promise.SetError(errors.New("late")); !errors.Is(err, ErrPromiseAlreadySatisfied) {
		t.Errorf("late SetError error = %v, want ErrPromiseAlreadySatisfied", err)
	}

	got, err := future.Get(context.Background())
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got != 42 {
		t.Errorf("Get = %d, want 42", got)
	}
}

// TestTaskPromise_FutureRetrievedOnce verifies single future retrieval
// Given: a promise whose future was already retrieved
// When: Future is called again
// Then: it fails with ErrFutureAlreadyRetrieved
func TestTaskPromise_FutureRetrievedOnce(t *testing.T) {
	promise := NewTaskPromise[string]()

	if _, err := promise.Future(); err != nil {
		t.Fatalf("first Future failed: %v", err)
	}

	if _, err := promise.Future(); !errors.Is(err, ErrFutureAlreadyRetrieved) {
		t.Errorf("second Future error = %v, want ErrFutureAlreadyRetrieved", err)
	}
}

// TestTaskFuture_GetConsumesValue verifies value move-out semantics
// Given: a future resolved with a value
// When: Get is called twice
// Then: the first call returns the value, the second fails with
// ErrFutureAlreadyConsumed
func TestTaskFuture_GetConsumesValue(t *testing.T) {
	// Arrange
	promise := NewTaskPromise[string]()
	future, _ := promise.Future()
	promise.SetValue("result")

	// Act
	first, err := future.Get(context.Background())

	// Assert
	if err != nil {
		t.Fatalf("first Get failed: %v", err)
	}
	if first != "result" {
		t.Errorf("first Get = %q, want %q", first, "result")
	}
	if future.Status() != StatusConsumed {
		t.Errorf("status after Get = %v, want consumed", future.Status())
	}

	if _, err := future.Get(context.Background()); !errors.Is(err, ErrFutureAlreadyConsumed) {
		t.Errorf("second Get error = %v, want ErrFutureAlreadyConsumed", err)
	}
}

// TestTaskFuture_ErrorResultRepeats verifies error results are durable
// Given: a future resolved with an error
// When: Get is called repeatedly
// Then: every call returns the same error and the status stays error
func TestTaskFuture_ErrorResultRepeats(t *testing.T) {
	promise := NewTaskPromise[int]()
	future, _ := promise.Future()

	failure := errors.New("task failed")
	promise.SetError(failure)

	for i := 0; i < 3; i++ {
		if _, err := future.Get(context.Background()); !errors.Is(err, failure) {
			t.Fatalf("Get #%d error = %v, want %v", i, err, failure)
		}
	}
	if future.Status() != StatusError {
		t.Errorf("status = %v, want error", future.Status())
	}
}

// TestTaskPromise_AbandonReleasesWaiter verifies broken promise delivery
// Given: a goroutine blocked in Get on a pending future
// When: the promise is abandoned
// Then: the waiter is released with ErrBrokenPromise
func TestTaskPromise_AbandonReleasesWaiter(t *testing.T) {
	// Arrange
	promise := NewTaskPromise[int]()
	future, _ := promise.Future()

	errCh := make(chan error, 1)
	go func() {
		_, err := future.Get(context.Background())
		errCh <- err
	}()

	// Give the waiter time to block.
	time.Sleep(20 * time.Millisecond)

	// Act
	promise.Abandon()

	// Assert
	select {
	case err := <-errCh:
		if !errors.Is(err, ErrBrokenPromise) {
			t.Errorf("Get error = %v, want ErrBrokenPromise", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("waiter was not released after Abandon")
	}
}

// TestTaskPromise_AbandonAfterSatisfactionIsNoOp verifies abandon ordering
// Given: a promise already satisfied with a value
// When: Abandon is called
// Then: the future still delivers the value
func TestTaskPromise_AbandonAfterSatisfactionIsNoOp(t *testing.T) {
	promise := NewTaskPromise[int]()
	future, _ := promise.Future()

	promise.SetValue(7)
	promise.Abandon()

	got, err := future.Get(context.Background())
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got != 7 {
		t.Errorf("Get = %d, want 7", got)
	}
}

// TestTaskFuture_ZeroValueHandles verifies zero-value behavior
// Given: zero-value future and promise handles
// When: their operations are invoked
// Then: they report no state instead of panicking
func TestTaskFuture_ZeroValueHandles(t *testing.T) {
	var future TaskFuture[int]
	var promise TaskPromise[int]

	if future.Valid() {
		t.Error("zero future reports Valid() = true, want false")
	}
	if _, err := future.Get(context.Background()); !errors.Is(err, ErrNoState) {
		t.Errorf("zero future Get error = %v, want ErrNoState", err)
	}
	if err := future.Wait(context.Background()); !errors.Is(err, ErrNoState) {
		t.Errorf("zero future Wait error = %v, want ErrNoState", err)
	}
	if future.WaitFor(10 * time.Millisecond) {
		t.Error("zero future WaitFor = true, want false")
	}
	if err := promise.SetValue(1); !errors.Is(err, ErrNoState) {
		t.Errorf("zero promise SetValue error = %v, want ErrNoState", err)
	}
	if _, err := promise.Future(); !errors.Is(err, ErrNoState) {
		t.Errorf("zero promise Future error = %v, want ErrNoState", err)
	}
}

// TestTaskFuture_TimedWaits verifies WaitFor and WaitUntil
// Given: a pending future
// When: timed waits expire before and after resolution
// Then: they report false while pending and true once resolved
func TestTaskFuture_TimedWaits(t *testing.T) {
	promise := NewTaskPromise[int]()
	future, _ := promise.Future()

	if future.WaitFor(20 * time.Millisecond) {
		t.Error("WaitFor on pending future = true, want false")
	}
	if future.WaitUntil(time.Now().Add(20 * time.Millisecond)) {
		t.Error("WaitUntil on pending future = true, want false")
	}

	promise.SetValue(1)

	if !future.WaitFor(time.Second) {
		t.Error("WaitFor after SetValue = false, want true")
	}
	if !future.WaitUntil(time.Now().Add(time.Second)) {
		t.Error("WaitUntil after SetValue = false, want true")
	}
}

// TestTaskFuture_GetHonorsContext verifies context cancellation
// Given: a goroutine blocked in Get with a cancelable context
// When: the context is canceled and the promise resolves afterwards
// Then: the blocked Get returns the context error and a later Get still
// delivers the value
func TestTaskFuture_GetHonorsContext(t *testing.T) {
	// Arrange
	promise := NewTaskPromise[int]()
	future, _ := promise.Future()

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		_, err := future.Get(ctx)
		errCh <- err
	}()
	time.Sleep(20 * time.Millisecond)

	// Act
	cancel()

	// Assert - canceled wait does not consume anything
	select {
	case err := <-errCh:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("Get error = %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Get did not observe cancellation")
	}

	promise.SetValue(5)
	got, err := future.Get(context.Background())
	if err != nil {
		t.Fatalf("Get after cancellation failed: %v", err)
	}
	if got != 5 {
		t.Errorf("Get = %d, want 5", got)
	}
}

// TestTaskFuture_ConcurrentGetSingleWinner verifies racing consumers
// Given: many goroutines calling Get on the same future
// When: the promise resolves with a value
// Then: exactly one Get receives the value, the rest observe
// ErrFutureAlreadyConsumed
func TestTaskFuture_ConcurrentGetSingleWinner(t *testing.T) {
	// Arrange
	promise := NewTaskPromise[int]()
	future, _ := promise.Future()

	const waiters = 8
	var winners atomic.Int32
	var consumed atomic.Int32
	var wg sync.WaitGroup

	for i := 0; i < waiters; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := future.Get(context.Background())
			switch {
			case err == nil:
				winners.Add(1)
			case errors.Is(err, ErrFutureAlreadyConsumed):
				consumed.Add(1)
			default:
				t.Errorf("unexpected Get error: %v", err)
			}
		}()
	}

	// Act
	time.Sleep(10 * time.Millisecond)
	promise.SetValue(1)
	wg.Wait()

	// Assert
	if got := winners.Load(); got != 1 {
		t.Errorf("winners = %d, want 1", got)
	}
	if got := consumed.Load(); got != waiters-1 {
		t.Errorf("consumed losers = %d, want %d", got, waiters-1)
	}
}

// TestFutureStatus_String verifies status rendering
func TestFutureStatus_String(t *testing.T) {
	cases := []struct {
		status FutureStatus
		want   string
	}{
		{StatusPending, "pending"},
		{StatusReady, "ready"},
		{StatusError, "error"},
		{StatusConsumed, "consumed"},
		{FutureStatus(99), "unknown"},
	}
	for _, c := range cases {
		if got := c.status.String(); got != c.want {
			t.Errorf("String(%d) = %q, want %q", int32(c.status), got, c.want)
		}
	}
}
