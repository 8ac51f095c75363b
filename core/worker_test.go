package core

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func spinFor(d time.Duration) {
	start := time.Now()
	for time.Since(start) < d {
	}
}

type panicRecorder struct {
	mu     sync.Mutex
	pool   string
	worker int
	value  any
	calls  int
}

func (p *panicRecorder) HandlePanic(poolName string, workerIndex int, recovered any, stack []byte) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pool = poolName
	p.worker = workerIndex
	p.value = recovered
	p.calls++
}

func (p *panicRecorder) snapshot() (string, int, any, int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pool, p.worker, p.value, p.calls
}

// TestWorker_PanicContainment verifies panic isolation
// Given: a pool with a recording panic handler
// When: a task panics on worker 0
// Then: the future resolves with a PanicError, the handler sees the worker
// and recovered value, and the worker keeps executing tasks afterwards
func TestWorker_PanicContainment(t *testing.T) {
	// Arrange
	panics := &panicRecorder{}
	pool := NewThreadPool(Config{
		Name:         "panics",
		Workers:      2,
		Logger:       NewNoOpLogger(),
		PanicHandler: panics,
	})
	if err := pool.Initialize(); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	t.Cleanup(pool.Shutdown)

	// Keep worker 0's queue unstealable so the panic is pinned to it.
	if err := pool.SetWorkerSharingMode(0, SharingModeSharedNoSteal); err != nil {
		t.Fatalf("SetWorkerSharingMode failed: %v", err)
	}

	// Act
	future, ok := EnqueueToWorkerByIDWithResult(pool, 0, func() (int, error) {
		panic("kaboom")
	})
	if !ok {
		t.Fatal("panicking task rejected")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, err := future.Get(ctx)

	// Assert - the error carries the panic
	if !errors.Is(err, ErrTaskPanicked) {
		t.Fatalf("Get = %v, want ErrTaskPanicked", err)
	}
	var panicErr *PanicError
	if !errors.As(err, &panicErr) {
		t.Fatalf("Get error %T does not unwrap to *PanicError", err)
	}
	if panicErr.Value != "kaboom" {
		t.Errorf("PanicError value = %v, want kaboom", panicErr.Value)
	}
	if len(panicErr.Stack) == 0 {
		t.Error("PanicError stack is empty")
	}

	// Assert - the handler was told exactly once
	poolName, worker, value, calls := panics.snapshot()
	if calls != 1 {
		t.Errorf("handler calls = %d, want 1", calls)
	}
	if poolName != "panics" || worker != 0 || value != "kaboom" {
		t.Errorf("handler saw (%q, %d, %v), want (panics, 0, kaboom)", poolName, worker, value)
	}

	// Assert - the worker survived
	after, ok := pool.EnqueueToWorkerByID(0, func() {})
	if !ok {
		t.Fatal("submission after panic rejected")
	}
	if _, err := after.Get(ctx); err != nil {
		t.Fatalf("task after panic failed: %v", err)
	}

	// Assert - history marks the record
	waitUntil(t, 2*time.Second, func() bool {
		for _, rec := range pool.RecentExecutions(0) {
			if rec.Panicked {
				return true
			}
		}
		return false
	})
}

// TestWorker_StealingRedistributesBacklog verifies the steal path
// Given: a 4-worker pool with every task pushed directly to worker 0
// When: the backlog drains
// Then: idle peers stole part of it and every task ran exactly once
func TestWorker_StealingRedistributesBacklog(t *testing.T) {
	// Arrange
	pool := newTestPool(t, 4)
	const tasks = 300

	// Act - pile work on one worker
	futures := make([]*TaskFuture[Void], 0, tasks)
	for i := 0; i < tasks; i++ {
		future, ok := pool.EnqueueToWorkerByID(0, func() {
			spinFor(20 * time.Microsecond)
		})
		if !ok {
			t.Fatalf("submission #%d rejected", i)
		}
		futures = append(futures, future)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	for i, future := range futures {
		if err := future.Wait(ctx); err != nil {
			t.Fatalf("future #%d Wait failed: %v", i, err)
		}
	}

	waitUntil(t, 2*time.Second, func() bool { return pool.Stats().Executed == tasks })

	// Assert - peers shared the load
	stats := pool.Stats()
	if stats.Stolen == 0 {
		t.Error("stolen = 0, want stealing to occur")
	}
	var stolenSum, executedSum uint64
	for _, ws := range pool.AllWorkerStats() {
		stolenSum += ws.Stolen
		executedSum += ws.Executed
	}
	if stolenSum != stats.Stolen {
		t.Errorf("sum of worker stolen = %d, pool reports %d", stolenSum, stats.Stolen)
	}
	if executedSum != tasks {
		t.Errorf("sum of worker executed = %d, want %d", executedSum, tasks)
	}
}

// TestWorker_NoStealFlagKeepsBacklogLocal verifies steal opt-out
// Given: a 4-worker pool where worker 0 runs in shared-no-steal mode
// When: every task is pushed directly to worker 0 and drains
// Then: nothing is stolen and worker 0 executed all of it
func TestWorker_NoStealFlagKeepsBacklogLocal(t *testing.T) {
	// Arrange
	pool := newTestPool(t, 4)
	if err := pool.SetWorkerSharingMode(0, SharingModeSharedNoSteal); err != nil {
		t.Fatalf("SetWorkerSharingMode failed: %v", err)
	}
	const tasks = 100

	// Act
	futures := make([]*TaskFuture[Void], 0, tasks)
	for i := 0; i < tasks; i++ {
		future, ok := pool.EnqueueToWorkerByID(0, func() {
			spinFor(20 * time.Microsecond)
		})
		if !ok {
			t.Fatalf("submission #%d rejected", i)
		}
		futures = append(futures, future)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	for _, future := range futures {
		if err := future.Wait(ctx); err != nil {
			t.Fatalf("Wait failed: %v", err)
		}
	}

	// Assert
	if got := pool.Stats().Stolen; got != 0 {
		t.Errorf("stolen = %d, want 0", got)
	}
	waitUntil(t, 2*time.Second, func() bool {
		ws, err := pool.WorkerStats(0)
		return err == nil && ws.Executed == tasks
	})
}

// TestWorker_GlobalConsumerFlagGatesGlobalQueue verifies consumer opt-out
// Given: a 2-worker pool where only worker 1 consumes the global queue and
// worker 1 refuses stealing
// When: tasks go through the global queue
// Then: worker 1 executes all of them and worker 0 executes none
func TestWorker_GlobalConsumerFlagGatesGlobalQueue(t *testing.T) {
	// Arrange - worker 0 never pulls global work, worker 1 is unstealable
	pool := newTestPool(t, 2)
	if err := pool.SetWorkerSharingMode(0, SharingAllowSteal|SharingAcceptDirect|SharingAcceptIndirect); err != nil {
		t.Fatalf("mode change worker 0 failed: %v", err)
	}
	if err := pool.SetWorkerSharingMode(1, SharingAcceptIndirect|SharingGlobalConsumer); err != nil {
		t.Fatalf("mode change worker 1 failed: %v", err)
	}
	const tasks = 100

	// Act
	futures := make([]*TaskFuture[Void], 0, tasks)
	for i := 0; i < tasks; i++ {
		future, ok := pool.EnqueueGlobal(func() {
			spinFor(5 * time.Microsecond)
		})
		if !ok {
			t.Fatalf("submission #%d rejected", i)
		}
		futures = append(futures, future)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	for _, future := range futures {
		if err := future.Wait(ctx); err != nil {
			t.Fatalf("Wait failed: %v", err)
		}
	}

	// Assert
	waitUntil(t, 2*time.Second, func() bool {
		ws, err := pool.WorkerStats(1)
		return err == nil && ws.Executed == tasks
	})
	ws0, err := pool.WorkerStats(0)
	if err != nil {
		t.Fatalf("WorkerStats failed: %v", err)
	}
	if ws0.Executed != 0 {
		t.Errorf("worker 0 executed = %d, want 0", ws0.Executed)
	}
}

// TestWorker_ErrorResultReachesFuture verifies error propagation end to end
// Given: a running pool
// When: a submitted computation returns an error
// Then: the future reports that error and keeps reporting it
func TestWorker_ErrorResultReachesFuture(t *testing.T) {
	pool := newTestPool(t, 2)
	wantErr := errors.New("payload unavailable")

	future, ok := EnqueueToWorkerWithResult(pool, func() (string, error) {
		return "", wantErr
	})
	if !ok {
		t.Fatal("submission rejected")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for i := 0; i < 2; i++ {
		if _, err := future.Get(ctx); !errors.Is(err, wantErr) {
			t.Fatalf("Get attempt %d = %v, want %v", i, err, wantErr)
		}
	}
}
