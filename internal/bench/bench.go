// Package bench drives configurable task load through a pool and measures
// completion time, throughput, and steal activity. It backs the stealbench
// command.
package bench

import (
	"context"
	"fmt"
	"time"

	"github.com/threadworks/stealpool/core"
)

// Submission selects which pool entry point the benchmark uses.
type Submission string

const (
	// SubmissionWorker load-balances every task across workers.
	SubmissionWorker Submission = "worker"
	// SubmissionGlobal pushes every task through the global queue.
	SubmissionGlobal Submission = "global"
	// SubmissionDirect piles every task onto worker 0's private queue,
	// the worst-case skew that stealing exists to fix.
	SubmissionDirect Submission = "direct"
)

func (s Submission) valid() bool {
	switch s {
	case SubmissionWorker, SubmissionGlobal, SubmissionDirect:
		return true
	}
	return false
}

// Options configures one benchmark run.
type Options struct {
	Label        string        // row label; derived from the steal setting when empty
	PoolName     string        // pool name for logs and metrics
	Workers      int           // 0 means DefaultWorkerCount
	Tasks        int           // number of tasks to submit
	TaskWork     time.Duration // busy-spin per task; 0 measures pure overhead
	Submission   Submission    // entry point; empty means SubmissionWorker
	DisableSteal bool          // run every worker in shared-no-steal mode
	PinWorkers   bool          // pin workers to cores before measuring
	Logger       core.Logger   // nil means silent
}

func (o *Options) withDefaults() {
	if o.PoolName == "" {
		o.PoolName = "stealbench"
	}
	if o.Submission == "" {
		o.Submission = SubmissionWorker
	}
	if o.Logger == nil {
		o.Logger = core.NewNoOpLogger()
	}
	if o.Label == "" {
		if o.DisableSteal {
			o.Label = "steal-off"
		} else {
			o.Label = "steal-on"
		}
	}
}

// Result is the measured outcome of one run.
type Result struct {
	Label         string
	Workers       int
	Tasks         int
	TaskWork      time.Duration
	Submission    Submission
	StealDisabled bool
	Elapsed       time.Duration
	Throughput    float64 // tasks per second
	Stolen        uint64
	PerWorker     []core.WorkerStats
}

func spin(d time.Duration) {
	if d <= 0 {
		return
	}
	start := time.Now()
	for time.Since(start) < d {
	}
}

// Run executes one benchmark: build a pool, submit the load, wait for every
// future, and snapshot the counters. The pool is always shut down before
// returning.
func Run(ctx context.Context, opts Options) (Result, error) {
	opts.withDefaults()
	if opts.Tasks <= 0 {
		return Result{}, fmt.Errorf("bench: tasks must be positive, got %d", opts.Tasks)
	}
	if !opts.Submission.valid() {
		return Result{}, fmt.Errorf("bench: unknown submission mode %q", opts.Submission)
	}

	pool := core.NewThreadPool(core.Config{
		Name:             opts.PoolName,
		Workers:          opts.Workers,
		WorkerNamePrefix: opts.PoolName,
		PinWorkers:       opts.PinWorkers,
		Logger:           opts.Logger,
	})
	if err := pool.Initialize(); err != nil {
		return Result{}, fmt.Errorf("bench: pool init: %w", err)
	}
	defer pool.Shutdown()

	if opts.DisableSteal {
		for i := 0; i < pool.WorkersCount(); i++ {
			if err := pool.SetWorkerSharingMode(i, core.SharingModeSharedNoSteal); err != nil {
				return Result{}, fmt.Errorf("bench: disabling steal on worker %d: %w", i, err)
			}
		}
	}

	work := opts.TaskWork
	task := func() { spin(work) }

	futures := make([]*core.TaskFuture[core.Void], 0, opts.Tasks)
	start := time.Now()
	for i := 0; i < opts.Tasks; i++ {
		var (
			future *core.TaskFuture[core.Void]
			ok     bool
		)
		switch opts.Submission {
		case SubmissionGlobal:
			future, ok = pool.EnqueueGlobal(task)
		case SubmissionDirect:
			future, ok = pool.EnqueueToWorkerByID(0, task)
		default:
			future, ok = pool.EnqueueToWorker(task)
		}
		if !ok {
			return Result{}, fmt.Errorf("bench: submission #%d rejected", i)
		}
		futures = append(futures, future)
	}

	for _, future := range futures {
		if err := future.Wait(ctx); err != nil {
			return Result{}, fmt.Errorf("bench: waiting for completion: %w", err)
		}
	}
	elapsed := time.Since(start)

	// Execution counters land just after each promise resolves; give the
	// last increments a bounded moment to settle.
	settle := time.Now().Add(500 * time.Millisecond)
	for pool.Stats().Executed < uint64(opts.Tasks) && time.Now().Before(settle) {
		time.Sleep(time.Millisecond)
	}

	stats := pool.Stats()
	return Result{
		Label:         opts.Label,
		Workers:       pool.WorkersCount(),
		Tasks:         opts.Tasks,
		TaskWork:      opts.TaskWork,
		Submission:    opts.Submission,
		StealDisabled: opts.DisableSteal,
		Elapsed:       elapsed,
		Throughput:    float64(opts.Tasks) / elapsed.Seconds(),
		Stolen:        stats.Stolen,
		PerWorker:     pool.AllWorkerStats(),
	}, nil
}

// CompareStealing runs the same load twice, stealing enabled then disabled,
// and returns both results in that order.
func CompareStealing(ctx context.Context, opts Options) ([]Result, error) {
	on := opts
	on.DisableSteal = false
	on.Label = "steal-on"
	off := opts
	off.DisableSteal = true
	off.Label = "steal-off"

	first, err := Run(ctx, on)
	if err != nil {
		return nil, err
	}
	second, err := Run(ctx, off)
	if err != nil {
		return nil, err
	}
	return []Result{first, second}, nil
}
