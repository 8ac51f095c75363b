// Package stealpool provides a work-stealing thread pool for Go.
//
// The pool runs a fixed set of workers, each locked to an OS thread and
// owning a private task queue. Tasks can be submitted to a load-balanced
// worker, to one specific worker, or to a shared global queue; idle workers
// steal batches of queued tasks from busy peers so a burst submitted to one
// worker spreads across the pool.
//
// # Quick Start
//
// Initialize the global pool at application startup:
//
//	stealpool.InitGlobalPool(stealpool.Config{})
//	defer stealpool.ShutdownGlobalPool()
//
// Submit work and wait for its result:
//
//	future, ok := stealpool.Go(func() (int, error) {
//		return compute(), nil
//	})
//	if ok {
//		value, err := future.Get(context.Background())
//		...
//	}
//
// # Key Concepts
//
// ThreadPool: the execution engine. Each worker scans its own queue first,
// then the global queue, then its peers, and parks briefly when all three
// are empty.
//
// TaskFuture and TaskPromise: every submission returns a future that
// resolves when the task ran. A successful Get moves the value out; a task
// that panicked resolves the future with a *PanicError instead of crashing
// the worker.
//
// WorkerSharingMode: per-worker bitflags controlling whether peers may
// steal from it, whether it accepts direct and load-balanced submissions,
// and whether it consumes the global queue. SetWorkerSharingMode refuses a
// change that would leave no worker accepting load-balanced submissions.
//
// # Pinning
//
// Workers are goroutines locked to OS threads, so they can be pinned to
// logical cores: set Config.PinWorkers for a default layout or call
// SetWorkerAffinity for explicit placement.
//
// # Example
//
//	import (
//		"context"
//
//		"github.com/threadworks/stealpool"
//	)
//
//	func main() {
//		pool := stealpool.NewThreadPool(stealpool.Config{Workers: 4})
//		if err := pool.Initialize(); err != nil {
//			panic(err)
//		}
//		defer pool.Shutdown()
//
//		future, _ := pool.EnqueueToWorker(func() {
//			println("hello from a worker")
//		})
//		future.Wait(context.Background())
//	}
//
// For more details, see https://github.com/threadworks/stealpool
package stealpool
