package stealpool

import (
	"sync"

	"github.com/threadworks/stealpool/core"
)

// =============================================================================
// Global Thread Pool Helper (Singleton)
// =============================================================================

var (
	globalPool *core.ThreadPool
	globalMu   sync.Mutex
)

// InitGlobalPool initializes and starts the global thread pool. A second
// call on an initialized pool is a no-op returning nil; the configuration
// of the first call wins.
func InitGlobalPool(cfg Config) error {
	globalMu.Lock()
	defer globalMu.Unlock()

	if globalPool != nil {
		return nil // Already initialized
	}

	pool := core.NewThreadPool(cfg)
	if err := pool.Initialize(); err != nil {
		return err
	}
	globalPool = pool
	return nil
}

// GetGlobalPool returns the global thread pool instance.
// It panics if InitGlobalPool has not been called.
func GetGlobalPool() *core.ThreadPool {
	globalMu.Lock()
	defer globalMu.Unlock()

	if globalPool == nil {
		panic("stealpool: global pool not initialized. Call InitGlobalPool() first.")
	}
	return globalPool
}

// ShutdownGlobalPool stops the global thread pool and forgets it, so a
// later InitGlobalPool starts fresh.
func ShutdownGlobalPool() {
	globalMu.Lock()
	defer globalMu.Unlock()

	if globalPool != nil {
		globalPool.Shutdown()
		globalPool = nil
	}
}

// Submit runs fn on the global pool through load-balanced submission. This
// is the recommended entry point for fire-and-forget work.
func Submit(fn func()) (*TaskFuture[Void], bool) {
	return GetGlobalPool().EnqueueToWorker(fn)
}

// Go runs fn on the global pool and returns a typed future for its result.
func Go[T any](fn func() (T, error)) (*TaskFuture[T], bool) {
	return core.EnqueueToWorkerWithResult(GetGlobalPool(), fn)
}
