package core

import (
	"fmt"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"
)

// poolState is the pool lifecycle: created -> running -> stopped. The state
// only moves forward; a stopped pool cannot be restarted.
type poolState int32

const (
	poolCreated poolState = iota
	poolRunning
	poolStopped
)

// ThreadPool runs tasks on a fixed set of thread-locked workers with
// work-stealing between them.
//
// Construction and startup are separate steps: NewThreadPool captures the
// configuration, Initialize validates it and starts the workers. Submissions
// from the constructing goroutine may precede Initialize; they accumulate in
// the global queue and run once the workers start. Initialize must not run
// concurrently with submissions from other goroutines. After Initialize
// returns, every method is safe for concurrent use.
//
// All submission methods return ok=false instead of an error when the task
// was not accepted (pool shutting down, target worker refuses the
// submission kind, nil function). Refusals are also reported to the
// configured RejectedTaskHandler and Metrics.
type ThreadPool struct {
	cfg Config

	logger          Logger
	metrics         Metrics
	panicHandler    PanicHandler
	rejectedHandler RejectedTaskHandler

	globalQueue *FIFOTaskQueue
	workers     []*ThreadWorker

	// indirectWorkers counts workers whose mode includes
	// SharingAcceptIndirect. SetWorkerSharingMode keeps it positive so
	// EnqueueToWorker always has somewhere to go.
	indirectWorkers atomic.Int32

	idleWorkers   atomic.Int32
	executedTotal atomic.Uint64
	stolenTotal   atomic.Uint64

	state  atomic.Int32
	stopCh chan struct{}
	wg     sync.WaitGroup

	history *executionHistory

	// lifecycleMu serializes Initialize and Shutdown against each other.
	lifecycleMu sync.Mutex
}

// NewThreadPool creates a pool from cfg with defaults applied. The workers
// do not start until Initialize.
func NewThreadPool(cfg Config) *ThreadPool {
	cfg = cfg.withDefaults()
	return &ThreadPool{
		cfg:             cfg,
		logger:          cfg.Logger,
		metrics:         cfg.Metrics,
		panicHandler:    cfg.PanicHandler,
		rejectedHandler: cfg.RejectedTaskHandler,
		globalQueue:     NewFIFOTaskQueue(),
		stopCh:          make(chan struct{}),
		history:         newExecutionHistory(cfg.HistorySize),
	}
}

// Initialize validates the configuration and starts the workers, all in
// SharingModeShared. It fails with ErrPoolAlreadyRunning on a running pool
// and ErrPoolStopped on a stopped one.
func (p *ThreadPool) Initialize() error {
	p.lifecycleMu.Lock()
	defer p.lifecycleMu.Unlock()

	switch poolState(p.state.Load()) {
	case poolRunning:
		return ErrPoolAlreadyRunning
	case poolStopped:
		return ErrPoolStopped
	}

	if err := p.cfg.Validate(); err != nil {
		return err
	}

	p.workers = make([]*ThreadWorker, p.cfg.Workers)
	for i := range p.workers {
		p.workers[i] = newThreadWorker(p, i, SharingModeShared)
	}
	p.indirectWorkers.Store(int32(len(p.workers)))

	for _, w := range p.workers {
		p.wg.Add(1)
		go w.run()
	}

	p.state.Store(int32(poolRunning))
	p.logger.Info("thread pool started",
		F("pool", p.cfg.Name),
		F("workers", len(p.workers)),
		F("pinned", p.cfg.PinWorkers))
	return nil
}

// Shutdown stops the pool: workers finish their in-flight task, exit, and
// every task still queued afterwards is abandoned so its future resolves
// with ErrBrokenPromise. Shutdown blocks until all workers have exited and
// is idempotent.
func (p *ThreadPool) Shutdown() {
	p.lifecycleMu.Lock()
	defer p.lifecycleMu.Unlock()

	prev := poolState(p.state.Swap(int32(poolStopped)))
	if prev == poolStopped {
		return
	}

	close(p.stopCh)

	if prev == poolRunning {
		for _, w := range p.workers {
			w.notify()
		}
		p.wg.Wait()
	}

	p.abandonQueued()
	p.logger.Info("thread pool stopped",
		F("pool", p.cfg.Name),
		F("executed", p.executedTotal.Load()),
		F("stolen", p.stolenTotal.Load()))
}

// abandonQueued drains every queue and resolves the abandoned tasks'
// promises, so no future holder is left blocked after Shutdown.
func (p *ThreadPool) abandonQueued() {
	abandoned := abandonAll(p.globalQueue.Drain())
	for _, w := range p.workers {
		abandoned += abandonAll(w.queue.Drain())
	}
	if abandoned > 0 {
		p.logger.Warn("abandoned queued tasks at shutdown",
			F("pool", p.cfg.Name),
			F("tasks", abandoned))
	}
}

// abandonAll breaks the promises of drained tasks.
func abandonAll(tasks []Task) int {
	for _, t := range tasks {
		if t.abandon != nil {
			t.abandon()
		}
	}
	return len(tasks)
}

// stopping reports whether Shutdown has begun.
func (p *ThreadPool) stopping() bool {
	return poolState(p.state.Load()) == poolStopped
}

// IsRunning reports whether the workers are up and the pool accepts tasks.
func (p *ThreadPool) IsRunning() bool {
	return poolState(p.state.Load()) == poolRunning
}

// =============================================================================
// Task submission
// =============================================================================

// EnqueueGlobal submits fn to the global overflow queue, where any worker
// whose mode includes SharingGlobalConsumer may pick it up. The returned
// future resolves when fn has run; ok is false when the pool refuses the
// task.
func (p *ThreadPool) EnqueueGlobal(fn func()) (*TaskFuture[Void], bool) {
	if fn == nil {
		p.reject("nil task")
		return nil, false
	}
	future, task := voidTaskPair(fn)
	if !p.submitGlobal(task) {
		return nil, false
	}
	return future, true
}

// EnqueueToWorker submits fn to a load-balanced worker picked among those
// accepting indirect submissions.
func (p *ThreadPool) EnqueueToWorker(fn func()) (*TaskFuture[Void], bool) {
	if fn == nil {
		p.reject("nil task")
		return nil, false
	}
	future, task := voidTaskPair(fn)
	if !p.submitToWorker(task) {
		return nil, false
	}
	return future, true
}

// EnqueueToWorkerByID submits fn to one specific worker's queue. The worker
// must have SharingAcceptDirect in its mode or the submission is refused.
func (p *ThreadPool) EnqueueToWorkerByID(id int, fn func()) (*TaskFuture[Void], bool) {
	if fn == nil {
		p.reject("nil task")
		return nil, false
	}
	w := p.workerByID(id)
	if w == nil {
		p.logger.Error("direct submission to unknown worker",
			F("pool", p.cfg.Name), F("worker", id))
		p.reject("worker not found")
		return nil, false
	}
	future, task := voidTaskPair(fn)
	if !p.submitDirect(w, task) {
		return nil, false
	}
	return future, true
}

// EnqueueToWorkerByName is EnqueueToWorkerByID addressed by debug name.
func (p *ThreadPool) EnqueueToWorkerByName(name string, fn func()) (*TaskFuture[Void], bool) {
	if fn == nil {
		p.reject("nil task")
		return nil, false
	}
	w := p.workerByName(name)
	if w == nil {
		p.logger.Error("direct submission to unknown worker",
			F("pool", p.cfg.Name), F("name", name))
		p.reject("worker not found")
		return nil, false
	}
	future, task := voidTaskPair(fn)
	if !p.submitDirect(w, task) {
		return nil, false
	}
	return future, true
}

// EnqueueGlobalWithResult submits fn to the global queue and returns a
// typed future for its result.
func EnqueueGlobalWithResult[T any](p *ThreadPool, fn func() (T, error)) (*TaskFuture[T], bool) {
	if fn == nil {
		p.reject("nil task")
		return nil, false
	}
	future, task := NewTaskPair(fn)
	if !p.submitGlobal(task) {
		return nil, false
	}
	return future, true
}

// EnqueueToWorkerWithResult submits fn to a load-balanced worker and
// returns a typed future for its result.
func EnqueueToWorkerWithResult[T any](p *ThreadPool, fn func() (T, error)) (*TaskFuture[T], bool) {
	if fn == nil {
		p.reject("nil task")
		return nil, false
	}
	future, task := NewTaskPair(fn)
	if !p.submitToWorker(task) {
		return nil, false
	}
	return future, true
}

// EnqueueToWorkerByIDWithResult submits fn to one specific worker and
// returns a typed future for its result.
func EnqueueToWorkerByIDWithResult[T any](p *ThreadPool, id int, fn func() (T, error)) (*TaskFuture[T], bool) {
	if fn == nil {
		p.reject("nil task")
		return nil, false
	}
	w := p.workerByID(id)
	if w == nil {
		p.logger.Error("direct submission to unknown worker",
			F("pool", p.cfg.Name), F("worker", id))
		p.reject("worker not found")
		return nil, false
	}
	future, task := NewTaskPair(fn)
	if !p.submitDirect(w, task) {
		return nil, false
	}
	return future, true
}

// EnqueueToWorkerByNameWithResult is EnqueueToWorkerByIDWithResult
// addressed by debug name.
func EnqueueToWorkerByNameWithResult[T any](p *ThreadPool, name string, fn func() (T, error)) (*TaskFuture[T], bool) {
	if fn == nil {
		p.reject("nil task")
		return nil, false
	}
	w := p.workerByName(name)
	if w == nil {
		p.logger.Error("direct submission to unknown worker",
			F("pool", p.cfg.Name), F("name", name))
		p.reject("worker not found")
		return nil, false
	}
	future, task := NewTaskPair(fn)
	if !p.submitDirect(w, task) {
		return nil, false
	}
	return future, true
}

// =============================================================================
// Submission internals
// =============================================================================

// submitGlobal pushes a task onto the global overflow queue and wakes the
// workers allowed to consume it.
func (p *ThreadPool) submitGlobal(t Task) bool {
	if p.stopping() {
		p.reject("shutdown")
		return false
	}

	t.enqueuedAt = time.Now()
	p.globalQueue.Push(t)
	p.metrics.RecordQueueDepth(p.cfg.Name, p.globalQueue.Len())
	p.notifyGlobalConsumers()

	// Shutdown may have drained the queue between the check above and the
	// push. Re-drain so the task is abandoned instead of stranded.
	if p.stopping() {
		abandonAll(p.globalQueue.Drain())
	}
	return true
}

// submitToWorker picks a random worker accepting indirect submissions, with
// as many attempts as there are workers. When every attempt misses it falls
// back to the global queue; the last-indirect-worker invariant makes that
// fallback unreachable through the public API, but submissions queued
// before Initialize land there by design.
func (p *ThreadPool) submitToWorker(t Task) bool {
	if p.stopping() {
		p.reject("shutdown")
		return false
	}

	t.enqueuedAt = time.Now()

	for range p.workers {
		w := p.randomWorker()
		if !w.SharingMode().Has(SharingAcceptIndirect) {
			continue
		}
		w.queue.Push(t)
		w.notify()
		if p.stopping() {
			abandonAll(w.queue.Drain())
		}
		return true
	}

	p.logger.Info("no worker accepts indirect submissions, using global queue",
		F("pool", p.cfg.Name))
	p.globalQueue.Push(t)
	p.metrics.RecordQueueDepth(p.cfg.Name, p.globalQueue.Len())
	p.notifyGlobalConsumers()
	if p.stopping() {
		abandonAll(p.globalQueue.Drain())
	}
	return true
}

// submitDirect pushes a task onto one specific worker's queue after
// checking the worker accepts direct submissions.
func (p *ThreadPool) submitDirect(w *ThreadWorker, t Task) bool {
	if p.stopping() {
		p.reject("shutdown")
		return false
	}
	if !w.SharingMode().Has(SharingAcceptDirect) {
		p.logger.Warn("worker rejects direct submissions",
			F("pool", p.cfg.Name),
			F("worker", w.index),
			F("mode", w.SharingMode()))
		p.reject("worker rejects direct")
		return false
	}

	t.enqueuedAt = time.Now()
	w.queue.Push(t)
	w.notify()
	if p.stopping() {
		abandonAll(w.queue.Drain())
		return true
	}

	// A backlog a full steal batch deep on one queue is a hint to wake a
	// second worker; with stealing allowed it drains the backlog from the
	// side.
	if w.queue.Len() >= p.cfg.StealBatch {
		p.nudgeRandomPeer(w)
	}
	return true
}

// notifyGlobalConsumers wakes every worker allowed to pull from the global
// queue.
func (p *ThreadPool) notifyGlobalConsumers() {
	for _, w := range p.workers {
		if w.SharingMode().Has(SharingGlobalConsumer) {
			w.notify()
		}
	}
}

// nudgeRandomPeer wakes one random worker other than w.
func (p *ThreadPool) nudgeRandomPeer(w *ThreadWorker) {
	if len(p.workers) <= 1 {
		return
	}
	for {
		peer := p.randomWorker()
		if peer != w {
			peer.notify()
			return
		}
	}
}

// randomWorker picks a worker with uniform probability. Callers must ensure
// the pool has workers.
func (p *ThreadPool) randomWorker() *ThreadWorker {
	return p.workers[rand.Intn(len(p.workers))]
}

func (p *ThreadPool) workerByID(id int) *ThreadWorker {
	if id < 0 || id >= len(p.workers) {
		return nil
	}
	return p.workers[id]
}

func (p *ThreadPool) workerByName(name string) *ThreadWorker {
	for _, w := range p.workers {
		if w.debugName == name {
			return w
		}
	}
	return nil
}

// reject reports a refused submission to the handler and metrics.
func (p *ThreadPool) reject(reason string) {
	p.rejectedHandler.HandleRejectedTask(p.cfg.Name, reason)
	p.metrics.RecordTaskRejected(p.cfg.Name, reason)
}

// =============================================================================
// Worker management
// =============================================================================

// SetWorkerSharingMode replaces worker id's sharing mode. The change is
// refused with ErrLastIndirectWorker when it would leave no worker
// accepting indirect submissions, because EnqueueToWorker could then never
// place a task.
func (p *ThreadPool) SetWorkerSharingMode(id int, mode WorkerSharingMode) error {
	if p.stopping() {
		return ErrPoolStopped
	}
	w := p.workerByID(id)
	if w == nil {
		return fmt.Errorf("%w: id %d", ErrWorkerNotFound, id)
	}

	accepts := w.SharingMode().Has(SharingAcceptIndirect)
	willAccept := mode.Has(SharingAcceptIndirect)

	switch {
	case accepts && !willAccept:
		// Losing an indirect worker: take it out of the count first, and
		// compensate if that emptied the pool. The counter dips to zero
		// only inside this window and is corrected before returning.
		if p.indirectWorkers.Add(-1) == 0 {
			p.indirectWorkers.Add(1)
			p.logger.Warn("refused sharing mode change, no worker would accept indirect submissions",
				F("pool", p.cfg.Name),
				F("worker", id),
				F("mode", mode))
			return fmt.Errorf("%w: worker %d", ErrLastIndirectWorker, id)
		}
	case !accepts && willAccept:
		p.indirectWorkers.Add(1)
	}

	w.setSharingMode(mode)
	p.logger.Debug("worker sharing mode changed",
		F("pool", p.cfg.Name),
		F("worker", id),
		F("mode", mode))
	return nil
}

// SetWorkerAffinity pins worker id's thread to a logical core. The request
// is serviced by the worker itself, because affinity syscalls bind the
// calling thread and only the worker runs on its locked thread. The call
// blocks until the worker applied the change or the pool stops.
func (p *ThreadPool) SetWorkerAffinity(id, coreID int) error {
	if p.stopping() {
		return ErrPoolStopped
	}
	w := p.workerByID(id)
	if w == nil {
		return fmt.Errorf("%w: id %d", ErrWorkerNotFound, id)
	}

	req := workerControl{coreID: coreID, reply: make(chan error, 1)}
	select {
	case w.ctrlCh <- req:
	case <-p.stopCh:
		return ErrPoolStopped
	}

	select {
	case err := <-req.reply:
		return err
	case <-p.stopCh:
		return ErrPoolStopped
	}
}

// Worker returns the worker at index id for inspection.
func (p *ThreadPool) Worker(id int) (*ThreadWorker, error) {
	w := p.workerByID(id)
	if w == nil {
		return nil, fmt.Errorf("%w: id %d", ErrWorkerNotFound, id)
	}
	return w, nil
}

// =============================================================================
// Observability
// =============================================================================

// Name returns the pool's display name.
func (p *ThreadPool) Name() string {
	return p.cfg.Name
}

// WorkersCount returns the number of workers.
func (p *ThreadPool) WorkersCount() int {
	return len(p.workers)
}

// IdleWorkersCount returns the number of workers currently parked waiting
// for work.
func (p *ThreadPool) IdleWorkersCount() int {
	return int(p.idleWorkers.Load())
}

// BusyWorkersCount returns the number of workers currently executing or
// scanning for work.
func (p *ThreadPool) BusyWorkersCount() int {
	return len(p.workers) - p.IdleWorkersCount()
}

// QueuedTasks returns the total number of tasks waiting in the global queue
// and all worker queues.
func (p *ThreadPool) QueuedTasks() int {
	total := p.globalQueue.Len()
	for _, w := range p.workers {
		total += w.queue.Len()
	}
	return total
}

// Stats returns a point-in-time snapshot of the pool. The counters come
// from independent atomics, so fields are individually accurate but not a
// consistent cut.
func (p *ThreadPool) Stats() PoolStats {
	local := 0
	for _, w := range p.workers {
		local += w.queue.Len()
	}
	idle := p.IdleWorkersCount()
	return PoolStats{
		Name:         p.cfg.Name,
		Workers:      len(p.workers),
		Busy:         len(p.workers) - idle,
		Idle:         idle,
		GlobalQueued: p.globalQueue.Len(),
		LocalQueued:  local,
		Executed:     p.executedTotal.Load(),
		Stolen:       p.stolenTotal.Load(),
		Running:      p.IsRunning(),
	}
}

// WorkerStats returns the snapshot of one worker.
func (p *ThreadPool) WorkerStats(id int) (WorkerStats, error) {
	w := p.workerByID(id)
	if w == nil {
		return WorkerStats{}, fmt.Errorf("%w: id %d", ErrWorkerNotFound, id)
	}
	return w.Stats(), nil
}

// AllWorkerStats returns the snapshot of every worker, ordered by index.
func (p *ThreadPool) AllWorkerStats() []WorkerStats {
	stats := make([]WorkerStats, len(p.workers))
	for i, w := range p.workers {
		stats[i] = w.Stats()
	}
	return stats
}

// RecentExecutions returns up to limit execution records, newest first.
// limit <= 0 returns everything retained.
func (p *ThreadPool) RecentExecutions(limit int) []TaskExecutionRecord {
	return p.history.Recent(limit)
}
