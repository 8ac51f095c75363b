package core

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"sync/atomic"
	"time"

	"github.com/threadworks/stealpool/affinity"
)

// workerControl carries a request that must run on the worker's own thread.
// Affinity syscalls bind the calling thread, so the pool cannot apply them
// on a worker's behalf.
type workerControl struct {
	coreID int
	reply  chan error
}

// ThreadWorker is one pool worker: a goroutine locked to its OS thread with
// a private task queue. The locked thread is what makes per-worker affinity
// and direct submission meaningful; without it the runtime could migrate
// the goroutine between threads at any preemption point.
//
// A worker looks for work in fixed order: its own queue, then the global
// overflow queue (if its mode allows), then its peers' queues (stealing).
// When all three come up empty it parks until notified or until IdleWait
// elapses.
type ThreadWorker struct {
	index     int
	debugName string
	pool      *ThreadPool

	queue   *FIFOTaskQueue
	sharing atomic.Uint32

	// notifyCh wakes a parked worker. Capacity 1 with non-blocking sends:
	// a wakeup is a level, not a count.
	notifyCh chan struct{}
	ctrlCh   chan workerControl

	executed atomic.Uint64
	stolen   atomic.Uint64

	// stealNext rotates the victim scan start so concurrent stealers fan
	// out instead of all hammering worker 0. Touched only by the worker's
	// own goroutine.
	stealNext int
}

func newThreadWorker(pool *ThreadPool, index int, mode WorkerSharingMode) *ThreadWorker {
	w := &ThreadWorker{
		index:     index,
		debugName: fmt.Sprintf("%s-%d", pool.cfg.WorkerNamePrefix, index),
		pool:      pool,
		queue:     NewFIFOTaskQueue(),
		notifyCh:  make(chan struct{}, 1),
		ctrlCh:    make(chan workerControl, 4),
	}
	w.sharing.Store(uint32(mode))
	return w
}

// Index returns the worker's position in the pool, usable as the id for
// direct submission and mode changes.
func (w *ThreadWorker) Index() int {
	return w.index
}

// DebugName returns the worker's generated name ("worker-3").
func (w *ThreadWorker) DebugName() string {
	return w.debugName
}

// SharingMode returns the worker's current sharing mode.
func (w *ThreadWorker) SharingMode() WorkerSharingMode {
	return WorkerSharingMode(w.sharing.Load())
}

// QueueDepth reports the number of tasks waiting in the worker's queue.
func (w *ThreadWorker) QueueDepth() int {
	return w.queue.Len()
}

// Stats returns a point-in-time snapshot of the worker.
func (w *ThreadWorker) Stats() WorkerStats {
	return WorkerStats{
		Index:       w.index,
		DebugName:   w.debugName,
		SharingMode: w.SharingMode(),
		QueueDepth:  w.queue.Len(),
		Executed:    w.executed.Load(),
		Stolen:      w.stolen.Load(),
	}
}

func (w *ThreadWorker) setSharingMode(mode WorkerSharingMode) {
	w.sharing.Store(uint32(mode))
}

// notify wakes the worker if it is parked. Never blocks; a worker that is
// already awake or already signaled needs nothing more.
func (w *ThreadWorker) notify() {
	select {
	case w.notifyCh <- struct{}{}:
	default:
	}
}

// =============================================================================
// Worker loop
// =============================================================================

// run is the worker goroutine body.
func (w *ThreadWorker) run() {
	defer w.pool.wg.Done()

	runtime.LockOSThread()

	if w.pool.cfg.PinWorkers {
		// Core 0 is left for the submitting thread; worker i takes core
		// i+1, wrapping on small machines.
		w.pin((w.index + 1) % LogicalCores())
	}

	idleTimer := time.NewTimer(w.pool.cfg.IdleWait)
	defer idleTimer.Stop()

	for !w.pool.stopping() {
		w.serviceControl()

		if task, source, ok := w.nextTask(); ok {
			w.runTask(task, source)
			continue
		}

		w.idleWait(idleTimer)
	}

	w.failPendingControl()
}

// nextTask scans the tiers in priority order: own queue, global queue,
// peers.
func (w *ThreadWorker) nextTask() (Task, TaskSource, bool) {
	if t, ok := w.queue.TryPop(); ok {
		return t, SourceLocal, true
	}
	if t, ok := w.tryPopGlobal(); ok {
		return t, SourceGlobal, true
	}
	if t, ok := w.trySteal(); ok {
		return t, SourceStolen, true
	}
	return Task{}, "", false
}

// tryPopGlobal grabs a batch from the global queue, keeps the first task,
// and moves the rest into the local queue. Moving the surplus locally means
// peers then contend with this worker through stealing rather than everyone
// contending on the global queue's lock.
func (w *ThreadWorker) tryPopGlobal() (Task, bool) {
	if !w.SharingMode().Has(SharingGlobalConsumer) {
		return Task{}, false
	}

	batch := w.pool.globalQueue.PopUpTo(w.pool.cfg.GlobalPopBatch)
	if len(batch) == 0 {
		return Task{}, false
	}

	for _, t := range batch[1:] {
		w.queue.Push(t)
	}
	return batch[0], true
}

// trySteal scans peers starting at a rotating offset and takes a batch from
// the first victim that allows stealing and has queued work. The first
// stolen task is returned for immediate execution, the rest land in the
// local queue.
func (w *ThreadWorker) trySteal() (Task, bool) {
	p := w.pool
	n := len(p.workers)
	if n <= 1 {
		return Task{}, false
	}

	start := w.stealNext
	w.stealNext = (w.stealNext + 1) % n

	for i := 0; i < n; i++ {
		victim := p.workers[(start+i)%n]
		if victim == w || !victim.SharingMode().Has(SharingAllowSteal) {
			continue
		}

		batch := victim.queue.PopUpTo(p.cfg.StealBatch)
		if len(batch) == 0 {
			continue
		}

		for _, t := range batch[1:] {
			w.queue.Push(t)
		}

		w.stolen.Add(uint64(len(batch)))
		p.stolenTotal.Add(uint64(len(batch)))
		p.metrics.RecordTasksStolen(p.cfg.Name, len(batch))
		return batch[0], true
	}

	return Task{}, false
}

// idleWait parks the worker until a notify, a control request, the stop
// signal, or the idle timeout. The timeout bounds how long a stop or an
// unnotified push can go unobserved.
func (w *ThreadWorker) idleWait(timer *time.Timer) {
	p := w.pool
	p.idleWorkers.Add(1)
	timer.Reset(p.cfg.IdleWait)

	select {
	case <-w.notifyCh:
		timer.Stop()
	case msg := <-w.ctrlCh:
		timer.Stop()
		w.handleControl(msg)
	case <-p.stopCh:
		timer.Stop()
	case <-timer.C:
	}

	p.idleWorkers.Add(-1)
}

// runTask executes one task inside the panic boundary. A panic is logged,
// counted, reported to the handler, forwarded into the paired future as a
// *PanicError, and never reaches the worker loop.
func (w *ThreadWorker) runTask(t Task, source TaskSource) {
	p := w.pool

	start := time.Now()
	var queueWait time.Duration
	if !t.enqueuedAt.IsZero() {
		queueWait = start.Sub(t.enqueuedAt)
	}

	panicked := false
	func() {
		defer func() {
			if r := recover(); r != nil {
				panicked = true
				stack := debug.Stack()
				p.logger.Error("task panicked",
					F("pool", p.cfg.Name),
					F("worker", w.index),
					F("task", t.Name()),
					F("panic", r))
				p.metrics.RecordTaskPanic(p.cfg.Name, w.index)
				p.panicHandler.HandlePanic(p.cfg.Name, w.index, r, stack)
				if t.fail != nil {
					t.fail(&PanicError{Value: r, Stack: stack})
				}
			}
		}()
		t.run()
	}()

	duration := time.Since(start)
	w.executed.Add(1)
	p.executedTotal.Add(1)
	p.metrics.RecordTaskDuration(p.cfg.Name, source, duration)
	p.history.Add(TaskExecutionRecord{
		TaskName:   t.Name(),
		Worker:     w.index,
		Source:     source,
		StartedAt:  start,
		FinishedAt: start.Add(duration),
		QueueWait:  queueWait,
		Duration:   duration,
		Panicked:   panicked,
	})
}

// =============================================================================
// Control requests
// =============================================================================

// serviceControl drains pending control requests without blocking.
func (w *ThreadWorker) serviceControl() {
	for {
		select {
		case msg := <-w.ctrlCh:
			w.handleControl(msg)
		default:
			return
		}
	}
}

// handleControl applies one control request on the worker's own thread.
func (w *ThreadWorker) handleControl(msg workerControl) {
	err := affinity.SetAffinity(msg.coreID)
	if err != nil {
		w.pool.logger.Warn("could not set worker affinity",
			F("pool", w.pool.cfg.Name),
			F("worker", w.index),
			F("core", msg.coreID),
			F("error", err))
	}
	msg.reply <- err
}

// failPendingControl releases callers whose requests arrived after the
// worker loop exited.
func (w *ThreadWorker) failPendingControl() {
	for {
		select {
		case msg := <-w.ctrlCh:
			msg.reply <- ErrPoolStopped
		default:
			return
		}
	}
}

// pin binds the worker's locked thread to a logical core at startup. A
// failed pin leaves the worker unpinned but functional, so it is logged and
// ignored.
func (w *ThreadWorker) pin(coreID int) {
	if err := affinity.SetAffinity(coreID); err != nil {
		w.pool.logger.Warn("could not pin worker to core",
			F("pool", w.pool.cfg.Name),
			F("worker", w.index),
			F("core", coreID),
			F("error", err))
	}
}
