package core

import (
	"fmt"
	"time"
)

// =============================================================================
// PanicHandler: Interface for handling task panics
// =============================================================================

// PanicHandler is called when a task panics during execution. The worker has
// already recovered, logged, and forwarded the panic into the paired future
// by the time the handler runs; the handler exists for crash reporting and
// alerting strategies.
//
// Implementations must be safe for concurrent calls from multiple workers.
type PanicHandler interface {
	// HandlePanic receives the pool name, the index of the worker that ran
	// the task, the recovered panic value, and the stack captured at
	// recovery time.
	HandlePanic(poolName string, workerIndex int, panicValue any, stack []byte)
}

// DefaultPanicHandler prints panic information to stdout.
type DefaultPanicHandler struct{}

// HandlePanic prints the panic and its stack.
func (h *DefaultPanicHandler) HandlePanic(poolName string, workerIndex int, panicValue any, stack []byte) {
	fmt.Printf("[%s worker %d] panic: %v\nstack:\n%s", poolName, workerIndex, panicValue, stack)
}

// =============================================================================
// Metrics: Interface for observability and monitoring
// =============================================================================

// Metrics receives execution measurements from the pool and its workers.
// Implementations can forward them to monitoring systems (Prometheus,
// StatsD, etc.).
//
// Methods are called on the worker hot path and must be fast and
// non-blocking.
type Metrics interface {
	// RecordTaskDuration records one task execution, labeled by the queue
	// tier the worker took the task from.
	RecordTaskDuration(poolName string, source TaskSource, duration time.Duration)

	// RecordTaskPanic records a panic recovered at the worker boundary.
	RecordTaskPanic(poolName string, workerIndex int)

	// RecordTasksStolen records a successful steal of count tasks.
	RecordTasksStolen(poolName string, count int)

	// RecordQueueDepth records the global queue depth after a push.
	RecordQueueDepth(poolName string, depth int)

	// RecordTaskRejected records a refused submission.
	RecordTaskRejected(poolName string, reason string)
}

// NilMetrics is the no-op Metrics used when none is configured.
type NilMetrics struct{}

// RecordTaskDuration is a no-op.
func (m *NilMetrics) RecordTaskDuration(poolName string, source TaskSource, duration time.Duration) {
}

// RecordTaskPanic is a no-op.
func (m *NilMetrics) RecordTaskPanic(poolName string, workerIndex int) {}

// RecordTasksStolen is a no-op.
func (m *NilMetrics) RecordTasksStolen(poolName string, count int) {}

// RecordQueueDepth is a no-op.
func (m *NilMetrics) RecordQueueDepth(poolName string, depth int) {}

// RecordTaskRejected is a no-op.
func (m *NilMetrics) RecordTaskRejected(poolName string, reason string) {}

// =============================================================================
// RejectedTaskHandler: Interface for handling rejected submissions
// =============================================================================

// RejectedTaskHandler is called when a submission is refused and no future
// is returned. This happens when:
// - The pool is shutting down
// - A direct submission targets a worker without SharingAcceptDirect
// - The worker index or debug name matches nothing
//
// Implementations must be safe for concurrent calls.
type RejectedTaskHandler interface {
	// HandleRejectedTask receives the pool name and the refusal reason
	// (e.g. "shutdown", "worker rejects direct").
	HandleRejectedTask(poolName string, reason string)
}

// DefaultRejectedTaskHandler logs refused submissions to stdout.
type DefaultRejectedTaskHandler struct{}

// HandleRejectedTask logs the refusal.
func (h *DefaultRejectedTaskHandler) HandleRejectedTask(poolName string, reason string) {
	fmt.Printf("[%s] task rejected: %s\n", poolName, reason)
}
