package stealpool

import "github.com/threadworks/stealpool/core"

// Re-export commonly used types from the core package for convenience.
// This allows users to import only the stealpool package for most use cases.

// Config holds construction options for a ThreadPool.
type Config = core.Config

// ThreadPool runs tasks on thread-locked workers with work-stealing.
type ThreadPool = core.ThreadPool

// ThreadWorker is one pool worker.
type ThreadWorker = core.ThreadWorker

// Task is the unit of deferred work.
type Task = core.Task

// WorkerSharingMode controls how a worker's queue interacts with the pool.
type WorkerSharingMode = core.WorkerSharingMode

// TaskFuture is the consumer end of a task's result.
type TaskFuture[T any] = core.TaskFuture[T]

// TaskPromise is the producer end of a task's result.
type TaskPromise[T any] = core.TaskPromise[T]

// FutureStatus is the lifecycle state of a future's shared state.
type FutureStatus = core.FutureStatus

// Void is the result type of tasks that produce no value.
type Void = core.Void

// TaskSource labels which queue tier a task was taken from.
type TaskSource = core.TaskSource

// PoolStats is a point-in-time snapshot of a pool.
type PoolStats = core.PoolStats

// WorkerStats is a point-in-time snapshot of one worker.
type WorkerStats = core.WorkerStats

// TaskExecutionRecord captures one completed task execution.
type TaskExecutionRecord = core.TaskExecutionRecord

// PanicError carries a recovered task panic into the paired future.
type PanicError = core.PanicError

// Logger is the leveled logging interface the pool writes to.
type Logger = core.Logger

// Field is one structured logging key/value pair.
type Field = core.Field

// Metrics receives execution measurements.
type Metrics = core.Metrics

// PanicHandler is called for every panic recovered at the worker boundary.
type PanicHandler = core.PanicHandler

// RejectedTaskHandler is called when a submission is refused.
type RejectedTaskHandler = core.RejectedTaskHandler

// Sharing mode flags and presets.
const (
	SharingAllowSteal     = core.SharingAllowSteal
	SharingAcceptDirect   = core.SharingAcceptDirect
	SharingAcceptIndirect = core.SharingAcceptIndirect
	SharingGlobalConsumer = core.SharingGlobalConsumer

	SharingModeShared        = core.SharingModeShared
	SharingModeExclusive     = core.SharingModeExclusive
	SharingModeSharedNoSteal = core.SharingModeSharedNoSteal
)

// Future status values.
const (
	StatusPending  = core.StatusPending
	StatusReady    = core.StatusReady
	StatusError    = core.StatusError
	StatusConsumed = core.StatusConsumed
)

// Task source labels.
const (
	SourceLocal  = core.SourceLocal
	SourceGlobal = core.SourceGlobal
	SourceStolen = core.SourceStolen
)

// Errors surfaced by the pool and the future/promise primitives. Match with
// errors.Is.
var (
	ErrNoState                 = core.ErrNoState
	ErrPromiseAlreadySatisfied = core.ErrPromiseAlreadySatisfied
	ErrFutureAlreadyRetrieved  = core.ErrFutureAlreadyRetrieved
	ErrBrokenPromise           = core.ErrBrokenPromise
	ErrFutureAlreadyConsumed   = core.ErrFutureAlreadyConsumed
	ErrPoolStopped             = core.ErrPoolStopped
	ErrPoolAlreadyRunning      = core.ErrPoolAlreadyRunning
	ErrWorkerNotFound          = core.ErrWorkerNotFound
	ErrLastIndirectWorker      = core.ErrLastIndirectWorker
	ErrInvalidConfig           = core.ErrInvalidConfig
	ErrTaskPanicked            = core.ErrTaskPanicked
)

// Constructors and helpers.
var (
	NewThreadPool      = core.NewThreadPool
	DefaultConfig      = core.DefaultConfig
	DefaultWorkerCount = core.DefaultWorkerCount
	LogicalCores       = core.LogicalCores
	NewDefaultLogger   = core.NewDefaultLogger
	NewNoOpLogger      = core.NewNoOpLogger
	F                  = core.F
)
