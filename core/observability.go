package core

import "time"

// TaskSource labels which tier a worker took a task from. It feeds metrics
// and execution records.
type TaskSource string

const (
	// SourceLocal means the worker popped its own queue.
	SourceLocal TaskSource = "local"

	// SourceGlobal means the task came from the global overflow queue.
	SourceGlobal TaskSource = "global"

	// SourceStolen means the task was stolen from a peer's queue.
	SourceStolen TaskSource = "stolen"
)

// TaskExecutionRecord captures one completed task execution. QueueWait is
// the time between submission and the start of execution.
type TaskExecutionRecord struct {
	TaskName   string
	Worker     int
	Source     TaskSource
	StartedAt  time.Time
	FinishedAt time.Time
	QueueWait  time.Duration
	Duration   time.Duration
	Panicked   bool
}

// WorkerStats is a point-in-time snapshot of one worker.
type WorkerStats struct {
	Index       int
	DebugName   string
	SharingMode WorkerSharingMode
	QueueDepth  int
	Executed    uint64
	Stolen      uint64
}

// PoolStats is a point-in-time snapshot of the whole pool. Counters are
// gathered from independent atomics, so the fields are individually accurate
// but not a consistent cut.
type PoolStats struct {
	Name         string
	Workers      int
	Busy         int
	Idle         int
	GlobalQueued int
	LocalQueued  int
	Executed     uint64
	Stolen       uint64
	Running      bool
}
