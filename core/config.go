package core

import (
	"fmt"
	"time"
)

// Tuning defaults. The batch sizes trade steal latency against contention on
// the victim's lock; the idle wait bounds how long a stop signal can go
// unobserved.
const (
	// DefaultIdleWait is how long an idle worker parks before rescanning.
	DefaultIdleWait = time.Millisecond

	// DefaultStealBatch is the most tasks taken from a victim per steal.
	DefaultStealBatch = 8

	// DefaultGlobalPopBatch is the most tasks a global consumer moves from
	// the global queue to its local queue per grab.
	DefaultGlobalPopBatch = 16

	// DefaultHistorySize is the capacity of the execution record ring.
	DefaultHistorySize = 100

	// DefaultWorkerNamePrefix prefixes generated worker debug names.
	DefaultWorkerNamePrefix = "worker"

	// DefaultPoolName labels a pool that was not given a name.
	DefaultPoolName = "stealpool"
)

// Config holds construction options for a ThreadPool. The zero value is
// usable: zero fields are replaced with defaults when the pool initializes.
// All handlers are optional.
type Config struct {
	// Name identifies the pool in log messages, metrics labels, and stats.
	// "" means DefaultPoolName.
	Name string

	// Workers is the number of worker threads. 0 means
	// DefaultWorkerCount(): logical cores minus one, floor 5.
	Workers int

	// IdleWait is the park timeout of a worker that found no work. 0 means
	// DefaultIdleWait.
	IdleWait time.Duration

	// StealBatch is the bulk size of a steal. 0 means DefaultStealBatch.
	StealBatch int

	// GlobalPopBatch is the bulk size of a global-queue grab. 0 means
	// DefaultGlobalPopBatch.
	GlobalPopBatch int

	// PinWorkers pins worker i to logical core (i+1) mod cores at startup.
	// Pinning failures are logged and ignored.
	PinWorkers bool

	// HistorySize is the capacity of the execution record ring. 0 means
	// DefaultHistorySize; negative disables recording.
	HistorySize int

	// WorkerNamePrefix prefixes generated debug names ("worker-0", ...).
	WorkerNamePrefix string

	// Logger receives the pool's leveled messages. Defaults to
	// NewDefaultLogger().
	Logger Logger

	// Metrics receives execution measurements. Defaults to NilMetrics.
	Metrics Metrics

	// PanicHandler is invoked for every panic recovered at the worker
	// boundary. Defaults to DefaultPanicHandler.
	PanicHandler PanicHandler

	// RejectedTaskHandler is invoked when a submission is refused (pool
	// stopping, target worker rejects the kind). Defaults to
	// DefaultRejectedTaskHandler.
	RejectedTaskHandler RejectedTaskHandler
}

// DefaultConfig returns the configuration Initialize would derive from a
// zero Config, with the defaults spelled out.
func DefaultConfig() Config {
	return Config{
		Name:             DefaultPoolName,
		Workers:          DefaultWorkerCount(),
		IdleWait:         DefaultIdleWait,
		StealBatch:       DefaultStealBatch,
		GlobalPopBatch:   DefaultGlobalPopBatch,
		HistorySize:      DefaultHistorySize,
		WorkerNamePrefix: DefaultWorkerNamePrefix,
	}
}

// Validate rejects configurations the pool cannot run with. Zero values are
// legal (they mean "use the default"); negative counts are not, except
// HistorySize where negative disables history.
func (c Config) Validate() error {
	if c.Workers < 0 {
		return errInvalidConfig(fmt.Sprintf("workers must be >= 0, got %d", c.Workers))
	}
	if c.IdleWait < 0 {
		return errInvalidConfig(fmt.Sprintf("idle wait must be >= 0, got %v", c.IdleWait))
	}
	if c.StealBatch < 0 {
		return errInvalidConfig(fmt.Sprintf("steal batch must be >= 0, got %d", c.StealBatch))
	}
	if c.GlobalPopBatch < 0 {
		return errInvalidConfig(fmt.Sprintf("global pop batch must be >= 0, got %d", c.GlobalPopBatch))
	}
	return nil
}

// withDefaults fills zero fields so the pool never branches on "unset".
func (c Config) withDefaults() Config {
	if c.Name == "" {
		c.Name = DefaultPoolName
	}
	if c.Workers == 0 {
		c.Workers = DefaultWorkerCount()
	}
	if c.IdleWait == 0 {
		c.IdleWait = DefaultIdleWait
	}
	if c.StealBatch == 0 {
		c.StealBatch = DefaultStealBatch
	}
	if c.GlobalPopBatch == 0 {
		c.GlobalPopBatch = DefaultGlobalPopBatch
	}
	if c.HistorySize == 0 {
		c.HistorySize = DefaultHistorySize
	}
	if c.WorkerNamePrefix == "" {
		c.WorkerNamePrefix = DefaultWorkerNamePrefix
	}
	if c.Logger == nil {
		c.Logger = NewDefaultLogger()
	}
	if c.Metrics == nil {
		c.Metrics = &NilMetrics{}
	}
	if c.PanicHandler == nil {
		c.PanicHandler = &DefaultPanicHandler{}
	}
	if c.RejectedTaskHandler == nil {
		c.RejectedTaskHandler = &DefaultRejectedTaskHandler{}
	}
	return c
}
