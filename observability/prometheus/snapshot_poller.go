package prometheus

import (
	"context"
	"strconv"
	"sync"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"

	"github.com/threadworks/stealpool/core"
)

// PoolSnapshotProvider provides the stats snapshots the poller exports.
// *core.ThreadPool satisfies it.
type PoolSnapshotProvider interface {
	Stats() core.PoolStats
	AllWorkerStats() []core.WorkerStats
}

// SnapshotPoller periodically exports pool and worker Stats() snapshots
// into Prometheus gauges. It complements MetricsExporter: the exporter
// records events as they happen, the poller samples state that only exists
// as a point-in-time reading (queue depths, idle counts).
type SnapshotPoller struct {
	interval time.Duration

	poolsMu sync.RWMutex
	pools   map[string]PoolSnapshotProvider

	poolWorkers      *prom.GaugeVec
	poolBusy         *prom.GaugeVec
	poolIdle         *prom.GaugeVec
	poolQueuedGlobal *prom.GaugeVec
	poolQueuedLocal  *prom.GaugeVec
	poolExecuted     *prom.GaugeVec
	poolStolen       *prom.GaugeVec
	poolRunning      *prom.GaugeVec

	workerQueueDepth *prom.GaugeVec
	workerExecuted   *prom.GaugeVec
	workerStolen     *prom.GaugeVec

	stateMu sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewSnapshotPoller creates a snapshot poller and registers its collectors.
func NewSnapshotPoller(reg prom.Registerer, interval time.Duration) (*SnapshotPoller, error) {
	if reg == nil {
		reg = prom.DefaultRegisterer
	}
	if interval <= 0 {
		interval = time.Second
	}

	poolWorkers := prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: "stealpool",
		Name:      "pool_workers",
		Help:      "Worker count per pool.",
	}, []string{"pool"})
	poolBusy := prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: "stealpool",
		Name:      "pool_busy_workers",
		Help:      "Workers executing or scanning for work.",
	}, []string{"pool"})
	poolIdle := prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: "stealpool",
		Name:      "pool_idle_workers",
		Help:      "Workers parked waiting for work.",
	}, []string{"pool"})
	poolQueuedGlobal := prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: "stealpool",
		Name:      "pool_queued_global",
		Help:      "Tasks waiting in the global overflow queue.",
	}, []string{"pool"})
	poolQueuedLocal := prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: "stealpool",
		Name:      "pool_queued_local",
		Help:      "Tasks waiting across all worker queues.",
	}, []string{"pool"})
	poolExecuted := prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: "stealpool",
		Name:      "pool_executed_total",
		Help:      "Executed task count snapshot.",
	}, []string{"pool"})
	poolStolen := prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: "stealpool",
		Name:      "pool_stolen_total",
		Help:      "Stolen task count snapshot.",
	}, []string{"pool"})
	poolRunning := prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: "stealpool",
		Name:      "pool_running",
		Help:      "Pool running state (1=running, 0=stopped).",
	}, []string{"pool"})

	workerQueueDepth := prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: "stealpool",
		Name:      "worker_queue_depth",
		Help:      "Queued tasks per worker.",
	}, []string{"pool", "worker"})
	workerExecuted := prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: "stealpool",
		Name:      "worker_executed_total",
		Help:      "Executed task count snapshot per worker.",
	}, []string{"pool", "worker"})
	workerStolen := prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: "stealpool",
		Name:      "worker_stolen_total",
		Help:      "Stolen task count snapshot per worker.",
	}, []string{"pool", "worker"})

	var err error
	if poolWorkers, err = registerCollector(reg, poolWorkers); err != nil {
		return nil, err
	}
	if poolBusy, err = registerCollector(reg, poolBusy); err != nil {
		return nil, err
	}
	if poolIdle, err = registerCollector(reg, poolIdle); err != nil {
		return nil, err
	}
	if poolQueuedGlobal, err = registerCollector(reg, poolQueuedGlobal); err != nil {
		return nil, err
	}
	if poolQueuedLocal, err = registerCollector(reg, poolQueuedLocal); err != nil {
		return nil, err
	}
	if poolExecuted, err = registerCollector(reg, poolExecuted); err != nil {
		return nil, err
	}
	if poolStolen, err = registerCollector(reg, poolStolen); err != nil {
		return nil, err
	}
	if poolRunning, err = registerCollector(reg, poolRunning); err != nil {
		return nil, err
	}
	if workerQueueDepth, err = registerCollector(reg, workerQueueDepth); err != nil {
		return nil, err
	}
	if workerExecuted, err = registerCollector(reg, workerExecuted); err != nil {
		return nil, err
	}
	if workerStolen, err = registerCollector(reg, workerStolen); err != nil {
		return nil, err
	}

	return &SnapshotPoller{
		interval:         interval,
		pools:            make(map[string]PoolSnapshotProvider),
		poolWorkers:      poolWorkers,
		poolBusy:         poolBusy,
		poolIdle:         poolIdle,
		poolQueuedGlobal: poolQueuedGlobal,
		poolQueuedLocal:  poolQueuedLocal,
		poolExecuted:     poolExecuted,
		poolStolen:       poolStolen,
		poolRunning:      poolRunning,
		workerQueueDepth: workerQueueDepth,
		workerExecuted:   workerExecuted,
		workerStolen:     workerStolen,
	}, nil
}

// AddPool adds or replaces a pool snapshot provider by name.
func (p *SnapshotPoller) AddPool(name string, provider PoolSnapshotProvider) {
	if p == nil || provider == nil {
		return
	}
	name = normalizeLabel(name, "pool")
	p.poolsMu.Lock()
	p.pools[name] = provider
	p.poolsMu.Unlock()
}

// Start begins periodic polling; repeated calls are no-ops.
func (p *SnapshotPoller) Start(ctx context.Context) {
	if p == nil {
		return
	}

	p.stateMu.Lock()
	if p.running {
		p.stateMu.Unlock()
		return
	}
	pollCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.done = make(chan struct{})
	p.running = true
	p.stateMu.Unlock()

	go p.loop(pollCtx)
}

// Stop stops periodic polling; repeated calls are safe.
func (p *SnapshotPoller) Stop() {
	if p == nil {
		return
	}

	p.stateMu.Lock()
	if !p.running {
		p.stateMu.Unlock()
		return
	}
	cancel := p.cancel
	done := p.done
	p.stateMu.Unlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}

	p.stateMu.Lock()
	p.running = false
	p.cancel = nil
	p.done = nil
	p.stateMu.Unlock()
}

func (p *SnapshotPoller) loop(ctx context.Context) {
	defer close(p.done)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.collectOnce()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.collectOnce()
		}
	}
}

func (p *SnapshotPoller) collectOnce() {
	p.poolsMu.RLock()
	defer p.poolsMu.RUnlock()

	for name, provider := range p.pools {
		stats := provider.Stats()
		p.poolWorkers.WithLabelValues(name).Set(float64(stats.Workers))
		p.poolBusy.WithLabelValues(name).Set(float64(stats.Busy))
		p.poolIdle.WithLabelValues(name).Set(float64(stats.Idle))
		p.poolQueuedGlobal.WithLabelValues(name).Set(float64(stats.GlobalQueued))
		p.poolQueuedLocal.WithLabelValues(name).Set(float64(stats.LocalQueued))
		p.poolExecuted.WithLabelValues(name).Set(float64(stats.Executed))
		p.poolStolen.WithLabelValues(name).Set(float64(stats.Stolen))
		if stats.Running {
			p.poolRunning.WithLabelValues(name).Set(1)
		} else {
			p.poolRunning.WithLabelValues(name).Set(0)
		}

		for _, ws := range provider.AllWorkerStats() {
			worker := strconv.Itoa(ws.Index)
			p.workerQueueDepth.WithLabelValues(name, worker).Set(float64(ws.QueueDepth))
			p.workerExecuted.WithLabelValues(name, worker).Set(float64(ws.Executed))
			p.workerStolen.WithLabelValues(name, worker).Set(float64(ws.Stolen))
		}
	}
}
