package prometheus

import (
	"context"
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/threadworks/stealpool/core"
)

type poolStub struct {
	stats   core.PoolStats
	workers []core.WorkerStats
}

func (s poolStub) Stats() core.PoolStats              { return s.stats }
func (s poolStub) AllWorkerStats() []core.WorkerStats { return s.workers }

func TestSnapshotPoller_CollectsPoolAndWorkerStats(t *testing.T) {
	reg := prom.NewRegistry()
	poller, err := NewSnapshotPoller(reg, 10*time.Millisecond)
	if err != nil {
		t.Fatalf("NewSnapshotPoller failed: %v", err)
	}

	poller.AddPool("pool-a", poolStub{
		stats: core.PoolStats{
			Workers:      4,
			Busy:         1,
			Idle:         3,
			GlobalQueued: 5,
			LocalQueued:  2,
			Executed:     10,
			Stolen:       3,
			Running:      true,
		},
		workers: []core.WorkerStats{
			{Index: 0, QueueDepth: 2, Executed: 7, Stolen: 3},
			{Index: 1, QueueDepth: 0, Executed: 3, Stolen: 0},
		},
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	poller.Start(ctx)
	defer poller.Stop()

	assertEventually(t, 2*time.Second, func() bool {
		busy := testutil.ToFloat64(poller.poolBusy.WithLabelValues("pool-a"))
		depth := testutil.ToFloat64(poller.workerQueueDepth.WithLabelValues("pool-a", "0"))
		return busy == 1 && depth == 2
	})

	if got := testutil.ToFloat64(poller.poolRunning.WithLabelValues("pool-a")); got != 1 {
		t.Fatalf("pool running gauge = %v, want 1", got)
	}
	if got := testutil.ToFloat64(poller.poolStolen.WithLabelValues("pool-a")); got != 3 {
		t.Fatalf("pool stolen gauge = %v, want 3", got)
	}
	if got := testutil.ToFloat64(poller.workerExecuted.WithLabelValues("pool-a", "0")); got != 7 {
		t.Fatalf("worker executed gauge = %v, want 7", got)
	}
	if got := testutil.ToFloat64(poller.poolQueuedGlobal.WithLabelValues("pool-a")); got != 5 {
		t.Fatalf("global queued gauge = %v, want 5", got)
	}
}

func TestSnapshotPoller_StartStop_Idempotent(t *testing.T) {
	reg := prom.NewRegistry()
	poller, err := NewSnapshotPoller(reg, 20*time.Millisecond)
	if err != nil {
		t.Fatalf("NewSnapshotPoller failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	poller.Start(ctx)
	poller.Start(ctx)
	poller.Stop()
	poller.Stop()
}

func assertEventually(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met within timeout")
}
