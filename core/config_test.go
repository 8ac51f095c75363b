package core

import (
	"errors"
	"testing"
	"time"
)

// TestConfig_Validate verifies validation boundaries
// Given: configurations with zero, positive, and negative fields
// When: Validate is called
// Then: zeros and positives pass, negative counts fail with ErrInvalidConfig
func TestConfig_Validate(t *testing.T) {
	if err := (Config{}).Validate(); err != nil {
		t.Errorf("zero config Validate = %v, want nil", err)
	}
	if err := DefaultConfig().Validate(); err != nil {
		t.Errorf("DefaultConfig Validate = %v, want nil", err)
	}
	// Negative HistorySize is legal: it disables recording.
	if err := (Config{HistorySize: -1}).Validate(); err != nil {
		t.Errorf("Validate with HistorySize -1 = %v, want nil", err)
	}

	invalid := []Config{
		{Workers: -1},
		{IdleWait: -time.Millisecond},
		{StealBatch: -8},
		{GlobalPopBatch: -16},
	}
	for i, cfg := range invalid {
		if err := cfg.Validate(); !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("Validate #%d = %v, want ErrInvalidConfig", i, err)
		}
	}
}

// TestConfig_WithDefaults verifies zero-field replacement
// Given: a zero config
// When: withDefaults is applied
// Then: every field holds its documented default and set fields survive
func TestConfig_WithDefaults(t *testing.T) {
	cfg := Config{}.withDefaults()

	if cfg.Name != DefaultPoolName {
		t.Errorf("Name = %q, want %q", cfg.Name, DefaultPoolName)
	}
	if cfg.Workers != DefaultWorkerCount() {
		t.Errorf("Workers = %d, want %d", cfg.Workers, DefaultWorkerCount())
	}
	if cfg.IdleWait != DefaultIdleWait {
		t.Errorf("IdleWait = %v, want %v", cfg.IdleWait, DefaultIdleWait)
	}
	if cfg.StealBatch != DefaultStealBatch {
		t.Errorf("StealBatch = %d, want %d", cfg.StealBatch, DefaultStealBatch)
	}
	if cfg.GlobalPopBatch != DefaultGlobalPopBatch {
		t.Errorf("GlobalPopBatch = %d, want %d", cfg.GlobalPopBatch, DefaultGlobalPopBatch)
	}
	if cfg.HistorySize != DefaultHistorySize {
		t.Errorf("HistorySize = %d, want %d", cfg.HistorySize, DefaultHistorySize)
	}
	if cfg.WorkerNamePrefix != DefaultWorkerNamePrefix {
		t.Errorf("WorkerNamePrefix = %q, want %q", cfg.WorkerNamePrefix, DefaultWorkerNamePrefix)
	}
	if cfg.Logger == nil || cfg.Metrics == nil || cfg.PanicHandler == nil || cfg.RejectedTaskHandler == nil {
		t.Error("withDefaults left a nil collaborator")
	}

	custom := Config{Name: "etl", Workers: 3, HistorySize: -1}.withDefaults()
	if custom.Name != "etl" || custom.Workers != 3 {
		t.Errorf("withDefaults overwrote set fields: name %q workers %d", custom.Name, custom.Workers)
	}
	if custom.HistorySize != -1 {
		t.Errorf("HistorySize = %d, want -1 preserved", custom.HistorySize)
	}
}

// TestDefaultWorkerCount verifies the core-derived default
func TestDefaultWorkerCount(t *testing.T) {
	cores := LogicalCores()
	if cores <= 0 {
		t.Fatalf("LogicalCores = %d, want > 0", cores)
	}

	want := cores - 1
	if want < minWorkers {
		want = minWorkers
	}
	if got := DefaultWorkerCount(); got != want {
		t.Errorf("DefaultWorkerCount = %d, want %d", got, want)
	}
}
