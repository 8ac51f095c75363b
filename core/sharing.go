package core

import "strings"

// WorkerSharingMode is a bitset controlling how a worker's queue interacts
// with the rest of the pool. Modes are read on every scheduling decision, so
// workers store them in an atomic and the flag checks are cheap bit tests.
type WorkerSharingMode uint32

const (
	// SharingAllowSteal lets peers steal batches from this worker's queue.
	SharingAllowSteal WorkerSharingMode = 1 << iota

	// SharingAcceptDirect lets callers target this worker by index or name.
	SharingAcceptDirect

	// SharingAcceptIndirect makes this worker eligible for load-balanced
	// submission. The pool keeps at least one worker with this flag set.
	SharingAcceptIndirect

	// SharingGlobalConsumer lets this worker pull from the global overflow
	// queue.
	SharingGlobalConsumer
)

// Preset combinations covering the common configurations.
const (
	// SharingModeShared is the default: fully cooperative worker.
	SharingModeShared = SharingAllowSteal | SharingAcceptDirect | SharingAcceptIndirect | SharingGlobalConsumer

	// SharingModeExclusive isolates a worker completely; only work already
	// in its queue runs there. Useful for latency-sensitive direct feeds
	// once combined with SharingAcceptDirect by the caller.
	SharingModeExclusive WorkerSharingMode = 0

	// SharingModeSharedNoSteal participates in every submission path but
	// keeps its queue private from stealing peers.
	SharingModeSharedNoSteal = SharingAcceptDirect | SharingAcceptIndirect | SharingGlobalConsumer
)

// Has reports whether all bits of flag are set.
func (m WorkerSharingMode) Has(flag WorkerSharingMode) bool {
	return m&flag == flag
}

// String renders the set flags for logs and debug output.
func (m WorkerSharingMode) String() string {
	if m == 0 {
		return "exclusive"
	}
	parts := make([]string, 0, 4)
	if m.Has(SharingAllowSteal) {
		parts = append(parts, "allow_steal")
	}
	if m.Has(SharingAcceptDirect) {
		parts = append(parts, "accept_direct")
	}
	if m.Has(SharingAcceptIndirect) {
		parts = append(parts, "accept_indirect")
	}
	if m.Has(SharingGlobalConsumer) {
		parts = append(parts, "global_consumer")
	}
	return strings.Join(parts, "|")
}
