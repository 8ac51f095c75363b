package core

import "runtime"

// minWorkers is the floor on the default worker count. Small machines still
// get enough workers to make stealing and the sharing modes meaningful.
const minWorkers = 5

// LogicalCores reports the number of logical CPUs usable by the process.
// The pool treats this as an opaque input; swap in a different provider by
// setting Config.Workers explicitly.
func LogicalCores() int {
	return runtime.NumCPU()
}

// DefaultWorkerCount derives the worker count from the logical core count,
// reserving one core for the submitting thread, with a floor of minWorkers.
func DefaultWorkerCount() int {
	return max(LogicalCores()-1, minWorkers)
}
