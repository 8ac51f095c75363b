// Package affinity pins the calling OS thread to a logical CPU.
//
// The calling goroutine must be locked to its thread with
// runtime.LockOSThread first, otherwise the scheduler may move it to a
// different thread and the pin is meaningless. Platform-specific
// implementations live in separate files guarded by build tags.
package affinity

import "fmt"

// SetAffinity pins the current OS thread to the given logical CPU. On
// platforms without thread affinity support it returns an error.
func SetAffinity(cpuID int) error {
	if cpuID < 0 {
		return fmt.Errorf("affinity: invalid cpu id %d", cpuID)
	}
	return setAffinityPlatform(cpuID)
}
