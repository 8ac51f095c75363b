//go:build linux

package affinity

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// cpuSetBits mirrors the kernel's CPU_SETSIZE. unix.CPUSet cannot address
// cores beyond it.
const cpuSetBits = 1024

// setAffinityPlatform pins the calling thread via sched_setaffinity(2).
// Pid 0 addresses the calling thread.
func setAffinityPlatform(cpuID int) error {
	if cpuID >= cpuSetBits {
		return fmt.Errorf("affinity: cpu id %d out of range", cpuID)
	}
	var set unix.CPUSet
	set.Zero()
	set.Set(cpuID)
	if err := unix.SchedSetaffinity(0, &set); err != nil {
		return fmt.Errorf("affinity: sched_setaffinity(%d): %w", cpuID, err)
	}
	return nil
}
