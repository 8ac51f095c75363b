//go:build !linux && !windows

package affinity

import "errors"

// setAffinityPlatform reports that thread affinity is unavailable here.
func setAffinityPlatform(cpuID int) error {
	return errors.New("affinity: not supported on this platform")
}
