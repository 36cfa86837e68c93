//go:build !windows

package privilege

import (
	"errors"
	"os"
)

// Probes returns the single euid probe available outside Windows.
func Probes() []ProbeResult {
	return []ProbeResult{
		{Name: "euid", Elevated: os.Geteuid() == 0},
	}
}

// CanElevate reports whether the process already has root rights. There
// is no UAC-style on-demand elevation outside Windows.
func CanElevate() bool {
	return os.Geteuid() == 0
}

// RelaunchElevated is a Windows-only operation.
func RelaunchElevated(args []string) error {
	return errors.New("elevated relaunch is only supported on Windows")
}
