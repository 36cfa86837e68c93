//go:build windows

package privilege

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"golang.org/x/sys/windows"
)

// Probes returns every privilege probe in the order Check consults them.
// The check is defined as attempting admin-only operations, so those
// probes decide first; the token query is the fallback for systems where
// neither operation can run, and backs CanElevate for diagnostics.
func Probes() []ProbeResult {
	return []ProbeResult{
		netSessionProbe(),
		rawDiskProbe(),
		tokenProbe(),
	}
}

// tokenProbe asks the process token whether it is elevated.
func tokenProbe() ProbeResult {
	return ProbeResult{
		Name:     "token",
		Elevated: windows.GetCurrentProcessToken().IsElevated(),
	}
}

// netSessionProbe runs `net session`, an operation Windows only permits
// for administrators. Exit 0 means elevated, a denial exit means not
// elevated, anything else is inconclusive.
func netSessionProbe() ProbeResult {
	res := ProbeResult{Name: "net-session"}

	cmd := exec.Command("net", "session")
	cmd.Stdout = io.Discard
	cmd.Stderr = io.Discard

	err := cmd.Run()
	if err == nil {
		res.Elevated = true
		return res
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		// The command ran and was denied
		return res
	}

	res.Err = fmt.Errorf("net session probe could not run: %w", err)
	return res
}

// rawDiskProbe attempts to open the first physical drive, which requires
// administrator rights.
func rawDiskProbe() ProbeResult {
	res := ProbeResult{Name: "raw-disk"}

	h, err := os.OpenFile(`\\.\PHYSICALDRIVE0`, os.O_RDONLY, 0)
	if err == nil {
		h.Close()
		res.Elevated = true
		return res
	}

	if os.IsPermission(err) {
		return res
	}

	res.Err = fmt.Errorf("raw disk probe inconclusive: %w", err)
	return res
}

// CanElevate reports whether the current account could obtain
// administrator rights through UAC, i.e. the token is already elevated or
// carries a linked elevated token.
func CanElevate() bool {
	token := windows.GetCurrentProcessToken()
	if token.IsElevated() {
		return true
	}

	linked, err := token.GetLinkedToken()
	if err != nil {
		return false
	}
	defer linked.Close()

	return linked.IsElevated()
}

// RelaunchElevated asks UAC to start a fresh copy of the launcher with
// administrator rights, from the launcher's own directory. It returns
// once the request is submitted; the caller is expected to exit and let
// the elevated copy take over.
func RelaunchElevated(args []string) error {
	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("cannot locate own executable: %w", err)
	}

	cmd := exec.Command("powershell", elevationArgs(exe, filepath.Dir(exe), args)...)
	cmd.Stdout = io.Discard
	cmd.Stderr = io.Discard

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("elevation request failed: %w", err)
	}
	return nil
}

// elevationArgs builds the powershell Start-Process invocation. The
// elevated copy always starts in dir, the launcher's own directory.
func elevationArgs(exe, dir string, args []string) []string {
	psArgs := []string{
		"-NoProfile", "-Command", "Start-Process",
		"-FilePath", psQuote(exe),
		"-WorkingDirectory", psQuote(dir),
		"-Verb", "RunAs",
	}
	if len(args) > 0 {
		quoted := make([]string, len(args))
		for i, a := range args {
			quoted[i] = psQuote(a)
		}
		psArgs = append(psArgs, "-ArgumentList", strings.Join(quoted, ","))
	}
	return psArgs
}

// psQuote wraps s in PowerShell single quotes, doubling embedded quotes.
func psQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
