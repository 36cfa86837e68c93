package conda

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// PythonVersion runs the interpreter with --version and parses the
// result. Output lands on stdout for modern interpreters and stderr for
// ancient ones, so both are captured.
func PythonVersion(ctx context.Context, interpreter string) (*semver.Version, error) {
	cmd := exec.CommandContext(ctx, interpreter, "--version")
	out, err := cmd.CombinedOutput()
	if err != nil {
		return nil, fmt.Errorf("failed to run %s --version: %w", interpreter, err)
	}
	return ParsePythonVersion(string(out))
}

// ParsePythonVersion extracts a version from `python --version` output,
// e.g. "Python 3.10.13".
func ParsePythonVersion(out string) (*semver.Version, error) {
	fields := strings.Fields(strings.TrimSpace(out))
	if len(fields) < 2 || !strings.EqualFold(fields[0], "python") {
		return nil, fmt.Errorf("unrecognized interpreter version output %q", strings.TrimSpace(out))
	}

	// Strip pre-release suffixes like 3.13.0rc1 down to the release triple
	raw := fields[1]
	if i := strings.IndexFunc(raw, func(r rune) bool {
		return (r < '0' || r > '9') && r != '.'
	}); i > 0 {
		raw = raw[:i]
	}

	v, err := semver.NewVersion(raw)
	if err != nil {
		return nil, fmt.Errorf("unparseable interpreter version %q: %w", fields[1], err)
	}
	return v, nil
}

// CheckMinimum verifies a version against the configured floor.
func CheckMinimum(v *semver.Version, min string) error {
	if min == "" {
		return nil
	}
	floor, err := semver.NewVersion(min)
	if err != nil {
		return fmt.Errorf("invalid minimum version %q: %w", min, err)
	}
	if v.LessThan(floor) {
		return fmt.Errorf("python %s is below the required minimum %s", v, floor)
	}
	return nil
}
