package apphome

import (
	"fmt"
	"os"
	"path/filepath"
)

// Home is the directory the launcher executable lives in. Every bundled
// file (about text, entry point, .env, launcher.yaml, logs, history) is
// resolved against it, and the application is started with it as the
// working directory. The launcher never calls os.Chdir: callers of the
// original batch script relied on a process-wide directory change, which
// is replaced here by passing Home explicitly.
type Home struct {
	dir string
}

// EnvOverride names the environment variable that overrides the resolved
// directory. Useful when the binary is run from a build cache during
// development.
const EnvOverride = "MEMO_HOME"

// Resolve determines the launcher's home directory from the running
// executable, following symlinks.
func Resolve() (Home, error) {
	if dir := os.Getenv(EnvOverride); dir != "" {
		return FromDir(dir)
	}

	exe, err := os.Executable()
	if err != nil {
		return Home{}, fmt.Errorf("failed to locate executable: %w", err)
	}

	resolved, err := filepath.EvalSymlinks(exe)
	if err != nil {
		// Fall back to the raw path; a dangling symlink still has a directory
		resolved = exe
	}

	return FromDir(filepath.Dir(resolved))
}

// FromDir builds a Home rooted at an explicit directory
func FromDir(dir string) (Home, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return Home{}, fmt.Errorf("failed to resolve home directory %s: %w", dir, err)
	}

	info, err := os.Stat(abs)
	if err != nil {
		return Home{}, fmt.Errorf("home directory %s: %w", abs, err)
	}
	if !info.IsDir() {
		return Home{}, fmt.Errorf("home path %s is not a directory", abs)
	}

	return Home{dir: abs}, nil
}

// Dir returns the home directory
func (h Home) Dir() string {
	return h.dir
}

// Path joins path elements onto the home directory
func (h Home) Path(elem ...string) string {
	return filepath.Join(append([]string{h.dir}, elem...)...)
}

// LogPath returns the default launcher log file location
func (h Home) LogPath() string {
	return h.Path("logs", "launcher.log")
}

// HistoryPath returns the launch history state file location
func (h Home) HistoryPath() string {
	return h.Path("logs", "launch-history.json")
}
