// Package conda locates a conda installation and reproduces environment
// activation as explicit values: a fully qualified interpreter path plus
// the variable map `conda activate <name>` would have exported. Nothing
// here shells out to activation scripts or mutates the launcher's own
// environment.
package conda

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
)

// Install is a located conda installation.
type Install struct {
	// Root is the installation prefix, e.g. C:\Users\me\miniconda3
	Root string

	// GOOS overrides runtime.GOOS for path composition. Tests use it to
	// exercise Windows layouts from any host; empty means the real OS.
	GOOS string
}

func (i Install) goos() string {
	if i.GOOS != "" {
		return i.GOOS
	}
	return runtime.GOOS
}

func (i Install) windows() bool {
	return i.goos() == "windows"
}

// join composes a path with the separator of the target OS, so Windows
// layouts stay Windows-shaped even when computed elsewhere.
func (i Install) join(elem ...string) string {
	if i.windows() {
		return strings.Join(elem, `\`)
	}
	return filepath.Join(elem...)
}

func (i Install) listSep() string {
	if i.windows() {
		return ";"
	}
	return ":"
}

// CondaExe returns the conda binary path inside the installation.
func (i Install) CondaExe() string {
	if i.windows() {
		return i.join(i.Root, "Scripts", "conda.exe")
	}
	return i.join(i.Root, "bin", "conda")
}

// PrefixFor computes the prefix directory of a named environment. The
// names "base" and "root" mean the installation itself.
func (i Install) PrefixFor(name string) string {
	if name == "" || name == "base" || name == "root" {
		return i.Root
	}
	return i.join(i.Root, "envs", name)
}

// Interpreter returns the Python executable inside an environment prefix.
func (i Install) Interpreter(prefix string) string {
	if i.windows() {
		return i.join(prefix, "python.exe")
	}
	return i.join(prefix, "bin", "python")
}

// ActivationEnv returns the variables `conda activate` would export for
// the environment at prefix. basePATH is the search path to extend,
// normally the launcher's own PATH.
//
// On Windows activation prepends five directories so DLLs and bundled
// tools resolve: the prefix itself, Library\mingw-w64\bin, Library\usr\bin,
// Library\bin and Scripts. Elsewhere only <prefix>/bin is prepended. The
// installation's condabin stays on the path so `conda` itself keeps
// working inside the app.
func (i Install) ActivationEnv(prefix, name, basePATH string) map[string]string {
	var prepends []string
	if i.windows() {
		prepends = []string{
			prefix,
			i.join(prefix, "Library", "mingw-w64", "bin"),
			i.join(prefix, "Library", "usr", "bin"),
			i.join(prefix, "Library", "bin"),
			i.join(prefix, "Scripts"),
			i.join(i.Root, "condabin"),
		}
	} else {
		prepends = []string{
			i.join(prefix, "bin"),
			i.join(i.Root, "condabin"),
		}
	}

	pathValue := strings.Join(prepends, i.listSep())
	if basePATH != "" {
		pathValue += i.listSep() + basePATH
	}

	return map[string]string{
		"PATH":              pathValue,
		"CONDA_PREFIX":      prefix,
		"CONDA_DEFAULT_ENV": name,
		"CONDA_SHLVL":       "1",
		"CONDA_EXE":         i.CondaExe(),
		"CONDA_PYTHON_EXE":  i.Interpreter(i.Root),
	}
}

// ResolveEnv maps an environment name to its prefix directory, checking
// that the environment actually exists. Environments registered outside
// the envs directory are found through ~/.conda/environments.txt.
func (i Install) ResolveEnv(name string) (string, error) {
	prefix := i.PrefixFor(name)
	if isEnvPrefix(prefix) {
		return prefix, nil
	}

	for _, p := range registeredEnvs() {
		if filepath.Base(p) == name && isEnvPrefix(p) {
			return p, nil
		}
	}

	return "", &NotFoundError{What: "environment", Name: name, Hint: fmt.Sprintf("conda env list shows known environments; expected %s", prefix)}
}

// Env is one entry in an environment listing.
type Env struct {
	Name   string
	Prefix string
	Base   bool
}

// ListEnvs enumerates the installation's environments, base first, then
// the envs directory, then externally registered prefixes.
func (i Install) ListEnvs() ([]Env, error) {
	envs := []Env{{Name: "base", Prefix: i.Root, Base: true}}

	entries, err := os.ReadDir(filepath.Join(i.Root, "envs"))
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to list environments: %w", err)
	}
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		prefix := filepath.Join(i.Root, "envs", e.Name())
		if isEnvPrefix(prefix) {
			envs = append(envs, Env{Name: e.Name(), Prefix: prefix})
		}
	}

	for _, p := range registeredEnvs() {
		if p == i.Root || strings.HasPrefix(p, filepath.Join(i.Root, "envs")+string(os.PathSeparator)) {
			continue
		}
		if isEnvPrefix(p) {
			envs = append(envs, Env{Name: filepath.Base(p), Prefix: p})
		}
	}

	return envs, nil
}

// isEnvPrefix reports whether dir looks like a conda environment. The
// conda-meta directory is what conda itself checks for.
func isEnvPrefix(dir string) bool {
	fi, err := os.Stat(filepath.Join(dir, "conda-meta"))
	return err == nil && fi.IsDir()
}

// registeredEnvs returns the prefixes recorded in the user's
// environments.txt registry, if any.
func registeredEnvs() []string {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil
	}
	data, err := os.ReadFile(filepath.Join(home, ".conda", "environments.txt"))
	if err != nil {
		return nil
	}
	return ParseEnvironmentsFile(string(data))
}

// ParseEnvironmentsFile extracts environment prefixes from the contents
// of an environments.txt registry: one absolute path per line, blank
// lines and surrounding whitespace ignored.
func ParseEnvironmentsFile(content string) []string {
	var prefixes []string
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		prefixes = append(prefixes, line)
	}
	return prefixes
}

// Discover locates a conda installation. An explicit override wins, then
// the CONDA_EXE and CONDA_ROOT variables a conda-initialized shell
// exports, then a conda binary on PATH, then the usual installation
// directories.
func Discover(override string) (Install, error) {
	if override != "" {
		inst := Install{Root: override}
		if !validRoot(override) {
			return Install{}, &NotFoundError{What: "conda installation", Name: override, Hint: "configured conda_root has no conda binary"}
		}
		return inst, nil
	}

	if exe := os.Getenv("CONDA_EXE"); exe != "" {
		if root := rootFromCondaExe(exe); root != "" && validRoot(root) {
			return Install{Root: root}, nil
		}
	}

	if root := os.Getenv("CONDA_ROOT"); root != "" && validRoot(root) {
		return Install{Root: root}, nil
	}

	if exe, err := exec.LookPath(condaBinary()); err == nil {
		if resolved, err := filepath.EvalSymlinks(exe); err == nil {
			exe = resolved
		}
		if root := rootFromCondaExe(exe); root != "" && validRoot(root) {
			return Install{Root: root}, nil
		}
	}

	for _, root := range wellKnownRoots() {
		if validRoot(root) {
			return Install{Root: root}, nil
		}
	}

	return Install{}, &NotFoundError{What: "conda installation", Hint: "install miniconda or set conda_root in launcher.yaml"}
}

func condaBinary() string {
	if runtime.GOOS == "windows" {
		return "conda.exe"
	}
	return "conda"
}

// rootFromCondaExe strips the bin/Scripts/condabin segment from a conda
// binary path to recover the installation root.
func rootFromCondaExe(exe string) string {
	dir := filepath.Dir(exe)
	switch strings.ToLower(filepath.Base(dir)) {
	case "scripts", "bin", "condabin":
		return filepath.Dir(dir)
	}
	return ""
}

// validRoot reports whether dir holds a conda installation.
func validRoot(dir string) bool {
	candidates := []string{
		filepath.Join(dir, "Scripts", "conda.exe"),
		filepath.Join(dir, "bin", "conda"),
		filepath.Join(dir, "condabin", "conda.bat"),
		filepath.Join(dir, "condabin", "conda"),
	}
	for _, c := range candidates {
		if _, err := os.Stat(c); err == nil {
			return true
		}
	}
	return false
}

// wellKnownRoots lists the default installation directories for the
// current OS, user installs before system ones.
func wellKnownRoots() []string {
	var roots []string

	home, err := os.UserHomeDir()
	if err == nil {
		names := []string{"miniconda3", "anaconda3", "miniforge3", "mambaforge"}
		for _, n := range names {
			roots = append(roots, filepath.Join(home, n))
		}
	}

	if runtime.GOOS == "windows" {
		for _, base := range []string{`C:\ProgramData`, `C:\`} {
			roots = append(roots,
				filepath.Join(base, "miniconda3"),
				filepath.Join(base, "anaconda3"),
			)
		}
	} else {
		roots = append(roots,
			"/opt/conda",
			"/opt/miniconda3",
			"/opt/anaconda3",
			"/usr/local/miniconda3",
			"/usr/local/anaconda3",
		)
	}

	return roots
}
