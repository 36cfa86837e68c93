// Package preflight verifies everything the app needs before the
// interpreter is started: the about file, the conda installation and
// environment, the interpreter version, the entry point, and the host's
// resources. The same checks back both the pre-launch gate and the
// doctor command.
package preflight

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/Masterminds/semver/v3"

	"github.com/gjnave/memo-for-windows/internal/apphome"
	"github.com/gjnave/memo-for-windows/internal/conda"
	"github.com/gjnave/memo-for-windows/internal/config"
)

// Status classifies one check's outcome.
type Status string

const (
	StatusOK   Status = "ok"
	StatusWarn Status = "warn"
	StatusFail Status = "fail"
	StatusSkip Status = "skip"
)

// Result is a single check's verdict.
type Result struct {
	Name   string
	Status Status
	Detail string
	// Fatal marks checks whose failure blocks the launch. Advisory checks
	// (resources, GPU) only ever warn.
	Fatal bool
}

// Report collects every check plus the artifacts later stages reuse.
type Report struct {
	Results []Result

	// Filled in as the corresponding checks pass
	Install     conda.Install
	EnvPrefix   string
	Interpreter string
	Python      *semver.Version
}

func (r *Report) add(res Result) {
	r.Results = append(r.Results, res)
}

// FatalFailure returns the first blocking failure, or nil when the
// launch may proceed.
func (r *Report) FatalFailure() *Result {
	for i := range r.Results {
		if r.Results[i].Fatal && r.Results[i].Status == StatusFail {
			return &r.Results[i]
		}
	}
	return nil
}

// Warnings counts non-blocking findings.
func (r *Report) Warnings() int {
	n := 0
	for _, res := range r.Results {
		if res.Status == StatusWarn {
			n++
		}
	}
	return n
}

// Run executes every check in order. Checks that depend on an earlier
// failure are reported as skipped rather than omitted, so diagnostics
// always show the full list.
func Run(ctx context.Context, cfg *config.Config, home apphome.Home) *Report {
	rep := &Report{}

	rep.add(Result{
		Name:   "launcher home",
		Status: StatusOK,
		Detail: home.Dir(),
	})

	rep.add(checkAboutFile(cfg, home))

	inst, condaRes := checkConda(cfg)
	rep.add(condaRes)

	if condaRes.Status == StatusOK {
		rep.Install = inst

		prefix, envRes := checkEnvironment(inst, cfg.Environment)
		rep.add(envRes)

		if envRes.Status == StatusOK {
			rep.EnvPrefix = prefix
			rep.Interpreter = inst.Interpreter(prefix)

			version, pyRes := checkPython(ctx, rep.Interpreter, cfg.PythonMin)
			rep.Python = version
			rep.add(pyRes)
		} else {
			rep.add(Result{Name: "python", Status: StatusSkip, Detail: "environment unresolved", Fatal: true})
		}
	} else {
		rep.add(Result{Name: "environment", Status: StatusSkip, Detail: "conda not found", Fatal: true})
		rep.add(Result{Name: "python", Status: StatusSkip, Detail: "conda not found", Fatal: true})
	}

	rep.add(checkEntryPoint(cfg, home))
	rep.add(checkCheckpoints(cfg, home))
	rep.add(checkFFmpeg(rep.EnvPrefix))
	rep.add(checkMemory(cfg.MinMemoryGB))
	rep.add(checkDisk(home.Dir(), cfg.MinDiskGB))
	rep.add(checkCPU())
	rep.add(checkGPU(ctx))

	return rep
}

func checkAboutFile(cfg *config.Config, home apphome.Home) Result {
	res := Result{Name: "about file", Fatal: true}
	path := home.Path(cfg.AboutFile)

	fi, err := os.Stat(path)
	if err != nil {
		res.Status = StatusFail
		res.Detail = fmt.Sprintf("%s: %v", path, err)
		return res
	}
	if fi.IsDir() {
		res.Status = StatusFail
		res.Detail = path + " is a directory"
		return res
	}

	res.Status = StatusOK
	res.Detail = fmt.Sprintf("%s (%d bytes)", path, fi.Size())
	return res
}

func checkConda(cfg *config.Config) (conda.Install, Result) {
	res := Result{Name: "conda", Fatal: true}

	inst, err := conda.Discover(cfg.CondaRoot)
	if err != nil {
		res.Status = StatusFail
		res.Detail = err.Error()
		return conda.Install{}, res
	}

	res.Status = StatusOK
	res.Detail = inst.Root
	return inst, res
}

func checkEnvironment(inst conda.Install, name string) (string, Result) {
	res := Result{Name: "environment", Fatal: true}

	prefix, err := inst.ResolveEnv(name)
	if err != nil {
		res.Status = StatusFail
		res.Detail = err.Error()
		return "", res
	}

	res.Status = StatusOK
	res.Detail = fmt.Sprintf("%s (%s)", name, prefix)
	return prefix, res
}

func checkPython(ctx context.Context, interpreter, minVersion string) (*semver.Version, Result) {
	res := Result{Name: "python", Fatal: true}

	if _, err := os.Stat(interpreter); err != nil {
		res.Status = StatusFail
		res.Detail = fmt.Sprintf("%s: %v", interpreter, err)
		return nil, res
	}

	version, err := conda.PythonVersion(ctx, interpreter)
	if err != nil {
		res.Status = StatusFail
		res.Detail = err.Error()
		return nil, res
	}

	if err := conda.CheckMinimum(version, minVersion); err != nil {
		res.Status = StatusFail
		res.Detail = err.Error()
		return version, res
	}

	res.Status = StatusOK
	res.Detail = version.String()
	return version, res
}

func checkEntryPoint(cfg *config.Config, home apphome.Home) Result {
	res := Result{Name: "entry point", Fatal: true}
	path := home.Path(cfg.EntryPoint)

	if _, err := os.Stat(path); err != nil {
		res.Status = StatusFail
		res.Detail = fmt.Sprintf("%s: %v", path, err)
		return res
	}

	res.Status = StatusOK
	res.Detail = path
	return res
}

func checkCheckpoints(cfg *config.Config, home apphome.Home) Result {
	res := Result{Name: "checkpoints"}

	if cfg.CheckpointDir == "" {
		res.Status = StatusSkip
		res.Detail = "no checkpoint_dir configured"
		return res
	}

	dir := cfg.CheckpointDir
	if !filepath.IsAbs(dir) {
		dir = home.Path(dir)
	}

	fi, err := os.Stat(dir)
	if err != nil || !fi.IsDir() {
		res.Status = StatusWarn
		res.Detail = dir + " missing; model weights will be downloaded on first run"
		return res
	}

	res.Status = StatusOK
	res.Detail = dir
	return res
}

// checkFFmpeg looks for ffmpeg on the launcher's PATH and inside the
// environment, which is where conda-installed ffmpeg lives. The app uses
// it for audio extraction, so absence is a warning rather than a block.
func checkFFmpeg(prefix string) Result {
	res := Result{Name: "ffmpeg"}

	if prefix != "" {
		candidates := []string{
			filepath.Join(prefix, "Library", "bin", "ffmpeg.exe"),
			filepath.Join(prefix, "bin", "ffmpeg"),
			filepath.Join(prefix, "Scripts", "ffmpeg.exe"),
		}
		for _, c := range candidates {
			if _, err := os.Stat(c); err == nil {
				res.Status = StatusOK
				res.Detail = c
				return res
			}
		}
	}

	if path, err := exec.LookPath("ffmpeg"); err == nil {
		res.Status = StatusOK
		res.Detail = path
		return res
	}

	res.Status = StatusWarn
	res.Detail = "ffmpeg not found; audio processing may fail"
	return res
}
