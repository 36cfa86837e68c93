package launch

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/gjnave/memo-for-windows/internal/apphome"
	"github.com/gjnave/memo-for-windows/internal/banner"
	"github.com/gjnave/memo-for-windows/internal/config"
	"github.com/gjnave/memo-for-windows/internal/preflight"
	"github.com/gjnave/memo-for-windows/internal/privilege"
	"github.com/gjnave/memo-for-windows/internal/term"
	"github.com/gjnave/memo-for-windows/pkg/exitcodes"
	"github.com/gjnave/memo-for-windows/pkg/logging"
)

// Notifier receives launch lifecycle notifications. The metrics server
// implements it; Options leaves it nil when metrics are off.
type Notifier interface {
	LaunchStarted(environment, entryPoint string)
	ChildStarted(pid int)
	URLDetected(url string)
	ProgressUpdated(percent float64)
	ChildExited(exitCode int, duration time.Duration)
	RestartScheduled(attempt int, delay time.Duration)
}

type noopNotifier struct{}

func (noopNotifier) LaunchStarted(string, string) {}
func (noopNotifier) ChildStarted(int) {}
func (noopNotifier) URLDetected(string) {}
func (noopNotifier) ProgressUpdated(float64) {}
func (noopNotifier) ChildExited(int, time.Duration) {}
func (noopNotifier) RestartScheduled(int, time.Duration) {}

// Options carries everything a launch needs.
type Options struct {
	Config *config.Config
	Home   apphome.Home
	Logger *logging.Logger

	// Stdout and Stderr default to the process streams. Stdout carries
	// only the about text and the app's own output.
	Stdout io.Writer
	Stderr io.Writer

	Notifier Notifier
	History  *History

	// CheckOnly stops after preflight without starting the app
	CheckOnly bool
	// NoPause suppresses the keypress wait on abort regardless of config
	NoPause bool
}

// Launcher runs the launch pipeline: privilege gate, preflight, banner,
// then the app itself. Every stage is checked; nothing runs after a
// failed stage.
type Launcher struct {
	cfg      *config.Config
	home     apphome.Home
	log      *logging.Logger
	stdout   io.Writer
	stderr   io.Writer
	notifier Notifier
	history  *History

	checkOnly bool
	noPause   bool

	// probe is swapped out by tests
	probe func() privilege.Status
}

// New builds a Launcher, applying defaults for anything Options leaves
// unset.
func New(opts Options) *Launcher {
	l := &Launcher{
		cfg:       opts.Config,
		home:      opts.Home,
		log:       opts.Logger,
		stdout:    opts.Stdout,
		stderr:    opts.Stderr,
		notifier:  opts.Notifier,
		history:   opts.History,
		checkOnly: opts.CheckOnly,
		noPause:   opts.NoPause,
		probe:     privilege.Check,
	}
	if l.log == nil {
		l.log = logging.NewLogger(logging.INFO, false)
	}
	if l.stdout == nil {
		l.stdout = os.Stdout
	}
	if l.stderr == nil {
		l.stderr = os.Stderr
	}
	if l.notifier == nil {
		l.notifier = noopNotifier{}
	}
	return l
}

// Run executes the pipeline and returns the launcher's exit code. The
// error describes a pipeline failure and is nil whenever the app
// actually ran, whatever its own exit code was.
func (l *Launcher) Run(ctx context.Context) (int, error) {
	if err := l.gatePrivilege(); err != nil {
		l.recordAbort(err)
		return ExitCodeFor(err), err
	}

	rep, err := l.runPreflight(ctx)
	if err != nil {
		l.recordAbort(err)
		return ExitCodeFor(err), err
	}

	if l.checkOnly {
		l.log.Info("Preflight passed", map[string]interface{}{
			"environment": l.cfg.Environment,
			"interpreter": rep.Interpreter,
			"warnings":    rep.Warnings(),
		})
		return exitcodes.Success, nil
	}

	if err := banner.Print(l.stdout, l.home.Path(l.cfg.AboutFile)); err != nil {
		serr := stageErr(StageBanner, err)
		l.abort(err.Error())
		l.recordAbort(serr)
		return ExitCodeFor(serr), serr
	}

	env, err := l.buildChildEnv(rep)
	if err != nil {
		serr := stageErr(StageEnvironment, err)
		l.abort(err.Error())
		l.recordAbort(serr)
		return ExitCodeFor(serr), serr
	}

	return l.runSessions(ctx, rep, env)
}

// gatePrivilege enforces the administrator requirement. The refusal
// message goes to stdout, where the original console flow showed it,
// followed by the keypress pause so a double-click window stays open.
func (l *Launcher) gatePrivilege() error {
	if !l.cfg.RequireAdmin {
		l.log.Debug("Privilege check disabled by configuration")
		return nil
	}

	st := l.probe()
	l.log.Debug("Privilege probe finished", map[string]interface{}{
		"elevated": st.Elevated,
		"method":   st.Method,
	})

	if st.Elevated {
		return nil
	}

	fmt.Fprint(l.stdout, privilege.AbortMessage())
	l.pause()
	return stageErr(StagePrivilege, ErrPrivilegeDenied)
}

func (l *Launcher) runPreflight(ctx context.Context) (*preflight.Report, error) {
	rep := preflight.Run(ctx, l.cfg, l.home)

	for _, res := range rep.Results {
		switch res.Status {
		case preflight.StatusWarn:
			l.log.Warn("Preflight warning", map[string]interface{}{
				"check":  res.Name,
				"detail": res.Detail,
			})
		case preflight.StatusFail:
			l.log.Error("Preflight failure", map[string]interface{}{
				"check":  res.Name,
				"detail": res.Detail,
			})
		default:
			l.log.Debug("Preflight check", map[string]interface{}{
				"check":  res.Name,
				"status": string(res.Status),
				"detail": res.Detail,
			})
		}
	}

	if f := rep.FatalFailure(); f != nil {
		l.abort(fmt.Sprintf("Cannot launch: %s check failed (%s)", f.Name, f.Detail))
		return nil, stageErr(StagePreflight, fmt.Errorf("%s: %s", f.Name, f.Detail))
	}

	return rep, nil
}

// buildChildEnv assembles the app environment: the inherited host
// environment, the activation variables, a PYTHONUNBUFFERED default so
// output streams promptly, then the .env file and extra_env overrides.
func (l *Launcher) buildChildEnv(rep *preflight.Report) ([]string, error) {
	activation := rep.Install.ActivationEnv(rep.EnvPrefix, l.cfg.Environment, os.Getenv("PATH"))

	dotenv, err := LoadDotEnv(l.home.Path(".env"))
	if err != nil {
		return nil, fmt.Errorf("failed to read .env file: %w", err)
	}

	layers := []map[string]string{
		activation,
		{"PYTHONUNBUFFERED": "1"},
		dotenv,
		l.cfg.ExtraEnv,
	}

	return BuildEnv(os.Environ(), layers...), nil
}

// runSessions starts the app and, when supervision is on, restarts it
// after non-zero exits with exponential backoff up to the restart cap.
func (l *Launcher) runSessions(ctx context.Context, rep *preflight.Report, env []string) (int, error) {
	sup := l.cfg.Supervise
	bo := Backoff{Initial: sup.InitialBackoff, Max: sup.MaxBackoff, Multiplier: 2.0}

	var (
		mu  sync.Mutex
		url string
	)
	onLine := func(line string) {
		if u, ok := ExtractURL(line); ok {
			mu.Lock()
			if url == "" {
				url = u
			}
			mu.Unlock()
			l.log.Info("App is serving", map[string]interface{}{"url": u})
			l.notifier.URLDetected(u)
			return
		}
		if pct, ok := ExtractProgress(line); ok {
			l.notifier.ProgressUpdated(pct)
		}
	}

	started := time.Now()
	entryPath := l.home.Path(l.cfg.EntryPoint)

	var (
		code     int
		restarts int
		lastPID  int
	)

	for attempt := 0; ; attempt++ {
		sess := &Session{
			Interpreter: rep.Interpreter,
			EntryPoint:  entryPath,
			Dir:         l.home.Dir(),
			Env:         env,
			Stdout:      l.stdout,
			Stderr:      l.stderr,
			OnLine:      onLine,
			OnStart:     l.notifier.ChildStarted,
		}

		l.log.Info("Launching app", map[string]interface{}{
			"interpreter": rep.Interpreter,
			"entry_point": l.cfg.EntryPoint,
			"environment": l.cfg.Environment,
			"attempt":     attempt + 1,
		})
		l.notifier.LaunchStarted(l.cfg.Environment, l.cfg.EntryPoint)

		c, err := sess.Run(ctx)
		lastPID = sess.PID()

		if err != nil {
			serr := stageErr(StageSpawn, err)
			l.abort(err.Error())
			l.appendHistory(Record{
				StartedAt:       started,
				DurationSeconds: time.Since(started).Seconds(),
				Environment:     l.cfg.Environment,
				EntryPoint:      l.cfg.EntryPoint,
				Interpreter:     rep.Interpreter,
				ExitCode:        ExitCodeFor(serr),
				Outcome:         OutcomeSpawnFailed,
				Restarts:        restarts,
			})
			return ExitCodeFor(serr), serr
		}

		code = c
		l.log.Info("App exited", map[string]interface{}{
			"exit_code": c,
			"pid":       sess.PID(),
			"duration":  sess.Duration().Round(time.Millisecond).String(),
		})
		l.notifier.ChildExited(c, sess.Duration())

		if c == 0 || !sup.Enabled || attempt >= sup.MaxRestarts || ctx.Err() != nil {
			break
		}

		delay := bo.Delay(attempt)
		restarts++
		l.log.Warn("App crashed; restarting", map[string]interface{}{
			"exit_code": c,
			"attempt":   restarts,
			"max":       sup.MaxRestarts,
			"delay":     delay.String(),
		})
		l.notifier.RestartScheduled(restarts, delay)

		select {
		case <-ctx.Done():
			l.appendHistory(l.sessionRecord(started, rep, code, url, lastPID, restarts))
			return code, nil
		case <-time.After(delay):
		}
	}

	l.appendHistory(l.sessionRecord(started, rep, code, url, lastPID, restarts))
	return code, nil
}

func (l *Launcher) sessionRecord(started time.Time, rep *preflight.Report, code int, url string, pid, restarts int) Record {
	outcome := OutcomeSuccess
	if code != 0 {
		outcome = OutcomeError
	}
	return Record{
		StartedAt:       started,
		DurationSeconds: time.Since(started).Seconds(),
		Environment:     l.cfg.Environment,
		EntryPoint:      l.cfg.EntryPoint,
		Interpreter:     rep.Interpreter,
		PID:             pid,
		ExitCode:        code,
		Outcome:         outcome,
		URL:             url,
		Restarts:        restarts,
	}
}

// recordAbort notes a pipeline refusal in the history. Best effort: an
// unwritable history must not mask the abort itself.
func (l *Launcher) recordAbort(err error) {
	l.appendHistory(Record{
		StartedAt:   time.Now(),
		Environment: l.cfg.Environment,
		EntryPoint:  l.cfg.EntryPoint,
		ExitCode:    ExitCodeFor(err),
		Outcome:     OutcomeAborted,
	})
}

func (l *Launcher) appendHistory(rec Record) {
	if l.history == nil {
		return
	}
	if err := l.history.Append(rec); err != nil {
		l.log.Debug("Could not write launch history", map[string]interface{}{
			"error": err.Error(),
		})
	}
}

// abort prints a failure message to stderr and pauses when configured,
// so the console window survives long enough to be read.
func (l *Launcher) abort(msg string) {
	fmt.Fprintln(l.stderr, msg)
	l.pause()
}

func (l *Launcher) pause() {
	if l.noPause || !l.cfg.PauseOnError {
		return
	}
	term.WaitForKey(l.stderr, term.DefaultPrompt)
}
