package launch

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

// writeScript drops an executable shell stub and returns its path.
func writeScript(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "app")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0755); err != nil {
		t.Fatalf("Failed to write script: %v", err)
	}
	return path
}

func newTestSession(entry string) (*Session, *bytes.Buffer) {
	var out bytes.Buffer
	return &Session{
		Interpreter: "/bin/sh",
		EntryPoint:  entry,
		Dir:         filepath.Dir(entry),
		Env:         os.Environ(),
		Stdout:      &out,
		Stderr:      &out,
	}, &out
}

func TestSessionSignalDeathMapsToShellConvention(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("signal semantics are POSIX-only")
	}

	sess, _ := newTestSession(writeScript(t, "kill -TERM $$"))

	code, err := sess.Run(context.Background())
	if err != nil {
		t.Fatalf("A signal death is not a run error: %v", err)
	}
	// 128 + SIGTERM(15)
	if code != 143 {
		t.Errorf("Exit code = %d, expected 143 for a SIGTERM death", code)
	}

	events := sess.Events()
	if len(events) == 0 {
		t.Fatal("Expected lifecycle events")
	}
	last := events[len(events)-1]
	if last.State != StateFailed {
		t.Errorf("Final state = %q, expected %q", last.State, StateFailed)
	}
	if !strings.Contains(last.Message, "signal") {
		t.Errorf("Final event should name the signal, got %q", last.Message)
	}
	if last.ExitCode != 143 {
		t.Errorf("Final event exit code = %d, expected 143", last.ExitCode)
	}
}

func TestSessionCleanExit(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell stub needs a POSIX shell")
	}

	sess, out := newTestSession(writeScript(t, "echo ready"))

	code, err := sess.Run(context.Background())
	if err != nil || code != 0 {
		t.Fatalf("Run = %d, %v", code, err)
	}
	if !strings.Contains(out.String(), "ready") {
		t.Errorf("Child output not relayed: %q", out.String())
	}

	events := sess.Events()
	if last := events[len(events)-1]; last.State != StateCompleted {
		t.Errorf("Final state = %q, expected %q", last.State, StateCompleted)
	}
	if sess.PID() <= 0 {
		t.Errorf("PID = %d after a successful run", sess.PID())
	}
}
