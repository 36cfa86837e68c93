package launch

import (
	"errors"
	"fmt"
	"testing"

	"github.com/gjnave/memo-for-windows/pkg/exitcodes"
)

func TestExitCodeFor(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{"nil means child ran", nil, exitcodes.Success},
		{"privilege refusal", stageErr(StagePrivilege, ErrPrivilegeDenied), exitcodes.PrivilegeDenied},
		{"preflight failure", stageErr(StagePreflight, errors.New("python: too old")), exitcodes.PreflightFailed},
		{"banner failure", stageErr(StageBanner, errors.New("about.txt missing")), exitcodes.PreflightFailed},
		{"environment failure", stageErr(StageEnvironment, errors.New("bad .env")), exitcodes.PreflightFailed},
		{"spawn failure", stageErr(StageSpawn, errors.New("exec format error")), exitcodes.LaunchError},
		{"unclassified", errors.New("mystery"), exitcodes.LaunchError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExitCodeFor(tt.err); got != tt.expected {
				t.Errorf("ExitCodeFor(%v) = %d, expected %d", tt.err, got, tt.expected)
			}
		})
	}
}

func TestStageErrorWrapsCause(t *testing.T) {
	cause := errors.New("root cause")
	err := stageErr(StageSpawn, fmt.Errorf("starting: %w", cause))

	if !errors.Is(err, cause) {
		t.Error("StageError should unwrap to its cause")
	}

	var se *StageError
	wrapped := fmt.Errorf("pipeline: %w", err)
	if !errors.As(wrapped, &se) || se.Stage != StageSpawn {
		t.Errorf("errors.As failed to recover StageError from %v", wrapped)
	}
}
