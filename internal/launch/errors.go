package launch

import (
	"errors"
	"fmt"

	"github.com/gjnave/memo-for-windows/pkg/exitcodes"
)

// Stage identifies one step of the launch pipeline. Every step checks
// its own result; nothing runs after a failed stage.
type Stage string

const (
	StagePrivilege   Stage = "privilege"
	StagePreflight   Stage = "preflight"
	StageBanner      Stage = "banner"
	StageEnvironment Stage = "environment"
	StageSpawn       Stage = "spawn"
)

// StageError wraps a failure with the stage it happened in, so callers
// can map it to the right exit code and message.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s stage failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

func stageErr(stage Stage, err error) *StageError {
	return &StageError{Stage: stage, Err: err}
}

// ErrPrivilegeDenied is the refusal to launch without administrator
// rights.
var ErrPrivilegeDenied = errors.New("administrator privileges required")

// ExitCodeFor maps a pipeline error to the launcher's exit code
// contract. A nil error means the child ran; its own code is used then.
func ExitCodeFor(err error) int {
	if err == nil {
		return exitcodes.Success
	}

	var se *StageError
	if errors.As(err, &se) {
		switch se.Stage {
		case StagePrivilege:
			return exitcodes.PrivilegeDenied
		case StagePreflight, StageBanner, StageEnvironment:
			return exitcodes.PreflightFailed
		case StageSpawn:
			return exitcodes.LaunchError
		}
	}

	return exitcodes.LaunchError
}
