package installer

import (
	"errors"
	"fmt"

	"github.com/eim-labs/eim/internal/progress"
)

// Sentinel failure categories. Stage errors wrap one of these plus the
// collaborator's underlying error, so callers can branch with errors.Is
// while users still see the full chain.
var (
	ErrPathCreation        = errors.New("could not create installation directories")
	ErrDownload            = errors.New("repository download failed")
	ErrUserCancelled       = errors.New("cancelled by user")
	ErrToolSetup           = errors.New("toolchain setup failed")
	ErrPythonEnv           = errors.New("python environment setup failed")
	ErrPrerequisites       = errors.New("missing prerequisites")
	ErrRegistryWrite       = errors.New("recording installation failed")
	ErrNoVersionsRequested = errors.New("no versions requested")
)

// StageError ties a failure to the stage and version it occurred in.
type StageError struct {
	Stage   progress.Stage
	Version string
	Err     error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s stage failed for %s: %v", e.Stage, e.Version, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

func stageErr(stage progress.Stage, version string, kind, err error) error {
	if err == nil {
		return &StageError{Stage: stage, Version: version, Err: kind}
	}
	return &StageError{Stage: stage, Version: version, Err: fmt.Errorf("%w: %w", kind, err)}
}
