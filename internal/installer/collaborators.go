package installer

import (
	"context"

	"github.com/eim-labs/eim/internal/gitclone"
	"github.com/eim-labs/eim/internal/progress"
	"github.com/eim-labs/eim/internal/python"
	"github.com/eim-labs/eim/internal/tools"
)

// Cloner fetches the framework repository. Implementations close the
// events channel before returning.
type Cloner interface {
	Clone(ctx context.Context, opts gitclone.Options, events chan<- progress.Event) error
}

// ToolProvisioner downloads and unpacks the toolchain artifacts.
type ToolProvisioner interface {
	Provision(ctx context.Context, req tools.Request, events chan<- progress.Event) ([]tools.Installed, error)
}

// EnvBuilder creates the Python environment for a version.
type EnvBuilder interface {
	Build(ctx context.Context, opts python.Options, events chan<- progress.Event) error
}

// PrereqChecker detects and installs system prerequisites.
type PrereqChecker interface {
	Missing() []string
	Install(ctx context.Context, names []string) error
}

// Prompter asks the user a yes/no question in interactive runs.
type Prompter interface {
	Confirm(question string) (bool, error)
}
