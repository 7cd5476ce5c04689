package python

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/eim-labs/eim/internal/progress"
)

// CoreFeature is always installed; flags add extras on top of it.
const CoreFeature = "core"

// Options describes one environment build.
type Options struct {
	VenvDir     string
	PythonPath  string   // interpreter inside the venv once created
	CheckoutDir string   // framework working tree holding requirement files
	Features    []string // extras beyond core, e.g. "ci", "docs"
	PyPIMirror  string   // optional index URL override
}

// Builder creates interpreter environments. Runner is injectable for
// tests; the default execs the named binary and returns combined output.
type Builder struct {
	Runner     func(ctx context.Context, name string, args ...string) ([]byte, error)
	BasePython string // system interpreter used to seed the venv
}

// New returns a Builder backed by the system python3 (python on Windows,
// where python3 is usually a Store alias stub).
func New(goos string) *Builder {
	base := "python3"
	if goos == "windows" {
		base = "python"
	}
	return &Builder{Runner: runCombined, BasePython: base}
}

// Build creates the venv if absent, installs core plus requested feature
// requirements, and sanity-checks the interpreter. Coarse percent updates
// go to events; the channel is closed before return.
func (b *Builder) Build(ctx context.Context, opts Options, events chan<- progress.Event) error {
	defer close(events)

	events <- progress.Update(0)
	if _, err := os.Stat(opts.PythonPath); err != nil {
		if out, err := b.Runner(ctx, b.BasePython, "-m", "venv", opts.VenvDir); err != nil {
			return fmt.Errorf("creating venv at %s: %w\n%s", opts.VenvDir, err, out)
		}
	}
	events <- progress.Update(25)

	features := append([]string{CoreFeature}, opts.Features...)
	reqs, err := requirementFiles(opts.CheckoutDir, features)
	if err != nil {
		return err
	}
	for i, req := range reqs {
		args := []string{"-m", "pip", "install", "--upgrade", "-r", req}
		if opts.PyPIMirror != "" {
			args = append(args, "--index-url", opts.PyPIMirror)
		}
		if out, err := b.Runner(ctx, opts.PythonPath, args...); err != nil {
			return fmt.Errorf("installing requirements %s: %w\n%s", filepath.Base(req), err, out)
		}
		events <- progress.Update(25 + (i+1)*70/len(reqs))
	}

	if err := b.sanityCheck(ctx, opts.PythonPath); err != nil {
		return err
	}
	events <- progress.Finish()
	return nil
}

// sanityCheck runs the venv interpreter once. A venv whose python cannot
// execute a trivial script is unusable regardless of what pip reported.
func (b *Builder) sanityCheck(ctx context.Context, pythonPath string) error {
	out, err := b.Runner(ctx, pythonPath, "-c", "import sys; sys.exit(0)")
	if err != nil {
		return fmt.Errorf("interpreter sanity check failed for %s: %w\n%s", pythonPath, err, out)
	}
	return nil
}

// requirementFiles maps feature names to existing requirement files in the
// checkout. Core missing is fatal; a missing extra is skipped so feature
// lists stay forward-compatible across framework releases.
func requirementFiles(checkoutDir string, features []string) ([]string, error) {
	var out []string
	seen := map[string]bool{}
	for _, feat := range features {
		feat = strings.TrimSpace(feat)
		if feat == "" || seen[feat] {
			continue
		}
		seen[feat] = true
		path := filepath.Join(checkoutDir, "tools", "requirements", "requirements."+feat+".txt")
		if _, err := os.Stat(path); err != nil {
			if feat == CoreFeature {
				return nil, fmt.Errorf("core requirements file missing: %s", path)
			}
			continue
		}
		out = append(out, path)
	}
	return out, nil
}

func runCombined(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}
