package gitclone

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/eim-labs/eim/internal/progress"
)

// ErrDestinationExists is returned when the clone destination already
// holds files. The caller decides whether that is fatal; a previous
// partial or complete clone at the same spot is common.
var ErrDestinationExists = errors.New("clone destination already exists and is not empty")

// Options describes one clone request.
type Options struct {
	URL               string
	Version           string // tag or branch; empty means default branch
	Dest              string
	RecurseSubmodules bool
}

// Cloner runs git clones. Runner is injectable for tests; the default
// execs the real git binary with stderr wired to the progress parser.
type Cloner struct {
	Runner func(ctx context.Context, args []string, stderr io.Writer) error
}

// New returns a Cloner backed by the git executable.
func New() *Cloner {
	return &Cloner{Runner: runGit}
}

// Clone fetches opts.URL into opts.Dest, streaming parsed progress onto
// events. The channel is closed before return in every path, so the
// caller's aggregator goroutine always terminates.
func (c *Cloner) Clone(ctx context.Context, opts Options, events chan<- progress.Event) error {
	defer close(events)

	if existsNonEmpty(opts.Dest) {
		return fmt.Errorf("%s: %w", opts.Dest, ErrDestinationExists)
	}

	args := []string{"clone", "--progress"}
	args = append(args, RefArgs(opts.Version)...)
	if opts.RecurseSubmodules {
		args = append(args, "--recurse-submodules")
	}
	args = append(args, opts.URL, opts.Dest)

	pr, pw := io.Pipe()
	done := make(chan struct{})
	go func() {
		defer close(done)
		parseProgress(pr, events)
	}()

	err := c.Runner(ctx, args, pw)
	pw.Close()
	<-done

	if err != nil {
		if strings.Contains(err.Error(), "already exists") {
			return fmt.Errorf("%s: %w", opts.Dest, ErrDestinationExists)
		}
		return fmt.Errorf("cloning %s: %w", opts.URL, err)
	}
	events <- progress.Finish()
	return nil
}

func existsNonEmpty(dir string) bool {
	entries, err := os.ReadDir(dir)
	return err == nil && len(entries) > 0
}

// runGit execs git with stderr teed into the progress parser. Git reports
// "already exists" failures on stderr, so the tail of the stream is kept
// for the error message.
func runGit(ctx context.Context, args []string, stderr io.Writer) error {
	cmd := exec.CommandContext(ctx, "git", args...)
	var tail strings.Builder
	cmd.Stderr = io.MultiWriter(stderr, &tail)
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(tail.String())
		if len(msg) > 400 {
			msg = msg[len(msg)-400:]
		}
		if msg != "" {
			return fmt.Errorf("%s: %w", msg, err)
		}
		return err
	}
	return nil
}
