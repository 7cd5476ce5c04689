package prereq

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
)

// ErrPlatformUnsupported is returned when automated installation is
// requested but no known package manager exists on this system.
var ErrPlatformUnsupported = errors.New("automated prerequisite installation is not supported on this platform")

// required maps GOOS to the binaries an installation shells out to.
// Windows installs ship embedded git and cmake through the tool manifest,
// so only python needs to pre-exist there.
var required = map[string][]string{
	"linux":   {"git", "cmake", "ninja", "wget", "flex", "bison", "gperf", "ccache"},
	"darwin":  {"git", "cmake", "ninja", "dfu-util"},
	"windows": {"python"},
}

// packageName translates a binary name to the distro package when they
// differ.
var packageName = map[string]map[string]string{
	"apt-get": {"ninja": "ninja-build"},
	"dnf":     {"ninja": "ninja-build"},
}

// Checker probes for and installs prerequisites. LookPath and Runner are
// injectable for tests.
type Checker struct {
	GOOS     string
	LookPath func(name string) (string, error)
	Runner   func(ctx context.Context, name string, args ...string) ([]byte, error)
}

// New returns a Checker for the given GOOS backed by the real system.
func New(goos string) *Checker {
	return &Checker{
		GOOS:     goos,
		LookPath: exec.LookPath,
		Runner: func(ctx context.Context, name string, args ...string) ([]byte, error) {
			return exec.CommandContext(ctx, name, args...).CombinedOutput()
		},
	}
}

// Missing returns the required binaries not found on PATH.
func (c *Checker) Missing() []string {
	var out []string
	for _, bin := range required[c.GOOS] {
		if _, err := c.LookPath(bin); err != nil {
			out = append(out, bin)
		}
	}
	return out
}

// Install attempts to install the named prerequisites with the first
// package manager found for this platform. The caller re-checks Missing
// afterwards; a manager that silently skipped a package is caught there.
func (c *Checker) Install(ctx context.Context, names []string) error {
	if len(names) == 0 {
		return nil
	}
	mgr, args, ok := c.packageManager()
	if !ok {
		return ErrPlatformUnsupported
	}

	pkgs := make([]string, len(names))
	for i, n := range names {
		pkgs[i] = n
		if alias, found := packageName[mgr][n]; found {
			pkgs[i] = alias
		}
	}

	out, err := c.Runner(ctx, mgr, append(args, pkgs...)...)
	if err != nil {
		return fmt.Errorf("installing prerequisites with %s: %w\n%s", mgr, err, out)
	}
	return nil
}

// packageManager picks the install command for this platform.
func (c *Checker) packageManager() (string, []string, bool) {
	type candidate struct {
		bin  string
		args []string
	}
	var candidates []candidate
	switch c.GOOS {
	case "linux":
		candidates = []candidate{
			{"apt-get", []string{"install", "-y"}},
			{"dnf", []string{"install", "-y"}},
			{"pacman", []string{"-S", "--noconfirm"}},
		}
	case "darwin":
		candidates = []candidate{{"brew", []string{"install"}}}
	case "windows":
		candidates = []candidate{{"choco", []string{"install", "-y"}}}
	}
	for _, cand := range candidates {
		if _, err := c.LookPath(cand.bin); err == nil {
			return cand.bin, cand.args, true
		}
	}
	return "", nil, false
}
