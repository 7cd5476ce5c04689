package python

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/eim-labs/eim/internal/progress"
)

type call struct {
	name string
	args []string
}

// fakeRunner records invocations and simulates venv creation by writing
// the interpreter file when asked to build one.
type fakeRunner struct {
	calls      []call
	pythonPath string
	failOn     string // substring of joined args triggering failure
}

func (f *fakeRunner) run(ctx context.Context, name string, args ...string) ([]byte, error) {
	f.calls = append(f.calls, call{name: name, args: args})
	joined := name + " " + strings.Join(args, " ")
	if f.failOn != "" && strings.Contains(joined, f.failOn) {
		return []byte("boom"), errors.New("exit status 1")
	}
	if len(args) >= 2 && args[0] == "-m" && args[1] == "venv" {
		if err := os.MkdirAll(filepath.Dir(f.pythonPath), 0755); err != nil {
			return nil, err
		}
		if err := os.WriteFile(f.pythonPath, []byte("#!stub"), 0755); err != nil {
			return nil, err
		}
	}
	return nil, nil
}

func writeRequirements(t *testing.T, checkout string, features ...string) {
	t.Helper()
	dir := filepath.Join(checkout, "tools", "requirements")
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	for _, f := range features {
		if err := os.WriteFile(filepath.Join(dir, "requirements."+f+".txt"), []byte("idf-tools\n"), 0644); err != nil {
			t.Fatal(err)
		}
	}
}

func testOptions(t *testing.T) (Options, *fakeRunner) {
	base := t.TempDir()
	venv := filepath.Join(base, "venv")
	opts := Options{
		VenvDir:     venv,
		PythonPath:  filepath.Join(venv, "bin", "python"),
		CheckoutDir: filepath.Join(base, "esp-idf"),
	}
	writeRequirements(t, opts.CheckoutDir, "core")
	return opts, &fakeRunner{pythonPath: opts.PythonPath}
}

func TestBuildCreatesVenvInstallsAndChecks(t *testing.T) {
	opts, runner := testOptions(t)
	b := &Builder{Runner: runner.run, BasePython: "python3"}

	ch := make(chan progress.Event, 16)
	if err := b.Build(context.Background(), opts, ch); err != nil {
		t.Fatalf("Build: %v", err)
	}

	var sawVenv, sawPip, sawCheck bool
	for _, c := range runner.calls {
		joined := strings.Join(c.args, " ")
		switch {
		case strings.HasPrefix(joined, "-m venv"):
			sawVenv = true
			if c.name != "python3" {
				t.Errorf("venv created with %q, want base interpreter", c.name)
			}
		case strings.Contains(joined, "-m pip install"):
			sawPip = true
			if c.name != opts.PythonPath {
				t.Errorf("pip ran with %q, want venv interpreter", c.name)
			}
		case strings.Contains(joined, "-c import sys"):
			sawCheck = true
		}
	}
	if !sawVenv || !sawPip || !sawCheck {
		t.Errorf("venv=%v pip=%v check=%v, want all true", sawVenv, sawPip, sawCheck)
	}

	var last progress.Event
	for ev := range ch {
		last = ev
	}
	if last.Kind != progress.KindFinish {
		t.Errorf("last event kind = %v, want KindFinish", last.Kind)
	}
}

func TestBuildSkipsVenvCreationWhenPresent(t *testing.T) {
	opts, runner := testOptions(t)
	if err := os.MkdirAll(filepath.Dir(opts.PythonPath), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(opts.PythonPath, []byte("#!stub"), 0755); err != nil {
		t.Fatal(err)
	}

	b := &Builder{Runner: runner.run, BasePython: "python3"}
	if err := b.Build(context.Background(), opts, make(chan progress.Event, 16)); err != nil {
		t.Fatalf("Build: %v", err)
	}
	for _, c := range runner.calls {
		if len(c.args) >= 2 && c.args[0] == "-m" && c.args[1] == "venv" {
			t.Error("venv recreated despite existing interpreter")
		}
	}
}

func TestBuildAppliesPyPIMirror(t *testing.T) {
	opts, runner := testOptions(t)
	opts.PyPIMirror = "https://pypi.tuna.tsinghua.edu.cn/simple"
	b := &Builder{Runner: runner.run, BasePython: "python3"}

	if err := b.Build(context.Background(), opts, make(chan progress.Event, 16)); err != nil {
		t.Fatalf("Build: %v", err)
	}
	found := false
	for _, c := range runner.calls {
		joined := strings.Join(c.args, " ")
		if strings.Contains(joined, "--index-url "+opts.PyPIMirror) {
			found = true
		}
	}
	if !found {
		t.Error("pip install did not carry the mirror index URL")
	}
}

func TestBuildFailsOnPipError(t *testing.T) {
	opts, runner := testOptions(t)
	runner.failOn = "pip install"
	b := &Builder{Runner: runner.run, BasePython: "python3"}

	err := b.Build(context.Background(), opts, make(chan progress.Event, 16))
	if err == nil || !strings.Contains(err.Error(), "installing requirements") {
		t.Errorf("err = %v, want requirements failure", err)
	}
}

func TestRequirementFilesMissingExtraSkipped(t *testing.T) {
	checkout := t.TempDir()
	writeRequirements(t, checkout, "core")

	got, err := requirementFiles(checkout, []string{"core", "docs"})
	if err != nil {
		t.Fatalf("requirementFiles: %v", err)
	}
	if len(got) != 1 || !strings.HasSuffix(got[0], "requirements.core.txt") {
		t.Errorf("got %v, want core only", got)
	}
}

func TestRequirementFilesMissingCoreFatal(t *testing.T) {
	if _, err := requirementFiles(t.TempDir(), []string{"core"}); err == nil {
		t.Error("missing core requirements accepted")
	}
}

func TestNewPicksBaseInterpreterByOS(t *testing.T) {
	if got := New("windows").BasePython; got != "python" {
		t.Errorf("windows base = %q", got)
	}
	if got := New("linux").BasePython; got != "python3" {
		t.Errorf("linux base = %q", got)
	}
}
