package updater

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

// fakeBinary writes an executable shell script that reports version.
func fakeBinary(t *testing.T, path, version string) {
	t.Helper()
	script := "#!/bin/sh\necho " + version + "\n"
	if err := os.WriteFile(path, []byte(script), 0755); err != nil {
		t.Fatal(err)
	}
}

func TestApplySwapsBinaries(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("in-place replacement is rejected on windows")
	}
	dir := t.TempDir()
	target := filepath.Join(dir, "eim")
	incoming := filepath.Join(dir, "eim-new")
	fakeBinary(t, target, "0.1.0")
	fakeBinary(t, incoming, "0.3.0")

	if err := Apply(incoming, target, "v0.3.0"); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	if err := probe(target, "0.3.0"); err != nil {
		t.Errorf("installed binary probe: %v", err)
	}
	if _, err := os.Stat(target + ".old"); !os.IsNotExist(err) {
		t.Error("parked binary was not cleaned up")
	}
}

func TestApplyRestoresOnFailedProbe(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("in-place replacement is rejected on windows")
	}
	dir := t.TempDir()
	target := filepath.Join(dir, "eim")
	incoming := filepath.Join(dir, "eim-new")
	fakeBinary(t, target, "0.1.0")
	fakeBinary(t, incoming, "0.2.0")

	// The incoming binary reports 0.2.0, not the release we asked for.
	if err := Apply(incoming, target, "9.9.9"); err == nil {
		t.Fatal("Apply accepted a binary reporting the wrong version")
	}

	if err := probe(target, "0.1.0"); err != nil {
		t.Errorf("previous binary was not restored: %v", err)
	}
}

func TestProbeChecksReportedVersion(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell script probe")
	}
	bin := filepath.Join(t.TempDir(), "eim")
	fakeBinary(t, bin, "0.3.0")

	if err := probe(bin, "v0.3.0"); err != nil {
		t.Errorf("probe rejected a matching version: %v", err)
	}
	if err := probe(bin, "0.4.0"); err == nil {
		t.Error("probe accepted a mismatched version")
	}
}

func TestMoveCopiesWhenRenameUnavailable(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src")
	dst := filepath.Join(dir, "nested", "dst")
	if err := os.WriteFile(src, []byte("payload"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		t.Fatal(err)
	}

	if err := move(src, dst); err != nil {
		t.Fatalf("move: %v", err)
	}
	got, err := os.ReadFile(dst)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "payload" {
		t.Errorf("moved content = %q, want %q", got, "payload")
	}
	if _, err := os.Stat(src); !os.IsNotExist(err) {
		t.Error("source survived the move")
	}
}
