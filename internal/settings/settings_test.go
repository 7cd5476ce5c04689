package settings

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultsForWindows(t *testing.T) {
	s := defaultsFor("windows", `C:\Users\dev`)
	if s.Path != `C:\esp` {
		t.Errorf("Path = %q, want C:\\esp", s.Path)
	}
	if s.RegistryDir != `C:\Espressif\tools` {
		t.Errorf("RegistryDir = %q, want C:\\Espressif\\tools", s.RegistryDir)
	}
}

func TestDefaultsForPosix(t *testing.T) {
	s := defaultsFor("linux", "/home/dev")
	if s.Path != "/home/dev/.espressif" {
		t.Errorf("Path = %q, want /home/dev/.espressif", s.Path)
	}
	if !s.RecurseSubmodules {
		t.Error("RecurseSubmodules default = false, want true")
	}
	if s.Mirror != DefaultToolsMirrors[0] {
		t.Errorf("Mirror = %q, want %q", s.Mirror, DefaultToolsMirrors[0])
	}
}

func TestRegistryPath(t *testing.T) {
	s := defaultsFor("linux", "/home/dev")
	want := "/home/dev/.espressif/tools/eim_idf.json"
	if got := s.RegistryPath(); got != want {
		t.Errorf("RegistryPath = %q, want %q", got, want)
	}
}

func TestLoadMergesFileOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "eim_config.toml")
	content := `path = "/custom/esp"
idf_versions = ["v5.4", "v5.1.5"]
non_interactive = true
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	s, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if s.Path != "/custom/esp" {
		t.Errorf("Path = %q, want %q", s.Path, "/custom/esp")
	}
	if len(s.Versions) != 2 || s.Versions[0] != "v5.4" {
		t.Errorf("Versions = %v, want [v5.4 v5.1.5]", s.Versions)
	}
	if !s.NonInteractive {
		t.Error("NonInteractive = false, want true")
	}
	// Untouched keys keep their defaults.
	if s.ToolsFile != "tools/tools.json" {
		t.Errorf("ToolsFile = %q, want default", s.ToolsFile)
	}
}

func TestLoadEnvironmentWinsOverFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "eim_config.toml")
	content := `path = "/from/file"
mirror = "https://file.example"
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("EIM_PATH", "/from/env")
	t.Setenv("EIM_NON_INTERACTIVE", "true")

	s, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if s.Path != "/from/env" {
		t.Errorf("Path = %q, want the environment override", s.Path)
	}
	if !s.NonInteractive {
		t.Error("NonInteractive = false, want true from environment")
	}
	// Keys without an environment override still come from the file.
	if s.Mirror != "https://file.example" {
		t.Errorf("Mirror = %q, want the file value", s.Mirror)
	}
}

func TestLoadEnvironmentAppliesWithoutFile(t *testing.T) {
	t.Setenv("EIM_IDF_VERSIONS", "v5.4,v5.3")

	s, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(s.Versions) != 2 || s.Versions[0] != "v5.4" {
		t.Errorf("Versions = %v, want [v5.4 v5.3]", s.Versions)
	}
}

func TestLoadMissingFileErrors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "none.toml")); err == nil {
		t.Error("Load of missing file succeeded")
	}
}

func TestSaveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	s := defaultsFor("linux", dir)
	s.Versions = []string{"v5.4"}
	s.ConfigFileSavePath = filepath.Join(dir, "out.toml")

	if err := s.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := Load(filepath.Join(dir, "out.toml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got.Versions) != 1 || got.Versions[0] != "v5.4" {
		t.Errorf("Versions = %v, want [v5.4]", got.Versions)
	}
}

func TestSaveIntoDirectoryAppendsFilename(t *testing.T) {
	dir := t.TempDir()
	s := defaultsFor("linux", dir)
	s.ConfigFileSavePath = dir

	if err := s.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, DefaultConfigFileName)); err != nil {
		t.Errorf("expected %s in directory: %v", DefaultConfigFileName, err)
	}
}
