package installer

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/eim-labs/eim/internal/registry"
)

func seedRegistry(t *testing.T, h *registry.Handle, inst registry.Installation) {
	t.Helper()
	cfg := &registry.Config{Installed: []registry.Installation{inst}, SelectedID: inst.ID}
	if err := cfg.Save(h.Path(), true, false); err != nil {
		t.Fatal(err)
	}
}

func TestPlanRepairDropsRecordKeepsCheckout(t *testing.T) {
	base := t.TempDir()
	checkout := filepath.Join(base, "v5.4", "esp-idf")
	if err := os.MkdirAll(checkout, 0755); err != nil {
		t.Fatal(err)
	}
	script := filepath.Join(base, "activate_idf_v5.4.sh")
	if err := os.WriteFile(script, []byte("#!/bin/sh\n"), 0755); err != nil {
		t.Fatal(err)
	}

	h := registry.NewHandle(filepath.Join(base, "eim_idf.json"))
	seedRegistry(t, h, registry.Installation{
		ID: registry.NewID(), Name: "v5.4", Path: checkout,
		ToolsPath: filepath.Join(base, "v5.4", "tools"), ActivationScript: script,
	})

	s, err := PlanRepair(h, checkout)
	if err != nil {
		t.Fatalf("PlanRepair: %v", err)
	}

	if s.Path != checkout {
		t.Errorf("Path = %q, want %q", s.Path, checkout)
	}
	if s.VersionName != "v5.4" {
		t.Errorf("VersionName = %q, want v5.4", s.VersionName)
	}
	if !s.NonInteractive || !s.InstallAllPrerequisites {
		t.Error("repair settings must be non-interactive with prerequisites enabled")
	}
	if s.ConfigFileSavePath != "" {
		t.Errorf("ConfigFileSavePath = %q, want empty", s.ConfigFileSavePath)
	}

	// Record and script gone, checkout untouched.
	list, err := h.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 0 {
		t.Errorf("registry still holds %d records", len(list))
	}
	if _, err := os.Stat(script); !os.IsNotExist(err) {
		t.Error("activation script survived repair planning")
	}
	if _, err := os.Stat(checkout); err != nil {
		t.Errorf("checkout removed by repair planning: %v", err)
	}
}

func TestPlanRepairByName(t *testing.T) {
	base := t.TempDir()
	h := registry.NewHandle(filepath.Join(base, "eim_idf.json"))
	checkout := filepath.Join(base, "v5.3", "esp-idf")
	seedRegistry(t, h, registry.Installation{
		ID: registry.NewID(), Name: "v5.3", Path: checkout,
		ToolsPath: filepath.Join(base, "v5.3", "tools"),
	})

	s, err := PlanRepair(h, "v5.3")
	if err != nil {
		t.Fatalf("PlanRepair: %v", err)
	}
	if s.Path != checkout {
		t.Errorf("Path = %q, want recorded checkout %q", s.Path, checkout)
	}
	if got := s.Versions; len(got) != 1 || got[0] != "v5.3" {
		t.Errorf("Versions = %v, want [v5.3]", got)
	}
}

func TestPlanRepairUnrecordedPathStillProceeds(t *testing.T) {
	base := t.TempDir()
	h := registry.NewHandle(filepath.Join(base, "eim_idf.json"))

	target := filepath.Join(base, "orphan", "esp-idf")
	s, err := PlanRepair(h, target)
	if err != nil {
		t.Fatalf("PlanRepair: %v", err)
	}
	if s.Path != target {
		t.Errorf("Path = %q, want %q", s.Path, target)
	}
	if len(s.Versions) != 1 {
		t.Errorf("Versions = %v, want one synthesized entry", s.Versions)
	}
}
