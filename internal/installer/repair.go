package installer

import (
	"fmt"
	"path/filepath"
	"runtime"

	"github.com/eim-labs/eim/internal/platform"
	"github.com/eim-labs/eim/internal/registry"
	"github.com/eim-labs/eim/internal/settings"
)

// PlanRepair prepares a reinstall over a damaged installation. target may
// be a registry id, a display name, or the checkout path itself. When a
// matching record exists it is dropped along with its activation script
// (the checkout stays on disk, the reinstall reuses it) and its name is
// preserved. An unrecorded path is repaired too: repair is never refused
// just because the registry lost track of the installation.
func PlanRepair(h *registry.Handle, target string) (*settings.Settings, error) {
	var match *registry.Installation
	err := h.View(func(cfg *registry.Config) error {
		for i := range cfg.Installed {
			inst := cfg.Installed[i]
			if inst.ID == target || inst.Name == target || platform.SamePath(inst.Path, target, runtime.GOOS) {
				cp := inst
				match = &cp
				return nil
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("inspecting registry: %w", err)
	}

	s := settings.Default()
	s.NonInteractive = true
	s.InstallAllPrerequisites = true
	s.ConfigFileSavePath = ""

	if match != nil {
		if err := h.RemoveVersion(match.ID, true); err != nil {
			return nil, fmt.Errorf("dropping damaged record: %w", err)
		}
		s.Path = match.Path
		s.VersionName = match.Name
		s.Versions = []string{match.Name}
		return &s, nil
	}

	s.Path = target
	s.Versions = []string{filepath.Base(target)}
	return &s, nil
}
