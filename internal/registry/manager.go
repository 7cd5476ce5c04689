package registry

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// installRoot returns the directory a record owns on disk. A fresh install
// keeps its checkout under <root>/esp-idf with the tools beside it, so the
// owned directory is the checkout's parent. An install adopted from an
// existing checkout records the user's own directory as the checkout and
// keeps the tools inside it; there the record owns only the recorded path,
// never its parent.
func installRoot(inst Installation) string {
	if inst.ToolsPath != "" && within(inst.ToolsPath, inst.Path) {
		return inst.Path
	}
	return filepath.Dir(inst.Path)
}

// within reports whether path is dir or lies under it.
func within(path, dir string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// RemoveVersion deletes an installation's record and its activation script.
// Unless keepCheckout is set, the installation's directory is deleted too.
// The record is removed from the registry last, so a failed filesystem
// cleanup leaves the entry intact for a retry.
func (h *Handle) RemoveVersion(idOrName string, keepCheckout bool) error {
	return h.Update(func(cfg *Config) (bool, error) {
		inst, ok := cfg.Get(idOrName)
		if !ok {
			return false, fmt.Errorf("version %q is not installed", idOrName)
		}

		if !keepCheckout {
			root := installRoot(inst)
			if err := os.RemoveAll(root); err != nil {
				return false, fmt.Errorf("removing installation directory %s: %w", root, err)
			}
		}

		if inst.ActivationScript != "" {
			if err := os.RemoveAll(inst.ActivationScript); err != nil {
				return false, fmt.Errorf("removing activation script %s: %w", inst.ActivationScript, err)
			}
		}

		cfg.Remove(idOrName)
		return true, nil
	})
}

// PurgeAll removes every installation, their directories, and activation
// scripts. Returns the names that were removed.
func (h *Handle) PurgeAll() ([]string, error) {
	var removed []string
	err := h.Update(func(cfg *Config) (bool, error) {
		for _, inst := range cfg.Installed {
			root := installRoot(inst)
			if err := os.RemoveAll(root); err != nil {
				return false, fmt.Errorf("removing installation directory %s: %w", root, err)
			}
			if inst.ActivationScript != "" {
				if err := os.RemoveAll(inst.ActivationScript); err != nil {
					return false, fmt.Errorf("removing activation script %s: %w", inst.ActivationScript, err)
				}
			}
			removed = append(removed, inst.Name)
		}
		cfg.Installed = nil
		cfg.SelectedID = ""
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	return removed, nil
}
