package registry

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrBusy reports that a non-blocking read found the registry handle held
// by another operation for longer than the retry window.
var ErrBusy = errors.New("registry is busy")

const (
	viewRetries  = 5
	viewInterval = 20 * time.Millisecond
)

// Handle serializes all registry access within one process. Command
// handlers receive a Handle instead of reaching for shared globals.
type Handle struct {
	mu   sync.Mutex
	path string
}

// NewHandle returns a handle bound to the registry file at path.
func NewHandle(path string) *Handle {
	return &Handle{path: path}
}

// Path returns the registry file location.
func (h *Handle) Path() string { return h.path }

// Update loads the registry (an absent file yields an empty one), applies
// fn, and persists the result when fn reports a change. The handle is held
// for the whole load-mutate-save cycle.
func (h *Handle) Update(fn func(cfg *Config) (changed bool, err error)) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	cfg, err := Load(h.path)
	if errors.Is(err, ErrNotFound) {
		cfg = &Config{}
	} else if err != nil {
		return err
	}

	changed, err := fn(cfg)
	if err != nil {
		return err
	}
	if !changed {
		return nil
	}
	return cfg.Save(h.path, true, false)
}

// Merge appends the incoming registry's records under merge semantics.
// Used by the install pipeline after a version completes.
func (h *Handle) Merge(incoming *Config) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return incoming.Save(h.path, true, true)
}

// View calls fn with a read-only snapshot. It never blocks indefinitely:
// when the handle stays held past a short retry window it returns ErrBusy
// instead. A missing registry file degrades to an empty snapshot.
func (h *Handle) View(fn func(cfg *Config) error) error {
	locked := false
	for i := 0; i < viewRetries; i++ {
		if h.mu.TryLock() {
			locked = true
			break
		}
		time.Sleep(viewInterval)
	}
	if !locked {
		return ErrBusy
	}
	defer h.mu.Unlock()

	cfg, err := Load(h.path)
	if errors.Is(err, ErrNotFound) {
		cfg = &Config{}
	} else if err != nil {
		return err
	}
	return fn(cfg)
}

// List returns all recorded installations. A missing registry file is not
// an error: there are simply no installations yet.
func (h *Handle) List() ([]Installation, error) {
	var out []Installation
	err := h.View(func(cfg *Config) error {
		out = append(out, cfg.Installed...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Selected returns the currently selected installation, if any.
func (h *Handle) Selected() (*Installation, error) {
	var out *Installation
	err := h.View(func(cfg *Config) error {
		if sel := cfg.SelectedInstallation(); sel != nil {
			cp := *sel
			out = &cp
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// SelectVersion marks idOrName as the active installation.
func (h *Handle) SelectVersion(idOrName string) error {
	return h.Update(func(cfg *Config) (bool, error) {
		if !cfg.Select(idOrName) {
			return false, fmt.Errorf("version %q is not installed", idOrName)
		}
		return true, nil
	})
}

// RenameVersion changes the display name of an installation.
func (h *Handle) RenameVersion(idOrName, newName string) error {
	return h.Update(func(cfg *Config) (bool, error) {
		if !cfg.Rename(idOrName, newName) {
			return false, fmt.Errorf("version %q is not installed", idOrName)
		}
		return true, nil
	})
}
