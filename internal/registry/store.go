package registry

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/eim-labs/eim/internal/platform"
)

// ErrNotFound reports a missing registry file. Callers that list or query
// installations treat it as "no installations" rather than a failure;
// malformed content is a *ParseError instead.
var ErrNotFound = errors.New("registry file not found")

// ParseError reports a registry file whose content could not be decoded.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parsing registry %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Load reads and decodes the registry file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("reading registry %s: %w", path, err)
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}
	return &cfg, nil
}

// Save writes the registry to path as one whole-file write. When merge is
// set and a registry already exists there, incoming records replace any
// existing record occupying the same normalized root path or tools path
// (a reinstall at the same location gets a new id) and the remainder is
// unioned by id. Every save stamps the format version and the invoking
// executable's path, the latter only rewritten when it changed.
func (c *Config) Save(path string, pretty, merge bool) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating registry directory %s: %w", dir, err)
		}
	}

	if merge {
		existing, err := Load(path)
		switch {
		case err == nil:
			c.Installed = mergeInstalled(existing.Installed, c.Installed, runtime.GOOS)
		case errors.Is(err, ErrNotFound):
			// Nothing to merge with.
		default:
			return err
		}
	}

	if exe, err := os.Executable(); err == nil && c.EimPath != exe {
		c.EimPath = exe
	}
	c.Version = FormatVersion

	var data []byte
	var err error
	if pretty {
		data, err = json.MarshalIndent(c, "", "  ")
	} else {
		data, err = json.Marshal(c)
	}
	if err != nil {
		return fmt.Errorf("encoding registry: %w", err)
	}

	// Write-then-rename so a concurrent reader never sees a torn file.
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("writing registry %s: %w", path, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("writing registry %s: %w", path, err)
	}
	return nil
}

// mergeInstalled folds incoming records into existing ones. An existing
// record is evicted when its normalized root path or tools path collides
// with the corresponding field of any incoming record; survivors keep
// their position and incoming records not already present by id are
// appended.
func mergeInstalled(existing, incoming []Installation, goos string) []Installation {
	newPaths := make(map[string]bool, len(incoming))
	newToolsPaths := make(map[string]bool, len(incoming))
	for _, in := range incoming {
		newPaths[platform.NormalizePath(in.Path, goos)] = true
		newToolsPaths[platform.NormalizePath(in.ToolsPath, goos)] = true
	}

	var merged []Installation
	for _, ex := range existing {
		if newPaths[platform.NormalizePath(ex.Path, goos)] ||
			newToolsPaths[platform.NormalizePath(ex.ToolsPath, goos)] {
			continue
		}
		merged = append(merged, ex)
	}
	for _, in := range incoming {
		dup := false
		for _, m := range merged {
			if m.ID == in.ID {
				dup = true
				break
			}
		}
		if !dup {
			merged = append(merged, in)
		}
	}
	return merged
}
