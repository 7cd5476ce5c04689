package registry

import (
	"strings"

	"github.com/google/uuid"
)

const (
	// FileName is the registry filename expected by IDE integrations.
	FileName = "eim_idf.json"
	// FormatVersion is stamped on every save.
	FormatVersion = "1.0"
)

// Installation describes one fully set-up ESP-IDF version.
type Installation struct {
	ActivationScript string `json:"activationScript"`
	ID               string `json:"id"`
	ToolsPath        string `json:"idfToolsPath"`
	Name             string `json:"name"`
	Path             string `json:"path"`
	Python           string `json:"python"`
}

// Config is the persisted registry: every known installation plus the
// currently selected one.
type Config struct {
	GitPath    string         `json:"gitPath"`
	Installed  []Installation `json:"idfInstalled"`
	SelectedID string         `json:"idfSelectedId"`
	EimPath    string         `json:"eimPath,omitempty"`
	Version    string         `json:"version,omitempty"`
}

// NewID generates a stable opaque installation identifier in the
// "esp-idf-<32 hex>" form the wire contract uses.
func NewID() string {
	return "esp-idf-" + strings.ReplaceAll(uuid.NewString(), "-", "")
}

// SelectedInstallation returns the currently selected installation, or nil
// when the selection is empty or dangling.
func (c *Config) SelectedInstallation() *Installation {
	for i := range c.Installed {
		if c.Installed[i].ID == c.SelectedID {
			return &c.Installed[i]
		}
	}
	return nil
}

// find locates an installation by id or display name.
func (c *Config) find(idOrName string) int {
	for i := range c.Installed {
		if c.Installed[i].ID == idOrName || c.Installed[i].Name == idOrName {
			return i
		}
	}
	return -1
}

// Select marks the installation matching idOrName as selected. Returns
// false when no installation matches; that is not an error.
func (c *Config) Select(idOrName string) bool {
	i := c.find(idOrName)
	if i < 0 {
		return false
	}
	c.SelectedID = c.Installed[i].ID
	return true
}

// Rename updates the display name of the matching installation.
func (c *Config) Rename(idOrName, newName string) bool {
	i := c.find(idOrName)
	if i < 0 {
		return false
	}
	c.Installed[i].Name = newName
	return true
}

// Remove deletes the matching installation record. Removing the selected
// record clears the selection; another record is never promoted in its
// place.
func (c *Config) Remove(idOrName string) bool {
	i := c.find(idOrName)
	if i < 0 {
		return false
	}
	if c.SelectedID == c.Installed[i].ID {
		c.SelectedID = ""
	}
	c.Installed = append(c.Installed[:i], c.Installed[i+1:]...)
	return true
}

// Get returns a copy of the matching installation record.
func (c *Config) Get(idOrName string) (Installation, bool) {
	i := c.find(idOrName)
	if i < 0 {
		return Installation{}, false
	}
	return c.Installed[i], true
}
