package updater

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/eim-labs/eim/internal/branding"
)

const checkpointFile = "update-check.json"

// CheckInterval is how long a recorded release check stays fresh.
const CheckInterval = 24 * time.Hour

// Checkpoint records the outcome of the last release check.
type Checkpoint struct {
	Current   string    `json:"current"`
	Latest    string    `json:"latest"`
	CheckedAt time.Time `json:"checked_at"`
}

// Fresh reports whether the checkpoint is recent enough to trust. A nil
// checkpoint is never fresh.
func (cp *Checkpoint) Fresh(maxAge time.Duration) bool {
	return cp != nil && time.Since(cp.CheckedAt) <= maxAge
}

// ReadCheckpoint loads the recorded check from dir. A missing file is not
// an error; it returns nil.
func ReadCheckpoint(dir string) (*Checkpoint, error) {
	data, err := os.ReadFile(filepath.Join(dir, checkpointFile))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading update checkpoint: %w", err)
	}
	var cp Checkpoint
	if err := json.Unmarshal(data, &cp); err != nil {
		return nil, fmt.Errorf("decoding update checkpoint: %w", err)
	}
	return &cp, nil
}

// WriteCheckpoint persists cp under dir, creating the directory as needed.
func WriteCheckpoint(dir string, cp *Checkpoint) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating checkpoint directory: %w", err)
	}
	data, err := json.MarshalIndent(cp, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding update checkpoint: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, checkpointFile), data, 0644); err != nil {
		return fmt.Errorf("writing update checkpoint: %w", err)
	}
	return nil
}

// Banner prints an upgrade hint when the last recorded check saw a newer
// release. It never touches the network on the caller's time; a stale
// checkpoint is refreshed by a background goroutine for the next run.
func (c *Client) Banner(w io.Writer, dir string) {
	cp, err := ReadCheckpoint(dir)
	if err == nil && cp != nil {
		if newer, nerr := Newer(c.current, cp.Latest); nerr == nil && newer {
			fmt.Fprintf(w, "\nA newer release is out: %s -> %s\n", c.current, cp.Latest)
			fmt.Fprintf(w, "    Run `%s update` to upgrade\n\n", branding.CLIName())
		}
	}
	if !cp.Fresh(CheckInterval) {
		go c.recordLatest(dir)
	}
}

// recordLatest refreshes the checkpoint off the command path. Failures are
// dropped; the next run retries.
func (c *Client) recordLatest(dir string) {
	rel, err := c.Latest()
	if err != nil {
		return
	}
	_ = WriteCheckpoint(dir, &Checkpoint{
		Current:   c.current,
		Latest:    rel.Version,
		CheckedAt: time.Now(),
	})
}
