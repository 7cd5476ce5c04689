package tools

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/eim-labs/eim/internal/manifest"
	"github.com/eim-labs/eim/internal/progress"
)

// Installed describes one provisioned tool.
type Installed struct {
	Name        string
	Version     string
	ExportPaths []string
}

// Request describes one provisioning run.
type Request struct {
	Manifest    *manifest.File
	Targets     []string
	PlatformKey string // e.g. "linux-amd64"; see manifest.PlatformKey
	DownloadDir string
	InstallDir  string
	Mirror      string // optional host override for artifact URLs
}

// Provisioner downloads and unpacks toolchain artifacts. The zero value is
// not usable; construct with New.
type Provisioner struct {
	client *http.Client
}

// New returns a Provisioner with a download-suitable HTTP client.
func New() *Provisioner {
	return &Provisioner{client: &http.Client{Timeout: 30 * time.Minute}}
}

// NewWithClient is for tests.
func NewWithClient(c *http.Client) *Provisioner {
	return &Provisioner{client: c}
}

// Provision fetches every selected tool, verifies its checksum, unpacks it
// under InstallDir/<name>/<version>, and returns the installed set with
// resolved export paths. Each tool is reported as one sub-unit on events;
// the channel is closed before return.
func (p *Provisioner) Provision(ctx context.Context, req Request, events chan<- progress.Event) ([]Installed, error) {
	defer close(events)

	selected := req.Manifest.ToolsFor(req.Targets)
	var out []Installed
	for _, tool := range selected {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		ver := tool.Recommended()
		if ver == nil {
			continue
		}
		dl, ok := ver.Downloads[req.PlatformKey]
		if !ok {
			// Not every tool ships artifacts for every platform.
			continue
		}

		inst, err := p.provisionOne(ctx, tool, ver, dl, req, events)
		if err != nil {
			return out, fmt.Errorf("tool %s %s: %w", tool.Name, ver.Name, err)
		}
		out = append(out, inst)
		events <- progress.SubmoduleFinish(tool.Name)
	}
	events <- progress.Finish()
	return out, nil
}

func (p *Provisioner) provisionOne(ctx context.Context, tool manifest.Tool, ver *manifest.ToolVersion, dl manifest.Download, req Request, events chan<- progress.Event) (Installed, error) {
	archive := filepath.Join(req.DownloadDir, archiveFileName(dl.URL))
	if !cachedArchiveValid(archive, dl.SHA256) {
		if err := p.download(ctx, applyMirror(dl.URL, req.Mirror), archive, tool.Name, events); err != nil {
			return Installed{}, err
		}
		if err := verifyChecksum(archive, dl.SHA256); err != nil {
			return Installed{}, err
		}
	}

	toolDir := filepath.Join(req.InstallDir, tool.Name, ver.Name)
	if err := extractArchive(archive, toolDir); err != nil {
		return Installed{}, err
	}

	exports := make([]string, 0, len(tool.ExportPaths))
	for _, segs := range tool.ExportPaths {
		exports = append(exports, filepath.Join(append([]string{toolDir}, segs...)...))
	}
	if len(exports) == 0 {
		exports = append(exports, toolDir)
	}

	return Installed{Name: tool.Name, Version: ver.Name, ExportPaths: exports}, nil
}

// download streams url into dest, emitting per-tool percent updates from
// Content-Length. Written through a .part file so an interrupted download
// never poisons the cache.
func (p *Provisioner) download(ctx context.Context, rawURL, dest, toolName string, events chan<- progress.Event) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return fmt.Errorf("creating download directory: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("creating download request: %w", err)
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("downloading %s: %w", rawURL, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download of %s returned status %d", rawURL, resp.StatusCode)
	}

	part := dest + ".part"
	f, err := os.Create(part)
	if err != nil {
		return fmt.Errorf("creating download file: %w", err)
	}

	total := resp.ContentLength
	var done int64
	lastPercent := -1
	buf := make([]byte, 32*1024)
	for {
		n, readErr := resp.Body.Read(buf)
		if n > 0 {
			if _, writeErr := f.Write(buf[:n]); writeErr != nil {
				f.Close()
				return fmt.Errorf("writing download: %w", writeErr)
			}
			done += int64(n)
			if total > 0 {
				if pct := int(done * 100 / total); pct != lastPercent {
					events <- progress.SubmoduleUpdate(toolName, pct)
					lastPercent = pct
				}
			}
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			f.Close()
			return fmt.Errorf("reading download stream: %w", readErr)
		}
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing download file: %w", err)
	}
	return os.Rename(part, dest)
}

// cachedArchiveValid reports whether a previous download already matches.
func cachedArchiveValid(path, wantSHA string) bool {
	if _, err := os.Stat(path); err != nil {
		return false
	}
	return verifyChecksum(path, wantSHA) == nil
}

// verifyChecksum compares the file's sha256 with the manifest's value.
func verifyChecksum(path, want string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening archive for checksum: %w", err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return fmt.Errorf("computing checksum: %w", err)
	}
	got := hex.EncodeToString(h.Sum(nil))
	if !strings.EqualFold(got, want) {
		return fmt.Errorf("checksum mismatch for %s: expected %s, got %s", filepath.Base(path), want, got)
	}
	return nil
}

// archiveFileName derives the cache file name from the artifact URL.
func archiveFileName(rawURL string) string {
	if u, err := url.Parse(rawURL); err == nil && u.Path != "" {
		return path.Base(u.Path)
	}
	return path.Base(rawURL)
}

// applyMirror swaps the artifact URL's scheme and host for the mirror's,
// keeping the path. An empty or unparseable mirror leaves the URL alone.
func applyMirror(rawURL, mirror string) string {
	if mirror == "" {
		return rawURL
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	m, err := url.Parse(mirror)
	if err != nil || m.Host == "" {
		return rawURL
	}
	u.Scheme = m.Scheme
	u.Host = m.Host
	return u.String()
}
