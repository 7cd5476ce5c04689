package updater

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"

	"github.com/eim-labs/eim/internal/branding"
)

const defaultAPIBase = "https://api.github.com"

// Release is one published build of the tool.
type Release struct {
	Version   string    `json:"tag_name"`
	Assets    []Asset   `json:"assets"`
	Published time.Time `json:"published_at"`
	PageURL   string    `json:"html_url"`
}

// Asset is one downloadable file attached to a release.
type Asset struct {
	Name        string `json:"name"`
	DownloadURL string `json:"browser_download_url"`
	Size        int64  `json:"size"`
}

// Client resolves and applies updates for one running binary.
type Client struct {
	current  string
	http     *http.Client
	apiBase  string
	mirror   string
	progress func(percent int)
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.http = c }
}

// WithMirror redirects asset downloads to a mirror serving the release
// files under one flat directory.
func WithMirror(mirror string) Option {
	return func(cl *Client) { cl.mirror = strings.TrimRight(mirror, "/") }
}

// WithProgress installs a download progress callback, called with whole
// percentages as the archive streams in.
func WithProgress(fn func(percent int)) Option {
	return func(cl *Client) { cl.progress = fn }
}

// New returns a Client for the currently running version.
func New(current string, opts ...Option) *Client {
	cl := &Client{current: current, http: http.DefaultClient, apiBase: defaultAPIBase}
	for _, opt := range opts {
		opt(cl)
	}
	return cl
}

// Latest fetches the most recent published release.
func (c *Client) Latest() (*Release, error) {
	return c.release("releases/latest")
}

// ByTag fetches one release by its tag, tolerating a missing "v" prefix.
func (c *Client) ByTag(tag string) (*Release, error) {
	if !strings.HasPrefix(tag, "v") {
		tag = "v" + tag
	}
	return c.release("releases/tags/" + tag)
}

func (c *Client) release(path string) (*Release, error) {
	url := fmt.Sprintf("%s/repos/%s/%s", c.apiBase, branding.GitHubRepo(), path)
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("building release request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("User-Agent", userAgent())
	if token := os.Getenv("GITHUB_TOKEN"); token != "" {
		req.Header.Set("Authorization", "token "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("querying releases: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, fmt.Errorf("release not found")
	case http.StatusForbidden:
		return nil, fmt.Errorf("release API rate limit exceeded, set GITHUB_TOKEN to raise it")
	default:
		return nil, fmt.Errorf("release API returned status %d", resp.StatusCode)
	}

	var rel Release
	if err := json.NewDecoder(resp.Body).Decode(&rel); err != nil {
		return nil, fmt.Errorf("decoding release: %w", err)
	}
	if c.mirror != "" {
		for i := range rel.Assets {
			rel.Assets[i].DownloadURL = c.mirror + "/" + rel.Assets[i].Name
		}
	}
	return &rel, nil
}

// AssetFor picks the archive built for the given platform. The exact
// release-template name is preferred; any archive carrying the os_arch
// pair is accepted as a fallback.
func (r *Release) AssetFor(goos, goarch string) (*Asset, error) {
	want := archiveName(goos, goarch)
	for i := range r.Assets {
		if r.Assets[i].Name == want {
			return &r.Assets[i], nil
		}
	}
	pair := goos + "_" + goarch
	for i := range r.Assets {
		name := r.Assets[i].Name
		if strings.Contains(name, pair) && (strings.HasSuffix(name, ".tar.gz") || strings.HasSuffix(name, ".zip")) {
			return &r.Assets[i], nil
		}
	}
	return nil, fmt.Errorf("release %s has no archive for %s/%s (looked for %s)", r.Version, goos, goarch, want)
}

// archiveName follows the release template eim_{os}_{arch}.tar.gz, zipped
// on Windows.
func archiveName(goos, goarch string) string {
	ext := ".tar.gz"
	if goos == "windows" {
		ext = ".zip"
	}
	return branding.CLIName() + "_" + goos + "_" + goarch + ext
}

// Newer reports whether candidate is a strictly newer semver than current.
// A leading "v" on either side is ignored.
func Newer(current, candidate string) (bool, error) {
	cur, err := semver.NewVersion(strings.TrimPrefix(current, "v"))
	if err != nil {
		return false, fmt.Errorf("parsing running version %q: %w", current, err)
	}
	cand, err := semver.NewVersion(strings.TrimPrefix(candidate, "v"))
	if err != nil {
		return false, fmt.Errorf("parsing release version %q: %w", candidate, err)
	}
	return cand.GreaterThan(cur), nil
}

func userAgent() string { return branding.CLIName() + "-updater" }
