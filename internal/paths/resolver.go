package paths

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/eim-labs/eim/internal/manifest"
	"github.com/eim-labs/eim/internal/platform"
	"github.com/eim-labs/eim/internal/settings"
)

// VersionPaths is the resolved directory layout for one version.
type VersionPaths struct {
	CheckoutDir      string // the esp-idf working tree
	InstallRoot      string // everything for this version lives under here
	ToolDownloadDir  string
	ToolInstallDir   string
	VenvDir          string
	PythonPath       string
	ActivationScript string
	ActualVersion    string // may differ from the requested label for existing checkouts
	UseExisting      bool   // true when the configured root already holds a valid checkout
}

// Resolver derives VersionPaths. RevParse is injectable so existing-checkout
// version re-derivation is testable without git.
type Resolver struct {
	RevParse func(dir string) (string, error)
}

// NewResolver returns a resolver backed by the real git executable.
func NewResolver() *Resolver {
	return &Resolver{RevParse: gitRevParse}
}

// Resolve computes the layout for one requested version label. When the
// configured base path already holds a valid checkout the version switches
// to use-existing mode and the label is re-derived from the checkout's
// revision, falling back to the requested label when the lookup fails.
func (r *Resolver) Resolve(s *settings.Settings, version string) (VersionPaths, error) {
	if s.Path == "" {
		return VersionPaths{}, fmt.Errorf("base installation path not set")
	}
	base := ExpandTilde(s.Path)

	useExisting := IsValidCheckout(base)

	var checkout, installRoot, actual string
	if useExisting {
		checkout = base
		installRoot = base
		actual = s.VersionName
		if actual == "" {
			rev, err := r.RevParse(checkout)
			if err != nil || rev == "" {
				actual = version
			} else {
				actual = rev
			}
		}
	} else {
		actual = s.VersionName
		if actual == "" {
			actual = version
		}
		installRoot = filepath.Join(base, actual)
		checkout = filepath.Join(installRoot, "esp-idf")
	}

	toolInstall := filepath.Join(installRoot, s.ToolInstallDirName)
	venv := filepath.Join(toolInstall, s.PythonEnvDirName, actual, "venv")

	scriptDir := ExpandTilde(s.ActivationScriptDir)
	if scriptDir == "" {
		scriptDir = toolInstall
	}

	return VersionPaths{
		CheckoutDir:      checkout,
		InstallRoot:      installRoot,
		ToolDownloadDir:  filepath.Join(installRoot, s.ToolDownloadDirName),
		ToolInstallDir:   toolInstall,
		VenvDir:          venv,
		PythonPath:       platform.VenvPython(venv, runtime.GOOS),
		ActivationScript: filepath.Join(scriptDir, platform.ActivationScriptName(actual, runtime.GOOS)),
		ActualVersion:    actual,
		UseExisting:      useExisting,
	}, nil
}

// EnsureDirs creates the derived directories. Creation is idempotent.
func (vp *VersionPaths) EnsureDirs() error {
	dirs := []string{
		vp.InstallRoot,
		vp.ToolDownloadDir,
		vp.ToolInstallDir,
		filepath.Dir(vp.VenvDir),
		filepath.Dir(vp.ActivationScript),
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating directory %s: %w", dir, err)
		}
	}
	return nil
}

// IsValidCheckout reports whether dir holds a structurally valid ESP-IDF
// working tree: tools/tools.json must exist and parse.
func IsValidCheckout(dir string) bool {
	toolsJSON := filepath.Join(dir, "tools", "tools.json")
	if _, err := os.Stat(toolsJSON); err != nil {
		return false
	}
	_, err := manifest.ParseFile(toolsJSON)
	return err == nil
}

// ExpandTilde replaces a leading ~ with the user's home directory.
func ExpandTilde(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") || strings.HasPrefix(path, `~\`) {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[1:])
	}
	return path
}

// gitRevParse returns the short HEAD revision of a checkout.
func gitRevParse(dir string) (string, error) {
	out, err := exec.Command("git", "-C", dir, "rev-parse", "--short", "HEAD").Output()
	if err != nil {
		return "", fmt.Errorf("resolving HEAD of %s: %w", dir, err)
	}
	return strings.TrimSpace(string(out)), nil
}
