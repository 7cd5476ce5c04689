package platform

import (
	"fmt"
	"path/filepath"
	"strings"
)

// NormalizePath canonicalizes a filesystem path for identity comparison on
// the given platform. Windows filesystems are case-insensitive, so paths are
// lowercased there; elsewhere the path is returned with separators cleaned
// but case preserved.
func NormalizePath(path, goos string) string {
	cleaned := filepath.Clean(path)
	if goos == "windows" {
		return strings.ToLower(strings.ReplaceAll(cleaned, "/", `\`))
	}
	return cleaned
}

// SamePath reports whether two paths identify the same location on the
// given platform.
func SamePath(a, b, goos string) bool {
	return NormalizePath(a, goos) == NormalizePath(b, goos)
}

// ActivationScriptName returns the shell-specific activation script filename
// for an installed version. Windows installs a PowerShell profile; POSIX
// systems get a sourceable sh script.
func ActivationScriptName(version, goos string) string {
	if goos == "windows" {
		return fmt.Sprintf("Microsoft.%s.PowerShell_profile.ps1", version)
	}
	return fmt.Sprintf("activate_idf_%s.sh", version)
}

// VenvPython returns the interpreter path inside a virtual environment
// directory for the given platform.
func VenvPython(venvDir, goos string) string {
	if goos == "windows" {
		return filepath.Join(venvDir, "Scripts", "python.exe")
	}
	return filepath.Join(venvDir, "bin", "python")
}

// WhichCommand returns the platform's command-lookup utility name, used to
// resolve the git executable recorded in the registry.
func WhichCommand(goos string) string {
	if goos == "windows" {
		return "where"
	}
	return "which"
}
