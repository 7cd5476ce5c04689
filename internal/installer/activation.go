package installer

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/eim-labs/eim/internal/paths"
)

// writeActivationScript generates the shell entry point recorded in the
// registry. Sourcing it puts the version's toolchain and interpreter on
// PATH and points the framework's own tooling at the right directories.
func writeActivationScript(goos string, vp paths.VersionPaths, exports []string) error {
	if err := os.MkdirAll(filepath.Dir(vp.ActivationScript), 0755); err != nil {
		return fmt.Errorf("creating activation script directory: %w", err)
	}

	var content string
	if goos == "windows" {
		content = powershellActivation(vp, exports)
	} else {
		content = posixActivation(vp, exports)
	}
	if err := os.WriteFile(vp.ActivationScript, []byte(content), 0755); err != nil {
		return fmt.Errorf("writing activation script %s: %w", vp.ActivationScript, err)
	}
	return nil
}

func posixActivation(vp paths.VersionPaths, exports []string) string {
	pathEntries := append([]string{filepath.Dir(vp.PythonPath)}, exports...)

	var b strings.Builder
	b.WriteString("#!/bin/sh\n")
	fmt.Fprintf(&b, "# Activation for ESP-IDF %s. Source this file, do not execute it.\n", vp.ActualVersion)
	fmt.Fprintf(&b, "export IDF_PATH=%q\n", vp.CheckoutDir)
	fmt.Fprintf(&b, "export IDF_TOOLS_PATH=%q\n", vp.ToolInstallDir)
	fmt.Fprintf(&b, "export IDF_PYTHON_ENV_PATH=%q\n", vp.VenvDir)
	fmt.Fprintf(&b, "export PATH=%q:$PATH\n", strings.Join(pathEntries, ":"))
	fmt.Fprintf(&b, "alias idf.py=%q\n", filepath.Join(vp.CheckoutDir, "tools", "idf.py"))
	return b.String()
}

func powershellActivation(vp paths.VersionPaths, exports []string) string {
	pathEntries := append([]string{filepath.Dir(vp.PythonPath)}, exports...)

	var b strings.Builder
	fmt.Fprintf(&b, "# Activation for ESP-IDF %s.\n", vp.ActualVersion)
	fmt.Fprintf(&b, "$env:IDF_PATH = %q\n", vp.CheckoutDir)
	fmt.Fprintf(&b, "$env:IDF_TOOLS_PATH = %q\n", vp.ToolInstallDir)
	fmt.Fprintf(&b, "$env:IDF_PYTHON_ENV_PATH = %q\n", vp.VenvDir)
	fmt.Fprintf(&b, "$env:PATH = %q + \";\" + $env:PATH\n", strings.Join(pathEntries, ";"))
	return b.String()
}
