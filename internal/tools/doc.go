// Package tools provisions the prebuilt toolchain artifacts listed in a
// tools.json manifest: per-platform artifact selection, cached download
// with checksum verification, archive extraction into the per-version
// tool directory, and export-path computation for activation scripts.
package tools
