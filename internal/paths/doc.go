// Package paths computes the per-version directory layout of an
// installation from a settings snapshot and detects pre-existing valid
// checkouts so the installer can reuse them instead of cloning.
package paths
