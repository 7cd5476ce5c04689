// Package python builds the per-version interpreter environment: a venv
// under the tool directory, framework requirements installed into it, and
// a sanity check that the resulting interpreter actually runs.
package python
