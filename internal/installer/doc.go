// Package installer drives the installation pipeline. The orchestrator
// walks each requested version through a fixed stage sequence, pairing a
// worker goroutine with a progress aggregator per transfer stage, and
// records completed installations in the registry. Collaborators (clone,
// tools, python, prerequisites) are interfaces so the pipeline is
// testable without touching git, the network, or a real interpreter.
package installer
