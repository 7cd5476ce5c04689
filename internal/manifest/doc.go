// Package manifest parses and validates the ESP-IDF tools manifest
// (tools/tools.json inside a checkout). The manifest declares every
// prebuilt tool, its platform-specific download artifacts with sha256
// digests, and which chip targets each tool serves.
package manifest
