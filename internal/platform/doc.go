// Package platform isolates OS-conditional rules behind pure functions that
// take the platform name as an explicit parameter, so case normalization,
// activation-script naming, and interpreter layout are unit-testable without
// the real OS.
package platform
