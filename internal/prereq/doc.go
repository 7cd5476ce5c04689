// Package prereq detects the system packages an installation needs (git,
// cmake, ninja and friends) and, on platforms with a known package
// manager, installs the missing ones on request.
package prereq
