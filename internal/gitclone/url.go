package gitclone

import (
	"strings"

	"github.com/Masterminds/semver/v3"
)

// DefaultRepoStub is the repository path appended to the mirror host.
const DefaultRepoStub = "espressif/esp-idf"

// RepoURL assembles the clone URL from a mirror base and a repository
// stub. The mirror may carry a trailing slash or already end in .git.
func RepoURL(mirror, stub string) string {
	if stub == "" {
		stub = DefaultRepoStub
	}
	base := strings.TrimSuffix(mirror, "/")
	if strings.HasSuffix(base, ".git") {
		return base
	}
	return base + "/" + stub + ".git"
}

// RefArgs returns the git arguments selecting the requested version.
// Release labels parse as semver and map to shallow tag fetches; anything
// else (master, release/v5.x) is treated as a branch. An empty version
// means the remote default branch.
func RefArgs(version string) []string {
	if version == "" {
		return nil
	}
	if _, err := semver.NewVersion(strings.TrimPrefix(version, "v")); err == nil {
		return []string{"--branch", version, "--depth", "1"}
	}
	return []string{"--branch", version}
}
