package updater

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"time"

	"github.com/eim-labs/eim/internal/branding"
)

const probeTimeout = 5 * time.Second

// Apply swaps target for newBinary. The old binary is parked next to the
// target until the new one answers a version probe; any failure puts it
// back. In-place replacement cannot work on Windows, where the running
// image stays locked.
func Apply(newBinary, target, wantVersion string) error {
	if runtime.GOOS == "windows" {
		return fmt.Errorf("in-place update is unavailable on Windows; download a release from https://github.com/%s/releases", branding.GitHubRepo())
	}

	info, err := os.Stat(target)
	if err != nil {
		return fmt.Errorf("inspecting current binary: %w", err)
	}
	perm := info.Mode().Perm()

	parked := target + ".old"
	if err := move(target, parked); err != nil {
		return fmt.Errorf("parking current binary: %w", err)
	}
	if err := move(newBinary, target); err != nil {
		restore(parked, target)
		return fmt.Errorf("installing new binary: %w", err)
	}
	_ = os.Chmod(target, perm)

	if err := probe(target, wantVersion); err != nil {
		restore(parked, target)
		return fmt.Errorf("new binary failed its probe, previous version restored: %w", err)
	}
	os.Remove(parked)
	return nil
}

// probe runs the freshly installed binary and checks that it reports the
// expected version.
func probe(binary, wantVersion string) error {
	ctx, cancel := context.WithTimeout(context.Background(), probeTimeout)
	defer cancel()
	out, err := exec.CommandContext(ctx, binary, "version", "--short").Output()
	if err != nil {
		return fmt.Errorf("running %s version: %w", binary, err)
	}
	got := strings.TrimSpace(string(out))
	if wantVersion != "" && strings.TrimPrefix(got, "v") != strings.TrimPrefix(wantVersion, "v") {
		return fmt.Errorf("binary reports version %q, expected %s", got, wantVersion)
	}
	return nil
}

// restore puts the parked binary back in place.
func restore(parked, target string) {
	_ = move(parked, target)
}

// move renames src to dst, copying when the rename crosses filesystems.
func move(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	}
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	info, err := in.Stat()
	if err != nil {
		return err
	}
	out, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, info.Mode().Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	return os.Remove(src)
}
