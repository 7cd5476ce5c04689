package cli

import (
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/spf13/cobra"

	"github.com/eim-labs/eim/internal/branding"
	"github.com/eim-labs/eim/internal/config"
	"github.com/eim-labs/eim/internal/updater"
)

var (
	updateCheck   bool
	updateForce   bool
	updateVersion string
)

func init() {
	updateCmd.Flags().BoolVar(&updateCheck, "check", false, "Only check for updates, don't install")
	updateCmd.Flags().BoolVar(&updateForce, "force", false, "Force update even if already on latest version")
	updateCmd.Flags().StringVar(&updateVersion, "version", "", "Install a specific version (e.g., 0.3.0)")

	rootCmd.AddCommand(updateCmd)
}

var updateCmd = &cobra.Command{
	Use:     "update",
	Aliases: []string{"self-update"},
	Short:   "Update " + branding.CLIName() + " to the latest version",
	Long: `Downloads and installs the latest release of this tool from GitHub
releases or a configured mirror. This updates the installer itself, not
any installed ESP-IDF version.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		// Resolve mirror from config or env var.
		config.Load()
		mirror := config.Get("release_mirror")
		if envMirror := os.Getenv(branding.EnvVar("RELEASE_MIRROR")); envMirror != "" {
			mirror = envMirror
		}

		opts := []updater.Option{
			updater.WithProgress(func(percent int) {
				fmt.Fprintf(cmd.ErrOrStderr(), "\rDownloading... %3d%%", percent)
			}),
		}
		if mirror != "" {
			opts = append(opts, updater.WithMirror(mirror))
		}
		client := updater.New(buildVersion, opts...)

		var release *updater.Release
		var err error
		if updateVersion != "" {
			fmt.Fprintf(cmd.ErrOrStderr(), "Checking for version %s...\n", updateVersion)
			release, err = client.ByTag(updateVersion)
		} else {
			fmt.Fprintln(cmd.ErrOrStderr(), "Checking for updates...")
			release, err = client.Latest()
		}
		if err != nil {
			return fmt.Errorf("checking for updates: %w", err)
		}

		newer, err := updater.Newer(buildVersion, release.Version)
		if err != nil {
			// A dev build carries no comparable version and always updates.
			if buildVersion == "dev" {
				newer = true
			} else {
				return fmt.Errorf("comparing versions: %w", err)
			}
		}

		if updateCheck {
			if newer {
				fmt.Fprintf(cmd.OutOrStdout(), "Update available: %s -> %s\n", buildVersion, release.Version)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "You are on the latest version (%s)\n", buildVersion)
			}
			return nil
		}
		if !newer && !updateForce {
			fmt.Fprintf(cmd.OutOrStdout(), "You are on the latest version (%s)\n", buildVersion)
			return nil
		}

		asset, err := release.AssetFor(runtime.GOOS, runtime.GOARCH)
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.ErrOrStderr(), "Downloading %s %s for %s/%s...\n",
			branding.CLIName(), release.Version, runtime.GOOS, runtime.GOARCH)

		tmpDir, err := os.MkdirTemp("", branding.CLIName()+"-update-*")
		if err != nil {
			return fmt.Errorf("creating temp directory: %w", err)
		}
		defer os.RemoveAll(tmpDir)

		archive, err := client.Fetch(release, asset, tmpDir)
		if err != nil {
			return fmt.Errorf("downloading release: %w", err)
		}
		fmt.Fprintln(cmd.ErrOrStderr())

		binary, err := updater.ExtractExecutable(archive, tmpDir)
		if err != nil {
			return fmt.Errorf("extracting binary: %w", err)
		}

		fmt.Fprintln(cmd.ErrOrStderr(), "Installing...")
		current, err := os.Executable()
		if err != nil {
			return fmt.Errorf("finding current binary: %w", err)
		}
		if err := updater.Apply(binary, current, release.Version); err != nil {
			return err
		}

		_ = updater.WriteCheckpoint(config.Dir(), &updater.Checkpoint{
			Current:   release.Version,
			Latest:    release.Version,
			CheckedAt: time.Now(),
		})

		fmt.Fprintf(cmd.OutOrStdout(), "Successfully updated to %s\n", release.Version)
		return nil
	},
}
