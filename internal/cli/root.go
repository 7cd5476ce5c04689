package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/eim-labs/eim/internal/branding"
	"github.com/eim-labs/eim/internal/config"
	"github.com/eim-labs/eim/internal/updater"
)

var (
	buildVersion string
	buildCommit  string
	buildDate    string

	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   branding.CLIName(),
	Short: branding.Description(),
	Long: branding.DisplayName() + ` installs and manages parallel versions of the
ESP-IDF embedded toolchain: framework checkout, prebuilt tools, Python
environment, and per-version activation scripts.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		configureLogger(verbose)

		// Non-blocking banner from the last recorded release check.
		// Skipped for commands that manage update state themselves.
		if name := cmd.Name(); name != "update" && name != "self-update" && name != "completion" {
			updater.New(buildVersion).Banner(os.Stderr, config.Dir())
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
}

// Execute runs the root command with build info injected via ldflags.
// Errors are silenced on the command tree, so the one failure report the
// user sees is printed here.
func Execute(version, commit, date string) error {
	buildVersion = version
	buildCommit = commit
	buildDate = date
	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintln(rootCmd.ErrOrStderr(), "Error:", err)
	}
	return err
}
