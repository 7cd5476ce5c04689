package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/eim-labs/eim/internal/installer"
	"github.com/eim-labs/eim/internal/registry"
	"github.com/eim-labs/eim/internal/settings"
)

var repairCmd = &cobra.Command{
	Use:   "repair <path-or-id>",
	Short: "Repair a damaged installation in place",
	Long: `Reinstall tools, Python environment, and activation script over an
existing checkout. The target may be a registry id, a version name, or the
checkout path itself; unrecorded paths are repaired too. The checkout is
never deleted.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults := settings.Default()
		handle := registry.NewHandle(defaults.RegistryPath())

		s, err := installer.PlanRepair(handle, args[0])
		if err != nil {
			return err
		}

		sink := newTerminalSink(cmd.ErrOrStderr())
		prompt := &stdinPrompter{in: os.Stdin, out: cmd.OutOrStdout()}
		orch := installer.New(handle, sink, prompt, logger, buildVersion)
		if err := orch.Run(cmd.Context(), s); err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Repaired installation at %s\n", s.Path)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(repairCmd)
}
