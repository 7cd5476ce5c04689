package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var purgeYes bool

var purgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Remove every installed ESP-IDF version",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !purgeYes {
			prompt := &stdinPrompter{in: os.Stdin, out: cmd.OutOrStdout()}
			ok, err := prompt.Confirm("Remove ALL installed versions and their files?")
			if err != nil {
				return err
			}
			if !ok {
				fmt.Fprintln(cmd.OutOrStdout(), "Purge cancelled.")
				return nil
			}
		}

		removed, err := defaultHandle().PurgeAll()
		if err != nil {
			return err
		}
		if len(removed) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "Nothing to purge.")
			return nil
		}
		for _, name := range removed {
			fmt.Fprintf(cmd.OutOrStdout(), "  removed %s\n", name)
		}
		return nil
	},
}

func init() {
	purgeCmd.Flags().BoolVarP(&purgeYes, "yes", "y", false, "Skip confirmation prompt")
	rootCmd.AddCommand(purgeCmd)
}
