package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var renameCmd = &cobra.Command{
	Use:   "rename <id-or-name> <new-name>",
	Short: "Rename an installed ESP-IDF version",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := defaultHandle().RenameVersion(args[0], args[1]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Renamed %s to %s\n", args[0], args[1])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(renameCmd)
}
