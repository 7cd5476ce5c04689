package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var selectCmd = &cobra.Command{
	Use:   "select <id-or-name>",
	Short: "Select the active ESP-IDF version",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := defaultHandle().SelectVersion(args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Selected %s\n", args[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(selectCmd)
}
