package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var removeKeepCheckout bool

var removeCmd = &cobra.Command{
	Use:   "remove <id-or-name>",
	Short: "Remove an installed ESP-IDF version",
	Long: `Remove a version's registry record, activation script, and installation
directory. With --keep-checkout only the record and script are removed.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := defaultHandle().RemoveVersion(args[0], removeKeepCheckout); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", args[0])
		return nil
	},
}

func init() {
	removeCmd.Flags().BoolVar(&removeKeepCheckout, "keep-checkout", false, "Keep the checkout directory on disk")
	rootCmd.AddCommand(removeCmd)
}
