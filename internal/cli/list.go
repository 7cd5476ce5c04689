package cli

import (
	"fmt"
	"sort"

	"github.com/Masterminds/semver/v3"
	"github.com/spf13/cobra"

	"github.com/eim-labs/eim/internal/registry"
	"github.com/eim-labs/eim/internal/settings"
)

// defaultHandle opens the registry at its platform-default location.
func defaultHandle() *registry.Handle {
	s := settings.Default()
	return registry.NewHandle(s.RegistryPath())
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List installed ESP-IDF versions",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		h := defaultHandle()
		installed, err := h.List()
		if err != nil {
			return err
		}
		if len(installed) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No versions installed.")
			return nil
		}

		selected, err := h.Selected()
		if err != nil {
			return err
		}

		sortByVersion(installed)
		for _, inst := range installed {
			marker := " "
			if selected != nil && inst.ID == selected.ID {
				marker = "*"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %-14s %s\n", marker, inst.Name, inst.Path)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
}

// sortByVersion orders release names newest first; names that do not parse
// as versions (branches, commit hashes) sort after releases, alphabetically.
func sortByVersion(installed []registry.Installation) {
	sort.SliceStable(installed, func(i, j int) bool {
		vi, erri := semver.NewVersion(installed[i].Name)
		vj, errj := semver.NewVersion(installed[j].Name)
		switch {
		case erri == nil && errj == nil:
			return vi.GreaterThan(vj)
		case erri == nil:
			return true
		case errj == nil:
			return false
		default:
			return installed[i].Name < installed[j].Name
		}
	})
}
