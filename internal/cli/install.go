package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/eim-labs/eim/internal/branding"
	"github.com/eim-labs/eim/internal/installer"
	"github.com/eim-labs/eim/internal/registry"
	"github.com/eim-labs/eim/internal/settings"
)

var installFlags struct {
	path               string
	registryDir        string
	configFile         string
	targets            []string
	versions           []string
	mirror             string
	idfMirror          string
	pypiMirror         string
	recurseSubmodules  bool
	nonInteractive     bool
	installAllPrereqs  bool
	skipPrereqsCheck   bool
	features           []string
	versionName        string
	configFileSavePath string
}

var installCmd = &cobra.Command{
	Use:   "install [version...]",
	Short: "Install one or more ESP-IDF versions",
	Long: `Install ESP-IDF versions side by side. Each version gets its own
checkout, toolchain, Python environment, and activation script, and is
recorded in the installation registry.

Versions can be given as arguments or with --idf-versions; defaults come
from the optional settings file passed with --config.`,
	Args: cobra.ArbitraryArgs,
	RunE: runInstall,
}

func init() {
	f := installCmd.Flags()
	f.StringVarP(&installFlags.path, "path", "p", "", "Base installation path")
	f.StringVar(&installFlags.registryDir, "esp-idf-json-path", "", "Directory holding the installation registry")
	f.StringVarP(&installFlags.configFile, "config", "c", "", "Settings file (TOML or YAML) applied under the flags")
	f.StringSliceVarP(&installFlags.targets, "target", "t", nil, "Chip targets to provision tools for (e.g. esp32,esp32s3 or all)")
	f.StringSliceVarP(&installFlags.versions, "idf-versions", "i", nil, "Versions to install (tags or branches)")
	f.StringVarP(&installFlags.mirror, "mirror", "m", "", "Mirror for tool artifact downloads")
	f.StringVar(&installFlags.idfMirror, "idf-mirror", "", "Mirror for the framework repository clone")
	f.StringVar(&installFlags.pypiMirror, "pypi-mirror", "", "Index URL for Python package installs")
	f.BoolVarP(&installFlags.recurseSubmodules, "recurse-submodules", "r", true, "Clone submodules too")
	f.BoolVarP(&installFlags.nonInteractive, "non-interactive", "n", false, "Never prompt; take the lenient default")
	f.BoolVarP(&installFlags.installAllPrereqs, "install-all-prerequisites", "a", false, "Install missing system prerequisites automatically")
	f.BoolVar(&installFlags.skipPrereqsCheck, "skip-prerequisites-check", false, "Skip the system prerequisite check entirely")
	f.StringSliceVar(&installFlags.features, "features", nil, "Extra Python feature sets beyond core (e.g. ci,docs)")
	f.StringVar(&installFlags.versionName, "version-name", "", "Record the installation under this name")
	f.StringVar(&installFlags.configFileSavePath, "export-config", "", "Export the effective settings to this file after install")
	rootCmd.AddCommand(installCmd)
}

func runInstall(cmd *cobra.Command, args []string) error {
	s, err := settings.Load(installFlags.configFile)
	if err != nil {
		return err
	}
	applyInstallFlags(cmd, &s, args)

	if len(s.Versions) == 0 {
		return fmt.Errorf("no versions requested: pass them as arguments, with --idf-versions, or in the settings file")
	}

	handle := registry.NewHandle(s.RegistryPath())
	sink := newTerminalSink(cmd.ErrOrStderr())
	prompt := &stdinPrompter{in: os.Stdin, out: cmd.OutOrStdout()}

	orch := installer.New(handle, sink, prompt, logger, buildVersion)
	if err := orch.Run(cmd.Context(), &s); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Installed %d version(s). Run '%s list' to see them.\n",
		len(s.Versions), branding.CLIName())
	return nil
}

// applyInstallFlags overlays changed flags on the settings snapshot, so
// file-provided values survive unless explicitly overridden.
func applyInstallFlags(cmd *cobra.Command, s *settings.Settings, args []string) {
	flags := cmd.Flags()
	if flags.Changed("path") {
		s.Path = installFlags.path
	}
	if flags.Changed("esp-idf-json-path") {
		s.RegistryDir = installFlags.registryDir
	}
	if flags.Changed("target") {
		s.Targets = installFlags.targets
	}
	if flags.Changed("idf-versions") {
		s.Versions = installFlags.versions
	}
	if len(args) > 0 {
		s.Versions = append(s.Versions, args...)
	}
	if flags.Changed("mirror") {
		s.Mirror = installFlags.mirror
	}
	if flags.Changed("idf-mirror") {
		s.IDFMirror = installFlags.idfMirror
	}
	if flags.Changed("pypi-mirror") {
		s.PyPIMirror = installFlags.pypiMirror
	}
	if flags.Changed("recurse-submodules") {
		s.RecurseSubmodules = installFlags.recurseSubmodules
	}
	if flags.Changed("non-interactive") {
		s.NonInteractive = installFlags.nonInteractive
	}
	if flags.Changed("install-all-prerequisites") {
		s.InstallAllPrerequisites = installFlags.installAllPrereqs
	}
	if flags.Changed("skip-prerequisites-check") {
		s.SkipPrerequisitesCheck = installFlags.skipPrereqsCheck
	}
	if flags.Changed("features") {
		s.Features = installFlags.features
	}
	if flags.Changed("version-name") {
		s.VersionName = installFlags.versionName
	}
	if flags.Changed("export-config") {
		s.ConfigFileSavePath = installFlags.configFileSavePath
	}
}
