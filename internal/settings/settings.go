package settings

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/viper"

	"github.com/eim-labs/eim/internal/branding"
	"github.com/eim-labs/eim/internal/registry"
)

// Default mirror lists; the first entry of each is the default choice.
var (
	DefaultIDFMirrors = []string{
		"https://github.com",
		"https://jihulab.com/esp-mirror",
	}
	DefaultToolsMirrors = []string{
		"https://github.com",
		"https://dl.espressif.com/github_assets",
	}
	DefaultPyPIMirrors = []string{
		"https://pypi.org/simple",
	}
)

// DefaultConfigFileName is the filename used when exporting a snapshot.
const DefaultConfigFileName = "eim_config.toml"

// Settings is one run's installation configuration.
type Settings struct {
	Path                    string   `mapstructure:"path"`
	RegistryDir             string   `mapstructure:"esp_idf_json_path"`
	ToolDownloadDirName     string   `mapstructure:"tool_download_folder_name"`
	ToolInstallDirName      string   `mapstructure:"tool_install_folder_name"`
	Targets                 []string `mapstructure:"target"`
	Versions                []string `mapstructure:"idf_versions"`
	ToolsFile               string   `mapstructure:"tools_json_file"`
	Mirror                  string   `mapstructure:"mirror"`
	IDFMirror               string   `mapstructure:"idf_mirror"`
	PyPIMirror              string   `mapstructure:"pypi_mirror"`
	RecurseSubmodules       bool     `mapstructure:"recurse_submodules"`
	InstallAllPrerequisites bool     `mapstructure:"install_all_prerequisites"`
	SkipPrerequisitesCheck  bool     `mapstructure:"skip_prerequisites_check"`
	NonInteractive          bool     `mapstructure:"non_interactive"`
	Features                []string `mapstructure:"idf_features"`
	RepoStub                string   `mapstructure:"repo_stub"`
	VersionName             string   `mapstructure:"version_name"`
	PythonEnvDirName        string   `mapstructure:"python_env_folder_name"`
	ActivationScriptDir     string   `mapstructure:"activation_script_dir"`
	ConfigFile              string   `mapstructure:"-"`
	ConfigFileSavePath      string   `mapstructure:"config_file_save_path"`
}

// Default returns the platform defaults for the current OS and home
// directory.
func Default() Settings {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return defaultsFor(runtime.GOOS, home)
}

// defaultsFor computes platform defaults from explicit inputs so tests can
// exercise every OS family.
func defaultsFor(goos, home string) Settings {
	var basePath, toolInstall string
	if goos == "windows" {
		basePath = `C:\esp`
		toolInstall = `C:\Espressif\tools`
	} else {
		basePath = filepath.Join(home, ".espressif")
		toolInstall = filepath.Join(home, ".espressif", "tools")
	}

	return Settings{
		Path:                basePath,
		RegistryDir:         toolInstall,
		ToolDownloadDirName: "dist",
		ToolInstallDirName:  "tools",
		Targets:             []string{"all"},
		ToolsFile:           "tools/tools.json",
		Mirror:              DefaultToolsMirrors[0],
		IDFMirror:           DefaultIDFMirrors[0],
		PyPIMirror:          DefaultPyPIMirrors[0],
		RecurseSubmodules:   true,
		PythonEnvDirName:    "python",
		ActivationScriptDir: toolInstall,
		ConfigFileSavePath:  DefaultConfigFileName,
	}
}

// RegistryPath returns the location of the installation registry file.
func (s *Settings) RegistryPath() string {
	return filepath.Join(s.RegistryDir, registry.FileName)
}

// Load builds a snapshot from defaults overlaid with an optional settings
// file (TOML or YAML) and EIM_* environment variables. Keys absent from
// both keep their default; the environment wins over the file. Flags are
// applied by the caller on top.
func Load(path string) (Settings, error) {
	base := Default()

	v := viper.New()
	seedDefaults(v, &base)
	v.SetEnvPrefix(branding.EnvPrefix())
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Settings{}, fmt.Errorf("reading settings file %s: %w", path, err)
		}
		base.ConfigFile = path
	}
	if err := v.Unmarshal(&base); err != nil {
		return Settings{}, fmt.Errorf("decoding settings: %w", err)
	}
	return base, nil
}

// Save exports the snapshot so a later run (or the repair flow) can replay
// it. Directories are accepted and get the default filename appended.
func (s *Settings) Save() error {
	path := s.ConfigFileSavePath
	if path == "" {
		path = DefaultConfigFileName
	}
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		path = filepath.Join(path, DefaultConfigFileName)
	}
	if !strings.Contains(filepath.Base(path), ".") {
		path += ".toml"
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating settings directory %s: %w", dir, err)
		}
	}

	v := viper.New()
	seedDefaults(v, s)
	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing settings file %s: %w", path, err)
	}
	return nil
}

// seedDefaults registers every field on a viper instance under its
// mapstructure key.
func seedDefaults(v *viper.Viper, s *Settings) {
	v.SetDefault("path", s.Path)
	v.SetDefault("esp_idf_json_path", s.RegistryDir)
	v.SetDefault("tool_download_folder_name", s.ToolDownloadDirName)
	v.SetDefault("tool_install_folder_name", s.ToolInstallDirName)
	v.SetDefault("target", s.Targets)
	v.SetDefault("idf_versions", s.Versions)
	v.SetDefault("tools_json_file", s.ToolsFile)
	v.SetDefault("mirror", s.Mirror)
	v.SetDefault("idf_mirror", s.IDFMirror)
	v.SetDefault("pypi_mirror", s.PyPIMirror)
	v.SetDefault("recurse_submodules", s.RecurseSubmodules)
	v.SetDefault("install_all_prerequisites", s.InstallAllPrerequisites)
	v.SetDefault("skip_prerequisites_check", s.SkipPrerequisitesCheck)
	v.SetDefault("non_interactive", s.NonInteractive)
	v.SetDefault("idf_features", s.Features)
	v.SetDefault("repo_stub", s.RepoStub)
	v.SetDefault("version_name", s.VersionName)
	v.SetDefault("python_env_folder_name", s.PythonEnvDirName)
	v.SetDefault("activation_script_dir", s.ActivationScriptDir)
	v.SetDefault("config_file_save_path", s.ConfigFileSavePath)
}
