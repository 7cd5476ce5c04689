// Package settings holds the per-run installation configuration. A snapshot
// is assembled once per invocation from defaults, an optional settings file
// (TOML or YAML, loaded through viper), EIM_* environment variables, and
// command-line flags, then passed explicitly to the installer; nothing here
// is global.
package settings
