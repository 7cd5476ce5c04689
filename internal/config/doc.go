// Package config manages user-level settings stored at ~/.eim/config.yaml.
// It provides functions to load, read, and write configuration keys such as
// preferred mirrors, with EIM_-prefixed environment overrides.
package config
