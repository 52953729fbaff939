package config

import (
	"os"
	"path/filepath"
)

const appName = "mdreadtime"

func xdgConfigHome() string {
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		return v
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return "."
	}
	return filepath.Join(home, ".config")
}

func xdgDataHome() string {
	if v := os.Getenv("XDG_DATA_HOME"); v != "" {
		return v
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return "."
	}
	return filepath.Join(home, ".local", "share")
}

// DefaultPath returns the default TOML config path.
func DefaultPath() string {
	return filepath.Join(xdgConfigHome(), appName, "config.toml")
}

// DefaultDataDir returns the directory holding the estimates database.
func DefaultDataDir() string {
	return filepath.Join(xdgDataHome(), appName)
}
