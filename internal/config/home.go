package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	// HomeEnv overrides the mapscan home directory.
	HomeEnv = "MAPSCAN_HOME"

	// HomeDirName is the per-project home directory name.
	HomeDirName = ".mapscan"

	// ConfigFileName is the config file inside the home directory.
	ConfigFileName = "config.yaml"
)

// GetMapscanHome returns the mapscan home directory
// Priority order:
//  1. MAPSCAN_HOME environment variable (if set)
//  2. .mapscan in the current working directory
//
// The directory is not created; `mapscan init` does that.
func GetMapscanHome() (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("get working directory: %w", err)
	}
	return GetMapscanHomeWithRoot(cwd), nil
}

// GetMapscanHomeWithRoot resolves the home directory with root standing in
// for the working directory. MAPSCAN_HOME still takes precedence.
func GetMapscanHomeWithRoot(root string) string {
	if home := os.Getenv(HomeEnv); home != "" {
		return home
	}
	return filepath.Join(root, HomeDirName)
}

// DefaultConfigPath returns the config file path inside the home directory.
func DefaultConfigPath() (string, error) {
	home, err := GetMapscanHome()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ConfigFileName), nil
}
