package config

import (
	"os"
	"path/filepath"
)

// ProjectConfigName is the project config file looked up in the work dir.
const ProjectConfigName = ".debbump.yml"

// UserConfigPath returns the path to the user-level config file.
// This follows the XDG Base Directory Specification:
// - Linux: ~/.config/debbump/config.yml
// - macOS: ~/Library/Application Support/debbump/config.yml
//
// If XDG_CONFIG_HOME is set, it will be respected on Linux.
func UserConfigPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "debbump", "config.yml"), nil
}

// ProjectConfigPath returns the path to the project-level config file in dir.
func ProjectConfigPath(dir string) string {
	return filepath.Join(dir, ProjectConfigName)
}
