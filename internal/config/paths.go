package config

import (
	"os"
	"path/filepath"
)

// UserConfigPath returns the path to the user-level config file.
// This follows the XDG Base Directory Specification:
// - Linux: ~/.config/draftspec/config.yml
// - macOS: ~/Library/Application Support/draftspec/config.yml
// - Windows: %APPDATA%\draftspec\config.yml
//
// If XDG_CONFIG_HOME is set, it will be respected on Linux.
func UserConfigPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "draftspec", "config.yml"), nil
}

// UserConfigDir returns the path to the user-level config directory.
func UserConfigDir() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "draftspec"), nil
}

// ProjectConfigPath returns the path to the project-level config file.
// This is always .draftspec/config.yml relative to the current directory.
func ProjectConfigPath() string {
	return filepath.Join(".draftspec", "config.yml")
}

// ProjectConfigDir returns the path to the project-level config directory.
func ProjectConfigDir() string {
	return ".draftspec"
}

// LegacyUserConfigPath returns the path to the legacy user-level JSON config file.
// This was the old location: ~/.draftspec/config.json
func LegacyUserConfigPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".draftspec", "config.json"), nil
}

// LegacyProjectConfigPath returns the path to the legacy project-level JSON config file.
// This was the old location: .draftspec/config.json
func LegacyProjectConfigPath() string {
	return filepath.Join(".draftspec", "config.json")
}

// LegacyGlobalConfigPath returns the path to the legacy global JSON config file.
// This is kept for backward compatibility during migration.
func LegacyGlobalConfigPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".draftspec", "config.json"), nil
}
