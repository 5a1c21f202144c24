package app

import (
	"fmt"
	"os"
	"path/filepath"
)

// GetDefaults returns application default paths, checking environment variables first.
// Environment variables:
//   - NOTES_CONFIG_PATH: config file location (default: ~/.config/notes.toml)
//   - NOTES_HOME: base directory for note data (default: ~/.local/share/notes)
func GetDefaults() (map[string]string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil && (os.Getenv("NOTES_CONFIG_PATH") == "" || os.Getenv("NOTES_HOME") == "") {
		return nil, fmt.Errorf("cannot determine home directory: %w", err)
	}

	configPath := envOr("NOTES_CONFIG_PATH", filepath.Join(homeDir, ".config", "notes.toml"))
	baseDir := envOr("NOTES_HOME", filepath.Join(homeDir, ".local", "share", "notes"))

	return map[string]string{
		"config_path": configPath,
		"base_dir":    baseDir,
		"log_dir":     filepath.Join(baseDir, "log"),
	}, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
