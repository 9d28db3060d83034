package app

import (
	"fmt"
	"os"
	"path/filepath"
)

// GetDefaults returns application default paths, checking environment variables first.
// Environment variables:
//   - HORAS_CONFIG_PATH: config file location (default: ~/.config/horas.toml)
//   - HORAS_HOME: base directory for horas data (default: ~/.local/share/horas)
func GetDefaults() (map[string]string, error) {
	configPath, err := getConfigPath()
	if err != nil {
		return nil, err
	}

	baseDir, err := getBaseDir()
	if err != nil {
		return nil, err
	}

	return map[string]string{
		"config_path": configPath,
		"base_dir":    baseDir,
		"log_dir":     filepath.Join(baseDir, "log"),
	}, nil
}

// getConfigPath returns the config file path, checking HORAS_CONFIG_PATH first,
// then falling back to ~/.config/horas.toml.
func getConfigPath() (string, error) {
	if path := os.Getenv("HORAS_CONFIG_PATH"); path != "" {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "horas.toml"), nil
}

// getBaseDir returns the base directory for horas data, checking HORAS_HOME
// first, then falling back to the XDG default ~/.local/share/horas.
func getBaseDir() (string, error) {
	if path := os.Getenv("HORAS_HOME"); path != "" {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(homeDir, ".local", "share", "horas"), nil
}
