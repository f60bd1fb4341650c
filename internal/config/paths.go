// Package config resolves pwvkpno's on-disk locations and settings.
package config

import (
	"os"
	"path/filepath"
)

const (
	// EnvHome overrides the data directory.
	EnvHome = "PWVKPNO_HOME"
	// EnvDB overrides the SQLite database path.
	EnvDB = "PWVKPNO_DB"
	// EnvConfig overrides the settings file path.
	EnvConfig = "PWVKPNO_CONFIG"
)

// DataDir returns the directory used to store pwvkpno data.
func DataDir() (string, error) {
	if d := os.Getenv(EnvHome); d != "" {
		return d, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".pwvkpno"), nil
}

// EnsureDataDir returns DataDir after creating it if needed.
func EnsureDataDir() (string, error) {
	d, err := DataDir()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(d, 0o755); err != nil {
		return "", err
	}
	return d, nil
}

// DBPath returns the full path to the SQLite database file.
func DBPath() (string, error) {
	if p := os.Getenv(EnvDB); p != "" {
		return p, nil
	}
	d, err := DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(d, "pwvkpno.db"), nil
}

// TablesDir is where the measured and modeled PWV tables live.
func TablesDir() (string, error) {
	d, err := DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(d, "pwv_tables"), nil
}

// AtmModelsDir is where the atmospheric transmission models live.
func AtmModelsDir() (string, error) {
	d, err := DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(d, "atm_models"), nil
}

// SettingsPath returns the settings file location.
func SettingsPath() (string, error) {
	if p := os.Getenv(EnvConfig); p != "" {
		return p, nil
	}
	d, err := DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(d, "config.yaml"), nil
}
