package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	// FilePermissions is the default permission mode for regular files (read/write for owner, read for others)
	FilePermissions = 0644
	// DirPermissions is the default permission mode for directories (rwxr-xr-x)
	DirPermissions = 0755
)

var (
	// ConfigDir is the global configuration directory (~/.stampede)
	ConfigDir string

	// ScenariosDir is the default scenarios directory
	ScenariosDir string

	// DatabasePath is the SQLite database file for run history and metrics
	DatabasePath string
)

// Initialize sets up the configuration directories and files
// It creates ~/.stampede/ if it doesn't exist
func Initialize() error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}

	// Set global paths
	ConfigDir = filepath.Join(homeDir, ".stampede")
	ScenariosDir = filepath.Join(ConfigDir, "scenarios")
	DatabasePath = filepath.Join(ConfigDir, "stampede.db")

	// Create directories if they don't exist
	dirs := []string{ConfigDir, ScenariosDir}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, DirPermissions); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}

// ResolveScenarioPath resolves a scenario file path.
// Bare names like "viewers" resolve to ~/.stampede/scenarios/viewers.yaml;
// paths containing a separator or an extension are used as-is.
func ResolveScenarioPath(name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("scenario name is required")
	}

	// Explicit path: use directly
	if filepath.Ext(name) != "" || filepath.Dir(name) != "." {
		if _, err := os.Stat(name); err != nil {
			return "", fmt.Errorf("scenario file not found: %s", name)
		}
		return name, nil
	}

	candidate := filepath.Join(ScenariosDir, name+".yaml")
	if _, err := os.Stat(candidate); err != nil {
		return "", fmt.Errorf("scenario file not found: %s", candidate)
	}
	return candidate, nil
}
