package config

import (
	"os"
	"path/filepath"
)

// StagewisePath returns the root directory for stagewise data.
// It uses $STAGEWISE_PATH if set, otherwise defaults to ~/.stagewise.
func StagewisePath() string {
	if v := os.Getenv("STAGEWISE_PATH"); v != "" {
		return v
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".stagewise")
	}
	return filepath.Join(home, ".stagewise")
}

// ConfigPath returns the path to the config file.
func ConfigPath() string {
	return filepath.Join(StagewisePath(), "config.jsonc")
}

// DotenvPath returns the path to the .env file.
func DotenvPath() string {
	return filepath.Join(StagewisePath(), ".env")
}

// MockHeartbeatPath returns the file a running mock backend refreshes.
func MockHeartbeatPath() string {
	return filepath.Join(StagewisePath(), "mock.heartbeat.json")
}
