package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/tailscale/hujson"
)

var envTemplateRe = regexp.MustCompile(`\$\{\{\s*\.Env\.(\w+)\s*\}\}`)

// Load reads a JSONC config file, expands ${{ .Env.VAR }} templates,
// standardizes it to plain JSON, unmarshals it into Config, and applies defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	// Expand before standardizing, templates live inside string literals.
	expanded := expandEnvTemplates(string(data))

	std, err := hujson.Standardize([]byte(expanded))
	if err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(std, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	applyDefaults(&cfg)
	return &cfg, nil
}

// Default returns a config with every default applied.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// expandEnvTemplates replaces ${{ .Env.VAR }} with the env var value.
func expandEnvTemplates(s string) string {
	return envTemplateRe.ReplaceAllStringFunc(s, func(match string) string {
		parts := envTemplateRe.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}
		return os.Getenv(parts[1])
	})
}

// applyDefaults fills in zero-value fields with sensible defaults.
func applyDefaults(cfg *Config) {
	if cfg.Backend.URL == "" {
		if v := os.Getenv("STAGEWISE_BACKEND_URL"); v != "" {
			cfg.Backend.URL = v
		} else {
			cfg.Backend.URL = "http://127.0.0.1:8000"
		}
	}
	if cfg.Backend.ChatPath == "" {
		cfg.Backend.ChatPath = "/api/v1/chat/{agent_id}"
	}
	if cfg.Backend.DiagramPath == "" {
		cfg.Backend.DiagramPath = "/api/v1/mermaid"
	}
	if cfg.Backend.Timeout == 0 {
		cfg.Backend.Timeout = Duration(2 * time.Minute)
	}
	if cfg.Storage.Driver == "" {
		cfg.Storage.Driver = "file"
	}
	if cfg.Storage.Dir == "" {
		cfg.Storage.Dir = filepath.Join(StagewisePath(), "sessions")
	}
	if cfg.Output.Dir == "" {
		cfg.Output.Dir = filepath.Join(StagewisePath(), "diagrams")
	}
	if cfg.Events.BufferSize == 0 {
		cfg.Events.BufferSize = 256
	}
	if cfg.Events.LogDir == "" {
		cfg.Events.LogDir = filepath.Join(StagewisePath(), "logs")
	}
	if cfg.Mock.Host == "" {
		cfg.Mock.Host = "127.0.0.1"
	}
	if cfg.Mock.Port == 0 {
		cfg.Mock.Port = 8000
	}
	// An empty stage table means the built-in one (see stages.DefaultTable).
}
