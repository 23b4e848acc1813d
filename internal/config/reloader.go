package config

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
)

// Reloader re-reads .env and the config file on demand and notifies
// listeners when the backend section changed.
type Reloader struct {
	configPath string
	dotenvPath string
	pinnedURL  string // --backend override, kept across reloads
	current    atomic.Pointer[Config]
	mu         sync.Mutex // serializes reload
	onBackend  []func(BackendConfig)
}

// NewReloader creates a Reloader with the given initial config.
func NewReloader(configPath, dotenvPath string, initial *Config) *Reloader {
	r := &Reloader{
		configPath: configPath,
		dotenvPath: dotenvPath,
	}
	r.current.Store(initial)
	return r
}

// PinBackendURL makes url win over whatever the reloaded file says.
func (r *Reloader) PinBackendURL(url string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pinnedURL = url
}

// Current returns the current config.
func (r *Reloader) Current() *Config {
	return r.current.Load()
}

// OnBackendChange registers fn, called with the new backend settings after a
// reload that changed them.
func (r *Reloader) OnBackendChange(fn func(BackendConfig)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onBackend = append(r.onBackend, fn)
}

// Reload swaps in the freshly loaded config. changed reports whether the
// backend settings differ from the previous ones. A failed reload keeps the
// current config.
func (r *Reloader) Reload() (changed bool, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := ReloadDotenv(r.dotenvPath); err != nil {
		return false, fmt.Errorf("reload dotenv: %w", err)
	}

	// Re-expands env templates.
	cfg, err := Load(r.configPath)
	if err != nil {
		return false, fmt.Errorf("reload config: %w", err)
	}
	if r.pinnedURL != "" {
		cfg.Backend.URL = r.pinnedURL
	}

	prev := r.current.Swap(cfg)
	changed = prev == nil || prev.Backend != cfg.Backend
	slog.Info("config reloaded", "path", r.configPath, "backend_changed", changed)

	if changed {
		for _, fn := range r.onBackend {
			fn(cfg.Backend)
		}
	}
	return changed, nil
}
