package commands

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/dohr-michael/stagewise/clients/api"
	"github.com/dohr-michael/stagewise/internal/config"
	"github.com/dohr-michael/stagewise/internal/events"
	"github.com/dohr-michael/stagewise/internal/sessions"
	"github.com/dohr-michael/stagewise/internal/stages"
	"github.com/dohr-michael/stagewise/internal/storage"
	"github.com/dohr-michael/stagewise/internal/wizard"
)

// setupLogging switches slog to debug level when --debug is set.
func setupLogging(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if cmd.Bool("debug") {
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
	}
	return ctx, nil
}

// loadConfig reads --config, falling back to defaults when the file does not
// exist, and applies CLI overrides.
func loadConfig(cmd *cli.Command) (*config.Config, error) {
	configPath := cmd.String("config")
	cfg, err := config.Load(configPath)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
		slog.Debug("config not found, using defaults", "path", configPath)
		cfg = config.Default()
	}

	if cmd.IsSet("backend") {
		cfg.Backend.URL = cmd.String("backend")
	}
	return cfg, nil
}

// wizardRuntime holds everything a wizard command needs.
type wizardRuntime struct {
	cfg    *config.Config
	table  stages.Table
	bus    *events.Bus
	store  sessions.Store
	logger *storage.EventLogger
	client *api.Client
	ctrl   *stages.Controller
	runner *wizard.Runner
}

func newWizardRuntime(cmd *cli.Command) (*wizardRuntime, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	return buildRuntime(cfg)
}

func buildRuntime(cfg *config.Config) (*wizardRuntime, error) {
	table, err := stages.FromConfig(cfg.Stages)
	if err != nil {
		return nil, fmt.Errorf("stage table: %w", err)
	}

	store, err := sessions.Open(cfg.Storage.Driver, cfg.Storage.Dir)
	if err != nil {
		return nil, fmt.Errorf("open session store: %w", err)
	}

	bus := events.NewBus(cfg.Events.BufferSize)
	logger := storage.NewEventLogger(cfg.Events.LogDir, bus)
	client := api.New(cfg.Backend, nil)
	ctrl := stages.NewController(table, store, bus)

	return &wizardRuntime{
		cfg:    cfg,
		table:  table,
		bus:    bus,
		store:  store,
		logger: logger,
		client: client,
		ctrl:   ctrl,
		runner: wizard.NewRunner(wizard.Config{
			Controller: ctrl,
			Backend:    client,
			Store:      store,
			Bus:        bus,
			OutputDir:  cfg.Output.Dir,
		}),
	}, nil
}

// Close flushes pending events and releases the store.
func (rt *wizardRuntime) Close() {
	if !rt.bus.Flush(2 * time.Second) {
		slog.Debug("event bus not drained before exit")
	}
	rt.logger.Close()
	rt.bus.Close()
	if err := rt.store.Close(); err != nil {
		slog.Warn("close session store", "error", err)
	}
}

// activeStage reports the active session's stage index without creating a
// session; ok is false when there is none.
func (rt *wizardRuntime) activeStage() (*sessions.Session, bool) {
	token, err := rt.store.Active()
	if err != nil || token == "" {
		return nil, false
	}
	s, err := rt.store.Get(token)
	if err != nil {
		return nil, false
	}
	return s, true
}

func stageLabel(table stages.Table, sc stages.Context) string {
	st, _ := table.At(sc.Index)
	return fmt.Sprintf("stage %d/%d: %s (%s)", sc.Index+1, len(table), st.Title, sc.Mode)
}
