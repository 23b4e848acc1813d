package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v3"

	"github.com/dohr-michael/stagewise/clients/api"
	"github.com/dohr-michael/stagewise/clients/tui"
	"github.com/dohr-michael/stagewise/internal/config"
)

// NewTUICommand returns the tui subcommand.
func NewTUICommand() *cli.Command {
	return &cli.Command{
		Name:   "tui",
		Usage:  "Launch the interactive wizard",
		Action: runTUI,
	}
}

func runTUI(ctx context.Context, cmd *cli.Command) error {
	rt, err := newWizardRuntime(cmd)
	if err != nil {
		return err
	}
	defer rt.Close()

	// The alt screen owns stderr while the program runs.
	if err := os.MkdirAll(rt.cfg.Events.LogDir, 0o755); err != nil {
		return fmt.Errorf("create log dir: %w", err)
	}
	logFile, err := os.OpenFile(filepath.Join(rt.cfg.Events.LogDir, "tui.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open tui log: %w", err)
	}
	defer logFile.Close()
	prev := slog.Default()
	level := slog.LevelInfo
	if cmd.Bool("debug") {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(logFile, &slog.HandlerOptions{Level: level})))
	defer slog.SetDefault(prev)

	reloader := config.NewReloader(cmd.String("config"), config.DotenvPath(), rt.cfg)
	if cmd.IsSet("backend") {
		reloader.PinBackendURL(cmd.String("backend"))
	}
	reloader.OnBackendChange(func(bc config.BackendConfig) {
		slog.Info("backend changed", "url", bc.URL)
		rt.runner.SetBackend(api.New(bc, nil))
	})

	return tui.Run(ctx, tui.Options{
		Runner:     rt.runner,
		BackendURL: rt.client.BaseURL(),
		History:    rt.bus.History,
		Reload: func() (string, error) {
			if _, err := reloader.Reload(); err != nil {
				return "", err
			}
			return api.New(reloader.Current().Backend, nil).BaseURL(), nil
		},
	})
}
