package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/dohr-michael/stagewise/internal/config"
	"github.com/dohr-michael/stagewise/internal/heartbeat"
	"github.com/dohr-michael/stagewise/internal/mockbackend"
)

// NewMockCommand returns the mock subcommand.
func NewMockCommand() *cli.Command {
	return &cli.Command{
		Name:  "mock",
		Usage: "Run a local mock of the chat and diagram backend",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "host",
				Usage: "Host to listen on",
			},
			&cli.IntFlag{
				Name:  "port",
				Usage: "Port to listen on",
			},
		},
		Action: runMock,
	}
}

func runMock(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	// CLI flags override config
	if cmd.IsSet("host") {
		cfg.Mock.Host = cmd.String("host")
	}
	if cmd.IsSet("port") {
		cfg.Mock.Port = int(cmd.Int("port"))
	}

	server := mockbackend.NewServer(cfg.Mock.Host, cfg.Mock.Port)

	hb := heartbeat.NewWriter(config.MockHeartbeatPath(),
		net.JoinHostPort(cfg.Mock.Host, strconv.Itoa(cfg.Mock.Port)), 30*time.Second)
	if err := hb.Start(); err != nil {
		return fmt.Errorf("start heartbeat: %w", err)
	}
	defer hb.Stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	select {
	case <-ctx.Done():
		slog.Info("shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
