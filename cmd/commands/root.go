package commands

import (
	"github.com/urfave/cli/v3"

	"github.com/dohr-michael/stagewise/internal/config"
)

// NewRootCommand returns the top-level CLI command.
func NewRootCommand() *cli.Command {
	return &cli.Command{
		Name:  "stagewise",
		Usage: "Guided, staged requirements gathering against a chat backend",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to config file",
				Value:   config.ConfigPath(),
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "Enable debug logging",
			},
			&cli.StringFlag{
				Name:  "backend",
				Usage: "Backend base URL (overrides config)",
			},
		},
		Before: setupLogging,
		Commands: []*cli.Command{
			NewAskCommand(),
			NewNextCommand(),
			NewResetCommand(),
			NewStatusCommand(),
			NewStagesCommand(),
			NewSessionsCommand(),
			NewTUICommand(),
			NewMockCommand(),
		},
	}
}
