package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/dohr-michael/stagewise/internal/stages"
)

// NewNextCommand returns the next subcommand.
func NewNextCommand() *cli.Command {
	return &cli.Command{
		Name:  "next",
		Usage: "Advance the active session to the next stage",
		Action: func(_ context.Context, cmd *cli.Command) error {
			rt, err := newWizardRuntime(cmd)
			if err != nil {
				return err
			}
			defer rt.Close()

			sc, err := rt.runner.Next()
			if errors.Is(err, stages.ErrLastStage) {
				return fmt.Errorf("%w (%s); use `stagewise reset` to start over", err, stageLabel(rt.table, sc))
			}
			if err != nil {
				return err
			}
			fmt.Println(stageLabel(rt.table, sc))
			return nil
		},
	}
}

// NewResetCommand returns the reset subcommand.
func NewResetCommand() *cli.Command {
	return &cli.Command{
		Name:  "reset",
		Usage: "Start a new session at the first stage",
		Action: func(_ context.Context, cmd *cli.Command) error {
			rt, err := newWizardRuntime(cmd)
			if err != nil {
				return err
			}
			defer rt.Close()

			sc, err := rt.runner.Reset()
			if err != nil {
				return err
			}
			fmt.Printf("session: %s\n%s\n", sc.Token, stageLabel(rt.table, sc))
			return nil
		},
	}
}
