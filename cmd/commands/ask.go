package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/urfave/cli/v3"
	"golang.org/x/term"

	"github.com/dohr-michael/stagewise/clients/api"
	"github.com/dohr-michael/stagewise/clients/tui/atoms"
	"github.com/dohr-michael/stagewise/internal/wizard"
)

// NewAskCommand returns the ask subcommand.
func NewAskCommand() *cli.Command {
	return &cli.Command{
		Name:      "ask",
		Usage:     "Send one message for the current stage and print the reply",
		ArgsUsage: "<text>",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "raw",
				Usage: "Print replies without markdown rendering",
			},
		},
		Action: runAsk,
	}
}

func runAsk(ctx context.Context, cmd *cli.Command) error {
	if cmd.Args().Len() == 0 {
		return fmt.Errorf("usage: stagewise ask <text>")
	}
	text := strings.Join(cmd.Args().Slice(), " ")

	rt, err := newWizardRuntime(cmd)
	if err != nil {
		return err
	}
	defer rt.Close()

	sc, err := rt.runner.Context()
	if err != nil {
		return fmt.Errorf("load session: %w", err)
	}
	fmt.Fprintln(os.Stderr, stageLabel(rt.table, sc))

	turn, err := rt.runner.Send(ctx, text)
	if err != nil {
		return err
	}

	width := 0
	if !cmd.Bool("raw") && term.IsTerminal(int(os.Stdout.Fd())) {
		width = 80
		if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
			width = w
		}
	}
	printTurn(os.Stdout, turn, width)
	return nil
}

// printTurn writes a reply. A width > 0 renders markdown at that width.
func printTurn(w io.Writer, turn *wizard.Turn, width int) {
	switch rep := turn.Reply.(type) {
	case api.TextReply:
		if width > 0 {
			fmt.Fprintln(w, atoms.RenderMarkdown(rep.Text, width))
			return
		}
		fmt.Fprintln(w, rep.Text)
	case api.ImageSetReply:
		fmt.Fprintf(w, "saved %d diagram(s):\n", len(turn.Files))
		for _, f := range turn.Files {
			fmt.Fprintf(w, "  %s\n", f)
		}
		if turn.SaveErr != nil {
			fmt.Fprintf(w, "warning: %d of %d diagram(s) not saved: %v\n",
				len(rep.Images)-len(turn.Files), len(rep.Images), turn.SaveErr)
		}
	}
}
