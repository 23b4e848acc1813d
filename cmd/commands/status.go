package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/dohr-michael/stagewise/internal/config"
	"github.com/dohr-michael/stagewise/internal/heartbeat"
	"github.com/dohr-michael/stagewise/internal/sessions"
	"github.com/dohr-michael/stagewise/internal/stages"
)

// NewStatusCommand returns the status subcommand.
func NewStatusCommand() *cli.Command {
	return &cli.Command{
		Name:  "status",
		Usage: "Show the active session and backend",
		Action: func(_ context.Context, cmd *cli.Command) error {
			rt, err := newWizardRuntime(cmd)
			if err != nil {
				return err
			}
			defer rt.Close()

			fmt.Printf("Backend: %s\n", rt.client.BaseURL())
			printMock(os.Stdout, config.MockHeartbeatPath())
			s, ok := rt.activeStage()
			if !ok {
				fmt.Println("Session: none (run `stagewise ask` or `stagewise reset`)")
				return nil
			}
			printStatus(os.Stdout, rt.table, s)
			return nil
		},
	}
}

func printStatus(w io.Writer, table stages.Table, s *sessions.Session) {
	fmt.Fprintf(w, "Session: %s (%s)\n", s.Token, s.Status)
	fmt.Fprintf(w, "Stage:   %s\n", stageLabel(table, table.ContextAt(s.StageIndex, s.Token)))
	fmt.Fprintf(w, "Turns:   %d messages\n", s.MessageCount)
	fmt.Fprintf(w, "Updated: %s\n", s.UpdatedAt.Local().Format("2006-01-02 15:04"))
}

// printMock reports a local mock backend started with `stagewise mock`.
func printMock(w io.Writer, path string) {
	status, hb, err := heartbeat.Check(path, 2*time.Minute)
	switch {
	case err != nil:
		fmt.Fprintf(w, "Mock:    unknown (%v)\n", err)
	case status == heartbeat.StatusAlive:
		fmt.Fprintf(w, "Mock:    running on %s (PID %d, uptime %s)\n", hb.Addr, hb.PID, hb.Uptime())
	case status == heartbeat.StatusStale:
		fmt.Fprintf(w, "Mock:    stale (PID %d, last heartbeat %s ago)\n",
			hb.PID, time.Since(hb.Timestamp).Truncate(time.Second))
	default:
		fmt.Fprintln(w, "Mock:    not running")
	}
}

// NewStagesCommand returns the stages subcommand.
func NewStagesCommand() *cli.Command {
	return &cli.Command{
		Name:  "stages",
		Usage: "List the wizard stages",
		Action: func(_ context.Context, cmd *cli.Command) error {
			rt, err := newWizardRuntime(cmd)
			if err != nil {
				return err
			}
			defer rt.Close()

			current := -1
			if s, ok := rt.activeStage(); ok {
				current = s.StageIndex
			}
			return printStages(os.Stdout, rt.table, current)
		},
	}
}

func printStages(out io.Writer, table stages.Table, current int) error {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, " \t#\tID\tTITLE\tMODE\tAGENT")
	for i, st := range table {
		mark := " "
		if i == current {
			mark = "*"
		}
		agent := "-"
		if st.Mode == stages.ModeText {
			agent = fmt.Sprint(st.AgentID)
		}
		fmt.Fprintf(w, "%s\t%d\t%s\t%s\t%s\t%s\n", mark, i+1, st.ID, st.Title, st.Mode, agent)
	}
	return w.Flush()
}
