package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"

	"github.com/dohr-michael/stagewise/internal/events"
	"github.com/dohr-michael/stagewise/internal/sessions"
	"github.com/dohr-michael/stagewise/internal/stages"
	"github.com/dohr-michael/stagewise/internal/storage"
)

// NewSessionsCommand returns the sessions subcommand.
func NewSessionsCommand() *cli.Command {
	return &cli.Command{
		Name:  "sessions",
		Usage: "Manage wizard sessions",
		Commands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List all sessions",
				Flags:  []cli.Flag{formatFlag()},
				Action: runSessionsList,
			},
			{
				Name:      "show",
				Usage:     "Show the transcript of a session",
				ArgsUsage: "<token>",
				Flags: []cli.Flag{
					formatFlag(),
					&cli.BoolFlag{
						Name:  "events",
						Usage: "Show the event log instead of the transcript",
					},
				},
				Action: runSessionsShow,
			},
			{
				Name:      "resume",
				Usage:     "Make a session the active one",
				ArgsUsage: "<token>",
				Action:    runSessionsResume,
			},
		},
		DefaultCommand: "list",
	}
}

func formatFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "format",
		Aliases: []string{"f"},
		Usage:   "Output format: text, json or yaml",
		Value:   "text",
	}
}

func checkFormat(format string) error {
	switch format {
	case "text", "json", "yaml":
		return nil
	}
	return fmt.Errorf("unknown format %q (want text, json or yaml)", format)
}

func runSessionsList(_ context.Context, cmd *cli.Command) error {
	if err := checkFormat(cmd.String("format")); err != nil {
		return err
	}
	rt, err := newWizardRuntime(cmd)
	if err != nil {
		return err
	}
	defer rt.Close()

	list, err := rt.store.List()
	if err != nil {
		return fmt.Errorf("list sessions: %w", err)
	}
	active, _ := rt.store.Active()
	return writeSessions(os.Stdout, rt.table, list, active, cmd.String("format"))
}

func runSessionsShow(_ context.Context, cmd *cli.Command) error {
	token := cmd.Args().First()
	if token == "" {
		return fmt.Errorf("usage: stagewise sessions show <token>")
	}
	if err := checkFormat(cmd.String("format")); err != nil {
		return err
	}

	rt, err := newWizardRuntime(cmd)
	if err != nil {
		return err
	}
	defer rt.Close()

	if cmd.Bool("events") {
		evts, err := storage.ReadEvents(rt.cfg.Events.LogDir, token)
		if err != nil {
			return fmt.Errorf("read events: %w", err)
		}
		return writeEvents(os.Stdout, evts, cmd.String("format"))
	}

	msgs, err := rt.store.LoadMessages(token)
	if err != nil {
		return fmt.Errorf("load messages: %w", err)
	}
	return writeTranscript(os.Stdout, rt.table, msgs, cmd.String("format"))
}

func runSessionsResume(_ context.Context, cmd *cli.Command) error {
	token := cmd.Args().First()
	if token == "" {
		return fmt.Errorf("usage: stagewise sessions resume <token>")
	}

	rt, err := newWizardRuntime(cmd)
	if err != nil {
		return err
	}
	defer rt.Close()

	sc, err := rt.ctrl.Resume(token)
	if err != nil {
		return err
	}
	fmt.Printf("session: %s\n%s\n", sc.Token, stageLabel(rt.table, sc))
	return nil
}

func writeSessions(out io.Writer, table stages.Table, list []*sessions.Session, active, format string) error {
	switch format {
	case "json", "yaml":
		if list == nil {
			list = []*sessions.Session{}
		}
		return encode(out, list, format)
	}

	if len(list) == 0 {
		fmt.Fprintln(out, "No sessions found.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, " \tTOKEN\tSTATUS\tSTAGE\tMESSAGES\tUPDATED")
	for _, s := range list {
		mark := " "
		if s.Token == active {
			mark = "*"
		}
		stage := "-"
		if st, ok := table.At(s.StageIndex); ok {
			stage = fmt.Sprintf("%d/%d %s", s.StageIndex+1, len(table), st.ID)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%s\n",
			mark,
			s.Token,
			s.Status,
			stage,
			s.MessageCount,
			s.UpdatedAt.Local().Format("2006-01-02 15:04"),
		)
	}
	return w.Flush()
}

func writeTranscript(out io.Writer, table stages.Table, msgs []sessions.Message, format string) error {
	switch format {
	case "json", "yaml":
		if msgs == nil {
			msgs = []sessions.Message{}
		}
		return encode(out, msgs, format)
	}

	if len(msgs) == 0 {
		fmt.Fprintln(out, "No messages in this session.")
		return nil
	}

	stage := -1
	for _, m := range msgs {
		if m.Stage != stage {
			stage = m.Stage
			title := fmt.Sprintf("stage %d", stage+1)
			if st, ok := table.At(stage); ok {
				title = fmt.Sprintf("%s: %s", title, st.Title)
			}
			fmt.Fprintf(out, "== %s ==\n", title)
		}
		content := m.Content
		if len(m.Images) > 0 {
			content = strings.Join(m.Images, ", ")
		}
		fmt.Fprintf(out, "[%s] %s: %s\n", m.Ts.Local().Format("15:04:05"), m.Role, content)
	}
	return nil
}

func writeEvents(out io.Writer, evts []events.Event, format string) error {
	switch format {
	case "json", "yaml":
		if evts == nil {
			evts = []events.Event{}
		}
		return encode(out, evts, format)
	}

	if len(evts) == 0 {
		fmt.Fprintln(out, "No events recorded for this session.")
		return nil
	}
	for _, e := range evts {
		fmt.Fprintf(out, "[%s] %-15s %s\n", e.Timestamp.Local().Format("15:04:05"), e.Type, e.Source)
	}
	return nil
}

func encode(out io.Writer, v any, format string) error {
	if format == "yaml" {
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
