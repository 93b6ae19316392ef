package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/urfave/cli/v3"

	"github.com/dohr-michael/pairvox/internal/config"
	"github.com/dohr-michael/pairvox/internal/sessions"
)

// NewSessionsCommand returns the sessions subcommand.
func NewSessionsCommand() *cli.Command {
	return &cli.Command{
		Name:  "sessions",
		Usage: "Inspect recorded conversations",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List sessions, most recently active first",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "limit", Aliases: []string{"n"}, Usage: "show at most N sessions (0 for all)"},
				},
				Action: runSessionsList,
			},
			{
				Name:      "show",
				Usage:     "Show messages and code block outcomes of a session",
				ArgsUsage: "<session_id>",
				Action:    runSessionsShow,
			},
		},
		DefaultCommand: "list",
	}
}

func newStore() *sessions.FileStore {
	return sessions.NewFileStore(config.SessionsPath())
}

func runSessionsList(_ context.Context, cmd *cli.Command) error {
	list, err := newStore().List()
	if err != nil {
		return fmt.Errorf("list sessions: %w", err)
	}
	if n := cmd.Int("limit"); n > 0 && n < len(list) {
		list = list[:n]
	}
	return printSessions(cmd.Root().Writer, list)
}

func runSessionsShow(_ context.Context, cmd *cli.Command) error {
	id := cmd.Args().First()
	if id == "" {
		return errors.New("usage: pairvox sessions show <session_id>")
	}

	store := newStore()
	if _, err := store.Get(id); err != nil {
		return err
	}
	msgs, err := store.LoadMessages(id)
	if err != nil {
		return fmt.Errorf("load messages: %w", err)
	}
	turns, err := store.LoadTurns(id)
	if err != nil {
		return fmt.Errorf("load turns: %w", err)
	}
	return printTranscript(cmd.Root().Writer, msgs, turns)
}

func printSessions(out io.Writer, list []*sessions.Session) error {
	if len(list) == 0 {
		_, err := fmt.Fprintln(out, "No sessions found.")
		return err
	}
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSTATUS\tMODEL\tTURNS\tUPDATED\tTITLE")
	for _, s := range list {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%s\n",
			s.ID, s.Status, orDash(s.Model), s.Turns,
			s.UpdatedAt.Format("2006-01-02 15:04"), orDash(s.Title))
	}
	return w.Flush()
}

// printTranscript writes the messages, system prompt excluded, then one
// table row per processed code block, halt and diagnostic.
func printTranscript(out io.Writer, msgs []sessions.Message, turns []sessions.Turn) error {
	shown := 0
	for _, m := range msgs {
		if m.Role == "system" {
			continue
		}
		fmt.Fprintf(out, "[%s] %s: %s\n", m.Ts.Format("15:04:05"), m.Role, m.Content)
		shown++
	}
	if shown == 0 {
		fmt.Fprintln(out, "No messages in this session.")
	}
	if len(turns) == 0 {
		return nil
	}

	fmt.Fprintln(out)
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TURN\tBLOCK\tACTION\tTARGET\tEXIT")
	for _, t := range turns {
		for _, s := range t.Snippets {
			target, exit := s.Path, "-"
			if s.ExitCode != nil {
				target, exit = s.Language, fmt.Sprint(*s.ExitCode)
			}
			fmt.Fprintf(w, "%d\t%d\t%s\t%s\t%s\n", t.Index, s.ID, s.Action, orDash(target), exit)
		}
		if t.Halted {
			fmt.Fprintf(w, "%d\t-\thalted\t%d unprocessed\t-\n", t.Index, t.Unprocessed)
		}
		for _, d := range t.Diagnostics {
			fmt.Fprintf(w, "%d\t-\twarning\t%s\t-\n", t.Index, d)
		}
	}
	return w.Flush()
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
