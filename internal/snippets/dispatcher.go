package snippets

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dohr-michael/pairvox/internal/shell"
)

// Action is what was done with a snippet.
type Action string

const (
	ActionFile  Action = "file"
	ActionShell Action = "shell"
)

// Outcome records the action taken for one snippet.
type Outcome struct {
	Snippet Snippet       `json:"snippet"`
	Action  Action        `json:"action"`
	Path    string        `json:"path,omitempty"`
	Shell   *shell.Result `json:"shell,omitempty"`
}

// Failed reports whether a shell run exited non-zero.
func (o Outcome) Failed() bool {
	return o.Action == ActionShell && o.Shell != nil && !o.Shell.OK()
}

// Decider chooses what to do with a snippet that has no filename.
type Decider interface {
	Decide(ctx context.Context, s Snippet) (Decision, error)
}

// Reporter is told about every completed action.
type Reporter interface {
	Report(o Outcome)
}

// Dispatcher routes snippets to the file writer or the shell.
type Dispatcher struct {
	files    *FileWriter
	exec     shell.Executor
	decider  Decider
	reporter Reporter
}

// NewDispatcher wires a dispatcher. reporter may be nil.
func NewDispatcher(files *FileWriter, exec shell.Executor, decider Decider, reporter Reporter) *Dispatcher {
	return &Dispatcher{files: files, exec: exec, decider: decider, reporter: reporter}
}

// Process handles one snippet. A header filename is written directly;
// otherwise the decider is asked until it picks a file or the shell.
func (d *Dispatcher) Process(ctx context.Context, s Snippet) (Outcome, error) {
	if s.Header.HasFilename() {
		return d.write(s, s.Header.Filename)
	}

	for {
		dec, err := d.decider.Decide(ctx, s)
		if err != nil {
			return Outcome{}, fmt.Errorf("decide: %w", err)
		}
		slog.Debug("snippets: decision", "id", s.ID, "decision", dec.String())

		switch dec := dec.(type) {
		case DecisionFile:
			return d.write(s, dec.Filename)
		case DecisionShell:
			return d.run(ctx, s)
		case DecisionDrop:
			continue
		default:
			return Outcome{}, fmt.Errorf("unknown decision %T", dec)
		}
	}
}

func (d *Dispatcher) write(s Snippet, name string) (Outcome, error) {
	path, err := d.files.Write(name, s.Body)
	if err != nil {
		return Outcome{}, err
	}
	out := Outcome{Snippet: s, Action: ActionFile, Path: path}
	d.report(out)
	return out, nil
}

func (d *Dispatcher) run(ctx context.Context, s Snippet) (Outcome, error) {
	res, err := d.exec.Run(ctx, s.Body)
	if err != nil {
		return Outcome{}, err
	}
	out := Outcome{Snippet: s, Action: ActionShell, Shell: &res}
	d.report(out)
	return out, nil
}

func (d *Dispatcher) report(o Outcome) {
	if d.reporter != nil {
		d.reporter.Report(o)
	}
}

var _ Processor = (*Dispatcher)(nil)
