package speech

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
)

// TextPlaceholder marks the argument replaced by the spoken text. A command
// without it receives the text as its last argument.
const TextPlaceholder = "{text}"

// DefaultSayCommand speaks through the macOS say(1) utility.
var DefaultSayCommand = []string{"say", "-r", "200", "-v", "samantha"}

// CommandSink speaks each job by running an external command.
type CommandSink struct {
	argv []string
	slot slot
}

// NewCommandSink creates a sink running argv for each job.
func NewCommandSink(argv []string) (*CommandSink, error) {
	if len(argv) == 0 || strings.TrimSpace(argv[0]) == "" {
		return nil, errors.New("speech: command is required")
	}
	return &CommandSink{argv: append([]string(nil), argv...)}, nil
}

// Submit starts the command. A failure to spawn it is returned directly.
func (s *CommandSink) Submit(ctx context.Context, text string) error {
	return s.slot.start(func() (func() error, error) {
		args := expandArgs(s.argv[1:], text)
		cmd := exec.CommandContext(ctx, s.argv[0], args...)
		var stderr bytes.Buffer
		cmd.Stderr = &stderr

		if err := cmd.Start(); err != nil {
			return nil, fmt.Errorf("speech: start %s: %w", s.argv[0], err)
		}
		slog.Debug("speech: playing", "command", s.argv[0], "chars", len(text))

		return func() error {
			if err := cmd.Wait(); err != nil {
				return fmt.Errorf("speech: %s: %w: %s", s.argv[0], err, strings.TrimSpace(stderr.String()))
			}
			return nil
		}, nil
	})
}

// Busy reports whether a command is still running.
func (s *CommandSink) Busy() bool {
	return s.slot.busy()
}

// Wait blocks until the running command exits.
func (s *CommandSink) Wait(ctx context.Context) error {
	return s.slot.wait(ctx)
}

func expandArgs(args []string, text string) []string {
	out := make([]string, 0, len(args)+1)
	replaced := false
	for _, a := range args {
		if strings.Contains(a, TextPlaceholder) {
			a = strings.ReplaceAll(a, TextPlaceholder, text)
			replaced = true
		}
		out = append(out, a)
	}
	if !replaced {
		out = append(out, text)
	}
	return out
}

var _ Sink = (*CommandSink)(nil)
