package console

import (
	"context"
	"strings"
)

// Recorder captures one utterance from the operator.
type Recorder interface {
	Record(ctx context.Context) (string, error)
}

// LineRecorder stands in for speech-to-text by reading a typed line.
// Blank lines are skipped.
type LineRecorder struct {
	console *Console
	prompt  string
}

// NewLineRecorder reads from c, showing prompt before each line.
func NewLineRecorder(c *Console, prompt string) *LineRecorder {
	return &LineRecorder{console: c, prompt: prompt}
}

// Record returns the next non-blank line.
func (r *LineRecorder) Record(ctx context.Context) (string, error) {
	for {
		text, err := r.console.Prompt(ctx, r.prompt)
		if err != nil {
			return "", err
		}
		if text = strings.TrimSpace(text); text != "" {
			return text, nil
		}
	}
}

var _ Recorder = (*LineRecorder)(nil)
