// Package snippets collects fenced code blocks from a reply and acts on them
// in discovery order: write them to a file or run them as shell commands.
package snippets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dohr-michael/pairvox/internal/fence"
)

// ErrNoOpenSnippet is returned when closing without a matching open.
var ErrNoOpenSnippet = errors.New("snippets: no open snippet")

// Snippet is one sealed code block.
type Snippet struct {
	ID     int          `json:"id"`
	Header fence.Header `json:"header"`
	Body   string       `json:"body"`
}

// Processor acts on a single snippet.
type Processor interface {
	Process(ctx context.Context, s Snippet) (Outcome, error)
}

// Result summarizes one drain of the queue.
type Result struct {
	Outcomes []Outcome `json:"outcomes,omitempty"`
	// Halted is set when a shell snippet exited non-zero.
	Halted bool `json:"halted"`
	// Failure is the outcome that halted the drain.
	Failure *Outcome `json:"failure,omitempty"`
	// Remaining are the snippets left unprocessed by a halt or an error.
	Remaining []Snippet `json:"remaining,omitempty"`
}

// Merge appends the outcomes of a later drain.
func (r *Result) Merge(other Result) {
	r.Outcomes = append(r.Outcomes, other.Outcomes...)
	r.Remaining = append(r.Remaining, other.Remaining...)
	if other.Halted && !r.Halted {
		r.Halted = true
		r.Failure = other.Failure
	}
}

// Queue accumulates the open snippet and holds sealed ones in FIFO order.
type Queue struct {
	open   *Snippet
	body   strings.Builder
	sealed []Snippet
	nextID int
}

// NewQueue creates an empty queue.
func NewQueue() *Queue {
	return &Queue{nextID: 1}
}

// Open starts a new snippet. An unsealed previous snippet is discarded.
func (q *Queue) Open(h fence.Header) {
	if q.open != nil {
		slog.Warn("snippets: discarding unsealed snippet", "id", q.open.ID)
	}
	q.open = &Snippet{ID: q.nextID, Header: h}
	q.nextID++
	q.body.Reset()
}

// Append adds body text to the open snippet. Text with nothing open is dropped.
func (q *Queue) Append(text string) {
	if q.open == nil {
		slog.Debug("snippets: append without open snippet", "len", len(text))
		return
	}
	q.body.WriteString(text)
}

// Close seals the open snippet and pushes it to the back of the queue.
func (q *Queue) Close() (Snippet, error) {
	if q.open == nil {
		return Snippet{}, ErrNoOpenSnippet
	}
	s := *q.open
	s.Body = q.body.String()
	q.open = nil
	q.body.Reset()
	q.sealed = append(q.sealed, s)
	slog.Debug("snippets: sealed", "id", s.ID, "header", s.Header.String(), "len", len(s.Body))
	return s, nil
}

// Abandon discards the open snippet without queueing it.
func (q *Queue) Abandon() (Snippet, bool) {
	if q.open == nil {
		return Snippet{}, false
	}
	s := *q.open
	s.Body = q.body.String()
	q.open = nil
	q.body.Reset()
	return s, true
}

// IsOpen reports whether a snippet is being accumulated.
func (q *Queue) IsOpen() bool {
	return q.open != nil
}

// Len returns the number of sealed snippets waiting.
func (q *Queue) Len() int {
	return len(q.sealed)
}

// Take empties the queue without processing and returns what it held.
func (q *Queue) Take() []Snippet {
	pending := q.sealed
	q.sealed = nil
	return pending
}

// Drain processes sealed snippets front to back. A non-zero shell exit halts
// the drain; the snippets after it are returned unprocessed. An error from p
// stops the drain and leaves the failing snippet first in Remaining.
// The queue is empty afterwards.
func (q *Queue) Drain(ctx context.Context, p Processor) (Result, error) {
	pending := q.sealed
	q.sealed = nil

	var res Result
	for i, s := range pending {
		if err := ctx.Err(); err != nil {
			res.Remaining = append(res.Remaining, pending[i:]...)
			return res, fmt.Errorf("snippets: drain: %w", err)
		}
		out, err := p.Process(ctx, s)
		if err != nil {
			res.Remaining = append(res.Remaining, pending[i:]...)
			return res, fmt.Errorf("snippets: snippet %d: %w", s.ID, err)
		}
		res.Outcomes = append(res.Outcomes, out)
		if out.Failed() {
			failure := out
			res.Halted = true
			res.Failure = &failure
			res.Remaining = append(res.Remaining, pending[i+1:]...)
			slog.Info("snippets: drain halted", "id", s.ID, "exit_code", out.Shell.ExitCode, "remaining", len(res.Remaining))
			return res, nil
		}
	}
	return res, nil
}
