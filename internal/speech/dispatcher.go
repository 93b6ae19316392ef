package speech

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// Dispatcher feeds prose into a Buffer and plays sealed sentences on a Sink.
// When the sink is free every queued sentence goes out as one job; while it
// is busy sentences accumulate. Dispatch is checked on boundary events only.
type Dispatcher struct {
	sink    Sink
	buf     *Buffer
	pending []string

	// OnSentence, when set, observes every sealed sentence.
	OnSentence func(sentence string)
}

// NewDispatcher creates a dispatcher bound to sink.
func NewDispatcher(sink Sink) *Dispatcher {
	return &Dispatcher{
		sink: sink,
		buf:  NewBuffer(),
	}
}

// OnProse appends a run of prose text.
func (d *Dispatcher) OnProse(ctx context.Context, text string) error {
	sentence, ok := d.buf.Add(text)
	if !ok {
		return nil
	}
	d.seal(sentence)
	if d.sink.Busy() {
		slog.Debug("speech: slot busy, queued", "pending", len(d.pending))
		return nil
	}
	return d.submit(ctx)
}

// Flush seals the remainder, plays everything still queued and blocks until
// playback completes.
func (d *Dispatcher) Flush(ctx context.Context) error {
	if rest := d.buf.Flush(); strings.TrimSpace(rest) != "" {
		d.seal(rest)
	}
	if len(d.pending) > 0 {
		if err := d.sink.Wait(ctx); err != nil {
			return fmt.Errorf("speech: wait: %w", err)
		}
		if err := d.submit(ctx); err != nil {
			return err
		}
	}
	if err := d.sink.Wait(ctx); err != nil {
		return fmt.Errorf("speech: wait: %w", err)
	}
	return nil
}

// Pending returns the sealed sentences not yet submitted.
func (d *Dispatcher) Pending() []string {
	return append([]string(nil), d.pending...)
}

func (d *Dispatcher) seal(sentence string) {
	d.pending = append(d.pending, sentence)
	if d.OnSentence != nil {
		d.OnSentence(sentence)
	}
}

func (d *Dispatcher) submit(ctx context.Context) error {
	if len(d.pending) == 0 {
		return nil
	}
	text := strings.Join(d.pending, "")
	n := len(d.pending)
	d.pending = d.pending[:0]

	slog.Debug("speech: submit", "sentences", n, "chars", len(text))
	if err := d.sink.Submit(ctx, text); err != nil {
		return fmt.Errorf("speech: submit: %w", err)
	}
	return nil
}
