// Package assistant drives one model reply through the fence router into the
// speech dispatcher and the snippet queue, and keeps the chat turn loop.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/dohr-michael/pairvox/internal/events"
	"github.com/dohr-michael/pairvox/internal/fence"
	"github.com/dohr-michael/pairvox/internal/models"
	"github.com/dohr-michael/pairvox/internal/snippets"
	"github.com/dohr-michael/pairvox/internal/speech"
)

// DrainPoint selects when sealed snippets are processed.
type DrainPoint string

const (
	// DrainAtEnd processes the queue once the reply has ended.
	DrainAtEnd DrainPoint = "end"
	// DrainOnClose processes each snippet as soon as its fence closes.
	DrainOnClose DrainPoint = "close"
)

// PipelineConfig wires the consumers of a reply.
type PipelineConfig struct {
	Speech   *speech.Dispatcher
	Snippets snippets.Processor
	Drain    DrainPoint
	// Echo receives the raw reply text as it arrives. May be nil.
	Echo io.Writer
	// Bus receives routing events. May be nil.
	Bus       *events.Bus
	SessionID string
}

// Report is everything one reply produced.
type Report struct {
	Reply     string
	Fragments int
	snippets.Result
	// Unterminated is the code block cut off by the end of the stream.
	Unterminated *snippets.Snippet
	Diagnostics  []string
}

// Pipeline routes one reply. Create a new one per reply.
type Pipeline struct {
	cfg    PipelineConfig
	router *fence.Router
	queue  *snippets.Queue
	reply  strings.Builder
	report Report
	done   bool
}

// NewPipeline creates a pipeline for a single reply.
func NewPipeline(cfg PipelineConfig) *Pipeline {
	if cfg.Drain == "" {
		cfg.Drain = DrainAtEnd
	}
	p := &Pipeline{
		cfg:    cfg,
		router: fence.NewRouter(),
		queue:  snippets.NewQueue(),
	}
	if cfg.Bus != nil {
		cfg.Speech.OnSentence = func(sentence string) {
			cfg.Bus.Publish(events.NewTypedEventWithSession(events.SourceSpeech, events.SentencePayload{Text: sentence}, cfg.SessionID))
		}
	}
	return p
}

// Run consumes src until io.EOF and finishes the reply. A broken stream is
// not drained: the speech already queued is played, then the error returned.
func (p *Pipeline) Run(ctx context.Context, src models.TokenSource) (Report, error) {
	defer src.Close()

	for {
		fragment, err := src.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			if ferr := p.cfg.Speech.Flush(ctx); ferr != nil {
				slog.Warn("assistant: flush after stream error", "error", ferr)
			}
			p.report.Reply = p.reply.String()
			p.streamPhase(events.StreamPhaseEnd)
			return p.report, fmt.Errorf("assistant: stream: %w", err)
		}
		if err := p.Feed(ctx, fragment); err != nil {
			return p.report, err
		}
	}
	return p.Finish(ctx)
}

// Feed routes one fragment.
func (p *Pipeline) Feed(ctx context.Context, fragment string) error {
	if fragment == "" {
		return nil
	}
	if p.report.Fragments == 0 {
		p.streamPhase(events.StreamPhaseStart)
	}
	p.report.Fragments++
	p.reply.WriteString(fragment)
	if p.cfg.Echo != nil {
		if _, err := io.WriteString(p.cfg.Echo, fragment); err != nil {
			// A failing echo writer never fails the reply.
			slog.Warn("assistant: echo disabled", "error", err)
			p.cfg.Echo = nil
		}
	}
	return p.handle(ctx, p.router.Feed(fragment))
}

// Finish flushes the router and the sentence buffer, then drains the snippet
// queue. Speech playback completes before any snippet is processed.
func (p *Pipeline) Finish(ctx context.Context) (Report, error) {
	if p.done {
		return p.report, nil
	}
	p.done = true
	p.report.Reply = p.reply.String()
	p.streamPhase(events.StreamPhaseEnd)

	if err := p.handle(ctx, p.router.Finish()); err != nil {
		return p.report, err
	}
	if err := p.cfg.Speech.Flush(ctx); err != nil {
		return p.report, err
	}
	if err := p.drain(ctx); err != nil {
		return p.report, err
	}
	return p.report, nil
}

func (p *Pipeline) handle(ctx context.Context, evs []fence.Event) error {
	for _, e := range evs {
		switch e.Kind {
		case fence.KindProse:
			if err := p.cfg.Speech.OnProse(ctx, e.Text); err != nil {
				return err
			}
		case fence.KindCodeOpen:
			p.queue.Open(e.Header)
		case fence.KindCodeChars:
			p.queue.Append(e.Text)
		case fence.KindCodeClose:
			s, err := p.queue.Close()
			if err != nil {
				return fmt.Errorf("assistant: %w", err)
			}
			p.publish(events.SnippetSealedPayload{
				SnippetID: s.ID,
				Language:  s.Header.Language,
				Filename:  s.Header.Filename,
				Bytes:     len(s.Body),
			})
			if p.cfg.Drain == DrainOnClose {
				if err := p.drain(ctx); err != nil {
					return err
				}
			}
		case fence.KindMalformed:
			p.malformed(e.Text)
		}
	}
	return nil
}

func (p *Pipeline) malformed(reason string) {
	slog.Warn("assistant: malformed reply", "reason", reason)
	p.report.Diagnostics = append(p.report.Diagnostics, reason)
	if s, ok := p.queue.Abandon(); ok {
		p.report.Unterminated = &s
	}
	p.publish(events.FenceMalformedPayload{Reason: reason})
}

// drain processes the queued snippets. Once the reply has halted, later
// snippets are kept but never processed.
func (p *Pipeline) drain(ctx context.Context) error {
	if p.report.Halted {
		p.report.Remaining = append(p.report.Remaining, p.queue.Take()...)
		return nil
	}
	if p.queue.Len() == 0 {
		return nil
	}
	res, err := p.queue.Drain(ctx, p.cfg.Snippets)
	p.report.Merge(res)
	for _, o := range res.Outcomes {
		p.publish(outcomePayload(o, res.Failure != nil && res.Failure.Snippet.ID == o.Snippet.ID))
	}
	if err != nil {
		return fmt.Errorf("assistant: %w", err)
	}
	return nil
}

func (p *Pipeline) publish(payload events.EventPayload) {
	if p.cfg.Bus == nil {
		return
	}
	source := events.SourceSnippets
	switch payload.(type) {
	case events.FenceMalformedPayload, events.AssistantStreamPayload:
		source = events.SourceAssistant
	}
	p.cfg.Bus.Publish(events.NewTypedEventWithSession(source, payload, p.cfg.SessionID))
}

// streamPhase marks the start and end of the reply stream. Individual
// fragments are not published; Index counts them at the end.
func (p *Pipeline) streamPhase(phase events.StreamPhase) {
	p.publish(events.AssistantStreamPayload{Phase: phase, Index: p.report.Fragments})
}

func outcomePayload(o snippets.Outcome, halted bool) events.SnippetOutcomePayload {
	payload := events.SnippetOutcomePayload{
		SnippetID: o.Snippet.ID,
		Action:    string(o.Action),
		Path:      o.Path,
		Halted:    halted,
	}
	if o.Shell != nil {
		payload.ExitCode = o.Shell.ExitCode
		payload.Stdout = o.Shell.Stdout
		payload.Stderr = o.Shell.Stderr
	}
	return payload
}
