package commands

import (
	"fmt"
	"strings"

	"github.com/dohr-michael/pairvox/internal/assistant"
	"github.com/dohr-michael/pairvox/internal/config"
	"github.com/dohr-michael/pairvox/internal/console"
	"github.com/dohr-michael/pairvox/internal/events"
	"github.com/dohr-michael/pairvox/internal/shell"
	"github.com/dohr-michael/pairvox/internal/snippets"
	"github.com/dohr-michael/pairvox/internal/speech"
	"github.com/dohr-michael/pairvox/internal/storage"
)

// app holds the long-lived pieces shared by chat and replay.
type app struct {
	cfg     *config.Config
	console *console.Console
	bus     *events.Bus
	logger  *storage.EventLogger
}

func newApp(cfg *config.Config) *app {
	bus := events.NewBus(cfg.Events.BufferSize)
	return &app{
		cfg:     cfg,
		console: console.Stdio(),
		bus:     bus,
		logger:  storage.NewEventLogger(config.LogsPath(), bus),
	}
}

// Close flushes pending events to the log.
func (a *app) Close() {
	a.bus.Close()
	a.logger.Close()
}

// pipeline wires the speech sink, shell executor and file writer for a reply.
func (a *app) pipeline(mute bool) (assistant.PipelineConfig, error) {
	sink, err := newSpeechSink(a.cfg.Speech, mute)
	if err != nil {
		return assistant.PipelineConfig{}, err
	}
	files, err := snippets.NewFileWriter(a.cfg.HomeDir, a.cfg.Snippets.Deny)
	if err != nil {
		return assistant.PipelineConfig{}, err
	}
	exec := newExecutor(a.cfg.Shell)
	dispatcher := snippets.NewDispatcher(files, exec, a.console, a.console)

	return assistant.PipelineConfig{
		Speech:   speech.NewDispatcher(sink),
		Snippets: dispatcher,
		Drain:    assistant.DrainPoint(a.cfg.Snippets.Drain),
		Echo:     a.console,
		Bus:      a.bus,
	}, nil
}

// summarize prints what a reply did beyond its text.
func (a *app) summarize(r assistant.Report) {
	a.console.Echo("\n")
	for _, d := range r.Diagnostics {
		a.console.Diagnostic(d)
	}
	if r.Unterminated != nil {
		a.console.Hint(fmt.Sprintf("discarded unterminated %s block (%d bytes)", headerLabel(r.Unterminated.Header.Language), len(r.Unterminated.Body)))
	}
	if r.Halted && len(r.Remaining) > 0 {
		a.console.Hint(fmt.Sprintf("halted: %d code block(s) not processed", len(r.Remaining)))
	}
}

func headerLabel(language string) string {
	if strings.TrimSpace(language) == "" {
		return "code"
	}
	return language
}

func newSpeechSink(cfg config.SpeechConfig, mute bool) (speech.Sink, error) {
	if mute {
		return speech.Discard{}, nil
	}
	switch cfg.Driver {
	case config.SpeechSay:
		return speech.NewCommandSink(speech.DefaultSayCommand)
	case config.SpeechCommand:
		return speech.NewCommandSink(cfg.Command)
	case config.SpeechElevenLabs:
		return speech.NewElevenLabsSink(speech.ElevenLabsConfig{
			APIKey:  cfg.ElevenLabs.APIKey,
			VoiceID: cfg.ElevenLabs.VoiceID,
			ModelID: cfg.ElevenLabs.ModelID,
			BaseURL: cfg.ElevenLabs.BaseURL,
			Player:  cfg.ElevenLabs.Player,
		})
	case config.SpeechNone:
		return speech.Discard{}, nil
	default:
		return nil, fmt.Errorf("speech: unknown driver %q", cfg.Driver)
	}
}

func newExecutor(cfg config.ShellConfig) shell.Executor {
	opts := shell.Options{Dir: cfg.Dir, Timeout: cfg.Timeout.Duration()}
	if cfg.Driver == config.ShellInterp {
		return shell.NewInterpRunner(opts)
	}
	return shell.NewExecRunner(cfg.Shell, opts)
}
