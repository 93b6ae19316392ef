package assistant

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/dohr-michael/pairvox/internal/callbacks"
	"github.com/dohr-michael/pairvox/internal/events"
	"github.com/dohr-michael/pairvox/internal/models"
	"github.com/dohr-michael/pairvox/internal/sessions"
)

// ConversationConfig contains configuration for a Conversation.
type ConversationConfig struct {
	Model     model.BaseChatModel
	ModelName string
	// SystemPrompt defaults to DefaultSystemPrompt.
	SystemPrompt string
	// FeedbackFailures prefixes the next user message with the output of a
	// shell snippet that halted the previous reply.
	FeedbackFailures bool
	Pipeline         PipelineConfig

	// Store and Session persist the transcript. Both may be nil.
	Store   sessions.Store
	Session *sessions.Session
}

// Conversation accumulates the chat history across turns.
type Conversation struct {
	cfg      ConversationConfig
	history  []*schema.Message
	feedback string
}

// NewConversation starts a conversation. Messages already stored for the
// session are replayed into the history.
func NewConversation(cfg ConversationConfig) (*Conversation, error) {
	if cfg.Model == nil {
		return nil, fmt.Errorf("assistant: no chat model")
	}
	if cfg.SystemPrompt == "" {
		cfg.SystemPrompt = DefaultSystemPrompt
	}
	c := &Conversation{
		cfg:     cfg,
		history: []*schema.Message{schema.SystemMessage(cfg.SystemPrompt)},
	}
	if c.persistent() {
		c.cfg.Pipeline.SessionID = cfg.Session.ID
		stored, err := cfg.Store.LoadMessages(cfg.Session.ID)
		if err != nil {
			return nil, fmt.Errorf("assistant: load history: %w", err)
		}
		for _, m := range stored {
			c.history = append(c.history, m.ToSchemaMessage())
		}
	}
	return c, nil
}

// History returns the messages sent with the next turn, system prompt first.
func (c *Conversation) History() []*schema.Message {
	return append([]*schema.Message(nil), c.history...)
}

// Turn sends a user message, routes the streamed reply and records it.
func (c *Conversation) Turn(ctx context.Context, text string) (Report, error) {
	content := text
	if c.feedback != "" {
		content = c.feedback + "\n\n" + text
		c.feedback = ""
	}
	user := schema.UserMessage(content)
	c.history = append(c.history, user)
	c.publish(events.UserMessagePayload{Content: content}, events.SourceCLI)
	if err := c.store(user); err != nil {
		return Report{}, err
	}

	if bus := c.cfg.Pipeline.Bus; bus != nil {
		ctx = events.ContextWithSessionID(ctx, c.cfg.Pipeline.SessionID)
		ctx = callbacks.WithChatModel(ctx, c.cfg.ModelName, callbacks.NewEventBusHandler(bus, events.SourceAssistant))
	}
	stream, err := models.StreamReply(ctx, c.cfg.Model, c.history)
	if err != nil {
		return Report{}, fmt.Errorf("assistant: %w", err)
	}
	report, runErr := NewPipeline(c.cfg.Pipeline).Run(ctx, stream)

	if report.Reply != "" {
		reply := schema.AssistantMessage(report.Reply, nil)
		c.history = append(c.history, reply)
		if err := c.store(reply); err != nil && runErr == nil {
			runErr = err
		}
	}
	msg := events.AssistantMessagePayload{Content: report.Reply}
	if runErr != nil {
		msg.Error = runErr.Error()
	}
	c.publish(msg, events.SourceAssistant)

	if err := c.recordTurn(report); err != nil && runErr == nil {
		runErr = err
	}
	if report.Halted && report.Failure != nil && c.cfg.FeedbackFailures {
		c.feedback = FailureFeedback(report)
	}
	slog.Debug("assistant: turn done", "model", c.cfg.ModelName, "finish_reason", stream.FinishReason(), "fragments", report.Fragments, "outcomes", len(report.Outcomes), "halted", report.Halted)
	return report, runErr
}

// FailureFeedback describes the shell failure that halted a reply, in the
// form sent back to the model.
func FailureFeedback(r Report) string {
	if r.Failure == nil || r.Failure.Shell == nil {
		return ""
	}
	var b strings.Builder
	fmt.Fprintf(&b, "The command exited with code %d.", r.Failure.Shell.ExitCode)
	if out := strings.TrimSpace(r.Failure.Shell.Stdout); out != "" {
		fmt.Fprintf(&b, "\nstdout:\n%s", out)
	}
	if errOut := strings.TrimSpace(r.Failure.Shell.Stderr); errOut != "" {
		fmt.Fprintf(&b, "\nstderr:\n%s", errOut)
	}
	if n := len(r.Remaining); n > 0 {
		fmt.Fprintf(&b, "\n%d later code block(s) were not processed.", n)
	}
	return b.String()
}

func (c *Conversation) persistent() bool {
	return c.cfg.Store != nil && c.cfg.Session != nil
}

func (c *Conversation) store(m *schema.Message) error {
	if !c.persistent() {
		return nil
	}
	if err := c.cfg.Store.AppendMessage(c.cfg.Session.ID, sessions.NewMessageFromSchema(m)); err != nil {
		return fmt.Errorf("assistant: store message: %w", err)
	}
	return nil
}

func (c *Conversation) recordTurn(r Report) error {
	if !c.persistent() {
		return nil
	}
	if err := c.cfg.Store.AppendTurn(c.cfg.Session.ID, TurnRecord(r)); err != nil {
		return fmt.Errorf("assistant: store turn: %w", err)
	}
	return nil
}

// TurnRecord converts a report to its persisted form.
func TurnRecord(r Report) sessions.Turn {
	turn := sessions.Turn{
		Halted:      r.Halted,
		Unprocessed: len(r.Remaining),
		Diagnostics: append([]string(nil), r.Diagnostics...),
	}
	for _, o := range r.Outcomes {
		rec := sessions.SnippetRecord{
			ID:       o.Snippet.ID,
			Language: o.Snippet.Header.Language,
			Filename: o.Snippet.Header.Filename,
			Action:   string(o.Action),
			Path:     o.Path,
		}
		if o.Shell != nil {
			code := o.Shell.ExitCode
			rec.ExitCode = &code
			rec.Stdout = o.Shell.Stdout
		}
		turn.Snippets = append(turn.Snippets, rec)
	}
	return turn
}

func (c *Conversation) publish(payload events.EventPayload, source events.EventSource) {
	if c.cfg.Pipeline.Bus == nil {
		return
	}
	c.cfg.Pipeline.Bus.Publish(events.NewTypedEventWithSession(source, payload, c.cfg.Pipeline.SessionID))
}
