package events

import (
	"encoding/json"
	"time"
)

// EventPayload is implemented by every typed payload; the type decides the
// event's EventType.
type EventPayload interface {
	EventType() EventType
}

// Chat turn.

type UserMessagePayload struct {
	Content string `json:"content"`
}

type StreamPhase string

const (
	StreamPhaseStart StreamPhase = "start"
	StreamPhaseDelta StreamPhase = "delta"
	StreamPhaseEnd   StreamPhase = "end"
)

// AssistantStreamPayload marks progress of a reply stream. On the end phase
// Index is the number of fragments received.
type AssistantStreamPayload struct {
	Phase   StreamPhase `json:"phase"`
	Content string      `json:"content,omitempty"`
	Index   int         `json:"index"`
}

type AssistantMessagePayload struct {
	Content string `json:"content"`
	Error   string `json:"error,omitempty"`
}

type SessionCreatedPayload struct {
	Model string `json:"model,omitempty"`
}

// Reply routing.

// SentencePayload is a sealed sentence handed to the speech engine.
type SentencePayload struct {
	Text string `json:"text"`
}

type SnippetSealedPayload struct {
	SnippetID int    `json:"snippet_id"`
	Language  string `json:"language,omitempty"`
	Filename  string `json:"filename,omitempty"`
	Bytes     int    `json:"bytes"`
}

// SnippetOutcomePayload is what became of one snippet. Halted is set on the
// outcome that stopped the reply.
type SnippetOutcomePayload struct {
	SnippetID int    `json:"snippet_id"`
	Action    string `json:"action"`
	Path      string `json:"path,omitempty"`
	ExitCode  int    `json:"exit_code"`
	Stdout    string `json:"stdout,omitempty"`
	Stderr    string `json:"stderr,omitempty"`
	Halted    bool   `json:"halted,omitempty"`
}

type FenceMalformedPayload struct {
	Reason string `json:"reason"`
}

// Model calls.

type LLMCallPayload struct {
	Phase        string        `json:"phase"`
	Model        string        `json:"model"`
	MessageCount int           `json:"message_count,omitempty"`
	Fragments    int           `json:"fragments,omitempty"`
	FinishReason string        `json:"finish_reason,omitempty"`
	TokensInput  int           `json:"tokens_input,omitempty"`
	TokensOutput int           `json:"tokens_output,omitempty"`
	Duration     time.Duration `json:"duration,omitempty"`
	Error        string        `json:"error,omitempty"`
}

func (UserMessagePayload) EventType() EventType { return EventUserMessage }
func (AssistantStreamPayload) EventType() EventType { return EventAssistantStream }
func (AssistantMessagePayload) EventType() EventType { return EventAssistantMessage }
func (SessionCreatedPayload) EventType() EventType { return EventSessionCreated }
func (SentencePayload) EventType() EventType { return EventSentence }
func (SnippetSealedPayload) EventType() EventType { return EventSnippetSealed }
func (SnippetOutcomePayload) EventType() EventType { return EventSnippetOutcome }
func (FenceMalformedPayload) EventType() EventType { return EventFenceMalformed }
func (LLMCallPayload) EventType() EventType { return EventLLMCall }

// NewTypedEvent wraps payload in an event outside any session.
func NewTypedEvent(source EventSource, payload EventPayload) Event {
	return NewTypedEventWithSession(source, payload, "")
}

func NewTypedEventWithSession(source EventSource, payload EventPayload, sessionID string) Event {
	e := NewEvent(payload.EventType(), source, nil)
	e.SessionID = sessionID
	// A payload that fails to encode still produces the event, without detail.
	_ = reencode(payload, &e.Payload)
	return e
}

// ExtractPayload decodes e's payload as T. It reports false when e is not
// of T's type or the payload does not decode.
func ExtractPayload[T EventPayload](e Event) (T, bool) {
	var p T
	if e.Type != p.EventType() {
		return p, false
	}
	if err := reencode(e.Payload, &p); err != nil {
		return p, false
	}
	return p, true
}

// reencode moves src into dst through its JSON form.
func reencode(src, dst any) error {
	data, err := json.Marshal(src)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, dst)
}
