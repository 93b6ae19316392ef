// Package events carries what happens during a chat turn to whoever wants to
// watch: the on-disk event log, the model call tracer, tests.
package events

import (
	"time"

	"github.com/google/uuid"
)

type EventType string

const (
	EventUserMessage      EventType = "user.message"
	EventAssistantStream  EventType = "assistant.stream"
	EventAssistantMessage EventType = "assistant.message"

	EventSentence       EventType = "speech.sentence"
	EventSnippetSealed  EventType = "snippet.sealed"
	EventSnippetOutcome EventType = "snippet.outcome"
	EventFenceMalformed EventType = "fence.malformed"

	EventLLMCall        EventType = "internal.llm.call"
	EventSessionCreated EventType = "session.created"
)

// EventSource names the component that published an event.
type EventSource string

const (
	SourceAssistant EventSource = "assistant"
	SourceSpeech    EventSource = "speech"
	SourceSnippets  EventSource = "snippets"
	SourceCLI       EventSource = "cli"
)

// Event is one published fact. Payload is the JSON object form of a typed
// payload; see ExtractPayload.
type Event struct {
	ID        string         `json:"id"`
	SessionID string         `json:"session_id,omitempty"`
	Type      EventType      `json:"type"`
	Timestamp time.Time      `json:"timestamp"`
	Source    EventSource    `json:"source"`
	Payload   map[string]any `json:"payload"`
}

// NewEvent builds an untyped event stamped now.
func NewEvent(eventType EventType, source EventSource, payload map[string]any) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Timestamp: time.Now(),
		Source:    source,
		Payload:   payload,
	}
}
