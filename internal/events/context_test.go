package events

import (
	"context"
	"testing"
)

func TestSessionIDRoundTrip(t *testing.T) {
	ctx := ContextWithSessionID(context.Background(), "sess_abc123")
	got := SessionIDFromContext(ctx)
	if got != "sess_abc123" {
		t.Errorf("got %q, want %q", got, "sess_abc123")
	}
}

func TestSessionIDFromEmptyContext(t *testing.T) {
	got := SessionIDFromContext(context.Background())
	if got != "" {
		t.Errorf("got %q, want empty string", got)
	}
}

func TestPublishFor(t *testing.T) {
	bus := NewBus(4)
	var got []Event
	bus.Subscribe(func(e Event) { got = append(got, e) })

	ctx := ContextWithSessionID(context.Background(), "sess_ctx")
	bus.PublishFor(ctx, SourceSpeech, SentencePayload{Text: "Hi."})
	bus.PublishFor(context.Background(), SourceCLI, UserMessagePayload{Content: "x"})
	bus.Close()

	if len(got) != 2 {
		t.Fatalf("got %d events, want 2", len(got))
	}
	if got[0].SessionID != "sess_ctx" || got[0].Type != EventSentence {
		t.Errorf("first event = %+v", got[0])
	}
	if got[1].SessionID != "" {
		t.Errorf("second event session = %q, want empty", got[1].SessionID)
	}
}
