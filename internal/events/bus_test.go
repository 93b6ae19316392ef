package events

import (
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/goleak"
)

func TestBusPublishSubscribe(t *testing.T) {
	defer goleak.VerifyNone(t)

	bus := NewBus(64)

	var mu sync.Mutex
	var received []Event

	bus.Subscribe(func(e Event) {
		mu.Lock()
		received = append(received, e)
		mu.Unlock()
	}, EventUserMessage)

	bus.Publish(NewTypedEvent("test", UserMessagePayload{Content: "hello"}))
	bus.Publish(NewTypedEvent("test", SentencePayload{Text: "Hi."}))
	bus.Close()

	mu.Lock()
	defer mu.Unlock()

	if len(received) != 1 {
		t.Fatalf("expected 1 event, got %d", len(received))
	}
	if received[0].Type != EventUserMessage {
		t.Errorf("expected user.message, got %s", received[0].Type)
	}
}

func TestBusDeliversInOrder(t *testing.T) {
	bus := NewBus(128)

	var got []string
	bus.Subscribe(func(e Event) {
		p, _ := ExtractPayload[SentencePayload](e)
		got = append(got, p.Text)
	})

	want := []string{"one", "two", "three", "four"}
	for _, s := range want {
		bus.Publish(NewTypedEvent(SourceSpeech, SentencePayload{Text: s}))
	}
	bus.Close()

	if len(got) != len(want) {
		t.Fatalf("got %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order mismatch: got %v, want %v", got, want)
		}
	}
}

func TestBusClose(t *testing.T) {
	bus := NewBus(4)
	bus.Close()
	bus.Close()

	bus.Publish(NewTypedEvent("test", UserMessagePayload{}))
	if h := bus.History(1); h != nil {
		t.Fatalf("closed bus recorded %v", h)
	}
}

func TestHistoryWraps(t *testing.T) {
	h := newHistory(3)
	if h.last(5) != nil {
		t.Fatal("empty history returned events")
	}

	for i := range 5 {
		h.add(NewEvent(EventUserMessage, "test", map[string]any{"i": i}))
	}

	var got []any
	for _, e := range h.last(10) {
		got = append(got, e.Payload["i"])
	}
	if diff := cmp.Diff([]any{2, 3, 4}, got); diff != "" {
		t.Errorf("kept events mismatch (-want +got):\n%s", diff)
	}
	if e := h.last(1); len(e) != 1 || e[0].Payload["i"] != 4 {
		t.Errorf("last(1) = %v", e)
	}

	h.reset()
	if h.last(1) != nil {
		t.Error("expected empty history after reset")
	}
}

func TestUnsubscribe(t *testing.T) {
	bus := NewBus(8)
	var a, b int
	unsubA := bus.Subscribe(func(Event) { a++ })
	bus.Subscribe(func(Event) { b++ })

	unsubA()
	bus.Publish(NewTypedEvent(SourceCLI, UserMessagePayload{Content: "x"}))
	bus.Close()

	if a != 0 || b != 1 {
		t.Errorf("deliveries a=%d b=%d, want 0 and 1", a, b)
	}
}

func TestSubscribeChan(t *testing.T) {
	bus := NewBus(64)
	defer bus.Close()

	ch, unsub := bus.SubscribeChan(8, EventUserMessage)
	defer unsub()

	bus.Publish(NewTypedEvent("test", UserMessagePayload{Content: "hello"}))

	select {
	case e := <-ch:
		if e.Type != EventUserMessage {
			t.Errorf("expected user.message, got %s", e.Type)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for event")
	}
}

func TestHistory(t *testing.T) {
	bus := NewBus(8)
	bus.Publish(NewTypedEvent("test", UserMessagePayload{Content: "a"}))
	bus.Publish(NewTypedEvent("test", UserMessagePayload{Content: "b"}))
	bus.Close()

	if h := bus.History(10); len(h) != 2 {
		t.Fatalf("history = %d events, want 2", len(h))
	}
}
