package callbacks

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/cloudwego/eino/callbacks"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/dohr-michael/pairvox/internal/events"
)

// streamWithCallbacks reports a streamed call the way the chat model drivers do.
func streamWithCallbacks(ctx context.Context, msgs []*schema.Message, chunks []*model.CallbackOutput, fail error) error {
	ctx = callbacks.OnStart(ctx, &model.CallbackInput{Messages: msgs})
	if fail != nil {
		callbacks.OnError(ctx, fail)
		return fail
	}
	_, sr := callbacks.OnEndWithStreamOutput(ctx, schema.StreamReaderFromArray(chunks))
	defer sr.Close()
	for {
		if _, err := sr.Recv(); errors.Is(err, io.EOF) {
			return nil
		} else if err != nil {
			return err
		}
	}
}

func collect(t *testing.T, ch <-chan events.Event, n int) []events.LLMCallPayload {
	t.Helper()
	var out []events.LLMCallPayload
	for len(out) < n {
		select {
		case e := <-ch:
			p, ok := events.ExtractPayload[events.LLMCallPayload](e)
			if !ok {
				t.Fatalf("unexpected event %s", e.Type)
			}
			if e.SessionID != "sess_cb" {
				t.Errorf("session = %q, want sess_cb", e.SessionID)
			}
			out = append(out, p)
		case <-time.After(2 * time.Second):
			t.Fatalf("got %d of %d events", len(out), n)
		}
	}
	return out
}

func TestEventBusHandler_StreamedCall(t *testing.T) {
	bus := events.NewBus(16)
	defer bus.Close()
	ch, unsubscribe := bus.SubscribeChan(16, events.EventLLMCall)
	defer unsubscribe()

	ctx := events.ContextWithSessionID(context.Background(), "sess_cb")
	ctx = WithChatModel(ctx, "fake", NewEventBusHandler(bus, ""))

	chunks := []*model.CallbackOutput{
		{Message: schema.AssistantMessage("Hello", nil)},
		{Message: schema.AssistantMessage(" there.", nil)},
		{Message: &schema.Message{Role: schema.Assistant, ResponseMeta: &schema.ResponseMeta{
			FinishReason: "stop",
			Usage:        &schema.TokenUsage{PromptTokens: 12, CompletionTokens: 3},
		}}},
	}
	msgs := []*schema.Message{schema.SystemMessage("sys"), schema.UserMessage("hi")}
	if err := streamWithCallbacks(ctx, msgs, chunks, nil); err != nil {
		t.Fatalf("stream: %v", err)
	}

	got := collect(t, ch, 2)
	want := []events.LLMCallPayload{
		{Phase: PhaseRequest, Model: "fake", MessageCount: 2},
		{Phase: PhaseResponse, Model: "fake", Fragments: 2, FinishReason: "stop", TokensInput: 12, TokensOutput: 3},
	}
	if diff := cmp.Diff(want, got, cmpopts.IgnoreFields(events.LLMCallPayload{}, "Duration")); diff != "" {
		t.Errorf("payloads mismatch (-want +got):\n%s", diff)
	}
}

func TestEventBusHandler_Error(t *testing.T) {
	bus := events.NewBus(16)
	defer bus.Close()
	ch, unsubscribe := bus.SubscribeChan(16, events.EventLLMCall)
	defer unsubscribe()

	ctx := events.ContextWithSessionID(context.Background(), "sess_cb")
	ctx = WithChatModel(ctx, "fake", NewEventBusHandler(bus, events.SourceAssistant))

	_ = streamWithCallbacks(ctx, nil, nil, errors.New("rate limited"))

	got := collect(t, ch, 2)
	if got[1].Phase != PhaseError || got[1].Error != "rate limited" {
		t.Errorf("error payload = %+v", got[1])
	}
}
