// Package callbacks provides Eino callback handlers that bridge to the event bus.
package callbacks

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/cloudwego/eino/callbacks"
	"github.com/cloudwego/eino/components"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	ub "github.com/cloudwego/eino/utils/callbacks"

	"github.com/dohr-michael/pairvox/internal/events"
)

// LLM call phases.
const (
	PhaseRequest  = "request"
	PhaseResponse = "response"
	PhaseError    = "error"
)

type startKey struct{}

// WithChatModel installs handlers for one chat model call named name.
func WithChatModel(ctx context.Context, name string, handlers ...callbacks.Handler) context.Context {
	return callbacks.InitCallbacks(ctx, &callbacks.RunInfo{
		Name:      name,
		Component: components.ComponentOfChatModel,
	}, handlers...)
}

// NewEventBusHandler creates a callback handler that publishes LLM call
// events to the bus. The session comes from the call context.
func NewEventBusHandler(bus *events.Bus, source events.EventSource) callbacks.Handler {
	if source == "" {
		source = events.SourceAssistant
	}

	publishTyped := func(ctx context.Context, payload events.EventPayload) {
		bus.PublishFor(ctx, source, payload)
	}

	modelHandler := &ub.ModelCallbackHandler{
		OnStart: func(ctx context.Context, info *callbacks.RunInfo, input *model.CallbackInput) context.Context {
			publishTyped(ctx, events.LLMCallPayload{
				Phase:        PhaseRequest,
				Model:        info.Name,
				MessageCount: len(input.Messages),
			})
			return context.WithValue(ctx, startKey{}, time.Now())
		},

		OnEnd: func(ctx context.Context, info *callbacks.RunInfo, output *model.CallbackOutput) context.Context {
			payload := events.LLMCallPayload{
				Phase:    PhaseResponse,
				Model:    info.Name,
				Duration: since(ctx),
			}
			observe(&payload, output)
			publishTyped(ctx, payload)
			return ctx
		},

		// The copy is read in the background so the caller keeps streaming.
		OnEndWithStreamOutput: func(ctx context.Context, info *callbacks.RunInfo, output *schema.StreamReader[*model.CallbackOutput]) context.Context {
			go func() {
				defer output.Close()
				payload := events.LLMCallPayload{Phase: PhaseResponse, Model: info.Name}
				for {
					chunk, err := output.Recv()
					if errors.Is(err, io.EOF) {
						break
					}
					if err != nil {
						payload.Phase = PhaseError
						payload.Error = err.Error()
						break
					}
					observe(&payload, chunk)
				}
				payload.Duration = since(ctx)
				publishTyped(ctx, payload)
			}()
			return ctx
		},

		OnError: func(ctx context.Context, info *callbacks.RunInfo, err error) context.Context {
			publishTyped(ctx, events.LLMCallPayload{
				Phase:    PhaseError,
				Model:    info.Name,
				Duration: since(ctx),
				Error:    err.Error(),
			})
			return ctx
		},
	}

	return ub.NewHandlerHelper().
		ChatModel(modelHandler).
		Handler()
}

// observe folds one output chunk into payload.
func observe(payload *events.LLMCallPayload, out *model.CallbackOutput) {
	if out == nil {
		return
	}
	if out.TokenUsage != nil {
		payload.TokensInput = out.TokenUsage.PromptTokens
		payload.TokensOutput = out.TokenUsage.CompletionTokens
	}
	msg := out.Message
	if msg == nil {
		return
	}
	if msg.Content != "" {
		payload.Fragments++
	}
	if meta := msg.ResponseMeta; meta != nil {
		if meta.FinishReason != "" {
			payload.FinishReason = meta.FinishReason
		}
		if meta.Usage != nil {
			payload.TokensInput = meta.Usage.PromptTokens
			payload.TokensOutput = meta.Usage.CompletionTokens
		}
	}
}

func since(ctx context.Context) time.Duration {
	if start, ok := ctx.Value(startKey{}).(time.Time); ok {
		return time.Since(start)
	}
	return 0
}
