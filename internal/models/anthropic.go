package models

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/cloudwego/eino/callbacks"
	"github.com/cloudwego/eino/components"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/dohr-michael/pairvox/internal/config"
)

const (
	anthropicModel     = "claude-sonnet-4-6"
	anthropicMaxTokens = 4096
	anthropicTimeout   = 60 * time.Second
)

// Anthropic is a text-only chat model over the Messages API. Replies are
// always streamed; Generate collects the stream.
type Anthropic struct {
	client    anthropic.Client
	model     string
	maxTokens int
}

// NewAnthropic builds the Anthropic adapter. Bearer credentials go in the
// Authorization header, anything else in x-api-key.
func NewAnthropic(_ context.Context, cfg config.ProviderConfig, auth ResolvedAuth) (model.BaseChatModel, error) {
	a := &Anthropic{model: cfg.Model, maxTokens: cfg.MaxTokens}
	if a.model == "" {
		a.model = anthropicModel
	}
	if a.maxTokens <= 0 {
		a.maxTokens = anthropicMaxTokens
	}

	timeout := cfg.Timeout.Duration()
	if timeout <= 0 {
		timeout = anthropicTimeout
	}
	opts := []option.RequestOption{option.WithRequestTimeout(timeout)}
	if auth.Kind == AuthBearerToken {
		opts = append(opts, option.WithAuthToken(auth.Value))
	} else {
		opts = append(opts, option.WithAPIKey(auth.Value))
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	a.client = anthropic.NewClient(opts...)
	return a, nil
}

func (a *Anthropic) Generate(ctx context.Context, messages []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	sr, err := a.Stream(ctx, messages, opts...)
	if err != nil {
		return nil, err
	}
	defer sr.Close()

	var parts []*schema.Message
	for {
		msg, err := sr.Recv()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, err
		}
		parts = append(parts, msg)
	}
	return schema.ConcatMessages(parts)
}

func (a *Anthropic) Stream(ctx context.Context, messages []*schema.Message, opts ...model.Option) (_ *schema.StreamReader[*schema.Message], err error) {
	params := a.params(messages, opts)
	conf := &model.Config{Model: a.model, MaxTokens: int(params.MaxTokens)}

	ctx = callbacks.EnsureRunInfo(ctx, "Anthropic", components.ComponentOfChatModel)
	ctx = callbacks.OnStart(ctx, &model.CallbackInput{Messages: messages, Config: conf})
	defer func() {
		if err != nil {
			callbacks.OnError(ctx, err)
		}
	}()

	upstream := a.client.Messages.NewStreaming(ctx, params)
	if err := upstream.Err(); err != nil {
		upstream.Close()
		return nil, HandleError(err)
	}

	sr, sw := schema.Pipe[*model.CallbackOutput](16)
	go func() {
		defer sw.Close()
		defer upstream.Close()

		dec := anthropicDecoder{conf: conf, finish: "stop"}
		for upstream.Next() {
			if err := ctx.Err(); err != nil {
				sw.Send(nil, err)
				return
			}
			out, done := dec.decode(upstream.Current())
			if out != nil && sw.Send(out, nil) {
				return
			}
			if done {
				return
			}
		}
		if err := upstream.Err(); err != nil {
			sw.Send(nil, HandleError(err))
		}
	}()

	_, observed := callbacks.OnEndWithStreamOutput(ctx, sr)
	return schema.StreamReaderWithConvert(observed, func(o *model.CallbackOutput) (*schema.Message, error) {
		if o.Message == nil {
			return nil, schema.ErrNoValue
		}
		return o.Message, nil
	}), nil
}

func (a *Anthropic) params(messages []*schema.Message, opts []model.Option) anthropic.MessageNewParams {
	common := model.GetCommonOptions(&model.Options{MaxTokens: &a.maxTokens}, opts...)

	p := anthropic.MessageNewParams{
		Model:     anthropic.Model(a.model),
		MaxTokens: int64(a.maxTokens),
	}
	if common.MaxTokens != nil && *common.MaxTokens > 0 {
		p.MaxTokens = int64(*common.MaxTokens)
	}
	if common.Temperature != nil {
		p.Temperature = anthropic.Float(float64(*common.Temperature))
	}

	// System turns are hoisted out of the message list; tool turns do not occur.
	for _, m := range messages {
		block := anthropic.NewTextBlock(m.Content)
		switch m.Role {
		case schema.System:
			p.System = append(p.System, anthropic.TextBlockParam{Text: m.Content})
		case schema.Assistant:
			p.Messages = append(p.Messages, anthropic.NewAssistantMessage(block))
		default:
			p.Messages = append(p.Messages, anthropic.NewUserMessage(block))
		}
	}
	return p
}

// anthropicDecoder turns Messages API stream events into callback outputs,
// accumulating usage until message_stop.
type anthropicDecoder struct {
	conf   *model.Config
	usage  model.TokenUsage
	finish string
}

func (d *anthropicDecoder) decode(ev anthropic.MessageStreamEventUnion) (out *model.CallbackOutput, done bool) {
	switch ev.Type {
	case "message_start":
		d.usage.PromptTokens = int(ev.Message.Usage.InputTokens)
	case "content_block_delta":
		if ev.Delta.Type != "text_delta" || ev.Delta.Text == "" {
			return nil, false
		}
		return &model.CallbackOutput{
			Message: schema.AssistantMessage(ev.Delta.Text, nil),
			Config:  d.conf,
		}, false
	case "message_delta":
		d.usage.CompletionTokens = int(ev.Usage.OutputTokens)
		if anthropic.StopReason(ev.Delta.StopReason) == anthropic.StopReasonMaxTokens {
			d.finish = "length"
		}
	case "message_stop":
		d.usage.TotalTokens = d.usage.PromptTokens + d.usage.CompletionTokens
		msg := schema.AssistantMessage("", nil)
		msg.ResponseMeta = &schema.ResponseMeta{
			FinishReason: d.finish,
			Usage: &schema.TokenUsage{
				PromptTokens:     d.usage.PromptTokens,
				CompletionTokens: d.usage.CompletionTokens,
				TotalTokens:      d.usage.TotalTokens,
			},
		}
		usage := d.usage
		return &model.CallbackOutput{Message: msg, Config: d.conf, TokenUsage: &usage}, true
	}
	return nil, false
}

var _ model.BaseChatModel = (*Anthropic)(nil)
