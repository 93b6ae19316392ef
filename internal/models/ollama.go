package models

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	einoollama "github.com/cloudwego/eino-ext/components/model/ollama"
	"github.com/cloudwego/eino/components/model"

	"github.com/dohr-michael/pairvox/internal/config"
)

const (
	ollamaBaseURL = "http://localhost:11434"
	ollamaModel   = "qwen2.5-coder:7b"
	// Local models can take minutes to load on first use.
	ollamaTimeout = 5 * time.Minute
)

// NewOllama builds a chat model against a local or proxied Ollama server.
// No credentials are involved.
func NewOllama(ctx context.Context, cfg config.ProviderConfig) (model.BaseChatModel, error) {
	c := &einoollama.ChatModelConfig{
		BaseURL: orDefault(cfg.BaseURL, ollamaBaseURL),
		Model:   orDefault(cfg.Model, ollamaModel),
		Timeout: ollamaTimeout,
		Options: ollamaOptions(cfg),
	}
	if d := cfg.Timeout.Duration(); d > 0 {
		c.Timeout = d
	}
	c.HTTPClient = &http.Client{
		Timeout:   c.Timeout,
		Transport: &ollamaTransport{inner: http.DefaultTransport, provider: "ollama"},
	}
	return einoollama.NewChatModel(ctx, c)
}

func ollamaOptions(cfg config.ProviderConfig) *einoollama.Options {
	o := &einoollama.Options{NumPredict: cfg.MaxTokens}
	if v, ok := floatOption(cfg.Options, "temperature"); ok {
		o.Temperature = float32(v)
	}
	if v, ok := floatOption(cfg.Options, "top_p"); ok {
		o.TopP = float32(v)
	}
	if v, ok := floatOption(cfg.Options, "num_ctx"); ok {
		o.NumCtx = int(v)
	}
	return o
}

// ollamaTransport turns responses that cannot be a model reply into
// ErrModelUnavailable: transport failures, HTTP errors, and bodies that are
// not JSON or NDJSON (a fronting proxy's plain-text error page).
type ollamaTransport struct {
	inner    http.RoundTripper
	provider string
}

func (t *ollamaTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.inner.RoundTrip(req)
	if err != nil {
		return nil, &ErrModelUnavailable{Provider: t.provider, Cause: err}
	}

	ct := resp.Header.Get("Content-Type")
	if resp.StatusCode < 400 && (ct == "" || strings.Contains(ct, "json")) {
		return resp, nil
	}

	defer resp.Body.Close()
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	return nil, &ErrModelUnavailable{
		Provider: t.provider,
		Body:     strings.TrimSpace(string(body)),
	}
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
