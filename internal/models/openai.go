package models

import (
	"context"
	"time"

	einoopenai "github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"

	"github.com/dohr-michael/pairvox/internal/config"
)

const defaultOpenAIModel = "gpt-4o-mini"

// NewOpenAI creates a new OpenAI ChatModel.
func NewOpenAI(ctx context.Context, cfg config.ProviderConfig, auth ResolvedAuth) (model.BaseChatModel, error) {
	modelName := cfg.Model
	if modelName == "" {
		modelName = defaultOpenAIModel
	}
	return newOpenAICompatible(ctx, cfg, auth, modelName, cfg.BaseURL, 60*time.Second)
}

// newOpenAICompatible builds an eino OpenAI model for any OpenAI-compatible endpoint.
func newOpenAICompatible(ctx context.Context, cfg config.ProviderConfig, auth ResolvedAuth, modelName, baseURL string, timeout time.Duration) (model.BaseChatModel, error) {
	modelConfig := &einoopenai.ChatModelConfig{
		APIKey: auth.Value,
		Model:  modelName,
	}

	if baseURL != "" {
		modelConfig.BaseURL = baseURL
	}

	if cfg.MaxTokens > 0 {
		maxTokens := cfg.MaxTokens
		modelConfig.MaxCompletionTokens = &maxTokens
	}

	if cfg.Timeout.Duration() > 0 {
		modelConfig.Timeout = cfg.Timeout.Duration()
	} else {
		modelConfig.Timeout = timeout
	}

	if temp, ok := floatOption(cfg.Options, "temperature"); ok {
		t := float32(temp)
		modelConfig.Temperature = &t
	}
	if topP, ok := floatOption(cfg.Options, "top_p"); ok {
		p := float32(topP)
		modelConfig.TopP = &p
	}

	return einoopenai.NewChatModel(ctx, modelConfig)
}

// floatOption reads a numeric provider option.
func floatOption(opts map[string]any, key string) (float64, bool) {
	switch v := opts[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	default:
		return 0, false
	}
}
