package models

import (
	"context"
	"time"

	"github.com/cloudwego/eino/components/model"

	"github.com/dohr-michael/pairvox/internal/config"
)

const (
	defaultMistralBaseURL = "https://api.mistral.ai/v1"
	defaultMistralModel   = "codestral-latest"
)

// NewMistral creates a Mistral ChatModel via the OpenAI-compatible API.
func NewMistral(ctx context.Context, cfg config.ProviderConfig, auth ResolvedAuth) (model.BaseChatModel, error) {
	modelName := cfg.Model
	if modelName == "" {
		modelName = defaultMistralModel
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultMistralBaseURL
	}
	return newOpenAICompatible(ctx, cfg, auth, modelName, baseURL, 5*time.Minute)
}
