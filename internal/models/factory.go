package models

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/model"

	"github.com/dohr-michael/pairvox/internal/config"
)

// CreateModel creates a streaming chat model from a provider config.
func CreateModel(ctx context.Context, cfg config.ProviderConfig) (model.BaseChatModel, error) {
	driver := strings.ToLower(cfg.Driver)
	switch driver {
	case "ollama":
		return NewOllama(ctx, cfg)
	case "anthropic", "openai", "mistral", "gemini":
	default:
		return nil, fmt.Errorf("unknown driver: %s", cfg.Driver)
	}

	auth, err := ResolveAuth(cfg)
	if err != nil {
		return nil, fmt.Errorf("resolve auth: %w", err)
	}
	switch driver {
	case "anthropic":
		return NewAnthropic(ctx, cfg, auth)
	case "openai":
		return NewOpenAI(ctx, cfg, auth)
	case "mistral":
		return NewMistral(ctx, cfg, auth)
	default:
		return NewGemini(ctx, cfg, auth)
	}
}
