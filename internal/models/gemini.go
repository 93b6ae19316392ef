package models

import (
	"context"
	"fmt"

	einogemini "github.com/cloudwego/eino-ext/components/model/gemini"
	"github.com/cloudwego/eino/components/model"
	"google.golang.org/genai"

	"github.com/dohr-michael/pairvox/internal/config"
)

const defaultGeminiModel = "gemini-2.5-flash"

// NewGemini creates a Gemini ChatModel backed by the genai client.
func NewGemini(ctx context.Context, cfg config.ProviderConfig, auth ResolvedAuth) (model.BaseChatModel, error) {
	modelName := cfg.Model
	if modelName == "" {
		modelName = defaultGeminiModel
	}

	clientConfig := &genai.ClientConfig{
		APIKey:  auth.Value,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		clientConfig.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}
	client, err := genai.NewClient(ctx, clientConfig)
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}

	modelConfig := &einogemini.Config{
		Client: client,
		Model:  modelName,
	}
	if cfg.MaxTokens > 0 {
		maxTokens := cfg.MaxTokens
		modelConfig.MaxTokens = &maxTokens
	}
	if temp, ok := floatOption(cfg.Options, "temperature"); ok {
		t := float32(temp)
		modelConfig.Temperature = &t
	}

	return einogemini.NewChatModel(ctx, modelConfig)
}
