package perception

import (
	"context"
	"fmt"

	"dayflow/internal/config"
	"dayflow/internal/logging"
)

// NewFromConfig builds the gateway the config names.
func NewFromConfig(ctx context.Context, cfg config.LLMConfig) (Client, error) {
	logging.Boot("model gateway provider: %s model: %s", cfg.Provider, cfg.Model)

	switch cfg.Provider {
	case "gemini", "":
		return NewGeminiClient(ctx, GeminiConfig{
			APIKey:  cfg.APIKey,
			Model:   cfg.Model,
			Timeout: cfg.TimeoutDuration(),
		})
	case "openai":
		return NewOpenAICompatClient(OpenAIConfig{
			APIKey:  cfg.APIKey,
			BaseURL: cfg.BaseURL,
			Model:   cfg.Model,
			Timeout: cfg.TimeoutDuration(),
		}), nil
	case "mock":
		return &MockClient{}, nil
	default:
		return nil, fmt.Errorf("unknown provider %q", cfg.Provider)
	}
}
