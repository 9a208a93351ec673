package llm

import (
	"context"
	"fmt"

	"github.com/hyperjump/kotae/internal/config"
)

// New builds the generator selected by cfg.Provider, rate limited when cfg.RateLimit > 0.
func New(ctx context.Context, cfg config.LLMConfig) (Generator, error) {
	opts := Options{Temperature: cfg.Temperature, MaxTokens: cfg.MaxTokens}
	var (
		g   Generator
		err error
	)
	switch cfg.Provider {
	case "ollama", "":
		g = NewOllama(OllamaConfig{BaseURL: cfg.BaseURL, Model: cfg.Model, Timeout: cfg.Timeout.Duration, Options: opts})
	case "openai":
		g, err = NewOpenAI(OpenAIConfig{APIKey: config.APIKey(cfg.APIKeyEnv), BaseURL: cfg.BaseURL, Model: cfg.Model, Options: opts})
	case "gemini":
		g, err = NewGemini(ctx, config.APIKey(cfg.APIKeyEnv), cfg.Model, opts)
	case "mock":
		g = &Mock{}
	default:
		return nil, fmt.Errorf("unknown llm provider: %s", cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create %s generator: %w", cfg.Provider, err)
	}
	if cfg.RateLimit > 0 {
		g = NewRateLimited(g, cfg.RateLimit, cfg.Burst)
	}
	return g, nil
}
