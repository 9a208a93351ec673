package embedding

import (
	"context"
	"fmt"

	"github.com/hyperjump/kotae/internal/config"
)

// New builds the embedder selected by cfg.Provider, wrapped in an LRU cache when cfg.CacheSize > 0.
func New(ctx context.Context, cfg config.EmbeddingConfig) (Embedder, error) {
	var (
		e   Embedder
		err error
	)
	switch cfg.Provider {
	case "ollama", "":
		e = NewOllamaEmbedder(OllamaConfig{
			BaseURL:     cfg.BaseURL,
			Model:       cfg.Model,
			Timeout:     cfg.Timeout.Duration,
			Dimensions:  cfg.Dimensions,
			Concurrency: cfg.Concurrency,
		})
	case "openai":
		e, err = NewOpenAIEmbedder(OpenAIConfig{
			APIKey:     config.APIKey(cfg.APIKeyEnv),
			BaseURL:    cfg.BaseURL,
			Model:      cfg.Model,
			Dimensions: cfg.Dimensions,
		})
	case "gemini":
		e, err = NewGeminiEmbedder(ctx, config.APIKey(cfg.APIKeyEnv), cfg.Model, cfg.Dimensions)
	case "onnx":
		e, err = NewONNXEmbedder(cfg.ModelPath, cfg.Dimensions, cfg.MaxTokens)
	case "hashing":
		e = NewHashingEmbedder(cfg.Dimensions)
	case "mock":
		e = NewMockEmbedder(cfg.Dimensions)
	default:
		return nil, fmt.Errorf("unknown embedding provider: %s", cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create %s embedder: %w", cfg.Provider, err)
	}
	if cfg.CacheSize > 0 {
		e = NewCachedEmbedder(e, cfg.CacheSize)
	}
	return e, nil
}
