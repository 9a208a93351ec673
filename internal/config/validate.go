package config

import (
	"fmt"

	"github.com/hyperjump/kotae/internal/vector"
)

var (
	embeddingProviders = []string{"ollama", "openai", "gemini", "onnx", "hashing", "mock"}
	llmProviders       = []string{"ollama", "openai", "gemini", "mock"}
)

// Validate checks settings that have no safe default.
func (c *Config) Validate() error {
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	overlap := c.Chunking.OverlapOrDefault()
	if overlap < 0 || c.Chunking.ChunkSize <= overlap {
		return fmt.Errorf("chunk_size (%d) must be greater than chunk_overlap (%d) and overlap must not be negative",
			c.Chunking.ChunkSize, overlap)
	}
	if err := vector.ValidateMMR(c.Retrieval.K, c.Retrieval.FetchK, c.Retrieval.LambdaOrDefault()); err != nil {
		return fmt.Errorf("invalid retrieval config: %w", err)
	}
	if !vector.ValidIndexType(c.Retrieval.Index) {
		return fmt.Errorf("unknown retrieval index: %s", c.Retrieval.Index)
	}
	if !contains(embeddingProviders, c.Embedding.Provider) {
		return fmt.Errorf("unknown embedding provider: %s (supported: %v)", c.Embedding.Provider, embeddingProviders)
	}
	if !contains(llmProviders, c.LLM.Provider) {
		return fmt.Errorf("unknown llm provider: %s (supported: %v)", c.LLM.Provider, llmProviders)
	}
	if c.LLM.RateLimit < 0 {
		return fmt.Errorf("rate_limit must not be negative")
	}
	return nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
