// Package llm provides text generation providers used to synthesize answers.
package llm

import "context"

// Generator produces a completion for a prompt. Implementations are safe for concurrent use.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
	// Model names the underlying model, for logs and status output.
	Model() string
	Close() error
}

// Pinger is implemented by generators that can check connectivity without running inference.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Options are the sampling settings shared by all providers.
type Options struct {
	Temperature float64
	MaxTokens   int
}
