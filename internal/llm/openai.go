package llm

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// OpenAIConfig holds configuration for the OpenAI chat generator.
type OpenAIConfig struct {
	APIKey string
	// BaseURL targets an OpenAI-compatible server; empty uses api.openai.com.
	BaseURL string
	Model   string
	Options Options
}

// OpenAI generates text with the chat completions API, sending the prompt as a single user message.
type OpenAI struct {
	client openai.Client
	model  string
	opts   Options
}

// NewOpenAI creates an OpenAI generator.
func NewOpenAI(cfg OpenAIConfig) (*OpenAI, error) {
	if cfg.APIKey == "" && cfg.BaseURL == "" {
		return nil, fmt.Errorf("openai generator requires an API key")
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	return &OpenAI{client: openai.NewClient(opts...), model: cfg.Model, opts: cfg.Options}, nil
}

// Generate returns the first choice's message content.
func (o *OpenAI) Generate(ctx context.Context, prompt string) (string, error) {
	params := openai.ChatCompletionNewParams{
		Messages:    []openai.ChatCompletionMessageParamUnion{openai.UserMessage(prompt)},
		Model:       openai.ChatModel(o.model),
		Temperature: openai.Float(o.opts.Temperature),
	}
	if o.opts.MaxTokens > 0 {
		params.MaxCompletionTokens = openai.Int(int64(o.opts.MaxTokens))
	}
	resp, err := o.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("openai chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

// Model returns the model name.
func (o *OpenAI) Model() string { return o.model }

// Close is a no-op.
func (o *OpenAI) Close() error { return nil }
