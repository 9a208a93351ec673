package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// Gemini generates text with a Gemini model.
type Gemini struct {
	client    *genai.Client
	model     *genai.GenerativeModel
	modelName string
}

// NewGemini creates a Gemini generator for model (e.g. gemini-2.5-flash).
func NewGemini(ctx context.Context, apiKey, model string, opts Options) (*Gemini, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini generator requires an API key")
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	if model == "" {
		model = "gemini-2.5-flash"
	}
	m := client.GenerativeModel(model)
	m.SetTemperature(float32(opts.Temperature))
	if opts.MaxTokens > 0 {
		m.SetMaxOutputTokens(int32(opts.MaxTokens))
	}
	return &Gemini{client: client, model: m, modelName: model}, nil
}

// Generate returns the text parts of the response candidates, concatenated.
func (g *Gemini) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := g.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}
	var b strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if text, ok := part.(genai.Text); ok {
				b.WriteString(string(text))
			}
		}
	}
	if b.Len() == 0 {
		return "", fmt.Errorf("gemini returned no text")
	}
	return b.String(), nil
}

// Model returns the model name.
func (g *Gemini) Model() string { return g.modelName }

// Close closes the client.
func (g *Gemini) Close() error { return g.client.Close() }
