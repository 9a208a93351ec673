package rag

import (
	"context"
	"strings"

	"github.com/hyperjump/kotae/internal/llm"
	"github.com/hyperjump/kotae/internal/prompts"
)

// NoContextMarker stands in for the context when retrieval found nothing.
const NoContextMarker = "(no relevant context found)"

// DefaultLanguage is the grounded answer language when none is configured.
const DefaultLanguage = "Chinese"

// Synthesizer builds prompts and asks the generator for answers.
type Synthesizer struct {
	generator llm.Generator
	prompts   *prompts.Store
	language  string
}

// NewSynthesizer returns a synthesizer answering grounded questions in language.
func NewSynthesizer(generator llm.Generator, store *prompts.Store, language string) *Synthesizer {
	if language == "" {
		language = DefaultLanguage
	}
	return &Synthesizer{generator: generator, prompts: store, language: language}
}

// Ungrounded answers from the model's own knowledge.
func (s *Synthesizer) Ungrounded(ctx context.Context, question string) (string, error) {
	return s.generate(ctx, prompts.Ungrounded, prompts.Data{Question: question, Language: s.language})
}

// Grounded answers using chunks as context, joined by blank lines.
func (s *Synthesizer) Grounded(ctx context.Context, question string, chunks []string) (string, error) {
	text := NoContextMarker
	if len(chunks) > 0 {
		text = strings.Join(chunks, "\n\n")
	}
	return s.generate(ctx, prompts.Grounded, prompts.Data{Question: question, Context: text, Language: s.language})
}

func (s *Synthesizer) generate(ctx context.Context, name string, data prompts.Data) (string, error) {
	prompt, err := s.prompts.Render(name, data)
	if err != nil {
		return "", newError(KindGenerationFailure, "render prompt", "", err)
	}
	out, err := s.generator.Generate(ctx, prompt)
	if err != nil {
		return "", newError(KindGenerationFailure, "generate", "", err)
	}
	return out, nil
}
