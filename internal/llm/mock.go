package llm

import (
	"context"
	"sync"
)

// Mock is a deterministic generator for tests. It records prompts and
// answers with Respond, or echoes the prompt when Respond is nil.
type Mock struct {
	Respond func(prompt string) (string, error)

	mu      sync.Mutex
	prompts []string
}

// NewMock returns a Mock that answers every prompt with answer.
func NewMock(answer string) *Mock {
	return &Mock{Respond: func(string) (string, error) { return answer, nil }}
}

// Generate records prompt and returns the configured response.
func (m *Mock) Generate(ctx context.Context, prompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	m.mu.Lock()
	m.prompts = append(m.prompts, prompt)
	m.mu.Unlock()
	if m.Respond == nil {
		return prompt, nil
	}
	return m.Respond(prompt)
}

// Prompts returns every prompt received so far.
func (m *Mock) Prompts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.prompts...)
}

// LastPrompt returns the most recent prompt, or "".
func (m *Mock) LastPrompt() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.prompts) == 0 {
		return ""
	}
	return m.prompts[len(m.prompts)-1]
}

// Model returns "mock".
func (m *Mock) Model() string { return "mock" }

// Close is a no-op.
func (m *Mock) Close() error { return nil }
