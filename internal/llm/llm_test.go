package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperjump/kotae/internal/config"
)

func TestOllama_Generate(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/generate", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_ = json.NewEncoder(w).Encode(map[string]any{"response": "Paris", "done": true})
	}))
	defer srv.Close()

	g := NewOllama(OllamaConfig{BaseURL: srv.URL, Model: "gemma2:9b"})
	out, err := g.Generate(context.Background(), "capital of France?")
	require.NoError(t, err)
	assert.Equal(t, "Paris", out)

	assert.Equal(t, "gemma2:9b", got["model"])
	assert.Equal(t, false, got["stream"])
	opts, ok := got["options"].(map[string]any)
	require.True(t, ok, "options missing")
	temp, present := opts["temperature"]
	assert.True(t, present, "temperature must be sent even when zero")
	assert.Equal(t, 0.0, temp)
}

func TestOllama_errorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer srv.Close()

	g := NewOllama(OllamaConfig{BaseURL: srv.URL})
	_, err := g.Generate(context.Background(), "q")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 404")
}

func TestOllama_Ping(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/tags" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(`{"models":[]}`))
	}))
	defer srv.Close()

	assert.NoError(t, NewOllama(OllamaConfig{BaseURL: srv.URL}).Ping(context.Background()))
	assert.Error(t, NewOllama(OllamaConfig{BaseURL: "http://127.0.0.1:1"}).Ping(context.Background()))
}

func TestOpenAI_Generate(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":      "c1",
			"object":  "chat.completion",
			"created": 0,
			"model":   "gpt-4o-mini",
			"choices": []map[string]any{{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]any{"role": "assistant", "content": "Berlin"},
			}},
		})
	}))
	defer srv.Close()

	g, err := NewOpenAI(OpenAIConfig{APIKey: "test", BaseURL: srv.URL, Model: "gpt-4o-mini"})
	require.NoError(t, err)
	out, err := g.Generate(context.Background(), "capital of Germany?")
	require.NoError(t, err)
	assert.Equal(t, "Berlin", out)
	assert.Equal(t, "gpt-4o-mini", got["model"])
	assert.Contains(t, got, "temperature")
}

func TestNewOpenAI_requiresKey(t *testing.T) {
	_, err := NewOpenAI(OpenAIConfig{})
	assert.Error(t, err)
}

func TestMock(t *testing.T) {
	m := NewMock("an answer")
	out, err := m.Generate(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, "an answer", out)
	_, _ = m.Generate(context.Background(), "p2")
	assert.Equal(t, []string{"p1", "p2"}, m.Prompts())
	assert.Equal(t, "p2", m.LastPrompt())

	echo := &Mock{}
	out, _ = echo.Generate(context.Background(), "hello")
	assert.Equal(t, "hello", out)

	boom := errors.New("boom")
	failing := &Mock{Respond: func(string) (string, error) { return "", boom }}
	_, err = failing.Generate(context.Background(), "x")
	assert.ErrorIs(t, err, boom)
}

func TestRateLimited(t *testing.T) {
	m := NewMock("ok")
	rl := NewRateLimited(m, 0.001, 1)

	_, err := rl.Generate(context.Background(), "first")
	require.NoError(t, err)

	// the bucket is empty, so the second call waits past its deadline
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = rl.Generate(ctx, "second")
	assert.Error(t, err)
	assert.Equal(t, []string{"first"}, m.Prompts())
}

func TestNew_providers(t *testing.T) {
	g, err := New(context.Background(), config.LLMConfig{Provider: "mock"})
	require.NoError(t, err)
	assert.Equal(t, "mock", g.Model())

	g, err = New(context.Background(), config.LLMConfig{Provider: "ollama", BaseURL: "http://localhost:11434", Model: "gemma2:9b"})
	require.NoError(t, err)
	assert.IsType(t, &Ollama{}, g)

	g, err = New(context.Background(), config.LLMConfig{Provider: "mock", RateLimit: 5, Burst: 2})
	require.NoError(t, err)
	assert.IsType(t, &RateLimited{}, g)

	_, err = New(context.Background(), config.LLMConfig{Provider: "nope"})
	assert.Error(t, err)
}
