package embedding

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperjump/kotae/internal/vector"
)

func newOllamaServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/embeddings", func(w http.ResponseWriter, r *http.Request) {
		var req ollamaEmbedRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if req.Model != "test-model" {
			http.Error(w, "model not found", http.StatusNotFound)
			return
		}
		_ = json.NewEncoder(w).Encode(ollamaEmbedResponse{Embedding: []float64{3, 4, float64(len(req.Prompt))}})
	})
	mux.HandleFunc("/api/tags", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"models":[]}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestOllamaEmbedder_Embed(t *testing.T) {
	srv := newOllamaServer(t)
	e := NewOllamaEmbedder(OllamaConfig{BaseURL: srv.URL, Model: "test-model", Dimensions: 3})
	ctx := context.Background()

	v, err := e.Embed(ctx, "")
	require.NoError(t, err)
	require.Len(t, v, 3)
	assert.InDelta(t, 0.6, v[0], 1e-6)
	assert.InDelta(t, 0.8, v[1], 1e-6)

	vecs, err := e.EmbedBatch(ctx, []string{"a", "bb", "ccc"})
	require.NoError(t, err)
	require.Len(t, vecs, 3)
	for _, v := range vecs {
		assert.InDelta(t, 1.0, vector.L2Norm(v), 1e-5)
	}
	assert.NotEqual(t, vecs[0], vecs[2])

	assert.NoError(t, e.Ping(ctx))
}

func TestOllamaEmbedder_errorStatus(t *testing.T) {
	srv := newOllamaServer(t)
	e := NewOllamaEmbedder(OllamaConfig{BaseURL: srv.URL, Model: "missing"})
	_, err := e.Embed(context.Background(), "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 404")
}

func TestOllamaEmbedder_unreachable(t *testing.T) {
	srv := newOllamaServer(t)
	url := srv.URL
	srv.Close()
	e := NewOllamaEmbedder(OllamaConfig{BaseURL: url, Model: "test-model"})
	_, err := e.Embed(context.Background(), "x")
	assert.Error(t, err)
	assert.Error(t, e.Ping(context.Background()))
}
