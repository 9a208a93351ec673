package rag

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperjump/kotae/internal/embedding"
	"github.com/hyperjump/kotae/internal/llm"
	"github.com/hyperjump/kotae/internal/prompts"
	"github.com/hyperjump/kotae/internal/vectorstore"
)

func TestNewRetriever_validation(t *testing.T) {
	emb := embedding.NewMockEmbedder(8)
	tests := []struct {
		name    string
		k       int
		fetchK  int
		lambda  float64
		wantErr bool
	}{
		{"defaults", DefaultK, DefaultFetchK, DefaultLambda, false},
		{"k zero", 0, 10, 0.5, true},
		{"fetch_k below k", 3, 2, 0.5, true},
		{"lambda above one", 2, 10, 1.5, true},
		{"lambda negative", 2, 10, -0.1, true},
		{"lambda bounds", 1, 1, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRetriever(emb, tt.k, tt.fetchK, tt.lambda)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidInput)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestRetrieve(t *testing.T) {
	ctx := context.Background()
	emb := embedding.NewHashingEmbedder(1024)
	stores := vectorstore.NewManager(filepath.Join(t.TempDir(), "users"))
	defer stores.Close()
	h, err := stores.OpenOrCreate(ctx, "u")
	require.NoError(t, err)

	r, err := NewRetriever(emb, 2, 10, 1)
	require.NoError(t, err)

	got, err := r.Retrieve(ctx, h, "anything", 0)
	require.NoError(t, err)
	assert.Empty(t, got, "empty store yields no context")

	_, err = h.Ingest(ctx, []string{"Paris is the capital of France."}, emb)
	require.NoError(t, err)
	got, err = r.Retrieve(ctx, h, "capital of France", 0)
	require.NoError(t, err)
	require.Len(t, got, 1, "fewer entries than k returns all of them")

	_, err = h.Ingest(ctx, []string{
		"Berlin is the capital of Germany.",
		"Bananas are yellow.",
		"Rome is the capital of Italy.",
	}, emb)
	require.NoError(t, err)
	got, err = r.Retrieve(ctx, h, "capital of France", 0)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Paris is the capital of France.", got[0].Content)

	got, err = r.Retrieve(ctx, h, "capital of France", 3)
	require.NoError(t, err)
	assert.Len(t, got, 3)
}

func TestRetrieve_embedderDimensionsChanged(t *testing.T) {
	ctx := context.Background()
	stores := vectorstore.NewManager(filepath.Join(t.TempDir(), "users"))
	defer stores.Close()
	h, err := stores.OpenOrCreate(ctx, "u")
	require.NoError(t, err)
	_, err = h.Ingest(ctx, []string{"stored with eight dimensions"}, embedding.NewMockEmbedder(8))
	require.NoError(t, err)

	r, err := NewRetriever(embedding.NewMockEmbedder(16), DefaultK, DefaultFetchK, DefaultLambda)
	require.NoError(t, err)
	_, err = r.Retrieve(ctx, h, "question", 0)
	require.Error(t, err)
	assert.Equal(t, KindEmbeddingFailure, KindOf(err))
	assert.NotErrorIs(t, err, ErrStorageUnavailable)
}

func TestSynthesizer_emptyContext(t *testing.T) {
	ps, err := prompts.New("")
	require.NoError(t, err)
	gen := llm.NewMock("ok")
	s := NewSynthesizer(gen, ps, "")

	_, err = s.Grounded(context.Background(), "q", nil)
	require.NoError(t, err)
	assert.Contains(t, gen.LastPrompt(), NoContextMarker)
	assert.Contains(t, gen.LastPrompt(), "in "+DefaultLanguage)

	_, err = s.Grounded(context.Background(), "q", []string{"first", "second"})
	require.NoError(t, err)
	assert.Contains(t, gen.LastPrompt(), "first\n\nsecond")
}

func TestError(t *testing.T) {
	err := newError(KindStorageUnavailable, "open store", "u1", assert.AnError)
	assert.ErrorIs(t, err, ErrStorageUnavailable)
	assert.NotErrorIs(t, err, ErrEmbeddingFailure)
	assert.ErrorIs(t, err, assert.AnError)
	assert.Contains(t, err.Error(), `open store (user "u1")`)
	assert.Equal(t, Kind(""), KindOf(assert.AnError))
}
