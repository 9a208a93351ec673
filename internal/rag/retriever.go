package rag

import (
	"context"
	"errors"

	"github.com/hyperjump/kotae/internal/embedding"
	"github.com/hyperjump/kotae/internal/models"
	"github.com/hyperjump/kotae/internal/vector"
	"github.com/hyperjump/kotae/internal/vectorstore"
)

const (
	DefaultK      = 2
	DefaultFetchK = 10
	DefaultLambda = 0.5
)

// Retriever picks context chunks for a question by maximal marginal relevance
// over the nearest candidates in a user's store.
type Retriever struct {
	embedder embedding.Embedder
	k        int
	fetchK   int
	lambda   float64
}

// NewRetriever validates the parameters and returns a retriever.
func NewRetriever(embedder embedding.Embedder, k, fetchK int, lambda float64) (*Retriever, error) {
	if err := vector.ValidateMMR(k, fetchK, lambda); err != nil {
		return nil, newError(KindInvalidInput, "new retriever", "", err)
	}
	return &Retriever{embedder: embedder, k: k, fetchK: fetchK, lambda: lambda}, nil
}

// K returns the default number of chunks returned.
func (r *Retriever) K() int { return r.k }

// Retrieve returns up to k entries for query in selection order. k <= 0 uses the
// retriever's default. An empty store yields no entries and no error.
func (r *Retriever) Retrieve(ctx context.Context, h *vectorstore.Handle, query string, k int) ([]*models.Entry, error) {
	if k <= 0 {
		k = r.k
	}
	fetchK := r.fetchK
	if fetchK < k {
		fetchK = k
	}
	qv, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, newError(KindEmbeddingFailure, "embed query", h.User(), err)
	}
	cands, err := h.Candidates(ctx, qv, fetchK)
	if errors.Is(err, vectorstore.ErrEmbedding) {
		return nil, newError(KindEmbeddingFailure, "fetch candidates", h.User(), err)
	}
	if err != nil {
		return nil, newError(KindStorageUnavailable, "fetch candidates", h.User(), err)
	}
	if len(cands) == 0 {
		return nil, nil
	}
	vecs := make([][]float32, len(cands))
	for i, c := range cands {
		vecs[i] = c.Entry.Embedding
	}
	picked := vector.MMR(qv, vecs, k, r.lambda)
	out := make([]*models.Entry, len(picked))
	for i, idx := range picked {
		out[i] = cands[idx].Entry
	}
	return out, nil
}
