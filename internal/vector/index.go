// Package vector provides similarity indexes over entry embeddings and maximal marginal relevance selection.
package vector

import "context"

// VectorIndex defines in-memory similarity search over entry embeddings.
// Indexes are rebuilt from the entry store when a user's store is opened.
type VectorIndex interface {
	Add(ctx context.Context, ids []string, vectors [][]float32) error
	Search(ctx context.Context, query []float32, k int) ([]*VectorResult, error)
	Size() int
	Dimensions() int
	Type() string
	Close() error
}

// VectorResult is a single vector search hit (ID is the entry's content ID).
type VectorResult struct {
	ID    string
	Score float64 // Inner product; cosine similarity for normalized vectors
}
