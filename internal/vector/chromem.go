package vector

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/philippgille/chromem-go"
)

const chromemCollection = "entries"

// ChromemIndex keeps vectors in an in-memory chromem-go collection.
// Embeddings are always supplied by the caller; the collection never embeds content itself.
type ChromemIndex struct {
	dimensions int
	db         *chromem.DB
	collection *chromem.Collection
	mu         sync.RWMutex
}

// NewChromemIndex creates an empty chromem-backed index.
func NewChromemIndex(dimensions int) (*ChromemIndex, error) {
	if dimensions <= 0 {
		return nil, fmt.Errorf("dimensions must be positive")
	}
	db := chromem.NewDB()
	collection, err := db.GetOrCreateCollection(chromemCollection, map[string]string{"hnsw:space": "cosine"}, noEmbedding)
	if err != nil {
		return nil, fmt.Errorf("failed to create collection: %w", err)
	}
	return &ChromemIndex{dimensions: dimensions, db: db, collection: collection}, nil
}

func noEmbedding(context.Context, string) ([]float32, error) {
	return nil, errors.New("chromem index requires precomputed embeddings")
}

// Type returns the index type identifier.
func (c *ChromemIndex) Type() string {
	return string(IndexTypeChromem)
}

// Add stores vectors under the given IDs. Re-adding an ID replaces its vector.
func (c *ChromemIndex) Add(ctx context.Context, ids []string, vectors [][]float32) error {
	if len(ids) != len(vectors) {
		return fmt.Errorf("ids and vectors length mismatch")
	}
	if len(ids) == 0 {
		return nil
	}
	for i := range vectors {
		if len(vectors[i]) != c.dimensions {
			return fmt.Errorf("vector dimension mismatch: got %d, expected %d", len(vectors[i]), c.dimensions)
		}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.collection.Add(ctx, ids, vectors, nil, nil); err != nil {
		return fmt.Errorf("failed to add vectors: %w", err)
	}
	return nil
}

// Search returns up to k nearest vectors by cosine similarity.
func (c *ChromemIndex) Search(ctx context.Context, query []float32, k int) ([]*VectorResult, error) {
	if len(query) != c.dimensions {
		return nil, fmt.Errorf("query dimension mismatch: got %d, expected %d", len(query), c.dimensions)
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	n := c.collection.Count()
	if k <= 0 || n == 0 {
		return nil, nil
	}
	// chromem rejects nResults larger than the collection
	if k > n {
		k = n
	}
	res, err := c.collection.QueryEmbedding(ctx, query, k, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	out := make([]*VectorResult, len(res))
	for i, r := range res {
		out[i] = &VectorResult{ID: r.ID, Score: float64(r.Similarity)}
	}
	return out, nil
}

// Size returns the number of vectors in the collection.
func (c *ChromemIndex) Size() int {
	return c.collection.Count()
}

// Dimensions returns the vector length the collection accepts.
func (c *ChromemIndex) Dimensions() int { return c.dimensions }

// Close drops the collection.
func (c *ChromemIndex) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.db.DeleteCollection(chromemCollection)
}
