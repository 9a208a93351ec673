// Package embedding provides text embedding providers, caching, and batching helpers.
package embedding

import (
	"context"

	"github.com/hyperjump/kotae/pkg/utils"
)

// Embedder produces vector embeddings for text.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
	Close() error
}

// Pinger is implemented by remote embedders that can check connectivity without running inference.
type Pinger interface {
	Ping(ctx context.Context) error
}

// normalized returns v scaled to unit length (in place).
func normalized(v []float32) []float32 {
	utils.NormalizeL2(v)
	return v
}

func toFloat32(v []float64) []float32 {
	out := make([]float32, len(v))
	for i, f := range v {
		out[i] = float32(f)
	}
	return out
}
