package vector

import (
	"container/heap"
	"context"
	"fmt"
	"sort"
	"sync"
)

// MemoryIndex is an exact inner-product index. Vectors live in one contiguous
// slab; per-user stores are small enough that a linear scan is the right tool.
type MemoryIndex struct {
	mu         sync.RWMutex
	dimensions int
	ids        []string
	known      map[string]struct{}
	slab       []float32 // len(ids) * dimensions
}

// NewMemoryIndex creates an in-memory vector index with the given dimension.
func NewMemoryIndex(dimensions int) (*MemoryIndex, error) {
	if dimensions <= 0 {
		return nil, fmt.Errorf("dimensions must be positive")
	}
	return &MemoryIndex{dimensions: dimensions, known: make(map[string]struct{})}, nil
}

// Type returns the index type identifier.
func (m *MemoryIndex) Type() string {
	return string(IndexTypeMemory)
}

// Add appends vectors with the given IDs. IDs already present are ignored.
func (m *MemoryIndex) Add(ctx context.Context, ids []string, vectors [][]float32) error {
	if len(ids) != len(vectors) {
		return fmt.Errorf("ids and vectors length mismatch")
	}
	for _, v := range vectors {
		if len(v) != m.dimensions {
			return fmt.Errorf("vector dimension mismatch: got %d, expected %d", len(v), m.dimensions)
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, id := range ids {
		if _, ok := m.known[id]; ok {
			continue
		}
		m.known[id] = struct{}{}
		m.ids = append(m.ids, id)
		m.slab = append(m.slab, vectors[i]...)
	}
	return nil
}

func (m *MemoryIndex) row(i int) []float32 {
	return m.slab[i*m.dimensions : (i+1)*m.dimensions]
}

// Search returns the k best vectors by inner product, which is cosine
// similarity for normalized vectors. Ties keep insertion order.
func (m *MemoryIndex) Search(ctx context.Context, query []float32, k int) ([]*VectorResult, error) {
	if len(query) != m.dimensions {
		return nil, fmt.Errorf("query dimension mismatch: got %d, expected %d", len(query), m.dimensions)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if k <= 0 || len(m.ids) == 0 {
		return nil, nil
	}

	top := make(hitHeap, 0, k+1)
	for i := range m.ids {
		h := hit{pos: i, score: InnerProduct(query, m.row(i))}
		if len(top) < k {
			heap.Push(&top, h)
		} else if top[0].worse(h) {
			top[0] = h
			heap.Fix(&top, 0)
		}
	}
	sort.Slice(top, func(i, j int) bool { return top[j].worse(top[i]) })

	out := make([]*VectorResult, len(top))
	for i, h := range top {
		out[i] = &VectorResult{ID: m.ids[h.pos], Score: h.score}
	}
	return out, nil
}

// Size returns the number of vectors in the index.
func (m *MemoryIndex) Size() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.ids)
}

// Dimensions returns the vector length the index accepts.
func (m *MemoryIndex) Dimensions() int { return m.dimensions }

// Close is a no-op for MemoryIndex.
func (m *MemoryIndex) Close() error {
	return nil
}

type hit struct {
	pos   int
	score float64
}

// worse reports whether h ranks below o: a lower score, or an equal score inserted later.
func (h hit) worse(o hit) bool {
	if h.score != o.score {
		return h.score < o.score
	}
	return h.pos > o.pos
}

// hitHeap is a min-heap with the worst kept hit on top.
type hitHeap []hit

func (h hitHeap) Len() int           { return len(h) }
func (h hitHeap) Less(i, j int) bool { return h[i].worse(h[j]) }
func (h hitHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *hitHeap) Push(x any)        { *h = append(*h, x.(hit)) }
func (h *hitHeap) Pop() any {
	old := *h
	x := old[len(old)-1]
	*h = old[:len(old)-1]
	return x
}
