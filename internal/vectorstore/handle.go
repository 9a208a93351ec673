package vectorstore

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/kotae/internal/contentid"
	"github.com/hyperjump/kotae/internal/embedding"
	"github.com/hyperjump/kotae/internal/models"
	"github.com/hyperjump/kotae/internal/storage"
	"github.com/hyperjump/kotae/internal/vector"
)

// Handle is an open user store. Writers hold the write lock across
// check-then-insert; readers see the store either before or after a whole ingestion.
type Handle struct {
	user      string
	dir       string
	store     storage.EntryStore
	indexType string
	logger    *zap.Logger

	mu    sync.RWMutex
	index vector.VectorIndex // nil until the first entry; dimensions come from it
}

// User returns the identity that owns the store.
func (h *Handle) User() string { return h.user }

// Dir returns the store's directory.
func (h *Handle) Dir() string { return h.dir }

// ListIdentifiers returns the IDs of every entry in the store.
func (h *Handle) ListIdentifiers(ctx context.Context) (map[string]struct{}, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.store.ListIDs(ctx)
}

// Insert adds entries and returns how many were new. Entries whose ID is
// already stored are left untouched.
func (h *Handle) Insert(ctx context.Context, entries []*models.Entry) (int, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	existing, err := h.store.ListIDs(ctx)
	if err != nil {
		return 0, err
	}
	fresh := make([]*models.Entry, 0, len(entries))
	for _, e := range entries {
		if _, ok := existing[e.ID]; ok {
			continue
		}
		existing[e.ID] = struct{}{}
		fresh = append(fresh, e)
	}
	return h.insertLocked(ctx, fresh)
}

// Ingest stores the chunks not already present, embedding only those.
// Duplicate chunks within the same call are stored once.
func (h *Handle) Ingest(ctx context.Context, chunks []string, embedder embedding.Embedder) (*models.IngestResult, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	existing, err := h.store.ListIDs(ctx)
	if err != nil {
		return nil, err
	}
	var (
		ids   []string
		texts []string
	)
	for _, chunk := range chunks {
		id := contentid.ID(chunk)
		if _, ok := existing[id]; ok {
			continue
		}
		existing[id] = struct{}{}
		ids = append(ids, id)
		texts = append(texts, chunk)
	}

	res := &models.IngestResult{Chunks: len(chunks)}
	if len(texts) > 0 {
		vecs, err := embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrEmbedding, err)
		}
		if len(vecs) != len(texts) {
			return nil, fmt.Errorf("%w: got %d embeddings for %d chunks", ErrEmbedding, len(vecs), len(texts))
		}
		now := time.Now().UTC()
		entries := make([]*models.Entry, len(texts))
		for i := range texts {
			entries[i] = &models.Entry{ID: ids[i], Content: texts[i], Embedding: vecs[i], CreatedAt: now}
		}
		n, err := h.insertLocked(ctx, entries)
		if err != nil {
			return nil, err
		}
		res.Inserted = n
	}
	res.Skipped = res.Chunks - res.Inserted
	res.Total = h.indexSize()

	h.logger.Debug("ingested document",
		zap.Int("chunks", res.Chunks),
		zap.Int("inserted", res.Inserted),
		zap.Int("skipped", res.Skipped),
		zap.Int("total", res.Total))
	return res, nil
}

// Dimensions returns the embedding length of the stored entries, or 0 while the store is empty.
func (h *Handle) Dimensions() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.index == nil {
		return 0
	}
	return h.index.Dimensions()
}

// Count returns the number of stored entries.
func (h *Handle) Count(ctx context.Context) (int64, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.store.CountEntries(ctx)
}

// Candidates returns up to fetchK entries nearest to query, most similar first.
// An empty store yields no candidates and no error.
func (h *Handle) Candidates(ctx context.Context, query []float32, fetchK int) ([]*models.ScoredEntry, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.index == nil || h.index.Size() == 0 || fetchK <= 0 {
		return nil, nil
	}
	if d := h.index.Dimensions(); len(query) != d {
		return nil, fmt.Errorf("%w: query has %d dimensions, store has %d", ErrEmbedding, len(query), d)
	}
	hits, err := h.index.Search(ctx, query, fetchK)
	if err != nil {
		return nil, fmt.Errorf("similarity search failed: %w", err)
	}
	ids := make([]string, len(hits))
	scores := make(map[string]float64, len(hits))
	for i, hit := range hits {
		ids[i] = hit.ID
		scores[hit.ID] = hit.Score
	}
	entries, err := h.store.GetEntries(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make([]*models.ScoredEntry, len(entries))
	for i, e := range entries {
		out[i] = &models.ScoredEntry{Entry: e, Score: scores[e.ID]}
	}
	return out, nil
}

// insertLocked expects entries that are not yet stored.
func (h *Handle) insertLocked(ctx context.Context, entries []*models.Entry) (int, error) {
	if len(entries) == 0 {
		return 0, nil
	}
	if err := h.checkDimensions(entries); err != nil {
		return 0, err
	}
	n, err := h.store.InsertEntries(ctx, entries)
	if err != nil {
		return 0, err
	}
	if err := h.addToIndex(ctx, entries); err != nil {
		// committed rows are rebuilt into the index on the next open
		h.logger.Error("index update failed after commit", zap.Error(err))
		return n, err
	}
	return n, nil
}

// checkDimensions rejects a batch whose vectors differ in length from each
// other or from the entries already stored. Nothing is written on failure.
func (h *Handle) checkDimensions(entries []*models.Entry) error {
	want := len(entries[0].Embedding)
	if h.index != nil {
		want = h.index.Dimensions()
	}
	if want == 0 {
		return fmt.Errorf("%w: empty embedding", ErrEmbedding)
	}
	for _, e := range entries {
		if len(e.Embedding) != want {
			return fmt.Errorf("%w: embedding has %d dimensions, store has %d", ErrEmbedding, len(e.Embedding), want)
		}
	}
	return nil
}

func (h *Handle) addToIndex(ctx context.Context, entries []*models.Entry) error {
	if h.index == nil {
		idx, err := vector.NewVectorIndex(h.indexType, len(entries[0].Embedding))
		if err != nil {
			return fmt.Errorf("failed to create %s index: %w", h.indexType, err)
		}
		h.index = idx
	}
	ids := make([]string, len(entries))
	vecs := make([][]float32, len(entries))
	for i, e := range entries {
		ids[i] = e.ID
		vecs[i] = e.Embedding
	}
	return h.index.Add(ctx, ids, vecs)
}

func (h *Handle) rebuildIndex(ctx context.Context) error {
	entries, err := h.store.LoadEntries(ctx)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		return nil
	}
	return h.addToIndex(ctx, entries)
}

func (h *Handle) indexSize() int {
	if h.index == nil {
		return 0
	}
	return h.index.Size()
}

func (h *Handle) close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.index != nil {
		_ = h.index.Close()
		h.index = nil
	}
	return h.store.Close()
}
