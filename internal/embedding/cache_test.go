package embedding

import (
	"context"
	"testing"
)

func TestEmbeddingCache_GetSet(t *testing.T) {
	c := NewEmbeddingCache(2)
	if v, ok := c.Get("a"); ok || v != nil {
		t.Fatal("expected miss")
	}
	c.Set("a", []float32{1, 2, 3})
	v, ok := c.Get("a")
	if !ok || len(v) != 3 || v[0] != 1 {
		t.Errorf("Get: got %v, %v", v, ok)
	}
	c.Set("b", []float32{4, 5})
	c.Set("c", []float32{6}) // evicts a
	if _, ok := c.Get("a"); ok {
		t.Error("expected a to be evicted")
	}
	if _, ok := c.Get("b"); !ok {
		t.Error("expected b to remain")
	}
	if _, ok := c.Get("c"); !ok {
		t.Error("expected c to be present")
	}
	if c.Len() != 2 {
		t.Errorf("Len=%d, want 2", c.Len())
	}
}

func TestCachedEmbedder(t *testing.T) {
	mock := NewMockEmbedder(8)
	e := NewCachedEmbedder(mock, 10)
	ctx := context.Background()

	first, err := e.Embed(ctx, "question")
	if err != nil {
		t.Fatal(err)
	}
	second, _ := e.Embed(ctx, "question")
	if mock.TextsEmbedded() != 1 {
		t.Errorf("repeated text should hit the cache, embedded %d times", mock.TextsEmbedded())
	}
	if &first[0] != &second[0] {
		t.Error("expected the cached slice to be returned")
	}

	vecs, err := e.EmbedBatch(ctx, []string{"question", "new one", "another"})
	if err != nil {
		t.Fatal(err)
	}
	if len(vecs) != 3 || vecs[0] == nil || vecs[2] == nil {
		t.Fatalf("unexpected batch result: %v", vecs)
	}
	if mock.TextsEmbedded() != 3 {
		t.Errorf("only missing texts should be embedded, total %d", mock.TextsEmbedded())
	}
	if e.Dimensions() != 8 {
		t.Errorf("Dimensions=%d", e.Dimensions())
	}
	if err := e.Ping(ctx); err != nil {
		t.Errorf("Ping on a non-pinger should succeed: %v", err)
	}
}
