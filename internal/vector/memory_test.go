package vector

import (
	"context"
	"testing"
)

func TestMemoryIndex_AddSearch(t *testing.T) {
	idx, err := NewMemoryIndex(3)
	if err != nil {
		t.Fatal(err)
	}
	defer idx.Close()
	ctx := context.Background()

	vecs := [][]float32{
		{1, 0, 0},
		{0.9, 0.1, 0},
		{0, 1, 0},
	}
	ids := []string{"a", "b", "c"}
	if err := idx.Add(ctx, ids, vecs); err != nil {
		t.Fatal(err)
	}
	if idx.Size() != 3 {
		t.Errorf("Size=%d", idx.Size())
	}

	results, err := idx.Search(ctx, []float32{1, 0, 0}, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].ID != "a" || results[1].ID != "b" {
		t.Errorf("unexpected order: %s, %s", results[0].ID, results[1].ID)
	}

	results, _ = idx.Search(ctx, []float32{1, 0, 0}, 10)
	if len(results) != 3 {
		t.Errorf("k larger than size should return all, got %d", len(results))
	}
}

func TestMemoryIndex_DuplicateIDsIgnored(t *testing.T) {
	idx, _ := NewMemoryIndex(2)
	ctx := context.Background()
	_ = idx.Add(ctx, []string{"x", "y"}, [][]float32{{1, 0}, {0, 1}})
	if err := idx.Add(ctx, []string{"x"}, [][]float32{{0, 1}}); err != nil {
		t.Fatal(err)
	}
	if idx.Size() != 2 {
		t.Errorf("expected size 2, got %d", idx.Size())
	}
	results, _ := idx.Search(ctx, []float32{1, 0}, 1)
	if results[0].ID != "x" {
		t.Errorf("original vector for x should be kept, top=%s", results[0].ID)
	}
}

func TestMemoryIndex_Errors(t *testing.T) {
	idx, _ := NewMemoryIndex(2)
	ctx := context.Background()
	if err := idx.Add(ctx, []string{"a", "b"}, [][]float32{{1, 0}}); err == nil {
		t.Error("expected length mismatch error")
	}
	if err := idx.Add(ctx, []string{"a"}, [][]float32{{1, 0, 0}}); err == nil {
		t.Error("expected dimension mismatch error")
	}
	if idx.Size() != 0 {
		t.Errorf("failed adds should not change size, got %d", idx.Size())
	}
	if _, err := idx.Search(ctx, []float32{1}, 1); err == nil {
		t.Error("expected query dimension error")
	}
	results, err := idx.Search(ctx, []float32{1, 0}, 3)
	if err != nil || results != nil {
		t.Errorf("empty index: got %v, %v", results, err)
	}
}

func TestMemoryIndex_TopKKeepsInsertionOrderOnTies(t *testing.T) {
	idx, _ := NewMemoryIndex(2)
	ctx := context.Background()
	_ = idx.Add(ctx,
		[]string{"low", "tie1", "best", "tie2", "tie3"},
		[][]float32{{0, 1}, {0.5, 0}, {1, 0}, {0.5, 0}, {0.5, 0}},
	)
	results, err := idx.Search(ctx, []float32{1, 0}, 3)
	if err != nil {
		t.Fatal(err)
	}
	var got []string
	for _, r := range results {
		got = append(got, r.ID)
	}
	want := []string{"best", "tie1", "tie2"}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] || got[2] != want[2] {
		t.Errorf("order = %v, want %v", got, want)
	}
}
