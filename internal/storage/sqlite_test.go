package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/hyperjump/kotae/internal/models"
)

func newEntry(id, content string, vec ...float32) *models.Entry {
	return &models.Entry{ID: id, Content: content, Embedding: vec}
}

func TestSQLiteEntryStore_InsertAndList(t *testing.T) {
	path := filepath.Join(t.TempDir(), "u1", "vectors.db")
	store, err := NewSQLiteEntryStore(path)
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()
	ctx := context.Background()

	ids, err := store.ListIDs(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != 0 {
		t.Errorf("new store should be empty, got %d ids", len(ids))
	}

	n, err := store.InsertEntries(ctx, []*models.Entry{
		newEntry("a", "alpha", 1, 0),
		newEntry("b", "beta", 0, 1),
	})
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("inserted %d, want 2", n)
	}

	// existing IDs are ignored, never overwritten
	n, err = store.InsertEntries(ctx, []*models.Entry{
		newEntry("a", "changed", 0.5, 0.5),
		newEntry("c", "gamma", 0.6, 0.8),
	})
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("inserted %d, want 1", n)
	}

	ids, _ = store.ListIDs(ctx)
	for _, id := range []string{"a", "b", "c"} {
		if _, ok := ids[id]; !ok {
			t.Errorf("missing id %s", id)
		}
	}
	count, err := store.CountEntries(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if count != 3 {
		t.Errorf("count = %d, want 3", count)
	}

	all, err := store.LoadEntries(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 3 || all[0].ID != "a" || all[2].ID != "c" {
		t.Fatalf("unexpected load order: %v", all)
	}
	if all[0].Content != "alpha" {
		t.Errorf("entry a was overwritten: %q", all[0].Content)
	}
	if len(all[2].Embedding) != 2 || all[2].Embedding[0] != 0.6 || all[2].Embedding[1] != 0.8 {
		t.Errorf("embedding round trip: %v", all[2].Embedding)
	}
}

func TestSQLiteEntryStore_Persistence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vectors.db")
	ctx := context.Background()

	store, err := NewSQLiteEntryStore(path)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := store.InsertEntries(ctx, []*models.Entry{newEntry("x", "text", 1, 2, 3)}); err != nil {
		t.Fatal(err)
	}
	if err := store.Close(); err != nil {
		t.Fatal(err)
	}

	reopened, err := NewSQLiteEntryStore(path)
	if err != nil {
		t.Fatal(err)
	}
	defer reopened.Close()
	count, _ := reopened.CountEntries(ctx)
	if count != 1 {
		t.Errorf("count after reopen = %d, want 1", count)
	}
}

func TestSQLiteEntryStore_GetEntries(t *testing.T) {
	store, err := NewSQLiteEntryStore(filepath.Join(t.TempDir(), "vectors.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()
	ctx := context.Background()
	_, _ = store.InsertEntries(ctx, []*models.Entry{
		newEntry("a", "alpha", 1),
		newEntry("b", "beta", 2),
		newEntry("c", "gamma", 3),
	})

	got, err := store.GetEntries(ctx, []string{"c", "missing", "a"})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].ID != "c" || got[1].ID != "a" {
		t.Errorf("unexpected entries: %+v", got)
	}
	got, err = store.GetEntries(ctx, nil)
	if err != nil || got != nil {
		t.Errorf("empty ids: %v, %v", got, err)
	}
}

func TestSQLiteEntryStore_RejectsMissingEmbedding(t *testing.T) {
	store, err := NewSQLiteEntryStore(filepath.Join(t.TempDir(), "vectors.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()
	ctx := context.Background()
	_, err = store.InsertEntries(ctx, []*models.Entry{newEntry("a", "alpha", 1), newEntry("b", "beta")})
	if err == nil {
		t.Fatal("expected error")
	}
	count, _ := store.CountEntries(ctx)
	if count != 0 {
		t.Errorf("failed batch should roll back, count = %d", count)
	}
}

func TestSQLiteUserStore(t *testing.T) {
	store, err := NewSQLiteUserStore(filepath.Join(t.TempDir(), "users.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()
	ctx := context.Background()

	u, err := store.CreateUser(ctx, "alice", "hash")
	if err != nil {
		t.Fatal(err)
	}
	if u.ID == 0 {
		t.Error("ID should be set")
	}
	if _, err := store.CreateUser(ctx, "alice", "other"); !errors.Is(err, ErrUserExists) {
		t.Errorf("expected ErrUserExists, got %v", err)
	}

	got, err := store.GetUser(ctx, "alice")
	if err != nil {
		t.Fatal(err)
	}
	if got.PasswordHash != "hash" {
		t.Errorf("password hash = %q", got.PasswordHash)
	}
	if _, err := store.GetUser(ctx, "bob"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	n, _ := store.CountUsers(ctx)
	if n != 1 {
		t.Errorf("CountUsers = %d, want 1", n)
	}
}

func TestVectorCodec(t *testing.T) {
	in := []float32{0, -1.5, 3.25}
	out, err := decodeVector(encodeVector(in))
	if err != nil {
		t.Fatal(err)
	}
	for i := range in {
		if in[i] != out[i] {
			t.Errorf("index %d: %v != %v", i, in[i], out[i])
		}
	}
	if _, err := decodeVector([]byte{1, 2, 3}); err == nil {
		t.Error("expected error for truncated blob")
	}
}
