package session

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_lifecycle(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore(time.Hour)

	s, err := m.Create(ctx, "alice")
	require.NoError(t, err)
	_, err = uuid.Parse(s.Token)
	assert.NoError(t, err, "token should be a uuid")

	got, err := m.Lookup(ctx, s.Token)
	require.NoError(t, err)
	assert.Equal(t, "alice", got.User)

	other, err := m.Create(ctx, "alice")
	require.NoError(t, err)
	assert.NotEqual(t, s.Token, other.Token)

	require.NoError(t, m.Delete(ctx, s.Token))
	_, err = m.Lookup(ctx, s.Token)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, m.Delete(ctx, "unknown"))

	_, err = m.Lookup(ctx, other.Token)
	assert.NoError(t, err, "other sessions survive")
}

func TestMemoryStore_expiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	m := NewMemoryStore(time.Minute)
	m.now = func() time.Time { return now }

	a, _ := m.Create(ctx, "a")
	now = now.Add(30 * time.Second)
	b, _ := m.Create(ctx, "b")

	now = now.Add(31 * time.Second)
	_, err := m.Lookup(ctx, a.Token)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = m.Lookup(ctx, b.Token)
	assert.NoError(t, err)

	now = now.Add(time.Minute)
	assert.Equal(t, 1, m.Sweep())
	assert.Zero(t, m.Len())
}

func TestMemoryStore_noTTL(t *testing.T) {
	m := NewMemoryStore(0)
	s, _ := m.Create(context.Background(), "u")
	assert.True(t, s.ExpiresAt.IsZero())
	assert.Zero(t, m.Sweep())
}

// compile-time check
var _ Store = (*MemoryStore)(nil)
