// Package session maps opaque session tokens to user identities.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned for unknown or expired tokens.
var ErrNotFound = errors.New("session not found")

// Session is one logged-in user.
type Session struct {
	Token     string
	User      string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Store keeps sessions. Implementations must be safe for concurrent use.
type Store interface {
	Create(ctx context.Context, user string) (*Session, error)
	Lookup(ctx context.Context, token string) (*Session, error)
	Delete(ctx context.Context, token string) error
}

// MemoryStore keeps sessions in process memory; they are lost on restart.
type MemoryStore struct {
	ttl time.Duration
	now func() time.Time

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewMemoryStore returns a store whose sessions expire after ttl (0 = never).
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{ttl: ttl, now: time.Now, sessions: make(map[string]*Session)}
}

// Create starts a session for user with a random token.
func (m *MemoryStore) Create(_ context.Context, user string) (*Session, error) {
	now := m.now()
	s := &Session{Token: uuid.NewString(), User: user, CreatedAt: now}
	if m.ttl > 0 {
		s.ExpiresAt = now.Add(m.ttl)
	}
	m.mu.Lock()
	m.sessions[s.Token] = s
	m.mu.Unlock()
	return s, nil
}

// Lookup returns the live session for token. Expired sessions are removed.
func (m *MemoryStore) Lookup(_ context.Context, token string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[token]
	if !ok {
		return nil, ErrNotFound
	}
	if m.expired(s) {
		delete(m.sessions, token)
		return nil, ErrNotFound
	}
	cp := *s
	return &cp, nil
}

// Delete ends a session. Unknown tokens are not an error.
func (m *MemoryStore) Delete(_ context.Context, token string) error {
	m.mu.Lock()
	delete(m.sessions, token)
	m.mu.Unlock()
	return nil
}

// Sweep removes expired sessions and returns how many were removed.
func (m *MemoryStore) Sweep() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for token, s := range m.sessions {
		if m.expired(s) {
			delete(m.sessions, token)
			n++
		}
	}
	return n
}

// Len returns the number of stored sessions, expired or not.
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

func (m *MemoryStore) expired(s *Session) bool {
	return !s.ExpiresAt.IsZero() && !m.now().Before(s.ExpiresAt)
}

// RunSweeper calls Sweep every interval until ctx is done.
func (m *MemoryStore) RunSweeper(ctx context.Context, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			m.Sweep()
		}
	}
}
