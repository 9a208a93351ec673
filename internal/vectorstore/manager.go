// Package vectorstore manages one persistent, append-only vector store per user.
package vectorstore

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/hyperjump/kotae/internal/storage"
	"github.com/hyperjump/kotae/internal/vector"
)

// StoreFile is the name of the entry database inside a user's directory.
const StoreFile = "vectors.db"

var (
	// ErrInvalidUser is returned for identities that cannot name a store.
	ErrInvalidUser = errors.New("invalid user identity")
	// ErrClosed is returned after the manager has been closed.
	ErrClosed = errors.New("vector store manager is closed")
	// ErrEmbedding marks ingestion failures caused by the embedder rather than storage.
	ErrEmbedding = errors.New("embedding failed")
)

// Manager opens per-user stores under a root directory and caches their handles.
type Manager struct {
	root      string
	indexType string
	logger    *zap.Logger

	group   singleflight.Group
	mu      sync.Mutex
	handles map[string]*Handle
	closed  bool
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithLogger sets a logger for store creation and ingestion events.
func WithLogger(l *zap.Logger) ManagerOption {
	return func(m *Manager) { m.logger = l }
}

// WithIndexType selects the similarity index backend ("memory" or "chromem").
func WithIndexType(t string) ManagerOption {
	return func(m *Manager) { m.indexType = t }
}

// NewManager creates a manager rooted at root (typically <data_dir>/users).
func NewManager(root string, opts ...ManagerOption) *Manager {
	m := &Manager{
		root:      root,
		indexType: string(vector.IndexTypeMemory),
		logger:    zap.NewNop(),
		handles:   make(map[string]*Handle),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Root returns the directory holding all user stores.
func (m *Manager) Root() string { return m.root }

// Dir returns the directory for user's store. The identity is escaped so it
// always names a single directory directly under the root.
func (m *Manager) Dir(user string) (string, error) {
	name, err := dirName(user)
	if err != nil {
		return "", err
	}
	return filepath.Join(m.root, name), nil
}

func dirName(user string) (string, error) {
	if user == "" {
		return "", ErrInvalidUser
	}
	name := url.PathEscape(user)
	if name == "." || name == ".." {
		name = strings.ReplaceAll(name, ".", "%2E")
	}
	return name, nil
}

// Exists reports whether a store has been created for user. It never creates one.
func (m *Manager) Exists(user string) bool {
	dir, err := m.Dir(user)
	if err != nil {
		return false
	}
	_, err = os.Stat(filepath.Join(dir, StoreFile))
	return err == nil
}

// OpenOrCreate returns the handle for user's store, creating the store on first use.
// Concurrent and repeated calls for the same user share one handle.
func (m *Manager) OpenOrCreate(ctx context.Context, user string) (*Handle, error) {
	dir, err := m.Dir(user)
	if err != nil {
		return nil, err
	}
	if h, ok, err := m.cached(user); ok || err != nil {
		return h, err
	}

	// The open is shared by every concurrent caller, so one caller's
	// cancellation must not fail the others.
	octx := context.WithoutCancel(ctx)
	v, err, _ := m.group.Do(user, func() (any, error) {
		if h, ok, err := m.cached(user); ok || err != nil {
			return h, err
		}
		h, err := m.open(octx, user, dir)
		if err != nil {
			return nil, err
		}
		m.mu.Lock()
		defer m.mu.Unlock()
		if m.closed {
			_ = h.close()
			return nil, ErrClosed
		}
		m.handles[user] = h
		return h, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Handle), nil
}

func (m *Manager) cached(user string) (*Handle, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil, false, ErrClosed
	}
	h, ok := m.handles[user]
	return h, ok, nil
}

func (m *Manager) open(ctx context.Context, user, dir string) (*Handle, error) {
	created := !m.Exists(user)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}
	store, err := storage.NewSQLiteEntryStore(filepath.Join(dir, StoreFile))
	if err != nil {
		return nil, err
	}
	h := &Handle{
		user:      user,
		dir:       dir,
		store:     store,
		indexType: m.indexType,
		logger:    m.logger.With(zap.String("user", user)),
	}
	if err := h.rebuildIndex(ctx); err != nil {
		_ = store.Close()
		return nil, err
	}
	if created {
		m.logger.Info("created vector store", zap.String("user", user), zap.String("dir", dir))
	} else {
		m.logger.Debug("opened vector store", zap.String("user", user), zap.Int("entries", h.indexSize()))
	}
	return h, nil
}

// Close closes every open handle. Later calls to OpenOrCreate fail with ErrClosed.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil
	}
	m.closed = true
	var errs []error
	for user, h := range m.handles {
		if err := h.close(); err != nil {
			errs = append(errs, fmt.Errorf("close store for %s: %w", user, err))
		}
	}
	m.handles = nil
	return errors.Join(errs...)
}
