// Package storage defines the persistence interfaces for vector store entries and users.
package storage

import (
	"context"
	"errors"

	"github.com/hyperjump/kotae/internal/models"
)

var (
	ErrNotFound   = errors.New("not found")
	ErrUserExists = errors.New("user already exists")
)

// EntryStore is the durable record of one user's vector store.
// Entries are only ever added; an ID that is already present is never overwritten.
type EntryStore interface {
	// ListIDs returns the set of entry IDs currently stored.
	ListIDs(ctx context.Context) (map[string]struct{}, error)
	// InsertEntries adds entries in a single transaction and returns how many were new.
	// The entries are durable once it returns without error.
	InsertEntries(ctx context.Context, entries []*models.Entry) (int, error)
	// LoadEntries returns every entry in insertion order.
	LoadEntries(ctx context.Context) ([]*models.Entry, error)
	// GetEntries returns the entries for ids, in the order given. Unknown IDs are skipped.
	GetEntries(ctx context.Context, ids []string) ([]*models.Entry, error)
	CountEntries(ctx context.Context) (int64, error)
	Close() error
}

// UserStore persists accounts.
type UserStore interface {
	CreateUser(ctx context.Context, username, passwordHash string) (*models.User, error)
	GetUser(ctx context.Context, username string) (*models.User, error)
	CountUsers(ctx context.Context) (int64, error)
	Close() error
}
