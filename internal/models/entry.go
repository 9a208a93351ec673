// Package models defines core data structures for stored entries, requests, and answers.
package models

import "time"

// Entry is one chunk in a user's vector store. ID is the content identifier of Content.
type Entry struct {
	ID        string    `json:"id" db:"id"`
	Content   string    `json:"content" db:"content"`
	Embedding []float32 `json:"-" db:"embedding"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// ScoredEntry is an entry returned by similarity search, with its similarity to the query.
type ScoredEntry struct {
	Entry *Entry  `json:"entry"`
	Score float64 `json:"score"`
}

// User is a registered account.
type User struct {
	ID           int64     `json:"id" db:"id"`
	Username     string    `json:"username" db:"username"`
	PasswordHash string    `json:"-" db:"password_hash"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}
