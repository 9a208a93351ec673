package models

import (
	"fmt"
	"strings"
)

// AskRequest is a question with an optional document, on behalf of one user.
type AskRequest struct {
	User     string `json:"-"`
	Question string `json:"question"`
	Document string `json:"document,omitempty"`
}

// HasDocument reports whether a non-blank document was supplied.
func (r *AskRequest) HasDocument() bool {
	return strings.TrimSpace(r.Document) != ""
}

// Validate trims the question and checks that a question and user are present.
func (r *AskRequest) Validate() error {
	r.Question = strings.TrimSpace(r.Question)
	if r.Question == "" {
		return fmt.Errorf("question cannot be empty")
	}
	if strings.TrimSpace(r.User) == "" {
		return fmt.Errorf("user cannot be empty")
	}
	return nil
}
