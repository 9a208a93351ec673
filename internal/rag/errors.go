package rag

import (
	"errors"
	"fmt"
)

// Kind classifies a pipeline failure.
type Kind string

const (
	KindStorageUnavailable Kind = "storage_unavailable"
	KindEmbeddingFailure   Kind = "embedding_failure"
	KindGenerationFailure  Kind = "generation_failure"
	KindInvalidInput       Kind = "invalid_input"
)

// Sentinels for errors.Is; every *Error matches the sentinel of its kind.
var (
	ErrStorageUnavailable = errors.New("storage unavailable")
	ErrEmbeddingFailure   = errors.New("embedding failure")
	ErrGenerationFailure  = errors.New("generation failure")
	ErrInvalidInput       = errors.New("invalid input")
)

func (k Kind) sentinel() error {
	switch k {
	case KindStorageUnavailable:
		return ErrStorageUnavailable
	case KindEmbeddingFailure:
		return ErrEmbeddingFailure
	case KindGenerationFailure:
		return ErrGenerationFailure
	case KindInvalidInput:
		return ErrInvalidInput
	}
	return nil
}

// Error is a classified pipeline failure.
type Error struct {
	Kind Kind
	Op   string
	User string
	Err  error
}

func (e *Error) Error() string {
	msg := e.Kind.sentinel()
	if msg == nil {
		msg = errors.New(string(e.Kind))
	}
	if e.User != "" {
		return fmt.Sprintf("%s (user %q): %v: %v", e.Op, e.User, msg, e.Err)
	}
	return fmt.Sprintf("%s: %v: %v", e.Op, msg, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is the sentinel for e's kind.
func (e *Error) Is(target error) bool {
	s := e.Kind.sentinel()
	return s != nil && target == s
}

// KindOf returns the kind of the first *Error in err's chain, or "" if there is none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

func newError(kind Kind, op, user string, err error) *Error {
	return &Error{Kind: kind, Op: op, User: user, Err: err}
}
