// Package accounts registers users and verifies their passwords.
package accounts

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/hyperjump/kotae/internal/models"
	"github.com/hyperjump/kotae/internal/storage"
)

const (
	MaxUsernameLen = 64
	// bcrypt ignores input beyond 72 bytes, so longer passwords are rejected.
	MaxPasswordBytes = 72
)

var (
	ErrUserExists         = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrInvalidUsername    = errors.New("invalid username")
	ErrInvalidPassword    = errors.New("invalid password")
)

// Service manages accounts on top of a UserStore.
type Service struct {
	users  storage.UserStore
	cost   int
	logger *zap.Logger
	// compared against when the user does not exist, so lookups of unknown
	// names take as long as wrong passwords
	dummyHash []byte
}

// Option configures a Service.
type Option func(*Service)

// WithCost sets the bcrypt cost. Tests use bcrypt.MinCost.
func WithCost(cost int) Option {
	return func(s *Service) { s.cost = cost }
}

// WithLogger sets a logger for registration and login events.
func WithLogger(l *zap.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// NewService returns an account service backed by users.
func NewService(users storage.UserStore, opts ...Option) (*Service, error) {
	s := &Service{users: users, cost: bcrypt.DefaultCost, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	dummy, err := bcrypt.GenerateFromPassword([]byte("kotae-dummy-password"), s.cost)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare password hashing: %w", err)
	}
	s.dummyHash = dummy
	return s, nil
}

// ValidateUsername checks that name can identify a user and name a store directory.
func ValidateUsername(name string) error {
	n := utf8.RuneCountInString(name)
	switch {
	case n == 0:
		return fmt.Errorf("%w: empty", ErrInvalidUsername)
	case n > MaxUsernameLen:
		return fmt.Errorf("%w: longer than %d characters", ErrInvalidUsername, MaxUsernameLen)
	case strings.TrimSpace(name) != name:
		return fmt.Errorf("%w: leading or trailing whitespace", ErrInvalidUsername)
	case name == "." || name == "..":
		return fmt.Errorf("%w: reserved name", ErrInvalidUsername)
	case !utf8.ValidString(name):
		return fmt.Errorf("%w: not valid UTF-8", ErrInvalidUsername)
	}
	for _, r := range name {
		if r == '/' || r == '\\' || unicode.IsControl(r) {
			return fmt.Errorf("%w: contains %q", ErrInvalidUsername, r)
		}
	}
	return nil
}

func validatePassword(password string) error {
	if password == "" {
		return fmt.Errorf("%w: empty", ErrInvalidPassword)
	}
	if len(password) > MaxPasswordBytes {
		return fmt.Errorf("%w: longer than %d bytes", ErrInvalidPassword, MaxPasswordBytes)
	}
	return nil
}

// Register creates an account.
func (s *Service) Register(ctx context.Context, username, password string) (*models.User, error) {
	if err := ValidateUsername(username); err != nil {
		return nil, err
	}
	if err := validatePassword(password); err != nil {
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	u, err := s.users.CreateUser(ctx, username, string(hash))
	if err != nil {
		if errors.Is(err, storage.ErrUserExists) {
			return nil, ErrUserExists
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	s.logger.Info("registered user", zap.String("user", username))
	return u, nil
}

// Verify returns the user when password matches, or ErrInvalidCredentials.
func (s *Service) Verify(ctx context.Context, username, password string) (*models.User, error) {
	u, err := s.users.GetUser(ctx, username)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		s.logger.Debug("password mismatch", zap.String("user", username))
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

// Count returns the number of registered users.
func (s *Service) Count(ctx context.Context) (int64, error) {
	return s.users.CountUsers(ctx)
}
