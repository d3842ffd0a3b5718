package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"trackr/internal/core"
	"trackr/internal/storage"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailTaken         = errors.New("an account with this email already exists")
	ErrWeakPassword       = errors.New("password must be at least 8 characters")
	ErrInvalidEmail       = errors.New("invalid email address")
)

// Store is the slice of the repository the auth service needs.
type Store interface {
	CreateUser(ctx context.Context, u storage.User) error
	GetUserByEmail(ctx context.Context, email string) (storage.User, error)
	CreateSession(ctx context.Context, s storage.Session) error
	GetSession(ctx context.Context, token string) (storage.Session, error)
	DeleteSession(ctx context.Context, token string) error
}

// Service manages accounts and cookie sessions.
type Service struct {
	store      Store
	sessionTTL time.Duration
}

func NewService(store Store, sessionTTL time.Duration) *Service {
	return &Service{store: store, sessionTTL: sessionTTL}
}

// Register creates an account and returns its id.
func (s *Service) Register(ctx context.Context, email, password string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if !strings.Contains(email, "@") || len(email) < 3 {
		return "", ErrInvalidEmail
	}
	if len(password) < 8 {
		return "", ErrWeakPassword
	}

	hash, err := HashPassword(password)
	if err != nil {
		return "", err
	}

	user := storage.User{
		ID:           uuid.New().String(),
		Email:        email,
		PasswordHash: hash,
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		if errors.Is(err, core.ErrDuplicateName) {
			return "", ErrEmailTaken
		}
		return "", fmt.Errorf("create user: %w", err)
	}

	slog.InfoContext(ctx, "User registered", "user_id", user.ID)
	return user.ID, nil
}

// Login verifies credentials and opens a session.
func (s *Service) Login(ctx context.Context, email, password string) (storage.Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.store.GetUserByEmail(ctx, email)
	if errors.Is(err, storage.ErrNotFound) {
		return storage.Session{}, ErrInvalidCredentials
	}
	if err != nil {
		return storage.Session{}, fmt.Errorf("lookup user: %w", err)
	}
	if !ComparePasswords(user.PasswordHash, password) {
		return storage.Session{}, ErrInvalidCredentials
	}

	session := storage.Session{
		Token:     uuid.New().String(),
		UserID:    user.ID,
		ExpiresAt: time.Now().Add(s.sessionTTL),
	}
	if err := s.store.CreateSession(ctx, session); err != nil {
		return storage.Session{}, fmt.Errorf("create session: %w", err)
	}

	slog.InfoContext(ctx, "User logged in", "user_id", user.ID)
	return session, nil
}

// Authenticate resolves a session token to an owner id.
func (s *Service) Authenticate(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", ErrInvalidCredentials
	}
	session, err := s.store.GetSession(ctx, token)
	if errors.Is(err, storage.ErrNotFound) {
		return "", ErrInvalidCredentials
	}
	if err != nil {
		return "", fmt.Errorf("lookup session: %w", err)
	}
	return session.UserID, nil
}

// Logout closes a session. Unknown tokens are not an error.
func (s *Service) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return s.store.DeleteSession(ctx, token)
}
