package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trackr/internal/core"
	"trackr/internal/storage"
)

func TestHashAndComparePasswords(t *testing.T) {
	hash, err := HashPassword("correct horse battery staple")
	require.NoError(t, err)
	require.NotEqual(t, "correct horse battery staple", hash)

	assert.True(t, ComparePasswords(hash, "correct horse battery staple"))
	assert.False(t, ComparePasswords(hash, "wrong"))
}

// memStore is an in-memory Store for service tests.
type memStore struct {
	users    map[string]storage.User // by email
	sessions map[string]storage.Session
}

func newMemStore() *memStore {
	return &memStore{
		users:    make(map[string]storage.User),
		sessions: make(map[string]storage.Session),
	}
}

func (m *memStore) CreateUser(_ context.Context, u storage.User) error {
	if _, exists := m.users[u.Email]; exists {
		return core.ErrDuplicateName
	}
	m.users[u.Email] = u
	return nil
}

func (m *memStore) GetUserByEmail(_ context.Context, email string) (storage.User, error) {
	u, ok := m.users[email]
	if !ok {
		return storage.User{}, storage.ErrNotFound
	}
	return u, nil
}

func (m *memStore) CreateSession(_ context.Context, s storage.Session) error {
	m.sessions[s.Token] = s
	return nil
}

func (m *memStore) GetSession(_ context.Context, token string) (storage.Session, error) {
	s, ok := m.sessions[token]
	if !ok || time.Now().After(s.ExpiresAt) {
		return storage.Session{}, storage.ErrNotFound
	}
	return s, nil
}

func (m *memStore) DeleteSession(_ context.Context, token string) error {
	delete(m.sessions, token)
	return nil
}

func TestRegisterValidation(t *testing.T) {
	svc := NewService(newMemStore(), time.Hour)
	ctx := context.Background()

	_, err := svc.Register(ctx, "not-an-email", "longenough")
	assert.ErrorIs(t, err, ErrInvalidEmail)

	_, err = svc.Register(ctx, "a@b.com", "short")
	assert.ErrorIs(t, err, ErrWeakPassword)

	id, err := svc.Register(ctx, "A@B.com", "longenough")
	require.NoError(t, err)
	require.NotEmpty(t, id)

	_, err = svc.Register(ctx, "a@b.com", "longenough")
	assert.ErrorIs(t, err, ErrEmailTaken, "emails are case-normalized")
}

func TestLoginAndAuthenticate(t *testing.T) {
	store := newMemStore()
	svc := NewService(store, time.Hour)
	ctx := context.Background()

	id, err := svc.Register(ctx, "a@b.com", "longenough")
	require.NoError(t, err)

	_, err = svc.Login(ctx, "a@b.com", "wrong password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(ctx, "nobody@b.com", "longenough")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	session, err := svc.Login(ctx, "a@b.com", "longenough")
	require.NoError(t, err)
	require.NotEmpty(t, session.Token)

	userID, err := svc.Authenticate(ctx, session.Token)
	require.NoError(t, err)
	assert.Equal(t, id, userID)

	require.NoError(t, svc.Logout(ctx, session.Token))
	_, err = svc.Authenticate(ctx, session.Token)
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Authenticate(ctx, "")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}
