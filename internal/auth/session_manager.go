package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"time"
)

var (
	// ErrSessionNotFound indicates the provided token does not map to a stored session.
	ErrSessionNotFound = errors.New("session not found")
	// ErrSessionExpired indicates the session exists but its expiry has passed.
	ErrSessionExpired = errors.New("session expired")
)

// SessionStore persists issued session tokens so they survive process restarts.
type SessionStore interface {
	Save(ctx context.Context, session Session) error
	Find(ctx context.Context, token string) (Session, error)
	Delete(ctx context.Context, token string) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// Session binds an opaque bearer token to a user for a bounded time window.
type Session struct {
	Token     string
	UserID    string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// Manager manages the lifecycle of session tokens backed by a persistent store.
// Expired sessions are removed lazily when they are next resolved; no
// background sweeper is required for correctness.
type Manager struct {
	ttl   time.Duration
	store SessionStore

	// NowFunc allows tests to control the clock. Defaults to time.Now.
	NowFunc func() time.Time
}

// NewManager constructs a Manager that issues tokens valid for the provided TTL.
func NewManager(ttl time.Duration, store SessionStore) *Manager {
	if store == nil {
		panic("auth: session store must not be nil")
	}
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	return &Manager{ttl: ttl, store: store}
}

// Create issues a new random session token bound to the provided user.
func (m *Manager) Create(ctx context.Context, userID string) (Session, error) {
	token, err := randomToken()
	if err != nil {
		return Session{}, err
	}
	return m.CreateWithToken(ctx, userID, token)
}

// CreateWithToken stores a session for a token issued elsewhere, such as the
// federated session exchange. The expiry window is the same as for locally
// issued tokens.
func (m *Manager) CreateWithToken(ctx context.Context, userID, token string) (Session, error) {
	if userID == "" {
		return Session{}, errors.New("user id must be provided")
	}
	if token == "" {
		return Session{}, errors.New("token must be provided")
	}

	now := m.now()
	session := Session{
		Token:     token,
		UserID:    userID,
		ExpiresAt: now.Add(m.ttl),
		CreatedAt: now,
	}

	if err := m.store.Save(ctx, session); err != nil {
		return Session{}, err
	}

	return session, nil
}

// Resolve maps a token to the owning user id. A token that exists but whose
// expiry has passed is deleted on the spot and reported as expired.
func (m *Manager) Resolve(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", ErrSessionNotFound
	}

	session, err := m.store.Find(ctx, token)
	if err != nil {
		return "", err
	}

	if !m.now().Before(session.ExpiresAt) {
		_ = m.store.Delete(ctx, token)
		return "", ErrSessionExpired
	}

	return session.UserID, nil
}

// Revoke removes the provided token from the store. Revoking an absent token
// is a no-op.
func (m *Manager) Revoke(ctx context.Context, token string) {
	if token == "" {
		return
	}
	_ = m.store.Delete(ctx, token)
}

// Sweep removes all sessions whose expiry has passed and returns how many were
// deleted. Lazy expiry keeps the system correct without it; Sweep just keeps
// the table small.
func (m *Manager) Sweep(ctx context.Context) (int64, error) {
	return m.store.DeleteExpired(ctx, m.now())
}

func (m *Manager) now() time.Time {
	if m.NowFunc != nil {
		return m.NowFunc().UTC()
	}
	return time.Now().UTC()
}

func randomToken() (string, error) {
	const size = 32
	buf := make([]byte, size)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
