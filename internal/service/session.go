package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultSessionTimeout is the default idle expiry for sessions.
const DefaultSessionTimeout = 30 * time.Minute

// ErrSessionNotFound is returned when a session doesn't exist or is expired.
var ErrSessionNotFound = errors.New("session not found")

// Session is one independent, sequential stream of invocations with its own
// gate and state store. Sessions share the immutable rule engine and nothing
// else.
type Session struct {
	// ID is a random UUID string.
	ID string
	// Gate enforces rules for this session.
	Gate *Gate
	// CreatedAt is when the session was created (UTC).
	CreatedAt time.Time

	// mu guards the expiry fields: the manager refreshes them on access
	// while the registry's cleanup goroutine reads them concurrently.
	mu sync.Mutex
	// ExpiresAt is when the session will expire (UTC).
	ExpiresAt time.Time
	// LastAccess is the last time the session was used (UTC).
	LastAccess time.Time
}

// IsExpired checks if the session has exceeded its timeout.
func (s *Session) IsExpired() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return time.Now().UTC().After(s.ExpiresAt)
}

// Refresh updates LastAccess and extends ExpiresAt by the given duration.
func (s *Session) Refresh(timeout time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	s.LastAccess = now
	s.ExpiresAt = now.Add(timeout)
}

// SessionRegistry provides session persistence.
// Implementation: in-memory (adapter/outbound/memory).
type SessionRegistry interface {
	// Create stores a new session.
	Create(ctx context.Context, session *Session) error

	// Get retrieves a session by ID.
	// Returns ErrSessionNotFound if the session doesn't exist.
	Get(ctx context.Context, id string) (*Session, error)

	// Update saves changes to an existing session.
	Update(ctx context.Context, session *Session) error

	// Delete removes a session.
	Delete(ctx context.Context, id string) error

	// Count returns the number of stored sessions.
	Count(ctx context.Context) (int, error)
}

// SessionConfig holds session manager configuration.
type SessionConfig struct {
	// Timeout is the session idle expiry. Default: 30 minutes.
	Timeout time.Duration
}

// SessionManager manages session lifecycle over a registry.
type SessionManager struct {
	registry SessionRegistry
	timeout  time.Duration
	newGate  func(sessionID string) *Gate
}

// NewSessionManager creates a SessionManager. newGate builds the per-session
// gate (fresh state store over the shared rule engine).
func NewSessionManager(registry SessionRegistry, cfg SessionConfig, newGate func(sessionID string) *Gate) *SessionManager {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = DefaultSessionTimeout
	}
	return &SessionManager{
		registry: registry,
		timeout:  timeout,
		newGate:  newGate,
	}
}

// Create starts a new isolated session.
func (m *SessionManager) Create(ctx context.Context) (*Session, error) {
	id := uuid.NewString()
	now := time.Now().UTC()
	session := &Session{
		ID:         id,
		Gate:       m.newGate(id),
		CreatedAt:  now,
		ExpiresAt:  now.Add(m.timeout),
		LastAccess: now,
	}
	if err := m.registry.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	return session, nil
}

// Get retrieves a live session by ID, refreshing its expiry.
// Returns ErrSessionNotFound for missing or expired sessions.
func (m *SessionManager) Get(ctx context.Context, id string) (*Session, error) {
	session, err := m.registry.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	// Double-check expiration (the registry cleanup runs periodically).
	if session.IsExpired() {
		_ = m.registry.Delete(ctx, id)
		return nil, ErrSessionNotFound
	}

	session.Refresh(m.timeout)
	if err := m.registry.Update(ctx, session); err != nil {
		return nil, fmt.Errorf("refresh session: %w", err)
	}
	return session, nil
}

// Delete terminates a session.
func (m *SessionManager) Delete(ctx context.Context, id string) error {
	return m.registry.Delete(ctx, id)
}

// Count returns the number of stored sessions.
func (m *SessionManager) Count(ctx context.Context) (int, error) {
	return m.registry.Count(ctx)
}
