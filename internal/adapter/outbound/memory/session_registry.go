// Package memory provides in-memory implementations of outbound ports.
package memory

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/rulegate/rulegate/internal/service"
)

// DefaultCleanupInterval is how often expired sessions are reaped.
const DefaultCleanupInterval = 1 * time.Minute

// SessionRegistry implements service.SessionRegistry with an in-memory map.
// Thread-safe for concurrent access. A background cleanup goroutine removes
// expired sessions periodically.
type SessionRegistry struct {
	sessions        map[string]*service.Session
	mu              sync.RWMutex
	stopChan        chan struct{}
	wg              sync.WaitGroup
	cleanupInterval time.Duration
	once            sync.Once // Prevent double-close panic on Stop()
}

// NewSessionRegistry creates a registry with the default cleanup interval.
func NewSessionRegistry() *SessionRegistry {
	return NewSessionRegistryWithConfig(DefaultCleanupInterval)
}

// NewSessionRegistryWithConfig creates a registry with a custom cleanup interval.
func NewSessionRegistryWithConfig(cleanupInterval time.Duration) *SessionRegistry {
	return &SessionRegistry{
		sessions:        make(map[string]*service.Session),
		stopChan:        make(chan struct{}),
		cleanupInterval: cleanupInterval,
	}
}

// StartCleanup starts the background cleanup goroutine.
// Call Stop() to stop it gracefully.
func (r *SessionRegistry) StartCleanup(ctx context.Context) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		ticker := time.NewTicker(r.cleanupInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-r.stopChan:
				return
			case <-ticker.C:
				r.cleanup()
			}
		}
	}()
}

// cleanup removes all expired sessions.
func (r *SessionRegistry) cleanup() {
	r.mu.Lock()
	defer r.mu.Unlock()

	cleaned := 0
	for id, sess := range r.sessions {
		if sess.IsExpired() {
			delete(r.sessions, id)
			cleaned++
		}
	}
	if cleaned > 0 {
		slog.Debug("cleaned expired sessions", "count", cleaned)
	}
}

// Stop terminates the cleanup goroutine and waits for it to exit.
func (r *SessionRegistry) Stop() {
	r.once.Do(func() {
		close(r.stopChan)
	})
	r.wg.Wait()
}

// Create implements service.SessionRegistry.
func (r *SessionRegistry) Create(_ context.Context, session *service.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[session.ID] = session
	return nil
}

// Get implements service.SessionRegistry.
func (r *SessionRegistry) Get(_ context.Context, id string) (*service.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	session, ok := r.sessions[id]
	if !ok {
		return nil, service.ErrSessionNotFound
	}
	return session, nil
}

// Update implements service.SessionRegistry.
func (r *SessionRegistry) Update(_ context.Context, session *service.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[session.ID]; !ok {
		return service.ErrSessionNotFound
	}
	r.sessions[session.ID] = session
	return nil
}

// Delete implements service.SessionRegistry.
func (r *SessionRegistry) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
	return nil
}

// Count implements service.SessionRegistry.
func (r *SessionRegistry) Count(_ context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions), nil
}

// Compile-time check that SessionRegistry implements service.SessionRegistry.
var _ service.SessionRegistry = (*SessionRegistry)(nil)
