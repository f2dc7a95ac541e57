package memory

import (
	"context"
	"sync"

	"github.com/rulegate/rulegate/internal/domain/audit"
)

// DefaultAuditCapacity bounds the in-memory decision log.
const DefaultAuditCapacity = 1000

// AuditStore implements audit.Store with a bounded in-memory ring.
// Oldest records are dropped once the capacity is reached. Intended for
// development and tests.
type AuditStore struct {
	mu       sync.RWMutex
	records  []audit.Record
	capacity int
}

// NewAuditStore creates an in-memory audit store with the default capacity.
func NewAuditStore() *AuditStore {
	return NewAuditStoreWithCapacity(DefaultAuditCapacity)
}

// NewAuditStoreWithCapacity creates an in-memory audit store holding at most
// capacity records.
func NewAuditStoreWithCapacity(capacity int) *AuditStore {
	if capacity <= 0 {
		capacity = DefaultAuditCapacity
	}
	return &AuditStore{capacity: capacity}
}

// Append implements audit.Store.
func (s *AuditStore) Append(_ context.Context, record audit.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, record)
	if len(s.records) > s.capacity {
		s.records = s.records[len(s.records)-s.capacity:]
	}
	return nil
}

// Query implements audit.Store. Records are returned oldest first.
func (s *AuditStore) Query(_ context.Context, filter audit.Filter) ([]audit.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []audit.Record
	for _, rec := range s.records {
		if !matches(rec, filter) {
			continue
		}
		out = append(out, rec)
		if filter.Limit > 0 && len(out) == filter.Limit {
			break
		}
	}
	return out, nil
}

// Close implements audit.Store.
func (s *AuditStore) Close() error {
	return nil
}

func matches(rec audit.Record, filter audit.Filter) bool {
	if filter.SessionID != "" && rec.SessionID != filter.SessionID {
		return false
	}
	if filter.Capability != "" && rec.Capability != filter.Capability {
		return false
	}
	if filter.Decision != "" && rec.Decision != filter.Decision {
		return false
	}
	return true
}

// Compile-time check that AuditStore implements audit.Store.
var _ audit.Store = (*AuditStore)(nil)
