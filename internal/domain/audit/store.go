package audit

import "context"

// Store persists gate decisions.
// Interface owned by the domain; adapters implement it (in-memory ring for
// development and tests, sqlite for durable logs).
type Store interface {
	// Append stores one decision record.
	Append(ctx context.Context, record Record) error

	// Query returns records matching the filter, oldest first.
	Query(ctx context.Context, filter Filter) ([]Record, error)

	// Close releases resources.
	Close() error
}

// Filter specifies query parameters for decision-log queries.
// Zero-valued fields are ignored.
type Filter struct {
	// SessionID filters by session.
	SessionID string
	// Capability filters by capability identifier.
	Capability string
	// Decision filters by "allow" or "deny".
	Decision string
	// Limit caps the number of returned records. 0 means no cap.
	Limit int
}
