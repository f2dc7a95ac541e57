// Package sqlite provides a SQLite-backed decision log.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/rulegate/rulegate/internal/domain/audit"
)

const schema = `
CREATE TABLE IF NOT EXISTS decisions (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	ts            INTEGER NOT NULL,
	session_id    TEXT NOT NULL,
	capability    TEXT NOT NULL,
	activity      TEXT NOT NULL DEFAULT '',
	decision      TEXT NOT NULL,
	rule_id       TEXT NOT NULL DEFAULT '',
	reason        TEXT NOT NULL DEFAULT '',
	state_summary TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_decisions_session ON decisions(session_id, ts);
`

// AuditStore implements audit.Store on a SQLite database.
// The driver is pure Go (modernc.org/sqlite), so no cgo is required.
type AuditStore struct {
	db *sql.DB
}

// Open opens (and if necessary initializes) a decision log at path.
func Open(path string) (*AuditStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}

	dsn := filepath.Clean(path) + "?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &AuditStore{db: db}, nil
}

// Append implements audit.Store.
func (s *AuditStore) Append(ctx context.Context, rec audit.Record) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO decisions (ts, session_id, capability, activity, decision, rule_id, reason, state_summary)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.Timestamp.UTC().UnixMilli(),
		rec.SessionID,
		rec.Capability,
		rec.Activity,
		rec.Decision,
		rec.RuleID,
		rec.Reason,
		rec.StateSummary,
	)
	if err != nil {
		return fmt.Errorf("insert decision: %w", err)
	}
	return nil
}

// Query implements audit.Store. Records are returned oldest first.
func (s *AuditStore) Query(ctx context.Context, filter audit.Filter) ([]audit.Record, error) {
	var (
		conds []string
		args  []any
	)
	if filter.SessionID != "" {
		conds = append(conds, "session_id = ?")
		args = append(args, filter.SessionID)
	}
	if filter.Capability != "" {
		conds = append(conds, "capability = ?")
		args = append(args, filter.Capability)
	}
	if filter.Decision != "" {
		conds = append(conds, "decision = ?")
		args = append(args, filter.Decision)
	}

	query := `SELECT ts, session_id, capability, activity, decision, rule_id, reason, state_summary FROM decisions`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY ts ASC, id ASC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query decisions: %w", err)
	}
	defer rows.Close()

	var out []audit.Record
	for rows.Next() {
		var (
			rec audit.Record
			ts  int64
		)
		if err := rows.Scan(&ts, &rec.SessionID, &rec.Capability, &rec.Activity,
			&rec.Decision, &rec.RuleID, &rec.Reason, &rec.StateSummary); err != nil {
			return nil, fmt.Errorf("scan decision: %w", err)
		}
		rec.Timestamp = time.UnixMilli(ts).UTC()
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate decisions: %w", err)
	}
	return out, nil
}

// Close implements audit.Store.
func (s *AuditStore) Close() error {
	return s.db.Close()
}

// Compile-time check that AuditStore implements audit.Store.
var _ audit.Store = (*AuditStore)(nil)
