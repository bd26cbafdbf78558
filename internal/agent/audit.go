package agent

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/oklog/ulid/v2"

	_ "modernc.org/sqlite"
)

// auditTimeFormat is fixed-width so created_at sorts as text.
const auditTimeFormat = "2006-01-02T15:04:05.000000000Z"

// AuditStore persists every tool invocation for later review.
// It is append-only: rows are never updated.
type AuditStore struct {
	db *sql.DB
}

// Invocation is one audited tool call.
type Invocation struct {
	ID           string
	SessionID    string
	TurnID       string
	Tool         string
	Input        string
	Result       string
	ResultDigest string
	IsError      bool
	CreatedAt    time.Time
}

// OpenAuditStore opens (or creates) the audit DB at path.
func OpenAuditStore(path string) (*AuditStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create audit dir: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open audit db: %w", err)
	}
	// One writer at a time keeps SQLite from returning SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if err := ensureAuditSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &AuditStore{db: db}, nil
}

func ensureAuditSchema(db *sql.DB) error {
	_, err := db.Exec(`
CREATE TABLE IF NOT EXISTS tool_invocations (
	id TEXT PRIMARY KEY,
	session_id TEXT NOT NULL,
	turn_id TEXT NOT NULL,
	tool TEXT NOT NULL,
	input TEXT,
	result TEXT,
	result_digest TEXT,
	is_error INTEGER NOT NULL DEFAULT 0,
	created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS tool_invocations_session ON tool_invocations (session_id);
`)
	if err != nil {
		return fmt.Errorf("create tool_invocations table: %w", err)
	}
	return nil
}

// Close closes the underlying DB.
func (s *AuditStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Record stores inv, filling ID, digest and timestamp when unset.
func (s *AuditStore) Record(ctx context.Context, inv Invocation) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("audit store not initialized")
	}
	if inv.Tool == "" {
		return fmt.Errorf("tool is required")
	}
	if inv.ID == "" {
		inv.ID = ulid.Make().String()
	}
	if inv.ResultDigest == "" {
		inv.ResultDigest = digest(inv.Result)
	}
	if inv.CreatedAt.IsZero() {
		inv.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
INSERT INTO tool_invocations (id, session_id, turn_id, tool, input, result, result_digest, is_error, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
`, inv.ID, inv.SessionID, inv.TurnID, inv.Tool, inv.Input, inv.Result, inv.ResultDigest, inv.IsError, inv.CreatedAt.UTC().Format(auditTimeFormat))
	if err != nil {
		return fmt.Errorf("persist invocation: %w", err)
	}
	return nil
}

// Recent returns up to limit invocations, newest first.
func (s *AuditStore) Recent(ctx context.Context, limit int) ([]Invocation, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("audit store not initialized")
	}
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx, `
SELECT id, session_id, turn_id, tool, COALESCE(input, ''), COALESCE(result, ''), COALESCE(result_digest, ''), is_error, created_at
FROM tool_invocations
ORDER BY created_at DESC, id DESC
LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query invocations: %w", err)
	}
	defer rows.Close()

	var out []Invocation
	for rows.Next() {
		var inv Invocation
		var created string
		if err := rows.Scan(&inv.ID, &inv.SessionID, &inv.TurnID, &inv.Tool, &inv.Input, &inv.Result, &inv.ResultDigest, &inv.IsError, &created); err != nil {
			return nil, fmt.Errorf("scan invocation: %w", err)
		}
		if ts, err := time.Parse(auditTimeFormat, created); err == nil {
			inv.CreatedAt = ts
		}
		out = append(out, inv)
	}
	return out, rows.Err()
}
