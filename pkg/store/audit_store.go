// Package store provides the SQLite-backed audit sink.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/registrar-ops/triage/pkg/audit"
	"github.com/registrar-ops/triage/pkg/decision"
	"github.com/registrar-ops/triage/pkg/lifecycle"
)

// SQLiteAuditStore persists audit records in a local SQLite database.
// It implements audit.Sink.
type SQLiteAuditStore struct {
	db *sql.DB
}

// OpenSQLiteAuditStore opens (or creates) the database at path and runs
// the migration.
func OpenSQLiteAuditStore(path string) (*SQLiteAuditStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open audit db: %w", err)
	}
	s := &SQLiteAuditStore{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteAuditStore) migrate() error {
	query := `
    CREATE TABLE IF NOT EXISTS audit_records (
        id TEXT PRIMARY KEY,
        timestamp DATETIME NOT NULL,
        domain_id TEXT NOT NULL,
        domain_state TEXT NOT NULL,
        action TEXT NOT NULL,
        blocked_reason TEXT NOT NULL DEFAULT '',
        decision_hash TEXT NOT NULL DEFAULT '',
        signals JSON NOT NULL,
        decision JSON NOT NULL
    );
    CREATE INDEX IF NOT EXISTS idx_audit_domain ON audit_records(domain_id, timestamp);`
	_, err := s.db.ExecContext(context.Background(), query)
	return err
}

// Record appends one audit record.
func (s *SQLiteAuditStore) Record(ctx context.Context, rec *audit.Record) error {
	sigJSON, err := json.Marshal(rec.Signals)
	if err != nil {
		return fmt.Errorf("audit store: marshal signals: %w", err)
	}
	decJSON, err := json.Marshal(rec.Decision)
	if err != nil {
		return fmt.Errorf("audit store: marshal decision: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
        INSERT INTO audit_records
            (id, timestamp, domain_id, domain_state, action, blocked_reason, decision_hash, signals, decision)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Timestamp, rec.DomainID, string(rec.State),
		string(rec.Decision.Action), rec.Decision.BlockedReason, rec.Decision.DecisionHash,
		string(sigJSON), string(decJSON),
	)
	if err != nil {
		return fmt.Errorf("audit store: insert: %w", err)
	}
	return nil
}

// Recent returns the latest records, newest first.
func (s *SQLiteAuditStore) Recent(ctx context.Context, limit int) ([]*audit.Record, error) {
	rows, err := s.db.QueryContext(ctx, `
        SELECT id, timestamp, domain_id, domain_state, signals, decision
        FROM audit_records
        ORDER BY timestamp DESC
        LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []*audit.Record
	for rows.Next() {
		var rec audit.Record
		var ts time.Time
		var state, sigJSON, decJSON string
		if err := rows.Scan(&rec.ID, &ts, &rec.DomainID, &state, &sigJSON, &decJSON); err != nil {
			return nil, err
		}
		rec.Timestamp = ts
		rec.State = lifecycle.DomainState(state)
		if err := json.Unmarshal([]byte(sigJSON), &rec.Signals); err != nil {
			return nil, fmt.Errorf("audit store: decode signals: %w", err)
		}
		var d decision.ActionDecision
		if err := json.Unmarshal([]byte(decJSON), &d); err != nil {
			return nil, fmt.Errorf("audit store: decode decision: %w", err)
		}
		rec.Decision = d
		out = append(out, &rec)
	}
	return out, rows.Err()
}

// CountByAction returns how many persisted decisions carry each action.
func (s *SQLiteAuditStore) CountByAction(ctx context.Context) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT action, COUNT(*) FROM audit_records GROUP BY action`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	counts := make(map[string]int)
	for rows.Next() {
		var action string
		var n int
		if err := rows.Scan(&action, &n); err != nil {
			return nil, err
		}
		counts[action] = n
	}
	return counts, rows.Err()
}

// Close closes the underlying database.
func (s *SQLiteAuditStore) Close() error { return s.db.Close() }
