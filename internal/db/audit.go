package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"leaddesk/internal/audit"
)

// AuditStore persists the audit log in the audit_entries table. Order is the
// insertion sequence, newest first.
type AuditStore struct {
	db *DB
}

// NewAuditStore returns an audit store backed by d.
func NewAuditStore(d *DB) *AuditStore {
	return &AuditStore{db: d}
}

// Load returns every entry, most recent first.
func (s *AuditStore) Load(ctx context.Context) ([]audit.Entry, error) {
	rows, err := s.db.Pool.Query(ctx, `
		SELECT created_at, actor, action, target, score, risk
		FROM audit_entries
		ORDER BY seq DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to load audit entries: %w", err)
	}
	defer rows.Close()

	var entries []audit.Entry
	for rows.Next() {
		var e audit.Entry
		var at *time.Time
		var risk string
		if err := rows.Scan(&at, &e.Actor, &e.Action, &e.Target, &e.Score, &risk); err != nil {
			return nil, fmt.Errorf("failed to scan audit entry: %w", err)
		}
		if at != nil {
			e.Time = at.Local()
		}
		e.Risk = audit.ParseRisk(risk)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Save replaces the table contents in one transaction.
func (s *AuditStore) Save(ctx context.Context, entries []audit.Entry) error {
	return pgx.BeginFunc(ctx, s.db.Pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM audit_entries`); err != nil {
			return fmt.Errorf("failed to clear audit entries: %w", err)
		}
		// Oldest first so seq order matches log order.
		for i := len(entries) - 1; i >= 0; i-- {
			if err := insertAuditEntry(ctx, tx, entries[i]); err != nil {
				return err
			}
		}
		return nil
	})
}

// Prepend inserts e and deletes everything beyond the newest limit rows in
// the same transaction.
func (s *AuditStore) Prepend(ctx context.Context, e audit.Entry, limit int) error {
	return pgx.BeginFunc(ctx, s.db.Pool, func(tx pgx.Tx) error {
		if err := insertAuditEntry(ctx, tx, e); err != nil {
			return err
		}
		if limit <= 0 {
			return nil
		}
		_, err := tx.Exec(ctx, `
			DELETE FROM audit_entries
			WHERE seq <= (
				SELECT seq FROM audit_entries ORDER BY seq DESC OFFSET $1 LIMIT 1
			)
		`, limit)
		if err != nil {
			return fmt.Errorf("failed to trim audit entries: %w", err)
		}
		return nil
	})
}

func insertAuditEntry(ctx context.Context, tx pgx.Tx, e audit.Entry) error {
	var at *time.Time
	if !e.Time.IsZero() {
		at = &e.Time
	}
	_, err := tx.Exec(ctx, `
		INSERT INTO audit_entries (created_at, actor, action, target, score, risk)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, at, e.Actor, e.Action, e.Target, e.Score, e.Risk.String())
	if err != nil {
		return fmt.Errorf("failed to insert audit entry: %w", err)
	}
	return nil
}
