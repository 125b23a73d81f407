package db

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"leaddesk/internal/models"
)

// CreateNote attaches a note to a lead.
func (d *DB) CreateNote(ctx context.Context, note *models.Note) error {
	query := `
		INSERT INTO lead_notes (lead_id, author, body)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`

	err := d.Pool.QueryRow(ctx, query, note.LeadID, note.Author, note.Body).Scan(&note.ID, &note.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return ErrLeadNotFound
		}
		return err
	}
	return nil
}

// GetNotesByLead returns a lead's notes, newest first.
func (d *DB) GetNotesByLead(ctx context.Context, leadID uuid.UUID) ([]models.Note, error) {
	rows, err := d.Pool.Query(ctx, `
		SELECT id, lead_id, author, body, created_at
		FROM lead_notes
		WHERE lead_id = $1
		ORDER BY created_at DESC
	`, leadID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var notes []models.Note
	for rows.Next() {
		var n models.Note
		if err := rows.Scan(&n.ID, &n.LeadID, &n.Author, &n.Body, &n.CreatedAt); err != nil {
			return nil, err
		}
		notes = append(notes, n)
	}
	return notes, rows.Err()
}

// DeleteNote removes a single note.
func (d *DB) DeleteNote(ctx context.Context, id uuid.UUID) error {
	result, err := d.Pool.Exec(ctx, `DELETE FROM lead_notes WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrNoteNotFound
	}
	return nil
}
