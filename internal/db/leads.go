package db

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"leaddesk/internal/models"
)

// leadColumns is the standard column list for lead queries.
const leadColumns = `id, name, phone, address, source, country, platform, tier,
	created_by, contact_count, last_contacted_at, created_at, updated_at`

func scanLeadInto(row pgx.Row, lead *models.Lead) error {
	return row.Scan(
		&lead.ID,
		&lead.Name,
		&lead.Phone,
		&lead.Address,
		&lead.Source,
		&lead.Country,
		&lead.Platform,
		&lead.Tier,
		&lead.CreatedBy,
		&lead.ContactCount,
		&lead.LastContactedAt,
		&lead.CreatedAt,
		&lead.UpdatedAt,
	)
}

// scanLead scans a row into a Lead struct.
func scanLead(row pgx.Row) (*models.Lead, error) {
	var lead models.Lead
	err := scanLeadInto(row, &lead)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrLeadNotFound
	}
	if err != nil {
		return nil, err
	}
	return &lead, nil
}

// scanLeads scans multiple rows into a slice of Leads.
func scanLeads(rows pgx.Rows) ([]models.Lead, error) {
	defer rows.Close()

	var leads []models.Lead
	for rows.Next() {
		var lead models.Lead
		if err := scanLeadInto(rows, &lead); err != nil {
			return nil, err
		}
		leads = append(leads, lead)
	}

	return leads, rows.Err()
}

// CreateLead inserts a lead with its analysis snapshot.
func (d *DB) CreateLead(ctx context.Context, lead *models.Lead) error {
	query := `
		INSERT INTO leads (name, phone, address, source, country, platform, tier, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, contact_count, created_at, updated_at
	`

	return d.Pool.QueryRow(ctx, query,
		lead.Name,
		lead.Phone,
		lead.Address,
		lead.Source,
		lead.Country,
		lead.Platform,
		lead.Tier,
		lead.CreatedBy,
	).Scan(&lead.ID, &lead.ContactCount, &lead.CreatedAt, &lead.UpdatedAt)
}

// GetLeadByID retrieves a lead by its ID.
func (d *DB) GetLeadByID(ctx context.Context, id uuid.UUID) (*models.Lead, error) {
	query := `SELECT ` + leadColumns + ` FROM leads WHERE id = $1`
	return scanLead(d.Pool.QueryRow(ctx, query, id))
}

// SearchLeads returns leads whose name, phone, address, source or country
// contain queryStr, newest first. An empty query lists the newest leads.
func (d *DB) SearchLeads(ctx context.Context, queryStr string, limit int) ([]models.Lead, error) {
	var sql string
	var args []any

	if q := strings.TrimSpace(queryStr); q == "" {
		sql = `
			SELECT ` + leadColumns + `
			FROM leads
			ORDER BY created_at DESC
			LIMIT $1
		`
		args = []any{limit}
	} else {
		sql = `
			SELECT ` + leadColumns + `
			FROM leads
			WHERE name ILIKE $1 OR phone ILIKE $1 OR address ILIKE $1
				OR source ILIKE $1 OR country ILIKE $1
			ORDER BY created_at DESC
			LIMIT $2
		`
		args = []any{"%" + escapeLike(q) + "%", limit}
	}

	rows, err := d.Pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	return scanLeads(rows)
}

// escapeLike escapes the ILIKE wildcards in user input.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// DeleteLead removes a lead and its notes.
func (d *DB) DeleteLead(ctx context.Context, id uuid.UUID) error {
	result, err := d.Pool.Exec(ctx, `DELETE FROM leads WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrLeadNotFound
	}
	return nil
}

// RecordContact increments the contact counter and returns the updated lead.
func (d *DB) RecordContact(ctx context.Context, id uuid.UUID) (*models.Lead, error) {
	query := `
		UPDATE leads
		SET contact_count = contact_count + 1, last_contacted_at = NOW(), updated_at = NOW()
		WHERE id = $1
		RETURNING ` + leadColumns
	return scanLead(d.Pool.QueryRow(ctx, query, id))
}
