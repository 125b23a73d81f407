package db

import (
	"context"

	"leaddesk/internal/models"
)

// IncrementRouteLookup upserts the analysis count for a platform and tier.
func (d *DB) IncrementRouteLookup(ctx context.Context, platform, tier string) error {
	_, err := d.Pool.Exec(ctx, `
		INSERT INTO route_lookups (platform, tier, count, last_seen_at)
		VALUES ($1, $2, 1, NOW())
		ON CONFLICT (platform, tier) DO UPDATE
		SET count = route_lookups.count + 1, last_seen_at = NOW()
	`, platform, tier)
	return err
}

// GetAllRouteLookups returns all route lookup rows for metrics export.
func (d *DB) GetAllRouteLookups(ctx context.Context) ([]models.RouteLookup, error) {
	rows, err := d.Pool.Query(ctx, `SELECT platform, tier, count, last_seen_at FROM route_lookups`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lookups []models.RouteLookup
	for rows.Next() {
		var l models.RouteLookup
		if err := rows.Scan(&l.Platform, &l.Tier, &l.Count, &l.LastSeenAt); err != nil {
			return nil, err
		}
		lookups = append(lookups, l)
	}
	return lookups, rows.Err()
}
