package db

import (
	"context"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5/pgxpool"

	"leaddesk/migrations"
)

// DB wraps a pgxpool connection pool.
type DB struct {
	Pool *pgxpool.Pool
}

// New creates a new database connection pool.
func New(ctx context.Context, connString string) (*DB, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{Pool: pool}, nil
}

// RunMigrations runs all embedded SQL migrations.
func (d *DB) RunMigrations(connString string) error {
	sourceDriver, err := iofs.New(migrations.FS, ".")
	if err != nil {
		return fmt.Errorf("failed to create migration source: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", sourceDriver, connString)
	if err != nil {
		return fmt.Errorf("failed to create migrator: %w", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("migration failed: %w", err)
	}

	return nil
}

// Ping verifies the database is reachable.
func (d *DB) Ping(ctx context.Context) error {
	return d.Pool.Ping(ctx)
}

// Close closes the connection pool.
func (d *DB) Close() {
	d.Pool.Close()
}

// SeedDevLeads inserts sample leads for development. Skips the seed when any
// lead already exists.
func (d *DB) SeedDevLeads(ctx context.Context) error {
	var n int
	if err := d.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM leads`).Scan(&n); err != nil {
		return fmt.Errorf("failed to count leads: %w", err)
	}
	if n > 0 {
		return nil
	}

	leads := []struct {
		name, phone, address, source string
	}{
		{"Tổng kho Mỹ phẩm Hà Nội", "0912345678", "Đống Đa, Hà Nội", "dev-seed"},
		{"Saigon Derma Clinic", "+84 28 3822 1234", "Quận 1, TP.HCM", "dev-seed"},
		{"Siam Beauty Corner", "+66 89 123 4567", "Siam Paragon, Bangkok", "dev-seed"},
		{"Toko Kosmetik Ayu", "0812-3456-7890", "Jakarta", "dev-seed"},
	}

	query := `
		INSERT INTO leads (name, phone, address, source, created_by)
		VALUES ($1, $2, $3, $4, 'seed')
	`

	for _, l := range leads {
		if _, err := d.Pool.Exec(ctx, query, l.name, l.phone, l.address, l.source); err != nil {
			return fmt.Errorf("failed to seed lead %s: %w", l.name, err)
		}
	}

	return nil
}
