package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DB is the subset of *pgxpool.Pool used by PostgresPersister
type DB interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresPersister stores the snapshot as a single JSONB row
type PostgresPersister struct {
	db  DB
	key string
}

// NewPostgresPersister creates a persister using the row identified by key
func NewPostgresPersister(db DB, key string) *PostgresPersister {
	if key == "" {
		key = "default"
	}
	return &PostgresPersister{db: db, key: key}
}

// Name returns the persister name for logs
func (p *PostgresPersister) Name() string {
	return "postgres"
}

// EnsureSchema creates the snapshot table if needed
func (p *PostgresPersister) EnsureSchema(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS travel_partner_snapshots (
			id         TEXT PRIMARY KEY,
			data       JSONB NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		)
	`
	if _, err := p.db.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to create snapshot table: %w", err)
	}
	return nil
}

// Load reads the snapshot row
func (p *PostgresPersister) Load(ctx context.Context) (*Snapshot, error) {
	query := `SELECT data FROM travel_partner_snapshots WHERE id = $1`

	var data []byte
	err := p.db.QueryRow(ctx, query, p.key).Scan(&data)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load snapshot: %w", err)
	}
	return DecodeSnapshot(data)
}

// Save upserts the snapshot row
func (p *PostgresPersister) Save(ctx context.Context, snap *Snapshot) error {
	data, err := EncodeSnapshot(snap)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO travel_partner_snapshots (id, data, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET data = EXCLUDED.data, updated_at = EXCLUDED.updated_at
	`
	if _, err := p.db.Exec(ctx, query, p.key, data, time.Now()); err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}
	return nil
}
