// Package db provides PostgreSQL database access for MoodTunes history.
package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned when a lookup by id matches no row.
var ErrNotFound = errors.New("not found")

// schema is applied on startup. Statements are idempotent.
const schema = `
CREATE TABLE IF NOT EXISTS detections (
	id          UUID PRIMARY KEY,
	emotion     TEXT NOT NULL,
	face_count  INTEGER NOT NULL,
	scores      REAL[] NOT NULL DEFAULT '{}',
	created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS detections_created_at_idx ON detections (created_at DESC);

CREATE TABLE IF NOT EXISTS searches (
	id           UUID PRIMARY KEY,
	artist       TEXT NOT NULL,
	language     TEXT NOT NULL,
	emotion      TEXT NOT NULL,
	query        TEXT NOT NULL,
	result_count INTEGER NOT NULL,
	failed       BOOLEAN NOT NULL DEFAULT FALSE,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS searches_created_at_idx ON searches (created_at DESC);
`

// DB wraps a PostgreSQL connection pool.
type DB struct {
	pool *pgxpool.Pool
}

// New creates a new database connection pool.
func New(ctx context.Context, databaseURL string) (*DB, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing database URL: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return &DB{pool: pool}, nil
}

// Migrate creates the history tables if they do not exist.
func (db *DB) Migrate(ctx context.Context) error {
	if _, err := db.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("applying schema: %w", err)
	}
	return nil
}

// Close closes the database connection pool.
func (db *DB) Close() {
	db.pool.Close()
}

// Detections returns a DetectionRepository.
func (db *DB) Detections() *DetectionRepository {
	return &DetectionRepository{pool: db.pool}
}

// Searches returns a SearchRepository.
func (db *DB) Searches() *SearchRepository {
	return &SearchRepository{pool: db.pool}
}
