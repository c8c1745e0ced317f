package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SearchRepository handles search history database operations.
type SearchRepository struct {
	pool *pgxpool.Pool
}

// Create inserts a search record. A zero ID is replaced with a new UUID.
func (r *SearchRepository) Create(ctx context.Context, s *SearchRecord) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}

	query := `
		INSERT INTO searches (id, artist, language, emotion, query, result_count, failed, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
		RETURNING created_at
	`
	err := r.pool.QueryRow(ctx, query,
		s.ID,
		s.Artist,
		s.Language,
		s.Emotion,
		s.Query,
		s.ResultCount,
		s.Failed,
	).Scan(&s.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting search: %w", err)
	}
	return nil
}

// Get retrieves a search record by ID.
func (r *SearchRepository) Get(ctx context.Context, id uuid.UUID) (*SearchRecord, error) {
	query := `
		SELECT id, artist, language, emotion, query, result_count, failed, created_at
		FROM searches
		WHERE id = $1
	`
	var s SearchRecord
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&s.ID,
		&s.Artist,
		&s.Language,
		&s.Emotion,
		&s.Query,
		&s.ResultCount,
		&s.Failed,
		&s.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying search: %w", err)
	}
	return &s, nil
}

// Recent returns up to limit searches, newest first.
func (r *SearchRepository) Recent(ctx context.Context, limit int) ([]SearchRecord, error) {
	query := `
		SELECT id, artist, language, emotion, query, result_count, failed, created_at
		FROM searches
		ORDER BY created_at DESC
		LIMIT $1
	`
	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("querying searches: %w", err)
	}
	defer rows.Close()

	var searches []SearchRecord
	for rows.Next() {
		var s SearchRecord
		err := rows.Scan(
			&s.ID,
			&s.Artist,
			&s.Language,
			&s.Emotion,
			&s.Query,
			&s.ResultCount,
			&s.Failed,
			&s.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning search: %w", err)
		}
		searches = append(searches, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating searches: %w", err)
	}
	return searches, nil
}

// DeleteOlderThanNewest keeps the newest keep searches and removes the rest.
func (r *SearchRepository) DeleteOlderThanNewest(ctx context.Context, keep int) (int64, error) {
	query := `
		DELETE FROM searches
		WHERE id NOT IN (
			SELECT id FROM searches ORDER BY created_at DESC LIMIT $1
		)
	`
	result, err := r.pool.Exec(ctx, query, keep)
	if err != nil {
		return 0, fmt.Errorf("pruning searches: %w", err)
	}
	return result.RowsAffected(), nil
}
