package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DetectionRepository handles detection database operations.
type DetectionRepository struct {
	pool *pgxpool.Pool
}

// Create inserts a detection. A zero ID is replaced with a new UUID and
// CreatedAt is filled from the database.
func (r *DetectionRepository) Create(ctx context.Context, d *Detection) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	if d.Scores == nil {
		d.Scores = []float32{}
	}

	query := `
		INSERT INTO detections (id, emotion, face_count, scores, created_at)
		VALUES ($1, $2, $3, $4, NOW())
		RETURNING created_at
	`
	err := r.pool.QueryRow(ctx, query,
		d.ID,
		d.Emotion,
		d.FaceCount,
		d.Scores,
	).Scan(&d.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting detection: %w", err)
	}
	return nil
}

// Get retrieves a detection by ID.
func (r *DetectionRepository) Get(ctx context.Context, id uuid.UUID) (*Detection, error) {
	query := `
		SELECT id, emotion, face_count, scores, created_at
		FROM detections
		WHERE id = $1
	`
	var d Detection
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&d.ID,
		&d.Emotion,
		&d.FaceCount,
		&d.Scores,
		&d.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying detection: %w", err)
	}
	return &d, nil
}

// Recent returns up to limit detections, newest first.
func (r *DetectionRepository) Recent(ctx context.Context, limit int) ([]Detection, error) {
	query := `
		SELECT id, emotion, face_count, scores, created_at
		FROM detections
		ORDER BY created_at DESC
		LIMIT $1
	`
	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("querying detections: %w", err)
	}
	defer rows.Close()

	var detections []Detection
	for rows.Next() {
		var d Detection
		if err := rows.Scan(&d.ID, &d.Emotion, &d.FaceCount, &d.Scores, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning detection: %w", err)
		}
		detections = append(detections, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating detections: %w", err)
	}
	return detections, nil
}

// DeleteOlderThanNewest keeps the newest keep detections and removes the rest.
func (r *DetectionRepository) DeleteOlderThanNewest(ctx context.Context, keep int) (int64, error) {
	query := `
		DELETE FROM detections
		WHERE id NOT IN (
			SELECT id FROM detections ORDER BY created_at DESC LIMIT $1
		)
	`
	result, err := r.pool.Exec(ctx, query, keep)
	if err != nil {
		return 0, fmt.Errorf("pruning detections: %w", err)
	}
	return result.RowsAffected(), nil
}
