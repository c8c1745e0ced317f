package history

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/justestif/go-moodtunes/internal/db"
)

// DBStore keeps history in PostgreSQL.
type DBStore struct {
	database *db.DB
}

// NewDBStore creates a new database-backed history store.
func NewDBStore(database *db.DB) *DBStore {
	return &DBStore{database: database}
}

// RecordDetection inserts a detection row.
func (s *DBStore) RecordDetection(ctx context.Context, d Detection) error {
	row := &db.Detection{
		ID:        d.ID,
		Emotion:   d.Emotion,
		FaceCount: d.FaceCount,
		Scores:    d.Scores,
	}
	if err := s.database.Detections().Create(ctx, row); err != nil {
		return fmt.Errorf("recording detection: %w", err)
	}
	return nil
}

// RecordSearch inserts a search row.
func (s *DBStore) RecordSearch(ctx context.Context, rec Search) error {
	row := &db.SearchRecord{
		ID:          rec.ID,
		Artist:      rec.Artist,
		Language:    rec.Language,
		Emotion:     rec.Emotion,
		Query:       rec.Query,
		ResultCount: rec.ResultCount,
		Failed:      rec.Failed,
	}
	if err := s.database.Searches().Create(ctx, row); err != nil {
		return fmt.Errorf("recording search: %w", err)
	}
	return nil
}

// Recent returns up to limit records of each kind, newest first.
func (s *DBStore) Recent(ctx context.Context, limit int) (Snapshot, error) {
	limit = ClampLimit(limit)

	detections, err := s.database.Detections().Recent(ctx, limit)
	if err != nil {
		return Snapshot{}, err
	}
	searches, err := s.database.Searches().Recent(ctx, limit)
	if err != nil {
		return Snapshot{}, err
	}

	snap := Snapshot{
		Detections: make([]Detection, 0, len(detections)),
		Searches:   make([]Search, 0, len(searches)),
	}
	for _, d := range detections {
		snap.Detections = append(snap.Detections, fromDetectionRow(d))
	}
	for _, r := range searches {
		snap.Searches = append(snap.Searches, fromSearchRow(r))
	}
	return snap, nil
}

// Detection returns the detection row with the given id.
func (s *DBStore) Detection(ctx context.Context, id uuid.UUID) (Detection, error) {
	row, err := s.database.Detections().Get(ctx, id)
	if errors.Is(err, db.ErrNotFound) {
		return Detection{}, ErrNotFound
	}
	if err != nil {
		return Detection{}, err
	}
	return fromDetectionRow(*row), nil
}

// Search returns the search row with the given id.
func (s *DBStore) Search(ctx context.Context, id uuid.UUID) (Search, error) {
	row, err := s.database.Searches().Get(ctx, id)
	if errors.Is(err, db.ErrNotFound) {
		return Search{}, ErrNotFound
	}
	if err != nil {
		return Search{}, err
	}
	return fromSearchRow(*row), nil
}

func fromDetectionRow(d db.Detection) Detection {
	return Detection{
		ID:        d.ID,
		Emotion:   d.Emotion,
		FaceCount: d.FaceCount,
		Scores:    d.Scores,
		CreatedAt: d.CreatedAt,
	}
}

func fromSearchRow(r db.SearchRecord) Search {
	return Search{
		ID:          r.ID,
		Artist:      r.Artist,
		Language:    r.Language,
		Emotion:     r.Emotion,
		Query:       r.Query,
		ResultCount: r.ResultCount,
		Failed:      r.Failed,
		CreatedAt:   r.CreatedAt,
	}
}

// Prune trims each table to the newest keep rows.
func (s *DBStore) Prune(ctx context.Context, keep int) error {
	if _, err := s.database.Detections().DeleteOlderThanNewest(ctx, keep); err != nil {
		return err
	}
	if _, err := s.database.Searches().DeleteOlderThanNewest(ctx, keep); err != nil {
		return err
	}
	return nil
}
