// Package history records detections and song searches for later review.
package history

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

const (
	// DefaultSize is how many records of each kind a MemoryStore keeps.
	DefaultSize = 100

	// DefaultLimit and MaxLimit bound Recent queries.
	DefaultLimit = 20
	MaxLimit     = 100
)

// ErrNotFound is returned when no record has the requested id.
var ErrNotFound = errors.New("history record not found")

// Detection is one classified webcam frame.
type Detection struct {
	ID        uuid.UUID `json:"id"`
	Emotion   string    `json:"emotion"`
	FaceCount int       `json:"faceCount"`
	Scores    []float32 `json:"scores,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// Search is one song search request.
type Search struct {
	ID          uuid.UUID `json:"id"`
	Artist      string    `json:"artist"`
	Language    string    `json:"language"`
	Emotion     string    `json:"emotion"`
	Query       string    `json:"query"`
	ResultCount int       `json:"resultCount"`
	Failed      bool      `json:"failed"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Snapshot holds recent records of both kinds, newest first.
type Snapshot struct {
	Detections []Detection `json:"detections"`
	Searches   []Search    `json:"searches"`
}

// Store defines the interface for history storage.
type Store interface {
	RecordDetection(ctx context.Context, d Detection) error
	RecordSearch(ctx context.Context, s Search) error
	Recent(ctx context.Context, limit int) (Snapshot, error)
	Detection(ctx context.Context, id uuid.UUID) (Detection, error)
	Search(ctx context.Context, id uuid.UUID) (Search, error)
}

// ClampLimit maps a requested limit into [1, MaxLimit], using DefaultLimit
// for non-positive values.
func ClampLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultLimit
	case limit > MaxLimit:
		return MaxLimit
	default:
		return limit
	}
}

// stamp fills the id and timestamp when unset.
func stamp(id *uuid.UUID, at *time.Time) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
	if at.IsZero() {
		*at = time.Now().UTC()
	}
}
