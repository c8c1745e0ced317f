package db

import (
	"time"

	"github.com/google/uuid"
)

// Detection is one classified webcam frame.
type Detection struct {
	ID        uuid.UUID
	Emotion   string
	FaceCount int
	Scores    []float32
	CreatedAt time.Time
}

// SearchRecord is one song search request.
type SearchRecord struct {
	ID          uuid.UUID
	Artist      string
	Language    string
	Emotion     string
	Query       string
	ResultCount int
	Failed      bool
	CreatedAt   time.Time
}
