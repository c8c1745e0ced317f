// Package songs finds mood-matched songs for a detected emotion.
package songs

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/justestif/go-moodtunes/internal/emotion"
)

const (
	// MaxResults is the number of songs requested and returned.
	MaxResults = 5

	// DefaultTimeout bounds one provider round-trip.
	DefaultTimeout = 10 * time.Second
)

// Video is one search hit. VideoID holds the provider's item id.
type Video struct {
	Title     string `json:"title"`
	VideoID   string `json:"videoId"`
	Thumbnail string `json:"thumbnail"`
	URL       string `json:"url,omitempty"`
}

// Searcher queries a song provider.
type Searcher interface {
	Search(ctx context.Context, query string, limit int) ([]Video, error)
}

// BuildQuery composes "{artist} {mood} {language} song" from the emotion's
// mood. Whitespace is normalized so empty parts never leave gaps.
func BuildQuery(artist, language, emotionLabel string) string {
	mood := emotion.ToMood(emotionLabel)
	raw := fmt.Sprintf("%s %s %s song", artist, mood, language)
	return strings.Join(strings.Fields(raw), " ")
}

// Result is the outcome of a song search. Videos is never nil; Err records
// why it is empty when the provider failed.
type Result struct {
	Query  string
	Mood   string
	Videos []Video
	Err    error
}

// Service composes queries and calls the configured provider.
type Service struct {
	searcher Searcher
	timeout  time.Duration
	limit    int
}

// Option configures a Service.
type Option func(*Service)

// WithTimeout sets the provider timeout.
func WithTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithLimit sets how many songs are requested, capped at MaxResults.
func WithLimit(n int) Option {
	return func(s *Service) {
		if n > 0 && n <= MaxResults {
			s.limit = n
		}
	}
}

// NewService creates a song search service.
func NewService(searcher Searcher, opts ...Option) *Service {
	s := &Service{
		searcher: searcher,
		timeout:  DefaultTimeout,
		limit:    MaxResults,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Search looks up songs for the artist, language and emotion. Provider
// failures, including timeouts, are logged and produce an empty list so the
// caller never sees an error.
func (s *Service) Search(ctx context.Context, artist, language, emotionLabel string) Result {
	res := Result{
		Query:  BuildQuery(artist, language, emotionLabel),
		Mood:   emotion.ToMood(emotionLabel),
		Videos: []Video{},
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	videos, err := s.searcher.Search(ctx, res.Query, s.limit)
	if err != nil {
		log.Printf("Error searching songs for %q: %v", res.Query, err)
		res.Err = err
		return res
	}

	if len(videos) > s.limit {
		videos = videos[:s.limit]
	}
	if videos != nil {
		res.Videos = videos
	}
	return res
}
