// Package config loads MoodTunes settings from the environment.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/justestif/go-moodtunes/internal/capture"
)

// Search providers.
const (
	ProviderYouTube = "youtube"
	ProviderSpotify = "spotify"
)

// ErrUnknownProvider is returned when SEARCH_PROVIDER names no known provider.
var ErrUnknownProvider = errors.New("unknown search provider")

// Config holds every MoodTunes setting. Each field is read from the
// environment variable named in its envconfig tag; see Load.
type Config struct {
	// Server
	Addr         string `envconfig:"ADDR" default:"127.0.0.1:5000"`
	MaxBodyBytes int64  `envconfig:"MAX_BODY_BYTES" default:"10485760"`

	// Model
	ModelPath   string `envconfig:"MODEL_PATH" default:"emotion_model.msgpack"`
	CascadePath string `envconfig:"CASCADE_PATH" default:"haarcascade_frontalface_default.xml"`
	FacePolicy  string `envconfig:"FACE_POLICY" default:"first"`
	MaxPixels   int    `envconfig:"MAX_PIXELS" default:"16777216"`

	// Search
	SearchProvider  string        `envconfig:"SEARCH_PROVIDER" default:"youtube"`
	SearchTimeout   time.Duration `envconfig:"SEARCH_TIMEOUT" default:"10s"`
	SearchCacheTTL  time.Duration `envconfig:"SEARCH_CACHE_TTL" default:"1h"`
	SearchCacheSize int           `envconfig:"SEARCH_CACHE_SIZE" default:"1000"`
	YouTubeAPIKey   string        `envconfig:"YOUTUBE_API_KEY"`
	SpotifyID       string        `envconfig:"SPOTIFY_ID"`
	SpotifySecret   string        `envconfig:"SPOTIFY_SECRET"`

	// History
	DatabaseURL string `envconfig:"DATABASE_URL"`
	HistorySize int    `envconfig:"HISTORY_SIZE" default:"100"`
}

// LoadDotEnv reads variables from the given files, or .env when none are
// given. Missing files are ignored; variables already set win.
func LoadDotEnv(files ...string) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		_ = godotenv.Load(f)
	}
}

// Load reads the configuration from the environment and validates it.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks enumerated and numeric settings.
func (c *Config) Validate() error {
	switch c.SearchProvider {
	case ProviderYouTube, ProviderSpotify:
	default:
		return fmt.Errorf("%w %q (want %q or %q)", ErrUnknownProvider, c.SearchProvider, ProviderYouTube, ProviderSpotify)
	}
	if _, err := capture.ParseFacePolicy(c.FacePolicy); err != nil {
		return err
	}
	if c.MaxBodyBytes <= 0 {
		return fmt.Errorf("MAX_BODY_BYTES must be positive, got %d", c.MaxBodyBytes)
	}
	if c.SearchTimeout <= 0 {
		return fmt.Errorf("SEARCH_TIMEOUT must be positive, got %s", c.SearchTimeout)
	}
	if c.SearchCacheTTL < 0 {
		return fmt.Errorf("SEARCH_CACHE_TTL must not be negative, got %s", c.SearchCacheTTL)
	}
	if c.SearchCacheSize <= 0 {
		return fmt.Errorf("SEARCH_CACHE_SIZE must be positive, got %d", c.SearchCacheSize)
	}
	if c.MaxPixels <= 0 {
		return fmt.Errorf("MAX_PIXELS must be positive, got %d", c.MaxPixels)
	}
	return nil
}

// Policy returns the parsed face policy.
func (c *Config) Policy() capture.FacePolicy {
	p, _ := capture.ParseFacePolicy(c.FacePolicy)
	return p
}

// UseSpotify reports whether songs come from Spotify.
func (c *Config) UseSpotify() bool {
	return c.SearchProvider == ProviderSpotify
}

// HasDatabase reports whether history is kept in PostgreSQL.
func (c *Config) HasDatabase() bool {
	return c.DatabaseURL != ""
}
