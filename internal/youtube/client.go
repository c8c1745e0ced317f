// Package youtube provides a YouTube Data API client for song video search.
package youtube

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/justestif/go-moodtunes/internal/songs"
)

const (
	baseURL   = "https://www.googleapis.com/youtube/v3/"
	userAgent = "moodtunes/1.0"
	watchURL  = "https://www.youtube.com/watch?v="
)

// YouTube API error reasons.
const (
	reasonQuotaExceeded      = "quotaExceeded"
	reasonDailyLimitExceeded = "dailyLimitExceeded"
	reasonRateLimitExceeded  = "rateLimitExceeded"
	reasonKeyInvalid         = "keyInvalid"
)

// Sentinel errors.
var (
	// ErrQuotaExceeded is returned when the API quota or rate limit is used up.
	ErrQuotaExceeded = errors.New("quota exceeded")

	// ErrInvalidAPIKey is returned when the API key is rejected.
	ErrInvalidAPIKey = errors.New("invalid API key")

	// ErrMissingAPIKey is returned by Search when no API key is configured.
	ErrMissingAPIKey = errors.New("missing YOUTUBE_API_KEY")
)

// Config holds YouTube API configuration.
type Config struct {
	APIKey string
}

// thumbnailPreference lists thumbnail renditions from most to least preferred.
var thumbnailPreference = []string{"default", "medium", "high"}

// Client is a YouTube Data API v3 client.
type Client struct {
	apiKey     string
	httpClient *http.Client
	baseURL    string
}

// NewClient creates a new YouTube API client from the provided configuration.
func NewClient(cfg *Config) *Client {
	return &Client{
		apiKey: cfg.APIKey,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		baseURL: baseURL,
	}
}

// Search returns up to limit videos matching query, in API order.
// Items without a video id are skipped. Returns an empty slice (not nil)
// when nothing matches.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]songs.Video, error) {
	if c.apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	params := url.Values{
		"part":       {"snippet"},
		"q":          {query},
		"type":       {"video"},
		"maxResults": {strconv.Itoa(limit)},
		"key":        {c.apiKey},
	}

	body, err := c.doRequest(ctx, "search", params)
	if err != nil {
		return nil, fmt.Errorf("searching videos: %w", err)
	}

	var resp searchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("parsing search response: %w", err)
	}

	videos := make([]songs.Video, 0, len(resp.Items))
	for _, item := range resp.Items {
		if item.ID.VideoID == "" {
			continue
		}
		videos = append(videos, convertItem(item))
	}
	return videos, nil
}

// convertItem converts a search item to a songs.Video.
func convertItem(item searchItem) songs.Video {
	return songs.Video{
		Title:     html.UnescapeString(item.Snippet.Title),
		VideoID:   item.ID.VideoID,
		Thumbnail: pickThumbnail(item.Snippet.Thumbnails),
		URL:       watchURL + item.ID.VideoID,
	}
}

// pickThumbnail returns the preferred thumbnail URL, or "" if none exist.
func pickThumbnail(thumbs map[string]thumbnail) string {
	for _, name := range thumbnailPreference {
		if t, ok := thumbs[name]; ok && t.URL != "" {
			return t.URL
		}
	}
	return ""
}

// doRequest performs a single HTTP GET against an API resource.
// YouTube quota errors are not retried: the quota resets daily.
func (c *Client) doRequest(ctx context.Context, resource string, params url.Values) ([]byte, error) {
	reqURL := c.baseURL + resource + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, parseAPIError(resp.StatusCode, body)
	}

	return body, nil
}

// parseAPIError maps an error response to a sentinel or descriptive error.
func parseAPIError(status int, body []byte) error {
	var apiErr apiError
	if err := json.Unmarshal(body, &apiErr); err != nil || apiErr.Error.Code == 0 {
		return fmt.Errorf("API status %d", status)
	}

	for _, e := range apiErr.Error.Errors {
		switch e.Reason {
		case reasonQuotaExceeded, reasonDailyLimitExceeded, reasonRateLimitExceeded:
			return fmt.Errorf("%w: %s", ErrQuotaExceeded, apiErr.Error.Message)
		case reasonKeyInvalid:
			return ErrInvalidAPIKey
		}
	}

	return fmt.Errorf("API error %d: %s", apiErr.Error.Code, apiErr.Error.Message)
}
