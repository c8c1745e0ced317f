package youtube

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

func newItem(id, title string, thumbs map[string]thumbnail) searchItem {
	var item searchItem
	item.ID.Kind = "youtube#video"
	item.ID.VideoID = id
	item.Snippet.Title = title
	item.Snippet.Thumbnails = thumbs
	return item
}

func newAPIError(code int, reason, message string) apiError {
	var e apiError
	e.Error.Code = code
	e.Error.Message = message
	e.Error.Errors = append(e.Error.Errors, struct {
		Reason  string `json:"reason"`
		Domain  string `json:"domain"`
		Message string `json:"message"`
	}{Reason: reason, Domain: "youtube.quota", Message: message})
	return e
}

func newTestClient(server *httptest.Server) *Client {
	return &Client{
		apiKey:     "test-api-key",
		httpClient: server.Client(),
		baseURL:    server.URL + "/",
	}
}

func TestSearch(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		response   any
		wantTitles []string
		wantErr    error
	}{
		{
			name:   "videos returned in order",
			status: http.StatusOK,
			response: searchResponse{Items: []searchItem{
				newItem("abc", "Fix You", map[string]thumbnail{"default": {URL: "http://img/abc/default.jpg"}}),
				newItem("def", "The Scientist", map[string]thumbnail{"high": {URL: "http://img/def/high.jpg"}}),
			}},
			wantTitles: []string{"Fix You", "The Scientist"},
		},
		{
			name:   "html entities unescaped",
			status: http.StatusOK,
			response: searchResponse{Items: []searchItem{
				newItem("ghi", "Don&#39;t Panic", nil),
			}},
			wantTitles: []string{"Don't Panic"},
		},
		{
			name:   "items without video id skipped",
			status: http.StatusOK,
			response: searchResponse{Items: []searchItem{
				newItem("", "A Channel", nil),
				newItem("jkl", "Yellow", nil),
			}},
			wantTitles: []string{"Yellow"},
		},
		{
			name:       "no items returns empty slice",
			status:     http.StatusOK,
			response:   searchResponse{},
			wantTitles: []string{},
		},
		{
			name:     "quota exceeded",
			status:   http.StatusForbidden,
			response: newAPIError(403, "quotaExceeded", "The request cannot be completed because you have exceeded your quota."),
			wantErr:  ErrQuotaExceeded,
		},
		{
			name:     "invalid key",
			status:   http.StatusBadRequest,
			response: newAPIError(400, "keyInvalid", "API key not valid."),
			wantErr:  ErrInvalidAPIKey,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				json.NewEncoder(w).Encode(tt.response)
			}))
			defer server.Close()

			videos, err := newTestClient(server).Search(context.Background(), "Coldplay melancholic English song", 5)

			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Search() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr != nil {
				return
			}

			if videos == nil {
				t.Fatal("Search() returned nil slice")
			}
			if len(videos) != len(tt.wantTitles) {
				t.Fatalf("Search() got %d videos, want %d", len(videos), len(tt.wantTitles))
			}
			for i, v := range videos {
				if v.Title != tt.wantTitles[i] {
					t.Errorf("video[%d].Title = %q, want %q", i, v.Title, tt.wantTitles[i])
				}
				if v.URL != watchURL+v.VideoID {
					t.Errorf("video[%d].URL = %q", i, v.URL)
				}
			}
		})
	}
}

func TestSearch_RequestParameters(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search" {
			t.Errorf("path = %s, want /search", r.URL.Path)
		}
		q := r.URL.Query()
		want := map[string]string{
			"part":       "snippet",
			"q":          "Coldplay melancholic English song",
			"type":       "video",
			"maxResults": "5",
			"key":        "test-api-key",
		}
		for k, v := range want {
			if got := q.Get(k); got != v {
				t.Errorf("param %s = %q, want %q", k, got, v)
			}
		}
		if ua := r.Header.Get("User-Agent"); ua != userAgent {
			t.Errorf("User-Agent = %q, want %q", ua, userAgent)
		}
		json.NewEncoder(w).Encode(searchResponse{})
	}))
	defer server.Close()

	if _, err := newTestClient(server).Search(context.Background(), "Coldplay melancholic English song", 5); err != nil {
		t.Fatalf("Search() error = %v", err)
	}
}

func TestSearch_NoRetryOnQuota(t *testing.T) {
	var requestCount atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestCount.Add(1)
		w.WriteHeader(http.StatusForbidden)
		json.NewEncoder(w).Encode(newAPIError(403, "dailyLimitExceeded", "Daily Limit Exceeded"))
	}))
	defer server.Close()

	_, err := newTestClient(server).Search(context.Background(), "q", 5)
	if !errors.Is(err, ErrQuotaExceeded) {
		t.Errorf("Search() error = %v, want ErrQuotaExceeded", err)
	}
	if count := requestCount.Load(); count != 1 {
		t.Errorf("Expected 1 request, got %d", count)
	}
}

func TestSearch_NonJSONError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}))
	defer server.Close()

	_, err := newTestClient(server).Search(context.Background(), "q", 5)
	if err == nil {
		t.Fatal("Search() error = nil, want error")
	}
}

func TestSearch_MissingAPIKey(t *testing.T) {
	client := NewClient(&Config{})

	_, err := client.Search(context.Background(), "q", 5)
	if !errors.Is(err, ErrMissingAPIKey) {
		t.Errorf("Search() error = %v, want ErrMissingAPIKey", err)
	}
}

func TestPickThumbnail(t *testing.T) {
	tests := []struct {
		name   string
		thumbs map[string]thumbnail
		want   string
	}{
		{"prefers default", map[string]thumbnail{"default": {URL: "d"}, "high": {URL: "h"}}, "d"},
		{"falls back to medium", map[string]thumbnail{"medium": {URL: "m"}, "high": {URL: "h"}}, "m"},
		{"none", nil, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := pickThumbnail(tt.thumbs); got != tt.want {
				t.Errorf("pickThumbnail() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNewClient(t *testing.T) {
	cfg := &Config{APIKey: "test-key"}
	client := NewClient(cfg)

	if client.apiKey != "test-key" {
		t.Errorf("NewClient() apiKey = %s, want test-key", client.apiKey)
	}
	if client.httpClient == nil {
		t.Error("NewClient() httpClient is nil")
	}
	if client.baseURL != baseURL {
		t.Errorf("NewClient() baseURL = %s, want %s", client.baseURL, baseURL)
	}
}
