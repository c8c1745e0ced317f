package web

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/justestif/go-moodtunes/internal/capture"
	"github.com/justestif/go-moodtunes/internal/emotion"
	"github.com/justestif/go-moodtunes/internal/history"
	"github.com/justestif/go-moodtunes/internal/songs"
)

// Analyzer classifies the emotion in a data-URL frame.
type Analyzer interface {
	Analyze(ctx context.Context, dataURL string) (*capture.Result, error)
}

// SongFinder finds songs for an artist, language and emotion.
type SongFinder interface {
	Search(ctx context.Context, artist, language, emotion string) songs.Result
}

// Error codes for request-level failures.
const (
	codeBadRequest = "bad_request"
	codeTooLarge   = "too_large"
)

type captureRequest struct {
	Image string `json:"image"`
}

type captureResponse struct {
	Emotion string `json:"emotion,omitempty"`
	Error   string `json:"error,omitempty"`
	Code    string `json:"code,omitempty"`
}

type searchRequest struct {
	Artist   string `json:"artist"`
	Language string `json:"language"`
	Emotion  string `json:"emotion"`
}

type searchResponse struct {
	Videos []songs.Video `json:"videos"`
	Error  string        `json:"error,omitempty"`
}

type healthResponse struct {
	Status string `json:"status"`
	Model  string `json:"model,omitempty"`
}

// Handlers contains HTTP handlers for the web application.
type Handlers struct {
	templates   *Templates
	capture     Analyzer
	songs       SongFinder
	history     history.Store
	provider    string
	modelOrigin string
}

// HandlerOption configures Handlers.
type HandlerOption func(*Handlers)

// WithProvider names the song provider shown on the page.
func WithProvider(name string) HandlerOption {
	return func(h *Handlers) {
		h.provider = name
	}
}

// WithModelOrigin records whether the model was loaded or created.
func WithModelOrigin(origin string) HandlerOption {
	return func(h *Handlers) {
		h.modelOrigin = origin
	}
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(templates *Templates, analyzer Analyzer, finder SongFinder, store history.Store, opts ...HandlerOption) *Handlers {
	h := &Handlers{
		templates: templates,
		capture:   analyzer,
		songs:     finder,
		history:   store,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Home handles the home page (GET /).
func (h *Handlers) Home(w http.ResponseWriter, r *http.Request) {
	data := HomePageData{
		PageData: PageData{
			Title:       "MoodTunes",
			CurrentPath: r.URL.Path,
		},
		Emotions: emotion.LabelNames(),
		Provider: h.provider,
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.templates.Render(w, "home", data); err != nil {
		log.Printf("Error rendering home: %v", err)
		http.Error(w, "Failed to render template", http.StatusInternalServerError)
		return
	}
}

// CaptureEmotion classifies the emotion in a webcam frame (POST /capture_emotion).
// Every pipeline outcome is a 200 with either an emotion or an error and code.
func (h *Handlers) CaptureEmotion(w http.ResponseWriter, r *http.Request) {
	var req captureRequest
	if err := decodeJSON(r, &req); err != nil {
		status := decodeStatus(err)
		code := codeBadRequest
		if status == http.StatusRequestEntityTooLarge {
			code = codeTooLarge
		}
		writeJSON(w, status, captureResponse{Error: err.Error(), Code: code})
		return
	}

	res, err := h.capture.Analyze(r.Context(), req.Image)
	if err != nil {
		code := capture.Code(err)
		if code != capture.CodeNoFace {
			log.Printf("Error analyzing frame: %v", err)
		}
		writeJSON(w, http.StatusOK, captureResponse{Error: err.Error(), Code: code})
		return
	}

	h.recordDetection(r.Context(), res)
	writeJSON(w, http.StatusOK, captureResponse{Emotion: string(res.Emotion)})
}

// SearchSongs returns mood-matched songs (POST /search_songs). Provider
// failures produce an empty list, never an error status.
func (h *Handlers) SearchSongs(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, decodeStatus(err), searchResponse{Videos: []songs.Video{}, Error: err.Error()})
		return
	}

	res := h.songs.Search(r.Context(), req.Artist, req.Language, req.Emotion)

	h.recordSearch(r.Context(), req, res)
	writeJSON(w, http.StatusOK, searchResponse{Videos: res.Videos})
}

// History returns recent detections and searches (GET /api/history).
func (h *Handlers) History(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	snap, err := h.history.Recent(r.Context(), history.ClampLimit(limit))
	if err != nil {
		log.Printf("Error reading history: %v", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "history unavailable"})
		return
	}

	if snap.Detections == nil {
		snap.Detections = []history.Detection{}
	}
	if snap.Searches == nil {
		snap.Searches = []history.Search{}
	}
	writeJSON(w, http.StatusOK, snap)
}

// HistoryDetection returns one detection (GET /api/history/detections/{id}).
func (h *Handlers) HistoryDetection(w http.ResponseWriter, r *http.Request) {
	id, ok := historyID(w, r)
	if !ok {
		return
	}
	d, err := h.history.Detection(r.Context(), id)
	if err != nil {
		writeHistoryError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// HistorySearch returns one search (GET /api/history/searches/{id}).
func (h *Handlers) HistorySearch(w http.ResponseWriter, r *http.Request) {
	id, ok := historyID(w, r)
	if !ok {
		return
	}
	rec, err := h.history.Search(r.Context(), id)
	if err != nil {
		writeHistoryError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func historyID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id", "code": codeBadRequest})
		return uuid.Nil, false
	}
	return id, true
}

func writeHistoryError(w http.ResponseWriter, err error) {
	if errors.Is(err, history.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
		return
	}
	log.Printf("Error reading history: %v", err)
	writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "history unavailable"})
}

// Health reports liveness and where the model came from (GET /healthz).
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Model: h.modelOrigin})
}

func (h *Handlers) recordDetection(ctx context.Context, res *capture.Result) {
	err := h.history.RecordDetection(ctx, history.Detection{
		Emotion:   string(res.Emotion),
		FaceCount: res.FaceCount,
		Scores:    res.Scores,
	})
	if err != nil {
		log.Printf("Error recording detection: %v", err)
	}
}

func (h *Handlers) recordSearch(ctx context.Context, req searchRequest, res songs.Result) {
	err := h.history.RecordSearch(ctx, history.Search{
		Artist:      req.Artist,
		Language:    req.Language,
		Emotion:     req.Emotion,
		Query:       res.Query,
		ResultCount: len(res.Videos),
		Failed:      res.Err != nil,
	})
	if err != nil {
		log.Printf("Error recording search: %v", err)
	}
}
