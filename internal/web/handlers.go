package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/justestif/go-spotify-moodify/internal/pipeline"
	"github.com/justestif/go-spotify-moodify/internal/storage"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 16

// Playlist sources accepted by POST /api/playlist.
const (
	SourceRecent = "recent"
	SourceMood   = "mood"
)

// Pipeline is the set of operations the API exposes. *pipeline.Service
// implements it.
type Pipeline interface {
	RunRecent(ctx context.Context, limit int) (*pipeline.RecentResult, error)
	AnalyzeMood(ctx context.Context) (*pipeline.MoodResult, error)
	Recommend(ctx context.Context, k int) (*pipeline.Recommendation, error)
	CreatePlaylistFromRecent(ctx context.Context, name, description string) (*pipeline.PlaylistResult, error)
	CreateMoodPlaylist(ctx context.Context, name, description string, k int) (*pipeline.PlaylistResult, error)
	LyricsEnabled() bool
	ClassifierAvailable() bool
}

// Handlers contains HTTP handlers for the API.
type Handlers struct {
	pipeline Pipeline
	logger   *zap.Logger
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(p Pipeline, logger *zap.Logger) *Handlers {
	return &Handlers{pipeline: p, logger: logger}
}

type errorResponse struct {
	Error string `json:"error"`
	Stage string `json:"stage,omitempty"`
}

type healthResponse struct {
	Status              string `json:"status"`
	LyricsEnabled       bool   `json:"lyrics_enabled"`
	ClassifierAvailable bool   `json:"classifier_available"`
}

type recentRequest struct {
	Limit int `json:"limit"`
}

type recommendRequest struct {
	K int `json:"k"`
}

type playlistRequest struct {
	Source      string `json:"source"`
	Name        string `json:"name"`
	Description string `json:"description"`
	K           int    `json:"k"`
}

// Health reports service status (GET /healthz).
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:              "ok",
		LyricsEnabled:       h.pipeline.LyricsEnabled(),
		ClassifierAvailable: h.pipeline.ClassifierAvailable(),
	})
}

// Recent fetches listening history and attaches lyrics (POST /api/recent).
func (h *Handlers) Recent(w http.ResponseWriter, r *http.Request) {
	var req recentRequest
	if !h.decode(w, r, &req) {
		return
	}
	if req.Limit < 0 {
		h.badRequest(w, "limit must not be negative")
		return
	}

	result, err := h.pipeline.RunRecent(r.Context(), req.Limit)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// Mood classifies the saved lyrics (POST /api/mood).
func (h *Handlers) Mood(w http.ResponseWriter, r *http.Request) {
	result, err := h.pipeline.AnalyzeMood(r.Context())
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// Recommend picks library tracks for the current mood (POST /api/recommend).
func (h *Handlers) Recommend(w http.ResponseWriter, r *http.Request) {
	var req recommendRequest
	if !h.decode(w, r, &req) {
		return
	}
	if req.K < 0 {
		h.badRequest(w, "k must not be negative")
		return
	}

	result, err := h.pipeline.Recommend(r.Context(), req.K)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// Playlist creates a Spotify playlist from the saved recent tracks or from
// mood recommendations (POST /api/playlist).
func (h *Handlers) Playlist(w http.ResponseWriter, r *http.Request) {
	var req playlistRequest
	if !h.decode(w, r, &req) {
		return
	}

	var (
		result *pipeline.PlaylistResult
		err    error
	)
	switch req.Source {
	case "", SourceRecent:
		result, err = h.pipeline.CreatePlaylistFromRecent(r.Context(), req.Name, req.Description)
	case SourceMood:
		result, err = h.pipeline.CreateMoodPlaylist(r.Context(), req.Name, req.Description, req.K)
	default:
		h.badRequest(w, fmt.Sprintf("unknown source %q, want %q or %q", req.Source, SourceRecent, SourceMood))
		return
	}

	if err != nil {
		// A failed materialization still reports what was resolved.
		if result != nil {
			h.logger.Warn("playlist failed", zap.Error(err))
			writeJSON(w, http.StatusBadGateway, result)
			return
		}
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// decode reads an optional JSON body into v. An empty body leaves v unchanged.
func (h *Handlers) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		h.badRequest(w, "invalid request body: "+err.Error())
		return false
	}
	return true
}

func (h *Handlers) badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, errorResponse{Error: msg})
}

// fail maps a pipeline error to a status code and writes it.
func (h *Handlers) fail(w http.ResponseWriter, err error) {
	resp := errorResponse{Error: err.Error()}
	var se *pipeline.StageError
	if errors.As(err, &se) {
		resp.Stage = se.Stage
	}

	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed", zap.String("stage", resp.Stage), zap.Error(err))
	}
	writeJSON(w, status, resp)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, pipeline.ErrSpotifyUnavailable), errors.Is(err, pipeline.ErrClassifierUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, storage.ErrNoData), errors.Is(err, pipeline.ErrNoLyrics):
		return http.StatusConflict
	}

	var se *pipeline.StageError
	if errors.As(err, &se) && (se.Stage == pipeline.StageHistory || se.Stage == pipeline.StagePlaylist) {
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
