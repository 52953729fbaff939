package handlers

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/hoanghai1803/mdreadtime/internal/config"
	"github.com/hoanghai1803/mdreadtime/internal/feeds"
	"github.com/hoanghai1803/mdreadtime/internal/models"
	"github.com/hoanghai1803/mdreadtime/internal/readingtime"
	"github.com/hoanghai1803/mdreadtime/internal/storage"
)

// SourceStore manages saved feeds. *storage.Store satisfies it.
type SourceStore interface {
	AddSource(ctx context.Context, name, feedURL string) (*models.FeedSource, error)
	GetAllSources(ctx context.Context) ([]models.FeedSource, error)
	GetActiveSources(ctx context.Context) ([]models.FeedSource, error)
	ToggleSource(ctx context.Context, id int64, active bool) error
	DeleteSource(ctx context.Context, id int64) error
}

// SourceScanner estimates a batch of saved feeds. *feeds.Fetcher satisfies
// it.
type SourceScanner interface {
	EstimateAll(ctx context.Context, sources []models.FeedSource, fo feeds.FetchOptions, opts ...readingtime.Option) (*feeds.ScanResult, error)
}

// GetSources handles GET /api/sources. It returns all saved feeds.
func GetSources(store SourceStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sources, err := store.GetAllSources(r.Context())
		if err != nil {
			slog.Error("failed to get sources", "error", err)
			writeError(w, http.StatusInternalServerError, "Failed to get sources")
			return
		}

		writeJSON(w, http.StatusOK, sources)
	}
}

// AddSource handles POST /api/sources. A feed URL that is already saved
// returns 409.
func AddSource(store SourceStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Name    string `json:"name"`
			FeedURL string `json:"feed_url"`
		}
		if err := decodeJSON(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid JSON body")
			return
		}

		body.FeedURL = strings.TrimSpace(body.FeedURL)
		if !validHTTPURL(body.FeedURL) {
			writeError(w, http.StatusBadRequest, "feed_url must be an absolute http or https URL")
			return
		}

		src, err := store.AddSource(r.Context(), body.Name, body.FeedURL)
		if err != nil {
			if errors.Is(err, storage.ErrDuplicateSource) {
				writeError(w, http.StatusConflict, "Feed already saved")
				return
			}
			slog.Error("failed to add source", "url", body.FeedURL, "error", err)
			writeError(w, http.StatusInternalServerError, "Failed to add source")
			return
		}

		writeJSON(w, http.StatusCreated, src)
	}
}

// ToggleSource handles PUT /api/sources/{id}. It sets the is_active flag of
// a saved feed.
func ToggleSource(store SourceStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := parseID(r, "id")
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		var body struct {
			IsActive bool `json:"is_active"`
		}
		if err := decodeJSON(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid JSON body")
			return
		}

		if err := store.ToggleSource(r.Context(), id, body.IsActive); err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				writeError(w, http.StatusNotFound, "Source not found")
				return
			}
			slog.Error("failed to toggle source", "id", id, "error", err)
			writeError(w, http.StatusInternalServerError, "Failed to toggle source")
			return
		}

		writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
	}
}

// DeleteSource handles DELETE /api/sources/{id}.
func DeleteSource(store SourceStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := parseID(r, "id")
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		if err := store.DeleteSource(r.Context(), id); err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				writeError(w, http.StatusNotFound, "Source not found")
				return
			}
			slog.Error("failed to delete source", "id", id, "error", err)
			writeError(w, http.StatusInternalServerError, "Failed to delete source")
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

// ScanSources handles POST /api/sources/estimate. It estimates the recent
// articles of every active saved feed with the configured feed options.
// Feeds that fail are listed in the response instead of failing the scan.
func ScanSources(store SourceStore, scanner SourceScanner, cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		// The overrides body is optional.
		var body estimatorOverrides
		if err := decodeJSON(r, &body); err != nil && !errors.Is(err, io.EOF) {
			writeError(w, http.StatusBadRequest, "Invalid JSON body")
			return
		}

		sources, err := store.GetActiveSources(ctx)
		if err != nil {
			slog.Error("failed to get active sources", "error", err)
			writeError(w, http.StatusInternalServerError, "Failed to get sources")
			return
		}

		fo := feeds.FetchOptions{
			MaxArticles:  cfg.Feeds.MaxArticlesPerFeed,
			LookbackDays: cfg.Feeds.LookbackDays,
			FullText:     cfg.Feeds.ExtractFullText,
		}
		result, err := scanner.EstimateAll(ctx, sources, fo, body.apply(cfg.Estimator).Options()...)
		if err != nil {
			if errors.Is(err, readingtime.ErrInvalidConfiguration) {
				writeError(w, http.StatusBadRequest, err.Error())
				return
			}
			slog.Error("failed to scan sources", "error", err)
			writeError(w, http.StatusInternalServerError, "Failed to scan sources")
			return
		}

		writeJSON(w, http.StatusOK, result)
	}
}
