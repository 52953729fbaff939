package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/hoanghai1803/mdreadtime/internal/config"
	"github.com/hoanghai1803/mdreadtime/internal/models"
	"github.com/hoanghai1803/mdreadtime/internal/readingtime"
	"github.com/hoanghai1803/mdreadtime/internal/storage"
)

// sourceAPI marks estimates submitted as raw content over HTTP.
const sourceAPI = "api"

// EstimateStore persists estimates. *storage.Store satisfies it.
type EstimateStore interface {
	SaveEstimate(ctx context.Context, e *models.Estimate) (int64, error)
	GetEstimate(ctx context.Context, id int64) (*models.Estimate, error)
	FindEstimate(ctx context.Context, key storage.EstimateKey) (*models.Estimate, error)
	ListEstimates(ctx context.Context, limit int) ([]models.Estimate, error)
	ListEstimatesByTag(ctx context.Context, tag string, limit int) ([]models.Estimate, error)
	DeleteEstimate(ctx context.Context, id int64) error
	EstimateTotals(ctx context.Context) (*models.EstimateTotals, error)
}

// estimatorOverrides are the per-request settings. Absent fields fall back to
// the configured defaults.
type estimatorOverrides struct {
	WordsPerMinute *float64 `json:"words_per_minute"`
	IncludeImages  *bool    `json:"include_images"`
	StrictWords    *bool    `json:"strict_words"`
}

func (o estimatorOverrides) apply(defaults config.EstimatorConfig) config.EstimatorConfig {
	if o.WordsPerMinute != nil {
		defaults.WordsPerMinute = *o.WordsPerMinute
	}
	if o.IncludeImages != nil {
		defaults.IncludeImages = *o.IncludeImages
	}
	if o.StrictWords != nil {
		defaults.StrictWords = *o.StrictWords
	}
	return defaults
}

// EstimateContent handles POST /api/estimate. It estimates the markdown in the
// request body and stores the result. Content already estimated with the same
// settings returns the stored estimate with 200 instead of a new row.
func EstimateContent(store EstimateStore, cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var body struct {
			Content string   `json:"content"`
			Title   string   `json:"title"`
			Tags    []string `json:"tags"`
			estimatorOverrides
		}
		if err := decodeJSON(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid JSON body")
			return
		}

		settings := body.apply(cfg.Estimator)
		stats, err := readingtime.Calculate(body.Content, settings.Options()...)
		if err != nil {
			if errors.Is(err, readingtime.ErrInvalidConfiguration) {
				writeError(w, http.StatusBadRequest, err.Error())
				return
			}
			slog.Error("failed to estimate content", "error", err)
			writeError(w, http.StatusInternalServerError, "Failed to estimate content")
			return
		}

		key := storage.EstimateKey{
			Source:         sourceAPI,
			ContentHash:    storage.HashContent(body.Content),
			WordsPerMinute: settings.WordsPerMinute,
			IncludeImages:  settings.IncludeImages,
			StrictWords:    settings.StrictWords,
		}

		cached, err := store.FindEstimate(ctx, key)
		switch {
		case err == nil:
			writeJSON(w, http.StatusOK, cached)
			return
		case !errors.Is(err, storage.ErrNotFound):
			slog.Warn("estimate cache lookup failed", "error", err)
		}

		title := strings.TrimSpace(body.Title)
		if title == "" {
			title = "Untitled"
		}

		est := &models.Estimate{
			Title:          title,
			Source:         sourceAPI,
			ContentHash:    key.ContentHash,
			WordsPerMinute: settings.WordsPerMinute,
			IncludeImages:  settings.IncludeImages,
			StrictWords:    settings.StrictWords,
			WordsCount:     stats.WordsCount,
			ImagesCount:    stats.ImagesCount,
			TimeMS:         stats.Time,
			Minutes:        stats.Minutes,
			Tags:           body.Tags,
		}

		saved, err := saveEstimate(ctx, store, est)
		if err != nil {
			if errors.Is(err, storage.ErrInvalidTag) {
				writeError(w, http.StatusBadRequest, err.Error())
				return
			}
			slog.Error("failed to save estimate", "error", err)
			writeError(w, http.StatusInternalServerError, "Failed to save estimate")
			return
		}

		slog.Info("estimated content",
			"id", saved.ID,
			"words", saved.WordsCount,
			"images", saved.ImagesCount,
			"minutes", saved.Minutes,
		)
		writeJSON(w, http.StatusCreated, saved)
	}
}

// ListEstimates handles GET /api/estimates. It returns saved estimates, newest
// first, limited by the optional "limit" query parameter. The optional "tag"
// parameter keeps only estimates carrying that tag.
func ListEstimates(store EstimateStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := parseLimit(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		var estimates []models.Estimate
		if tag := r.URL.Query().Get("tag"); tag != "" {
			estimates, err = store.ListEstimatesByTag(r.Context(), tag, limit)
		} else {
			estimates, err = store.ListEstimates(r.Context(), limit)
		}
		if err != nil {
			slog.Error("failed to list estimates", "error", err)
			writeError(w, http.StatusInternalServerError, "Failed to list estimates")
			return
		}

		if estimates == nil {
			estimates = []models.Estimate{}
		}
		writeJSON(w, http.StatusOK, estimates)
	}
}

// GetEstimate handles GET /api/estimates/{id}.
func GetEstimate(store EstimateStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := parseID(r, "id")
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		est, err := store.GetEstimate(r.Context(), id)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				writeError(w, http.StatusNotFound, "Estimate not found")
				return
			}
			slog.Error("failed to get estimate", "id", id, "error", err)
			writeError(w, http.StatusInternalServerError, "Failed to get estimate")
			return
		}

		writeJSON(w, http.StatusOK, est)
	}
}

// DeleteEstimate handles DELETE /api/estimates/{id}.
func DeleteEstimate(store EstimateStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := parseID(r, "id")
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		if err := store.DeleteEstimate(r.Context(), id); err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				writeError(w, http.StatusNotFound, "Estimate not found")
				return
			}
			slog.Error("failed to delete estimate", "id", id, "error", err)
			writeError(w, http.StatusInternalServerError, "Failed to delete estimate")
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

// GetTotals handles GET /api/estimates/totals.
func GetTotals(store EstimateStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		totals, err := store.EstimateTotals(r.Context())
		if err != nil {
			slog.Error("failed to aggregate estimates", "error", err)
			writeError(w, http.StatusInternalServerError, "Failed to get totals")
			return
		}
		writeJSON(w, http.StatusOK, totals)
	}
}

// saveEstimate inserts est and reads it back so the response carries the
// database ID and timestamp.
func saveEstimate(ctx context.Context, store EstimateStore, est *models.Estimate) (*models.Estimate, error) {
	id, err := store.SaveEstimate(ctx, est)
	if err != nil {
		return nil, err
	}
	return store.GetEstimate(ctx, id)
}
