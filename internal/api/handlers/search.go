package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/hoanghai1803/mdreadtime/internal/models"
)

// EstimateSearcher runs full-text queries over saved estimates.
// *storage.Store satisfies it.
type EstimateSearcher interface {
	SearchEstimates(ctx context.Context, query string, limit int) ([]models.Estimate, error)
}

// SearchEstimates handles GET /api/estimates/search?q={query}&limit={limit}.
// It matches every word of the query as a prefix of a title or source word.
func SearchEstimates(store EstimateSearcher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := strings.TrimSpace(r.URL.Query().Get("q"))
		if query == "" {
			writeJSON(w, http.StatusOK, []models.Estimate{})
			return
		}

		limit, err := parseLimit(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		estimates, err := store.SearchEstimates(r.Context(), query, limit)
		if err != nil {
			slog.Error("failed to search estimates", "query", query, "error", err)
			writeError(w, http.StatusInternalServerError, "Search failed")
			return
		}

		writeJSON(w, http.StatusOK, estimates)
	}
}
