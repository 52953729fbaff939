package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hoanghai1803/mdreadtime/internal/storage"
)

// TagStore manages the tags attached to estimates. *storage.Store satisfies
// it.
type TagStore interface {
	AddTag(ctx context.Context, estimateID int64, tag string) error
	RemoveTag(ctx context.Context, estimateID int64, tag string) error
	GetAllTags(ctx context.Context) ([]string, error)
}

// AddTag handles POST /api/estimates/{id}/tags. The tag is created if it
// doesn't exist yet.
func AddTag(store TagStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := parseID(r, "id")
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		var body struct {
			Tag string `json:"tag"`
		}
		if err := decodeJSON(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid JSON body")
			return
		}

		if err := store.AddTag(r.Context(), id, body.Tag); err != nil {
			switch {
			case errors.Is(err, storage.ErrInvalidTag):
				writeError(w, http.StatusBadRequest, "tag is required")
			case errors.Is(err, storage.ErrNotFound):
				writeError(w, http.StatusNotFound, "Estimate not found")
			default:
				slog.Error("failed to add tag", "id", id, "tag", body.Tag, "error", err)
				writeError(w, http.StatusInternalServerError, "Failed to add tag")
			}
			return
		}

		writeJSON(w, http.StatusCreated, map[string]string{"status": "added"})
	}
}

// RemoveTag handles DELETE /api/estimates/{id}/tags/{tag}. Tags left unused
// are deleted.
func RemoveTag(store TagStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := parseID(r, "id")
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		tag := chi.URLParam(r, "tag")
		if tag == "" {
			writeError(w, http.StatusBadRequest, "tag parameter is required")
			return
		}

		if err := store.RemoveTag(r.Context(), id, tag); err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				writeError(w, http.StatusNotFound, "Tag not found on this estimate")
				return
			}
			slog.Error("failed to remove tag", "id", id, "tag", tag, "error", err)
			writeError(w, http.StatusInternalServerError, "Failed to remove tag")
			return
		}

		writeJSON(w, http.StatusOK, map[string]string{"status": "removed"})
	}
}

// GetAllTags handles GET /api/tags.
func GetAllTags(store TagStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tags, err := store.GetAllTags(r.Context())
		if err != nil {
			slog.Error("failed to get tags", "error", err)
			writeError(w, http.StatusInternalServerError, "Failed to get tags")
			return
		}

		writeJSON(w, http.StatusOK, tags)
	}
}
