package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/hoanghai1803/mdreadtime/internal/config"
	"github.com/hoanghai1803/mdreadtime/internal/models"
	"github.com/hoanghai1803/mdreadtime/internal/storage"
)

const fiveWords = "one two three four five"

// postEstimate sends body to EstimateContent and decodes a successful reply.
func postEstimate(t *testing.T, h http.HandlerFunc, body map[string]any) (*httptest.ResponseRecorder, models.Estimate) {
	t.Helper()

	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("encoding body: %v", err)
	}
	r := httptest.NewRequest(http.MethodPost, "/api/estimate", bytes.NewReader(raw))
	w := httptest.NewRecorder()

	h.ServeHTTP(w, r)

	var est models.Estimate
	if w.Code == http.StatusOK || w.Code == http.StatusCreated {
		if err := json.NewDecoder(w.Body).Decode(&est); err != nil {
			t.Fatalf("decoding estimate: %v", err)
		}
	}
	return w, est
}

// seedEstimates stores one estimate per title and returns their IDs.
func seedEstimates(t *testing.T, store *storage.Store, titles ...string) []int64 {
	t.Helper()

	ids := make([]int64, 0, len(titles))
	for _, title := range titles {
		id, err := store.SaveEstimate(context.Background(), &models.Estimate{
			Title:          title,
			Source:         "test",
			ContentHash:    storage.HashContent(title),
			WordsPerMinute: 275,
			IncludeImages:  true,
			WordsCount:     550,
			TimeMS:         120000,
			Minutes:        2,
		})
		if err != nil {
			t.Fatalf("seeding estimate %q: %v", title, err)
		}
		ids = append(ids, id)
	}
	return ids
}

func TestEstimateContent_CreatesThenCaches(t *testing.T) {
	store := newTestStore(t)
	h := EstimateContent(store, config.Default())

	w, first := postEstimate(t, h, map[string]any{"content": fiveWords, "title": "Intro"})
	if w.Code != http.StatusCreated {
		t.Fatalf("first POST got status %d, want %d; body: %s", w.Code, http.StatusCreated, w.Body.String())
	}
	if first.ID == 0 {
		t.Error("ID = 0, want stored row ID")
	}
	if first.Title != "Intro" || first.Source != sourceAPI {
		t.Errorf("title, source = %q, %q; want %q, %q", first.Title, first.Source, "Intro", sourceAPI)
	}
	if first.WordsCount != 5 || first.TimeMS != 1091 || first.Minutes != 1 {
		t.Errorf("estimate = (%d words, %d ms, %d min), want (5, 1091, 1)", first.WordsCount, first.TimeMS, first.Minutes)
	}
	if first.WordsPerMinute != 275 || !first.IncludeImages {
		t.Errorf("settings = (%v wpm, images %v), want configured defaults", first.WordsPerMinute, first.IncludeImages)
	}

	w, again := postEstimate(t, h, map[string]any{"content": fiveWords})
	if w.Code != http.StatusOK {
		t.Fatalf("repeat POST got status %d, want %d", w.Code, http.StatusOK)
	}
	if again.ID != first.ID {
		t.Errorf("repeat POST returned ID %d, want cached %d", again.ID, first.ID)
	}

	w, slower := postEstimate(t, h, map[string]any{"content": fiveWords, "words_per_minute": 50})
	if w.Code != http.StatusCreated {
		t.Fatalf("POST with new speed got status %d, want %d", w.Code, http.StatusCreated)
	}
	if slower.ID == first.ID {
		t.Error("POST with a different speed reused the cached estimate")
	}
	if slower.TimeMS != 6000 {
		t.Errorf("TimeMS = %d, want %d", slower.TimeMS, 6000)
	}
}

func TestEstimateContent_IgnoresURLEstimates(t *testing.T) {
	store := newTestStore(t)

	r := httptest.NewRequest(http.MethodPost, "/api/estimate/url", strings.NewReader(`{"url": "`+pageURL+`"}`))
	w := httptest.NewRecorder()
	EstimateURL(store, &fakeFetcher{words: 2000}, config.Default()).ServeHTTP(w, r)
	if w.Code != http.StatusCreated {
		t.Fatalf("URL estimate got status %d, want %d; body: %s", w.Code, http.StatusCreated, w.Body.String())
	}

	w, got := postEstimate(t, EstimateContent(store, config.Default()), map[string]any{"content": pageURL})
	if w.Code != http.StatusCreated {
		t.Fatalf("content POST got status %d, want %d; body: %s", w.Code, http.StatusCreated, w.Body.String())
	}
	if got.WordsCount != 1 || got.Source != sourceAPI {
		t.Errorf("estimate = (%d words, source %q), want (1, %q)", got.WordsCount, got.Source, sourceAPI)
	}
}

func TestEstimateContent_Overrides(t *testing.T) {
	tests := []struct {
		name       string
		cfg        func(*config.Config)
		body       map[string]any
		wantWords  int
		wantImages int
		wantTime   int64
	}{
		{
			name:       "configured defaults",
			body:       map[string]any{"content": "hello ![alt](x.png)"},
			wantWords:  2,
			wantImages: 1,
			wantTime:   12436,
		},
		{
			name:      "images excluded by request",
			body:      map[string]any{"content": "hello ![alt](x.png)", "include_images": false},
			wantWords: 2,
			wantTime:  436,
		},
		{
			name:      "images excluded by config",
			cfg:       func(c *config.Config) { c.Estimator.IncludeImages = false },
			body:      map[string]any{"content": "hello ![alt](x.png)"},
			wantWords: 2,
			wantTime:  436,
		},
		{
			name:      "strict words",
			body:      map[string]any{"content": "a - b", "strict_words": true},
			wantWords: 2,
			wantTime:  436,
		},
		{
			name:      "configured speed",
			cfg:       func(c *config.Config) { c.Estimator.WordsPerMinute = 50 },
			body:      map[string]any{"content": fiveWords},
			wantWords: 5,
			wantTime:  6000,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			if tt.cfg != nil {
				tt.cfg(cfg)
			}
			h := EstimateContent(newTestStore(t), cfg)

			w, got := postEstimate(t, h, tt.body)
			if w.Code != http.StatusCreated {
				t.Fatalf("got status %d, want %d; body: %s", w.Code, http.StatusCreated, w.Body.String())
			}
			if got.WordsCount != tt.wantWords || got.ImagesCount != tt.wantImages || got.TimeMS != tt.wantTime {
				t.Errorf("estimate = (%d words, %d images, %d ms), want (%d, %d, %d)",
					got.WordsCount, got.ImagesCount, got.TimeMS, tt.wantWords, tt.wantImages, tt.wantTime)
			}
		})
	}
}

func TestEstimateContent_BadRequests(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "malformed JSON", body: `{"content": `},
		{name: "unknown field", body: `{"markdown": "hello"}`},
		{name: "zero speed", body: `{"content": "hello", "words_per_minute": 0}`},
		{name: "negative speed", body: `{"content": "hello", "words_per_minute": -3}`},
	}

	store := newTestStore(t)
	h := EstimateContent(store, config.Default())

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/api/estimate", strings.NewReader(tt.body))
			w := httptest.NewRecorder()

			h.ServeHTTP(w, r)

			if w.Code != http.StatusBadRequest {
				t.Errorf("got status %d, want %d", w.Code, http.StatusBadRequest)
			}
			if msg := decodeError(t, w); msg == "" {
				t.Error("error message is empty")
			}
		})
	}

	totals, err := store.EstimateTotals(context.Background())
	if err != nil {
		t.Fatalf("EstimateTotals() error: %v", err)
	}
	if totals.Count != 0 {
		t.Errorf("stored %d estimates for rejected requests, want 0", totals.Count)
	}
}

func TestListEstimates(t *testing.T) {
	store := newTestStore(t)
	h := ListEstimates(store)

	t.Run("empty store returns empty array", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/api/estimates", nil)
		w := httptest.NewRecorder()

		h.ServeHTTP(w, r)

		if w.Code != http.StatusOK {
			t.Fatalf("got status %d, want %d", w.Code, http.StatusOK)
		}
		if got := strings.TrimSpace(w.Body.String()); got != "[]" {
			t.Errorf("got body %q, want %q", got, "[]")
		}
	})

	seedEstimates(t, store, "first", "second", "third")

	t.Run("limit", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/api/estimates?limit=2", nil)
		w := httptest.NewRecorder()

		h.ServeHTTP(w, r)

		var got []models.Estimate
		if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
			t.Fatalf("decoding response: %v", err)
		}
		if len(got) != 2 {
			t.Fatalf("got %d estimates, want 2", len(got))
		}
		if got[0].Title != "third" {
			t.Errorf("first title = %q, want newest %q", got[0].Title, "third")
		}
	})

	t.Run("invalid limit", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/api/estimates?limit=abc", nil)
		w := httptest.NewRecorder()

		h.ServeHTTP(w, r)

		if w.Code != http.StatusBadRequest {
			t.Errorf("got status %d, want %d", w.Code, http.StatusBadRequest)
		}
	})
}

func TestGetEstimate(t *testing.T) {
	store := newTestStore(t)
	ids := seedEstimates(t, store, "only")
	h := GetEstimate(store)

	tests := []struct {
		name       string
		id         string
		wantStatus int
	}{
		{name: "found", id: strconv.FormatInt(ids[0], 10), wantStatus: http.StatusOK},
		{name: "missing", id: "9999", wantStatus: http.StatusNotFound},
		{name: "invalid id", id: "abc", wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := withURLParam(httptest.NewRequest(http.MethodGet, "/api/estimates/"+tt.id, nil), "id", tt.id)
			w := httptest.NewRecorder()

			h.ServeHTTP(w, r)

			if w.Code != tt.wantStatus {
				t.Fatalf("got status %d, want %d", w.Code, tt.wantStatus)
			}
			if tt.wantStatus != http.StatusOK {
				return
			}

			var got models.Estimate
			if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
				t.Fatalf("decoding response: %v", err)
			}
			if got.Title != "only" || got.Minutes != 2 {
				t.Errorf("got (%q, %d min), want (%q, 2 min)", got.Title, got.Minutes, "only")
			}
		})
	}
}

func TestDeleteEstimate(t *testing.T) {
	store := newTestStore(t)
	ids := seedEstimates(t, store, "doomed")
	id := strconv.FormatInt(ids[0], 10)
	h := DeleteEstimate(store)

	del := func() *httptest.ResponseRecorder {
		r := withURLParam(httptest.NewRequest(http.MethodDelete, "/api/estimates/"+id, nil), "id", id)
		w := httptest.NewRecorder()
		h.ServeHTTP(w, r)
		return w
	}

	if w := del(); w.Code != http.StatusNoContent {
		t.Fatalf("DELETE got status %d, want %d", w.Code, http.StatusNoContent)
	}
	if w := del(); w.Code != http.StatusNotFound {
		t.Errorf("second DELETE got status %d, want %d", w.Code, http.StatusNotFound)
	}
}

func TestGetTotals(t *testing.T) {
	store := newTestStore(t)
	seedEstimates(t, store, "a", "b")

	r := httptest.NewRequest(http.MethodGet, "/api/estimates/totals", nil)
	w := httptest.NewRecorder()

	GetTotals(store).ServeHTTP(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("got status %d, want %d", w.Code, http.StatusOK)
	}

	var got models.EstimateTotals
	if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	want := models.EstimateTotals{Count: 2, TotalWords: 1100, TotalTimeMS: 240000, AverageMinutes: 2}
	if got != want {
		t.Errorf("totals = %+v, want %+v", got, want)
	}
}
