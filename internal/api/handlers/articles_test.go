package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/hoanghai1803/mdreadtime/internal/config"
	"github.com/hoanghai1803/mdreadtime/internal/models"
)

const pageURL = "https://blog.example.com/posts/reading"

func TestEstimateURL(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantTitle string
	}{
		{
			name:      "title from page",
			body:      `{"url": "` + pageURL + `"}`,
			wantTitle: "Fetched Title",
		},
		{
			name:      "title from request",
			body:      `{"url": "` + pageURL + `", "title": "Mine"}`,
			wantTitle: "Mine",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newTestStore(t)
			fetcher := &fakeFetcher{words: 550, images: 1}
			h := EstimateURL(store, fetcher, config.Default())

			r := httptest.NewRequest(http.MethodPost, "/api/estimate/url", strings.NewReader(tt.body))
			w := httptest.NewRecorder()

			h.ServeHTTP(w, r)

			if w.Code != http.StatusCreated {
				t.Fatalf("got status %d, want %d; body: %s", w.Code, http.StatusCreated, w.Body.String())
			}
			if fetcher.gotURL != pageURL {
				t.Errorf("fetched %q, want %q", fetcher.gotURL, pageURL)
			}

			var got models.Estimate
			if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
				t.Fatalf("decoding response: %v", err)
			}
			if got.ID == 0 {
				t.Error("ID = 0, want stored row ID")
			}
			if got.Title != tt.wantTitle {
				t.Errorf("Title = %q, want %q", got.Title, tt.wantTitle)
			}
			if got.Source != pageURL {
				t.Errorf("Source = %q, want %q", got.Source, pageURL)
			}
			if got.WordsCount != 550 || got.ImagesCount != 1 || got.TimeMS != 132000 || got.Minutes != 2 {
				t.Errorf("estimate = (%d words, %d images, %d ms, %d min), want (550, 1, 132000, 2)",
					got.WordsCount, got.ImagesCount, got.TimeMS, got.Minutes)
			}
		})
	}
}

func TestEstimateURL_Errors(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		fetchErr   error
		wantStatus int
	}{
		{name: "malformed JSON", body: `{"url":`, wantStatus: http.StatusBadRequest},
		{name: "missing url", body: `{}`, wantStatus: http.StatusBadRequest},
		{name: "relative url", body: `{"url": "/posts/reading"}`, wantStatus: http.StatusBadRequest},
		{name: "zero speed", body: `{"url": "` + pageURL + `", "words_per_minute": 0}`, wantStatus: http.StatusBadRequest},
		{
			name:       "upstream failure",
			body:       `{"url": "` + pageURL + `"}`,
			fetchErr:   errors.New("unexpected status 404"),
			wantStatus: http.StatusBadGateway,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newTestStore(t)
			h := EstimateURL(store, &fakeFetcher{words: 10, err: tt.fetchErr}, config.Default())

			r := httptest.NewRequest(http.MethodPost, "/api/estimate/url", strings.NewReader(tt.body))
			w := httptest.NewRecorder()

			h.ServeHTTP(w, r)

			if w.Code != tt.wantStatus {
				t.Errorf("got status %d, want %d; body: %s", w.Code, tt.wantStatus, w.Body.String())
			}
		})
	}
}

func TestEstimateFeed(t *testing.T) {
	const feedURL = "https://blog.example.com/feed.xml"

	t.Run("configured defaults", func(t *testing.T) {
		fetcher := &fakeFetcher{words: 550, images: 1}
		h := EstimateFeed(fetcher, config.Default())

		r := httptest.NewRequest(http.MethodPost, "/api/feeds/estimate", strings.NewReader(`{"feed_url": "`+feedURL+`"}`))
		w := httptest.NewRecorder()

		h.ServeHTTP(w, r)

		if w.Code != http.StatusOK {
			t.Fatalf("got status %d, want %d; body: %s", w.Code, http.StatusOK, w.Body.String())
		}
		if fetcher.gotOpts.MaxArticles != 20 || fetcher.gotOpts.LookbackDays != 7 || fetcher.gotOpts.FullText {
			t.Errorf("fetch options = %+v, want configured defaults", fetcher.gotOpts)
		}
	})

	t.Run("request overrides", func(t *testing.T) {
		fetcher := &fakeFetcher{words: 550, images: 1}
		h := EstimateFeed(fetcher, config.Default())

		body := `{"feed_url": "` + feedURL + `", "max_articles": 2, "lookback_days": 30, "full_text": true}`
		r := httptest.NewRequest(http.MethodPost, "/api/feeds/estimate", strings.NewReader(body))
		w := httptest.NewRecorder()

		h.ServeHTTP(w, r)

		if w.Code != http.StatusOK {
			t.Fatalf("got status %d, want %d; body: %s", w.Code, http.StatusOK, w.Body.String())
		}
		if fetcher.gotOpts.LookbackDays != 30 || !fetcher.gotOpts.FullText {
			t.Errorf("fetch options = %+v, want lookback 30 with full text", fetcher.gotOpts)
		}

		var got feedEstimateResponse
		if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
			t.Fatalf("decoding response: %v", err)
		}
		if got.FeedURL != feedURL {
			t.Errorf("FeedURL = %q, want %q", got.FeedURL, feedURL)
		}
		if len(got.Articles) != 2 {
			t.Fatalf("got %d articles, want 2", len(got.Articles))
		}
		if got.TotalTimeMS != 2*132000 {
			t.Errorf("TotalTimeMS = %d, want %d", got.TotalTimeMS, 2*132000)
		}
	})
}

func TestEstimateFeed_Errors(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		fetchErr   error
		wantStatus int
	}{
		{name: "malformed JSON", body: `[`, wantStatus: http.StatusBadRequest},
		{name: "missing feed url", body: `{"max_articles": 3}`, wantStatus: http.StatusBadRequest},
		{name: "zero max articles", body: `{"feed_url": "https://example.com/rss", "max_articles": 0}`, wantStatus: http.StatusBadRequest},
		{name: "negative lookback", body: `{"feed_url": "https://example.com/rss", "lookback_days": -1}`, wantStatus: http.StatusBadRequest},
		{name: "zero speed", body: `{"feed_url": "https://example.com/rss", "words_per_minute": 0}`, wantStatus: http.StatusBadRequest},
		{
			name:       "upstream failure",
			body:       `{"feed_url": "https://example.com/rss"}`,
			fetchErr:   errors.New("parsing feed: EOF"),
			wantStatus: http.StatusBadGateway,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := EstimateFeed(&fakeFetcher{words: 10, err: tt.fetchErr}, config.Default())

			r := httptest.NewRequest(http.MethodPost, "/api/feeds/estimate", strings.NewReader(tt.body))
			w := httptest.NewRecorder()

			h.ServeHTTP(w, r)

			if w.Code != tt.wantStatus {
				t.Errorf("got status %d, want %d; body: %s", w.Code, tt.wantStatus, w.Body.String())
			}
		})
	}
}

func TestHealth(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	w := httptest.NewRecorder()

	Health().ServeHTTP(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("got status %d, want %d", w.Code, http.StatusOK)
	}
	var got map[string]string
	if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if got["status"] != "ok" {
		t.Errorf("status = %q, want %q", got["status"], "ok")
	}
}
