package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/hoanghai1803/mdreadtime/internal/feeds"
	"github.com/hoanghai1803/mdreadtime/internal/models"
	"github.com/hoanghai1803/mdreadtime/internal/readingtime"
	"github.com/hoanghai1803/mdreadtime/internal/storage"
)

// newTestStore creates an in-memory SQLite store with migrations applied. It
// registers a cleanup function to close the database when the test completes.
func newTestStore(t *testing.T) *storage.Store {
	t.Helper()

	db, err := storage.OpenDatabase(":memory:")
	if err != nil {
		t.Fatalf("opening test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := storage.RunMigrations(db); err != nil {
		t.Fatalf("running migrations: %v", err)
	}

	return storage.NewStore(db)
}

// withURLParam attaches a chi route context carrying one URL parameter.
func withURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// decodeError returns the message of a {"error": ...} response body.
func decodeError(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()

	var body map[string]string
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("decoding error body: %v", err)
	}
	return body["error"]
}

// fakeFetcher stands in for *feeds.Fetcher. It applies the reading time
// options to fixed word and image counts so tests can observe overrides.
type fakeFetcher struct {
	words, images int
	err           error

	gotURL  string
	gotOpts feeds.FetchOptions
}

func (f *fakeFetcher) stats(opts []readingtime.Option) (readingtime.Stats, error) {
	if f.err != nil {
		return readingtime.Stats{}, f.err
	}
	return readingtime.Estimate(f.words, f.images, opts...)
}

func (f *fakeFetcher) EstimateURL(ctx context.Context, pageURL string, opts ...readingtime.Option) (*models.ArticleEstimate, error) {
	f.gotURL = pageURL
	stats, err := f.stats(opts)
	if err != nil {
		return nil, err
	}
	return &models.ArticleEstimate{
		Title:       "Fetched Title",
		URL:         pageURL,
		WordsCount:  stats.WordsCount,
		ImagesCount: stats.ImagesCount,
		TimeMS:      stats.Time,
		Minutes:     stats.Minutes,
		FullText:    true,
	}, nil
}

func (f *fakeFetcher) EstimateFeed(ctx context.Context, feedURL string, fo feeds.FetchOptions, opts ...readingtime.Option) ([]models.ArticleEstimate, error) {
	f.gotURL = feedURL
	f.gotOpts = fo
	stats, err := f.stats(opts)
	if err != nil {
		return nil, err
	}

	n := fo.MaxArticles
	articles := make([]models.ArticleEstimate, 0, n)
	for i := range n {
		articles = append(articles, models.ArticleEstimate{
			Title:       "Item",
			URL:         feedURL + "#" + string(rune('a'+i)),
			WordsCount:  stats.WordsCount,
			ImagesCount: stats.ImagesCount,
			TimeMS:      stats.Time,
			Minutes:     stats.Minutes,
		})
	}
	return articles, nil
}
