package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/hoanghai1803/mdreadtime/internal/config"
	"github.com/hoanghai1803/mdreadtime/internal/feeds"
	"github.com/hoanghai1803/mdreadtime/internal/models"
	"github.com/hoanghai1803/mdreadtime/internal/readingtime"
	"github.com/hoanghai1803/mdreadtime/internal/storage"
)

// ArticleEstimator estimates a single web page. *feeds.Fetcher satisfies it.
type ArticleEstimator interface {
	EstimateURL(ctx context.Context, pageURL string, opts ...readingtime.Option) (*models.ArticleEstimate, error)
}

// FeedEstimator estimates the items of an RSS or Atom feed. *feeds.Fetcher
// satisfies it.
type FeedEstimator interface {
	EstimateFeed(ctx context.Context, feedURL string, fo feeds.FetchOptions, opts ...readingtime.Option) ([]models.ArticleEstimate, error)
}

// EstimateURL handles POST /api/estimate/url. It extracts the readable content
// of the page, estimates it and stores the result. A page that cannot be
// fetched or parsed returns 502.
func EstimateURL(store EstimateStore, articles ArticleEstimator, cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var body struct {
			URL   string   `json:"url"`
			Title string   `json:"title"`
			Tags  []string `json:"tags"`
			estimatorOverrides
		}
		if err := decodeJSON(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid JSON body")
			return
		}

		body.URL = strings.TrimSpace(body.URL)
		if !validHTTPURL(body.URL) {
			writeError(w, http.StatusBadRequest, "url must be an absolute http or https URL")
			return
		}

		settings := body.apply(cfg.Estimator)
		article, err := articles.EstimateURL(ctx, body.URL, settings.Options()...)
		if err != nil {
			if errors.Is(err, readingtime.ErrInvalidConfiguration) {
				writeError(w, http.StatusBadRequest, err.Error())
				return
			}
			slog.Warn("failed to estimate page", "url", body.URL, "error", err)
			writeError(w, http.StatusBadGateway, "Failed to fetch article")
			return
		}

		title := strings.TrimSpace(body.Title)
		if title == "" {
			title = article.Title
		}
		if title == "" {
			title = body.URL
		}

		est := &models.Estimate{
			Title:          title,
			Source:         body.URL,
			ContentHash:    storage.HashContent(body.URL),
			WordsPerMinute: settings.WordsPerMinute,
			IncludeImages:  settings.IncludeImages,
			StrictWords:    settings.StrictWords,
			WordsCount:     article.WordsCount,
			ImagesCount:    article.ImagesCount,
			TimeMS:         article.TimeMS,
			Minutes:        article.Minutes,
			Tags:           body.Tags,
		}

		saved, err := saveEstimate(ctx, store, est)
		if err != nil {
			if errors.Is(err, storage.ErrInvalidTag) {
				writeError(w, http.StatusBadRequest, err.Error())
				return
			}
			slog.Error("failed to save estimate", "url", body.URL, "error", err)
			writeError(w, http.StatusInternalServerError, "Failed to save estimate")
			return
		}

		writeJSON(w, http.StatusCreated, saved)
	}
}

// feedEstimateResponse is the body returned by EstimateFeed.
type feedEstimateResponse struct {
	FeedURL     string                   `json:"feed_url"`
	Articles    []models.ArticleEstimate `json:"articles"`
	TotalTimeMS int64                    `json:"total_time"`
}

// EstimateFeed handles POST /api/feeds/estimate. It estimates each recent item
// of the feed. Results are not stored.
func EstimateFeed(fe FeedEstimator, cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			FeedURL      string `json:"feed_url"`
			MaxArticles  *int   `json:"max_articles"`
			LookbackDays *int   `json:"lookback_days"`
			FullText     *bool  `json:"full_text"`
			estimatorOverrides
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

		fo := feeds.FetchOptions{
			MaxArticles:  cfg.Feeds.MaxArticlesPerFeed,
			LookbackDays: cfg.Feeds.LookbackDays,
			FullText:     cfg.Feeds.ExtractFullText,
		}
		if body.MaxArticles != nil {
			if *body.MaxArticles < 1 {
				writeError(w, http.StatusBadRequest, "max_articles must be at least 1")
				return
			}
			fo.MaxArticles = *body.MaxArticles
		}
		if body.LookbackDays != nil {
			if *body.LookbackDays < 1 {
				writeError(w, http.StatusBadRequest, "lookback_days must be at least 1")
				return
			}
			fo.LookbackDays = *body.LookbackDays
		}
		if body.FullText != nil {
			fo.FullText = *body.FullText
		}

		settings := body.apply(cfg.Estimator)
		articles, err := fe.EstimateFeed(r.Context(), body.FeedURL, fo, settings.Options()...)
		if err != nil {
			if errors.Is(err, readingtime.ErrInvalidConfiguration) {
				writeError(w, http.StatusBadRequest, err.Error())
				return
			}
			slog.Warn("failed to estimate feed", "url", body.FeedURL, "error", err)
			writeError(w, http.StatusBadGateway, "Failed to fetch feed")
			return
		}

		resp := feedEstimateResponse{
			FeedURL:  body.FeedURL,
			Articles: articles,
		}
		if resp.Articles == nil {
			resp.Articles = []models.ArticleEstimate{}
		}
		for _, a := range resp.Articles {
			resp.TotalTimeMS += a.TimeMS
		}

		writeJSON(w, http.StatusOK, resp)
	}
}
