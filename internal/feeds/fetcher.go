// Package feeds estimates the reading time of articles published in RSS and
// Atom feeds, and of single web pages.
package feeds

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/mmcdole/gofeed"
	"golang.org/x/sync/errgroup"

	"github.com/hoanghai1803/mdreadtime/internal/models"
	"github.com/hoanghai1803/mdreadtime/internal/readingtime"
)

const (
	httpTimeout    = 30 * time.Second
	maxConcurrent  = 10
	rateLimitDelay = 1 * time.Second
	maxWords       = 5000
	userAgent      = "Mozilla/5.0 (compatible; mdreadtime/1.0; +https://github.com/hoanghai1803/mdreadtime)"
)

// FetchOptions controls which feed items are estimated and how.
type FetchOptions struct {
	// MaxArticles caps the number of items estimated, in feed order.
	// Zero means no cap.
	MaxArticles int

	// LookbackDays skips items published more than N days ago. Items with
	// no publication date are always kept. Zero disables the filter.
	LookbackDays int

	// FullText fetches every item's page and estimates its readable content
	// instead of the body embedded in the feed.
	FullText bool
}

// FailedFeed records a saved feed that could not be estimated.
type FailedFeed struct {
	Source string `json:"source"`
	Error  string `json:"error"`
}

// ScanResult holds the articles of every feed that was estimated and the
// feeds that failed.
type ScanResult struct {
	Articles []models.ArticleEstimate `json:"articles"`
	Failed   []FailedFeed             `json:"failed"`
}

// Fetcher downloads feeds and pages with per-domain rate limiting and bounded
// concurrency.
type Fetcher struct {
	client   *http.Client
	minDelay time.Duration

	mu          sync.Mutex           // protects rateLimiter
	rateLimiter map[string]time.Time // per-domain last request time
}

// NewFetcher creates a Fetcher with a 30-second timeout that waits at least
// one second between requests to the same domain.
func NewFetcher() *Fetcher {
	return &Fetcher{
		client: &http.Client{
			Timeout: httpTimeout,
			Transport: &userAgentTransport{
				base: http.DefaultTransport,
			},
		},
		minDelay:    rateLimitDelay,
		rateLimiter: make(map[string]time.Time),
	}
}

// userAgentTransport wraps an http.RoundTripper to inject the mdreadtime
// User-Agent and a browser-like Accept header on every request.
type userAgentTransport struct {
	base http.RoundTripper
}

func (t *userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	return t.base.RoundTrip(req)
}

// EstimateFeed fetches the feed at feedURL and estimates every selected item.
// Items are processed concurrently, at most 10 at a time. When a full-text
// extraction fails, the item falls back to the feed body and a warning is
// logged; only an unusable reading speed fails the batch.
func (f *Fetcher) EstimateFeed(ctx context.Context, feedURL string, fo FetchOptions, opts ...readingtime.Option) ([]models.ArticleEstimate, error) {
	// Reject bad options before any network traffic.
	if _, err := readingtime.Estimate(0, 0, opts...); err != nil {
		return nil, err
	}

	f.waitForRateLimit(ctx, extractDomain(feedURL))

	fp := gofeed.NewParser()
	fp.Client = f.client

	feed, err := fp.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("parsing feed %q: %w", feedURL, err)
	}

	items := selectItems(feed, fo.LookbackDays, fo.MaxArticles, time.Now())
	results := make([]models.ArticleEstimate, len(items))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrent)

	for i, item := range items {
		g.Go(func() error {
			est, err := f.estimateItem(ctx, item, fo.FullText, opts)
			if err != nil {
				return err
			}
			results[i] = est
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("estimating feed %q: %w", feedURL, err)
	}

	slog.Info("estimated feed", "url", feedURL, "items", len(results), "full_text", fo.FullText)
	return results, nil
}

// EstimateAll estimates every source concurrently, at most 10 feeds at a
// time. A feed that fails is recorded in ScanResult.Failed and the others
// carry on. Articles are grouped by source in the order of sources, and
// each one names its feed.
func (f *Fetcher) EstimateAll(ctx context.Context, sources []models.FeedSource, fo FetchOptions, opts ...readingtime.Option) (*ScanResult, error) {
	if _, err := readingtime.Estimate(0, 0, opts...); err != nil {
		return nil, err
	}

	var (
		perSource = make([][]models.ArticleEstimate, len(sources))
		failed    = []FailedFeed{}
		mu        sync.Mutex
	)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrent)

	for i, src := range sources {
		g.Go(func() error {
			articles, err := f.EstimateFeed(ctx, src.FeedURL, fo, opts...)
			if err != nil {
				slog.Warn("failed to estimate feed",
					"source", src.Name,
					"url", src.FeedURL,
					"error", err,
				)

				mu.Lock()
				failed = append(failed, FailedFeed{Source: src.Name, Error: err.Error()})
				mu.Unlock()
				return nil
			}

			for j := range articles {
				articles[j].Feed = src.Name
			}
			perSource[i] = articles
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("estimating feeds: %w", err)
	}

	result := &ScanResult{Articles: []models.ArticleEstimate{}, Failed: failed}
	for _, articles := range perSource {
		result.Articles = append(result.Articles, articles...)
	}
	return result, nil
}

func (f *Fetcher) estimateItem(ctx context.Context, item *gofeed.Item, fullText bool, opts []readingtime.Option) (models.ArticleEstimate, error) {
	est := newArticleEstimate(item)

	if fullText {
		article, err := f.extractArticle(ctx, item.Link)
		if err == nil {
			stats, err := estimateParts(article.Text, article.HTML, opts...)
			if err != nil {
				return est, err
			}
			est.FullText = true
			applyStats(&est, stats)
			return est, nil
		}
		slog.Warn("full text extraction failed, using feed body",
			"url", item.Link,
			"error", err,
		)
	}

	stats, err := estimateHTML(itemBody(item), opts...)
	if err != nil {
		return est, err
	}
	applyStats(&est, stats)
	return est, nil
}

// EstimateURL extracts the readable content of a single web page and
// estimates it. The text is truncated to 5000 words.
func (f *Fetcher) EstimateURL(ctx context.Context, pageURL string, opts ...readingtime.Option) (*models.ArticleEstimate, error) {
	if _, err := readingtime.Estimate(0, 0, opts...); err != nil {
		return nil, err
	}

	article, err := f.extractArticle(ctx, pageURL)
	if err != nil {
		return nil, fmt.Errorf("extracting article from %q: %w", pageURL, err)
	}

	stats, err := estimateParts(article.Text, article.HTML, opts...)
	if err != nil {
		return nil, err
	}

	est := &models.ArticleEstimate{
		Title:    article.Title,
		URL:      pageURL,
		FullText: true,
	}
	applyStats(est, stats)
	return est, nil
}

// waitForRateLimit enforces the minimum delay between requests to the same
// domain. It blocks until the delay has elapsed or ctx is done.
func (f *Fetcher) waitForRateLimit(ctx context.Context, domain string) {
	f.mu.Lock()
	var wait time.Duration
	next := time.Now()
	if last, ok := f.rateLimiter[domain]; ok {
		if earliest := last.Add(f.minDelay); earliest.After(next) {
			wait = earliest.Sub(next)
			next = earliest
		}
	}
	// Reserve the slot before sleeping so concurrent callers queue up
	// behind it.
	f.rateLimiter[domain] = next
	f.mu.Unlock()

	if wait <= 0 {
		return
	}
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}

// extractDomain parses a URL and returns its hostname. If parsing fails, it
// returns the raw URL as a fallback key.
func extractDomain(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	return u.Hostname()
}
