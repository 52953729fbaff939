package feeds

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	readability "github.com/go-shiori/go-readability"
)

// Article is the readable part of a web page.
type Article struct {
	Title string
	// Text is the plain text of the main content.
	Text string
	// HTML is the cleaned markup of the main content. Images are counted
	// from it.
	HTML string
}

// extractArticle downloads pageURL with the fetcher's client and runs
// go-readability over the response.
func (f *Fetcher) extractArticle(ctx context.Context, pageURL string) (*Article, error) {
	u, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("parsing url %q: %w", pageURL, err)
	}

	f.waitForRateLimit(ctx, u.Hostname())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request for %q: %w", pageURL, err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %q: %w", pageURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching %q: HTTP %d", pageURL, resp.StatusCode)
	}

	article, err := readability.FromReader(resp.Body, u)
	if err != nil {
		return nil, fmt.Errorf("readability extraction: %w", err)
	}

	return &Article{
		Title: article.Title,
		Text:  truncateWords(article.TextContent, maxWords),
		HTML:  article.Content,
	}, nil
}
