package feeds

import (
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
	"golang.org/x/net/html"

	"github.com/hoanghai1803/mdreadtime/internal/models"
	"github.com/hoanghai1803/mdreadtime/internal/readingtime"
)

// selectItems returns the feed items worth estimating, in feed order. Items
// with an empty Title or Link are skipped, as are items published before the
// lookback window. Items without a publication date are always kept. At most
// maxArticles items are returned when maxArticles is positive.
func selectItems(feed *gofeed.Feed, lookbackDays, maxArticles int, now time.Time) []*gofeed.Item {
	var cutoff time.Time
	if lookbackDays > 0 {
		cutoff = now.AddDate(0, 0, -lookbackDays)
	}

	var items []*gofeed.Item
	for _, item := range feed.Items {
		if item == nil || item.Title == "" || item.Link == "" {
			continue
		}
		if item.PublishedParsed != nil && item.PublishedParsed.Before(cutoff) {
			continue
		}
		items = append(items, item)
		if maxArticles > 0 && len(items) == maxArticles {
			break
		}
	}
	return items
}

// itemBody returns the richest HTML body the feed carries for an item.
func itemBody(item *gofeed.Item) string {
	if strings.TrimSpace(item.Content) != "" {
		return item.Content
	}
	return item.Description
}

// newArticleEstimate copies the item metadata into an empty estimate.
func newArticleEstimate(item *gofeed.Item) models.ArticleEstimate {
	est := models.ArticleEstimate{
		Title: item.Title,
		URL:   item.Link,
	}
	if item.PublishedParsed != nil {
		t := *item.PublishedParsed
		est.PublishedAt = &t
	}
	return est
}

// estimateHTML estimates an HTML fragment: words come from its visible text
// and images from its markup.
func estimateHTML(fragment string, opts ...readingtime.Option) (readingtime.Stats, error) {
	return estimateParts(htmlText(fragment), fragment, opts...)
}

// estimateParts estimates text whose images live in a separate markup
// rendition of the same document.
func estimateParts(text, markup string, opts ...readingtime.Option) (readingtime.Stats, error) {
	return readingtime.EstimateText(normalizeSpace(text), markup, opts...)
}

func applyStats(est *models.ArticleEstimate, stats readingtime.Stats) {
	est.WordsCount = stats.WordsCount
	est.ImagesCount = stats.ImagesCount
	est.TimeMS = stats.Time
	est.Minutes = stats.Minutes
}

// htmlText returns the visible text of an HTML fragment. Script and style
// contents are dropped. Unparseable input is returned as is.
func htmlText(fragment string) string {
	doc, err := html.Parse(strings.NewReader(fragment))
	if err != nil {
		return fragment
	}

	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style") {
			return
		}
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
			b.WriteByte(' ')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return b.String()
}

// normalizeSpace collapses every run of whitespace to a single space, so that
// counting space-delimited tokens counts words.
func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// truncateWords returns the first maxWords whitespace-delimited words from s.
// If s contains fewer than maxWords words, it is returned unchanged.
func truncateWords(s string, maxWords int) string {
	words := strings.Fields(s)
	if len(words) <= maxWords {
		return s
	}
	return strings.Join(words[:maxWords], " ")
}
