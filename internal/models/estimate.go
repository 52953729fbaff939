package models

import "time"

// Estimate is a persisted reading time estimate for one document.
type Estimate struct {
	ID             int64     `json:"id"`
	Title          string    `json:"title"`
	Source         string    `json:"source"`
	ContentHash    string    `json:"content_hash"`
	WordsPerMinute float64   `json:"words_per_minute"`
	IncludeImages  bool      `json:"include_images"`
	StrictWords    bool      `json:"strict_words"`
	WordsCount     int       `json:"words_count"`
	ImagesCount    int       `json:"images_count"`
	TimeMS         int64     `json:"time"`
	Minutes        int       `json:"minutes"`
	Tags           []string  `json:"tags"`
	CreatedAt      time.Time `json:"created_at"`
}

// EstimateTotals aggregates every persisted estimate.
type EstimateTotals struct {
	Count          int     `json:"count"`
	TotalWords     int64   `json:"total_words"`
	TotalTimeMS    int64   `json:"total_time"`
	AverageMinutes float64 `json:"average_minutes"`
}

// ArticleEstimate is the reading time of a single feed item or web page.
type ArticleEstimate struct {
	Feed        string     `json:"feed,omitempty"`
	Title       string     `json:"title"`
	URL         string     `json:"url"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
	WordsCount  int        `json:"words_count"`
	ImagesCount int        `json:"images_count"`
	TimeMS      int64      `json:"time"`
	Minutes     int        `json:"minutes"`
	FullText    bool       `json:"full_text"`
}
