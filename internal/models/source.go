package models

import "time"

// FeedSource is a saved RSS or Atom feed. Active sources are estimated
// together by a batch scan.
type FeedSource struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	FeedURL   string    `json:"feed_url"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}
