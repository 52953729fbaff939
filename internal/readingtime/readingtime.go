// Package readingtime estimates how long a human needs to read a block of
// markdown.
//
// The heuristic follows Medium's published read-time rules: words are
// converted to minutes at a configurable reading speed (275 WPM by default),
// and every embedded image adds a decreasing amount of time. The first image
// costs 12 seconds, the second 11, and so on down to 3 seconds, which is the
// cost of every image after the tenth.
//
// Everything in this package is pure: no I/O and no shared mutable state, so
// Calculate is safe to call from any number of goroutines.
package readingtime

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// DefaultWordsPerMinute is the average adult reading speed used when no
// speed is configured.
const DefaultWordsPerMinute = 275

// ErrInvalidConfiguration is returned when an option cannot produce a
// meaningful estimate, such as a non-positive reading speed.
var ErrInvalidConfiguration = errors.New("invalid configuration")

// Stats is the result of a reading time estimation.
type Stats struct {
	// Time is the estimated reading time in milliseconds.
	Time int64 `json:"time"`
	// WordsCount is the number of words detected in the content.
	WordsCount int `json:"words_count"`
	// Minutes is the estimated reading time in whole minutes, never below 1.
	Minutes int `json:"minutes"`
	// ImagesCount is the number of images detected. Zero when images are
	// excluded from the estimate.
	ImagesCount int `json:"images_count"`
	// ImagesTime is the part of Time spent on images, in milliseconds.
	ImagesTime int64 `json:"images_time"`
}

// Duration returns the estimated reading time as a time.Duration.
func (s Stats) Duration() time.Duration {
	return time.Duration(s.Time) * time.Millisecond
}

// Calculate estimates the reading time of markdown content.
//
// Empty content is valid and yields zero words and a one-minute estimate. The
// only error is ErrInvalidConfiguration, returned when the options resolve to
// an unusable reading speed.
func Calculate(content string, opts ...Option) (Stats, error) {
	o, err := resolve(opts)
	if err != nil {
		return Stats{}, err
	}

	images := 0
	if o.includeImages {
		images = CountImages(content)
	}
	return estimate(countWords(content, o.strictWords), images, o), nil
}

// Estimate computes reading time from counts that were obtained elsewhere,
// for example words from an article's plain text and images from its HTML.
// imagesCount is ignored when images are excluded.
func Estimate(wordsCount, imagesCount int, opts ...Option) (Stats, error) {
	o, err := resolve(opts)
	if err != nil {
		return Stats{}, err
	}
	return estimate(max(wordsCount, 0), max(imagesCount, 0), o), nil
}

// EstimateText estimates a document whose words are counted from text and
// whose images are counted from markup, a separate rendition of the same
// document such as an article's HTML. Words are counted as Calculate counts
// them, honouring WithStrictWords.
func EstimateText(text, markup string, opts ...Option) (Stats, error) {
	o, err := resolve(opts)
	if err != nil {
		return Stats{}, err
	}

	images := 0
	if o.includeImages {
		images = CountImages(markup)
	}
	return estimate(countWords(text, o.strictWords), images, o), nil
}

func estimate(wordsCount, imagesCount int, o options) Stats {
	minutes := float64(wordsCount) / o.wordsPerMinute
	ms := round(minutes * 60 * 1000)

	stats := Stats{WordsCount: wordsCount}

	if o.includeImages {
		secs := float64(ImageSeconds(imagesCount))

		// Images are added to the two totals separately: whole minutes to
		// minutes and exact milliseconds to time. The two can disagree.
		minutes += float64(round(secs / 60))
		stats.ImagesCount = imagesCount
		stats.ImagesTime = round(secs * 1000)
		ms += stats.ImagesTime
	}

	stats.Time = ms
	stats.Minutes = max(1, int(round(minutes)))
	return stats
}

// round rounds half away from zero. Every value estimate sees is
// non-negative, so this is also round-half-up.
func round(v float64) int64 {
	return int64(math.Round(v))
}

func resolve(opts []Option) (options, error) {
	o := options{
		wordsPerMinute: DefaultWordsPerMinute,
		includeImages:  true,
	}
	for _, opt := range opts {
		opt(&o)
	}

	wpm := o.wordsPerMinute
	if math.IsNaN(wpm) || math.IsInf(wpm, 0) || wpm <= 0 {
		return options{}, fmt.Errorf("%w: words per minute must be positive, got %v", ErrInvalidConfiguration, wpm)
	}
	return o, nil
}
