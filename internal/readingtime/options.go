package readingtime

type options struct {
	wordsPerMinute float64
	includeImages  bool
	strictWords    bool
}

// Option configures a single estimation.
type Option func(*options)

// WithWordsPerMinute sets the reading speed. It must be positive.
func WithWordsPerMinute(wpm float64) Option {
	return func(o *options) {
		o.wordsPerMinute = wpm
	}
}

// WithImages enables or disables the extra time spent on images. Images are
// included by default.
func WithImages(include bool) Option {
	return func(o *options) {
		o.includeImages = include
	}
}

// WithStrictWords only counts tokens that contain at least one ASCII letter
// or digit. By default every space-delimited token is a word.
func WithStrictWords() Option {
	return WithStrict(true)
}

// WithStrict sets strict word counting on or off, so a later option can undo
// an earlier WithStrictWords.
func WithStrict(strict bool) Option {
	return func(o *options) {
		o.strictWords = strict
	}
}
