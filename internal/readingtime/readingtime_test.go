package readingtime

import (
	"errors"
	"math"
	"strings"
	"testing"
	"time"
)

// words returns n alphanumeric words joined by single spaces.
func words(n int) string {
	w := make([]string, n)
	for i := range w {
		w[i] = "lorem"
	}
	return strings.Join(w, " ")
}

// markdownSample is an indented markdown snippet with one <img> tag. Split on
// spaces it yields 45 tokens.
const markdownSample = "\n        # Title \n        Lorem ipsum.\n        <img src=\"link\" />\n        The end.\n      "

func TestCalculate(t *testing.T) {
	tests := []struct {
		name    string
		content string
		opts    []Option
		want    Stats
	}{
		{
			name:    "less than 1 minute text",
			content: words(5),
			want:    Stats{WordsCount: 5, Minutes: 1, Time: 1091},
		},
		{
			name:    "just under 1 minute",
			content: words(274),
			want:    Stats{WordsCount: 274, Minutes: 1, Time: 59782},
		},
		{
			name:    "more than 1 minute but less than 2",
			content: words(300),
			want:    Stats{WordsCount: 300, Minutes: 1, Time: 65455},
		},
		{
			name:    "50 words at 10 words per minute",
			content: words(50),
			opts:    []Option{WithWordsPerMinute(10)},
			want:    Stats{WordsCount: 50, Minutes: 5, Time: 300000},
		},
		{
			name:    "markdown with image",
			content: markdownSample,
			opts:    []Option{WithImages(true)},
			want:    Stats{WordsCount: 45, Minutes: 1, Time: 21818, ImagesCount: 1, ImagesTime: 12000},
		},
		{
			name:    "markdown without image time",
			content: markdownSample,
			opts:    []Option{WithImages(false)},
			want:    Stats{WordsCount: 45, Minutes: 1, Time: 9818},
		},
		{
			name:    "empty content",
			content: "",
			want:    Stats{WordsCount: 0, Minutes: 1, Time: 0},
		},
		{
			name:    "strict words drop indentation",
			content: markdownSample,
			opts:    []Option{WithImages(false), WithStrictWords()},
			want:    Stats{WordsCount: 7, Minutes: 1, Time: 1527},
		},
		{
			name:    "images add whole minutes once rounded",
			content: strings.Repeat("![x](a.png)\n", 10),
			opts:    []Option{WithStrictWords()},
			// 10 images are 75 seconds, which rounds to 1 extra minute.
			want: Stats{WordsCount: 1, Minutes: 1, Time: 75218, ImagesCount: 10, ImagesTime: 75000},
		},
		{
			name:    "long text with many images",
			content: words(1100) + " " + strings.Repeat(`<img src="a.png"> `, 12),
			opts:    []Option{WithStrictWords()},
			// Both halves of every tag hold letters, so 1124 words, then
			// 75+3+3 = 81 seconds of images.
			want: Stats{WordsCount: 1124, Minutes: 5, Time: 326236, ImagesCount: 12, ImagesTime: 81000},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Calculate(tt.content, tt.opts...)
			if err != nil {
				t.Fatalf("Calculate() unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("Calculate() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestCalculate_InvalidWordsPerMinute(t *testing.T) {
	tests := []struct {
		name string
		wpm  float64
	}{
		{name: "zero", wpm: 0},
		{name: "negative", wpm: -275},
		{name: "NaN", wpm: math.NaN()},
		{name: "infinite", wpm: math.Inf(1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Calculate(words(10), WithWordsPerMinute(tt.wpm))
			if !errors.Is(err, ErrInvalidConfiguration) {
				t.Errorf("Calculate() error = %v, want ErrInvalidConfiguration", err)
			}
		})
	}
}

func TestCalculate_MinutesAtLeastOne(t *testing.T) {
	for _, content := range []string{"", " ", "a", words(10), "![x](y)"} {
		got, err := Calculate(content, WithWordsPerMinute(100000))
		if err != nil {
			t.Fatalf("Calculate(%q) unexpected error: %v", content, err)
		}
		if got.Minutes < 1 {
			t.Errorf("Calculate(%q).Minutes = %d, want >= 1", content, got.Minutes)
		}
	}
}

func TestCalculate_WordsRoundTrip(t *testing.T) {
	for _, n := range []int{0, 1, 2, 17, 275, 1000} {
		for _, strict := range []bool{false, true} {
			var opts []Option
			if strict {
				opts = append(opts, WithStrictWords())
			}
			got, err := Calculate(words(n), opts...)
			if err != nil {
				t.Fatalf("Calculate() unexpected error: %v", err)
			}
			if got.WordsCount != n {
				t.Errorf("Calculate(words(%d), strict=%v).WordsCount = %d, want %d", n, strict, got.WordsCount, n)
			}
		}
	}
}

func TestCalculate_FasterReadingNeverSlower(t *testing.T) {
	content := words(640) + "\n![diagram](d.png)\n"
	for _, wpm := range []float64{1, 10, 137.5, 275, 1000} {
		slow, err := Calculate(content, WithWordsPerMinute(wpm))
		if err != nil {
			t.Fatalf("Calculate() unexpected error: %v", err)
		}
		fast, err := Calculate(content, WithWordsPerMinute(wpm*2))
		if err != nil {
			t.Fatalf("Calculate() unexpected error: %v", err)
		}
		if fast.Time > slow.Time {
			t.Errorf("wpm %v: Time = %d, doubled wpm Time = %d, want no increase", wpm, slow.Time, fast.Time)
		}
	}
}

func TestCalculate_MoreImagesNeverFaster(t *testing.T) {
	base := words(120)
	prev := int64(-1)
	for n := 0; n <= 15; n++ {
		got, err := Calculate(base + strings.Repeat("<img>", n))
		if err != nil {
			t.Fatalf("Calculate() unexpected error: %v", err)
		}
		if got.Time < prev {
			t.Errorf("%d images: Time = %d, want >= %d", n, got.Time, prev)
		}
		prev = got.Time
	}
}

func TestCalculate_Idempotent(t *testing.T) {
	content := markdownSample + words(300)
	first, err := Calculate(content)
	if err != nil {
		t.Fatalf("Calculate() unexpected error: %v", err)
	}
	for i := 0; i < 3; i++ {
		again, err := Calculate(content)
		if err != nil {
			t.Fatalf("Calculate() unexpected error: %v", err)
		}
		if again != first {
			t.Errorf("Calculate() = %+v on call %d, want %+v", again, i+2, first)
		}
	}
}

func TestEstimate(t *testing.T) {
	tests := []struct {
		name   string
		words  int
		images int
		opts   []Option
		want   Stats
	}{
		{
			name:  "words only",
			words: 275,
			want:  Stats{WordsCount: 275, Minutes: 1, Time: 60000},
		},
		{
			name:   "images excluded",
			words:  275,
			images: 4,
			opts:   []Option{WithImages(false)},
			want:   Stats{WordsCount: 275, Minutes: 1, Time: 60000},
		},
		{
			name:   "one image",
			words:  550,
			images: 1,
			want:   Stats{WordsCount: 550, Minutes: 2, Time: 132000, ImagesCount: 1, ImagesTime: 12000},
		},
		{
			name:   "negative counts are zero",
			words:  -3,
			images: -1,
			want:   Stats{Minutes: 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Estimate(tt.words, tt.images, tt.opts...)
			if err != nil {
				t.Fatalf("Estimate() unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("Estimate() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestEstimateText(t *testing.T) {
	const (
		text   = "wait - what ... ok"
		markup = `<p>wait - what ... ok</p><img src="a.png">`
	)

	tests := []struct {
		name       string
		opts       []Option
		wantWords  int
		wantImages int
	}{
		{name: "default", wantWords: 5, wantImages: 1},
		{name: "strict words", opts: []Option{WithStrictWords()}, wantWords: 3, wantImages: 1},
		{name: "strict switched off", opts: []Option{WithStrictWords(), WithStrict(false)}, wantWords: 5, wantImages: 1},
		{name: "images excluded", opts: []Option{WithImages(false)}, wantWords: 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := EstimateText(text, markup, tt.opts...)
			if err != nil {
				t.Fatalf("EstimateText() unexpected error: %v", err)
			}
			if got.WordsCount != tt.wantWords || got.ImagesCount != tt.wantImages {
				t.Errorf("EstimateText() = (%d words, %d images), want (%d, %d)",
					got.WordsCount, got.ImagesCount, tt.wantWords, tt.wantImages)
			}
		})
	}

	if _, err := EstimateText(text, markup, WithWordsPerMinute(0)); !errors.Is(err, ErrInvalidConfiguration) {
		t.Errorf("EstimateText() error = %v, want ErrInvalidConfiguration", err)
	}
}

func TestStats_Duration(t *testing.T) {
	s := Stats{Time: 65455}
	if got, want := s.Duration(), 65455*time.Millisecond; got != want {
		t.Errorf("Duration() = %v, want %v", got, want)
	}
}
