package readingtime

import (
	"regexp"
	"strings"
)

const (
	// imageFactorSeconds is the time spent on the first image.
	imageFactorSeconds = 12
	// imageFactorFloor is the time spent on the tenth image and every image
	// after it.
	imageFactorFloor = 3
)

var (
	// wordPattern matches a run of ASCII letters or digits.
	wordPattern = regexp.MustCompile(`[a-zA-Z0-9]+`)

	// imagePattern matches a markdown image, ![alt](file "optional title"),
	// or the start of an HTML <img tag.
	imagePattern = regexp.MustCompile(`!\[[^\]]*\]\(.*?(?:".*")?\)|<img`)
)

// CountWords returns the number of space-delimited tokens in content.
// Only the space character separates tokens; tabs and newlines do not.
// Empty tokens count too, so " " is 2 words and "a  b" is 3. Empty content
// is the one exception and counts as 0.
func CountWords(content string) int {
	return countWords(content, false)
}

func countWords(content string, strict bool) int {
	if content == "" {
		return 0
	}

	tokens := strings.Split(content, " ")
	if !strict {
		return len(tokens)
	}

	n := 0
	for _, tok := range tokens {
		if wordPattern.MatchString(tok) {
			n++
		}
	}
	return n
}

// CountImages returns the number of markdown images and <img tags in
// content.
func CountImages(content string) int {
	if content == "" {
		return 0
	}
	return len(imagePattern.FindAllStringIndex(content, -1))
}

// ImageSeconds returns the reading time in seconds for n images: 12 seconds
// for the first, one second less for each of the next nine, and 3 seconds for
// every image after the tenth.
func ImageSeconds(n int) int {
	total := 0
	factor := imageFactorSeconds
	for i := 0; i < n; i++ {
		total += factor
		if factor > imageFactorFloor {
			factor--
		}
	}
	return total
}
