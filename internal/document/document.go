// Package document loads markdown files and their optional YAML front matter.
package document

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/hoanghai1803/mdreadtime/internal/readingtime"
)

const frontMatterDelim = "---"

// FrontMatter holds the per-document settings recognised in a leading YAML
// block. Unknown keys are ignored.
type FrontMatter struct {
	Title          string   `yaml:"title"`
	Tags           []string `yaml:"tags"`
	WordsPerMinute *float64 `yaml:"words_per_minute"`
	IncludeImages  *bool    `yaml:"include_images"`
	StrictWords    *bool    `yaml:"strict_words"`
}

// Document is a markdown file split into front matter and body.
type Document struct {
	Name        string
	Title       string
	FrontMatter FrontMatter
	// Body is the markdown after the front matter. It is what gets
	// estimated.
	Body string
}

// Load reads and parses the markdown file at path.
func Load(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening document: %w", err)
	}
	defer f.Close()

	return Parse(f, filepath.Base(path))
}

// Parse reads a markdown document from r. name is used as the title when the
// front matter has none, without its .md or .markdown extension.
func Parse(r io.Reader, name string) (*Document, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading document %q: %w", name, err)
	}

	doc := &Document{Name: name, Body: string(src)}

	block, body, ok := splitFrontMatter(src)
	if ok {
		if err := yaml.Unmarshal(block, &doc.FrontMatter); err != nil {
			return nil, fmt.Errorf("parsing front matter of %q: %w", name, err)
		}
		doc.Body = string(body)
	}

	doc.Title = doc.FrontMatter.Title
	if doc.Title == "" {
		doc.Title = strings.TrimSuffix(strings.TrimSuffix(name, ".md"), ".markdown")
	}
	return doc, nil
}

// Options returns base followed by the overrides from the front matter, so
// per-document settings win over the caller's defaults.
func (d *Document) Options(base ...readingtime.Option) []readingtime.Option {
	opts := append([]readingtime.Option(nil), base...)
	fm := d.FrontMatter
	if fm.WordsPerMinute != nil {
		opts = append(opts, readingtime.WithWordsPerMinute(*fm.WordsPerMinute))
	}
	if fm.IncludeImages != nil {
		opts = append(opts, readingtime.WithImages(*fm.IncludeImages))
	}
	if fm.StrictWords != nil {
		opts = append(opts, readingtime.WithStrict(*fm.StrictWords))
	}
	return opts
}

// Estimate calculates the reading time of the document body.
func (d *Document) Estimate(base ...readingtime.Option) (readingtime.Stats, error) {
	stats, err := readingtime.Calculate(d.Body, d.Options(base...)...)
	if err != nil {
		return readingtime.Stats{}, fmt.Errorf("estimating %q: %w", d.Name, err)
	}
	return stats, nil
}

// splitFrontMatter separates a leading "---" delimited block from the rest of
// src. The opening delimiter must be the first line. ok is false when there is
// no complete block.
func splitFrontMatter(src []byte) (block, body []byte, ok bool) {
	src = bytes.TrimPrefix(src, []byte("\ufeff"))

	first, rest, found := bytes.Cut(src, []byte("\n"))
	if !found || string(bytes.TrimRight(first, " \r")) != frontMatterDelim {
		return nil, nil, false
	}

	var start int
	for start < len(rest) {
		end := bytes.IndexByte(rest[start:], '\n')
		var line []byte
		next := len(rest)
		if end >= 0 {
			line = rest[start : start+end]
			next = start + end + 1
		} else {
			line = rest[start:]
		}

		if string(bytes.TrimRight(line, " \r")) == frontMatterDelim {
			return rest[:start], rest[next:], true
		}
		start = next
	}
	return nil, nil, false
}
