package storage

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/hoanghai1803/mdreadtime/internal/models"
)

// SearchEstimates performs a full-text search over estimate titles and
// sources using FTS5. Every word of query must match, as a prefix, in either
// column. Results are ordered by relevance.
func (s *Store) SearchEstimates(ctx context.Context, query string, limit int) ([]models.Estimate, error) {
	match := ftsQuery(query)
	if match == "" {
		return []models.Estimate{}, nil
	}
	if limit <= 0 {
		limit = defaultListLimit
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+estimateColumns+`
		 FROM estimates_fts
		 JOIN estimates e ON e.id = estimates_fts.rowid
		 WHERE estimates_fts MATCH ?
		 ORDER BY estimates_fts.rank
		 LIMIT ?`,
		match, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("searching estimates: %w", err)
	}
	return s.collectEstimates(ctx, rows)
}

// ftsQuery turns free text into an FTS5 query of quoted prefix terms, so
// that operators in user input are matched literally. Words without a letter
// or digit are dropped since they produce no tokens.
func ftsQuery(query string) string {
	fields := strings.Fields(query)
	terms := make([]string, 0, len(fields))
	for _, f := range fields {
		if !strings.ContainsFunc(f, isWordRune) {
			continue
		}
		f = strings.ReplaceAll(f, `"`, `""`)
		terms = append(terms, `"`+f+`"*`)
	}
	return strings.Join(terms, " ")
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}
