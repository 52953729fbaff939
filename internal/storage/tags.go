package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/hoanghai1803/mdreadtime/internal/models"
)

// execQuerier is satisfied by *sql.DB and *sql.Tx.
type execQuerier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func normalizeTag(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// AddTag attaches a tag to an estimate. The tag is created if it doesn't exist
// yet, and attaching it twice is a no-op. Returns ErrNotFound if the estimate
// doesn't exist.
func (s *Store) AddTag(ctx context.Context, estimateID int64, tagName string) error {
	var exists bool
	if err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM estimates WHERE id = ?)`, estimateID,
	).Scan(&exists); err != nil {
		return fmt.Errorf("checking estimate: %w", err)
	}
	if !exists {
		return ErrNotFound
	}

	return attachTag(ctx, s.db, estimateID, tagName)
}

func attachTag(ctx context.Context, q execQuerier, estimateID int64, tagName string) error {
	tagName = normalizeTag(tagName)
	if tagName == "" {
		return fmt.Errorf("%w: tag name cannot be empty", ErrInvalidTag)
	}

	if _, err := q.ExecContext(ctx,
		`INSERT OR IGNORE INTO tags (name) VALUES (?)`, tagName,
	); err != nil {
		return fmt.Errorf("creating tag: %w", err)
	}

	var tagID int64
	if err := q.QueryRowContext(ctx,
		`SELECT id FROM tags WHERE name = ?`, tagName,
	).Scan(&tagID); err != nil {
		return fmt.Errorf("getting tag id: %w", err)
	}

	if _, err := q.ExecContext(ctx,
		`INSERT OR IGNORE INTO estimate_tags (estimate_id, tag_id) VALUES (?, ?)`,
		estimateID, tagID,
	); err != nil {
		return fmt.Errorf("linking tag to estimate: %w", err)
	}
	return nil
}

// RemoveTag detaches a tag from an estimate. A tag no longer used by any
// estimate is deleted. Returns ErrNotFound if the tag is not attached.
func (s *Store) RemoveTag(ctx context.Context, estimateID int64, tagName string) error {
	tagName = normalizeTag(tagName)

	var tagID int64
	if err := s.db.QueryRowContext(ctx,
		`SELECT id FROM tags WHERE name = ?`, tagName,
	).Scan(&tagID); err != nil {
		return ErrNotFound
	}

	res, err := s.db.ExecContext(ctx,
		`DELETE FROM estimate_tags WHERE estimate_id = ? AND tag_id = ?`,
		estimateID, tagID,
	)
	if err != nil {
		return fmt.Errorf("removing tag from estimate: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}

	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM tags WHERE id = ? AND NOT EXISTS (
			SELECT 1 FROM estimate_tags WHERE tag_id = ?
		)`, tagID, tagID,
	); err != nil {
		return fmt.Errorf("cleaning up unused tag: %w", err)
	}
	return nil
}

// GetAllTags returns the names of tags attached to at least one estimate,
// ordered alphabetically.
func (s *Store) GetAllTags(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT t.name FROM tags t
		 WHERE EXISTS (SELECT 1 FROM estimate_tags et WHERE et.tag_id = t.id)
		 ORDER BY t.name`)
	if err != nil {
		return nil, fmt.Errorf("querying tags: %w", err)
	}
	defer rows.Close()

	tags := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scanning tag: %w", err)
		}
		tags = append(tags, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating tags: %w", err)
	}
	return tags, nil
}

// loadTags sets the Tags field of every estimate, to an empty slice when it
// has none.
func (s *Store) loadTags(ctx context.Context, estimates []models.Estimate) error {
	if len(estimates) == 0 {
		return nil
	}

	ids := make([]string, len(estimates))
	args := make([]any, len(estimates))
	for i, e := range estimates {
		ids[i] = "?"
		args[i] = e.ID
	}

	query := fmt.Sprintf(
		`SELECT et.estimate_id, t.name
		 FROM estimate_tags et
		 JOIN tags t ON t.id = et.tag_id
		 WHERE et.estimate_id IN (%s)
		 ORDER BY t.name`,
		strings.Join(ids, ","),
	)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("loading tags: %w", err)
	}
	defer rows.Close()

	tagMap := make(map[int64][]string)
	for rows.Next() {
		var (
			estimateID int64
			name       string
		)
		if err := rows.Scan(&estimateID, &name); err != nil {
			return fmt.Errorf("scanning tag row: %w", err)
		}
		tagMap[estimateID] = append(tagMap[estimateID], name)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterating tag rows: %w", err)
	}

	for i := range estimates {
		if tags, ok := tagMap[estimates[i].ID]; ok {
			estimates[i].Tags = tags
		} else {
			estimates[i].Tags = []string{}
		}
	}
	return nil
}
