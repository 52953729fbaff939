package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/hoanghai1803/mdreadtime/internal/models"
)

const sourceColumns = `id, name, feed_url, is_active, created_at`

// AddSource saves a feed. An empty name falls back to the feed URL. Returns
// ErrDuplicateSource if the URL is already saved.
func (s *Store) AddSource(ctx context.Context, name, feedURL string) (*models.FeedSource, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = feedURL
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO feed_sources (name, feed_url) VALUES (?, ?)
		 ON CONFLICT (feed_url) DO NOTHING`,
		name, feedURL,
	)
	if err != nil {
		return nil, fmt.Errorf("inserting source: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("checking rows affected for source: %w", err)
	}
	if n == 0 {
		return nil, ErrDuplicateSource
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting source id: %w", err)
	}
	return s.GetSource(ctx, id)
}

// GetSource returns the source with the given ID, or ErrNotFound.
func (s *Store) GetSource(ctx context.Context, id int64) (*models.FeedSource, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+sourceColumns+` FROM feed_sources WHERE id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("querying source %d: %w", id, err)
	}
	defer rows.Close()

	sources, err := scanSources(rows)
	if err != nil {
		return nil, err
	}
	if len(sources) == 0 {
		return nil, ErrNotFound
	}
	return &sources[0], nil
}

// GetAllSources returns all feed sources regardless of active status,
// ordered by name.
func (s *Store) GetAllSources(ctx context.Context) ([]models.FeedSource, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+sourceColumns+` FROM feed_sources ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("querying all sources: %w", err)
	}
	defer rows.Close()

	return scanSources(rows)
}

// GetActiveSources returns the feed sources where is_active = 1, ordered by
// name.
func (s *Store) GetActiveSources(ctx context.Context) ([]models.FeedSource, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+sourceColumns+` FROM feed_sources WHERE is_active = 1 ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("querying active sources: %w", err)
	}
	defer rows.Close()

	return scanSources(rows)
}

// ToggleSource sets the is_active flag for the given source ID.
// It returns ErrNotFound if no source matches the given ID.
func (s *Store) ToggleSource(ctx context.Context, id int64, active bool) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE feed_sources SET is_active = ? WHERE id = ?`, active, id)
	if err != nil {
		return fmt.Errorf("toggling source %d: %w", id, err)
	}
	return expectOneRow(res, "source", id)
}

// DeleteSource removes a saved feed. It returns ErrNotFound if no source
// matches the given ID.
func (s *Store) DeleteSource(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM feed_sources WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting source %d: %w", id, err)
	}
	return expectOneRow(res, "source", id)
}

// expectOneRow maps an update or delete that touched no rows to ErrNotFound.
func expectOneRow(res sql.Result, kind string, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected for %s %d: %w", kind, id, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// scanSources reads all rows from a feed_sources query into a slice.
func scanSources(rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
},
) ([]models.FeedSource, error) {
	sources := []models.FeedSource{}
	for rows.Next() {
		var (
			src       models.FeedSource
			createdAt string
		)
		if err := rows.Scan(&src.ID, &src.Name, &src.FeedURL, &src.IsActive, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning source row: %w", err)
		}
		src.CreatedAt = parseTime(createdAt)
		sources = append(sources, src)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating source rows: %w", err)
	}
	return sources, nil
}
