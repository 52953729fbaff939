package storage

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"errors"
	"fmt"

	"github.com/hoanghai1803/mdreadtime/internal/models"
)

const defaultListLimit = 50

// estimateColumns selects a full row from estimates aliased as e.
const estimateColumns = `e.id, e.title, e.source, e.content_hash, e.words_per_minute, e.include_images,
	e.strict_words, e.words_count, e.images_count, e.time_ms, e.minutes, e.created_at`

// EstimateKey identifies an estimate by its source, its content and the
// settings that produced it. Source keeps a hashed URL from answering for
// pasted content that happens to spell the same URL.
type EstimateKey struct {
	Source         string
	ContentHash    string
	WordsPerMinute float64
	IncludeImages  bool
	StrictWords    bool
}

// HashContent returns the SHA-256 hex digest used to recognise content that
// was already estimated.
func HashContent(content string) string {
	h := sha256.Sum256([]byte(content))
	return fmt.Sprintf("%x", h)
}

// SaveEstimate inserts an estimate with its tags and returns its new ID.
// CreatedAt is set by the database.
func (s *Store) SaveEstimate(ctx context.Context, e *models.Estimate) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	res, err := tx.ExecContext(ctx,
		`INSERT INTO estimates (title, source, content_hash, words_per_minute, include_images,
			strict_words, words_count, images_count, time_ms, minutes)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.Title, e.Source, e.ContentHash, e.WordsPerMinute, e.IncludeImages,
		e.StrictWords, e.WordsCount, e.ImagesCount, e.TimeMS, e.Minutes,
	)
	if err != nil {
		return 0, fmt.Errorf("inserting estimate: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("getting estimate id: %w", err)
	}

	for _, tag := range e.Tags {
		if err := attachTag(ctx, tx, id, tag); err != nil {
			return 0, err
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing estimate: %w", err)
	}
	return id, nil
}

// GetEstimate returns the estimate with the given ID.
// Returns nil, ErrNotFound if no matching row exists.
func (s *Store) GetEstimate(ctx context.Context, id int64) (*models.Estimate, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+estimateColumns+` FROM estimates e WHERE e.id = ?`, id)

	e, err := scanEstimate(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("getting estimate %d: %w", id, err)
	}
	return s.withTags(ctx, e)
}

// FindEstimate returns the most recent estimate matching key.
// Returns nil, ErrNotFound on a miss.
func (s *Store) FindEstimate(ctx context.Context, key EstimateKey) (*models.Estimate, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+estimateColumns+` FROM estimates e
		 WHERE e.source = ? AND e.content_hash = ? AND e.words_per_minute = ?
		   AND e.include_images = ? AND e.strict_words = ?
		 ORDER BY e.id DESC LIMIT 1`,
		key.Source, key.ContentHash, key.WordsPerMinute, key.IncludeImages, key.StrictWords,
	)

	e, err := scanEstimate(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("finding estimate: %w", err)
	}
	return s.withTags(ctx, e)
}

// ListEstimates returns up to limit estimates, newest first. A limit of zero
// or less returns the 50 most recent.
func (s *Store) ListEstimates(ctx context.Context, limit int) ([]models.Estimate, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+estimateColumns+` FROM estimates e ORDER BY e.id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing estimates: %w", err)
	}
	return s.collectEstimates(ctx, rows)
}

// ListEstimatesByTag returns up to limit estimates carrying tag, newest first.
func (s *Store) ListEstimatesByTag(ctx context.Context, tag string, limit int) ([]models.Estimate, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+estimateColumns+` FROM estimates e
		 JOIN estimate_tags et ON et.estimate_id = e.id
		 JOIN tags t ON t.id = et.tag_id
		 WHERE t.name = ?
		 ORDER BY e.id DESC LIMIT ?`,
		normalizeTag(tag), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("listing estimates by tag: %w", err)
	}
	return s.collectEstimates(ctx, rows)
}

// DeleteEstimate removes the estimate with the given ID.
// Returns ErrNotFound if no matching row exists.
func (s *Store) DeleteEstimate(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM estimates WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting estimate %d: %w", id, err)
	}
	return expectOneRow(res, "estimate", id)
}

// EstimateTotals aggregates every stored estimate.
func (s *Store) EstimateTotals(ctx context.Context) (*models.EstimateTotals, error) {
	var totals models.EstimateTotals
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(e.words_count), 0), COALESCE(SUM(e.time_ms), 0),
			COALESCE(AVG(e.minutes), 0)
		 FROM estimates e`,
	).Scan(&totals.Count, &totals.TotalWords, &totals.TotalTimeMS, &totals.AverageMinutes)
	if err != nil {
		return nil, fmt.Errorf("aggregating estimates: %w", err)
	}
	return &totals, nil
}

// collectEstimates scans and closes rows, then attaches tags. The result is
// never nil.
func (s *Store) collectEstimates(ctx context.Context, rows *sql.Rows) ([]models.Estimate, error) {
	defer rows.Close()

	estimates := []models.Estimate{}
	for rows.Next() {
		e, err := scanEstimate(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning estimate: %w", err)
		}
		estimates = append(estimates, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating estimates: %w", err)
	}
	// Release the connection before loading tags.
	rows.Close()

	if err := s.loadTags(ctx, estimates); err != nil {
		return nil, err
	}
	return estimates, nil
}

func (s *Store) withTags(ctx context.Context, e *models.Estimate) (*models.Estimate, error) {
	one := []models.Estimate{*e}
	if err := s.loadTags(ctx, one); err != nil {
		return nil, err
	}
	return &one[0], nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanEstimate(sc rowScanner) (*models.Estimate, error) {
	var (
		e         models.Estimate
		createdAt string
	)
	if err := sc.Scan(
		&e.ID, &e.Title, &e.Source, &e.ContentHash, &e.WordsPerMinute, &e.IncludeImages,
		&e.StrictWords, &e.WordsCount, &e.ImagesCount, &e.TimeMS, &e.Minutes, &createdAt,
	); err != nil {
		return nil, err
	}
	e.CreatedAt = parseTime(createdAt)
	return &e, nil
}
