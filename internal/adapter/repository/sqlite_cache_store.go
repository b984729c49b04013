package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"bookmark-analyzer/internal/domain"
)

// SQLiteCacheStore persists analysis results in a local SQLite database, the
// natural backend when the engine runs beside a personal bookmark collection.
type SQLiteCacheStore struct {
	db *sql.DB
}

// NewSQLiteCacheStore wraps an opened database and creates the cache table.
func NewSQLiteCacheStore(db *sql.DB) (*SQLiteCacheStore, error) {
	s := &SQLiteCacheStore{db: db}
	if err := s.init(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *SQLiteCacheStore) init() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS analysis_cache (
			url        TEXT PRIMARY KEY,
			analysis   TEXT NOT NULL,
			stored_at  INTEGER NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_analysis_cache_stored_at ON analysis_cache(stored_at);
	`)
	if err != nil {
		return fmt.Errorf("creating cache schema: %w", err)
	}
	return nil
}

func (s *SQLiteCacheStore) Get(ctx context.Context, url string) (*domain.CacheEntry, error) {
	var analysisText string
	var storedAtMillis int64
	err := s.db.QueryRowContext(ctx,
		`SELECT analysis, stored_at FROM analysis_cache WHERE url = ?`, url,
	).Scan(&analysisText, &storedAtMillis)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading cache entry: %w", err)
	}

	var analysis domain.ContentAnalysis
	if err := json.Unmarshal([]byte(analysisText), &analysis); err != nil {
		// Corrupt rows read as absent.
		return nil, nil
	}

	return &domain.CacheEntry{
		URL:      url,
		Analysis: analysis,
		StoredAt: time.UnixMilli(storedAtMillis),
	}, nil
}

func (s *SQLiteCacheStore) Put(ctx context.Context, entry domain.CacheEntry) error {
	analysisBytes, err := json.Marshal(entry.Analysis)
	if err != nil {
		return fmt.Errorf("marshaling analysis: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO analysis_cache (url, analysis, stored_at) VALUES (?, ?, ?)
		ON CONFLICT(url) DO UPDATE SET analysis = excluded.analysis, stored_at = excluded.stored_at
	`, entry.URL, string(analysisBytes), entry.StoredAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("writing cache entry: %w", err)
	}
	return nil
}

func (s *SQLiteCacheStore) Delete(ctx context.Context, url string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM analysis_cache WHERE url = ?`, url); err != nil {
		return fmt.Errorf("deleting cache entry: %w", err)
	}
	return nil
}

func (s *SQLiteCacheStore) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM analysis_cache`); err != nil {
		return fmt.Errorf("clearing cache: %w", err)
	}
	return nil
}

func (s *SQLiteCacheStore) PurgeExpired(ctx context.Context, cutoff time.Time) (int, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM analysis_cache WHERE stored_at < ?`, cutoff.UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("purging expired cache entries: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, nil
	}
	return int(affected), nil
}

var _ domain.CacheStore = (*SQLiteCacheStore)(nil)
