package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"bookmark-analyzer/internal/domain"
)

// PostgresCacheStore persists analysis results in a Postgres table, one row
// per URL with the analysis as JSONB.
type PostgresCacheStore struct {
	db *pgxpool.Pool
}

// NewPostgresCacheStore wraps the pool. The schema is created by EnsureSchema.
func NewPostgresCacheStore(db *pgxpool.Pool) *PostgresCacheStore {
	return &PostgresCacheStore{db: db}
}

// EnsureSchema creates the cache table if it does not exist.
func (s *PostgresCacheStore) EnsureSchema(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS analysis_cache (
			url        TEXT PRIMARY KEY,
			analysis   JSONB NOT NULL,
			stored_at  TIMESTAMPTZ NOT NULL
		)
	`
	if _, err := s.db.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to ensure analysis_cache schema: %w", err)
	}
	return nil
}

func (s *PostgresCacheStore) Get(ctx context.Context, url string) (*domain.CacheEntry, error) {
	query := `SELECT analysis, stored_at FROM analysis_cache WHERE url = $1`

	var analysisBytes []byte
	var storedAt time.Time
	err := s.db.QueryRow(ctx, query, url).Scan(&analysisBytes, &storedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read cache entry: %w", err)
	}

	var analysis domain.ContentAnalysis
	if err := json.Unmarshal(analysisBytes, &analysis); err != nil {
		// A corrupt row is treated as absent rather than poisoning reads.
		return nil, nil
	}

	return &domain.CacheEntry{URL: url, Analysis: analysis, StoredAt: storedAt}, nil
}

func (s *PostgresCacheStore) Put(ctx context.Context, entry domain.CacheEntry) error {
	analysisBytes, err := json.Marshal(entry.Analysis)
	if err != nil {
		return fmt.Errorf("failed to marshal analysis: %w", err)
	}

	query := `
		INSERT INTO analysis_cache (url, analysis, stored_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (url) DO UPDATE SET analysis = $2, stored_at = $3
	`
	if _, err := s.db.Exec(ctx, query, entry.URL, analysisBytes, entry.StoredAt); err != nil {
		return fmt.Errorf("failed to write cache entry: %w", err)
	}
	return nil
}

func (s *PostgresCacheStore) Delete(ctx context.Context, url string) error {
	if _, err := s.db.Exec(ctx, `DELETE FROM analysis_cache WHERE url = $1`, url); err != nil {
		return fmt.Errorf("failed to delete cache entry: %w", err)
	}
	return nil
}

func (s *PostgresCacheStore) Clear(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, `TRUNCATE analysis_cache`); err != nil {
		return fmt.Errorf("failed to clear cache: %w", err)
	}
	return nil
}

func (s *PostgresCacheStore) PurgeExpired(ctx context.Context, cutoff time.Time) (int, error) {
	tag, err := s.db.Exec(ctx, `DELETE FROM analysis_cache WHERE stored_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to purge expired cache entries: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

var _ domain.CacheStore = (*PostgresCacheStore)(nil)
