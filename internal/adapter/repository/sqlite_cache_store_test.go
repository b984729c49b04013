package repository_test

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"bookmark-analyzer/internal/adapter/repository"
	"bookmark-analyzer/internal/domain"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestSQLiteCacheStore_Roundtrip(t *testing.T) {
	store, err := repository.NewSQLiteCacheStore(openTestDB(t))
	require.NoError(t, err)
	ctx := context.Background()

	storedAt := time.Now().Truncate(time.Millisecond)
	entry := domain.CacheEntry{
		URL: "https://example.com/a",
		Analysis: domain.ContentAnalysis{
			Summary:    "stored",
			Categories: []domain.Category{domain.CategoryAI},
			Sentiment:  domain.SentimentNeutral,
			Analyzed:   true,
		},
		StoredAt: storedAt,
	}
	require.NoError(t, store.Put(ctx, entry))

	got, err := store.Get(ctx, "https://example.com/a")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "stored", got.Analysis.Summary)
	assert.Equal(t, []domain.Category{domain.CategoryAI}, got.Analysis.Categories)
	assert.True(t, storedAt.Equal(got.StoredAt))
}

func TestSQLiteCacheStore_UpsertReplaces(t *testing.T) {
	store, err := repository.NewSQLiteCacheStore(openTestDB(t))
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, domain.CacheEntry{
		URL:      "https://example.com/a",
		Analysis: domain.ContentAnalysis{Summary: "first"},
		StoredAt: time.Now(),
	}))
	require.NoError(t, store.Put(ctx, domain.CacheEntry{
		URL:      "https://example.com/a",
		Analysis: domain.ContentAnalysis{Summary: "second"},
		StoredAt: time.Now(),
	}))

	got, err := store.Get(ctx, "https://example.com/a")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "second", got.Analysis.Summary)
}

func TestSQLiteCacheStore_MissingAndDelete(t *testing.T) {
	store, err := repository.NewSQLiteCacheStore(openTestDB(t))
	require.NoError(t, err)
	ctx := context.Background()

	got, err := store.Get(ctx, "https://example.com/missing")
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, store.Put(ctx, domain.CacheEntry{URL: "https://example.com/a", StoredAt: time.Now()}))
	require.NoError(t, store.Delete(ctx, "https://example.com/a"))

	got, err = store.Get(ctx, "https://example.com/a")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSQLiteCacheStore_PurgeExpired(t *testing.T) {
	store, err := repository.NewSQLiteCacheStore(openTestDB(t))
	require.NoError(t, err)
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, store.Put(ctx, domain.CacheEntry{URL: "https://example.com/old", StoredAt: now.Add(-48 * time.Hour)}))
	require.NoError(t, store.Put(ctx, domain.CacheEntry{URL: "https://example.com/new", StoredAt: now}))

	purged, err := store.PurgeExpired(ctx, now.Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, purged)

	old, err := store.Get(ctx, "https://example.com/old")
	require.NoError(t, err)
	assert.Nil(t, old)
}

func TestSQLiteCacheStore_Clear(t *testing.T) {
	store, err := repository.NewSQLiteCacheStore(openTestDB(t))
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, domain.CacheEntry{URL: "https://example.com/a", StoredAt: time.Now()}))
	require.NoError(t, store.Clear(ctx))

	got, err := store.Get(ctx, "https://example.com/a")
	require.NoError(t, err)
	assert.Nil(t, got)
}
