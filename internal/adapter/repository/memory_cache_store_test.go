package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookmark-analyzer/internal/adapter/repository"
	"bookmark-analyzer/internal/domain"
)

func TestMemoryCacheStore_Roundtrip(t *testing.T) {
	store := repository.NewMemoryCacheStore()
	ctx := context.Background()

	entry := domain.CacheEntry{
		URL:      "https://example.com/a",
		Analysis: domain.ContentAnalysis{Summary: "stored", Analyzed: true},
		StoredAt: time.Now(),
	}
	require.NoError(t, store.Put(ctx, entry))

	got, err := store.Get(ctx, "https://example.com/a")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "stored", got.Analysis.Summary)

	missing, err := store.Get(ctx, "https://example.com/missing")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestMemoryCacheStore_Delete(t *testing.T) {
	store := repository.NewMemoryCacheStore()
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, domain.CacheEntry{URL: "https://example.com/a"}))
	require.NoError(t, store.Delete(ctx, "https://example.com/a"))

	got, err := store.Get(ctx, "https://example.com/a")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestMemoryCacheStore_Clear(t *testing.T) {
	store := repository.NewMemoryCacheStore()
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, domain.CacheEntry{URL: "https://example.com/a"}))
	require.NoError(t, store.Put(ctx, domain.CacheEntry{URL: "https://example.com/b"}))
	require.NoError(t, store.Clear(ctx))

	got, err := store.Get(ctx, "https://example.com/a")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestMemoryCacheStore_PurgeExpired(t *testing.T) {
	store := repository.NewMemoryCacheStore()
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

	fresh, err := store.Get(ctx, "https://example.com/new")
	require.NoError(t, err)
	assert.NotNil(t, fresh)
}
