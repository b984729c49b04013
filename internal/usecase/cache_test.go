package usecase_test

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookmark-analyzer/internal/domain"
	"bookmark-analyzer/internal/usecase"
)

// fakeStore is an in-memory CacheStore with injectable failures, shared by the
// cache and orchestrator tests.
type fakeStore struct {
	mu      sync.Mutex
	entries map[string]domain.CacheEntry
	getErr  error
	putErr  error
	deleted []string
	cleared bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{entries: make(map[string]domain.CacheEntry)}
}

func (s *fakeStore) Get(_ context.Context, url string) (*domain.CacheEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getErr != nil {
		return nil, s.getErr
	}
	entry, ok := s.entries[url]
	if !ok {
		return nil, nil
	}
	return &entry, nil
}

func (s *fakeStore) Put(_ context.Context, entry domain.CacheEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.putErr != nil {
		return s.putErr
	}
	s.entries[entry.URL] = entry
	return nil
}

func (s *fakeStore) Delete(_ context.Context, url string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, url)
	s.deleted = append(s.deleted, url)
	return nil
}

func (s *fakeStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[string]domain.CacheEntry)
	s.cleared = true
	return nil
}

func (s *fakeStore) PurgeExpired(_ context.Context, cutoff time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	purged := 0
	for url, entry := range s.entries {
		if entry.StoredAt.Before(cutoff) {
			delete(s.entries, url)
			purged++
		}
	}
	return purged, nil
}

var _ domain.CacheStore = (*fakeStore)(nil)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestAnalysisCache_PutThenGet(t *testing.T) {
	store := newFakeStore()
	cache := usecase.NewAnalysisCache(store, usecase.DefaultCacheTTL, discardLogger())

	analysis := domain.ContentAnalysis{Summary: "cached summary", Analyzed: true}
	cache.Put(context.Background(), "https://example.com/a", analysis)

	got := cache.Get(context.Background(), "https://example.com/a")
	require.NotNil(t, got)
	assert.Equal(t, "cached summary", got.Summary)

	entry, ok := store.entries["https://example.com/a"]
	require.True(t, ok)
	assert.WithinDuration(t, time.Now(), entry.StoredAt, time.Minute)
}

func TestAnalysisCache_MissWhenAbsent(t *testing.T) {
	cache := usecase.NewAnalysisCache(newFakeStore(), usecase.DefaultCacheTTL, discardLogger())

	assert.Nil(t, cache.Get(context.Background(), "https://example.com/missing"))
}

func TestAnalysisCache_StaleEntryEvicted(t *testing.T) {
	store := newFakeStore()
	store.entries["https://example.com/old"] = domain.CacheEntry{
		URL:      "https://example.com/old",
		Analysis: domain.ContentAnalysis{Summary: "stale"},
		StoredAt: time.Now().Add(-8 * 24 * time.Hour),
	}
	cache := usecase.NewAnalysisCache(store, usecase.DefaultCacheTTL, discardLogger())

	assert.Nil(t, cache.Get(context.Background(), "https://example.com/old"))
	assert.Contains(t, store.deleted, "https://example.com/old")
}

func TestAnalysisCache_FreshStoreEntryServed(t *testing.T) {
	store := newFakeStore()
	store.entries["https://example.com/warm"] = domain.CacheEntry{
		URL:      "https://example.com/warm",
		Analysis: domain.ContentAnalysis{Summary: "still good"},
		StoredAt: time.Now().Add(-time.Hour),
	}
	cache := usecase.NewAnalysisCache(store, usecase.DefaultCacheTTL, discardLogger())

	got := cache.Get(context.Background(), "https://example.com/warm")
	require.NotNil(t, got)
	assert.Equal(t, "still good", got.Summary)
}

func TestAnalysisCache_StoreErrorIsAMiss(t *testing.T) {
	store := newFakeStore()
	store.getErr = assert.AnError
	cache := usecase.NewAnalysisCache(store, usecase.DefaultCacheTTL, discardLogger())

	assert.Nil(t, cache.Get(context.Background(), "https://example.com/x"))
}

func TestAnalysisCache_Clear(t *testing.T) {
	store := newFakeStore()
	cache := usecase.NewAnalysisCache(store, usecase.DefaultCacheTTL, discardLogger())
	cache.Put(context.Background(), "https://example.com/a", domain.ContentAnalysis{Summary: "x"})

	require.NoError(t, cache.Clear(context.Background()))
	assert.True(t, store.cleared)
	assert.Nil(t, cache.Get(context.Background(), "https://example.com/a"))
}

func TestAnalysisCache_ZeroTTLFallsBackToDefault(t *testing.T) {
	cache := usecase.NewAnalysisCache(newFakeStore(), 0, discardLogger())
	assert.Equal(t, usecase.DefaultCacheTTL, cache.TTL())
}
