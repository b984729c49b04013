package repository

import (
	"context"
	"sync"
	"time"

	"bookmark-analyzer/internal/domain"
)

// MemoryCacheStore is a process-local CacheStore. It backs the engine when no
// database is configured and keeps tests free of I/O.
type MemoryCacheStore struct {
	mu      sync.RWMutex
	entries map[string]domain.CacheEntry
}

// NewMemoryCacheStore creates an empty in-memory store.
func NewMemoryCacheStore() *MemoryCacheStore {
	return &MemoryCacheStore{entries: make(map[string]domain.CacheEntry)}
}

func (s *MemoryCacheStore) Get(_ context.Context, url string) (*domain.CacheEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.entries[url]
	if !ok {
		return nil, nil
	}
	return &entry, nil
}

func (s *MemoryCacheStore) Put(_ context.Context, entry domain.CacheEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[entry.URL] = entry
	return nil
}

func (s *MemoryCacheStore) Delete(_ context.Context, url string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, url)
	return nil
}

func (s *MemoryCacheStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[string]domain.CacheEntry)
	return nil
}

func (s *MemoryCacheStore) PurgeExpired(_ context.Context, cutoff time.Time) (int, error) {
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

var _ domain.CacheStore = (*MemoryCacheStore)(nil)
