package domain

import (
	"context"
	"time"
)

// CacheStore persists analysis results keyed by URL. Implementations may be
// backed by anything (database, file, memory); the cache layer on top applies
// the TTL, so stores only need faithful reads and last-write-wins writes.
type CacheStore interface {
	// Get returns the entry for url, or nil when absent.
	Get(ctx context.Context, url string) (*CacheEntry, error)
	// Put stores the entry, overwriting any previous value for its URL.
	Put(ctx context.Context, entry CacheEntry) error
	// Delete removes the entry for url if present.
	Delete(ctx context.Context, url string) error
	// Clear removes all entries.
	Clear(ctx context.Context) error
	// PurgeExpired removes entries stored before cutoff and reports how many.
	PurgeExpired(ctx context.Context, cutoff time.Time) (int, error)
}
