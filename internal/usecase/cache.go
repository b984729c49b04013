package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"bookmark-analyzer/internal/domain"
)

// DefaultCacheTTL is how long a stored analysis stays valid.
const DefaultCacheTTL = 7 * 24 * time.Hour

const hotCacheSize = 512

// AnalysisCache layers an in-process expirable LRU over a persistent
// CacheStore. The TTL is enforced here on read: stale entries are treated as
// absent and evicted from the store. Store failures degrade to a cache miss,
// never to an analysis failure.
type AnalysisCache struct {
	store  domain.CacheStore
	hot    *expirable.LRU[string, domain.CacheEntry]
	ttl    time.Duration
	now    func() time.Time
	logger *slog.Logger
}

// NewAnalysisCache wires the cache over the given store.
func NewAnalysisCache(store domain.CacheStore, ttl time.Duration, logger *slog.Logger) *AnalysisCache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &AnalysisCache{
		store:  store,
		hot:    expirable.NewLRU[string, domain.CacheEntry](hotCacheSize, nil, ttl),
		ttl:    ttl,
		now:    time.Now,
		logger: logger,
	}
}

// Get returns the cached analysis for url, or nil when missing or expired.
// Expired store entries are deleted on the way out.
func (c *AnalysisCache) Get(ctx context.Context, url string) *domain.ContentAnalysis {
	if entry, ok := c.hot.Get(url); ok {
		if c.fresh(entry) {
			analysis := entry.Analysis
			return &analysis
		}
		c.hot.Remove(url)
	}

	entry, err := c.store.Get(ctx, url)
	if err != nil {
		c.logger.Warn("cache_read_failed", slog.String("url", url), slog.String("error", err.Error()))
		return nil
	}
	if entry == nil {
		return nil
	}
	if !c.fresh(*entry) {
		if err := c.store.Delete(ctx, url); err != nil {
			c.logger.Warn("cache_evict_failed", slog.String("url", url), slog.String("error", err.Error()))
		}
		return nil
	}

	c.hot.Add(url, *entry)
	analysis := entry.Analysis
	return &analysis
}

// Put stores the analysis for url, stamping the current time.
func (c *AnalysisCache) Put(ctx context.Context, url string, analysis domain.ContentAnalysis) {
	entry := domain.CacheEntry{
		URL:      url,
		Analysis: analysis,
		StoredAt: c.now(),
	}
	c.hot.Add(url, entry)
	if err := c.store.Put(ctx, entry); err != nil {
		c.logger.Warn("cache_write_failed", slog.String("url", url), slog.String("error", err.Error()))
	}
}

// Clear drops the hot layer and empties the store.
func (c *AnalysisCache) Clear(ctx context.Context) error {
	c.hot.Purge()
	return c.store.Clear(ctx)
}

// TTL exposes the configured time-to-live.
func (c *AnalysisCache) TTL() time.Duration { return c.ttl }

func (c *AnalysisCache) fresh(entry domain.CacheEntry) bool {
	return c.now().Sub(entry.StoredAt) <= c.ttl
}
