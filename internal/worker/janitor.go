package worker

import (
	"context"
	"log/slog"
	"time"

	"bookmark-analyzer/internal/domain"
)

const sweepTimeout = 30 * time.Second

// CacheJanitor periodically removes expired entries from the cache store so
// the database does not grow without bound. Reads already ignore stale
// entries; the janitor just reclaims the space.
type CacheJanitor struct {
	store    domain.CacheStore
	interval time.Duration
	ttl      time.Duration
	logger   *slog.Logger
	stopChan chan struct{}
}

// NewCacheJanitor builds a janitor sweeping every interval for entries older
// than ttl.
func NewCacheJanitor(store domain.CacheStore, interval, ttl time.Duration, logger *slog.Logger) *CacheJanitor {
	return &CacheJanitor{
		store:    store,
		interval: interval,
		ttl:      ttl,
		logger:   logger,
		stopChan: make(chan struct{}),
	}
}

func (j *CacheJanitor) Start() {
	j.logger.Info("Starting CacheJanitor", "interval", j.interval.String())
	go j.run()
}

func (j *CacheJanitor) Stop() {
	j.logger.Info("Stopping CacheJanitor")
	close(j.stopChan)
}

func (j *CacheJanitor) run() {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-j.stopChan:
			return
		case <-ticker.C:
			j.sweep()
		}
	}
}

func (j *CacheJanitor) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
	defer cancel()

	purged, err := j.store.PurgeExpired(ctx, time.Now().Add(-j.ttl))
	if err != nil {
		j.logger.Error("Cache sweep failed", "error", err)
		return
	}
	if purged > 0 {
		j.logger.Info("Cache sweep completed", "purged", purged)
	}
}
