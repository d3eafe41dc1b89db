package storage

import (
	"context"

	"github.com/fraud-signal-engine/internal/detection"
	"github.com/fraud-signal-engine/internal/logging"
)

// CachedReportHistory is a read-through Redis cache in front of a report-count lookup.
// Cache failures are logged and bypassed; only backend failures reach the caller.
// The engine never writes reports, so a cached count is refreshed only by
// its TTL expiring.
type CachedReportHistory struct {
	backend detection.ReportHistoryLookup
	cache   *CacheService
}

// NewCachedReportHistory wraps backend with cache
func NewCachedReportHistory(backend detection.ReportHistoryLookup, cache *CacheService) *CachedReportHistory {
	return &CachedReportHistory{backend: backend, cache: cache}
}

// ReportCount returns the cached count for address, loading it from the backend on a miss
func (c *CachedReportHistory) ReportCount(ctx context.Context, address string) (int, error) {
	key := c.cache.GenerateReportsKey(address)
	log := logging.FromContext(ctx).WithField("cacheKey", key)

	var count int
	found, err := c.cache.Get(ctx, key, &count)
	if err != nil {
		log.WithError(err).Warn("Report count cache read failed")
	} else if found {
		return count, nil
	}

	count, err = c.backend.ReportCount(ctx, address)
	if err != nil {
		return 0, err
	}

	if err := c.cache.Set(ctx, key, count); err != nil {
		log.WithError(err).Warn("Report count cache write failed")
	}
	return count, nil
}
