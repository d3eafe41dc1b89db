package acquisition

import (
	"context"
	"fmt"
	"time"

	apperrors "github.com/fraud-signal-engine/internal/errors"
	"github.com/fraud-signal-engine/internal/metrics"
	"github.com/fraud-signal-engine/internal/source"
	"github.com/fraud-signal-engine/internal/types"
)

// Event names emitted during resolution
const (
	EventSourceAttempt    = "source_attempt"
	EventSourceSuccess    = "source_success"
	EventSourceFailure    = "source_failure"
	EventFallbackUsed     = "fallback_used"
	EventCacheHit         = "cache_hit"
	EventStaleCacheServed = "stale_cache_served"
	EventNoDataAvailable  = "no_data_available"
)

// EventLogger receives structured acquisition events
type EventLogger interface {
	Event(name string, fields map[string]interface{})
	WarnEvent(name string, fields map[string]interface{})
}

type nopEvents struct{}

func (nopEvents) Event(string, map[string]interface{})     {}
func (nopEvents) WarnEvent(string, map[string]interface{}) {}

// Resolution is the outcome of one pass over the fallback chain.
// Retain is set when Snapshot should replace the retained snapshot.
type Resolution struct {
	Snapshot *types.TransactionSnapshot
	Retain   bool
}

// ResolveInput carries everything a resolution pass depends on
type ResolveInput struct {
	Sources      []source.Client // live sources in fallback order
	Backup       source.Client   // may be nil
	Retained     *types.TransactionSnapshot
	Now          time.Time
	MaxStaleness time.Duration // 0 means a retained snapshot never expires
	Events       EventLogger
}

// Resolve walks the fallback chain: live sources in order, then the backup
// file when no usable snapshot is retained, then the retained snapshot as
// stale cache, then an empty snapshot. It never returns an error.
func Resolve(ctx context.Context, in ResolveInput) Resolution {
	events := in.Events
	if events == nil {
		events = nopEvents{}
	}

	var failed []string

	for _, src := range in.Sources {
		if records, ok := attempt(ctx, src, events); ok {
			noteFallback(events, failed, src.Kind())
			return Resolution{Snapshot: freshSnapshot(records, src.Kind(), in.Now), Retain: true}
		}
		failed = append(failed, src.Name())
	}

	usable := in.Retained != nil && withinStaleness(in.Retained, in.Now, in.MaxStaleness)

	if !usable && in.Backup != nil {
		if records, ok := attempt(ctx, in.Backup, events); ok {
			noteFallback(events, failed, types.SourceBackupFile)
			return Resolution{Snapshot: freshSnapshot(records, types.SourceBackupFile, in.Now), Retain: true}
		}
		failed = append(failed, in.Backup.Name())
	}

	if usable {
		age := in.Now.Sub(in.Retained.FetchedAt)
		stale := *in.Retained
		stale.SourceUsed = types.SourceStaleCache
		stale.Degraded = true
		stale.Warning = fmt.Sprintf("all sources failed; serving %s snapshot fetched %s ago", in.Retained.SourceUsed, age.Truncate(time.Second))

		noteFallback(events, failed, types.SourceStaleCache)
		events.WarnEvent(EventStaleCacheServed, map[string]interface{}{
			"originalSource": string(in.Retained.SourceUsed),
			"fetchedAt":      in.Retained.FetchedAt.UTC().Format(time.RFC3339),
			"ageSeconds":     int64(age.Seconds()),
			"records":        len(stale.Transactions),
		})
		metrics.SnapshotResolutionsTotal.WithLabelValues(string(types.SourceStaleCache)).Inc()
		return Resolution{Snapshot: &stale}
	}

	noData := apperrors.NewNoDataAvailableError()
	fields := map[string]interface{}{
		"failedSources": failed,
		"error":         noData.Error(),
	}
	if in.Retained != nil {
		fields["expiredSnapshotAt"] = in.Retained.FetchedAt.UTC().Format(time.RFC3339)
	}
	events.WarnEvent(EventNoDataAvailable, fields)
	metrics.SnapshotResolutionsTotal.WithLabelValues(string(types.SourceNone)).Inc()

	return Resolution{Snapshot: &types.TransactionSnapshot{
		Transactions: []types.TransactionRecord{},
		FetchedAt:    in.Now,
		SourceUsed:   types.SourceNone,
		Degraded:     true,
		Warning:      noData.Message,
	}}
}

// attempt fetches once from src. Failures are logged and never retried.
func attempt(ctx context.Context, src source.Client, events EventLogger) ([]types.TransactionRecord, bool) {
	fields := map[string]interface{}{
		"source": src.Name(),
		"tier":   string(src.Kind()),
	}
	events.Event(EventSourceAttempt, fields)

	start := time.Now()
	records, err := src.Fetch(ctx)
	elapsed := time.Since(start)

	if err != nil {
		metrics.SourceAttemptsTotal.WithLabelValues(src.Name(), "failure").Inc()
		events.WarnEvent(EventSourceFailure, map[string]interface{}{
			"source":     src.Name(),
			"tier":       string(src.Kind()),
			"durationMs": elapsed.Milliseconds(),
			"error":      err.Error(),
		})
		return nil, false
	}

	metrics.SourceAttemptsTotal.WithLabelValues(src.Name(), "success").Inc()
	metrics.SnapshotResolutionsTotal.WithLabelValues(string(src.Kind())).Inc()
	events.Event(EventSourceSuccess, map[string]interface{}{
		"source":     src.Name(),
		"tier":       string(src.Kind()),
		"durationMs": elapsed.Milliseconds(),
		"records":    len(records),
	})
	return records, true
}

func noteFallback(events EventLogger, failed []string, servedBy types.SourceKind) {
	if len(failed) == 0 {
		return
	}
	events.WarnEvent(EventFallbackUsed, map[string]interface{}{
		"failedSources": failed,
		"servedBy":      string(servedBy),
	})
}

func freshSnapshot(records []types.TransactionRecord, kind types.SourceKind, now time.Time) *types.TransactionSnapshot {
	if records == nil {
		records = []types.TransactionRecord{}
	}
	return &types.TransactionSnapshot{
		Transactions: records,
		FetchedAt:    now,
		SourceUsed:   kind,
	}
}

func withinStaleness(s *types.TransactionSnapshot, now time.Time, maxStaleness time.Duration) bool {
	if maxStaleness <= 0 {
		return true
	}
	return now.Sub(s.FetchedAt) <= maxStaleness
}
