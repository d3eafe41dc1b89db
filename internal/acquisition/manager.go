// Package acquisition owns the transaction snapshot: the cache with TTL and
// the ordered fallback chain over the configured sources.
package acquisition

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/fraud-signal-engine/internal/metrics"
	"github.com/fraud-signal-engine/internal/source"
	"github.com/fraud-signal-engine/internal/types"
)

// DefaultCacheTTL is how long a resolved snapshot is served without refetching
const DefaultCacheTTL = 5 * time.Minute

// resolveKey is the singleflight key of a resolution pass; there is one snapshot
const resolveKey = "snapshot"

// Config configures a Manager
type Config struct {
	CacheTTL     time.Duration
	MaxStaleness time.Duration // 0 disables the bound
}

// Manager is the sole authority for the current transaction snapshot.
// Readers load the snapshot atomically. Concurrent callers that miss the
// cache share one in-flight resolution pass.
type Manager struct {
	sources      []source.Client
	backup       source.Client
	cacheTTL     time.Duration
	maxStaleness time.Duration
	events       EventLogger
	now          func() time.Time

	current atomic.Pointer[types.TransactionSnapshot]
	group   singleflight.Group

	mu     sync.Mutex
	flight *flight
}

// flight is the context of one shared resolution pass. It is cancelled
// once every caller waiting on it has given up.
type flight struct {
	ctx     context.Context
	cancel  context.CancelFunc
	waiters int
}

// NewManager creates a manager over live sources (in fallback order) and an optional backup
func NewManager(sources []source.Client, backup source.Client, cfg Config, events EventLogger) *Manager {
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = DefaultCacheTTL
	}
	if events == nil {
		events = nopEvents{}
	}
	return &Manager{
		sources:      sources,
		backup:       backup,
		cacheTTL:     cfg.CacheTTL,
		maxStaleness: cfg.MaxStaleness,
		events:       events,
		now:          time.Now,
	}
}

// WithClock replaces the time source, for tests
func (m *Manager) WithClock(now func() time.Time) *Manager {
	m.now = now
	return m
}

// GetTransactions returns the cached snapshot while it is within TTL, otherwise
// resolves a new one through the fallback chain. forceRefresh skips the cache check.
// Callers arriving while a pass is in flight wait for that pass instead of
// starting another. Exhausted sources yield a degraded snapshot, not an error;
// the only error is the caller's context ending before the pass completes.
func (m *Manager) GetTransactions(ctx context.Context, forceRefresh bool) (*types.TransactionSnapshot, error) {
	if !forceRefresh {
		if snap := m.fresh(); snap != nil {
			return snap, nil
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ch := m.group.DoChan(resolveKey, func() (interface{}, error) {
		f := m.open(ctx)
		defer m.finish(f)
		// a pass that completed while we were joining may have refreshed the cache
		if !forceRefresh {
			if snap := m.fresh(); snap != nil {
				return snap, nil
			}
		}
		return m.resolve(f.ctx), nil
	})
	f := m.join(ctx)

	select {
	case r := <-ch:
		m.leave(f, false)
		return r.Val.(*types.TransactionSnapshot), nil
	case <-ctx.Done():
		m.leave(f, true)
		return nil, ctx.Err()
	}
}

// resolve runs one pass over the fallback chain and retains its result when asked to
func (m *Manager) resolve(ctx context.Context) *types.TransactionSnapshot {
	res := Resolve(ctx, ResolveInput{
		Sources:      m.sources,
		Backup:       m.backup,
		Retained:     m.current.Load(),
		Now:          m.now(),
		MaxStaleness: m.maxStaleness,
		Events:       m.events,
	})

	if res.Retain {
		m.current.Store(res.Snapshot)
		metrics.SnapshotRecords.Set(float64(res.Snapshot.Len()))
	}
	return res.Snapshot
}

// open returns the pending flight, creating it if needed. The flight keeps
// the caller's values but not its cancellation.
func (m *Manager) open(ctx context.Context) *flight {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.openLocked(ctx)
}

func (m *Manager) openLocked(ctx context.Context) *flight {
	if m.flight == nil {
		fctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
		m.flight = &flight{ctx: fctx, cancel: cancel}
	}
	return m.flight
}

// join registers the caller as a waiter on the pending flight
func (m *Manager) join(ctx context.Context) *flight {
	m.mu.Lock()
	defer m.mu.Unlock()
	f := m.openLocked(ctx)
	f.waiters++
	return f
}

// leave deregisters a caller. When the last waiter abandons the flight its
// fetches are cancelled and later callers start a new pass.
func (m *Manager) leave(f *flight, abandoned bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	f.waiters--
	if !abandoned || f.waiters > 0 {
		return
	}
	f.cancel()
	if m.flight == f {
		m.flight = nil
		m.group.Forget(resolveKey)
	}
}

// finish closes the flight once its pass has returned
func (m *Manager) finish(f *flight) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.flight == f {
		m.flight = nil
	}
	f.cancel()
}

// fresh returns the retained snapshot if it is still within TTL
func (m *Manager) fresh() *types.TransactionSnapshot {
	snap := m.current.Load()
	if snap == nil || m.now().Sub(snap.FetchedAt) >= m.cacheTTL {
		return nil
	}
	m.events.Event(EventCacheHit, map[string]interface{}{
		"source":     string(snap.SourceUsed),
		"ageSeconds": int64(m.now().Sub(snap.FetchedAt).Seconds()),
		"records":    snap.Len(),
	})
	metrics.SnapshotCacheHitsTotal.Inc()
	return snap
}

// Current returns the retained snapshot without triggering a fetch; nil if none
func (m *Manager) Current() *types.TransactionSnapshot {
	return m.current.Load()
}

// SourceHealth reports health of every source that tracks it
func (m *Manager) SourceHealth() []source.Health {
	out := make([]source.Health, 0, len(m.sources))
	for _, src := range m.sources {
		if hr, ok := src.(source.HealthReporter); ok {
			out = append(out, hr.Health())
		}
	}
	return out
}
