// Package worker provides background jobs for the fraud signal engine.
package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/fraud-signal-engine/internal/logging"
	"github.com/fraud-signal-engine/internal/types"
)

// SnapshotSource is the acquisition entry point the refresher drives
type SnapshotSource interface {
	GetTransactions(ctx context.Context, forceRefresh bool) (*types.TransactionSnapshot, error)
}

// SnapshotRefresher periodically forces a snapshot refresh so analyses
// rarely pay for a fetch on the request path.
type SnapshotRefresher struct {
	source   SnapshotSource
	interval time.Duration

	mu              sync.RWMutex
	running         bool
	stopCh          chan struct{}
	doneCh          chan struct{}
	lastRefresh     time.Time
	lastSource      types.SourceKind
	lastRecords     int
	refreshCount    int64
	degradedRefresh int64
}

// SnapshotRefresherStatus reports the refresher's progress
type SnapshotRefresherStatus struct {
	Running           bool             `json:"running"`
	IntervalSeconds   int              `json:"intervalSeconds"`
	LastRefresh       time.Time        `json:"lastRefresh"`
	LastSource        types.SourceKind `json:"lastSource,omitempty"`
	LastRecords       int              `json:"lastRecords"`
	RefreshCount      int64            `json:"refreshCount"`
	DegradedRefreshes int64            `json:"degradedRefreshes"`
}

// NewSnapshotRefresher creates a refresher; interval must be positive
func NewSnapshotRefresher(source SnapshotSource, interval time.Duration) (*SnapshotRefresher, error) {
	if source == nil {
		return nil, fmt.Errorf("snapshot source is required")
	}
	if interval <= 0 {
		return nil, fmt.Errorf("refresh interval must be positive, got %v", interval)
	}
	return &SnapshotRefresher{
		source:   source,
		interval: interval,
	}, nil
}

// Start launches the refresh loop
func (w *SnapshotRefresher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return fmt.Errorf("snapshot refresher is already running")
	}
	w.running = true
	w.stopCh = make(chan struct{})
	w.doneCh = make(chan struct{})

	logging.WithField("interval", w.interval.String()).Info("Starting snapshot refresher")
	go w.loop(ctx, w.stopCh, w.doneCh)
	return nil
}

// Stop signals the loop and waits for it to exit
func (w *SnapshotRefresher) Stop(ctx context.Context) error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return fmt.Errorf("snapshot refresher is not running")
	}
	stopCh, doneCh := w.stopCh, w.doneCh
	w.mu.Unlock()

	close(stopCh)

	select {
	case <-doneCh:
		logging.Info("Snapshot refresher stopped")
	case <-ctx.Done():
		return ctx.Err()
	}

	w.mu.Lock()
	w.running = false
	w.mu.Unlock()
	return nil
}

func (w *SnapshotRefresher) loop(ctx context.Context, stopCh, doneCh chan struct{}) {
	defer close(doneCh)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-stopCh:
			return
		case <-ticker.C:
			w.RefreshOnce(ctx)
		}
	}
}

// RefreshOnce forces one resolution through the fallback chain
func (w *SnapshotRefresher) RefreshOnce(ctx context.Context) {
	snap, err := w.source.GetTransactions(ctx, true)
	if err != nil {
		logging.WithError(err).Warn("Snapshot refresh aborted")
		return
	}

	w.mu.Lock()
	w.lastRefresh = time.Now()
	w.lastSource = snap.SourceUsed
	w.lastRecords = snap.Len()
	w.refreshCount++
	if snap.Degraded {
		w.degradedRefresh++
	}
	w.mu.Unlock()

	if snap.Degraded {
		logging.WithFields(map[string]interface{}{
			"source":  string(snap.SourceUsed),
			"warning": snap.Warning,
		}).Warn("Snapshot refresh degraded")
	}
}

// GetStatus returns current refresher status
func (w *SnapshotRefresher) GetStatus() *SnapshotRefresherStatus {
	w.mu.RLock()
	defer w.mu.RUnlock()

	return &SnapshotRefresherStatus{
		Running:           w.running,
		IntervalSeconds:   int(w.interval.Seconds()),
		LastRefresh:       w.lastRefresh,
		LastSource:        w.lastSource,
		LastRecords:       w.lastRecords,
		RefreshCount:      w.refreshCount,
		DegradedRefreshes: w.degradedRefresh,
	}
}
