package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fraud-signal-engine/internal/types"
)

type fakeSnapshots struct {
	forced   atomic.Int32
	degraded bool
	err      error
}

func (f *fakeSnapshots) GetTransactions(_ context.Context, force bool) (*types.TransactionSnapshot, error) {
	if force {
		f.forced.Add(1)
	}
	if f.err != nil {
		return nil, f.err
	}
	snap := &types.TransactionSnapshot{
		Transactions: make([]types.TransactionRecord, 4),
		FetchedAt:    time.Now(),
		SourceUsed:   types.SourcePrimary,
	}
	if f.degraded {
		snap.SourceUsed = types.SourceStaleCache
		snap.Degraded = true
		snap.Warning = "stale"
	}
	return snap, nil
}

func TestNewSnapshotRefresher_Validation(t *testing.T) {
	_, err := NewSnapshotRefresher(nil, time.Second)
	assert.Error(t, err)

	_, err = NewSnapshotRefresher(&fakeSnapshots{}, 0)
	assert.Error(t, err)
}

func TestSnapshotRefresher_RefreshOnce(t *testing.T) {
	src := &fakeSnapshots{}
	w, err := NewSnapshotRefresher(src, time.Minute)
	require.NoError(t, err)

	w.RefreshOnce(context.Background())

	status := w.GetStatus()
	assert.Equal(t, int32(1), src.forced.Load(), "refresh must bypass the cache")
	assert.Equal(t, int64(1), status.RefreshCount)
	assert.Equal(t, types.SourcePrimary, status.LastSource)
	assert.Equal(t, 4, status.LastRecords)
	assert.Zero(t, status.DegradedRefreshes)
}

func TestSnapshotRefresher_CountsDegradedRefreshes(t *testing.T) {
	w, _ := NewSnapshotRefresher(&fakeSnapshots{degraded: true}, time.Minute)
	w.RefreshOnce(context.Background())

	assert.Equal(t, int64(1), w.GetStatus().DegradedRefreshes)
	assert.Equal(t, types.SourceStaleCache, w.GetStatus().LastSource)
}

func TestSnapshotRefresher_ErrorLeavesStatus(t *testing.T) {
	w, _ := NewSnapshotRefresher(&fakeSnapshots{err: errors.New("cancelled")}, time.Minute)
	w.RefreshOnce(context.Background())

	assert.Zero(t, w.GetStatus().RefreshCount)
}

func TestSnapshotRefresher_StartStop(t *testing.T) {
	src := &fakeSnapshots{}
	w, err := NewSnapshotRefresher(src, 10*time.Millisecond)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, w.Start(ctx))
	assert.Error(t, w.Start(ctx), "second start must fail")
	assert.True(t, w.GetStatus().Running)

	require.Eventually(t, func() bool { return src.forced.Load() >= 2 }, time.Second, 5*time.Millisecond)

	stopCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	require.NoError(t, w.Stop(stopCtx))
	assert.False(t, w.GetStatus().Running)
	assert.Error(t, w.Stop(stopCtx))

	// restartable after a clean stop
	require.NoError(t, w.Start(ctx))
	require.NoError(t, w.Stop(stopCtx))
}
