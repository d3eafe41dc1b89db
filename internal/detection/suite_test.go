package detection

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/fraud-signal-engine/internal/errors"
	"github.com/fraud-signal-engine/internal/types"
)

func TestSuite_RunsAllDetectors(t *testing.T) {
	suite := NewSuite(nil)

	results, err := suite.Run(context.Background(), Input{
		Address:      wallet,
		Reason:       "this looks like a scam",
		Transactions: []types.TransactionRecord{{FromAddress: wallet, Amount: 500, Timestamp: 1}},
	})
	require.NoError(t, err)
	require.Len(t, results, len(types.AllSignals))

	for _, sig := range types.AllSignals {
		assert.Equal(t, sig, results[sig].Signal)
	}
	assert.True(t, results[types.SignalLargeTransfer].Detected)
	assert.True(t, results[types.SignalPhishing].Detected)
	assert.False(t, results[types.SignalRapidDumping].Detected)
	assert.False(t, results[types.SignalReportHistory].Detected)
}

func TestSuite_UsesReportLookup(t *testing.T) {
	var gotAddress string
	suite := NewSuite(ReportHistoryFunc(func(_ context.Context, address string) (int, error) {
		gotAddress = address
		return 3, nil
	}))

	results, err := suite.Run(context.Background(), Input{Address: wallet})
	require.NoError(t, err)

	assert.Equal(t, wallet, gotAddress)
	assert.True(t, results[types.SignalReportHistory].Detected)
	assert.InDelta(t, 0.6, results[types.SignalReportHistory].Score, 1e-9)
}

func TestSuite_LookupErrorIsDetectorFault(t *testing.T) {
	suite := NewSuite(ReportHistoryFunc(func(context.Context, string) (int, error) {
		return 0, errors.New("connection refused")
	}))

	results, err := suite.Run(context.Background(), Input{Address: wallet})
	assert.Nil(t, results)
	require.Error(t, err)
	assert.True(t, apperrors.HasCategory(err, apperrors.CategoryDetectorFault))
	assert.Contains(t, err.Error(), "connection refused")
}

func TestSuite_PanicIsContained(t *testing.T) {
	suite := NewSuite(ReportHistoryFunc(func(context.Context, string) (int, error) {
		panic("lookup exploded")
	}))

	results, err := suite.Run(context.Background(), Input{Address: wallet})
	assert.Nil(t, results)
	require.Error(t, err)
	assert.True(t, apperrors.HasCategory(err, apperrors.CategoryDetectorFault))
	assert.Contains(t, err.Error(), "lookup exploded")
}

func TestNoReportHistory(t *testing.T) {
	count, err := NoReportHistory{}.ReportCount(context.Background(), wallet)
	assert.NoError(t, err)
	assert.Zero(t, count)
}
