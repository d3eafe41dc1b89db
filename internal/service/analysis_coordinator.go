package service

import (
	"context"
	"fmt"
	"time"

	"github.com/fraud-signal-engine/internal/detection"
	"github.com/fraud-signal-engine/internal/logging"
	"github.com/fraud-signal-engine/internal/metrics"
	"github.com/fraud-signal-engine/internal/risk"
	"github.com/fraud-signal-engine/internal/types"
)

// DegradedScore is the score attached to verdicts produced by the error path
const DegradedScore = 0.5

// SnapshotProvider supplies the current transaction snapshot
type SnapshotProvider interface {
	GetTransactions(ctx context.Context, forceRefresh bool) (*types.TransactionSnapshot, error)
}

// AnalysisCoordinator runs a wallet through acquisition, detection,
// aggregation and recommendation. It always returns a well-formed verdict.
type AnalysisCoordinator struct {
	snapshots  SnapshotProvider
	suite      *detection.Suite
	aggregator *risk.Aggregator
	now        func() time.Time
}

// NewAnalysisCoordinator creates a new analysis coordinator
func NewAnalysisCoordinator(
	snapshots SnapshotProvider,
	suite *detection.Suite,
	aggregator *risk.Aggregator,
) *AnalysisCoordinator {
	if suite == nil {
		suite = detection.NewSuite(nil)
	}
	if aggregator == nil {
		aggregator = risk.NewDefaultAggregator()
	}
	return &AnalysisCoordinator{
		snapshots:  snapshots,
		suite:      suite,
		aggregator: aggregator,
		now:        time.Now,
	}
}

// Analyze produces the risk verdict for address. Detector faults and other
// unexpected failures yield a degraded verdict instead of an error.
func (c *AnalysisCoordinator) Analyze(ctx context.Context, address, reason, requestedBy string) (verdict *types.RiskVerdict) {
	start := time.Now()
	log := logging.FromContext(ctx).WithFields(map[string]interface{}{
		"address":     address,
		"requestedBy": requestedBy,
	})

	defer func() {
		if r := recover(); r != nil {
			verdict = c.degraded(address, requestedBy, 0, fmt.Errorf("analysis panic: %v", r))
		}
		if verdict.IsDegraded() {
			log.WithField("error", verdict.Error).Error("Wallet analysis degraded")
		} else {
			log.WithFields(map[string]interface{}{
				"score":        verdict.Score,
				"action":       string(verdict.RecommendedAction),
				"violation":    verdict.Violation,
				"transactions": verdict.TransactionCount,
				"source":       string(verdict.SourceUsed),
			}).Info("Wallet analyzed")
		}
		metrics.VerdictsTotal.WithLabelValues(string(verdict.RecommendedAction)).Inc()
		metrics.AnalysisDuration.Observe(time.Since(start).Seconds())
	}()

	snapshot, err := c.snapshots.GetTransactions(ctx, false)
	if err != nil {
		return c.degraded(address, requestedBy, 0, err)
	}
	if snapshot == nil {
		snapshot = &types.TransactionSnapshot{SourceUsed: types.SourceNone, Degraded: true}
	}

	walletTxs := detection.FilterByAddress(snapshot.Transactions, address)

	results, err := c.suite.Run(ctx, detection.Input{
		Address:      address,
		Reason:       reason,
		Transactions: walletTxs,
	})
	if err != nil {
		v := c.degraded(address, requestedBy, len(walletTxs), err)
		v.SourceUsed = snapshot.SourceUsed
		return v
	}

	assessment := c.aggregator.Aggregate(results)
	action := risk.Escalate(risk.Recommend(assessment.Score), results)

	return &types.RiskVerdict{
		Address:           address,
		Violation:         assessment.Violation,
		Score:             assessment.Score,
		RecommendedAction: action,
		PerSignalDetails:  results,
		TransactionCount:  len(walletTxs),
		SourceUsed:        snapshot.SourceUsed,
		DataDegraded:      snapshot.Degraded,
		DataWarning:       snapshot.Warning,
		RequestedBy:       requestedBy,
		AnalyzedAt:        c.now().UTC(),
	}
}

func (c *AnalysisCoordinator) degraded(address, requestedBy string, txCount int, err error) *types.RiskVerdict {
	return &types.RiskVerdict{
		Address:           address,
		Violation:         types.ViolationAnalysisError,
		Score:             DegradedScore,
		RecommendedAction: types.ActionManualReview,
		PerSignalDetails:  map[types.Signal]types.DetectorResult{},
		TransactionCount:  txCount,
		RequestedBy:       requestedBy,
		Error:             err.Error(),
		AnalyzedAt:        c.now().UTC(),
	}
}
