package detection

import (
	"context"
	"fmt"
	"sync"

	apperrors "github.com/fraud-signal-engine/internal/errors"
	"github.com/fraud-signal-engine/internal/types"
)

// Input is one wallet's view of the current snapshot
type Input struct {
	Address      string
	Reason       string
	Transactions []types.TransactionRecord // already filtered to the wallet
}

// Results maps each signal to its detector outcome
type Results map[types.Signal]types.DetectorResult

type detectFunc func(ctx context.Context, in Input) (types.DetectorResult, error)

type detector struct {
	signal types.Signal
	run    detectFunc
}

// Suite runs the five detectors over one wallet and joins their results
type Suite struct {
	detectors []detector
}

// NewSuite creates a detection suite. A nil lookup behaves as NoReportHistory.
func NewSuite(reports ReportHistoryLookup) *Suite {
	if reports == nil {
		reports = NoReportHistory{}
	}
	return &Suite{
		detectors: []detector{
			{types.SignalRapidDumping, func(_ context.Context, in Input) (types.DetectorResult, error) {
				return DetectRapidDumping(in.Transactions), nil
			}},
			{types.SignalLargeTransfer, func(_ context.Context, in Input) (types.DetectorResult, error) {
				return DetectLargeTransfers(in.Transactions), nil
			}},
			{types.SignalFlashLoan, func(_ context.Context, in Input) (types.DetectorResult, error) {
				return DetectFlashLoan(in.Transactions), nil
			}},
			{types.SignalPhishing, func(_ context.Context, in Input) (types.DetectorResult, error) {
				return DetectPhishing(in.Address, in.Reason), nil
			}},
			{types.SignalReportHistory, func(ctx context.Context, in Input) (types.DetectorResult, error) {
				count, err := reports.ReportCount(ctx, in.Address)
				if err != nil {
					return types.DetectorResult{}, err
				}
				return ScoreReportHistory(count), nil
			}},
		},
	}
}

// Run evaluates every detector concurrently and returns once all have finished.
// A detector that errors or panics yields a DetectorFault; when several fault,
// the first in signal order is returned.
func (s *Suite) Run(ctx context.Context, in Input) (Results, error) {
	results := make([]types.DetectorResult, len(s.detectors))
	errs := make([]error, len(s.detectors))

	var wg sync.WaitGroup
	for i, d := range s.detectors {
		wg.Add(1)
		go func(i int, d detector) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					errs[i] = apperrors.NewDetectorFaultError(d.signal, fmt.Errorf("panic: %v", r))
				}
			}()

			res, err := d.run(ctx, in)
			if err != nil {
				errs[i] = apperrors.NewDetectorFaultError(d.signal, err)
				return
			}
			res.Signal = d.signal
			results[i] = res
		}(i, d)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	out := make(Results, len(results))
	for _, res := range results {
		out[res.Signal] = res
	}
	return out, nil
}
