// Package risk combines detector results into a composite score, a violation
// label and a recommended action.
package risk

import (
	"fmt"
	"math"
	"strings"

	"github.com/fraud-signal-engine/internal/types"
)

// Weights assigns each signal its share of the composite score
type Weights map[types.Signal]float64

// DefaultWeights is the production weighting; it sums to 1.
var DefaultWeights = Weights{
	types.SignalRapidDumping:  0.30,
	types.SignalLargeTransfer: 0.25,
	types.SignalFlashLoan:     0.20,
	types.SignalPhishing:      0.15,
	types.SignalReportHistory: 0.10,
}

const weightTolerance = 1e-9

// signalLabels are the human-readable names used in violation labels
var signalLabels = map[types.Signal]string{
	types.SignalRapidDumping:  "Rapid dumping",
	types.SignalLargeTransfer: "Large transfers",
	types.SignalFlashLoan:     "Flash loan pattern",
	types.SignalPhishing:      "Phishing indicators",
	types.SignalReportHistory: "Repeated reports",
}

// Validate checks that every signal has a non-negative weight and the weights sum to 1
func (w Weights) Validate() error {
	if len(w) != len(types.AllSignals) {
		return fmt.Errorf("expected %d weights, got %d", len(types.AllSignals), len(w))
	}
	sum := 0.0
	for _, sig := range types.AllSignals {
		v, ok := w[sig]
		if !ok {
			return fmt.Errorf("missing weight for signal %s", sig)
		}
		if v < 0 || math.IsNaN(v) {
			return fmt.Errorf("invalid weight %v for signal %s", v, sig)
		}
		sum += v
	}
	if math.Abs(sum-1) > weightTolerance {
		return fmt.Errorf("weights must sum to 1, got %v", sum)
	}
	return nil
}

// Assessment is the aggregated outcome for one wallet
type Assessment struct {
	Score     float64 // composite score rounded to 2 decimals
	Violation string
}

// Aggregator computes weighted composite scores
type Aggregator struct {
	weights Weights
}

// NewAggregator creates an aggregator; the weights must validate
func NewAggregator(weights Weights) (*Aggregator, error) {
	if err := weights.Validate(); err != nil {
		return nil, err
	}
	copied := make(Weights, len(weights))
	for k, v := range weights {
		copied[k] = v
	}
	return &Aggregator{weights: copied}, nil
}

// NewDefaultAggregator returns an aggregator over DefaultWeights
func NewDefaultAggregator() *Aggregator {
	a, err := NewAggregator(DefaultWeights)
	if err != nil {
		panic(err)
	}
	return a
}

// Composite returns the weighted sum of clamped signal scores. Missing signals score 0.
func (a *Aggregator) Composite(results map[types.Signal]types.DetectorResult) float64 {
	score := 0.0
	for _, sig := range types.AllSignals {
		score += clamp01(results[sig].Score) * a.weights[sig]
	}
	return clamp01(score)
}

// Aggregate returns the rounded composite score and the violation label
func (a *Aggregator) Aggregate(results map[types.Signal]types.DetectorResult) Assessment {
	return Assessment{
		Score:     RoundScore(a.Composite(results)),
		Violation: Label(results),
	}
}

// Label joins the names of every detected signal in fixed order,
// or returns the low-risk label when none fired.
func Label(results map[types.Signal]types.DetectorResult) string {
	var fired []string
	for _, sig := range types.AllSignals {
		if results[sig].Detected {
			fired = append(fired, signalLabels[sig])
		}
	}
	if len(fired) == 0 {
		return types.ViolationLowRisk
	}
	return strings.Join(fired, ", ")
}

// RoundScore rounds to 2 decimal places
func RoundScore(score float64) float64 {
	return math.Round(score*100) / 100
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	return math.Min(v, 1)
}
