package risk

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fraud-signal-engine/internal/types"
)

func results(scores map[types.Signal]float64) map[types.Signal]types.DetectorResult {
	out := make(map[types.Signal]types.DetectorResult, len(types.AllSignals))
	for _, sig := range types.AllSignals {
		s := scores[sig]
		out[sig] = types.DetectorResult{Signal: sig, Score: s, Detected: s > 0}
	}
	return out
}

func TestWeights_Validate(t *testing.T) {
	assert.NoError(t, DefaultWeights.Validate())

	tests := []struct {
		name    string
		weights Weights
	}{
		{name: "missing signal", weights: Weights{
			types.SignalRapidDumping:  0.5,
			types.SignalLargeTransfer: 0.5,
		}},
		{name: "does not sum to one", weights: Weights{
			types.SignalRapidDumping:  0.30,
			types.SignalLargeTransfer: 0.30,
			types.SignalFlashLoan:     0.20,
			types.SignalPhishing:      0.15,
			types.SignalReportHistory: 0.10,
		}},
		{name: "negative weight", weights: Weights{
			types.SignalRapidDumping:  0.60,
			types.SignalLargeTransfer: -0.10,
			types.SignalFlashLoan:     0.20,
			types.SignalPhishing:      0.20,
			types.SignalReportHistory: 0.10,
		}},
		{name: "unknown signal replaces known", weights: Weights{
			types.SignalRapidDumping:  0.30,
			types.SignalLargeTransfer: 0.25,
			types.SignalFlashLoan:     0.20,
			types.SignalPhishing:      0.15,
			types.Signal("other"):     0.10,
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, tt.weights.Validate())
			_, err := NewAggregator(tt.weights)
			assert.Error(t, err)
		})
	}
}

func TestAggregator_Composite(t *testing.T) {
	agg := NewDefaultAggregator()

	assert.Equal(t, 0.0, agg.Composite(results(nil)))
	assert.InDelta(t, 1.0, agg.Composite(results(map[types.Signal]float64{
		types.SignalRapidDumping:  1,
		types.SignalLargeTransfer: 1,
		types.SignalFlashLoan:     1,
		types.SignalPhishing:      1,
		types.SignalReportHistory: 1,
	})), 1e-9)
	assert.InDelta(t, 0.3, agg.Composite(results(map[types.Signal]float64{types.SignalRapidDumping: 1})), 1e-9)
	assert.InDelta(t, 0.28, agg.Composite(results(map[types.Signal]float64{
		types.SignalLargeTransfer: 1,
		types.SignalPhishing:      0.2,
	})), 1e-9)
}

func TestAggregator_ClampsOutOfRangeScores(t *testing.T) {
	agg := NewDefaultAggregator()
	score := agg.Composite(results(map[types.Signal]float64{
		types.SignalRapidDumping: 7,
		types.SignalFlashLoan:    -3,
	}))
	assert.InDelta(t, 0.3, score, 1e-9)
}

func TestAggregator_NewAggregatorCopiesWeights(t *testing.T) {
	w := Weights{}
	for k, v := range DefaultWeights {
		w[k] = v
	}
	agg, err := NewAggregator(w)
	require.NoError(t, err)

	w[types.SignalRapidDumping] = 0
	assert.InDelta(t, 0.3, agg.Composite(results(map[types.Signal]float64{types.SignalRapidDumping: 1})), 1e-9)
}

func TestAggregate_RoundsToTwoDecimals(t *testing.T) {
	agg := NewDefaultAggregator()
	a := agg.Aggregate(results(map[types.Signal]float64{types.SignalLargeTransfer: 0.805}))
	assert.Equal(t, 0.2, a.Score)
	assert.Equal(t, "Large transfers", a.Violation)
}

func TestLabel(t *testing.T) {
	tests := []struct {
		name   string
		scores map[types.Signal]float64
		want   string
	}{
		{name: "nothing fired", want: types.ViolationLowRisk},
		{name: "single", scores: map[types.Signal]float64{types.SignalFlashLoan: 0.25}, want: "Flash loan pattern"},
		{name: "fixed order", scores: map[types.Signal]float64{
			types.SignalReportHistory: 0.2,
			types.SignalPhishing:      0.2,
			types.SignalRapidDumping:  1,
			types.SignalLargeTransfer: 1,
		}, want: "Rapid dumping, Large transfers, Phishing indicators, Repeated reports"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Label(results(tt.scores)))
		})
	}
}

func TestRoundScore(t *testing.T) {
	assert.Equal(t, 0.3, RoundScore(0.30000000000000004))
	assert.Equal(t, 0.5, RoundScore(0.499))
	assert.Equal(t, 0.0, RoundScore(0.004))
}
