package risk

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fraud-signal-engine/internal/types"
)

func TestRecommend(t *testing.T) {
	tests := []struct {
		score float64
		want  types.Action
	}{
		{0, types.ActionNoAction},
		{0.39, types.ActionNoAction},
		{0.4, types.ActionMonitor},
		{0.59, types.ActionMonitor},
		{0.6, types.ActionInvestigate},
		{0.79, types.ActionInvestigate},
		{0.8, types.ActionFreeze},
		{1, types.ActionFreeze},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Recommend(tt.score), "score %v", tt.score)
	}
}

func TestEscalate(t *testing.T) {
	phishingAndLarge := results(map[types.Signal]float64{
		types.SignalPhishing:      0.2,
		types.SignalLargeTransfer: 1,
	})
	phishingOnly := results(map[types.Signal]float64{types.SignalPhishing: 0.4})
	largeOnly := results(map[types.Signal]float64{types.SignalLargeTransfer: 1})

	assert.Equal(t, types.ActionInvestigate, Escalate(types.ActionNoAction, phishingAndLarge))
	assert.Equal(t, types.ActionInvestigate, Escalate(types.ActionMonitor, phishingAndLarge))
	assert.Equal(t, types.ActionFreeze, Escalate(types.ActionFreeze, phishingAndLarge))
	assert.Equal(t, types.ActionNoAction, Escalate(types.ActionNoAction, phishingOnly))
	assert.Equal(t, types.ActionMonitor, Escalate(types.ActionMonitor, largeOnly))
	assert.Equal(t, types.ActionManualReview, Escalate(types.ActionManualReview, phishingAndLarge))
}
