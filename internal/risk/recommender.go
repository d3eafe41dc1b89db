package risk

import "github.com/fraud-signal-engine/internal/types"

// Action thresholds, inclusive at the lower bound
const (
	FreezeThreshold      = 0.8
	InvestigateThreshold = 0.6
	MonitorThreshold     = 0.4
)

// Recommend maps a composite score to an action, highest band first
func Recommend(score float64) types.Action {
	switch {
	case score >= FreezeThreshold:
		return types.ActionFreeze
	case score >= InvestigateThreshold:
		return types.ActionInvestigate
	case score >= MonitorThreshold:
		return types.ActionMonitor
	default:
		return types.ActionNoAction
	}
}

// transferSignals are the transaction-pattern signals that escalate alongside phishing
var transferSignals = []types.Signal{
	types.SignalRapidDumping,
	types.SignalLargeTransfer,
	types.SignalFlashLoan,
}

// Escalate raises action to at least investigate when phishing indicators
// fire together with a transfer-pattern signal. It never lowers an action.
func Escalate(action types.Action, results map[types.Signal]types.DetectorResult) types.Action {
	if action == types.ActionManualReview || !results[types.SignalPhishing].Detected {
		return action
	}
	for _, sig := range transferSignals {
		if results[sig].Detected {
			if action.Severity() < types.ActionInvestigate.Severity() {
				return types.ActionInvestigate
			}
			return action
		}
	}
	return action
}
