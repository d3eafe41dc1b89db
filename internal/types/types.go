// Package types provides common type definitions for the fraud signal engine.
package types

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// NormalizeAddress lowercases 0x-prefixed hex addresses, which are
// case-insensitive. Other encodings such as base58 are case-sensitive and
// are returned unchanged.
func NormalizeAddress(address string) string {
	if len(address) >= 2 && address[0] == '0' && (address[1] == 'x' || address[1] == 'X') {
		return strings.ToLower(address)
	}
	return address
}

// SameAddress reports whether a and b name the same wallet
func SameAddress(a, b string) bool {
	return NormalizeAddress(a) == NormalizeAddress(b)
}

// SourceKind identifies where a transaction snapshot came from
type SourceKind string

const (
	// SourcePrimary is the primary upstream endpoint
	SourcePrimary SourceKind = "primary"
	// SourceSecondary is the secondary upstream endpoint
	SourceSecondary SourceKind = "secondary"
	// SourceBackupFile is the static local backup snapshot
	SourceBackupFile SourceKind = "backupFile"
	// SourceStaleCache is a previously fetched snapshot served past its TTL
	SourceStaleCache SourceKind = "staleCache"
	// SourceNone marks the empty snapshot returned when every fallback failed
	SourceNone SourceKind = "none"
)

// TransactionRecord is a single wallet transaction as delivered by an upstream source.
// Records are read-only once fetched.
type TransactionRecord struct {
	FromAddress string  `json:"from_address"`
	ToAddress   string  `json:"to_address"`
	Amount      float64 `json:"amount"`
	Token       string  `json:"token"`
	Timestamp   int64   `json:"timestamp"`
	Status      string  `json:"status"`
}

// UnmarshalJSON accepts amounts and timestamps encoded either as numbers or numeric strings.
func (r *TransactionRecord) UnmarshalJSON(data []byte) error {
	var raw struct {
		FromAddress string          `json:"from_address"`
		ToAddress   string          `json:"to_address"`
		Amount      json.RawMessage `json:"amount"`
		Token       string          `json:"token"`
		Timestamp   json.RawMessage `json:"timestamp"`
		Status      string          `json:"status"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	amount, err := parseNumber(raw.Amount)
	if err != nil {
		return fmt.Errorf("invalid amount: %w", err)
	}
	if amount < 0 {
		amount = 0
	}

	ts, err := parseNumber(raw.Timestamp)
	if err != nil {
		return fmt.Errorf("invalid timestamp: %w", err)
	}

	*r = TransactionRecord{
		FromAddress: raw.FromAddress,
		ToAddress:   raw.ToAddress,
		Amount:      amount,
		Token:       raw.Token,
		Timestamp:   int64(ts),
		Status:      raw.Status,
	}
	return nil
}

// parseNumber decodes a JSON number or a quoted numeric string. Missing values decode to zero.
func parseNumber(raw json.RawMessage) (float64, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return 0, nil
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0, err
		}
		if s == "" {
			return 0, nil
		}
		return strconv.ParseFloat(s, 64)
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		return 0, err
	}
	return f, nil
}

// TransactionSnapshot is the collection of records resolved by the acquisition layer.
// A snapshot is superseded, never mutated.
type TransactionSnapshot struct {
	Transactions []TransactionRecord `json:"transactions"`
	FetchedAt    time.Time           `json:"fetchedAt"`
	SourceUsed   SourceKind          `json:"sourceUsed"`
	Degraded     bool                `json:"degraded"`
	Warning      string              `json:"warning,omitempty"`
}

// Len returns the number of records in the snapshot
func (s *TransactionSnapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Transactions)
}

// Signal names one of the fraud signals produced by the detection suite
type Signal string

const (
	SignalRapidDumping  Signal = "rapidDumping"
	SignalLargeTransfer Signal = "largeAmount"
	SignalFlashLoan     Signal = "flashLoan"
	SignalPhishing      Signal = "phishingPattern"
	SignalReportHistory Signal = "reportHistory"
)

// AllSignals lists every signal in label order
var AllSignals = []Signal{
	SignalRapidDumping,
	SignalLargeTransfer,
	SignalFlashLoan,
	SignalPhishing,
	SignalReportHistory,
}

// DetectorResult is the outcome of one detector for one wallet.
// Metrics carries detector-specific auxiliary values (counts, averages).
type DetectorResult struct {
	Signal   Signal                 `json:"signal"`
	Detected bool                   `json:"detected"`
	Score    float64                `json:"score"`
	Details  string                 `json:"details"`
	Metrics  map[string]interface{} `json:"metrics,omitempty"`
}

// Action is the recommended response to a verdict
type Action string

const (
	ActionNoAction     Action = "no_action"
	ActionMonitor      Action = "monitor"
	ActionInvestigate  Action = "investigate"
	ActionFreeze       Action = "freeze"
	ActionManualReview Action = "manual_review"
)

// Severity orders actions from least to most severe. Manual review sits outside the ladder.
func (a Action) Severity() int {
	switch a {
	case ActionNoAction:
		return 0
	case ActionMonitor:
		return 1
	case ActionInvestigate:
		return 2
	case ActionFreeze:
		return 3
	default:
		return -1
	}
}

const (
	// ViolationLowRisk is the label used when no detector fired
	ViolationLowRisk = "Low risk activity"
	// ViolationAnalysisError marks a degraded verdict
	ViolationAnalysisError = "Analysis error"
)

// RiskVerdict is the engine's output for one wallet analysis
type RiskVerdict struct {
	Address           string                    `json:"address"`
	Violation         string                    `json:"violation"`
	Score             float64                   `json:"score"`
	RecommendedAction Action                    `json:"recommendedAction"`
	PerSignalDetails  map[Signal]DetectorResult `json:"perSignalDetails"`
	TransactionCount  int                       `json:"transactionCount"`
	SourceUsed        SourceKind                `json:"sourceUsed,omitempty"`
	DataDegraded      bool                      `json:"dataDegraded,omitempty"`
	DataWarning       string                    `json:"dataWarning,omitempty"`
	RequestedBy       string                    `json:"requestedBy,omitempty"`
	Error             string                    `json:"error,omitempty"`
	AnalyzedAt        time.Time                 `json:"analyzedAt"`
}

// IsDegraded reports whether the verdict was produced by the error path
func (v *RiskVerdict) IsDegraded() bool {
	return v.Violation == ViolationAnalysisError
}

// ServiceError represents a structured error response
type ServiceError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

func (e *ServiceError) Error() string {
	return e.Message
}
