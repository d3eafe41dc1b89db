package detection

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fraud-signal-engine/internal/types"
)

const wallet = "0x1111111111111111111111111111111111111111"

// txsWithGaps builds records starting at a fixed time, separated by gaps seconds
func txsWithGaps(amount float64, gaps ...int64) []types.TransactionRecord {
	ts := int64(1_700_000_000)
	out := []types.TransactionRecord{{FromAddress: wallet, ToAddress: "0xother", Amount: amount, Timestamp: ts}}
	for _, g := range gaps {
		ts += g
		out = append(out, types.TransactionRecord{FromAddress: wallet, ToAddress: "0xother", Amount: amount, Timestamp: ts})
	}
	return out
}

func reversed(in []types.TransactionRecord) []types.TransactionRecord {
	out := make([]types.TransactionRecord, len(in))
	for i := range in {
		out[len(in)-1-i] = in[i]
	}
	return out
}

func TestFilterByAddress(t *testing.T) {
	records := []types.TransactionRecord{
		{FromAddress: "0xABC", ToAddress: "0xdef"},
		{FromAddress: "0x123", ToAddress: "0xAbC"},
		{FromAddress: "0x123", ToAddress: "0x456"},
	}

	assert.Len(t, FilterByAddress(records, "0xabc"), 2)
	assert.Empty(t, FilterByAddress(records, "0x999"))
	assert.Empty(t, FilterByAddress(records, ""))
	assert.NotNil(t, FilterByAddress(nil, "0xabc"))
}

func TestFilterByAddress_Base58IsCaseSensitive(t *testing.T) {
	records := []types.TransactionRecord{
		{FromAddress: "7xKXtg2CW87d97TXJSDpbD5jBkheTqA83TZRuJosgAsU", ToAddress: "0xdef"},
		{FromAddress: "7xkxtg2cw87d97txjsdpbd5jbkhetqa83tzrujosgasu", ToAddress: "0xdef"},
		{FromAddress: "0x123", ToAddress: "7XKXTG2CW87D97TXJSDPBD5JBKHETQA83TZRUJOSGASU"},
	}

	matched := FilterByAddress(records, "7xKXtg2CW87d97TXJSDpbD5jBkheTqA83TZRuJosgAsU")
	require.Len(t, matched, 1)
	assert.Equal(t, records[0], matched[0])

	assert.Len(t, FilterByAddress(records, "0xDEF"), 2)
}

func TestDetectRapidDumping(t *testing.T) {
	tests := []struct {
		name          string
		records       []types.TransactionRecord
		wantDetected  bool
		wantScore     float64
		wantSequences int
	}{
		{name: "empty", records: nil},
		{name: "single", records: txsWithGaps(10)},
		{name: "four close transactions", records: txsWithGaps(10, 10, 10, 10), wantSequences: 0},
		{name: "five close transactions", records: txsWithGaps(10, 10, 10, 10, 10), wantDetected: true, wantScore: 0.7, wantSequences: 1},
		{name: "six within 200 seconds", records: txsWithGaps(50, 60, 10, 60, 10, 60), wantDetected: true, wantScore: 1, wantSequences: 2},
		{name: "gap at threshold breaks window", records: txsWithGaps(10, 10, 10, 300, 10, 10), wantSequences: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := DetectRapidDumping(tt.records)
			assert.Equal(t, types.SignalRapidDumping, res.Signal)
			assert.Equal(t, tt.wantDetected, res.Detected)
			assert.InDelta(t, tt.wantScore, res.Score, 1e-9)
			assert.Equal(t, tt.wantSequences, res.Metrics["sequences"])
		})
	}
}

func TestDetectRapidDumping_OrderIndependent(t *testing.T) {
	records := txsWithGaps(10, 5, 5, 5, 5, 5, 5)
	assert.Equal(t, DetectRapidDumping(records), DetectRapidDumping(reversed(records)))
}

func TestDetectLargeTransfers(t *testing.T) {
	tests := []struct {
		name         string
		amounts      []float64
		wantDetected bool
		wantScore    float64
	}{
		{name: "none", amounts: nil},
		{name: "at threshold", amounts: []float64{100}},
		{name: "one at 150", amounts: []float64{150, 50}, wantDetected: true, wantScore: 0.9},
		{name: "one at 500 clamps", amounts: []float64{500}, wantDetected: true, wantScore: 1},
		{name: "two small-large", amounts: []float64{101, 101}, wantDetected: true, wantScore: 0.805},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var records []types.TransactionRecord
			for _, a := range tt.amounts {
				records = append(records, types.TransactionRecord{Amount: a})
			}
			res := DetectLargeTransfers(records)
			assert.Equal(t, tt.wantDetected, res.Detected)
			assert.InDelta(t, tt.wantScore, res.Score, 1e-9)
		})
	}
}

func TestDetectFlashLoan(t *testing.T) {
	tests := []struct {
		name         string
		records      []types.TransactionRecord
		wantDetected bool
		wantScore    float64
	}{
		{name: "two records", records: txsWithGaps(10, 1)},
		{name: "one triple", records: txsWithGaps(10, 10, 20), wantDetected: true, wantScore: 0.25},
		{name: "gap of 60 is not under a minute", records: txsWithGaps(10, 60, 10)},
		{name: "five tight records", records: txsWithGaps(10, 1, 1, 1, 1), wantDetected: true, wantScore: 0.75},
		{name: "many tight records clamp", records: txsWithGaps(10, 1, 1, 1, 1, 1, 1), wantDetected: true, wantScore: 1},
		{name: "alternating gaps", records: txsWithGaps(50, 60, 10, 60, 10, 60)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := DetectFlashLoan(tt.records)
			assert.Equal(t, tt.wantDetected, res.Detected)
			assert.InDelta(t, tt.wantScore, res.Score, 1e-9)
		})
	}
}

func TestDetectPhishing(t *testing.T) {
	tests := []struct {
		name         string
		address      string
		reason       string
		wantDetected bool
		wantScore    float64
	}{
		{name: "clean", address: wallet, reason: "routine check"},
		{name: "one keyword", address: wallet, reason: "this looks like a scam", wantDetected: true, wantScore: 0.2},
		{name: "case insensitive keywords", address: wallet, reason: "PHISHING site, FAKE token", wantDetected: true, wantScore: 0.4},
		{name: "repeated keyword counts once", address: wallet, reason: "scam scam scam", wantDetected: true, wantScore: 0.2},
		{name: "blocklisted address", address: "0xDEAD00000000000000000000000000000000beef", wantDetected: true, wantScore: 0.3},
		{name: "address and keywords", address: "0x0000000000000000000000000000000000000001", reason: "impersonating support to steal funds", wantDetected: true, wantScore: 0.7},
		{name: "clamped", address: "0xbad", reason: "phish scam fake impersonation malicious fraud", wantDetected: true, wantScore: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := DetectPhishing(tt.address, tt.reason)
			assert.Equal(t, tt.wantDetected, res.Detected)
			assert.InDelta(t, tt.wantScore, res.Score, 1e-9)
		})
	}
}

func TestScoreReportHistory(t *testing.T) {
	assert.False(t, ScoreReportHistory(0).Detected)
	assert.False(t, ScoreReportHistory(-3).Detected)

	res := ScoreReportHistory(2)
	assert.True(t, res.Detected)
	assert.InDelta(t, 0.4, res.Score, 1e-9)

	assert.Equal(t, 1.0, ScoreReportHistory(12).Score)
}
