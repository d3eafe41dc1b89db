// Package detection implements the fraud-pattern detectors. Each detector is a
// pure function of a wallet's transactions (and, for phishing, the report reason).
package detection

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/fraud-signal-engine/internal/types"
)

// Detector thresholds
const (
	RapidGapSeconds       = 300
	RapidMinSequence      = 5
	FlashGapSeconds       = 60
	LargeAmountThreshold  = 100.0
	ReportScorePerReport  = 0.2
	phishingAddressWeight = 0.3
	phishingKeywordWeight = 0.2
)

// PhishingAddressBlocklist holds known-bad address fragments, lowercase
var PhishingAddressBlocklist = []string{
	"0x00000000",
	"0xdead",
	"0xbad",
}

// PhishingKeywords are matched as lowercase substrings of the report reason
var PhishingKeywords = []string{
	"phish",
	"scam",
	"fake",
	"impersonat",
	"malicious",
	"fraud",
	"steal",
}

// FilterByAddress returns the records sent from or to address. Hex addresses
// match in any case; other encodings must match exactly.
func FilterByAddress(records []types.TransactionRecord, address string) []types.TransactionRecord {
	out := make([]types.TransactionRecord, 0)
	if address == "" {
		return out
	}
	for _, r := range records {
		if types.SameAddress(r.FromAddress, address) || types.SameAddress(r.ToAddress, address) {
			out = append(out, r)
		}
	}
	return out
}

// sortedByTime returns a copy of records in ascending timestamp order
func sortedByTime(records []types.TransactionRecord) []types.TransactionRecord {
	out := make([]types.TransactionRecord, len(records))
	copy(out, records)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp < out[j].Timestamp
	})
	return out
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	return math.Min(v, 1)
}

// DetectRapidDumping counts windows of at least five transactions whose
// consecutive gaps all stay under five minutes. Every start index is
// examined, so overlapping windows are counted independently.
func DetectRapidDumping(records []types.TransactionRecord) types.DetectorResult {
	result := types.DetectorResult{
		Signal:  types.SignalRapidDumping,
		Details: "Insufficient transactions for rapid dumping analysis",
		Metrics: map[string]interface{}{"sequences": 0, "maxSequenceLength": 0},
	}
	if len(records) < 2 {
		return result
	}

	sorted := sortedByTime(records)
	sequences, longest := 0, 0
	for i := range sorted {
		j := i
		for j+1 < len(sorted) && sorted[j+1].Timestamp-sorted[j].Timestamp < RapidGapSeconds {
			j++
		}
		if length := j - i + 1; length >= RapidMinSequence {
			sequences++
			if length > longest {
				longest = length
			}
		}
	}

	result.Metrics["sequences"] = sequences
	result.Metrics["maxSequenceLength"] = longest
	if sequences == 0 {
		result.Details = "No rapid transaction sequences found"
		return result
	}

	result.Detected = true
	result.Score = clamp01(float64(sequences)*0.2 + float64(longest)*0.1)
	result.Details = fmt.Sprintf("%d rapid sequences, longest %d transactions", sequences, longest)
	return result
}

// DetectLargeTransfers scores transfers above the large-amount threshold
func DetectLargeTransfers(records []types.TransactionRecord) types.DetectorResult {
	count := 0
	total := 0.0
	for _, r := range records {
		if r.Amount > LargeAmountThreshold {
			count++
			total += r.Amount
		}
	}

	result := types.DetectorResult{
		Signal:  types.SignalLargeTransfer,
		Details: "No large transfers found",
		Metrics: map[string]interface{}{"count": count, "totalAmount": total, "averageAmount": 0.0},
	}
	if count == 0 {
		return result
	}

	avg := total / float64(count)
	result.Metrics["averageAmount"] = avg
	result.Detected = true
	result.Score = clamp01(float64(count)*0.15 + avg/200)
	result.Details = fmt.Sprintf("%d transfers above %.0f, average %.2f", count, LargeAmountThreshold, avg)
	return result
}

// DetectFlashLoan counts consecutive triples whose two gaps are both under a minute
func DetectFlashLoan(records []types.TransactionRecord) types.DetectorResult {
	result := types.DetectorResult{
		Signal:  types.SignalFlashLoan,
		Details: "Insufficient transactions for flash loan analysis",
		Metrics: map[string]interface{}{"patterns": 0},
	}
	if len(records) < 3 {
		return result
	}

	sorted := sortedByTime(records)
	patterns := 0
	for i := 0; i+2 < len(sorted); i++ {
		if sorted[i+1].Timestamp-sorted[i].Timestamp < FlashGapSeconds &&
			sorted[i+2].Timestamp-sorted[i+1].Timestamp < FlashGapSeconds {
			patterns++
		}
	}

	result.Metrics["patterns"] = patterns
	if patterns == 0 {
		result.Details = "No flash loan timing patterns found"
		return result
	}

	result.Detected = true
	result.Score = clamp01(float64(patterns) * 0.25)
	result.Details = fmt.Sprintf("%d flash loan timing patterns", patterns)
	return result
}

// DetectPhishing matches the address against the blocklist and the reason against phishing keywords
func DetectPhishing(address, reason string) types.DetectorResult {
	addr := strings.ToLower(address)
	addressHit := false
	for _, fragment := range PhishingAddressBlocklist {
		if addr != "" && strings.Contains(addr, fragment) {
			addressHit = true
			break
		}
	}

	text := strings.ToLower(reason)
	var matched []string
	for _, kw := range PhishingKeywords {
		if strings.Contains(text, kw) {
			matched = append(matched, kw)
		}
	}

	score := 0.0
	if addressHit {
		score += phishingAddressWeight
	}
	score += float64(len(matched)) * phishingKeywordWeight
	score = clamp01(score)

	result := types.DetectorResult{
		Signal:   types.SignalPhishing,
		Detected: score > 0,
		Score:    score,
		Details:  "No phishing indicators",
		Metrics: map[string]interface{}{
			"addressBlocklisted": addressHit,
			"keywordMatches":     len(matched),
		},
	}
	if result.Detected {
		parts := make([]string, 0, 2)
		if addressHit {
			parts = append(parts, "address matches blocklist")
		}
		if len(matched) > 0 {
			parts = append(parts, "reason keywords: "+strings.Join(matched, ", "))
		}
		result.Details = strings.Join(parts, "; ")
	}
	return result
}

// ScoreReportHistory scores the number of prior reports against a wallet
func ScoreReportHistory(count int) types.DetectorResult {
	if count < 0 {
		count = 0
	}
	result := types.DetectorResult{
		Signal:  types.SignalReportHistory,
		Details: "No prior reports",
		Metrics: map[string]interface{}{"reportCount": count},
	}
	if count == 0 {
		return result
	}
	result.Detected = true
	result.Score = clamp01(float64(count) * ReportScorePerReport)
	result.Details = fmt.Sprintf("%d prior reports", count)
	return result
}
