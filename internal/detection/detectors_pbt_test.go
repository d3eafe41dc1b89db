package detection

import (
	"reflect"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/fraud-signal-engine/internal/types"
)

func genRecords() gopter.Gen {
	return gen.SliceOf(gen.Struct(reflect.TypeOf(types.TransactionRecord{}), map[string]gopter.Gen{
		"FromAddress": gen.OneConstOf(wallet, "0xother"),
		"ToAddress":   gen.OneConstOf(wallet, "0xother"),
		"Amount":      gen.Float64Range(0, 10_000),
		"Timestamp":   gen.Int64Range(1_700_000_000, 1_700_010_000),
	}))
}

func inUnitRange(res types.DetectorResult) bool {
	return res.Score >= 0 && res.Score <= 1
}

func TestDetectorProperties(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("fewer than two records never trigger timing detectors", prop.ForAll(
		func(records []types.TransactionRecord) bool {
			records = records[:len(records)%2]
			rapid := DetectRapidDumping(records)
			flash := DetectFlashLoan(records)
			return !rapid.Detected && rapid.Score == 0 && !flash.Detected && flash.Score == 0
		},
		genRecords(),
	))

	properties.Property("transaction detector scores stay in [0,1]", prop.ForAll(
		func(records []types.TransactionRecord) bool {
			return inUnitRange(DetectRapidDumping(records)) &&
				inUnitRange(DetectLargeTransfers(records)) &&
				inUnitRange(DetectFlashLoan(records))
		},
		genRecords(),
	))

	properties.Property("detected iff score is positive", prop.ForAll(
		func(records []types.TransactionRecord) bool {
			for _, res := range []types.DetectorResult{
				DetectRapidDumping(records),
				DetectLargeTransfers(records),
				DetectFlashLoan(records),
			} {
				if res.Detected != (res.Score > 0) {
					return false
				}
			}
			return true
		},
		genRecords(),
	))

	properties.Property("phishing score stays in [0,1]", prop.ForAll(
		func(address, reason string) bool {
			return inUnitRange(DetectPhishing(address, reason))
		},
		gen.AnyString(),
		gen.AnyString(),
	))

	properties.Property("report history score stays in [0,1]", prop.ForAll(
		func(count int) bool {
			return inUnitRange(ScoreReportHistory(count))
		},
		gen.IntRange(-10, 1000),
	))

	properties.TestingRun(t)
}
