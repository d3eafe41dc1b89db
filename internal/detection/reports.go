package detection

import "context"

// ReportHistoryLookup returns how many prior reports exist for a wallet
type ReportHistoryLookup interface {
	ReportCount(ctx context.Context, address string) (int, error)
}

// NoReportHistory is the lookup used when no report store is wired in. It always reports zero.
type NoReportHistory struct{}

// ReportCount always returns 0
func (NoReportHistory) ReportCount(context.Context, string) (int, error) {
	return 0, nil
}

// ReportHistoryFunc adapts a function to ReportHistoryLookup
type ReportHistoryFunc func(ctx context.Context, address string) (int, error)

// ReportCount calls f
func (f ReportHistoryFunc) ReportCount(ctx context.Context, address string) (int, error) {
	return f(ctx, address)
}
