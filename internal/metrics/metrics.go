// Package metrics provides Prometheus instrumentation for the fraud signal engine.
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// SourceAttemptsTotal counts fetch attempts per upstream source and outcome.
	SourceAttemptsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fraudengine",
			Name:      "source_attempts_total",
			Help:      "Transaction source fetch attempts by source and result.",
		},
		[]string{"source", "result"},
	)

	// SourceFetchDuration observes the latency of successful and failed fetches.
	SourceFetchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "fraudengine",
			Name:      "source_fetch_duration_seconds",
			Help:      "Transaction source fetch latency in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 15},
		},
		[]string{"source"},
	)

	// SnapshotResolutionsTotal counts resolved snapshots by the source that served them.
	SnapshotResolutionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fraudengine",
			Name:      "snapshot_resolutions_total",
			Help:      "Snapshot resolutions by serving source (primary, secondary, backupFile, staleCache, none).",
		},
		[]string{"source"},
	)

	// SnapshotCacheHitsTotal counts requests answered from the fresh cache.
	SnapshotCacheHitsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "fraudengine",
		Name:      "snapshot_cache_hits_total",
		Help:      "Snapshot requests served from the in-memory cache within TTL.",
	})

	// SnapshotRecords tracks the size of the retained snapshot.
	SnapshotRecords = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "fraudengine",
		Name:      "snapshot_records",
		Help:      "Number of transaction records in the retained snapshot.",
	})

	// VerdictsTotal counts verdicts by recommended action.
	VerdictsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fraudengine",
			Name:      "verdicts_total",
			Help:      "Risk verdicts produced by recommended action.",
		},
		[]string{"action"},
	)

	// AnalysisDuration observes end-to-end analysis latency.
	AnalysisDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "fraudengine",
		Name:      "analysis_duration_seconds",
		Help:      "Wallet analysis duration in seconds.",
		Buckets:   prometheus.DefBuckets,
	})

	// HTTPRequestsTotal counts API requests by method, route and status class.
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fraudengine",
			Name:      "http_requests_total",
			Help:      "Total HTTP requests by method, route and status class.",
		},
		[]string{"method", "route", "status"},
	)
)

func init() {
	prometheus.MustRegister(
		SourceAttemptsTotal,
		SourceFetchDuration,
		SnapshotResolutionsTotal,
		SnapshotCacheHitsTotal,
		SnapshotRecords,
		VerdictsTotal,
		AnalysisDuration,
		HTTPRequestsTotal,
	)
}

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// StatusClass buckets an HTTP status code as 1xx..5xx.
func StatusClass(code int) string {
	if code < 100 || code > 599 {
		return "unknown"
	}
	return strconv.Itoa(code/100) + "xx"
}
