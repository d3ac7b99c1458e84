package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ActionDuration tracks the latency of action requests forwarded to the ledger
	ActionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "flowfund_action_duration_seconds",
			Help: "Duration of campaign action requests in seconds",
			Buckets: []float64{
				0.005, // 5ms
				0.01,  // 10ms
				0.025, // 25ms
				0.05,  // 50ms
				0.1,   // 100ms
				0.25,  // 250ms
				0.5,   // 500ms
				1.0,   // 1s
				2.5,   // 2.5s
				5.0,   // 5s
				10.0,  // 10s
				30.0,  // 30s
			},
		},
		[]string{"action", "status"}, // status: success, rejected, ineligible, invalid, busy
	)

	// FetchFailures counts snapshot fetches skipped during aggregation
	FetchFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flowfund_snapshot_fetch_failures_total",
			Help: "Snapshot fetches that failed and were skipped",
		},
		[]string{"scan"}, // rebuild or pending
	)

	// RebuildDuration tracks how long a full collection rebuild takes
	RebuildDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "flowfund_rebuild_duration_seconds",
			Help:    "Duration of campaign collection rebuilds in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// CampaignsTracked is the size of the current campaign collection
	CampaignsTracked = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "flowfund_campaigns_tracked",
			Help: "Number of campaigns in the current collection",
		},
	)

	// BreakerState is the ledger reader circuit breaker state (0 closed, 1 half-open, 2 open)
	BreakerState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "flowfund_ledger_breaker_state",
			Help: "Ledger reader circuit breaker state: 0 closed, 1 half-open, 2 open",
		},
	)
)

// RecordActionDuration records the duration of an action request
func RecordActionDuration(action, status string, duration float64) {
	ActionDuration.WithLabelValues(action, status).Observe(duration)
}

// RecordFetchFailure counts one skipped snapshot fetch
func RecordFetchFailure(scan string) {
	FetchFailures.WithLabelValues(scan).Inc()
}

// RecordRebuild records a completed rebuild and the resulting collection size
func RecordRebuild(duration float64, size int) {
	RebuildDuration.Observe(duration)
	CampaignsTracked.Set(float64(size))
}

// SetBreakerState publishes the ledger reader circuit breaker state
func SetBreakerState(state float64) {
	BreakerState.Set(state)
}
