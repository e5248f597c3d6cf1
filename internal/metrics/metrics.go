package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SubmissionsTotal counts answer submissions by outcome
	SubmissionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trivia_submissions_total",
			Help: "Total number of answer submissions",
		},
		[]string{"result"}, // "correct", "incorrect", "rejected"
	)

	// FirstCorrectAwards counts first-correct claims committed
	FirstCorrectAwards = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "trivia_first_correct_awards_total",
			Help: "Total number of first-correct markers awarded",
		},
	)

	// TransactionRetries counts optimistic transaction retries after a version conflict
	TransactionRetries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "trivia_transaction_retries_total",
			Help: "Total number of transaction retries after a version conflict",
		},
	)

	// TransactionsExhausted counts transactions that gave up after the retry budget
	TransactionsExhausted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "trivia_transactions_exhausted_total",
			Help: "Total number of transactions that exhausted their retries",
		},
	)

	// HostActions counts host actions by action and result
	HostActions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trivia_host_actions_total",
			Help: "Total number of host actions",
		},
		[]string{"action", "result"},
	)

	// ActiveSubscriptions tracks open match subscriptions
	ActiveSubscriptions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "trivia_active_subscriptions",
			Help: "Number of open match subscriptions",
		},
	)

	// CacheHits counts question set cache hits
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trivia_question_set_cache_hits_total",
			Help: "Total number of question set cache hits",
		},
		[]string{"backend"},
	)

	// CacheMisses counts question set cache misses
	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trivia_question_set_cache_misses_total",
			Help: "Total number of question set cache misses",
		},
		[]string{"backend"},
	)

	// RequestDuration measures HTTP request duration
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "trivia_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"status", "method", "path"},
	)
)

// RecordHostAction records the outcome of a host action.
func RecordHostAction(action string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	HostActions.WithLabelValues(action, result).Inc()
}

// RecordRequest records the duration of an HTTP request.
func RecordRequest(status, method, path string, startTime time.Time) {
	RequestDuration.WithLabelValues(status, method, path).Observe(time.Since(startTime).Seconds())
}
