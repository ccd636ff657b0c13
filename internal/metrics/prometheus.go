package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ArticlesTotal counts articles passing each pipeline stage.
	ArticlesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "newsclip",
			Name:      "articles_total",
			Help:      "Articles seen at each pipeline stage",
		},
		[]string{"stage"},
	)

	// OracleCallsTotal counts oracle requests by operation and outcome.
	OracleCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "newsclip",
			Name:      "oracle_calls_total",
			Help:      "Oracle requests by operation and outcome",
		},
		[]string{"op", "outcome"},
	)

	// RunDuration measures whole pipeline runs.
	RunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "newsclip",
			Name:      "run_duration_seconds",
			Help:      "Duration of pipeline runs in seconds",
			Buckets:   []float64{10, 30, 60, 120, 300, 600, 1200, 1800},
		},
	)

	// RunErrors counts runs that ended with an error.
	RunErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "newsclip",
			Name:      "run_errors_total",
			Help:      "Pipeline runs that failed",
		},
	)
)

// Articles adds n to the counter of stage.
func Articles(stage string, n int) {
	if n <= 0 {
		return
	}
	ArticlesTotal.WithLabelValues(stage).Add(float64(n))
}

// OracleCall records one oracle request outcome.
func OracleCall(op, outcome string) {
	OracleCallsTotal.WithLabelValues(op, outcome).Inc()
}
