package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// QueryMetrics observes aggregation pipeline executions. It satisfies
// query.AggregateObserver.
type QueryMetrics struct {
	duration *prometheus.HistogramVec
	total    *prometheus.CounterVec
}

// NewQueryMetrics creates query metrics, or nil when metrics are disabled.
// A nil instance records nothing at zero cost.
func NewQueryMetrics() *QueryMetrics {
	if !IsEnabled() {
		return nil
	}
	reg := GetRegistry()

	return &QueryMetrics{
		duration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "drinkscout_aggregation_duration_seconds",
				Help:    "Duration of MongoDB aggregation pipelines by collection",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"collection"},
		),
		total: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "drinkscout_aggregations_total",
				Help: "Total number of executed aggregation pipelines by collection",
			},
			[]string{"collection"},
		),
	}
}

// ObserveAggregate records one pipeline execution.
func (m *QueryMetrics) ObserveAggregate(collection string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.duration.WithLabelValues(collection).Observe(elapsed.Seconds())
	m.total.WithLabelValues(collection).Inc()
}
