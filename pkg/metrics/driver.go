package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// DriverMetrics observes resource driver lifecycle events.
type DriverMetrics struct {
	initTotal    *prometheus.CounterVec
	initDuration *prometheus.HistogramVec
	healthy      *prometheus.GaugeVec
}

// NewDriverMetrics creates driver metrics, or nil when metrics are
// disabled. A nil instance records nothing at zero cost.
func NewDriverMetrics() *DriverMetrics {
	if !IsEnabled() {
		return nil
	}
	reg := GetRegistry()

	return &DriverMetrics{
		initTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "drinkscout_driver_initializations_total",
				Help: "Driver initialization attempts by driver and outcome",
			},
			[]string{"driver", "outcome"}, // outcome: "success" | "error"
		),
		initDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "drinkscout_driver_initialization_duration_seconds",
				Help:    "Duration of driver initializations by driver",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"driver"},
		),
		healthy: promauto.With(reg).NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "drinkscout_driver_healthy",
				Help: "Driver health from the latest healthcheck (1 healthy, 0 unhealthy)",
			},
			[]string{"driver"},
		),
	}
}

// RecordInit records one initialization attempt.
func (m *DriverMetrics) RecordInit(driver string, elapsed time.Duration, err error) {
	if m == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	m.initTotal.WithLabelValues(driver, outcome).Inc()
	m.initDuration.WithLabelValues(driver).Observe(elapsed.Seconds())
}

// SetHealth publishes the latest healthcheck results.
func (m *DriverMetrics) SetHealth(health map[string]bool) {
	if m == nil {
		return
	}
	for driver, ok := range health {
		value := 0.0
		if ok {
			value = 1.0
		}
		m.healthy.WithLabelValues(driver).Set(value)
	}
}
