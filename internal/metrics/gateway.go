package metrics

import (
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "sbrf"

// GatewayMetrics counts gateway calls by operation and outcome and tracks their latency.
// It satisfies sbrf.Recorder.
type GatewayMetrics struct {
	Requests *prometheus.CounterVec
	Duration *prometheus.HistogramVec
}

// NewGatewayMetrics registers the collectors on reg, or on the default registerer when reg is nil.
// Collectors already registered under the same names are reused.
func NewGatewayMetrics(reg prometheus.Registerer) *GatewayMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &GatewayMetrics{
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "gateway",
			Name:      "requests_total",
			Help:      "Total number of payment gateway calls by operation and outcome.",
		}, []string{"operation", "outcome"}),
		Duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "gateway",
			Name:      "request_duration_seconds",
			Help:      "Payment gateway call latency in seconds.",
			Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		}, []string{"operation"}),
	}
	m.Requests = mustRegister(reg, m.Requests)
	m.Duration = mustRegister(reg, m.Duration)
	return m
}

func (m *GatewayMetrics) ObserveCall(operation, outcome string, elapsed time.Duration) {
	m.Requests.WithLabelValues(operation, outcome).Inc()
	if elapsed > 0 {
		m.Duration.WithLabelValues(operation).Observe(elapsed.Seconds())
	}
}

func mustRegister[C prometheus.Collector](reg prometheus.Registerer, c C) C {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing
			}
		}
		panic(fmt.Errorf("register collector: %w", err))
	}
	return c
}
