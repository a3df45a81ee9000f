package metrics

import (
	"context"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	lifecycleEventsTotal *prometheus.CounterVec

	// Registration guard
	promOnce       sync.Once
	promRegistered bool
)

// InitPrometheus initializes the Prometheus mirror of the lifecycle counters.
// This should be called once at startup if the metrics endpoint is enabled.
func InitPrometheus() {
	promOnce.Do(func() {
		lifecycleEventsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "secretkeeper_lifecycle_events_total",
				Help: "Total number of secret lifecycle events by counter name",
			},
			[]string{"event"},
		)
		promRegistered = true
	})
}

// PrometheusEmitter mirrors counter events into the process-local Prometheus
// registry so local operation is observable without a CloudWatch sink.
// Counters are lazily registered via InitPrometheus; emitting before that is
// a no-op.
type PrometheusEmitter struct{}

// NewPrometheusEmitter creates a new PrometheusEmitter instance.
func NewPrometheusEmitter() *PrometheusEmitter {
	return &PrometheusEmitter{}
}

// EmitCount increments the mirrored counter. Never fails.
func (p *PrometheusEmitter) EmitCount(ctx context.Context, name string) error {
	if !promRegistered || lifecycleEventsTotal == nil {
		return nil
	}
	lifecycleEventsTotal.WithLabelValues(name).Inc()
	return nil
}
