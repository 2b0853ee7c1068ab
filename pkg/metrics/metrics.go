// Package metrics defines the sink the storage layer reports into. The
// sink is injected at construction so nothing in the repo depends on
// process-global collector state.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	statusSuccess = "success"
	statusError   = "error"
)

// Sink receives storage-level observations.
type Sink interface {
	// RecordOperation reports one completed storage operation.
	RecordOperation(operation string, success bool, duration time.Duration)

	// BlockingStarted / BlockingFinished bracket an operation dispatched
	// onto the blocking pool. Finished must be called exactly once per
	// Started, including on error or cancellation.
	BlockingStarted(operation string)
	BlockingFinished(operation string)
}

// Prometheus is the production Sink.
type Prometheus struct {
	operationsTotal   *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec
	blockingInFlight  *prometheus.GaugeVec
}

// NewPrometheus creates and registers all storage metrics against the
// given registerer.
func NewPrometheus(reg prometheus.Registerer) *Prometheus {
	factory := promauto.With(reg)

	return &Prometheus{
		operationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "skulddb_storage_operations_total",
				Help: "Total number of storage operations",
			},
			[]string{"operation", "status"},
		),

		operationDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "skulddb_storage_operation_duration_seconds",
				Help:    "Storage operation duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),

		blockingInFlight: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "skulddb_blocking_operations_in_flight",
				Help: "Number of storage operations currently occupying a blocking slot",
			},
			[]string{"operation"},
		),
	}
}

// RecordOperation reports one completed storage operation.
func (p *Prometheus) RecordOperation(operation string, success bool, duration time.Duration) {
	status := statusSuccess
	if !success {
		status = statusError
	}

	p.operationsTotal.WithLabelValues(operation, status).Inc()
	p.operationDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// BlockingStarted increments the in-flight gauge for an operation.
func (p *Prometheus) BlockingStarted(operation string) {
	p.blockingInFlight.WithLabelValues(operation).Inc()
}

// BlockingFinished decrements the in-flight gauge for an operation.
func (p *Prometheus) BlockingFinished(operation string) {
	p.blockingInFlight.WithLabelValues(operation).Dec()
}

// Nop discards all observations.
type Nop struct{}

func (Nop) RecordOperation(string, bool, time.Duration) {}
func (Nop) BlockingStarted(string)                      {}
func (Nop) BlockingFinished(string)                     {}
