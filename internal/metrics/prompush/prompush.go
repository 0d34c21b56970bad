// Package prompush implements a Prometheus Pushgateway backend for the
// metrics package.
//
// The transfer job is a short-lived batch process, so it cannot expose a
// scrape endpoint; instead metrics accumulate in a private registry and are
// pushed to a Pushgateway at the end of the run. All Prometheus-specific
// dependencies stay inside this package.
package prompush

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"

	"scantransfer/internal/metrics"
)

// Backend is a Prometheus Pushgateway metrics backend.
type Backend struct {
	gatewayURL string
	jobName    string
	reg        *prometheus.Registry

	stepCounter  *prometheus.CounterVec // transfer_step_total
	stepDuration *prometheus.SummaryVec // transfer_step_duration_seconds

	recordCounter *prometheus.CounterVec // transfer_records_total
	fileCounter   *prometheus.CounterVec // transfer_files_total
}

// NewBackend constructs a Pushgateway backend. jobName becomes the
// Pushgateway "job" grouping key; gatewayURL is the server base URL.
func NewBackend(jobName, gatewayURL string) (*Backend, error) {
	if gatewayURL == "" {
		return nil, fmt.Errorf("prompush: gateway URL is required")
	}
	if jobName == "" {
		jobName = "scantransfer"
	}

	reg := prometheus.NewRegistry()

	stepCounter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "transfer_step_total",
			Help: "Pipeline step executions, partitioned by step and status.",
		},
		[]string{"step", "status"},
	)
	stepDuration := prometheus.NewSummaryVec(
		prometheus.SummaryOpts{
			Name:       "transfer_step_duration_seconds",
			Help:       "Pipeline step duration in seconds, partitioned by step and status.",
			Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001},
		},
		[]string{"step", "status"},
	)
	recordCounter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "transfer_records_total",
			Help: "Record counts per kind (parsed, skipped, clean, invalid, loaded).",
		},
		[]string{"kind"},
	)
	fileCounter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "transfer_files_total",
			Help: "Report files handled, partitioned by status.",
		},
		[]string{"status"},
	)

	for _, c := range []prometheus.Collector{stepCounter, stepDuration, recordCounter, fileCounter} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("prompush: register collector: %w", err)
		}
	}

	return &Backend{
		gatewayURL:    gatewayURL,
		jobName:       jobName,
		reg:           reg,
		stepCounter:   stepCounter,
		stepDuration:  stepDuration,
		recordCounter: recordCounter,
		fileCounter:   fileCounter,
	}, nil
}

// IncCounter maps the abstract counter names onto the registered collectors.
// The "job" label is dropped here: the Pushgateway grouping key carries it.
func (b *Backend) IncCounter(name string, delta float64, labels metrics.Labels) {
	switch name {
	case "transfer_step_total":
		b.stepCounter.WithLabelValues(labels["step"], labels["status"]).Add(delta)
	case "transfer_records_total":
		b.recordCounter.WithLabelValues(labels["kind"]).Add(delta)
	case "transfer_files_total":
		b.fileCounter.WithLabelValues(labels["status"]).Add(delta)
	default:
		// unknown metric name: ignore
	}
}

func (b *Backend) ObserveDuration(name string, value float64, labels metrics.Labels) {
	if name != "transfer_step_duration_seconds" {
		return
	}
	b.stepDuration.WithLabelValues(labels["step"], labels["status"]).Observe(value)
}

// Flush pushes the registry to the Pushgateway.
func (b *Backend) Flush() error {
	return push.New(b.gatewayURL, b.jobName).
		Gatherer(b.reg).
		Push()
}
