// Package metrics provides a small, backend-agnostic abstraction for
// recording operational metrics from the transfer job.
//
// It exposes a narrow Backend interface around counters and duration
// observations, with a global pluggable backend that defaults to a no-op, so
// instrumentation calls are always safe even when no backend is configured.
// Concrete metric systems (Prometheus Pushgateway, Datadog) live in
// subpackages and the rest of the codebase depends only on this interface.
package metrics

import "time"

// Labels are string key/value pairs attached to a metric.
type Labels map[string]string

// Backend is the minimal interface for metrics backends.
type Backend interface {
	// IncCounter increments a counter by delta.
	IncCounter(name string, delta float64, labels Labels)
	// ObserveDuration records a value in a latency style metric.
	ObserveDuration(name string, value float64, labels Labels)
	// Flush pushes metrics if the backend needs it (e.g. Pushgateway).
	Flush() error
}

// nopBackend is used by default so metrics are optional.
type nopBackend struct{}

func (nopBackend) IncCounter(name string, delta float64, labels Labels)      {}
func (nopBackend) ObserveDuration(name string, value float64, labels Labels) {}
func (nopBackend) Flush() error                                              { return nil }

var backend Backend = nopBackend{}

// SetBackend installs a concrete backend. Passing nil keeps the existing one.
func SetBackend(b Backend) {
	if b == nil {
		return
	}
	backend = b
}

// Flush delegates to the current backend.
func Flush() error {
	return backend.Flush()
}

// RecordStep measures latency and success/failure for one pipeline step
// (download, parse, validate, load) of one job run.
func RecordStep(job, step string, err error, d time.Duration) {
	status := "success"
	if err != nil {
		status = "failure"
	}

	lbls := Labels{
		"job":    job,
		"step":   step,
		"status": status,
	}

	backend.IncCounter("transfer_step_total", 1, lbls)
	backend.ObserveDuration("transfer_step_duration_seconds", d.Seconds(), lbls)
}

// RecordRow increments a record-level counter for the given job and kind.
//
// Kinds mirror the per-file summary fields:
//   - "parsed"
//   - "skipped"
//   - "clean"
//   - "invalid"
//   - "loaded"
func RecordRow(job, kind string, delta int64) {
	if delta <= 0 {
		return
	}
	backend.IncCounter("transfer_records_total", float64(delta), Labels{
		"job":  job,
		"kind": kind,
	})
}

// RecordFile counts report files handled by the given job.
func RecordFile(job, status string, delta int64) {
	if delta <= 0 {
		return
	}
	backend.IncCounter("transfer_files_total", float64(delta), Labels{
		"job":    job,
		"status": status,
	})
}
