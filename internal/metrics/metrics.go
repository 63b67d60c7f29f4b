// Package metrics provides a small, backend-agnostic abstraction for
// recording operational metrics from the transform pipelines.
//
// The package exposes a narrow Backend interface (counters plus timing
// observations) behind a pluggable global that defaults to a no-op, so
// metric calls are always safe even when no real backend is configured.
// Concrete systems (Prometheus Pushgateway, Datadog) live in subpackages;
// the rest of the codebase depends only on this interface.
package metrics

import "time"

// Labels are string key/value pairs attached to a metric.
type Labels map[string]string

// Backend is the minimal interface for metrics backends.
type Backend interface {
	// IncCounter increments a counter by delta.
	IncCounter(name string, delta float64, labels Labels)
	// ObserveHistogram records a value in a latency/duration style metric.
	ObserveHistogram(name string, value float64, labels Labels)
	// Flush pushes buffered metrics if the backend needs it (e.g. Pushgateway).
	Flush() error
}

type nopBackend struct{}

func (nopBackend) IncCounter(string, float64, Labels)       {}
func (nopBackend) ObserveHistogram(string, float64, Labels) {}
func (nopBackend) Flush() error                             { return nil }

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

// RecordStep measures one pipeline stage: latency plus success/failure.
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
	backend.IncCounter("transform_step_total", 1, lbls)
	backend.ObserveHistogram("transform_step_duration_seconds", d.Seconds(), lbls)
}

// RecordRows increments a row-level counter for the given job and kind.
//
// Typical kinds mirror the pipeline stats fields:
//   - "processed"
//   - "skipped"
//   - "node_rows"
//   - "rel_rows"
func RecordRows(job, kind string, delta int64) {
	if delta <= 0 {
		return
	}
	backend.IncCounter("transform_rows_total", float64(delta), Labels{
		"job":  job,
		"kind": kind,
	})
}

// RecordSinks records how many output sinks a run opened.
func RecordSinks(job string, delta int64) {
	if delta <= 0 {
		return
	}
	backend.IncCounter("transform_sinks_total", float64(delta), Labels{
		"job": job,
	})
}
