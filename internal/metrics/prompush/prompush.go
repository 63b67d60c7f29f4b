// Package prompush implements a Prometheus Pushgateway backend for the
// metrics package.
//
// Batch transforms are short-lived processes, so a scrape endpoint is the
// wrong shape; collected metrics are pushed to a Pushgateway at flush time
// instead. All Prometheus-specific dependencies stay inside this package so
// the pipelines depend only on the metrics.Backend abstraction.
package prompush

import (
	"fmt"

	"github.com/chboudry/finance/internal/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

// Backend is a Prometheus Pushgateway metrics backend.
type Backend struct {
	gatewayURL string // e.g. http://pushgateway:9091
	jobName    string // Pushgateway "job" group
	reg        *prometheus.Registry

	stepCounter  *prometheus.CounterVec // transform_step_total
	stepDuration *prometheus.SummaryVec // transform_step_duration_seconds

	rowsCounter  *prometheus.CounterVec // transform_rows_total
	sinksCounter *prometheus.CounterVec // transform_sinks_total
}

// NewBackend constructs a Pushgateway backend. jobName doubles as the
// Pushgateway "job" grouping key.
func NewBackend(jobName, gatewayURL string) (*Backend, error) {
	if gatewayURL == "" {
		return nil, fmt.Errorf("prompush: gateway URL is required")
	}
	if jobName == "" {
		jobName = "transform"
	}

	reg := prometheus.NewRegistry()

	stepCounter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "transform_step_total",
			Help: "Total pipeline step executions, partitioned by job, step, and status.",
		},
		[]string{"job", "step", "status"},
	)
	stepDuration := prometheus.NewSummaryVec(
		prometheus.SummaryOpts{
			Name: "transform_step_duration_seconds",
			Help: "Duration of pipeline steps in seconds.",
		},
		[]string{"job", "step", "status"},
	)
	rowsCounter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "transform_rows_total",
			Help: "Rows handled by the pipeline, partitioned by job and kind.",
		},
		[]string{"job", "kind"},
	)
	sinksCounter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "transform_sinks_total",
			Help: "Output sinks opened by the pipeline, partitioned by job.",
		},
		[]string{"job"},
	)

	for _, c := range []prometheus.Collector{stepCounter, stepDuration, rowsCounter, sinksCounter} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("prompush: register collector: %w", err)
		}
	}

	return &Backend{
		gatewayURL:   gatewayURL,
		jobName:      jobName,
		reg:          reg,
		stepCounter:  stepCounter,
		stepDuration: stepDuration,
		rowsCounter:  rowsCounter,
		sinksCounter: sinksCounter,
	}, nil
}

// IncCounter implements metrics.Backend. Unknown metric names are dropped;
// the caller-facing API is fixed in the metrics package.
func (b *Backend) IncCounter(name string, delta float64, labels metrics.Labels) {
	switch name {
	case "transform_step_total":
		b.stepCounter.With(stepLabels(labels)).Add(delta)
	case "transform_rows_total":
		b.rowsCounter.With(prometheus.Labels{
			"job":  labels["job"],
			"kind": labels["kind"],
		}).Add(delta)
	case "transform_sinks_total":
		b.sinksCounter.With(prometheus.Labels{
			"job": labels["job"],
		}).Add(delta)
	}
}

// ObserveHistogram implements metrics.Backend using a summary.
func (b *Backend) ObserveHistogram(name string, value float64, labels metrics.Labels) {
	if name == "transform_step_duration_seconds" {
		b.stepDuration.With(stepLabels(labels)).Observe(value)
	}
}

// Flush pushes all collected metrics to the Pushgateway.
func (b *Backend) Flush() error {
	if err := push.New(b.gatewayURL, b.jobName).Gatherer(b.reg).Push(); err != nil {
		return fmt.Errorf("prompush: push to %s: %w", b.gatewayURL, err)
	}
	return nil
}

func stepLabels(lbls metrics.Labels) prometheus.Labels {
	return prometheus.Labels{
		"job":    lbls["job"],
		"step":   lbls["step"],
		"status": lbls["status"],
	}
}
