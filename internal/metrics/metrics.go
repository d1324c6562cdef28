// Package metrics records stackql-exec invocations as Prometheus metrics.
//
// Actions runners are short lived, so nothing is served over HTTP. When
// STACKQL_EXEC_METRICS_FILE is set the registry is written in the text
// exposition format on exit, ready for a node_exporter textfile collector
// or an artifact upload.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder holds the invocation metrics on a private registry.
type Recorder struct {
	registry *prometheus.Registry

	invocations *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	authSetups  *prometheus.CounterVec
	builds      *prometheus.CounterVec
}

// New creates a Recorder with every metric registered.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,
		invocations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stackql_exec_invocations_total",
				Help: "Total number of stackql executions by mode and outcome class",
			},
			[]string{"mode", "class"},
		),
		duration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "stackql_exec_invocation_duration_seconds",
				Help:    "Duration of stackql executions in seconds",
				Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60, 300},
			},
			[]string{"mode"},
		),
		authSetups: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stackql_exec_auth_setups_total",
				Help: "Total number of auth setups by payload source",
			},
			[]string{"source"},
		),
		builds: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stackql_exec_builds_total",
				Help: "Total number of command builds by result",
			},
			[]string{"result"},
		),
	}
}

// ObserveInvocation records one finished execution.
func (r *Recorder) ObserveInvocation(mode, class string, duration time.Duration) {
	r.invocations.WithLabelValues(mode, class).Inc()
	r.duration.WithLabelValues(mode).Observe(duration.Seconds())
}

// RecordAuthSetup records where the auth payload came from. An empty
// source means auth setup was skipped.
func (r *Recorder) RecordAuthSetup(source string) {
	if source == "" {
		source = "none"
	}
	r.authSetups.WithLabelValues(source).Inc()
}

// RecordBuild records a command build attempt.
func (r *Recorder) RecordBuild(err error) {
	result := "success"
	if err != nil {
		result = "error"
	}
	r.builds.WithLabelValues(result).Inc()
}

// Gatherer exposes the registry.
func (r *Recorder) Gatherer() prometheus.Gatherer {
	return r.registry
}

// WriteFile writes all metrics to path. An empty path is a no-op.
func (r *Recorder) WriteFile(path string) error {
	if path == "" {
		return nil
	}
	return prometheus.WriteToTextfile(path, r.registry)
}
