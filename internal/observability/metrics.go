package observability

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters and gauges for one batch run. They
// are registered on a dedicated registry and written to a textfile at the end
// of the run instead of being scraped.
type Metrics struct {
	FilesRead       prometheus.Counter
	FilesSkipped    prometheus.Counter
	RowsIn          prometheus.Counter
	RowsValid       prometheus.Counter
	RowsQuarantined prometheus.Counter
	ConfigIssues    *prometheus.CounterVec // labels: severity={fatal,warning}
	ValuesChanged   *prometheus.CounterVec // labels: column
	PipelineRunning prometheus.Gauge
	LastRunSuccess  prometheus.Gauge

	// Stage timing.
	StageDuration *prometheus.GaugeVec // labels: stage

	registry *prometheus.Registry
}

const namespace = "disturbance_etl"

// NewMetrics creates all run metrics on a fresh registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		FilesRead: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "files_read_total",
			Help:      "Source files assembled into the batch.",
		}),
		FilesSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "files_skipped_total",
			Help:      "Source files skipped for format or header problems.",
		}),
		RowsIn: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_in_total",
			Help:      "Rows in the unioned table.",
		}),
		RowsValid: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_valid_total",
			Help:      "Rows written to the final typed table.",
		}),
		RowsQuarantined: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_quarantined_total",
			Help:      "Rows moved to quarantine by type coercion.",
		}),
		ConfigIssues: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "config_issues_total",
			Help:      "Rule table validation issues by severity.",
		}, []string{"severity"}),
		ValuesChanged: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "values_changed_total",
			Help:      "Distinct original values rewritten by normalization, by column.",
		}, []string{"column"}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pipeline_running",
			Help:      "1 while the batch is running, 0 when finished.",
		}),
		LastRunSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_success",
			Help:      "1 when the last run wrote its outputs, 0 otherwise.",
		}),
		StageDuration: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Wall time of each pipeline stage in the last run.",
		}, []string{"stage"}),
		registry: prometheus.NewRegistry(),
	}

	m.registry.MustRegister(
		m.FilesRead,
		m.FilesSkipped,
		m.RowsIn,
		m.RowsValid,
		m.RowsQuarantined,
		m.ConfigIssues,
		m.ValuesChanged,
		m.PipelineRunning,
		m.LastRunSuccess,
		m.StageDuration,
	)

	return m
}

// NewMetricsForTesting is NewMetrics; every instance already owns its registry.
func NewMetricsForTesting() *Metrics {
	return NewMetrics()
}

// Registry returns the registry the metrics are registered on.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// WriteTextfile writes the registry in the text exposition format, for the
// node exporter textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
