// Package metrics provides run metrics for Canopy using Prometheus. A batch
// job has no scrape endpoint, so each run owns a registry whose contents
// are exported once the run ends, either to a node exporter textfile or to
// a Pushgateway.
//
// # Basic Usage
//
//	collector := metrics.NewCollector("sf_tree_distribution")
//	collector.SetInputRows(table.Len())
//
//	timer := metrics.NewTimer("extract")
//	table, err := load(ctx)
//	collector.ObserveStage(timer.Name(), timer.Stop())
//
//	collector.RecordAnalysis("address_with_most_trees", metrics.StatusSucceeded)
//	_ = collector.WriteTextfile("/var/lib/node_exporter/canopy.prom")
//
// # Metrics
//
//   - canopy_input_rows: rows loaded by the extract stage
//   - canopy_analysis_runs_total{analysis,status}: analysis outcomes
//   - canopy_stage_duration_seconds{stage}: time spent per stage
//   - canopy_result_rows{analysis}: rows of each result table
package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/push"
)

// Analysis outcomes used as the status label
const (
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
	StatusSkipped   = "skipped"
)

// Collector holds the metrics of one pipeline run. It is safe for
// concurrent use by the analysis workers.
type Collector struct {
	job           string
	registry      *prometheus.Registry
	inputRows     prometheus.Gauge
	analysisRuns  *prometheus.CounterVec
	stageDuration *prometheus.HistogramVec
	resultRows    *prometheus.GaugeVec
}

// NewCollector creates a collector with a fresh registry. job becomes the
// Pushgateway grouping key.
func NewCollector(job string) *Collector {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Collector{
		job:      job,
		registry: registry,
		inputRows: factory.NewGauge(prometheus.GaugeOpts{
			Name: "canopy_input_rows",
			Help: "Rows loaded from the input dataset",
		}),
		analysisRuns: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "canopy_analysis_runs_total",
				Help: "Analysis runs by outcome",
			},
			[]string{"analysis", "status"},
		),
		stageDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "canopy_stage_duration_seconds",
				Help: "Duration of pipeline stages in seconds",
				Buckets: []float64{
					0.001, // in-memory queries on small inputs
					0.01,
					0.1,
					1,
					10, // full city dataset extract
					60,
					300,
				},
			},
			[]string{"stage"},
		),
		resultRows: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "canopy_result_rows",
				Help: "Rows in each analysis result",
			},
			[]string{"analysis"},
		),
	}
}

// Registry returns the registry holding the run's metrics
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// SetInputRows records the size of the extracted table
func (c *Collector) SetInputRows(n int) {
	c.inputRows.Set(float64(n))
}

// RecordAnalysis counts one analysis outcome
func (c *Collector) RecordAnalysis(analysis, status string) {
	c.analysisRuns.WithLabelValues(analysis, status).Inc()
}

// ObserveStage records the duration of one stage execution
func (c *Collector) ObserveStage(stage string, d time.Duration) {
	c.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

// SetResultRows records the size of an analysis result
func (c *Collector) SetResultRows(analysis string, n int) {
	c.resultRows.WithLabelValues(analysis).Set(float64(n))
}

// WriteTextfile writes the registry in text exposition format, atomically
// replacing path.
func (c *Collector) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, c.registry)
}

// Push sends the registry to the Pushgateway at url, replacing the previous
// push of the same job.
func (c *Collector) Push(ctx context.Context, url string) error {
	return push.New(url, c.job).Gatherer(c.registry).PushContext(ctx)
}

// Timer provides a simple timing mechanism for measuring operation durations.
type Timer struct {
	name  string
	start time.Time
}

// NewTimer creates a new timer and starts timing immediately.
func NewTimer(name string) *Timer {
	return &Timer{
		name:  name,
		start: time.Now(),
	}
}

// Name returns the timed operation
func (t *Timer) Name() string {
	return t.name
}

// Stop returns the elapsed time since the timer was created
func (t *Timer) Stop() time.Duration {
	return time.Since(t.start)
}
