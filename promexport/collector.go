// Package promexport exports executor metrics to Prometheus.
package promexport

import (
	"strconv"
	"time"

	"github.com/hupe1980/vecand/exec"
	"github.com/prometheus/client_golang/prometheus"
)

// Collector implements exec.MetricsCollector on Prometheus metrics.
type Collector struct {
	nodeLatency   *prometheus.HistogramVec
	nodeRows      *prometheus.CounterVec
	nodeErrors    *prometheus.CounterVec
	shortCircuits prometheus.Counter
	skippedNodes  prometheus.Counter
	substitutions prometheus.Counter
	rescans       *prometheus.CounterVec
}

var _ exec.MetricsCollector = (*Collector)(nil)

// New creates a collector and registers its metrics with reg. A nil reg
// skips registration.
func New(reg prometheus.Registerer, namespace string) (*Collector, error) {
	c := &Collector{
		nodeLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "node_exec_duration_seconds",
			Help:      "Latency of plan node executions.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"kind"}),
		nodeRows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "node_rows_total",
			Help:      "Candidate rows produced by plan nodes.",
		}, []string{"kind"}),
		nodeErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "node_errors_total",
			Help:      "Failed plan node executions.",
		}, []string{"kind"}),
		shortCircuits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bitmap_and_short_circuits_total",
			Help:      "BitmapAnd executions stopped early by an empty intersection.",
		}),
		skippedNodes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bitmap_and_skipped_children_total",
			Help:      "Children not executed because of a short circuit.",
		}),
		substitutions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bitmap_and_substitutions_total",
			Help:      "Similarity probe outputs that replaced the accumulated candidates.",
		}),
		rescans: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "node_rescans_total",
			Help:      "Plan node rescans.",
		}, []string{"kind", "lazy"}),
	}

	if reg != nil {
		for _, m := range c.collectors() {
			if err := reg.Register(m); err != nil {
				return nil, err
			}
		}
	}
	return c, nil
}

func (c *Collector) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		c.nodeLatency,
		c.nodeRows,
		c.nodeErrors,
		c.shortCircuits,
		c.skippedNodes,
		c.substitutions,
		c.rescans,
	}
}

// RecordNodeExec implements exec.MetricsCollector.
func (c *Collector) RecordNodeExec(kind string, rows uint64, d time.Duration, err error) {
	c.nodeLatency.WithLabelValues(kind).Observe(d.Seconds())
	if err != nil {
		c.nodeErrors.WithLabelValues(kind).Inc()
		return
	}
	c.nodeRows.WithLabelValues(kind).Add(float64(rows))
}

// RecordShortCircuit implements exec.MetricsCollector.
func (c *Collector) RecordShortCircuit(skipped int) {
	c.shortCircuits.Inc()
	c.skippedNodes.Add(float64(skipped))
}

// RecordSubstitution implements exec.MetricsCollector.
func (c *Collector) RecordSubstitution() {
	c.substitutions.Inc()
}

// RecordRescan implements exec.MetricsCollector.
func (c *Collector) RecordRescan(kind string, lazy bool) {
	c.rescans.WithLabelValues(kind, strconv.FormatBool(lazy)).Inc()
}
