package exec

import (
	"sync/atomic"
	"time"
)

// MetricsCollector receives execution events.
// Implement this interface to integrate with monitoring systems like
// Prometheus (see package promexport).
type MetricsCollector interface {
	// RecordNodeExec is called after each node execution. kind is the plan
	// kind, rows the result cardinality.
	RecordNodeExec(kind string, rows uint64, duration time.Duration, err error)

	// RecordShortCircuit is called when a BitmapAnd stops early on an empty
	// intersection. skipped is the number of children not executed.
	RecordShortCircuit(skipped int)

	// RecordSubstitution is called when a similarity probe's output replaces
	// the accumulated candidates.
	RecordSubstitution()

	// RecordRescan is called for each node rescan. lazy is true when the
	// rescan was deferred to the next execution.
	RecordRescan(kind string, lazy bool)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordNodeExec(string, uint64, time.Duration, error) {}
func (NoopMetricsCollector) RecordShortCircuit(int)                             {}
func (NoopMetricsCollector) RecordSubstitution()                                {}
func (NoopMetricsCollector) RecordRescan(string, bool)                          {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and tests without external dependencies.
type BasicMetricsCollector struct {
	NodeExecCount  atomic.Int64
	NodeExecErrors atomic.Int64
	NodeExecNanos  atomic.Int64
	RowsProduced   atomic.Int64
	ShortCircuits  atomic.Int64
	SkippedNodes   atomic.Int64
	Substitutions  atomic.Int64
	Rescans        atomic.Int64
	LazyRescans    atomic.Int64
}

// RecordNodeExec implements MetricsCollector.
func (b *BasicMetricsCollector) RecordNodeExec(_ string, rows uint64, duration time.Duration, err error) {
	b.NodeExecCount.Add(1)
	b.NodeExecNanos.Add(duration.Nanoseconds())
	b.RowsProduced.Add(int64(rows))
	if err != nil {
		b.NodeExecErrors.Add(1)
	}
}

// RecordShortCircuit implements MetricsCollector.
func (b *BasicMetricsCollector) RecordShortCircuit(skipped int) {
	b.ShortCircuits.Add(1)
	b.SkippedNodes.Add(int64(skipped))
}

// RecordSubstitution implements MetricsCollector.
func (b *BasicMetricsCollector) RecordSubstitution() {
	b.Substitutions.Add(1)
}

// RecordRescan implements MetricsCollector.
func (b *BasicMetricsCollector) RecordRescan(_ string, lazy bool) {
	b.Rescans.Add(1)
	if lazy {
		b.LazyRescans.Add(1)
	}
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	stats := BasicMetricsStats{
		NodeExecCount:  b.NodeExecCount.Load(),
		NodeExecErrors: b.NodeExecErrors.Load(),
		RowsProduced:   b.RowsProduced.Load(),
		ShortCircuits:  b.ShortCircuits.Load(),
		SkippedNodes:   b.SkippedNodes.Load(),
		Substitutions:  b.Substitutions.Load(),
		Rescans:        b.Rescans.Load(),
		LazyRescans:    b.LazyRescans.Load(),
	}
	if stats.NodeExecCount > 0 {
		stats.NodeExecAvgNanos = b.NodeExecNanos.Load() / stats.NodeExecCount
	}
	return stats
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	NodeExecCount    int64
	NodeExecErrors   int64
	NodeExecAvgNanos int64
	RowsProduced     int64
	ShortCircuits    int64
	SkippedNodes     int64
	Substitutions    int64
	Rescans          int64
	LazyRescans      int64
}
