package vecand

import "github.com/hupe1980/vecand/exec"

// MetricsCollector receives execution events from every node of every query.
// Implement this interface to integrate with monitoring systems, or use
// promexport.Collector for Prometheus.
type MetricsCollector = exec.MetricsCollector

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
type NoopMetricsCollector = exec.NoopMetricsCollector

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector = exec.BasicMetricsCollector

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats = exec.BasicMetricsStats
