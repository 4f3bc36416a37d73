package exec

import (
	"time"
)

// Instrumentation accumulates per-node execution statistics, reported by
// Explain.
type Instrumentation struct {
	// Loops counts completed executions.
	Loops int64
	// Rows is the total cardinality of all results produced.
	Rows uint64
	// Total is the wall time spent inside the node, children included.
	Total time.Duration
	// Rescans counts ReScan calls, LazyRescans those triggered by MultiExec.
	Rescans     int64
	LazyRescans int64

	start time.Time
}

func (in *Instrumentation) startNode() {
	in.start = time.Now()
}

func (in *Instrumentation) stopNode(rows uint64) time.Duration {
	d := time.Since(in.start)
	in.Loops++
	in.Rows += rows
	in.Total += d
	return d
}
