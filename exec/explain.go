package exec

import (
	"fmt"
	"io"
	"strings"
)

type explainOptions struct {
	timing bool
}

// ExplainOption configures Explain.
type ExplainOption func(*explainOptions)

// WithTiming adds the accumulated wall time of each node.
func WithTiming() ExplainOption {
	return func(o *explainOptions) { o.timing = true }
}

// Explain writes the executed tree with per-node statistics, children in
// their current execution order.
func Explain(w io.Writer, node Node, optFns ...ExplainOption) error {
	var opts explainOptions
	for _, fn := range optFns {
		fn(&opts)
	}

	var b strings.Builder
	explainNode(&b, node, 0, opts)
	_, err := io.WriteString(w, b.String())
	return err
}

func explainNode(b *strings.Builder, node Node, depth int, opts explainOptions) {
	if depth > 0 {
		b.WriteString(strings.Repeat("  ", depth))
		b.WriteString("-> ")
	}

	in := node.Instrumentation()
	stats := []string{
		fmt.Sprintf("loops=%d", in.Loops),
		fmt.Sprintf("rows=%d", in.Rows),
	}
	if in.Rescans > 0 {
		stats = append(stats, fmt.Sprintf("rescans=%d", in.Rescans))
	}

	switch n := node.(type) {
	case *BitmapAnd:
		b.WriteString("BitmapAnd")
		if n.plan.Similarity != nil {
			fmt.Fprintf(b, " (limit=%d", n.plan.Limit)
			if n.plan.Similarity.MaxDistance > 0 {
				fmt.Fprintf(b, ", max_distance=%g", n.plan.Similarity.MaxDistance)
			}
			b.WriteString(")")
		}
		if n.ShortCircuits > 0 {
			stats = append(stats, fmt.Sprintf("short_circuits=%d", n.ShortCircuits))
		}
		if n.Substitutions > 0 {
			stats = append(stats, fmt.Sprintf("substitutions=%d", n.Substitutions))
		}
	case *BitmapIndexScan:
		fs := n.plan.Filters
		if n.bound != nil {
			fs = n.bound
		}
		fmt.Fprintf(b, "BitmapIndexScan on %s: %s", n.plan.Index, fs)
	case *SimilarityScan:
		fmt.Fprintf(b, "SimilarityScan on %s (k=%d)", n.plan.Index, n.plan.K)
		stats = append(stats, fmt.Sprintf("scanned=%d", n.RowsScanned))
	default:
		b.WriteString(kindOf(node))
	}

	if opts.timing {
		stats = append(stats, fmt.Sprintf("time=%s", in.Total))
	}
	fmt.Fprintf(b, " (%s)\n", strings.Join(stats, " "))

	for _, c := range node.Children() {
		explainNode(b, c, depth+1, opts)
	}
}
