package exec

import (
	"context"
	"fmt"
	"unsafe"

	"github.com/hupe1980/vecand/candidate"
	"github.com/hupe1980/vecand/index/flat"
	"github.com/hupe1980/vecand/internal/queue"
	"github.com/hupe1980/vecand/model"
	"github.com/hupe1980/vecand/plan"
)

// SimilarityScan is a top-K nearest neighbor probe over a flat vector index.
//
// Run through MultiExec it returns the plan's K nearest rows. Run by a
// BitmapAnd it follows the SimilarityClause it is given.
type SimilarityScan struct {
	nodeBase

	plan  *plan.SimilarityScan
	index *flat.Index
	ended bool

	// LastHits holds the ranked hits of the last execution.
	LastHits []model.SearchResult
	// RowsScanned is the total number of rows compared.
	RowsScanned int64
}

var (
	_ Node            = (*SimilarityScan)(nil)
	_ SimilarityProbe = (*SimilarityScan)(nil)
)

// itemBytes is the heap cost of one collected hit.
const itemBytes = int64(unsafe.Sizeof(queue.Item{}))

// InitSimilarityScan resolves the vector index and checks the query.
func InitSimilarityScan(p *plan.SimilarityScan, state *State, flags Flags) (*SimilarityScan, error) {
	if flags&(FlagBackward|FlagMark) != 0 {
		return nil, fmt.Errorf("%w: SimilarityScan does not support backward scan or mark/restore", ErrUnsupportedFlags)
	}
	if state.Catalog == nil {
		return nil, fmt.Errorf("%w: %s (no catalog)", ErrUnknownIndex, p.Index)
	}
	idx, ok := state.Catalog.VectorIndex(p.Index)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownIndex, p.Index)
	}
	if len(p.Query) != idx.Dimension() {
		return nil, fmt.Errorf("SimilarityScan %s: %w: expected %d, got %d",
			p.Index, flat.ErrDimensionMismatch, idx.Dimension(), len(p.Query))
	}

	return &SimilarityScan{
		nodeBase: nodeBase{state: state},
		plan:     p,
		index:    idx,
	}, nil
}

// Plan implements Node.
func (n *SimilarityScan) Plan() plan.Node { return n.plan }

// Children implements Node.
func (n *SimilarityScan) Children() []Node { return nil }

// MultiExec implements Node. It runs without a clause: the plan's K nearest
// rows, unfiltered, in a fresh set.
func (n *SimilarityScan) MultiExec(ctx context.Context) (any, error) {
	return n.MultiExecSimilarity(ctx, nil)
}

// MultiExecSimilarity implements SimilarityProbe.
//
// ResultLimit -1 returns every row, 0 the plan's K and a positive value that
// many rows. With CheckAgainstCandidates only members of ResultSink are
// considered and ResultSink itself is narrowed to the hits and returned.
// Otherwise the hits are returned in a fresh set.
func (n *SimilarityScan) MultiExecSimilarity(ctx context.Context, clause *SimilarityClause) (any, error) {
	opts := flat.SearchOptions{K: n.plan.K}
	var sink *candidate.Set

	if clause != nil {
		switch {
		case clause.ResultLimit < 0:
			opts.K = flat.All
		case clause.ResultLimit > 0:
			opts.K = clause.ResultLimit
		}
		opts.MaxDistance = clause.MaxDistance
		if clause.CheckAgainstCandidates && clause.ResultSink != nil {
			sink = clause.ResultSink
			opts.Filter = sink
		}
	}

	ctrl := n.state.Controller
	if ctrl != nil {
		opts.Throttle = ctrl.WaitScanRows
	}

	// Reserve the worst-case heap for the hits.
	rows := n.index.Len()
	if sink != nil {
		rows = min(rows, int(sink.Cardinality()))
	}
	if opts.K > 0 {
		rows = min(rows, opts.K)
	}
	reserve := int64(rows) * itemBytes
	if err := ctrl.AcquireMemory(ctx, reserve); err != nil {
		return nil, fmt.Errorf("SimilarityScan %s: reserve memory: %w", n.plan.Index, err)
	}
	defer ctrl.ReleaseMemory(reserve)

	hits, stats, err := n.index.Search(ctx, n.plan.Query, opts)
	n.RowsScanned += int64(stats.RowsScanned)
	if err != nil {
		return nil, fmt.Errorf("SimilarityScan %s: %w", n.plan.Index, err)
	}
	n.LastHits = hits

	out := sink
	if out == nil {
		out = candidate.New(n.state.workMem())
	} else {
		out.Clear()
	}
	for _, h := range hits {
		out.Add(h.ID)
	}
	return out, nil
}

// ReScan implements Node. The probe has no parameter-dependent state.
func (n *SimilarityScan) ReScan(context.Context) error {
	n.LastHits = nil
	return nil
}

// End implements Node.
func (n *SimilarityScan) End() {
	if n.ended {
		return
	}
	n.ended = true
	n.index = nil
	n.LastHits = nil
}
