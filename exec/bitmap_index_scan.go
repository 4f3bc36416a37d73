package exec

import (
	"context"
	"fmt"

	"github.com/hupe1980/vecand/metadata"
	"github.com/hupe1980/vecand/plan"
)

// BitmapIndexScan evaluates a conjunction of metadata predicates and returns
// the matching rows as a fresh candidate set.
//
// Predicates that reference parameters are bound on rescan (runtime keys).
// The first execution binds them if no rescan happened yet.
type BitmapIndexScan struct {
	nodeBase

	plan  *plan.BitmapIndexScan
	index *metadata.Index

	bound     *metadata.FilterSet
	keysReady bool
	ended     bool
}

var _ Node = (*BitmapIndexScan)(nil)

// InitBitmapIndexScan resolves the scanned index.
func InitBitmapIndexScan(p *plan.BitmapIndexScan, state *State, flags Flags) (*BitmapIndexScan, error) {
	if flags&(FlagBackward|FlagMark) != 0 {
		return nil, fmt.Errorf("%w: BitmapIndexScan does not support backward scan or mark/restore", ErrUnsupportedFlags)
	}
	if err := p.Filters.Validate(); err != nil {
		return nil, err
	}
	if state.Catalog == nil {
		return nil, fmt.Errorf("%w: %s (no catalog)", ErrUnknownIndex, p.Index)
	}
	idx, ok := state.Catalog.MetadataIndex(p.Index)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownIndex, p.Index)
	}

	n := &BitmapIndexScan{
		nodeBase: nodeBase{state: state},
		plan:     p,
		index:    idx,
	}
	if len(p.Filters.Params()) == 0 {
		n.bound = p.Filters
		n.keysReady = true
	}
	return n, nil
}

// Plan implements Node.
func (n *BitmapIndexScan) Plan() plan.Node { return n.plan }

// Children implements Node.
func (n *BitmapIndexScan) Children() []Node { return nil }

// BoundFilters returns the predicates used by the last execution, or nil
// before the first one.
func (n *BitmapIndexScan) BoundFilters() *metadata.FilterSet { return n.bound }

// MultiExec implements Node.
func (n *BitmapIndexScan) MultiExec(ctx context.Context) (any, error) {
	if !n.keysReady {
		if err := n.ReScan(ctx); err != nil {
			return nil, err
		}
	}

	set, err := n.index.Evaluate(n.bound, n.state.workMem())
	if err != nil {
		return nil, fmt.Errorf("BitmapIndexScan %s: %w", n.plan.Index, err)
	}
	return set, nil
}

// ReScan implements Node. It re-evaluates parameter-dependent predicates.
func (n *BitmapIndexScan) ReScan(context.Context) error {
	if len(n.plan.Filters.Params()) == 0 {
		return nil
	}

	bound, err := n.plan.Filters.Bind(n.state.Params.Lookup)
	if err != nil {
		n.keysReady = false
		return fmt.Errorf("BitmapIndexScan %s: %w", n.plan.Index, err)
	}
	n.bound = bound
	n.keysReady = true
	return nil
}

// End implements Node.
func (n *BitmapIndexScan) End() {
	if n.ended {
		return
	}
	n.ended = true
	n.index = nil
	n.bound = nil
}
