package exec

import (
	"context"
	"errors"
	"fmt"

	"github.com/hupe1980/vecand/candidate"
	"github.com/hupe1980/vecand/plan"
)

// childKind tags a BitmapAnd child.
type childKind uint8

const (
	childPlain childKind = iota
	childSimilarity
)

func (k childKind) String() string {
	if k == childSimilarity {
		return "similarity"
	}
	return "plain"
}

// childScan is a classified BitmapAnd child. probe is set only for
// childSimilarity.
type childScan struct {
	kind  childKind
	node  Node
	probe SimilarityProbe
}

func classify(node Node) childScan {
	if probe, ok := node.(SimilarityProbe); ok {
		return childScan{kind: childSimilarity, node: node, probe: probe}
	}
	return childScan{kind: childPlain, node: node}
}

// reorderChildren moves the similarity probe, if any, to the last position.
// The other children keep their relative order. It reports whether anything
// moved and fails if more than one probe is present.
func reorderChildren(children []childScan) (bool, error) {
	probeAt := -1
	for i, c := range children {
		if c.kind != childSimilarity {
			continue
		}
		if probeAt >= 0 {
			return false, fmt.Errorf("%w: children %d and %d", ErrMultipleSimilarityProbes, probeAt, i)
		}
		probeAt = i
	}

	last := len(children) - 1
	if probeAt < 0 || probeAt == last {
		return false, nil
	}

	probe := children[probeAt]
	copy(children[probeAt:], children[probeAt+1:])
	children[last] = probe
	return true, nil
}

// BitmapAnd intersects the candidate sets of its children.
type BitmapAnd struct {
	nodeBase

	plan     *plan.BitmapAnd
	children []childScan
	ended    bool

	// Stats reported by Explain.
	ShortCircuits int64
	Substitutions int64
}

var _ Node = (*BitmapAnd)(nil)

// InitBitmapAnd initializes every child of p in plan order with the same
// state and flags. If a child fails to initialize, the children initialized
// so far are ended.
func InitBitmapAnd(p *plan.BitmapAnd, state *State, flags Flags) (*BitmapAnd, error) {
	if flags&(FlagBackward|FlagMark) != 0 {
		return nil, fmt.Errorf("%w: BitmapAnd does not support backward scan or mark/restore", ErrUnsupportedFlags)
	}
	if len(p.Children) == 0 {
		return nil, ErrNoChildren
	}
	if state == nil {
		state = &State{}
	}

	n := &BitmapAnd{
		nodeBase: nodeBase{state: state},
		plan:     p,
		children: make([]childScan, len(p.Children)),
	}

	for i, cp := range p.Children {
		child, err := InitNode(cp, state, flags)
		if err != nil {
			n.End()
			return nil, fmt.Errorf("BitmapAnd child %d: %w", i, err)
		}
		n.children[i] = classify(child)
	}

	// A second probe is a planner bug; report it before anything runs.
	if _, err := reorderChildren(n.children); err != nil {
		n.End()
		return nil, err
	}

	return n, nil
}

// Plan implements Node.
func (n *BitmapAnd) Plan() plan.Node { return n.plan }

// Children implements Node.
func (n *BitmapAnd) Children() []Node {
	out := make([]Node, 0, len(n.children))
	for _, c := range n.children {
		if c.node != nil {
			out = append(out, c.node)
		}
	}
	return out
}

// MultiExec implements Node. It returns a non-nil *candidate.Set owned by the
// caller.
func (n *BitmapAnd) MultiExec(ctx context.Context) (any, error) {
	if len(n.children) == 0 {
		return nil, ErrNoChildren
	}

	log := n.state.logger()

	moved, err := reorderChildren(n.children)
	if err != nil {
		return nil, err
	}
	if moved {
		log.DebugContext(ctx, "moved similarity probe last", "children", len(n.children))
	}

	var result *candidate.Set
	fail := func(err error) (any, error) {
		result.Release()
		return nil, err
	}

	for i, c := range n.children {
		if i > 0 {
			if err := ctx.Err(); err != nil {
				return fail(err)
			}
		}

		var (
			out          any
			err          error
			substitution bool
			// sinkOnly marks an accumulator created just to hand the probe a
			// sink; it holds no candidates yet and must not be intersected.
			sinkOnly bool
		)

		switch c.kind {
		case childSimilarity:
			if result == nil {
				result = candidate.New(n.state.workMem())
				sinkOnly = true
			}
			clause := &SimilarityClause{ResultSink: result}
			if tmpl := n.plan.Similarity; tmpl != nil {
				clause.MaxDistance = tmpl.MaxDistance
				clause.CheckAgainstCandidates = true
				if i != 0 {
					clause.ResultLimit = n.plan.Limit
				} else {
					// Sole child: nothing to filter against, fetch everything.
					clause.ResultLimit = -1
					clause.CheckAgainstCandidates = false
				}
				substitution = true
			}
			out, err = MultiExecSimilarity(ctx, c.probe, clause)
		default:
			out, err = MultiExec(ctx, c.node)
		}
		if err != nil {
			return fail(err)
		}

		sub, ok := out.(*candidate.Set)
		if !ok || sub == nil {
			return fail(&ResultTypeError{Child: i, Got: out})
		}

		switch {
		case result == nil:
			result = sub
		case sinkOnly && !substitution:
			if sub != result {
				result.Release()
			}
			result = sub
		case substitution:
			if sub != result {
				result.Release()
			}
			result = sub
			n.Substitutions++
			n.state.metrics().RecordSubstitution()
			log.DebugContext(ctx, "similarity probe substituted candidates", "rows", sub.Cardinality())
		case sub != result:
			result.And(sub)
			sub.Release()
		}

		if result.ExceedsHint() {
			log.WarnContext(ctx, "candidate set exceeds work memory",
				"bytes", result.SizeInBytes(), "work_mem", result.CapacityHint())
		}

		// Nothing ANDed in later can make an empty set non-empty.
		if result.IsEmpty() {
			if skipped := len(n.children) - i - 1; skipped > 0 {
				n.ShortCircuits++
				n.state.metrics().RecordShortCircuit(skipped)
				log.DebugContext(ctx, "empty intersection, skipping remaining children", "skipped", skipped)
			}
			break
		}
	}

	return result, nil
}

// ReScan implements Node. Children are not reached by the generic
// changed-parameter signaling, so this node forwards its pending set itself.
// A child left with pending changes is rescanned lazily by its next
// execution.
func (n *BitmapAnd) ReScan(ctx context.Context) error {
	var errs []error
	for _, c := range n.children {
		if c.node == nil {
			continue
		}
		if !n.chg.IsEmpty() {
			c.node.UpdateChangedParams(&n.chg)
		}
		if c.node.ChangedParams().IsEmpty() {
			if err := ReScan(ctx, c.node, nil); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

// End implements Node. Uninitialized child slots are skipped.
func (n *BitmapAnd) End() {
	if n.ended {
		return
	}
	n.ended = true
	for _, c := range n.children {
		if c.node != nil {
			c.node.End()
		}
	}
}
