package exec

import (
	"context"
	"fmt"
	"time"

	"github.com/hupe1980/vecand/candidate"
	"github.com/hupe1980/vecand/plan"
)

// InitNode initializes the node tree for p.
func InitNode(p plan.Node, state *State, flags Flags) (Node, error) {
	if state == nil {
		state = &State{}
	}

	switch p := p.(type) {
	case *plan.BitmapAnd:
		return nodeOrNil(InitBitmapAnd(p, state, flags))
	case *plan.BitmapIndexScan:
		return nodeOrNil(InitBitmapIndexScan(p, state, flags))
	case *plan.SimilarityScan:
		return nodeOrNil(InitSimilarityScan(p, state, flags))
	case Initializer:
		return p.Init(state, flags)
	case nil:
		return nil, fmt.Errorf("%w: nil", ErrUnknownPlanNode)
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnknownPlanNode, p)
	}
}

// nodeOrNil keeps a failed init from returning a non-nil Node holding a nil
// pointer.
func nodeOrNil[T Node](n T, err error) (Node, error) {
	if err != nil {
		return nil, err
	}
	return n, nil
}

// Initializer is implemented by plan nodes defined outside package plan that
// know how to initialize themselves.
type Initializer interface {
	plan.Node
	Init(state *State, flags Flags) (Node, error)
}

// stateful is implemented by every node built by this package.
type stateful interface {
	execState() *State
}

func stateOf(node Node) *State {
	if s, ok := node.(stateful); ok && s.execState() != nil {
		return s.execState()
	}
	return &State{}
}

func kindOf(node Node) string {
	if p := node.Plan(); p != nil {
		return p.Kind()
	}
	return fmt.Sprintf("%T", node)
}

// MultiExec runs node and returns its result. A node with pending changed
// parameters is rescanned first.
func MultiExec(ctx context.Context, node Node) (any, error) {
	return run(ctx, node, node.MultiExec)
}

// MultiExecSimilarity runs probe under clause, with the same rescan and
// instrumentation handling as MultiExec.
func MultiExecSimilarity(ctx context.Context, probe SimilarityProbe, clause *SimilarityClause) (any, error) {
	return run(ctx, probe, func(ctx context.Context) (any, error) {
		return probe.MultiExecSimilarity(ctx, clause)
	})
}

func run(ctx context.Context, node Node, fn func(context.Context) (any, error)) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	state := stateOf(node)
	if !node.ChangedParams().IsEmpty() {
		state.logger().DebugContext(ctx, "lazy rescan",
			"node", kindOf(node), "params", node.ChangedParams().String())
		if err := rescan(ctx, node, nil, true); err != nil {
			return nil, err
		}
	}

	instr := node.Instrumentation()
	instr.startNode()
	res, err := fn(ctx)

	var rows uint64
	if set, ok := res.(*candidate.Set); ok && set != nil {
		rows = set.Cardinality()
	}
	var d time.Duration
	if err == nil {
		d = instr.stopNode(rows)
	} else {
		d = time.Since(instr.start)
	}
	state.metrics().RecordNodeExec(kindOf(node), rows, d, err)

	return res, err
}

// ReScan merges delta into node's pending changed parameters, rescans it and
// clears the pending set.
func ReScan(ctx context.Context, node Node, delta *ParamSet) error {
	return rescan(ctx, node, delta, false)
}

func rescan(ctx context.Context, node Node, delta *ParamSet, lazy bool) error {
	if !delta.IsEmpty() {
		node.UpdateChangedParams(delta)
	}

	err := node.ReScan(ctx)
	node.ClearChangedParams()

	instr := node.Instrumentation()
	instr.Rescans++
	if lazy {
		instr.LazyRescans++
	}
	stateOf(node).metrics().RecordRescan(kindOf(node), lazy)
	return err
}

// EndNode shuts node down. A nil node is ignored.
func EndNode(node Node) {
	if node == nil {
		return
	}
	node.End()
}
