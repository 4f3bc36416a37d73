package vecand

import (
	"context"
	"fmt"
	"io"
	"slices"
	"sync"
	"time"

	"github.com/hupe1980/vecand/candidate"
	"github.com/hupe1980/vecand/exec"
	"github.com/hupe1980/vecand/metadata"
	"github.com/hupe1980/vecand/model"
)

// Params maps parameter ids to values. Values may be any type accepted by
// metadata.FromAny.
type Params map[model.ParamID]any

// Query is a prepared plan. It can be run many times and rebound between
// runs. It is not safe for concurrent use.
type Query struct {
	id     uint64
	engine *Engine
	root   exec.Node
	values *exec.ParamValues
	params *exec.ParamSet
	logger *Logger

	mu     sync.Mutex
	closed bool
}

// ID returns the query id used in log records.
func (q *Query) ID() uint64 { return q.id }

// Params returns the parameters referenced by the plan, in ascending order.
func (q *Query) Params() []model.ParamID { return q.params.IDs() }

// Root returns the initialized plan tree.
func (q *Query) Root() exec.Node { return q.root }

// Bind assigns parameter values. Parameters whose value changed are
// propagated to the tree, and the nodes that depend on them are rescanned
// before their next execution.
func (q *Query) Bind(ctx context.Context, params Params) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return ErrClosed
	}

	ids := make([]model.ParamID, 0, len(params))
	for id := range params {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	values := make([]metadata.Value, len(ids))
	for i, id := range ids {
		if !q.params.Contains(id) {
			return &ErrUnknownParam{ID: uint32(id)}
		}
		v, err := metadata.FromAny(params[id])
		if err != nil {
			return fmt.Errorf("parameter %s: %w", id, err)
		}
		values[i] = v
	}

	delta := exec.NewParamSet()
	for i, id := range ids {
		if q.values.Set(id, values[i]) {
			delta.Add(id)
		}
	}
	if delta.IsEmpty() {
		return nil
	}

	err := exec.ReScan(ctx, q.root, delta)
	q.logger.LogRescan(ctx, delta.String(), err)
	return translateError(err)
}

// Run executes the plan and returns the candidate rows. The caller owns the
// returned set and should Release it.
//
// A failed run ends the plan tree; the query is closed afterwards.
func (q *Query) Run(ctx context.Context) (*candidate.Set, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil, ErrClosed
	}

	start := time.Now()
	out, err := exec.MultiExec(ctx, q.root)
	if err == nil {
		set, ok := out.(*candidate.Set)
		if !ok || set == nil {
			err = &exec.ResultTypeError{Child: -1, Got: out}
		} else {
			q.logger.LogQuery(ctx, set.Cardinality(), time.Since(start), nil)
			return set, nil
		}
	}

	q.logger.LogQuery(ctx, 0, time.Since(start), err)
	q.closeLocked()
	return nil, translateError(err)
}

// Explain writes the executed plan tree with per-node statistics.
func (q *Query) Explain(w io.Writer, opts ...exec.ExplainOption) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	return exec.Explain(w, q.root, opts...)
}

func (q *Query) closeLocked() {
	if q.closed {
		return
	}
	q.closed = true
	exec.EndNode(q.root)
	q.engine.forget(q.id)
}

// Close ends the plan tree. It is idempotent.
func (q *Query) Close() error {
	if q == nil {
		return nil
	}
	q.mu.Lock()
	defer q.mu.Unlock()

	q.closeLocked()
	return nil
}
