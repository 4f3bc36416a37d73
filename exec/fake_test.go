package exec

import (
	"context"
	"errors"

	"github.com/hupe1980/vecand/candidate"
	"github.com/hupe1980/vecand/model"
	"github.com/hupe1980/vecand/plan"
)

var errInitFailed = errors.New("init failed")

// fakePlan initializes to a preset node, or fails with err.
type fakePlan struct {
	name   string
	params []model.ParamID
	node   Node
	err    error

	initFlags Flags
	inits     int
}

func (p *fakePlan) Kind() string            { return "Fake" }
func (p *fakePlan) Params() []model.ParamID { return p.params }

func (p *fakePlan) Init(state *State, flags Flags) (Node, error) {
	p.inits++
	p.initFlags = flags
	if p.err != nil {
		return nil, p.err
	}
	if b, ok := p.node.(interface{ bind(*State, *fakePlan) }); ok {
		b.bind(state, p)
	}
	return p.node, nil
}

// fakeScan is a plain child returning a fixed candidate set.
type fakeScan struct {
	nodeBase

	name   string
	plan   *fakePlan
	ids    []model.RowID
	result any // overrides ids when set
	err    error

	// onExec runs before the result is produced.
	onExec func()

	trace   *[]string
	execs   int
	rescans int
	ends    int
}

func newFakeScan(name string, ids ...model.RowID) *fakeScan {
	return &fakeScan{name: name, ids: ids}
}

func (f *fakeScan) bind(state *State, p *fakePlan) {
	f.state = state
	f.plan = p
}

func (f *fakeScan) record(event string) {
	if f.trace != nil {
		*f.trace = append(*f.trace, f.name+":"+event)
	}
}

func (f *fakeScan) Plan() plan.Node {
	if f.plan == nil {
		return nil
	}
	return f.plan
}

func (f *fakeScan) Children() []Node { return nil }

func (f *fakeScan) MultiExec(context.Context) (any, error) {
	f.execs++
	f.record("exec")
	if f.onExec != nil {
		f.onExec()
	}
	if f.err != nil {
		return nil, f.err
	}
	if f.result != nil {
		return f.result, nil
	}
	return candidate.FromIDs(f.ids...), nil
}

func (f *fakeScan) ReScan(context.Context) error {
	f.rescans++
	f.record("rescan")
	return nil
}

func (f *fakeScan) End() {
	f.ends++
	f.record("end")
}

// fakeProbe is a similarity probe that records every clause it receives and
// returns a fixed set of hits.
type fakeProbe struct {
	fakeScan

	clauses  []*SimilarityClause
	sinkSeen [][]model.RowID
}

func newFakeProbe(name string, hits ...model.RowID) *fakeProbe {
	return &fakeProbe{fakeScan: fakeScan{name: name, ids: hits}}
}

func (f *fakeProbe) MultiExecSimilarity(ctx context.Context, clause *SimilarityClause) (any, error) {
	f.clauses = append(f.clauses, clause)
	var seen []model.RowID
	if clause != nil && clause.ResultSink != nil {
		seen = clause.ResultSink.ToArray()
	}
	f.sinkSeen = append(f.sinkSeen, seen)
	return f.fakeScan.MultiExec(ctx)
}

// lastClause returns a copy of the most recent clause.
func (f *fakeProbe) lastClause() SimilarityClause {
	if len(f.clauses) == 0 {
		return SimilarityClause{}
	}
	return *f.clauses[len(f.clauses)-1]
}

// planFor wraps nodes into fake plan children.
func planFor(nodes ...Node) []plan.Node {
	out := make([]plan.Node, len(nodes))
	for i, n := range nodes {
		out[i] = &fakePlan{node: n}
	}
	return out
}

func andPlan(limit int, tmpl *plan.SimilarityClause, nodes ...Node) *plan.BitmapAnd {
	return &plan.BitmapAnd{Children: planFor(nodes...), Similarity: tmpl, Limit: limit}
}

// childNames returns the names of n's children in execution order.
func childNames(n *BitmapAnd) []string {
	var out []string
	for _, c := range n.Children() {
		switch f := c.(type) {
		case *fakeProbe:
			out = append(out, f.name)
		case *fakeScan:
			out = append(out, f.name)
		default:
			out = append(out, kindOf(c))
		}
	}
	return out
}

func runAnd(ctx context.Context, n Node) (*candidate.Set, error) {
	out, err := MultiExec(ctx, n)
	if err != nil {
		return nil, err
	}
	return out.(*candidate.Set), nil
}
