package exec

import (
	"context"
	"errors"
	"math/rand/v2"
	"testing"

	"github.com/hupe1980/vecand/candidate"
	"github.com/hupe1980/vecand/model"
	"github.com/hupe1980/vecand/plan"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func initAnd(t *testing.T, p *plan.BitmapAnd, state *State) *BitmapAnd {
	t.Helper()
	n, err := InitBitmapAnd(p, state, 0)
	require.NoError(t, err)
	t.Cleanup(n.End)
	return n
}

func TestBitmapAnd_IntersectsPlainChildren(t *testing.T) {
	a := newFakeScan("a", 1, 3, 5, 7)
	b := newFakeScan("b", 3, 5, 9)

	n := initAnd(t, andPlan(0, nil, a, b), nil)

	got, err := runAnd(context.Background(), n)
	require.NoError(t, err)
	defer got.Release()

	assert.Equal(t, []model.RowID{3, 5}, got.ToArray())
	assert.Equal(t, 1, a.execs)
	assert.Equal(t, 1, b.execs)
}

func TestBitmapAnd_ShortCircuitsOnEmpty(t *testing.T) {
	metrics := &BasicMetricsCollector{}
	a := newFakeScan("a", 1, 3, 5)
	b := newFakeScan("b")
	c := newFakeScan("c", 9)

	n := initAnd(t, andPlan(0, nil, a, b, c), &State{Metrics: metrics})

	got, err := runAnd(context.Background(), n)
	require.NoError(t, err)
	defer got.Release()

	require.NotNil(t, got)
	assert.True(t, got.IsEmpty())
	assert.Equal(t, 1, a.execs)
	assert.Equal(t, 1, b.execs)
	assert.Zero(t, c.execs, "children after an empty intersection must not run")
	assert.EqualValues(t, 1, n.ShortCircuits)

	stats := metrics.GetStats()
	assert.EqualValues(t, 1, stats.ShortCircuits)
	assert.EqualValues(t, 1, stats.SkippedNodes)
}

func TestBitmapAnd_EmptyLastChildIsNotAShortCircuit(t *testing.T) {
	a := newFakeScan("a", 1)
	b := newFakeScan("b", 2)

	n := initAnd(t, andPlan(0, nil, a, b), nil)

	got, err := runAnd(context.Background(), n)
	require.NoError(t, err)
	defer got.Release()

	assert.True(t, got.IsEmpty())
	assert.Zero(t, n.ShortCircuits)
}

func TestBitmapAnd_ProbeSubstitution(t *testing.T) {
	metrics := &BasicMetricsCollector{}
	probe := newFakeProbe("probe", 4, 8)
	plain := newFakeScan("plain", 2, 4, 6)

	n := initAnd(t, andPlan(10, &plan.SimilarityClause{}, probe, plain), &State{Metrics: metrics})

	got, err := runAnd(context.Background(), n)
	require.NoError(t, err)
	defer got.Release()

	assert.Equal(t, []string{"plain", "probe"}, childNames(n))

	require.Len(t, probe.clauses, 1)
	clause := probe.lastClause()
	assert.True(t, clause.CheckAgainstCandidates)
	assert.Equal(t, 10, clause.ResultLimit)
	assert.Equal(t, []model.RowID{2, 4, 6}, probe.sinkSeen[0])

	// The probe's output replaces the candidates instead of being ANDed.
	assert.Equal(t, []model.RowID{4, 8}, got.ToArray())
	assert.EqualValues(t, 1, n.Substitutions)
	assert.EqualValues(t, 1, metrics.GetStats().Substitutions)
}

func TestBitmapAnd_SoleProbeFetchesEverything(t *testing.T) {
	probe := newFakeProbe("probe", 1, 2, 3)

	n := initAnd(t, andPlan(10, &plan.SimilarityClause{MaxDistance: 0.5}, probe), nil)

	got, err := runAnd(context.Background(), n)
	require.NoError(t, err)
	defer got.Release()

	clause := probe.lastClause()
	assert.Equal(t, -1, clause.ResultLimit)
	assert.False(t, clause.CheckAgainstCandidates)
	assert.InDelta(t, 0.5, clause.MaxDistance, 1e-9)
	require.NotNil(t, clause.ResultSink, "an empty accumulator is created for the probe")
	assert.Empty(t, probe.sinkSeen[0])

	assert.Equal(t, []model.RowID{1, 2, 3}, got.ToArray())
}

func TestBitmapAnd_ProbeWithoutTemplateIsIntersected(t *testing.T) {
	probe := newFakeProbe("probe", 4, 8)
	plain := newFakeScan("plain", 2, 4, 6)

	n := initAnd(t, andPlan(10, nil, plain, probe), nil)

	got, err := runAnd(context.Background(), n)
	require.NoError(t, err)
	defer got.Release()

	clause := probe.lastClause()
	assert.False(t, clause.CheckAgainstCandidates)
	assert.Zero(t, clause.ResultLimit)
	assert.Equal(t, []model.RowID{4}, got.ToArray())
	assert.Zero(t, n.Substitutions)
}

func TestBitmapAnd_SoleProbeWithoutTemplateIsAdopted(t *testing.T) {
	probe := newFakeProbe("probe", 1, 2, 3)

	n := initAnd(t, andPlan(10, nil, probe), nil)

	got, err := runAnd(context.Background(), n)
	require.NoError(t, err)
	defer got.Release()

	clause := probe.lastClause()
	assert.False(t, clause.CheckAgainstCandidates)
	assert.Zero(t, clause.ResultLimit)
	assert.Equal(t, []model.RowID{1, 2, 3}, got.ToArray())
	assert.Zero(t, n.Substitutions)
}

func TestBitmapAnd_FreshClausePerExecution(t *testing.T) {
	probe := newFakeProbe("probe", 2)
	plain := newFakeScan("plain", 2, 3)

	n := initAnd(t, andPlan(5, &plan.SimilarityClause{}, plain, probe), nil)

	for range 2 {
		got, err := runAnd(context.Background(), n)
		require.NoError(t, err)
		got.Release()
	}

	require.Len(t, probe.clauses, 2)
	assert.NotSame(t, probe.clauses[0], probe.clauses[1])
}

func TestBitmapAnd_NoChildren(t *testing.T) {
	_, err := InitBitmapAnd(&plan.BitmapAnd{}, nil, 0)
	assert.ErrorIs(t, err, ErrNoChildren)

	_, err = InitNode(&plan.BitmapAnd{}, nil, 0)
	assert.ErrorIs(t, err, ErrNoChildren)
}

func TestBitmapAnd_UnrecognizedResult(t *testing.T) {
	tests := []struct {
		name   string
		result any
	}{
		{name: "string", result: "not a set"},
		{name: "slice", result: []model.RowID{1}},
		{name: "typed nil", result: (*candidate.Set)(nil)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := newFakeScan("a", 1, 2)
			b := newFakeScan("b")
			b.result = tt.result
			c := newFakeScan("c", 1)

			n := initAnd(t, andPlan(0, nil, a, b, c), nil)

			_, err := runAnd(context.Background(), n)
			require.ErrorIs(t, err, ErrUnrecognizedResult)

			var rte *ResultTypeError
			require.ErrorAs(t, err, &rte)
			assert.Equal(t, 1, rte.Child)
			assert.Zero(t, c.execs)
		})
	}
}

func TestBitmapAnd_ChildErrorPropagates(t *testing.T) {
	boom := errors.New("boom")
	a := newFakeScan("a", 1)
	b := newFakeScan("b")
	b.err = boom

	n := initAnd(t, andPlan(0, nil, a, b), nil)

	_, err := runAnd(context.Background(), n)
	assert.ErrorIs(t, err, boom)
}

func TestBitmapAnd_UnsupportedFlags(t *testing.T) {
	for _, flags := range []Flags{FlagBackward, FlagMark, FlagBackward | FlagMark} {
		a := newFakeScan("a", 1)
		p := andPlan(0, nil, a)

		_, err := InitNode(p, nil, flags)
		require.ErrorIs(t, err, ErrUnsupportedFlags)
		assert.Zero(t, p.Children[0].(*fakePlan).inits, "children are not initialized")
	}
}

func TestBitmapAnd_ChildrenShareState(t *testing.T) {
	state := &State{WorkMem: 1 << 10}
	a := newFakeScan("a", 1)
	b := newFakeScan("b", 1)

	n := initAnd(t, andPlan(0, nil, a, b), state)

	assert.Same(t, state, n.state)
	assert.Same(t, state, a.state)
	assert.Same(t, state, b.state)
}

func TestBitmapAnd_MultipleProbes(t *testing.T) {
	p1 := newFakeProbe("p1", 1)
	plain := newFakeScan("plain", 1)
	p2 := newFakeProbe("p2", 1)

	_, err := InitBitmapAnd(andPlan(3, &plan.SimilarityClause{}, p1, plain, p2), nil, 0)
	require.ErrorIs(t, err, ErrMultipleSimilarityProbes)

	for _, f := range []*fakeScan{&p1.fakeScan, plain, &p2.fakeScan} {
		assert.Equal(t, 1, f.ends, "%s must be ended", f.name)
		assert.Zero(t, f.execs)
	}
}

func TestBitmapAnd_InitFailureEndsInitializedChildren(t *testing.T) {
	a := newFakeScan("a", 1)
	b := newFakeScan("b", 1)
	c := newFakeScan("c", 1)

	children := planFor(a, b, c)
	children[2].(*fakePlan).err = errInitFailed

	_, err := InitBitmapAnd(&plan.BitmapAnd{Children: children}, nil, 0)
	require.ErrorIs(t, err, errInitFailed)

	assert.Equal(t, 1, a.ends)
	assert.Equal(t, 1, b.ends)
	assert.Zero(t, c.ends, "the failed child was never initialized")
}

func TestBitmapAnd_EndIsIdempotent(t *testing.T) {
	a := newFakeScan("a", 1)
	probe := newFakeProbe("probe", 1)

	n, err := InitBitmapAnd(andPlan(1, &plan.SimilarityClause{}, a, probe), nil, 0)
	require.NoError(t, err)

	n.End()
	n.End()
	EndNode(n)

	assert.Equal(t, 1, a.ends)
	assert.Equal(t, 1, probe.ends)
}

func TestBitmapAnd_EndToleratesNilSlots(t *testing.T) {
	a := newFakeScan("a", 1)
	n := &BitmapAnd{
		plan:     &plan.BitmapAnd{},
		children: []childScan{classify(a), {}},
	}

	assert.NotPanics(t, n.End)
	assert.Equal(t, 1, a.ends)
	assert.Len(t, n.Children(), 1)

	EndNode(nil)
}

func TestBitmapAnd_RescanWithDeltaIsLazy(t *testing.T) {
	trace := []string{}
	a := newFakeScan("a", 1, 2)
	probe := newFakeProbe("probe", 2)
	a.trace = &trace
	probe.trace = &trace

	n := initAnd(t, andPlan(5, &plan.SimilarityClause{}, probe, a), nil)

	delta := NewParamSet(1, 3)
	require.NoError(t, ReScan(context.Background(), n, delta))

	// Children keep the forwarded parameters; nothing is rescanned yet.
	assert.Empty(t, trace)
	assert.True(t, a.ChangedParams().Contains(1))
	assert.True(t, a.ChangedParams().Contains(3))
	assert.True(t, probe.ChangedParams().Contains(3))
	assert.True(t, n.ChangedParams().IsEmpty(), "dispatcher clears the node's own set")
	assert.EqualValues(t, 1, n.Instrumentation().Rescans)

	got, err := runAnd(context.Background(), n)
	require.NoError(t, err)
	got.Release()

	assert.Equal(t, []string{"a:rescan", "a:exec", "probe:rescan", "probe:exec"}, trace)
	assert.True(t, a.ChangedParams().IsEmpty())
	assert.EqualValues(t, 1, a.Instrumentation().LazyRescans)
	assert.EqualValues(t, 1, probe.Instrumentation().LazyRescans)
}

func TestBitmapAnd_RescanWithoutDeltaIsImmediate(t *testing.T) {
	metrics := &BasicMetricsCollector{}
	a := newFakeScan("a", 1)
	b := newFakeScan("b", 1)

	n := initAnd(t, andPlan(0, nil, a, b), &State{Metrics: metrics})
	b.UpdateChangedParams(NewParamSet(2))

	require.NoError(t, ReScan(context.Background(), n, nil))

	assert.Equal(t, 1, a.rescans, "child with no pending changes is rescanned now")
	assert.Zero(t, b.rescans, "child with pending changes waits for its next execution")
	assert.True(t, b.ChangedParams().Contains(2))

	got, err := runAnd(context.Background(), n)
	require.NoError(t, err)
	got.Release()

	assert.Equal(t, 1, a.rescans)
	assert.Equal(t, 1, b.rescans)

	stats := metrics.GetStats()
	assert.EqualValues(t, 3, stats.Rescans)
	assert.EqualValues(t, 1, stats.LazyRescans)
}

func TestBitmapAnd_UpdateChangedParamsMergesWholeDelta(t *testing.T) {
	a := newFakeScan("a", 1)
	n := initAnd(t, andPlan(0, nil, a), nil)

	n.UpdateChangedParams(NewParamSet(1))
	n.UpdateChangedParams(NewParamSet(4))
	require.NoError(t, n.ReScan(context.Background()))

	assert.Equal(t, []model.ParamID{1, 4}, a.ChangedParams().IDs())
}

func TestBitmapAnd_ContextCanceledBetweenChildren(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a := newFakeScan("a", 1)
	a.onExec = cancel
	b := newFakeScan("b", 1)

	n := initAnd(t, andPlan(0, nil, a, b), nil)

	_, err := runAnd(ctx, n)
	require.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, b.execs)
}

func TestBitmapAnd_Nested(t *testing.T) {
	inner := &plan.BitmapAnd{Children: planFor(newFakeScan("x", 1, 2, 3, 4), newFakeScan("y", 2, 3, 4))}
	probe := newFakeProbe("probe", 3)
	outer := &plan.BitmapAnd{
		Children:   append([]plan.Node{inner}, planFor(probe, newFakeScan("z", 3, 4, 5))...),
		Similarity: &plan.SimilarityClause{},
		Limit:      1,
	}

	n := initAnd(t, outer, nil)

	got, err := runAnd(context.Background(), n)
	require.NoError(t, err)
	defer got.Release()

	assert.Equal(t, []string{"BitmapAnd", "z", "probe"}, childNames(n))
	assert.Equal(t, []model.RowID{3, 4}, probe.sinkSeen[0])
	assert.Equal(t, 1, probe.lastClause().ResultLimit)
	assert.Equal(t, []model.RowID{3}, got.ToArray())
}

func TestBitmapAnd_IntersectionIsOrderIndependent(t *testing.T) {
	sets := [][]model.RowID{
		{1, 2, 3, 5, 8, 13, 21},
		{2, 3, 5, 7, 11, 13},
		{1, 3, 5, 13, 99},
		{3, 5, 13, 21, 34},
	}
	rng := rand.New(rand.NewPCG(1, 2))

	for range 10 {
		rng.Shuffle(len(sets), func(i, j int) { sets[i], sets[j] = sets[j], sets[i] })

		nodes := make([]Node, len(sets))
		for i, ids := range sets {
			nodes[i] = newFakeScan("s", ids...)
		}
		n := initAnd(t, andPlan(0, nil, nodes...), nil)

		got, err := runAnd(context.Background(), n)
		require.NoError(t, err)
		assert.Equal(t, []model.RowID{3, 5, 13}, got.ToArray())
		got.Release()
	}
}

func TestReorderChildren(t *testing.T) {
	plain := func(name string) childScan { return classify(newFakeScan(name)) }
	probe := func(name string) childScan { return classify(newFakeProbe(name)) }

	names := func(cs []childScan) []string {
		out := make([]string, len(cs))
		for i, c := range cs {
			switch f := c.node.(type) {
			case *fakeProbe:
				out[i] = f.name
			case *fakeScan:
				out[i] = f.name
			}
		}
		return out
	}

	tests := []struct {
		name     string
		children []childScan
		want     []string
		moved    bool
	}{
		{name: "no probe", children: []childScan{plain("a"), plain("b")}, want: []string{"a", "b"}},
		{name: "probe last", children: []childScan{plain("a"), probe("p")}, want: []string{"a", "p"}},
		{name: "probe first", children: []childScan{probe("p"), plain("a"), plain("b")}, want: []string{"a", "b", "p"}, moved: true},
		{name: "probe middle", children: []childScan{plain("a"), probe("p"), plain("b"), plain("c")}, want: []string{"a", "b", "c", "p"}, moved: true},
		{name: "sole probe", children: []childScan{probe("p")}, want: []string{"p"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			moved, err := reorderChildren(tt.children)
			require.NoError(t, err)
			assert.Equal(t, tt.moved, moved)
			assert.Equal(t, tt.want, names(tt.children))

			// A second pass changes nothing.
			moved, err = reorderChildren(tt.children)
			require.NoError(t, err)
			assert.False(t, moved)
			assert.Equal(t, tt.want, names(tt.children))
		})
	}

	t.Run("two probes", func(t *testing.T) {
		_, err := reorderChildren([]childScan{probe("p1"), plain("a"), probe("p2")})
		assert.ErrorIs(t, err, ErrMultipleSimilarityProbes)
	})
}

func TestChildKindString(t *testing.T) {
	assert.Equal(t, "plain", childPlain.String())
	assert.Equal(t, "similarity", childSimilarity.String())
}
