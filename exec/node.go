package exec

import (
	"context"
	"log/slog"

	"github.com/hupe1980/vecand/candidate"
	"github.com/hupe1980/vecand/index/flat"
	"github.com/hupe1980/vecand/metadata"
	"github.com/hupe1980/vecand/plan"
	"github.com/hupe1980/vecand/resource"
)

// Flags describe capabilities requested from a node at init.
type Flags uint32

const (
	// FlagBackward requests backward scan support.
	FlagBackward Flags = 1 << iota
	// FlagMark requests mark/restore support.
	FlagMark
)

// DefaultWorkMem is the work memory (bytes) used when State.WorkMem is unset.
const DefaultWorkMem = 4 << 20

// Catalog resolves index names used by scan plans.
type Catalog interface {
	MetadataIndex(name string) (*metadata.Index, bool)
	VectorIndex(name string) (*flat.Index, bool)
}

// State is shared by every node of a tree.
type State struct {
	// WorkMem is the memory budget, in bytes, for each candidate set a node
	// builds. Zero selects DefaultWorkMem.
	WorkMem int64

	Catalog    Catalog
	Params     *ParamValues
	Controller *resource.Controller
	Logger     *slog.Logger
	Metrics    MetricsCollector
}

func (s *State) workMem() int64 {
	if s.WorkMem > 0 {
		return s.WorkMem
	}
	return DefaultWorkMem
}

func (s *State) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.New(slog.DiscardHandler)
}

func (s *State) metrics() MetricsCollector {
	if s.Metrics != nil {
		return s.Metrics
	}
	return NoopMetricsCollector{}
}

// Node is an initialized plan node.
type Node interface {
	// Plan returns the plan node this node was initialized from.
	Plan() plan.Node

	// MultiExec produces the node's result. Callers should use the package
	// level MultiExec, which handles pending rescans and instrumentation.
	MultiExec(ctx context.Context) (any, error)

	// ReScan resets the node for another execution, propagating its pending
	// changed parameters to any children. Callers should use the package
	// level ReScan.
	ReScan(ctx context.Context) error

	// End releases the node and its children. It is idempotent.
	End()

	// Children returns the child nodes in current execution order.
	Children() []Node

	// ChangedParams returns the parameters changed since the last scan.
	ChangedParams() *ParamSet
	// UpdateChangedParams merges delta into the pending set.
	UpdateChangedParams(delta *ParamSet)
	// ClearChangedParams empties the pending set.
	ClearChangedParams()

	// Instrumentation returns the node's execution statistics.
	Instrumentation() *Instrumentation
}

// SimilarityClause configures a single execution of a SimilarityProbe. The
// combinator builds a fresh value for every execution and nothing retains it
// after the call returns.
type SimilarityClause struct {
	// CheckAgainstCandidates restricts the probe to the members of
	// ResultSink. The probe then narrows ResultSink in place to its hits and
	// returns it.
	CheckAgainstCandidates bool

	// ResultLimit is the number of hits requested: -1 for all, 0 for the
	// probe's own default.
	ResultLimit int

	// ResultSink is the combinator's current candidate set.
	ResultSink *candidate.Set

	// MaxDistance drops hits farther than this. Zero disables the cutoff.
	MaxDistance float32
}

// SimilarityProbe is a node that can run under a SimilarityClause.
type SimilarityProbe interface {
	Node
	MultiExecSimilarity(ctx context.Context, clause *SimilarityClause) (any, error)
}

// nodeBase carries the bookkeeping shared by all node kinds.
type nodeBase struct {
	state *State
	chg   ParamSet
	instr Instrumentation
}

func (b *nodeBase) ChangedParams() *ParamSet { return &b.chg }

func (b *nodeBase) UpdateChangedParams(delta *ParamSet) { b.chg.Union(delta) }

func (b *nodeBase) ClearChangedParams() { b.chg.Clear() }

func (b *nodeBase) Instrumentation() *Instrumentation { return &b.instr }

func (b *nodeBase) execState() *State { return b.state }
