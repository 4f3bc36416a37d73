// Package plan defines the immutable plan trees executed by package exec.
//
// A plan is built once (by hand or from YAML, see Spec) and may be
// initialized many times; exec never mutates it.
package plan

import (
	"github.com/hupe1980/vecand/metadata"
	"github.com/hupe1980/vecand/model"
)

// Node is a plan node.
type Node interface {
	// Kind names the node type, e.g. "BitmapAnd".
	Kind() string
	// Params returns the parameters referenced by the node and its
	// descendants.
	Params() []model.ParamID
}

// SimilarityClause is the template attached to a BitmapAnd whose similarity
// child should run in substitution mode. Executions derive a fresh
// exec.SimilarityClause from it; the template itself is read-only.
type SimilarityClause struct {
	// MaxDistance drops probe hits farther than this. Zero disables the cutoff.
	MaxDistance float32
}

// BitmapAnd intersects the candidate sets of its children.
type BitmapAnd struct {
	Children []Node

	// Similarity, when set, switches the similarity child to substitution
	// mode: it is bounded by Limit and filtered against the candidates of
	// the other children.
	Similarity *SimilarityClause

	// Limit is the number of similarity hits requested when the probe is
	// combined with other children.
	Limit int
}

// Kind implements Node.
func (*BitmapAnd) Kind() string { return "BitmapAnd" }

// Params implements Node.
func (n *BitmapAnd) Params() []model.ParamID {
	var out []model.ParamID
	seen := make(map[model.ParamID]struct{})
	for _, c := range n.Children {
		if c == nil {
			continue
		}
		for _, p := range c.Params() {
			if _, ok := seen[p]; !ok {
				seen[p] = struct{}{}
				out = append(out, p)
			}
		}
	}
	return out
}

// BitmapIndexScan evaluates metadata predicates against a named index.
type BitmapIndexScan struct {
	Index   string
	Filters *metadata.FilterSet
}

// Kind implements Node.
func (*BitmapIndexScan) Kind() string { return "BitmapIndexScan" }

// Params implements Node.
func (n *BitmapIndexScan) Params() []model.ParamID { return n.Filters.Params() }

// DefaultK is the K of a similarity scan that does not set one.
const DefaultK = 10

// SimilarityScan is a top-K nearest neighbor probe over a named vector index.
type SimilarityScan struct {
	Index string
	Query []float32

	// K is the number of hits returned when the probe runs without an
	// explicit limit.
	K int
}

// Kind implements Node.
func (*SimilarityScan) Kind() string { return "SimilarityScan" }

// Params implements Node.
func (*SimilarityScan) Params() []model.ParamID { return nil }
