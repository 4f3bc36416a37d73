// This file implements immutable fluent builders for query plans.
// Each method returns a new builder with the updated configuration.

package vecand

import (
	"fmt"
	"slices"

	"github.com/hupe1980/vecand/exec"
	"github.com/hupe1980/vecand/metadata"
	"github.com/hupe1980/vecand/model"
	"github.com/hupe1980/vecand/plan"
)

// =============================================================================
// IndexScan Builder (Immutable)
// =============================================================================

// IndexScan creates a builder for a metadata index scan. All predicates must
// hold for a row to be returned.
//
// Example:
//
//	scan, err := vecand.IndexScan("movies").
//	    Eq("genre", "noir").
//	    Param("year", metadata.OpGreaterEqual, 1).
//	    Build()
func IndexScan(index string) IndexScanBuilder {
	return IndexScanBuilder{index: index}
}

// IndexScanBuilder is an immutable fluent builder for BitmapIndexScan plans.
type IndexScanBuilder struct {
	index   string
	filters []metadata.Filter
	err     error
}

func (b IndexScanBuilder) with(f metadata.Filter) IndexScanBuilder {
	b.filters = append(slices.Clip(b.filters), f)
	return b
}

func (b IndexScanBuilder) value(key string, op metadata.Operator, v any) IndexScanBuilder {
	if b.err != nil {
		return b
	}
	val, err := metadata.FromAny(v)
	if err != nil {
		b.err = fmt.Errorf("%w: %s: %w", ErrInvalidPlan, key, err)
		return b
	}
	return b.with(metadata.Filter{Key: key, Operator: op, Value: val})
}

// Eq adds `key = v`.
func (b IndexScanBuilder) Eq(key string, v any) IndexScanBuilder {
	return b.value(key, metadata.OpEqual, v)
}

// Ne adds `key <> v`.
func (b IndexScanBuilder) Ne(key string, v any) IndexScanBuilder {
	return b.value(key, metadata.OpNotEqual, v)
}

// Gt adds `key > v`.
func (b IndexScanBuilder) Gt(key string, v any) IndexScanBuilder {
	return b.value(key, metadata.OpGreaterThan, v)
}

// Gte adds `key >= v`.
func (b IndexScanBuilder) Gte(key string, v any) IndexScanBuilder {
	return b.value(key, metadata.OpGreaterEqual, v)
}

// Lt adds `key < v`.
func (b IndexScanBuilder) Lt(key string, v any) IndexScanBuilder {
	return b.value(key, metadata.OpLessThan, v)
}

// Lte adds `key <= v`.
func (b IndexScanBuilder) Lte(key string, v any) IndexScanBuilder {
	return b.value(key, metadata.OpLessEqual, v)
}

// In adds `key IN (vs...)`.
func (b IndexScanBuilder) In(key string, vs ...any) IndexScanBuilder {
	if b.err != nil {
		return b
	}
	values := make([]metadata.Value, len(vs))
	for i, v := range vs {
		val, err := metadata.FromAny(v)
		if err != nil {
			b.err = fmt.Errorf("%w: %s: %w", ErrInvalidPlan, key, err)
			return b
		}
		values[i] = val
	}
	return b.with(metadata.Filter{Key: key, Operator: metadata.OpIn, Values: values})
}

// Param adds a predicate whose value is the query parameter id, bound with
// Query.Bind.
func (b IndexScanBuilder) Param(key string, op metadata.Operator, id model.ParamID) IndexScanBuilder {
	if b.err != nil {
		return b
	}
	return b.with(metadata.Filter{Key: key, Operator: op, Param: &id})
}

// Build validates the predicates and returns the plan node.
func (b IndexScanBuilder) Build() (*plan.BitmapIndexScan, error) {
	if b.err != nil {
		return nil, b.err
	}
	if b.index == "" {
		return nil, fmt.Errorf("%w: index scan without index name", ErrInvalidPlan)
	}
	fs := metadata.NewFilterSet(slices.Clone(b.filters)...)
	if err := fs.Validate(); err != nil {
		return nil, fmt.Errorf("%w: index scan on %s: %w", ErrInvalidPlan, b.index, err)
	}
	return &plan.BitmapIndexScan{Index: b.index, Filters: fs}, nil
}

// MustBuild is like Build but panics on error.
func (b IndexScanBuilder) MustBuild() *plan.BitmapIndexScan {
	p, err := b.Build()
	if err != nil {
		panic(err)
	}
	return p
}

// =============================================================================
// Similarity Builder (Immutable)
// =============================================================================

// Similar creates a builder for a nearest neighbor probe of query against the
// named vector index.
//
// Example:
//
//	probe := vecand.Similar("plots", query).K(20).MustBuild()
func Similar(index string, query []float32) SimilarityBuilder {
	return SimilarityBuilder{
		index: index,
		query: slices.Clone(query),
		k:     plan.DefaultK,
	}
}

// SimilarityBuilder is an immutable fluent builder for SimilarityScan plans.
type SimilarityBuilder struct {
	index string
	query []float32
	k     int
}

// K sets the number of hits returned when the probe runs on its own or
// without a limit from its parent.
// Default: 10.
func (b SimilarityBuilder) K(k int) SimilarityBuilder {
	b.k = k
	return b
}

// Build returns the plan node.
func (b SimilarityBuilder) Build() (*plan.SimilarityScan, error) {
	switch {
	case b.index == "":
		return nil, fmt.Errorf("%w: similarity scan without index name", ErrInvalidPlan)
	case len(b.query) == 0:
		return nil, fmt.Errorf("%w: similarity scan on %s without query vector", ErrInvalidPlan, b.index)
	case b.k <= 0:
		return nil, fmt.Errorf("%w: similarity scan on %s: k must be positive, got %d", ErrInvalidPlan, b.index, b.k)
	}
	return &plan.SimilarityScan{Index: b.index, Query: slices.Clone(b.query), K: b.k}, nil
}

// MustBuild is like Build but panics on error.
func (b SimilarityBuilder) MustBuild() *plan.SimilarityScan {
	p, err := b.Build()
	if err != nil {
		panic(err)
	}
	return p
}

// =============================================================================
// And Builder (Immutable)
// =============================================================================

// And creates a builder for a BitmapAnd over children.
//
// Without Limit or MaxDistance a similarity child is intersected like any
// other. With either, it runs last, only over the rows the other children
// agreed on, and its hits replace the intersection.
//
// Example:
//
//	p := vecand.And(scan, probe).Limit(10).MustBuild()
func And(children ...plan.Node) AndBuilder {
	return AndBuilder{children: slices.Clone(children)}
}

// AndBuilder is an immutable fluent builder for BitmapAnd plans.
type AndBuilder struct {
	children    []plan.Node
	similarity  bool
	limit       int
	maxDistance float32
}

// Limit sets the number of similarity hits kept and switches the similarity
// child to substitution mode.
func (b AndBuilder) Limit(n int) AndBuilder {
	b.similarity = true
	b.limit = n
	return b
}

// MaxDistance drops similarity hits farther than d and switches the
// similarity child to substitution mode.
func (b AndBuilder) MaxDistance(d float32) AndBuilder {
	b.similarity = true
	b.maxDistance = d
	return b
}

// Build validates the children and returns the plan node.
func (b AndBuilder) Build() (*plan.BitmapAnd, error) {
	if len(b.children) == 0 {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPlan, exec.ErrNoChildren)
	}
	probes := 0
	for i, c := range b.children {
		if c == nil {
			return nil, fmt.Errorf("%w: BitmapAnd child %d is nil", ErrInvalidPlan, i)
		}
		if _, ok := c.(*plan.SimilarityScan); ok {
			probes++
		}
	}
	if probes > 1 {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPlan, exec.ErrMultipleSimilarityProbes)
	}
	if b.limit < 0 || b.maxDistance < 0 {
		return nil, fmt.Errorf("%w: negative limit or max distance", ErrInvalidPlan)
	}

	p := &plan.BitmapAnd{Children: slices.Clone(b.children), Limit: b.limit}
	if b.similarity {
		p.Similarity = &plan.SimilarityClause{MaxDistance: b.maxDistance}
	}
	return p, nil
}

// MustBuild is like Build but panics on error.
func (b AndBuilder) MustBuild() *plan.BitmapAnd {
	p, err := b.Build()
	if err != nil {
		panic(err)
	}
	return p
}
