// This file implements a fluent search API on top of prepared plans.

package vecand

import (
	"context"
	"fmt"
	"iter"
	"slices"

	"github.com/hupe1980/vecand/exec"
	"github.com/hupe1980/vecand/metadata"
	"github.com/hupe1980/vecand/model"
	"github.com/hupe1980/vecand/plan"
)

// Search creates a fluent builder for a filtered nearest neighbor search over
// the named vector index.
//
// Example:
//
//	hits, err := eng.Search("plots", query).
//	    KNN(10).
//	    Where("movies", metadata.Filter{Key: "year", Operator: metadata.OpGreaterEqual, Value: metadata.Int(1950)}).
//	    Execute(ctx)
//
//	// Or with streaming:
//	for hit, err := range eng.Search("plots", query).KNN(100).Stream(ctx) {
//	    if err != nil { break }
//	    if hit.Distance > threshold { break }
//	    process(hit)
//	}
func (e *Engine) Search(index string, query []float32) *SearchBuilder {
	return &SearchBuilder{
		e:     e,
		index: index,
		query: query,
		k:     10, // Default k
	}
}

// SearchBuilder is a fluent builder for constructing search queries.
type SearchBuilder struct {
	e           *Engine
	index       string
	query       []float32
	k           int
	maxDistance float32

	// One index scan per metadata index.
	where []*plan.BitmapIndexScan
}

// KNN sets the number of nearest neighbors to return.
func (sb *SearchBuilder) KNN(k int) *SearchBuilder {
	sb.k = k
	return sb
}

// MaxDistance drops hits farther than d.
func (sb *SearchBuilder) MaxDistance(d float32) *SearchBuilder {
	sb.maxDistance = d
	return sb
}

// Where restricts the search to rows of the named metadata index matching
// all filters. Calls for different indexes are combined with AND.
func (sb *SearchBuilder) Where(index string, filters ...metadata.Filter) *SearchBuilder {
	sb.where = append(sb.where, &plan.BitmapIndexScan{
		Index:   index,
		Filters: metadata.NewFilterSet(filters...),
	})
	return sb
}

// Plan returns the plan the search runs.
//
// Without filters or a distance cutoff this is a bare SimilarityScan. Otherwise
// the index scans and the probe are combined by a BitmapAnd in substitution
// mode, so the probe only ranks rows that passed every filter.
func (sb *SearchBuilder) Plan() (plan.Node, error) {
	probe, err := Similar(sb.index, sb.query).K(sb.k).Build()
	if err != nil {
		return nil, err
	}
	if len(sb.where) == 0 && sb.maxDistance == 0 {
		return probe, nil
	}

	children := make([]plan.Node, 0, len(sb.where)+1)
	for _, w := range sb.where {
		children = append(children, w)
	}
	children = append(children, probe)

	b := And(children...).Limit(sb.k)
	if sb.maxDistance > 0 {
		b = b.MaxDistance(sb.maxDistance)
	}
	return b.Build()
}

// Execute runs the search and returns the hits, nearest first.
func (sb *SearchBuilder) Execute(ctx context.Context) ([]model.SearchResult, error) {
	p, err := sb.Plan()
	if err != nil {
		return nil, err
	}

	q, err := sb.e.Prepare(p)
	if err != nil {
		return nil, err
	}
	defer q.Close()

	rows, err := q.Run(ctx)
	if err != nil {
		return nil, err
	}
	defer rows.Release()

	probe := findProbe(q.Root())
	if probe == nil {
		return nil, fmt.Errorf("%w: no similarity probe in plan", ErrInvalidPlan)
	}

	hits := make([]model.SearchResult, 0, min(len(probe.LastHits), sb.k))
	for _, h := range probe.LastHits {
		if len(hits) == sb.k {
			break
		}
		if rows.Contains(h.ID) {
			hits = append(hits, h)
		}
	}
	return hits, nil
}

// findProbe returns the similarity scan of a search plan. A BitmapAnd keeps
// it as its last child.
func findProbe(node exec.Node) *exec.SimilarityScan {
	if s, ok := node.(*exec.SimilarityScan); ok {
		return s
	}
	children := node.Children()
	if len(children) == 0 {
		return nil
	}
	s, _ := children[len(children)-1].(*exec.SimilarityScan)
	return s
}

// MustExecute is like Execute but panics on error.
func (sb *SearchBuilder) MustExecute(ctx context.Context) []model.SearchResult {
	hits, err := sb.Execute(ctx)
	if err != nil {
		panic(err)
	}
	return hits
}

// Stream returns an iterator over the hits, nearest first.
func (sb *SearchBuilder) Stream(ctx context.Context) iter.Seq2[model.SearchResult, error] {
	return func(yield func(model.SearchResult, error) bool) {
		hits, err := sb.Execute(ctx)
		if err != nil {
			yield(model.SearchResult{}, err)
			return
		}
		for _, h := range hits {
			if !yield(h, nil) {
				return
			}
		}
	}
}

// First returns the nearest hit, or ErrNotFound if there is none.
func (sb *SearchBuilder) First(ctx context.Context) (model.SearchResult, error) {
	hits, err := sb.KNN(1).Execute(ctx)
	if err != nil {
		return model.SearchResult{}, err
	}
	if len(hits) == 0 {
		return model.SearchResult{}, ErrNotFound
	}
	return hits[0], nil
}

// Count returns the number of hits.
func (sb *SearchBuilder) Count(ctx context.Context) (int, error) {
	hits, err := sb.Execute(ctx)
	return len(hits), err
}

// IDs returns the row ids of the hits, nearest first.
func (sb *SearchBuilder) IDs(ctx context.Context) ([]model.RowID, error) {
	hits, err := sb.Execute(ctx)
	if err != nil {
		return nil, err
	}
	ids := make([]model.RowID, len(hits))
	for i, h := range hits {
		ids[i] = h.ID
	}
	return slices.Clip(ids), nil
}
