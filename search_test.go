package vecand

import (
	"context"
	"testing"

	"github.com/hupe1980/vecand/metadata"
	"github.com/hupe1980/vecand/model"
	"github.com/hupe1980/vecand/plan"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noir() metadata.Filter {
	return metadata.Filter{Key: "genre", Operator: metadata.OpEqual, Value: metadata.String("noir")}
}

func TestSearch(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()
	origin := []float32{0, 0}

	t.Run("unfiltered", func(t *testing.T) {
		hits, err := e.Search("plots", origin).KNN(3).Execute(ctx)
		require.NoError(t, err)
		assert.Equal(t, []model.SearchResult{
			{ID: 1, Distance: 1},
			{ID: 2, Distance: 4},
			{ID: 3, Distance: 9},
		}, hits)
	})

	t.Run("filtered", func(t *testing.T) {
		ids, err := e.Search("plots", origin).
			KNN(3).
			Where("movies", noir()).
			IDs(ctx)
		require.NoError(t, err)
		assert.Equal(t, []model.RowID{1, 2, 4}, ids)
	})

	t.Run("two filters", func(t *testing.T) {
		ids, err := e.Search("plots", []float32{8, 0}).
			KNN(2).
			Where("movies", noir()).
			Where("movies", metadata.Filter{Key: "year", Operator: metadata.OpLessThan, Value: metadata.Int(1960)}).
			IDs(ctx)
		require.NoError(t, err)
		assert.Equal(t, []model.RowID{4, 2}, ids)
	})

	t.Run("max distance", func(t *testing.T) {
		n, err := e.Search("plots", origin).MaxDistance(4.5).Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, n)
	})

	t.Run("nothing passes the filter", func(t *testing.T) {
		hits, err := e.Search("plots", origin).
			Where("movies", metadata.Filter{Key: "genre", Operator: metadata.OpEqual, Value: metadata.String("western")}).
			Execute(ctx)
		require.NoError(t, err)
		assert.Empty(t, hits)

		_, err = e.Search("plots", origin).
			Where("movies", metadata.Filter{Key: "genre", Operator: metadata.OpEqual, Value: metadata.String("western")}).
			First(ctx)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("first", func(t *testing.T) {
		hit, err := e.Search("plots", []float32{5.2, 0}).Where("movies", noir()).First(ctx)
		require.NoError(t, err)
		assert.EqualValues(t, 6, hit.ID)
	})

	t.Run("stream stops early", func(t *testing.T) {
		var seen []model.RowID
		for hit, err := range e.Search("plots", origin).KNN(5).Stream(ctx) {
			require.NoError(t, err)
			if hit.Distance > 5 {
				break
			}
			seen = append(seen, hit.ID)
		}
		assert.Equal(t, []model.RowID{1, 2}, seen)
	})

	t.Run("errors", func(t *testing.T) {
		_, err := e.Search("nope", origin).Execute(ctx)
		assert.ErrorIs(t, err, ErrNotFound)

		_, err = e.Search("plots", origin).KNN(0).Execute(ctx)
		assert.ErrorIs(t, err, ErrInvalidPlan)

		var streamErr error
		for _, err := range e.Search("plots", []float32{1}).Stream(ctx) {
			streamErr = err
		}
		assert.ErrorIs(t, streamErr, ErrInvalidPlan)

		assert.Panics(t, func() { e.Search("nope", origin).MustExecute(ctx) })
	})
}

func TestSearch_Plan(t *testing.T) {
	e := newEngine(t)

	p, err := e.Search("plots", []float32{0, 0}).KNN(4).Plan()
	require.NoError(t, err)
	assert.IsType(t, &plan.SimilarityScan{}, p)

	p, err = e.Search("plots", []float32{0, 0}).KNN(4).Where("movies", noir()).Plan()
	require.NoError(t, err)
	and, ok := p.(*plan.BitmapAnd)
	require.True(t, ok)
	assert.Equal(t, 4, and.Limit)
	require.NotNil(t, and.Similarity)
	assert.IsType(t, &plan.SimilarityScan{}, and.Children[len(and.Children)-1])
}
