package vecand

import (
	"testing"

	"github.com/hupe1980/vecand/exec"
	"github.com/hupe1980/vecand/metadata"
	"github.com/hupe1980/vecand/model"
	"github.com/hupe1980/vecand/plan"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIndexScanBuilder(t *testing.T) {
	t.Run("predicates", func(t *testing.T) {
		p, err := IndexScan("movies").
			Eq("genre", "noir").
			Gte("year", 1950).
			In("rating", "G", "PG").
			Param("runtime", metadata.OpLessThan, 2).
			Build()
		require.NoError(t, err)

		assert.Equal(t, "movies", p.Index)
		assert.Equal(t, []model.ParamID{2}, p.Params())
		assert.Equal(t, `genre = "noir" AND year >= 1950 AND rating IN ("G", "PG") AND runtime < $2`, p.Filters.String())
	})

	t.Run("immutable", func(t *testing.T) {
		base := IndexScan("movies").Eq("genre", "noir")
		a := base.Lt("year", 1960).MustBuild()
		b := base.Gt("year", 1990).MustBuild()

		assert.Equal(t, `genre = "noir" AND year < 1960`, a.Filters.String())
		assert.Equal(t, `genre = "noir" AND year > 1990`, b.Filters.String())
		assert.Equal(t, `genre = "noir"`, base.MustBuild().Filters.String())
	})

	t.Run("unsupported value", func(t *testing.T) {
		_, err := IndexScan("movies").Eq("genre", struct{}{}).Ne("year", 1).Build()
		assert.ErrorIs(t, err, ErrInvalidPlan)
	})

	t.Run("no index", func(t *testing.T) {
		_, err := IndexScan("").Eq("genre", "noir").Build()
		assert.ErrorIs(t, err, ErrInvalidPlan)
	})

	t.Run("must build panics", func(t *testing.T) {
		assert.Panics(t, func() { IndexScan("").MustBuild() })
	})
}

func TestSimilarityBuilder(t *testing.T) {
	query := []float32{1, 2}
	b := Similar("plots", query)
	query[0] = 99

	p, err := b.Build()
	require.NoError(t, err)
	assert.Equal(t, &plan.SimilarityScan{Index: "plots", Query: []float32{1, 2}, K: 10}, p)

	p = b.K(3).MustBuild()
	assert.Equal(t, 3, p.K)

	for name, sb := range map[string]SimilarityBuilder{
		"no index": Similar("", []float32{1}),
		"no query": Similar("plots", nil),
		"zero k":   Similar("plots", []float32{1}).K(0),
	} {
		t.Run(name, func(t *testing.T) {
			_, err := sb.Build()
			assert.ErrorIs(t, err, ErrInvalidPlan)
		})
	}
}

func TestAndBuilder(t *testing.T) {
	scan := IndexScan("movies").Eq("genre", "noir").MustBuild()
	probe := Similar("plots", []float32{0, 0}).MustBuild()

	t.Run("plain intersection", func(t *testing.T) {
		p, err := And(scan, probe).Build()
		require.NoError(t, err)
		assert.Nil(t, p.Similarity)
		assert.Len(t, p.Children, 2)
	})

	t.Run("substitution", func(t *testing.T) {
		p, err := And(scan, probe).Limit(5).MaxDistance(0.5).Build()
		require.NoError(t, err)
		assert.Equal(t, 5, p.Limit)
		require.NotNil(t, p.Similarity)
		assert.InDelta(t, 0.5, p.Similarity.MaxDistance, 1e-6)
	})

	t.Run("immutable", func(t *testing.T) {
		base := And(scan, probe)
		_ = base.Limit(3)
		p := base.MustBuild()
		assert.Nil(t, p.Similarity)
		assert.Zero(t, p.Limit)
	})

	t.Run("no children", func(t *testing.T) {
		_, err := And().Build()
		assert.ErrorIs(t, err, ErrInvalidPlan)
		assert.ErrorIs(t, err, exec.ErrNoChildren)
	})

	t.Run("nil child", func(t *testing.T) {
		_, err := And(scan, nil).Build()
		assert.ErrorIs(t, err, ErrInvalidPlan)
	})

	t.Run("two probes", func(t *testing.T) {
		_, err := And(probe, scan, probe).Build()
		assert.ErrorIs(t, err, exec.ErrMultipleSimilarityProbes)
	})

	t.Run("negative limit", func(t *testing.T) {
		_, err := And(scan, probe).Limit(-1).Build()
		assert.ErrorIs(t, err, ErrInvalidPlan)
	})
}
