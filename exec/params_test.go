package exec

import (
	"testing"

	"github.com/hupe1980/vecand/metadata"
	"github.com/hupe1980/vecand/model"
	"github.com/stretchr/testify/assert"
)

func TestParamSet(t *testing.T) {
	var nilSet *ParamSet
	assert.True(t, nilSet.IsEmpty())
	assert.Zero(t, nilSet.Len())
	assert.False(t, nilSet.Contains(1))
	assert.Equal(t, "{}", nilSet.String())

	p := NewParamSet(3, 1)
	assert.False(t, p.IsEmpty())
	assert.Equal(t, 2, p.Len())
	assert.True(t, p.Contains(1))
	assert.False(t, p.Contains(2))
	assert.Equal(t, []model.ParamID{1, 3}, p.IDs())
	assert.Equal(t, "{$1,$3}", p.String())

	q := NewParamSet(3, 7)
	assert.True(t, p.Intersects(q))
	assert.False(t, p.Intersects(NewParamSet(2)))
	assert.False(t, p.Intersects(nil))

	c := p.Clone()
	p.Union(q)
	p.Union(nil)
	assert.Equal(t, []model.ParamID{1, 3, 7}, p.IDs())
	assert.Equal(t, []model.ParamID{1, 3}, c.IDs(), "clone is independent")

	p.Clear()
	assert.True(t, p.IsEmpty())

	var zero ParamSet
	zero.Union(q)
	assert.Equal(t, []model.ParamID{3, 7}, zero.IDs())
}

func TestParamValues(t *testing.T) {
	var nilValues *ParamValues
	_, ok := nilValues.Lookup(1)
	assert.False(t, ok)

	pv := NewParamValues()
	_, ok = pv.Lookup(1)
	assert.False(t, ok)

	assert.True(t, pv.Set(1, metadata.Int(1990)))
	assert.False(t, pv.Set(1, metadata.Int(1990)), "same value is not a change")
	assert.True(t, pv.Set(1, metadata.Int(2000)))

	v, ok := pv.Lookup(1)
	assert.True(t, ok)
	assert.Equal(t, metadata.Int(2000), v)
}
