package metadata

import (
	"testing"

	"github.com/hupe1980/vecand/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func paramRef(id model.ParamID) *model.ParamID { return &id }

func TestFilterValidate(t *testing.T) {
	tests := []struct {
		name    string
		filter  Filter
		wantErr bool
	}{
		{"eq", Filter{Key: "a", Operator: OpEqual, Value: Int(1)}, false},
		{"param", Filter{Key: "a", Operator: OpGreaterEqual, Param: paramRef(1)}, false},
		{"empty key", Filter{Operator: OpEqual, Value: Int(1)}, true},
		{"unknown op", Filter{Key: "a", Operator: "like", Value: Int(1)}, true},
		{"missing value", Filter{Key: "a", Operator: OpEqual}, true},
		{"in empty", Filter{Key: "a", Operator: OpIn}, true},
		{"in param", Filter{Key: "a", Operator: OpIn, Values: []Value{Int(1)}, Param: paramRef(1)}, true},
		{"in", Filter{Key: "a", Operator: OpIn, Values: []Value{Int(1)}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.filter.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidFilter)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestFilterMatches(t *testing.T) {
	tests := []struct {
		op    Operator
		value Value
		in    Value
		want  bool
	}{
		{OpEqual, Int(5), Int(5), true},
		{OpEqual, Int(5), Float(5), true},
		{OpNotEqual, Int(5), Int(6), true},
		{OpNotEqual, Int(5), String("x"), false},
		{OpGreaterThan, Int(5), Int(6), true},
		{OpGreaterEqual, Int(5), Int(5), true},
		{OpLessThan, Float(1.5), Int(1), true},
		{OpLessEqual, Int(1), Int(2), false},
		{OpEqual, String("a"), String("a"), true},
		{OpGreaterThan, String("a"), Int(1), false},
	}

	for _, tt := range tests {
		f := Filter{Key: "k", Operator: tt.op, Value: tt.value}
		assert.Equal(t, tt.want, f.Matches(tt.in), "%s vs %s", f, tt.in)
	}

	in := Filter{Key: "k", Operator: OpIn, Values: []Value{String("a"), String("b")}}
	assert.True(t, in.Matches(String("b")))
	assert.False(t, in.Matches(String("c")))
}

func TestFilterBind(t *testing.T) {
	fs := NewFilterSet(
		Filter{Key: "year", Operator: OpGreaterEqual, Param: paramRef(1)},
		Filter{Key: "genre", Operator: OpEqual, Value: String("noir")},
	)
	assert.Equal(t, []model.ParamID{1}, fs.Params())
	assert.Equal(t, `year >= $1 AND genre = "noir"`, fs.String())

	lookup := func(id model.ParamID) (Value, bool) {
		if id == 1 {
			return Int(1990), true
		}
		return Value{}, false
	}

	bound, err := fs.Bind(lookup)
	require.NoError(t, err)
	assert.Nil(t, bound.Filters[0].Param)
	assert.Equal(t, Int(1990), bound.Filters[0].Value)
	assert.Equal(t, `year >= 1990 AND genre = "noir"`, bound.String())

	// the original is untouched
	assert.NotNil(t, fs.Filters[0].Param)

	_, err = fs.Bind(func(model.ParamID) (Value, bool) { return Value{}, false })
	assert.ErrorIs(t, err, ErrUnboundParam)

	_, err = fs.Bind(nil)
	assert.ErrorIs(t, err, ErrUnboundParam)
}

func TestFilterSetMatches(t *testing.T) {
	fs := NewFilterSet(
		Filter{Key: "year", Operator: OpLessThan, Value: Int(2000)},
		Filter{Key: "genre", Operator: OpIn, Values: []Value{String("noir"), String("drama")}},
	)

	assert.True(t, fs.Matches(Document{"year": Int(1950), "genre": String("noir")}))
	assert.False(t, fs.Matches(Document{"year": Int(2010), "genre": String("noir")}))
	assert.False(t, fs.Matches(Document{"year": Int(1950)}))

	assert.ErrorIs(t, NewFilterSet().Validate(), ErrInvalidFilter)
}
