package candidate

import (
	"bytes"
	"testing"

	"github.com/hupe1980/vecand/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSet_Basic(t *testing.T) {
	s := New(0)
	defer s.Release()

	assert.True(t, s.IsEmpty())

	s.Add(3)
	s.AddMany([]model.RowID{1, 5, 3})

	assert.False(t, s.IsEmpty())
	assert.Equal(t, uint64(3), s.Cardinality())
	assert.True(t, s.Contains(5))
	assert.False(t, s.Contains(2))
	assert.Equal(t, []model.RowID{1, 3, 5}, s.ToArray())

	s.Remove(3)
	assert.Equal(t, []model.RowID{1, 5}, s.ToArray())
}

func TestSet_And(t *testing.T) {
	tests := []struct {
		name string
		a, b []model.RowID
		want []model.RowID
	}{
		{"overlap", []model.RowID{1, 3, 5, 7}, []model.RowID{3, 5, 9}, []model.RowID{3, 5}},
		{"disjoint", []model.RowID{1, 2}, []model.RowID{3, 4}, []model.RowID{}},
		{"empty right", []model.RowID{1, 2}, nil, []model.RowID{}},
		{"identical", []model.RowID{4, 8}, []model.RowID{4, 8}, []model.RowID{4, 8}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := FromIDs(tt.a...)
			b := FromIDs(tt.b...)
			defer a.Release()
			defer b.Release()

			a.And(b)
			assert.Equal(t, tt.want, a.ToArray())
			assert.Equal(t, len(tt.want) == 0, a.IsEmpty())
		})
	}
}

func TestSet_AndNil(t *testing.T) {
	a := FromIDs(1, 2)
	defer a.Release()

	a.And(nil)
	assert.True(t, a.IsEmpty())
}

func TestSet_OrAndNot(t *testing.T) {
	a := FromIDs(1, 2)
	b := FromIDs(2, 3)
	defer a.Release()
	defer b.Release()

	a.Or(b)
	assert.Equal(t, []model.RowID{1, 2, 3}, a.ToArray())

	a.AndNot(b)
	assert.Equal(t, []model.RowID{1}, a.ToArray())
}

func TestSet_NilSafety(t *testing.T) {
	var s *Set
	assert.True(t, s.IsEmpty())
	assert.False(t, s.Contains(1))
	assert.Equal(t, uint64(0), s.Cardinality())
	assert.Nil(t, s.ToArray())
	assert.Equal(t, "{}", s.String())
	s.Release()
}

func TestSet_ReleaseTwice(t *testing.T) {
	s := FromIDs(1)
	s.Release()
	assert.True(t, s.released)
	assert.NotPanics(t, func() { s.Release() })
}

func TestSet_CloneIsIndependent(t *testing.T) {
	s := New(1024)
	s.AddMany([]model.RowID{1, 2})
	c := s.Clone()
	defer s.Release()
	defer c.Release()

	c.Add(3)
	assert.Equal(t, []model.RowID{1, 2}, s.ToArray())
	assert.Equal(t, []model.RowID{1, 2, 3}, c.ToArray())
	assert.Equal(t, int64(1024), c.CapacityHint())
}

func TestSet_Equals(t *testing.T) {
	a := FromIDs(1, 2)
	b := FromIDs(2, 1)
	e1 := New(0)
	defer a.Release()
	defer b.Release()
	defer e1.Release()

	assert.True(t, a.Equals(b))
	assert.False(t, a.Equals(e1))
	assert.True(t, e1.Equals(nil))
}

func TestSet_ExceedsHint(t *testing.T) {
	s := New(64)
	defer s.Release()
	assert.False(t, s.ExceedsHint())

	for i := 0; i < 100; i++ {
		s.Add(model.RowID(i * 100000))
	}
	assert.True(t, s.ExceedsHint())

	unbounded := FromIDs(1, 2, 3)
	defer unbounded.Release()
	assert.False(t, unbounded.ExceedsHint())
}

func TestSet_Iterator(t *testing.T) {
	s := FromIDs(9, 1, 4)
	defer s.Release()

	var got []model.RowID
	for id := range s.Iterator() {
		got = append(got, id)
		if len(got) == 2 {
			break
		}
	}
	assert.Equal(t, []model.RowID{1, 4}, got)
}

func TestSet_String(t *testing.T) {
	s := FromIDs(3, 5)
	defer s.Release()
	assert.Equal(t, "{3,5}", s.String())

	big := New(0)
	defer big.Release()
	for i := 0; i < 20; i++ {
		big.Add(model.RowID(i))
	}
	assert.Equal(t, "{0,1,2,3,4,5,6,7,8,9,10,11,12,13,14,15,...(20 total)}", big.String())
}

func TestSet_WriteReadRoundTrip(t *testing.T) {
	s := FromIDs(1, 70000, 123456)
	defer s.Release()

	var buf bytes.Buffer
	_, err := s.WriteTo(&buf)
	require.NoError(t, err)

	r := New(0)
	defer r.Release()
	_, err = r.ReadFrom(&buf)
	require.NoError(t, err)
	assert.True(t, s.Equals(r))
}
