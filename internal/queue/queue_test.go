package queue

import (
	"testing"

	"github.com/hupe1980/vecand/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPriorityQueue_MaxBounded(t *testing.T) {
	pq := NewMax(3)
	dists := []float32{5, 1, 4, 2, 3, 0.5}
	for i, d := range dists {
		pq.PushBounded(Item{ID: model.RowID(i), Distance: d}, 3)
	}

	require.Equal(t, 3, pq.Len())
	top, ok := pq.Top()
	require.True(t, ok)
	assert.Equal(t, float32(2), top.Distance)

	got := pq.Drain()
	assert.Equal(t, []Item{
		{ID: 5, Distance: 0.5},
		{ID: 1, Distance: 1},
		{ID: 3, Distance: 2},
	}, got)
	assert.Equal(t, 0, pq.Len())
}

func TestPriorityQueue_Min(t *testing.T) {
	pq := NewMin(4)
	pq.Push(Item{ID: 1, Distance: 3})
	pq.Push(Item{ID: 2, Distance: 1})
	pq.Push(Item{ID: 3, Distance: 2})

	got := pq.Drain()
	assert.Equal(t, []model.RowID{2, 3, 1}, []model.RowID{got[0].ID, got[1].ID, got[2].ID})
}

func TestPriorityQueue_TiesAreDeterministic(t *testing.T) {
	pq := NewMax(2)
	for _, id := range []model.RowID{7, 3, 9, 1} {
		pq.PushBounded(Item{ID: id, Distance: 1}, 2)
	}
	got := pq.Drain()
	require.Len(t, got, 2)
	assert.Equal(t, model.RowID(1), got[0].ID)
	assert.Equal(t, model.RowID(3), got[1].ID)
}

func TestPriorityQueue_Empty(t *testing.T) {
	pq := NewMax(0)
	_, ok := pq.Pop()
	assert.False(t, ok)
	_, ok = pq.Top()
	assert.False(t, ok)

	pq.PushBounded(Item{ID: 1}, 0)
	assert.Equal(t, 0, pq.Len())

	pq.Push(Item{ID: 1})
	pq.Reset()
	assert.Equal(t, 0, pq.Len())
}
