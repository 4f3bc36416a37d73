// Package queue provides the bounded priority queue used to collect top-K
// similarity hits.
package queue

import (
	"github.com/hupe1980/vecand/model"
)

// Item is a queued row and its distance, the priority of the item.
type Item struct {
	ID       model.RowID
	Distance float32
}

// PriorityQueue is a binary heap of Items.
// A max-heap keeps the worst (largest distance) item on top, which makes it
// the natural structure for keeping the K best hits.
type PriorityQueue struct {
	isMaxHeap bool
	items     []Item
}

// NewMax returns an empty max-heap with room for capacity items.
func NewMax(capacity int) *PriorityQueue {
	return &PriorityQueue{
		isMaxHeap: true,
		items:     make([]Item, 0, max(capacity, 0)),
	}
}

// NewMin returns an empty min-heap with room for capacity items.
func NewMin(capacity int) *PriorityQueue {
	return &PriorityQueue{
		items: make([]Item, 0, max(capacity, 0)),
	}
}

// Len returns the number of elements in the heap.
func (pq *PriorityQueue) Len() int {
	return len(pq.items)
}

// Top returns the top element of the heap.
func (pq *PriorityQueue) Top() (Item, bool) {
	if len(pq.items) == 0 {
		return Item{}, false
	}
	return pq.items[0], true
}

// Push inserts an item while maintaining the heap invariant.
func (pq *PriorityQueue) Push(item Item) {
	pq.items = append(pq.items, item)
	pq.siftUp(len(pq.items) - 1)
}

// PushBounded inserts an item into a heap holding at most capacity items.
// If the heap is full and the new item is not better than the top, it is
// skipped; if it is better, it replaces the top.
func (pq *PriorityQueue) PushBounded(item Item, capacity int) {
	if len(pq.items) < capacity {
		pq.Push(item)
		return
	}
	if capacity <= 0 {
		return
	}

	if pq.outranks(item, pq.items[0]) {
		pq.items[0] = item
		pq.siftDown(0)
	}
}

// outranks reports whether a belongs below b in the heap, i.e. a is the
// better item to keep.
func (pq *PriorityQueue) outranks(a, b Item) bool {
	if a.Distance == b.Distance {
		if pq.isMaxHeap {
			return a.ID < b.ID
		}
		return a.ID > b.ID
	}
	if pq.isMaxHeap {
		return a.Distance < b.Distance
	}
	return a.Distance > b.Distance
}

// Pop removes and returns the top element.
func (pq *PriorityQueue) Pop() (Item, bool) {
	n := len(pq.items)
	if n == 0 {
		return Item{}, false
	}

	item := pq.items[0]
	pq.items[0] = pq.items[n-1]
	pq.items = pq.items[:n-1]

	if len(pq.items) > 0 {
		pq.siftDown(0)
	}

	return item, true
}

// Drain empties a max-heap into a slice ordered nearest first.
func (pq *PriorityQueue) Drain() []Item {
	out := make([]Item, len(pq.items))
	if pq.isMaxHeap {
		for i := len(out) - 1; i >= 0; i-- {
			out[i], _ = pq.Pop()
		}
		return out
	}
	for i := range out {
		out[i], _ = pq.Pop()
	}
	return out
}

// Reset clears the priority queue.
func (pq *PriorityQueue) Reset() {
	pq.items = pq.items[:0]
}

func (pq *PriorityQueue) less(i, j int) bool {
	a, b := pq.items[i], pq.items[j]
	if a.Distance == b.Distance {
		// Ties break on row id so results are deterministic.
		if pq.isMaxHeap {
			return a.ID > b.ID
		}
		return a.ID < b.ID
	}
	if pq.isMaxHeap {
		return a.Distance > b.Distance
	}
	return a.Distance < b.Distance
}

func (pq *PriorityQueue) siftUp(i int) {
	for i > 0 {
		parent := (i - 1) / 2
		if !pq.less(i, parent) {
			break
		}
		pq.items[i], pq.items[parent] = pq.items[parent], pq.items[i]
		i = parent
	}
}

func (pq *PriorityQueue) siftDown(i int) {
	n := len(pq.items)
	for {
		left := 2*i + 1
		if left >= n {
			break
		}
		child := left
		if right := left + 1; right < n && pq.less(right, left) {
			child = right
		}
		if !pq.less(child, i) {
			break
		}
		pq.items[i], pq.items[child] = pq.items[child], pq.items[i]
		i = child
	}
}
