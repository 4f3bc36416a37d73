package flat

import (
	"context"
	"fmt"
	"slices"

	"github.com/hupe1980/vecand/candidate"
	"github.com/hupe1980/vecand/internal/queue"
	"github.com/hupe1980/vecand/model"
)

// All requests every row that passes the filter and distance cutoff.
const All = -1

// checkInterval is how many rows are scanned between context checks and
// throttle calls.
const checkInterval = 1024

// SearchOptions controls a single search.
type SearchOptions struct {
	// K is the number of nearest rows to return. All (-1) returns every
	// qualifying row; 0 returns nothing.
	K int

	// Filter, when non-nil, restricts the scan to its members.
	Filter *candidate.Set

	// MaxDistance drops rows farther than this. Zero disables the cutoff.
	MaxDistance float32

	// Throttle is called with the number of rows about to be scanned.
	// A non-nil error aborts the search.
	Throttle func(ctx context.Context, rows int) error
}

// SearchStats reports the work done by a search.
type SearchStats struct {
	RowsScanned int
}

// Search returns the nearest rows to q, nearest first. Ties are broken by
// ascending row id.
func (f *Index) Search(ctx context.Context, q []float32, opts SearchOptions) ([]model.SearchResult, SearchStats, error) {
	var stats SearchStats

	if opts.K < All {
		return nil, stats, fmt.Errorf("flat: invalid k %d", opts.K)
	}
	if opts.K == 0 {
		return nil, stats, nil
	}

	query, err := f.prepare(q)
	if err != nil {
		return nil, stats, err
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	var (
		hq   *queue.PriorityQueue
		hits []queue.Item
	)
	if opts.K > 0 {
		hq = queue.NewMax(min(opts.K, len(f.ids)))
	}

	dim := f.opts.Dimension
	visit := func(i int) {
		d := f.dist(query, f.vectors[i*dim:(i+1)*dim])
		if opts.MaxDistance > 0 && d > opts.MaxDistance {
			return
		}
		item := queue.Item{ID: f.ids[i], Distance: d}
		if hq != nil {
			hq.PushBounded(item, opts.K)
		} else {
			hits = append(hits, item)
		}
	}

	gate := func() error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if opts.Throttle != nil {
			return opts.Throttle(ctx, checkInterval)
		}
		return nil
	}

	if opts.Filter != nil {
		for id := range opts.Filter.Iterator() {
			if stats.RowsScanned%checkInterval == 0 {
				if err := gate(); err != nil {
					return nil, stats, err
				}
			}
			stats.RowsScanned++
			if i, ok := f.pos[id]; ok {
				visit(i)
			}
		}
	} else {
		for i := range f.ids {
			if i%checkInterval == 0 {
				if err := gate(); err != nil {
					return nil, stats, err
				}
			}
			stats.RowsScanned++
			visit(i)
		}
	}

	if hq != nil {
		hits = hq.Drain()
	} else {
		slices.SortFunc(hits, func(a, b queue.Item) int {
			switch {
			case a.Distance < b.Distance:
				return -1
			case a.Distance > b.Distance:
				return 1
			case a.ID < b.ID:
				return -1
			case a.ID > b.ID:
				return 1
			default:
				return 0
			}
		})
	}

	out := make([]model.SearchResult, len(hits))
	for i, h := range hits {
		out[i] = model.SearchResult{ID: h.ID, Distance: h.Distance}
	}
	return out, stats, nil
}
