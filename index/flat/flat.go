// Package flat provides an exact (brute-force) vector index.
//
// Flat keeps every vector in one contiguous columnar slice and answers top-K
// queries by scanning it, or only the rows of a candidate filter when one is
// given. It is the similarity index behind exec.SimilarityScan.
package flat

import (
	"errors"
	"fmt"
	"sync"

	"github.com/hupe1980/vecand/distance"
	"github.com/hupe1980/vecand/model"
)

var (
	// ErrDimensionMismatch is returned when a vector has the wrong length.
	ErrDimensionMismatch = errors.New("flat: dimension mismatch")
	// ErrInvalidOptions is returned by New for unusable options.
	ErrInvalidOptions = errors.New("flat: invalid options")
)

// Options contains configuration options for the flat index.
type Options struct {
	// Dimension is the fixed vector dimensionality for this index.
	// It must be > 0 and is enforced for all inserts and searches.
	Dimension int

	// Metric selects the distance function.
	Metric distance.Metric
}

// DefaultOptions contains the default configuration options for the flat index.
var DefaultOptions = Options{
	Metric: distance.MetricL2,
}

// Index is a flat vector index. It is safe for concurrent use; searches run
// under a read lock.
type Index struct {
	mu sync.RWMutex

	opts Options
	dist distance.Func

	// Columnar storage: row i occupies vectors[i*dim:(i+1)*dim].
	ids     []model.RowID
	vectors []float32
	pos     map[model.RowID]int
}

// New creates a new instance of the flat index.
// Dimension is required and must be set at creation time.
func New(optFns ...func(o *Options)) (*Index, error) {
	opts := DefaultOptions
	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Dimension <= 0 {
		return nil, fmt.Errorf("%w: dimension must be positive, got %d", ErrInvalidOptions, opts.Dimension)
	}
	dist, err := distance.Provider(opts.Metric)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidOptions, err)
	}

	return &Index{
		opts: opts,
		dist: dist,
		pos:  make(map[model.RowID]int),
	}, nil
}

// Dimension returns the vector dimensionality.
func (f *Index) Dimension() int { return f.opts.Dimension }

// Metric returns the distance metric.
func (f *Index) Metric() distance.Metric { return f.opts.Metric }

// Len returns the number of stored vectors.
func (f *Index) Len() int {
	f.mu.RLock()
	defer f.mu.RUnlock()

	return len(f.ids)
}

// prepare validates v and returns the stored form (normalized for cosine).
func (f *Index) prepare(v []float32) ([]float32, error) {
	if len(v) != f.opts.Dimension {
		return nil, fmt.Errorf("%w: expected %d, got %d", ErrDimensionMismatch, f.opts.Dimension, len(v))
	}
	if f.opts.Metric == distance.MetricCosine {
		// Match common vector-store behavior: cosine runs on L2-normalized vectors.
		out, _ := distance.NormalizeL2Copy(v)
		return out, nil
	}
	return v, nil
}

// Insert stores vec for id, replacing any previous vector.
func (f *Index) Insert(id model.RowID, vec []float32) error {
	v, err := f.prepare(vec)
	if err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	dim := f.opts.Dimension
	if i, ok := f.pos[id]; ok {
		copy(f.vectors[i*dim:(i+1)*dim], v)
		return nil
	}

	f.pos[id] = len(f.ids)
	f.ids = append(f.ids, id)
	f.vectors = append(f.vectors, v...)
	return nil
}

// Delete removes id. The last row is moved into the freed slot.
func (f *Index) Delete(id model.RowID) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	i, ok := f.pos[id]
	if !ok {
		return false
	}

	dim := f.opts.Dimension
	last := len(f.ids) - 1
	if i != last {
		moved := f.ids[last]
		f.ids[i] = moved
		copy(f.vectors[i*dim:(i+1)*dim], f.vectors[last*dim:])
		f.pos[moved] = i
	}
	f.ids = f.ids[:last]
	f.vectors = f.vectors[:last*dim]
	delete(f.pos, id)
	return true
}

// Vector returns a copy of the stored vector for id.
func (f *Index) Vector(id model.RowID) ([]float32, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	i, ok := f.pos[id]
	if !ok {
		return nil, false
	}
	dim := f.opts.Dimension
	out := make([]float32, dim)
	copy(out, f.vectors[i*dim:(i+1)*dim])
	return out, true
}
