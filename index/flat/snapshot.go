package flat

import (
	"encoding/json"
	"fmt"

	"github.com/hupe1980/vecand/distance"
	"github.com/hupe1980/vecand/model"
)

// snapshot is the persisted form of an Index.
type snapshot struct {
	Dimension int             `json:"dimension"`
	Metric    distance.Metric `json:"metric"`
	IDs       []model.RowID   `json:"ids"`
	Vectors   []float32       `json:"vectors"`
}

// MarshalJSON encodes the index.
func (f *Index) MarshalJSON() ([]byte, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	return json.Marshal(snapshot{
		Dimension: f.opts.Dimension,
		Metric:    f.opts.Metric,
		IDs:       f.ids,
		Vectors:   f.vectors,
	})
}

// Decode rebuilds an index from MarshalJSON output.
func Decode(data []byte) (*Index, error) {
	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("flat: decode: %w", err)
	}
	if len(snap.Vectors) != len(snap.IDs)*snap.Dimension {
		return nil, fmt.Errorf("flat: decode: %d vectors values for %d rows of dimension %d",
			len(snap.Vectors), len(snap.IDs), snap.Dimension)
	}

	f, err := New(func(o *Options) {
		o.Dimension = snap.Dimension
		o.Metric = snap.Metric
	})
	if err != nil {
		return nil, err
	}

	f.ids = snap.IDs
	f.vectors = snap.Vectors
	for i, id := range snap.IDs {
		if _, dup := f.pos[id]; dup {
			return nil, fmt.Errorf("flat: decode: duplicate row %d", id)
		}
		f.pos[id] = i
	}
	return f, nil
}

// UnmarshalJSON replaces the index contents with MarshalJSON output.
func (f *Index) UnmarshalJSON(data []byte) error {
	dec, err := Decode(data)
	if err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.opts, f.dist = dec.opts, dec.dist
	f.ids, f.vectors, f.pos = dec.ids, dec.vectors, dec.pos
	return nil
}
