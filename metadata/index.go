package metadata

import (
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/hupe1980/vecand/candidate"
	"github.com/hupe1980/vecand/model"
)

// posting is the list of rows holding one distinct value of a field.
type posting struct {
	value Value
	rows  *roaring.Bitmap
}

// Index combines metadata storage with inverted indexing using Roaring Bitmaps.
//
// Architecture:
//   - Primary storage: map[RowID]Document
//   - Inverted index: field -> value key -> posting (value + bitmap of rows)
//
// Index is safe for concurrent use.
type Index struct {
	mu sync.RWMutex

	documents map[model.RowID]Document
	inverted  map[string]map[string]*posting
}

// NewIndex creates a new empty index.
func NewIndex() *Index {
	return &Index{
		documents: make(map[model.RowID]Document),
		inverted:  make(map[string]map[string]*posting),
	}
}

// Set stores metadata for a row and updates the inverted index.
// This replaces any existing metadata for the row.
func (ix *Index) Set(id model.RowID, doc Document) {
	if doc == nil {
		return
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()

	if old, ok := ix.documents[id]; ok {
		ix.removeLocked(id, old)
	}
	doc = doc.Clone()
	ix.documents[id] = doc
	ix.addLocked(id, doc)
}

// Get retrieves metadata for a row.
func (ix *Index) Get(id model.RowID) (Document, bool) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	doc, ok := ix.documents[id]
	return doc, ok
}

// Delete removes a row from the index.
func (ix *Index) Delete(id model.RowID) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	if doc, ok := ix.documents[id]; ok {
		ix.removeLocked(id, doc)
		delete(ix.documents, id)
	}
}

// Len returns the number of indexed rows.
func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	return len(ix.documents)
}

func (ix *Index) addLocked(id model.RowID, doc Document) {
	for field, value := range doc {
		values, ok := ix.inverted[field]
		if !ok {
			values = make(map[string]*posting)
			ix.inverted[field] = values
		}
		key := value.Key()
		p, ok := values[key]
		if !ok {
			p = &posting{value: value, rows: roaring.New()}
			values[key] = p
		}
		p.rows.Add(uint32(id))
	}
}

func (ix *Index) removeLocked(id model.RowID, doc Document) {
	for field, value := range doc {
		values, ok := ix.inverted[field]
		if !ok {
			continue
		}
		key := value.Key()
		p, ok := values[key]
		if !ok {
			continue
		}
		p.rows.Remove(uint32(id))

		// Clean up empty postings
		if p.rows.IsEmpty() {
			delete(values, key)
			if len(values) == 0 {
				delete(ix.inverted, field)
			}
		}
	}
}

// Evaluate answers a conjunction of bound filters with a fresh candidate set
// created with capacityHint. The caller owns the returned set.
//
// Filters are applied in order and evaluation stops as soon as the running
// intersection is empty.
func (ix *Index) Evaluate(fs *FilterSet, capacityHint int64) (*candidate.Set, error) {
	if err := fs.Validate(); err != nil {
		return nil, err
	}

	ix.mu.RLock()
	defer ix.mu.RUnlock()

	var acc *roaring.Bitmap
	for _, f := range fs.Filters {
		if f.Param != nil {
			return nil, fmt.Errorf("%w: %s", ErrUnboundParam, f.Param)
		}

		rows := ix.lookupLocked(f)
		if acc == nil {
			acc = rows
		} else {
			acc.And(rows)
		}

		if acc.IsEmpty() {
			break
		}
	}

	out := candidate.New(capacityHint)
	out.AddBitmap(acc)
	return out, nil
}

// lookupLocked returns a private bitmap of rows matching a single filter.
// Caller must hold ix.mu.RLock().
func (ix *Index) lookupLocked(f Filter) *roaring.Bitmap {
	values, ok := ix.inverted[f.Key]
	if !ok {
		return roaring.New()
	}

	switch f.Operator {
	case OpEqual:
		if p, ok := values[f.Value.Key()]; ok {
			return p.rows.Clone()
		}
		return roaring.New()
	case OpIn:
		out := roaring.New()
		for _, v := range f.Values {
			if p, ok := values[v.Key()]; ok {
				out.Or(p.rows)
			}
		}
		return out
	default:
		// Range and inequality probes scan the distinct values of the field.
		matched := make([]*roaring.Bitmap, 0, len(values))
		for _, p := range values {
			if f.Matches(p.value) {
				matched = append(matched, p.rows)
			}
		}
		if len(matched) == 0 {
			return roaring.New()
		}
		return roaring.FastOr(matched...)
	}
}

// Stats describes the index.
type Stats struct {
	RowCount         int
	FieldCount       int
	PostingCount     int
	TotalCardinality uint64
	MemoryBytes      uint64
}

// GetStats returns statistics about the index.
func (ix *Index) GetStats() Stats {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	stats := Stats{
		RowCount:   len(ix.documents),
		FieldCount: len(ix.inverted),
	}
	for _, values := range ix.inverted {
		for _, p := range values {
			stats.PostingCount++
			stats.TotalCardinality += p.rows.GetCardinality()
			stats.MemoryBytes += p.rows.GetSizeInBytes()
		}
	}
	return stats
}

// Fields returns the indexed field names in sorted order.
func (ix *Index) Fields() []string {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	out := make([]string, 0, len(ix.inverted))
	for f := range ix.inverted {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

// MarshalJSON encodes the stored documents. Postings are rebuilt on load.
func (ix *Index) MarshalJSON() ([]byte, error) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	return json.Marshal(ix.documents)
}

// UnmarshalJSON replaces the index contents with the encoded documents.
func (ix *Index) UnmarshalJSON(data []byte) error {
	var docs map[model.RowID]Document
	if err := json.Unmarshal(data, &docs); err != nil {
		return fmt.Errorf("metadata: decode index: %w", err)
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()

	ix.documents = make(map[model.RowID]Document, len(docs))
	ix.inverted = make(map[string]map[string]*posting)
	for id, doc := range docs {
		ix.documents[id] = doc
		ix.addLocked(id, doc)
	}
	return nil
}
