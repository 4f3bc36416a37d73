// Package catalog holds the named indexes scanned by query plans and
// persists them to a blob store.
//
// A catalog contains two kinds of indexes: metadata indexes, probed by
// BitmapIndexScan nodes, and flat vector indexes, probed by SimilarityScan
// nodes. Names are unique across both kinds.
//
// Snapshots are written with Save and read back with Load. Each snapshot is a
// versioned JSON manifest plus one compressed blob per index; a CURRENT blob
// points at the latest manifest.
package catalog

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/hupe1980/vecand/index/flat"
	"github.com/hupe1980/vecand/metadata"
)

var (
	// ErrDuplicateIndex is returned when an index name is already taken.
	ErrDuplicateIndex = errors.New("catalog: duplicate index")

	// ErrInvalidName is returned for an empty index name.
	ErrInvalidName = errors.New("catalog: invalid index name")
)

// Kind identifies the type of a catalog index.
type Kind string

const (
	KindMetadata Kind = "metadata"
	KindVector   Kind = "vector"
)

// Catalog is a set of named indexes. It is safe for concurrent use.
type Catalog struct {
	mu      sync.RWMutex
	meta    map[string]*metadata.Index
	vectors map[string]*flat.Index
}

// New returns an empty catalog.
func New() *Catalog {
	return &Catalog{
		meta:    make(map[string]*metadata.Index),
		vectors: make(map[string]*flat.Index),
	}
}

func (c *Catalog) checkNameLocked(name string) error {
	if name == "" {
		return ErrInvalidName
	}
	if _, ok := c.meta[name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateIndex, name)
	}
	if _, ok := c.vectors[name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateIndex, name)
	}
	return nil
}

// AddMetadataIndex registers ix under name.
func (c *Catalog) AddMetadataIndex(name string, ix *metadata.Index) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.checkNameLocked(name); err != nil {
		return err
	}
	c.meta[name] = ix
	return nil
}

// AddVectorIndex registers ix under name.
func (c *Catalog) AddVectorIndex(name string, ix *flat.Index) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.checkNameLocked(name); err != nil {
		return err
	}
	c.vectors[name] = ix
	return nil
}

// MetadataIndex returns the metadata index registered under name.
func (c *Catalog) MetadataIndex(name string) (*metadata.Index, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	ix, ok := c.meta[name]
	return ix, ok
}

// VectorIndex returns the vector index registered under name.
func (c *Catalog) VectorIndex(name string) (*flat.Index, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	ix, ok := c.vectors[name]
	return ix, ok
}

// Drop removes the index registered under name and reports whether it
// existed.
func (c *Catalog) Drop(name string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.meta[name]; ok {
		delete(c.meta, name)
		return true
	}
	if _, ok := c.vectors[name]; ok {
		delete(c.vectors, name)
		return true
	}
	return false
}

// Entry names one catalog index.
type Entry struct {
	Name string
	Kind Kind
	Rows int
}

// Entries lists every index, sorted by name.
func (c *Catalog) Entries() []Entry {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]Entry, 0, len(c.meta)+len(c.vectors))
	for name, ix := range c.meta {
		out = append(out, Entry{Name: name, Kind: KindMetadata, Rows: ix.Len()})
	}
	for name, ix := range c.vectors {
		out = append(out, Entry{Name: name, Kind: KindVector, Rows: ix.Len()})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
