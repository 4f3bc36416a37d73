package exec

import (
	"strings"
	"sync"

	"github.com/bits-and-blooms/bitset"
	"github.com/hupe1980/vecand/metadata"
	"github.com/hupe1980/vecand/model"
)

// ParamSet is a set of parameter ids. The zero value and nil are empty sets.
type ParamSet struct {
	bits bitset.BitSet
}

// NewParamSet returns a set holding ids.
func NewParamSet(ids ...model.ParamID) *ParamSet {
	p := &ParamSet{}
	for _, id := range ids {
		p.Add(id)
	}
	return p
}

// Add inserts id.
func (p *ParamSet) Add(id model.ParamID) {
	p.bits.Set(uint(id))
}

// Contains reports whether id is in the set.
func (p *ParamSet) Contains(id model.ParamID) bool {
	if p == nil {
		return false
	}
	return p.bits.Test(uint(id))
}

// IsEmpty reports whether the set has no members.
func (p *ParamSet) IsEmpty() bool {
	return p == nil || p.bits.None()
}

// Len returns the number of members.
func (p *ParamSet) Len() int {
	if p == nil {
		return 0
	}
	return int(p.bits.Count())
}

// Union adds every member of other.
func (p *ParamSet) Union(other *ParamSet) {
	if other == nil {
		return
	}
	p.bits.InPlaceUnion(&other.bits)
}

// Intersects reports whether the sets share a member.
func (p *ParamSet) Intersects(other *ParamSet) bool {
	if p == nil || other == nil {
		return false
	}
	return p.bits.IntersectionCardinality(&other.bits) > 0
}

// Clear removes all members.
func (p *ParamSet) Clear() {
	p.bits.ClearAll()
}

// Clone returns an independent copy.
func (p *ParamSet) Clone() *ParamSet {
	out := &ParamSet{}
	if p != nil {
		p.bits.CopyFull(&out.bits)
	}
	return out
}

// IDs returns the members in ascending order.
func (p *ParamSet) IDs() []model.ParamID {
	if p == nil {
		return nil
	}
	out := make([]model.ParamID, 0, p.bits.Count())
	for i, ok := p.bits.NextSet(0); ok; i, ok = p.bits.NextSet(i + 1) {
		out = append(out, model.ParamID(i))
	}
	return out
}

// String renders the set as "{$1,$3}".
func (p *ParamSet) String() string {
	ids := p.IDs()
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = id.String()
	}
	return "{" + strings.Join(parts, ",") + "}"
}

// ParamValues holds the current value of every executor parameter.
// It is shared by all nodes of a tree.
type ParamValues struct {
	mu     sync.RWMutex
	values map[model.ParamID]metadata.Value
}

// NewParamValues returns an empty parameter store.
func NewParamValues() *ParamValues {
	return &ParamValues{values: make(map[model.ParamID]metadata.Value)}
}

// Set assigns v to id and reports whether the value changed.
func (pv *ParamValues) Set(id model.ParamID, v metadata.Value) bool {
	pv.mu.Lock()
	defer pv.mu.Unlock()

	if old, ok := pv.values[id]; ok && old == v {
		return false
	}
	pv.values[id] = v
	return true
}

// Lookup returns the value of id. A nil store has no values.
func (pv *ParamValues) Lookup(id model.ParamID) (metadata.Value, bool) {
	if pv == nil {
		return metadata.Value{}, false
	}
	pv.mu.RLock()
	defer pv.mu.RUnlock()

	v, ok := pv.values[id]
	return v, ok
}
