package candidate

import (
	"fmt"
	"io"
	"iter"
	"strings"
	"sync"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/hupe1980/vecand/model"
)

// Set is a set of row identifiers.
// It is not safe for concurrent mutation.
type Set struct {
	rb *roaring.Bitmap

	// capacityHint is the memory budget (bytes) the creator expects the set to
	// stay within. Zero means no hint.
	capacityHint int64

	released bool
}

// setPool reuses Set instances to keep allocations out of the execution path.
var setPool = sync.Pool{
	New: func() any {
		return &Set{
			rb: roaring.New(),
		}
	},
}

// New returns an empty set from the pool. capacityHint is the number of bytes
// the caller is prepared to spend on it; see ExceedsHint.
func New(capacityHint int64) *Set {
	s := setPool.Get().(*Set)
	s.rb.Clear()
	s.capacityHint = capacityHint
	s.released = false
	return s
}

// FromIDs returns a set containing ids.
func FromIDs(ids ...model.RowID) *Set {
	s := New(0)
	for _, id := range ids {
		s.rb.Add(uint32(id))
	}
	return s
}

// FromBitmap returns a set holding a copy of rb.
func FromBitmap(rb *roaring.Bitmap) *Set {
	s := New(0)
	if rb != nil {
		s.rb.Or(rb)
	}
	return s
}

// Release returns the set to the pool. The set must not be used afterwards.
// Release on nil is a no-op. A second Release is ignored only until the pool
// hands the set out again; after that the stale handle refers to a live set,
// so callers must drop their reference when they release.
func (s *Set) Release() {
	if s == nil || s.released {
		return
	}
	s.released = true
	// Clear before returning to pool to release container memory
	s.rb.Clear()
	s.capacityHint = 0
	setPool.Put(s)
}

// Add adds a row to the set.
func (s *Set) Add(id model.RowID) {
	s.rb.Add(uint32(id))
}

// AddMany adds rows to the set.
func (s *Set) AddMany(ids []model.RowID) {
	for _, id := range ids {
		s.rb.Add(uint32(id))
	}
}

// AddBitmap unions rb into the set.
func (s *Set) AddBitmap(rb *roaring.Bitmap) {
	if rb != nil {
		s.rb.Or(rb)
	}
}

// Remove removes a row from the set.
func (s *Set) Remove(id model.RowID) {
	s.rb.Remove(uint32(id))
}

// Contains reports whether id is in the set. A nil set contains nothing.
func (s *Set) Contains(id model.RowID) bool {
	if s == nil {
		return false
	}
	return s.rb.Contains(uint32(id))
}

// IsEmpty reports whether the set has no members. A nil set is empty.
func (s *Set) IsEmpty() bool {
	return s == nil || s.rb.IsEmpty()
}

// Cardinality returns the number of members.
func (s *Set) Cardinality() uint64 {
	if s == nil {
		return 0
	}
	return s.rb.GetCardinality()
}

// And intersects other into s. other is not modified.
func (s *Set) And(other *Set) {
	if other == nil {
		s.rb.Clear()
		return
	}
	s.rb.And(other.rb)
}

// Or unions other into s. other is not modified.
func (s *Set) Or(other *Set) {
	if other == nil {
		return
	}
	s.rb.Or(other.rb)
}

// AndNot removes every member of other from s.
func (s *Set) AndNot(other *Set) {
	if other == nil {
		return
	}
	s.rb.AndNot(other.rb)
}

// Clear removes all members.
func (s *Set) Clear() {
	s.rb.Clear()
}

// Clone returns an independent copy carrying the same capacity hint.
func (s *Set) Clone() *Set {
	c := New(s.capacityHint)
	c.rb.Or(s.rb)
	return c
}

// Equals reports whether both sets have the same members.
func (s *Set) Equals(other *Set) bool {
	if s.IsEmpty() || other.IsEmpty() {
		return s.IsEmpty() && other.IsEmpty()
	}
	return s.rb.Equals(other.rb)
}

// ToArray returns the members in ascending order.
func (s *Set) ToArray() []model.RowID {
	if s == nil {
		return nil
	}
	out := make([]model.RowID, 0, s.rb.GetCardinality())
	it := s.rb.Iterator()
	for it.HasNext() {
		out = append(out, model.RowID(it.Next()))
	}
	return out
}

// Iterator returns an ascending iterator over the members.
func (s *Set) Iterator() iter.Seq[model.RowID] {
	return func(yield func(model.RowID) bool) {
		if s == nil {
			return
		}
		it := s.rb.Iterator()
		for it.HasNext() {
			if !yield(model.RowID(it.Next())) {
				return
			}
		}
	}
}

// CapacityHint returns the memory budget the set was created with.
func (s *Set) CapacityHint() int64 {
	return s.capacityHint
}

// SizeInBytes returns the serialized size of the set.
func (s *Set) SizeInBytes() uint64 {
	return s.rb.GetSizeInBytes()
}

// ExceedsHint reports whether the set has grown past its capacity hint.
func (s *Set) ExceedsHint() bool {
	return s.capacityHint > 0 && s.rb.GetSizeInBytes() > uint64(s.capacityHint)
}

// WriteTo writes the set in the portable roaring format.
func (s *Set) WriteTo(w io.Writer) (int64, error) {
	return s.rb.WriteTo(w)
}

// ReadFrom replaces the contents of s with a set read from r.
func (s *Set) ReadFrom(r io.Reader) (int64, error) {
	return s.rb.ReadFrom(r)
}

// String renders the set as {1,2,3}; large sets are abbreviated.
func (s *Set) String() string {
	const maxShown = 16

	if s.IsEmpty() {
		return "{}"
	}

	var sb strings.Builder
	sb.WriteByte('{')
	n := 0
	it := s.rb.Iterator()
	for it.HasNext() {
		if n == maxShown {
			fmt.Fprintf(&sb, ",...(%d total)", s.rb.GetCardinality())
			break
		}
		if n > 0 {
			sb.WriteByte(',')
		}
		fmt.Fprintf(&sb, "%d", it.Next())
		n++
	}
	sb.WriteByte('}')
	return sb.String()
}
