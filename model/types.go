package model

import (
	"fmt"
)

// RowID is a dense identifier for a row within a relation.
// Candidate sets are sets of RowIDs.
type RowID uint32

// ParamID identifies an executor parameter slot ($1, $2, ...).
type ParamID uint32

// String returns the placeholder form of the parameter.
func (p ParamID) String() string {
	return fmt.Sprintf("$%d", uint32(p))
}

// Record represents a row as seen by the indexes: its identifier, an optional
// embedding and optional metadata attributes.
type Record struct {
	ID       RowID          `json:"id" yaml:"id"`
	Vector   []float32      `json:"vector,omitempty" yaml:"vector,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// SearchResult is a single similarity hit.
type SearchResult struct {
	// ID is the row that matched.
	ID RowID

	// Distance between the query and the row vector (smaller is closer).
	Distance float32
}
