package exec

import (
	"errors"
	"fmt"
)

var (
	// ErrUnsupportedFlags is returned when a node is initialized with
	// capabilities it cannot provide (backward scan, mark/restore).
	ErrUnsupportedFlags = errors.New("exec: unsupported execution flags")

	// ErrNoChildren is returned when a BitmapAnd has no children.
	ErrNoChildren = errors.New("exec: BitmapAnd doesn't support zero inputs")

	// ErrMultipleSimilarityProbes is returned when a BitmapAnd has more than
	// one similarity probe child.
	ErrMultipleSimilarityProbes = errors.New("exec: more than one similarity probe in BitmapAnd")

	// ErrUnrecognizedResult is returned when a child yields something other
	// than a candidate set.
	ErrUnrecognizedResult = errors.New("exec: unrecognized result from subplan")

	// ErrUnknownPlanNode is returned by InitNode for plan types it cannot run.
	ErrUnknownPlanNode = errors.New("exec: unknown plan node")

	// ErrUnknownIndex is returned when a scan names an index the catalog
	// does not have.
	ErrUnknownIndex = errors.New("exec: unknown index")
)

// ResultTypeError reports the child position and the value it returned.
type ResultTypeError struct {
	Child int
	Got   any
}

func (e *ResultTypeError) Error() string {
	return fmt.Sprintf("exec: unrecognized result from subplan %d: %T", e.Child, e.Got)
}

// Unwrap returns ErrUnrecognizedResult.
func (e *ResultTypeError) Unwrap() error {
	return ErrUnrecognizedResult
}
