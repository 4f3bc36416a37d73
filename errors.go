package vecand

import (
	"errors"
	"fmt"

	"github.com/hupe1980/vecand/blobstore"
	"github.com/hupe1980/vecand/catalog"
	"github.com/hupe1980/vecand/exec"
	"github.com/hupe1980/vecand/index/flat"
	"github.com/hupe1980/vecand/metadata"
	"github.com/hupe1980/vecand/plan"
)

var (
	// ErrNotFound is returned when an index or snapshot does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidPlan is returned when a plan cannot be initialized.
	ErrInvalidPlan = errors.New("invalid plan")

	// ErrUnboundParam is returned when a query runs before all of its
	// parameters are bound.
	ErrUnboundParam = errors.New("unbound parameter")

	// ErrClosed is returned when using a closed engine or query.
	ErrClosed = errors.New("closed")
)

// ErrUnknownParam is returned by Bind for a parameter the plan does not
// reference.
type ErrUnknownParam struct {
	ID uint32
}

func (e *ErrUnknownParam) Error() string {
	return fmt.Sprintf("unknown parameter $%d", e.ID)
}

func translateError(err error) error {
	if err == nil {
		return nil
	}

	// Not found unification.
	if errors.Is(err, exec.ErrUnknownIndex) ||
		errors.Is(err, catalog.ErrNotFound) ||
		errors.Is(err, blobstore.ErrNotFound) {
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	}

	if errors.Is(err, metadata.ErrUnboundParam) {
		return fmt.Errorf("%w: %w", ErrUnboundParam, err)
	}

	// Planner and configuration errors.
	for _, target := range []error{
		exec.ErrNoChildren,
		exec.ErrMultipleSimilarityProbes,
		exec.ErrUnsupportedFlags,
		exec.ErrUnknownPlanNode,
		plan.ErrInvalidSpec,
		metadata.ErrInvalidFilter,
		flat.ErrDimensionMismatch,
	} {
		if errors.Is(err, target) {
			return fmt.Errorf("%w: %w", ErrInvalidPlan, err)
		}
	}

	return err
}
