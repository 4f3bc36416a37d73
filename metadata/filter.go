package metadata

import (
	"errors"
	"fmt"
	"strings"

	"github.com/hupe1980/vecand/model"
)

var (
	// ErrInvalidFilter is returned for filters that cannot be evaluated.
	ErrInvalidFilter = errors.New("metadata: invalid filter")

	// ErrUnboundParam is returned when a filter references a parameter that
	// has no value.
	ErrUnboundParam = errors.New("metadata: unbound parameter")
)

// Operator represents a comparison operator for filtering.
type Operator string

const (
	// OpEqual represents the equality operator.
	OpEqual Operator = "eq"
	// OpNotEqual represents the inequality operator.
	OpNotEqual Operator = "ne"
	// OpGreaterThan represents the greater than operator.
	OpGreaterThan Operator = "gt"
	// OpGreaterEqual represents the greater than or equal operator.
	OpGreaterEqual Operator = "gte"
	// OpLessThan represents the less than operator.
	OpLessThan Operator = "lt"
	// OpLessEqual represents the less than or equal operator.
	OpLessEqual Operator = "lte"
	// OpIn represents the in list operator.
	OpIn Operator = "in"
)

var operatorSymbols = map[Operator]string{
	OpEqual:        "=",
	OpNotEqual:     "<>",
	OpGreaterThan:  ">",
	OpGreaterEqual: ">=",
	OpLessThan:     "<",
	OpLessEqual:    "<=",
	OpIn:           "IN",
}

// Filter represents a single metadata filter condition.
type Filter struct {
	Key      string
	Operator Operator
	Value    Value

	// Values holds the list for OpIn.
	Values []Value

	// Param, when set, makes Value come from an executor parameter at
	// evaluation time.
	Param *model.ParamID
}

// Validate checks that the filter is well formed.
func (f Filter) Validate() error {
	if f.Key == "" {
		return fmt.Errorf("%w: empty key", ErrInvalidFilter)
	}
	if _, ok := operatorSymbols[f.Operator]; !ok {
		return fmt.Errorf("%w: unknown operator %q", ErrInvalidFilter, f.Operator)
	}
	if f.Operator == OpIn {
		if f.Param != nil {
			return fmt.Errorf("%w: parameters are not supported for IN", ErrInvalidFilter)
		}
		if len(f.Values) == 0 {
			return fmt.Errorf("%w: IN requires at least one value", ErrInvalidFilter)
		}
		return nil
	}
	if f.Param == nil && f.Value.Kind == KindInvalid {
		return fmt.Errorf("%w: missing value for %q", ErrInvalidFilter, f.Key)
	}
	return nil
}

// Bind returns a copy of the filter with its parameter resolved by lookup.
// Filters without a parameter are returned unchanged.
func (f Filter) Bind(lookup func(model.ParamID) (Value, bool)) (Filter, error) {
	if f.Param == nil {
		return f, nil
	}
	if lookup == nil {
		return Filter{}, fmt.Errorf("%w: %s", ErrUnboundParam, f.Param)
	}
	v, ok := lookup(*f.Param)
	if !ok {
		return Filter{}, fmt.Errorf("%w: %s", ErrUnboundParam, f.Param)
	}
	bound := f
	bound.Value = v
	bound.Param = nil
	return bound, nil
}

// Matches checks if a single value satisfies the filter.
// The filter must be bound.
func (f Filter) Matches(v Value) bool {
	switch f.Operator {
	case OpIn:
		for _, candidate := range f.Values {
			if v.Equal(candidate) {
				return true
			}
		}
		return false
	case OpNotEqual:
		c, ok := v.Compare(f.Value)
		return ok && c != 0
	}

	c, ok := v.Compare(f.Value)
	if !ok {
		return false
	}
	switch f.Operator {
	case OpEqual:
		return c == 0
	case OpGreaterThan:
		return c > 0
	case OpGreaterEqual:
		return c >= 0
	case OpLessThan:
		return c < 0
	case OpLessEqual:
		return c <= 0
	default:
		return false
	}
}

// MatchesDocument checks if the document satisfies the filter.
func (f Filter) MatchesDocument(doc Document) bool {
	v, ok := doc[f.Key]
	if !ok {
		return false
	}
	return f.Matches(v)
}

// String renders the filter as a predicate, e.g. `year >= $1`.
func (f Filter) String() string {
	sym := operatorSymbols[f.Operator]
	if sym == "" {
		sym = string(f.Operator)
	}
	if f.Operator == OpIn {
		parts := make([]string, len(f.Values))
		for i, v := range f.Values {
			parts[i] = v.String()
		}
		return fmt.Sprintf("%s IN (%s)", f.Key, strings.Join(parts, ", "))
	}
	if f.Param != nil {
		return fmt.Sprintf("%s %s %s", f.Key, sym, f.Param)
	}
	return fmt.Sprintf("%s %s %s", f.Key, sym, f.Value)
}

// FilterSet represents a set of filters that must all match (AND logic).
type FilterSet struct {
	Filters []Filter
}

// NewFilterSet creates a new filter set.
func NewFilterSet(filters ...Filter) *FilterSet {
	return &FilterSet{Filters: filters}
}

// Validate checks every filter.
func (fs *FilterSet) Validate() error {
	if fs == nil || len(fs.Filters) == 0 {
		return fmt.Errorf("%w: empty filter set", ErrInvalidFilter)
	}
	for i, f := range fs.Filters {
		if err := f.Validate(); err != nil {
			return fmt.Errorf("filter %d: %w", i, err)
		}
	}
	return nil
}

// Params returns the parameters referenced by the set, in filter order.
func (fs *FilterSet) Params() []model.ParamID {
	if fs == nil {
		return nil
	}
	var out []model.ParamID
	for _, f := range fs.Filters {
		if f.Param != nil {
			out = append(out, *f.Param)
		}
	}
	return out
}

// Bind resolves every parameter reference.
func (fs *FilterSet) Bind(lookup func(model.ParamID) (Value, bool)) (*FilterSet, error) {
	bound := &FilterSet{Filters: make([]Filter, len(fs.Filters))}
	for i, f := range fs.Filters {
		b, err := f.Bind(lookup)
		if err != nil {
			return nil, err
		}
		bound.Filters[i] = b
	}
	return bound, nil
}

// Matches checks if the document matches all filters in the set.
func (fs *FilterSet) Matches(doc Document) bool {
	for _, f := range fs.Filters {
		if !f.MatchesDocument(doc) {
			return false
		}
	}
	return true
}

// String renders the conjunction.
func (fs *FilterSet) String() string {
	if fs == nil {
		return ""
	}
	parts := make([]string, len(fs.Filters))
	for i, f := range fs.Filters {
		parts[i] = f.String()
	}
	return strings.Join(parts, " AND ")
}
