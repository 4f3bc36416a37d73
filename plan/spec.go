package plan

import (
	"errors"
	"fmt"

	"github.com/hupe1980/vecand/metadata"
	"github.com/hupe1980/vecand/model"
	"gopkg.in/yaml.v3"
)

// ErrInvalidSpec is returned for plan documents that cannot be built.
var ErrInvalidSpec = errors.New("plan: invalid spec")

// Spec is the YAML form of a plan node. Exactly one field must be set.
//
//	and:
//	  limit: 10
//	  similarity: {max_distance: 0.5}
//	  children:
//	    - index_scan:
//	        index: movies
//	        filters:
//	          - {key: year, op: gte, param: 1}
//	    - similarity_scan: {index: plots, query: [0.1, 0.3], k: 20}
type Spec struct {
	And            *AndSpec            `yaml:"and,omitempty"`
	IndexScan      *IndexScanSpec      `yaml:"index_scan,omitempty"`
	SimilarityScan *SimilarityScanSpec `yaml:"similarity_scan,omitempty"`
}

// AndSpec is the YAML form of BitmapAnd.
type AndSpec struct {
	Limit      int                   `yaml:"limit"`
	Similarity *SimilarityClauseSpec `yaml:"similarity,omitempty"`
	Children   []Spec                `yaml:"children"`
}

// SimilarityClauseSpec is the YAML form of SimilarityClause.
type SimilarityClauseSpec struct {
	MaxDistance float32 `yaml:"max_distance"`
}

// IndexScanSpec is the YAML form of BitmapIndexScan.
type IndexScanSpec struct {
	Index   string       `yaml:"index"`
	Filters []FilterSpec `yaml:"filters"`
}

// FilterSpec is the YAML form of a metadata.Filter. Exactly one of Value,
// Values (for "in") or Param must be set.
type FilterSpec struct {
	Key    string  `yaml:"key"`
	Op     string  `yaml:"op"`
	Value  any     `yaml:"value,omitempty"`
	Values []any   `yaml:"values,omitempty"`
	Param  *uint32 `yaml:"param,omitempty"`
}

// SimilarityScanSpec is the YAML form of SimilarityScan.
type SimilarityScanSpec struct {
	Index string    `yaml:"index"`
	Query []float32 `yaml:"query"`
	K     int       `yaml:"k"`
}

// Parse decodes a YAML plan document and builds it.
func Parse(data []byte) (Node, error) {
	var s Spec
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSpec, err)
	}
	return s.Build()
}

// Build converts the spec into a plan tree.
func (s Spec) Build() (Node, error) {
	set := 0
	for _, ok := range []bool{s.And != nil, s.IndexScan != nil, s.SimilarityScan != nil} {
		if ok {
			set++
		}
	}
	if set != 1 {
		return nil, fmt.Errorf("%w: expected exactly one of and, index_scan, similarity_scan", ErrInvalidSpec)
	}

	switch {
	case s.And != nil:
		return s.And.build()
	case s.IndexScan != nil:
		return s.IndexScan.build()
	default:
		return s.SimilarityScan.build()
	}
}

func (s *AndSpec) build() (Node, error) {
	if s.Limit < 0 {
		return nil, fmt.Errorf("%w: negative limit %d", ErrInvalidSpec, s.Limit)
	}
	n := &BitmapAnd{Limit: s.Limit}
	if s.Similarity != nil {
		n.Similarity = &SimilarityClause{MaxDistance: s.Similarity.MaxDistance}
	}
	// Zero children is reported by exec at init, like any hand-built plan.
	for i, c := range s.Children {
		child, err := c.Build()
		if err != nil {
			return nil, fmt.Errorf("and child %d: %w", i, err)
		}
		n.Children = append(n.Children, child)
	}
	return n, nil
}

func (s *IndexScanSpec) build() (Node, error) {
	if s.Index == "" {
		return nil, fmt.Errorf("%w: index_scan without index", ErrInvalidSpec)
	}
	fs := &metadata.FilterSet{}
	for i, f := range s.Filters {
		filter, err := f.build()
		if err != nil {
			return nil, fmt.Errorf("index_scan %s filter %d: %w", s.Index, i, err)
		}
		fs.Filters = append(fs.Filters, filter)
	}
	if err := fs.Validate(); err != nil {
		return nil, fmt.Errorf("%w: index_scan %s: %v", ErrInvalidSpec, s.Index, err)
	}
	return &BitmapIndexScan{Index: s.Index, Filters: fs}, nil
}

func (f FilterSpec) build() (metadata.Filter, error) {
	out := metadata.Filter{Key: f.Key, Operator: metadata.Operator(f.Op)}
	switch {
	case f.Param != nil:
		p := model.ParamID(*f.Param)
		out.Param = &p
	case f.Values != nil:
		for _, raw := range f.Values {
			v, err := metadata.FromAny(raw)
			if err != nil {
				return metadata.Filter{}, err
			}
			out.Values = append(out.Values, v)
		}
	case f.Value != nil:
		v, err := metadata.FromAny(f.Value)
		if err != nil {
			return metadata.Filter{}, err
		}
		out.Value = v
	}
	return out, nil
}

func (s *SimilarityScanSpec) build() (Node, error) {
	if s.Index == "" {
		return nil, fmt.Errorf("%w: similarity_scan without index", ErrInvalidSpec)
	}
	if len(s.Query) == 0 {
		return nil, fmt.Errorf("%w: similarity_scan %s without query", ErrInvalidSpec, s.Index)
	}
	if s.K < 0 {
		return nil, fmt.Errorf("%w: similarity_scan %s: negative k", ErrInvalidSpec, s.Index)
	}
	k := s.K
	if k == 0 {
		k = DefaultK
	}
	return &SimilarityScan{Index: s.Index, Query: s.Query, K: k}, nil
}
