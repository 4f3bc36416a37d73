package cli

import (
	"fmt"
	"os"
	"sort"

	"github.com/hupe1980/vecand"
	"github.com/hupe1980/vecand/catalog"
	"github.com/hupe1980/vecand/distance"
	"github.com/hupe1980/vecand/index/flat"
	"github.com/hupe1980/vecand/metadata"
	"github.com/hupe1980/vecand/model"
	"github.com/hupe1980/vecand/plan"
	"github.com/hupe1980/vecand/resource"
	"gopkg.in/yaml.v3"
)

// QueryFile is the YAML document read by the run, explain and snapshot
// commands.
//
//	work_mem: 65536
//	dataset:
//	  metadata:
//	    movies:
//	      - {id: 1, doc: {genre: noir, year: 1944}}
//	  vectors:
//	    plots:
//	      dimension: 2
//	      metric: l2
//	      rows:
//	        - {id: 1, vector: [1, 0]}
//	plan:
//	  and: {...}
//	bindings:
//	  - {1: 1950}
//	  - {1: 1970}
type QueryFile struct {
	WorkMem   int64            `yaml:"work_mem"`
	Resources resource.Config  `yaml:"resources"`
	Dataset   Dataset          `yaml:"dataset"`
	Plan      *plan.Spec       `yaml:"plan"`
	Bindings  []map[uint32]any `yaml:"bindings"`
}

// Dataset holds the indexes a query file runs against.
type Dataset struct {
	Metadata map[string][]MetadataRow `yaml:"metadata"`
	Vectors  map[string]VectorIndex   `yaml:"vectors"`
}

// MetadataRow is one document of a metadata index.
type MetadataRow struct {
	ID  uint32         `yaml:"id"`
	Doc map[string]any `yaml:"doc"`
}

// VectorIndex describes a flat vector index and its rows.
type VectorIndex struct {
	Dimension int         `yaml:"dimension"`
	Metric    string      `yaml:"metric"`
	Rows      []VectorRow `yaml:"rows"`
}

// VectorRow is one vector of a vector index.
type VectorRow struct {
	ID     uint32    `yaml:"id"`
	Vector []float32 `yaml:"vector"`
}

// LoadQueryFile reads and decodes a query file.
func LoadQueryFile(path string) (*QueryFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseQueryFile(data)
}

// ParseQueryFile decodes a query file.
func ParseQueryFile(data []byte) (*QueryFile, error) {
	var qf QueryFile
	if err := yaml.Unmarshal(data, &qf); err != nil {
		return nil, fmt.Errorf("query file: %w", err)
	}
	return &qf, nil
}

// IsEmpty reports whether the file defines no indexes.
func (d Dataset) IsEmpty() bool {
	return len(d.Metadata) == 0 && len(d.Vectors) == 0
}

// Catalog builds the dataset's indexes.
func (d Dataset) Catalog() (*catalog.Catalog, error) {
	cat := catalog.New()

	for _, name := range sortedKeys(d.Metadata) {
		ix := metadata.NewIndex()
		for _, row := range d.Metadata[name] {
			doc, err := metadata.DocumentFromMap(row.Doc)
			if err != nil {
				return nil, fmt.Errorf("metadata %s row %d: %w", name, row.ID, err)
			}
			ix.Set(model.RowID(row.ID), doc)
		}
		if err := cat.AddMetadataIndex(name, ix); err != nil {
			return nil, err
		}
	}

	for _, name := range sortedKeys(d.Vectors) {
		spec := d.Vectors[name]
		metric, err := distance.ParseMetric(spec.Metric)
		if err != nil {
			return nil, fmt.Errorf("vectors %s: %w", name, err)
		}
		ix, err := flat.New(func(o *flat.Options) {
			o.Dimension = spec.Dimension
			o.Metric = metric
		})
		if err != nil {
			return nil, fmt.Errorf("vectors %s: %w", name, err)
		}
		for _, row := range spec.Rows {
			if err := ix.Insert(model.RowID(row.ID), row.Vector); err != nil {
				return nil, fmt.Errorf("vectors %s row %d: %w", name, row.ID, err)
			}
		}
		if err := cat.AddVectorIndex(name, ix); err != nil {
			return nil, err
		}
	}

	return cat, nil
}

// BuildPlan builds the file's plan.
func (qf *QueryFile) BuildPlan() (plan.Node, error) {
	if qf.Plan == nil {
		return nil, fmt.Errorf("query file: %w", vecand.ErrInvalidPlan)
	}
	return qf.Plan.Build()
}

// ParamSets returns the bindings in run order. A file without bindings runs
// once with no parameters bound.
func (qf *QueryFile) ParamSets() []vecand.Params {
	if len(qf.Bindings) == 0 {
		return []vecand.Params{nil}
	}
	out := make([]vecand.Params, len(qf.Bindings))
	for i, b := range qf.Bindings {
		p := make(vecand.Params, len(b))
		for id, v := range b {
			p[model.ParamID(id)] = v
		}
		out[i] = p
	}
	return out
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
