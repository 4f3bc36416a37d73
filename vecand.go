package vecand

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/hupe1980/vecand/blobstore"
	"github.com/hupe1980/vecand/catalog"
	"github.com/hupe1980/vecand/exec"
	"github.com/hupe1980/vecand/plan"
	"github.com/hupe1980/vecand/resource"
)

// Engine prepares and runs plans against a catalog. It is safe for
// concurrent use; each prepared Query is not.
type Engine struct {
	opts       options
	controller *resource.Controller
	store      blobstore.Store // set by Open
	version    uint64

	mu      sync.Mutex
	catalog *catalog.Catalog
	queries map[uint64]*Query
	nextID  uint64
	closed  bool
}

// New creates an engine over cat. A nil cat starts with an empty catalog.
func New(cat *catalog.Catalog, optFns ...Option) (*Engine, error) {
	o := applyOptions(optFns)
	if o.workMem <= 0 {
		return nil, fmt.Errorf("work memory must be positive, got %d", o.workMem)
	}
	if cat == nil {
		cat = catalog.New()
	}

	return &Engine{
		catalog:    cat,
		opts:       o,
		controller: resource.NewController(o.resource),
		queries:    make(map[uint64]*Query),
	}, nil
}

// Open loads the latest catalog snapshot from store and creates an engine
// over it.
func Open(ctx context.Context, store blobstore.Store, optFns ...Option) (*Engine, error) {
	o := applyOptions(optFns)
	ctrl := resource.NewController(o.resource)

	if o.blobCacheBytes > 0 {
		store = blobstore.NewCachingStore(store, o.blobCacheBytes,
			blobstore.WithController(ctrl),
			blobstore.WithBypass(func(name string) bool { return name == catalog.CurrentFileName }),
		)
	}

	cat, m, err := catalog.Load(ctx, store,
		catalog.WithController(ctrl),
		catalog.WithLogger(o.logger.Logger),
	)
	if err != nil {
		return nil, translateError(err)
	}

	e, err := New(cat, optFns...)
	if err != nil {
		return nil, err
	}
	e.controller = ctrl
	e.store = store
	e.version = m.ID
	e.opts.logger.InfoContext(ctx, "engine opened", "version", m.ID, "indexes", len(m.Indexes))
	return e, nil
}

// Reload loads the latest snapshot from the store the engine was opened
// from and reports whether the version changed. Queries prepared before the
// reload keep running against the indexes they were prepared with.
func (e *Engine) Reload(ctx context.Context) (bool, error) {
	if e.store == nil {
		return false, errors.New("engine was not opened from a store")
	}

	cat, m, err := catalog.Load(ctx, e.store,
		catalog.WithController(e.controller),
		catalog.WithLogger(e.opts.logger.Logger),
	)
	if err != nil {
		return false, translateError(err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return false, ErrClosed
	}
	changed := m.ID != e.version
	e.catalog = cat
	e.version = m.ID
	return changed, nil
}

// Catalog returns the engine's catalog.
func (e *Engine) Catalog() *catalog.Catalog {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.catalog
}

// Store returns the store the engine was opened from, or nil.
func (e *Engine) Store() blobstore.Store { return e.store }

// Controller returns the resource controller shared by the engine's queries.
func (e *Engine) Controller() *resource.Controller { return e.controller }

// Prepare initializes p for execution. The returned query must be closed.
func (e *Engine) Prepare(p plan.Node) (*Query, error) {
	if p == nil {
		return nil, fmt.Errorf("%w: nil plan", ErrInvalidPlan)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return nil, ErrClosed
	}

	values := exec.NewParamValues()
	state := &exec.State{
		WorkMem:    e.opts.workMem,
		Catalog:    e.catalog,
		Params:     values,
		Controller: e.controller,
		Logger:     e.opts.logger.Logger,
		Metrics:    e.opts.metricsCollector,
	}

	root, err := exec.InitNode(p, state, 0)
	if err != nil {
		return nil, translateError(err)
	}

	e.nextID++
	q := &Query{
		id:     e.nextID,
		engine: e,
		root:   root,
		values: values,
		params: exec.NewParamSet(p.Params()...),
		logger: e.opts.logger.WithQueryID(e.nextID),
	}
	e.queries[q.id] = q
	return q, nil
}

// PrepareYAML parses a YAML plan document (see plan.Spec) and prepares it.
func (e *Engine) PrepareYAML(data []byte) (*Query, error) {
	p, err := plan.Parse(data)
	if err != nil {
		return nil, translateError(err)
	}
	return e.Prepare(p)
}

// Snapshot writes the catalog to store as a new snapshot version.
func (e *Engine) Snapshot(ctx context.Context, store blobstore.Store) (*catalog.Manifest, error) {
	m, err := catalog.Save(ctx, e.Catalog(), store,
		catalog.WithCompression(e.opts.compression),
		catalog.WithController(e.controller),
		catalog.WithLogger(e.opts.logger.Logger),
	)
	if err != nil {
		e.opts.logger.LogSnapshot(ctx, 0, 0, err)
		return nil, translateError(err)
	}
	e.opts.logger.LogSnapshot(ctx, m.ID, len(m.Indexes), nil)
	return m, nil
}

func (e *Engine) forget(id uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.queries, id)
}

// Close closes every open query. Further calls to Prepare fail with
// ErrClosed.
func (e *Engine) Close() error {
	if e == nil {
		return nil
	}

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	open := make([]*Query, 0, len(e.queries))
	for _, q := range e.queries {
		open = append(open, q)
	}
	e.mu.Unlock()

	var errs []error
	for _, q := range open {
		errs = append(errs, q.Close())
	}
	return errors.Join(errs...)
}
