package blobstore

import (
	"context"

	"github.com/hupe1980/vecand/internal/cache"
	"github.com/hupe1980/vecand/resource"
)

// CachingStore wraps a Store and keeps recently read blobs in memory.
//
// Writes and deletes through the store invalidate the cached copy. Blobs
// written by other processes are only seen once evicted, so names that are
// rewritten in place (such as a CURRENT pointer) should be excluded with
// WithBypass.
type CachingStore struct {
	inner  Store
	cache  *cache.LRU
	rc     *resource.Controller
	bypass func(name string) bool
}

var _ Store = (*CachingStore)(nil)

// CachingOption configures NewCachingStore.
type CachingOption func(*CachingStore)

// WithBypass excludes names for which fn returns true from caching.
func WithBypass(fn func(name string) bool) CachingOption {
	return func(s *CachingStore) { s.bypass = fn }
}

// WithController reserves cached bytes from rc.
func WithController(rc *resource.Controller) CachingOption {
	return func(s *CachingStore) { s.rc = rc }
}

// NewCachingStore caches up to capacity bytes of inner's blobs.
func NewCachingStore(inner Store, capacity int64, optFns ...CachingOption) *CachingStore {
	s := &CachingStore{
		inner:  inner,
		bypass: func(string) bool { return false },
	}
	for _, fn := range optFns {
		fn(s)
	}
	s.cache = cache.NewLRU(capacity, s.rc)
	return s
}

// Get implements Store.
func (s *CachingStore) Get(ctx context.Context, name string) ([]byte, error) {
	if s.bypass(name) {
		return s.inner.Get(ctx, name)
	}
	if b, ok := s.cache.Get(name); ok {
		return b, nil
	}
	b, err := s.inner.Get(ctx, name)
	if err != nil {
		return nil, err
	}
	s.cache.Set(name, b)
	return b, nil
}

// Put implements Store.
func (s *CachingStore) Put(ctx context.Context, name string, data []byte) error {
	s.cache.Remove(name)
	return s.inner.Put(ctx, name, data)
}

// Delete implements Store.
func (s *CachingStore) Delete(ctx context.Context, name string) error {
	s.cache.Remove(name)
	return s.inner.Delete(ctx, name)
}

// List implements Store. Listings are never cached.
func (s *CachingStore) List(ctx context.Context, prefix string) ([]string, error) {
	return s.inner.List(ctx, prefix)
}

// Stats returns the cache hits and misses.
func (s *CachingStore) Stats() (hits, misses int64) {
	return s.cache.Stats()
}

// Purge empties the cache.
func (s *CachingStore) Purge() {
	s.cache.Purge()
}
