// Package cache provides a byte-bounded LRU cache for immutable blobs.
//
// Memory held by the cache is reserved through a resource.Controller, so
// cached blobs count against the same limit as query execution. When the
// controller refuses a reservation the blob is simply not cached.
package cache
