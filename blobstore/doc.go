// Package blobstore provides the storage abstraction for catalog snapshots.
//
// A snapshot is a manifest plus one blob per index. Blobs are written whole
// and read whole, so the Store interface is deliberately small:
//
//	type Store interface {
//	    Get(ctx, name) ([]byte, error)
//	    Put(ctx, name, data) error
//	    Delete(ctx, name) error
//	    List(ctx, prefix) ([]string, error)
//	}
//
// # Built-in Implementations
//
//   - MemoryStore: in-process map, for tests and ephemeral catalogs
//   - LocalStore: local filesystem, reads through mmap
//   - s3.Store: Amazon S3 with multipart uploads
//   - minio.Store: MinIO and other S3-compatible services
//
// Implementations must be safe for concurrent use.
package blobstore
