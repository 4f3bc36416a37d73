// Package s3 provides an Amazon S3 implementation of blobstore.Store.
//
// # Usage
//
//	store, err := s3.New(ctx, "my-bucket", s3.WithPrefix("catalogs/"))
//	if err != nil { ... }
//	err = catalog.Save(ctx, cat, store, "movies")
//
// Writes go through the s3 manager Uploader, so large index blobs are sent as
// multipart uploads. Listing follows continuation tokens.
package s3
