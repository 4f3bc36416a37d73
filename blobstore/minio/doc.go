// Package minio stores catalog snapshots in a MinIO bucket, or any other
// S3-compatible service the MinIO client can talk to.
//
//	store, err := minio.New("localhost:9000", "snapshots",
//	    minio.WithStaticCredentials(accessKey, secretKey),
//	    minio.WithInsecure(),
//	    minio.WithPrefix("movies"),
//	)
//	if err != nil {
//	    return err
//	}
//	engine, err := vecand.Open(ctx, store)
package minio
