package cli

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/hupe1980/vecand/blobstore"
	"github.com/hupe1980/vecand/blobstore/minio"
	"github.com/hupe1980/vecand/blobstore/s3"
)

// OpenStore resolves a store location.
//
//	./data, file:///var/lib/vecand    local directory
//	s3://bucket/prefix                AWS S3 (default credential chain)
//	minio://host:port/bucket/prefix   MinIO; MINIO_ACCESS_KEY and
//	                                  MINIO_SECRET_KEY hold the credentials,
//	                                  ?insecure=true disables TLS
func OpenStore(ctx context.Context, location string) (blobstore.Store, error) {
	if !strings.Contains(location, "://") {
		return blobstore.NewLocalStore(location), nil
	}

	u, err := url.Parse(location)
	if err != nil {
		return nil, fmt.Errorf("store %q: %w", location, err)
	}
	prefix := strings.TrimPrefix(u.Path, "/")

	switch u.Scheme {
	case "file":
		return blobstore.NewLocalStore(u.Path), nil
	case "s3":
		if u.Host == "" {
			return nil, fmt.Errorf("store %q: missing bucket", location)
		}
		var opts []s3.Option
		if prefix != "" {
			opts = append(opts, s3.WithPrefix(prefix))
		}
		if region := u.Query().Get("region"); region != "" {
			opts = append(opts, s3.WithRegion(region))
		}
		return s3.New(ctx, u.Host, opts...)
	case "minio":
		bucket, rest, _ := strings.Cut(prefix, "/")
		if u.Host == "" || bucket == "" {
			return nil, fmt.Errorf("store %q: expected minio://host/bucket[/prefix]", location)
		}
		opts := []minio.Option{
			minio.WithPrefix(rest),
			minio.WithStaticCredentials(os.Getenv("MINIO_ACCESS_KEY"), os.Getenv("MINIO_SECRET_KEY")),
		}
		if u.Query().Get("insecure") == "true" {
			opts = append(opts, minio.WithInsecure())
		}
		return minio.New(u.Host, bucket, opts...)
	default:
		return nil, fmt.Errorf("store %q: unsupported scheme %q", location, u.Scheme)
	}
}
