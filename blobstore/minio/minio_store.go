package minio

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"slices"
	"strings"

	"github.com/hupe1980/vecand/blobstore"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Store implements blobstore.Store on a MinIO bucket.
type Store struct {
	client *minio.Client
	bucket string
	prefix string
}

var _ blobstore.Store = (*Store)(nil)

// Option configures New and NewStore.
type Option func(*options)

type options struct {
	prefix    string
	accessKey string
	secretKey string
	insecure  bool
}

// WithPrefix places every blob below prefix (e.g. "catalogs/").
func WithPrefix(prefix string) Option {
	return func(o *options) { o.prefix = strings.Trim(prefix, "/") }
}

// WithStaticCredentials sets the access and secret key used by New.
func WithStaticCredentials(accessKey, secretKey string) Option {
	return func(o *options) {
		o.accessKey = accessKey
		o.secretKey = secretKey
	}
}

// WithInsecure makes New connect over plain HTTP.
func WithInsecure() Option {
	return func(o *options) { o.insecure = true }
}

// New connects to endpoint and returns a store on bucket. No request is made
// until the first operation.
func New(endpoint, bucket string, optFns ...Option) (*Store, error) {
	opts := buildOptions(optFns)

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.accessKey, opts.secretKey, ""),
		Secure: !opts.insecure,
	})
	if err != nil {
		return nil, fmt.Errorf("minio: %w", err)
	}
	return &Store{client: client, bucket: bucket, prefix: opts.prefix}, nil
}

// NewStore wraps an existing client. Only WithPrefix applies.
func NewStore(client *minio.Client, bucket string, optFns ...Option) *Store {
	opts := buildOptions(optFns)
	return &Store{client: client, bucket: bucket, prefix: opts.prefix}
}

func buildOptions(optFns []Option) options {
	var opts options
	for _, fn := range optFns {
		fn(&opts)
	}
	return opts
}

// objectKey maps a blob name to its object key.
func (s *Store) objectKey(name string) string {
	if s.prefix == "" {
		return name
	}
	return path.Join(s.prefix, name)
}

// blobName is the inverse of objectKey.
func (s *Store) blobName(key string) string {
	if s.prefix == "" {
		return key
	}
	return strings.TrimPrefix(strings.TrimPrefix(key, s.prefix), "/")
}

func isNotFound(err error) bool {
	switch minio.ToErrorResponse(err).Code {
	case "NoSuchKey", "NotFound":
		return true
	}
	return false
}

// Get implements blobstore.Store.
func (s *Store) Get(ctx context.Context, name string) ([]byte, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, s.objectKey(name), minio.GetObjectOptions{})
	if err == nil {
		defer obj.Close()
		// The request is sent on first read.
		var data []byte
		if data, err = io.ReadAll(obj); err == nil {
			return data, nil
		}
	}
	if isNotFound(err) {
		return nil, blobstore.ErrNotFound
	}
	return nil, fmt.Errorf("minio: get %s: %w", name, err)
}

// Put implements blobstore.Store. Objects become visible only once fully
// written.
func (s *Store) Put(ctx context.Context, name string, data []byte) error {
	_, err := s.client.PutObject(ctx, s.bucket, s.objectKey(name), bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: "application/octet-stream",
	})
	if err != nil {
		return fmt.Errorf("minio: put %s: %w", name, err)
	}
	return nil
}

// Delete implements blobstore.Store. Deleting a missing blob is not an error.
func (s *Store) Delete(ctx context.Context, name string) error {
	if err := s.client.RemoveObject(ctx, s.bucket, s.objectKey(name), minio.RemoveObjectOptions{}); err != nil && !isNotFound(err) {
		return fmt.Errorf("minio: delete %s: %w", name, err)
	}
	return nil
}

// List implements blobstore.Store.
func (s *Store) List(ctx context.Context, prefix string) ([]string, error) {
	listPrefix := s.prefix
	if listPrefix != "" {
		listPrefix += "/"
	}
	listPrefix += prefix

	var names []string
	for obj := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{
		Prefix:    listPrefix,
		Recursive: true,
	}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("minio: list %s: %w", prefix, obj.Err)
		}
		if name := s.blobName(obj.Key); name != "" {
			names = append(names, name)
		}
	}
	slices.Sort(names)
	return names, nil
}
