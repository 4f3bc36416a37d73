package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hupe1980/vecand/blobstore"
	"github.com/hupe1980/vecand/codec"
	"github.com/hupe1980/vecand/index/flat"
	"github.com/hupe1980/vecand/internal/conv"
	"github.com/hupe1980/vecand/internal/hash"
	"github.com/hupe1980/vecand/metadata"
	"github.com/hupe1980/vecand/resource"
	"golang.org/x/sync/errgroup"
)

var (
	// ErrUnknownCodec is returned when a manifest names a codec this build
	// does not know.
	ErrUnknownCodec = errors.New("catalog: unknown codec")

	// ErrChecksumMismatch is returned when an index blob does not match the
	// checksum recorded in the manifest.
	ErrChecksumMismatch = errors.New("catalog: checksum mismatch")
)

type options struct {
	codec       codec.Codec
	compression codec.CompressionType
	controller  *resource.Controller
	logger      *slog.Logger
}

// Option configures Save and Load.
type Option func(*options)

// WithCompression selects the compression of index blobs written by Save.
// The default is ZSTD.
func WithCompression(ct codec.CompressionType) Option {
	return func(o *options) { o.compression = ct }
}

// WithCodec selects the codec used by Save.
func WithCodec(c codec.Codec) Option {
	return func(o *options) { o.codec = c }
}

// WithController throttles blob IO and bounds the number of indexes loaded
// in parallel.
func WithController(c *resource.Controller) Option {
	return func(o *options) { o.controller = c }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

func applyOptions(optFns []Option) options {
	o := options{
		codec:       codec.Default,
		compression: codec.CompressionZSTD,
		logger:      slog.New(slog.DiscardHandler),
	}
	for _, fn := range optFns {
		fn(&o)
	}
	return o
}

func blobName(id uint64, e Entry) string {
	return fmt.Sprintf("indexes/%06d/%s.%s", id, e.Name, e.Kind)
}

// Save writes every index of cat to store and publishes a new manifest.
// It returns the published manifest.
func Save(ctx context.Context, cat *Catalog, store blobstore.Store, optFns ...Option) (*Manifest, error) {
	o := applyOptions(optFns)
	start := time.Now()

	ms := NewManifestStore(store)
	m, err := ms.Load(ctx)
	switch {
	case errors.Is(err, ErrNotFound):
		m = &Manifest{}
	case err != nil:
		return nil, err
	}

	next := &Manifest{
		ID:          m.ID,
		Codec:       o.codec.Name(),
		Compression: o.compression,
	}

	for _, e := range cat.Entries() {
		var v any
		switch e.Kind {
		case KindMetadata:
			v, _ = cat.MetadataIndex(e.Name)
		case KindVector:
			v, _ = cat.VectorIndex(e.Name)
		}

		raw, err := o.codec.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("encode index %s: %w", e.Name, err)
		}
		frame, err := codec.Compress(raw, o.compression)
		if err != nil {
			return nil, fmt.Errorf("compress index %s: %w", e.Name, err)
		}
		if err := o.controller.AcquireIO(ctx, len(frame)); err != nil {
			return nil, err
		}

		path := blobName(m.ID+1, e)
		if err := store.Put(ctx, path, frame); err != nil {
			return nil, fmt.Errorf("write index %s: %w", e.Name, err)
		}
		next.Indexes = append(next.Indexes, IndexInfo{
			Name:     e.Name,
			Kind:     e.Kind,
			Rows:     e.Rows,
			Path:     path,
			Size:     int64(len(frame)),
			Checksum: hash.CRC32C(frame),
		})
	}

	if err := ms.Save(ctx, next); err != nil {
		return nil, fmt.Errorf("write manifest: %w", err)
	}

	o.logger.InfoContext(ctx, "catalog saved",
		"version", next.ID,
		"indexes", len(next.Indexes),
		"compression", o.compression.String(),
		"duration", time.Since(start))
	return next, nil
}

// Load reads the latest snapshot from store. Indexes are fetched and decoded
// in parallel, bounded by the controller's load workers.
func Load(ctx context.Context, store blobstore.Store, optFns ...Option) (*Catalog, *Manifest, error) {
	o := applyOptions(optFns)
	start := time.Now()

	m, err := NewManifestStore(store).Load(ctx)
	if err != nil {
		return nil, nil, err
	}

	c, ok := codec.ByName(m.Codec)
	if !ok {
		return nil, nil, fmt.Errorf("%w: %q", ErrUnknownCodec, m.Codec)
	}

	metas := make([]*metadata.Index, len(m.Indexes))
	vectors := make([]*flat.Index, len(m.Indexes))

	g, gctx := errgroup.WithContext(ctx)
	limit := o.controller.Config().MaxLoadWorkers
	if limit <= 0 {
		limit = 4
	}
	workers, err := conv.Int64ToInt(limit)
	if err != nil {
		return nil, nil, fmt.Errorf("load workers: %w", err)
	}
	g.SetLimit(workers)

	for i, info := range m.Indexes {
		g.Go(func() error {
			if err := o.controller.AcquireLoadWorker(gctx); err != nil {
				return err
			}
			defer o.controller.ReleaseLoadWorker()

			frame, err := store.Get(gctx, info.Path)
			if err != nil {
				return fmt.Errorf("read index %s: %w", info.Name, err)
			}
			if !hash.Verify(frame, info.Checksum) {
				return fmt.Errorf("%w: index %s (%s)", ErrChecksumMismatch, info.Name, info.Path)
			}
			if err := o.controller.AcquireIO(gctx, len(frame)); err != nil {
				return err
			}
			raw, err := codec.Decompress(frame)
			if err != nil {
				return fmt.Errorf("decompress index %s: %w", info.Name, err)
			}

			switch info.Kind {
			case KindMetadata:
				ix := metadata.NewIndex()
				if err := c.Unmarshal(raw, ix); err != nil {
					return fmt.Errorf("decode index %s: %w", info.Name, err)
				}
				metas[i] = ix
			case KindVector:
				ix := &flat.Index{}
				if err := c.Unmarshal(raw, ix); err != nil {
					return fmt.Errorf("decode index %s: %w", info.Name, err)
				}
				vectors[i] = ix
			default:
				return fmt.Errorf("index %s: unknown kind %q", info.Name, info.Kind)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	cat := New()
	for i, info := range m.Indexes {
		var err error
		if metas[i] != nil {
			err = cat.AddMetadataIndex(info.Name, metas[i])
		} else {
			err = cat.AddVectorIndex(info.Name, vectors[i])
		}
		if err != nil {
			return nil, nil, err
		}
	}

	o.logger.InfoContext(ctx, "catalog loaded",
		"version", m.ID,
		"indexes", len(m.Indexes),
		"duration", time.Since(start))
	return cat, m, nil
}
