package vecand

import (
	"log/slog"
	"os"

	"github.com/hupe1980/vecand/codec"
	"github.com/hupe1980/vecand/exec"
	"github.com/hupe1980/vecand/resource"
)

type options struct {
	workMem          int64
	resource         resource.Config
	metricsCollector MetricsCollector
	logger           *Logger
	compression      codec.CompressionType
	blobCacheBytes   int64
}

// Option configures an Engine.
type Option func(*options)

// WithWorkMem sets the memory budget, in bytes, for each candidate set built
// during execution. Sets that outgrow it are logged at warn level.
//
// Default: 4 MiB.
func WithWorkMem(bytes int64) Option {
	return func(o *options) {
		o.workMem = bytes
	}
}

// WithResourceConfig configures the memory limit, scan throttle and snapshot
// IO limits shared by all queries of the engine.
//
// Example:
//
//	eng, _ := vecand.New(cat, vecand.WithResourceConfig(resource.Config{
//	    MemoryLimitBytes: 256 << 20,
//	    ScanRowsPerSec:   1_000_000,
//	}))
func WithResourceConfig(cfg resource.Config) Option {
	return func(o *options) {
		o.resource = cfg
	}
}

// WithMetricsCollector configures a metrics collector for node executions.
// Pass nil to disable metrics collection.
//
// Example with BasicMetricsCollector:
//
//	metrics := &vecand.BasicMetricsCollector{}
//	eng, _ := vecand.New(cat, vecand.WithMetricsCollector(metrics))
//	// ... run queries ...
//	stats := metrics.GetStats()
//	fmt.Printf("Short circuits: %d\n", stats.ShortCircuits)
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithLogger configures structured logging.
// Pass nil to disable logging.
//
// Example with JSON logging:
//
//	logger := vecand.NewJSONLogger(os.Stderr, slog.LevelInfo)
//	eng, _ := vecand.New(cat, vecand.WithLogger(logger))
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = NoopLogger()
		}
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(os.Stderr, level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(os.Stderr, level)
	}
}

// WithSnapshotCompression selects the compression used by Snapshot.
//
// Default: ZSTD.
func WithSnapshotCompression(ct codec.CompressionType) Option {
	return func(o *options) {
		o.compression = ct
	}
}

// WithBlobCache keeps up to bytes of snapshot blobs read by Open in memory,
// reserved from the engine's resource controller. Useful with remote stores
// when the same snapshot is opened repeatedly.
//
// Default: 0 (no cache).
func WithBlobCache(bytes int64) Option {
	return func(o *options) {
		o.blobCacheBytes = bytes
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		workMem:          exec.DefaultWorkMem,
		metricsCollector: NoopMetricsCollector{},
		logger:           NoopLogger(),
		compression:      codec.CompressionZSTD,
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}
