// Package resource governs the memory, concurrency and throughput spent by
// query execution and catalog snapshots.
package resource

import (
	"context"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// Config holds resource limits.
type Config struct {
	// MemoryLimitBytes is the hard limit for memory reserved by scans
	// (result heaps, candidate sets). If 0, usage is only tracked.
	MemoryLimitBytes int64 `yaml:"memory_limit_bytes"`

	// MaxLoadWorkers is the maximum number of index blobs decoded
	// concurrently while loading a catalog. If 0, defaults to 4.
	MaxLoadWorkers int64 `yaml:"max_load_workers"`

	// ScanRowsPerSec throttles the rows visited by similarity scans.
	// If 0, unlimited.
	ScanRowsPerSec int64 `yaml:"scan_rows_per_sec"`

	// IOLimitBytesPerSec is the maximum snapshot upload throughput.
	// If 0, unlimited.
	IOLimitBytesPerSec int64 `yaml:"io_limit_bytes_per_sec"`
}

// Controller manages process-wide resources.
// A nil *Controller imposes no limits.
type Controller struct {
	cfg Config

	// Memory
	memSem  *semaphore.Weighted // nil if unlimited
	memUsed atomic.Int64

	// Concurrency
	loadSem *semaphore.Weighted

	// Throughput
	scanLimiter *rate.Limiter
	ioLimiter   *rate.Limiter
}

// NewController creates a new resource controller.
func NewController(cfg Config) *Controller {
	if cfg.MaxLoadWorkers <= 0 {
		cfg.MaxLoadWorkers = 4
	}

	c := &Controller{
		cfg:     cfg,
		loadSem: semaphore.NewWeighted(cfg.MaxLoadWorkers),
	}

	if cfg.MemoryLimitBytes > 0 {
		c.memSem = semaphore.NewWeighted(cfg.MemoryLimitBytes)
	}
	if cfg.ScanRowsPerSec > 0 {
		c.scanLimiter = rate.NewLimiter(rate.Limit(cfg.ScanRowsPerSec), int(cfg.ScanRowsPerSec))
	}
	if cfg.IOLimitBytesPerSec > 0 {
		c.ioLimiter = rate.NewLimiter(rate.Limit(cfg.IOLimitBytesPerSec), int(cfg.IOLimitBytesPerSec))
	}

	return c
}

// Config returns the effective configuration.
func (c *Controller) Config() Config {
	if c == nil {
		return Config{}
	}
	return c.cfg
}

// AcquireMemory attempts to reserve memory.
// If a hard limit is configured and usage would exceed it,
// this blocks until memory is available or ctx is canceled.
func (c *Controller) AcquireMemory(ctx context.Context, bytes int64) error {
	if c == nil || bytes <= 0 {
		return nil
	}

	if c.memSem != nil {
		if err := c.memSem.Acquire(ctx, bytes); err != nil {
			return err
		}
	}

	c.memUsed.Add(bytes)
	return nil
}

// TryAcquireMemory attempts to reserve memory without blocking.
// Returns true if acquired, false if limit would be exceeded.
func (c *Controller) TryAcquireMemory(bytes int64) bool {
	if c == nil || bytes <= 0 {
		return true
	}

	if c.memSem != nil && !c.memSem.TryAcquire(bytes) {
		return false
	}

	c.memUsed.Add(bytes)
	return true
}

// ReleaseMemory releases reserved memory.
func (c *Controller) ReleaseMemory(bytes int64) {
	if c == nil || bytes <= 0 {
		return
	}

	if c.memSem != nil {
		c.memSem.Release(bytes)
	}
	c.memUsed.Add(-bytes)
}

// MemoryUsage returns the current memory usage in bytes.
func (c *Controller) MemoryUsage() int64 {
	if c == nil {
		return 0
	}
	return c.memUsed.Load()
}

// AcquireLoadWorker reserves a catalog load slot.
// Blocks if all slots are busy.
func (c *Controller) AcquireLoadWorker(ctx context.Context) error {
	if c == nil {
		return nil
	}
	return c.loadSem.Acquire(ctx, 1)
}

// ReleaseLoadWorker releases a catalog load slot.
func (c *Controller) ReleaseLoadWorker() {
	if c == nil {
		return
	}
	c.loadSem.Release(1)
}

// WaitScanRows blocks until the scan rate allows visiting n more rows.
func (c *Controller) WaitScanRows(ctx context.Context, n int) error {
	if c == nil {
		return nil
	}
	return waitChunked(ctx, c.scanLimiter, n)
}

// AcquireIO waits until the IO limit allows the specified number of bytes.
func (c *Controller) AcquireIO(ctx context.Context, bytes int) error {
	if c == nil {
		return nil
	}
	return waitChunked(ctx, c.ioLimiter, bytes)
}

// waitChunked splits n into burst-sized waits; WaitN rejects n > burst.
func waitChunked(ctx context.Context, l *rate.Limiter, n int) error {
	if l == nil || n <= 0 {
		return nil
	}
	burst := l.Burst()
	for n > 0 {
		step := min(n, burst)
		if err := l.WaitN(ctx, step); err != nil {
			return err
		}
		n -= step
	}
	return nil
}
