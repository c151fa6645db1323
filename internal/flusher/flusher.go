// Package flusher implements the periodic buffer-to-disk flush task.
package flusher

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/quantrail/tickvault/internal/buffer"
	"github.com/quantrail/tickvault/internal/store"
)

// Config holds flusher settings.
type Config struct {
	Interval time.Duration // Flush interval (default: 20s)
}

func (c *Config) applyDefaults() {
	if c.Interval <= 0 {
		c.Interval = 20 * time.Second
	}
}

// Flusher periodically drains the tick buffer into the intermediate store.
type Flusher struct {
	cfg    Config
	buf    *buffer.TickBuffer
	store  *store.Store
	logger *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// Metrics
	mu      sync.Mutex
	metrics Metrics
}

// Metrics contains flusher counters.
type Metrics struct {
	Flushes     int64 // Batches written
	RowsWritten int64
	RowsLost    int64 // Rows in snapshots whose write failed
	Errors      int64
}

// New creates a Flusher.
func New(cfg Config, buf *buffer.TickBuffer, st *store.Store, logger *slog.Logger) *Flusher {
	cfg.applyDefaults()
	if logger == nil {
		logger = slog.Default()
	}
	return &Flusher{
		cfg:    cfg,
		buf:    buf,
		store:  st,
		logger: logger,
	}
}

// Start begins the flush loop.
func (f *Flusher) Start(ctx context.Context) error {
	f.ctx, f.cancel = context.WithCancel(ctx)

	f.wg.Add(1)
	go f.run()

	f.logger.Info("flusher started", "interval", f.cfg.Interval)
	return nil
}

// Stop shuts down the flush loop. It does not flush the buffer: the final
// drain belongs to the consolidation engine so the handoff happens exactly
// once.
func (f *Flusher) Stop(ctx context.Context) error {
	if f.cancel != nil {
		f.cancel()
	}

	done := make(chan struct{})
	go func() {
		f.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		f.logger.Info("flusher stopped")
		return nil
	case <-ctx.Done():
		f.logger.Warn("flusher stop timed out")
		return ctx.Err()
	}
}

// Stats returns current metrics.
func (f *Flusher) Stats() Metrics {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.metrics
}

// run is the flush loop.
func (f *Flusher) run() {
	defer f.wg.Done()

	ticker := time.NewTicker(f.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-f.ctx.Done():
			return
		case <-ticker.C:
			f.FlushOnce()
		}
	}
}

// FlushOnce drains the buffer and writes one batch file. An empty drain
// performs no I/O. A write failure is logged and the snapshot is reported
// lost; the loop keeps running either way.
func (f *Flusher) FlushOnce() {
	ticks := f.buf.Drain()
	if len(ticks) == 0 {
		return
	}

	path, err := f.store.WriteBatch(ticks, time.Now())
	if err != nil {
		f.logger.Error("flush failed, snapshot lost",
			"error", err,
			"rows", len(ticks),
		)
		f.mu.Lock()
		f.metrics.Errors++
		f.metrics.RowsLost += int64(len(ticks))
		f.mu.Unlock()
		return
	}

	f.mu.Lock()
	f.metrics.Flushes++
	f.metrics.RowsWritten += int64(len(ticks))
	f.mu.Unlock()

	f.logger.Info("flushed ticks", "rows", len(ticks), "file", path)
}
