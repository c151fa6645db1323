// Package buffer implements the shared in-memory tick accumulator.
//
// The buffer is the only mutable state shared between the feed consumer and
// the flusher; it is guarded by a single mutex held only for the duration of
// an append or a drain swap, never across I/O.
package buffer

import (
	"sync"

	"github.com/quantrail/tickvault/internal/model"
)

// TickBuffer is a thread-safe, unordered-consumption accumulator of ticks.
// Appends from any number of producers interleave safely with drains.
type TickBuffer struct {
	mu    sync.Mutex
	ticks []model.Tick

	// Stats
	totalAppended int64
	totalDrained  int64
	drainCount    int64
}

// New creates a buffer with the given initial capacity.
func New(initialCapacity int) *TickBuffer {
	if initialCapacity < 1 {
		initialCapacity = 1
	}
	return &TickBuffer{
		ticks: make([]model.Tick, 0, initialCapacity),
	}
}

// Append adds one tick to the buffer.
func (b *TickBuffer) Append(t model.Tick) {
	b.mu.Lock()
	b.ticks = append(b.ticks, t)
	b.totalAppended++
	b.mu.Unlock()
}

// AppendBatch adds a batch of ticks under a single lock acquisition.
func (b *TickBuffer) AppendBatch(ticks []model.Tick) {
	if len(ticks) == 0 {
		return
	}
	b.mu.Lock()
	b.ticks = append(b.ticks, ticks...)
	b.totalAppended += int64(len(ticks))
	b.mu.Unlock()
}

// Drain atomically takes ownership of all buffered ticks and empties the
// buffer. Every tick appended before Drain returns appears in exactly one
// drain result. Returns nil when the buffer is empty.
func (b *TickBuffer) Drain() []model.Tick {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.ticks) == 0 {
		return nil
	}

	drained := b.ticks
	b.ticks = make([]model.Tick, 0, cap(drained))
	b.totalDrained += int64(len(drained))
	b.drainCount++
	return drained
}

// Len returns the current number of buffered ticks.
func (b *TickBuffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.ticks)
}

// Stats returns buffer counters.
func (b *TickBuffer) Stats() Stats {
	b.mu.Lock()
	defer b.mu.Unlock()
	return Stats{
		Buffered:      len(b.ticks),
		TotalAppended: b.totalAppended,
		TotalDrained:  b.totalDrained,
		DrainCount:    b.drainCount,
	}
}

// Stats contains buffer counters.
type Stats struct {
	Buffered      int
	TotalAppended int64
	TotalDrained  int64
	DrainCount    int64
}
