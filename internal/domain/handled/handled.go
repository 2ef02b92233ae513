// Package handled tracks bookings the engine has already dealt with, so a
// replayed or duplicated booking-start notification cannot spawn a second
// monitor for a booking that was released or monitored to completion.
package handled

import (
	"context"
	"sync"
)

// Default tracker configuration constants.
const (
	defaultMaxSize = 10000
)

// Tracker records handled booking ids.
type Tracker interface {
	// Mark records that a booking was fully handled. Returns true if the
	// booking was already marked. Thread-safe and atomic.
	Mark(ctx context.Context, bookingID string) bool

	// Seen reports whether a booking has been marked handled.
	Seen(ctx context.Context, bookingID string) bool

	// Size returns the current number of tracked bookings.
	Size() int
}

// inMemoryTracker implements Tracker with a bounded map. When the bound is
// reached the oldest marked booking is evicted (FIFO), which is safe here:
// evicting an old id merely re-opens the door for a very stale replay.
type inMemoryTracker struct {
	mu      sync.RWMutex
	seen    map[string]struct{}
	order   []string // insertion order for FIFO eviction
	maxSize int
}

// Option applies a configuration option to the in-memory tracker.
type Option func(*inMemoryTracker)

// WithMaxSize bounds the number of booking ids kept in memory.
// A size of zero or less keeps the default bound.
func WithMaxSize(maxSize int) Option {
	return func(t *inMemoryTracker) {
		if maxSize > 0 {
			t.maxSize = maxSize
		}
	}
}

// NewInMemoryTracker creates a bounded in-memory tracker.
func NewInMemoryTracker(opts ...Option) Tracker {
	t := &inMemoryTracker{
		seen:    make(map[string]struct{}),
		maxSize: defaultMaxSize,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *inMemoryTracker) Mark(_ context.Context, bookingID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.seen[bookingID]; ok {
		return true
	}

	if len(t.seen) >= t.maxSize {
		t.evictOldest()
	}

	t.seen[bookingID] = struct{}{}
	t.order = append(t.order, bookingID)
	return false
}

func (t *inMemoryTracker) Seen(_ context.Context, bookingID string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()

	_, ok := t.seen[bookingID]
	return ok
}

func (t *inMemoryTracker) Size() int {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return len(t.seen)
}

// evictOldest removes the least recently marked booking.
// Must be called with t.mu held for writing.
func (t *inMemoryTracker) evictOldest() {
	for len(t.order) > 0 {
		oldest := t.order[0]
		t.order = t.order[1:]
		if _, ok := t.seen[oldest]; ok {
			delete(t.seen, oldest)
			return
		}
	}
}
