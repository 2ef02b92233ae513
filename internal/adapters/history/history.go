// Package history keeps a bounded in-memory record of recent release
// actions for the status API.
package history

import (
	"context"
	"sync"

	"github.com/roomward/roomward/internal/domain/model"
)

// Default history configuration constants.
const (
	defaultCapacity = 200
)

// Store provides read/write access to the recent-action record.
type Store interface {
	// Append records one action, evicting the oldest when full.
	Append(ctx context.Context, action model.AuditAction)

	// Recent returns up to n actions, newest first. A non-positive n
	// returns every retained action.
	Recent(ctx context.Context, n int) []model.AuditAction

	// Count returns the number of retained actions.
	Count(ctx context.Context) int
}

// RingStore implements Store with a fixed-capacity ring buffer.
type RingStore struct {
	mu      sync.RWMutex
	buf     []model.AuditAction
	next    int
	filled  bool
	maxSize int
}

// NewRingStore creates a ring store with configuration options.
func NewRingStore(opts ...Option) *RingStore {
	s := &RingStore{
		maxSize: defaultCapacity,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.buf = make([]model.AuditAction, s.maxSize)
	return s
}

// Append records one action, evicting the oldest when full.
func (s *RingStore) Append(_ context.Context, action model.AuditAction) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.buf[s.next] = action
	s.next++
	if s.next == s.maxSize {
		s.next = 0
		s.filled = true
	}
}

// Recent returns up to n actions, newest first.
func (s *RingStore) Recent(_ context.Context, n int) []model.AuditAction {
	s.mu.RLock()
	defer s.mu.RUnlock()

	size := s.sizeLocked()
	if n <= 0 || n > size {
		n = size
	}

	out := make([]model.AuditAction, 0, n)
	for i := 1; i <= n; i++ {
		idx := (s.next - i + s.maxSize) % s.maxSize
		out = append(out, s.buf[idx])
	}
	return out
}

// Count returns the number of retained actions.
func (s *RingStore) Count(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sizeLocked()
}

func (s *RingStore) sizeLocked() int {
	if s.filled {
		return s.maxSize
	}
	return s.next
}

// Report implements the audit sink contract so the store can be teed with
// an HTTP sink. Appending never fails.
func (s *RingStore) Report(ctx context.Context, action model.AuditAction) error {
	s.Append(ctx, action)
	return nil
}
