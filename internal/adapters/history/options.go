// Package history keeps a bounded in-memory record of recent release
// actions.
package history

// Option applies a configuration option to the RingStore.
type Option func(*RingStore)

// WithCapacity sets the number of actions retained.
func WithCapacity(capacity int) Option {
	return func(s *RingStore) {
		if capacity > 0 {
			s.maxSize = capacity
		}
	}
}
