package monitor

import (
	"context"
	"sort"
	"sync"

	"github.com/roomward/roomward/internal/domain/types"
	"github.com/roomward/roomward/pkg/logger"
	"github.com/roomward/roomward/pkg/metrics"
)

// Registry is the process-wide collection of active monitors keyed by
// booking id. It supports concurrent insert and remove.
type Registry struct {
	mu       sync.RWMutex
	monitors map[string]*Monitor
	log      logger.Logger
}

// RegistryOption applies a configuration option to the Registry.
type RegistryOption func(*Registry)

// WithRegistryLogger sets a custom logger for the registry.
func WithRegistryLogger(log logger.Logger) RegistryOption {
	return func(r *Registry) {
		if log != nil {
			r.log = log
		}
	}
}

// NewRegistry creates an empty registry.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		monitors: make(map[string]*Monitor),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Add registers a monitor under its booking id. Returns false when a monitor
// for that booking is already registered; the registry keeps the first.
func (r *Registry) Add(m *Monitor) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.monitors[m.BookingID()]; exists {
		return false
	}
	r.monitors[m.BookingID()] = m
	metrics.UpdateActiveMonitors(len(r.monitors))
	if r.log != nil {
		r.log.Debug(context.Background(), "monitor registered",
			logger.String("bookingID", m.BookingID()),
			logger.Int("active", len(r.monitors)),
		)
	}
	return true
}

// Get returns the monitor for a booking id, if any.
func (r *Registry) Get(bookingID string) (*Monitor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	m, ok := r.monitors[bookingID]
	return m, ok
}

// Remove deregisters the monitor for a booking id. Removing an unknown id
// is a no-op.
func (r *Registry) Remove(bookingID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.monitors, bookingID)
	metrics.UpdateActiveMonitors(len(r.monitors))
}

// Len returns the number of active monitors.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.monitors)
}

// Infos returns status snapshots for all active monitors, sorted by
// booking id for stable API output.
func (r *Registry) Infos(_ context.Context) []types.MonitorInfo {
	r.mu.RLock()
	monitors := make([]*Monitor, 0, len(r.monitors))
	for _, m := range r.monitors {
		monitors = append(monitors, m)
	}
	r.mu.RUnlock()

	infos := make([]types.MonitorInfo, 0, len(monitors))
	for _, m := range monitors {
		infos = append(infos, m.Info())
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].BookingID < infos[j].BookingID })
	return infos
}

// StopAll stops every active monitor with the given reason. Used on
// process shutdown.
func (r *Registry) StopAll(reason StopReason) {
	r.mu.RLock()
	monitors := make([]*Monitor, 0, len(r.monitors))
	for _, m := range r.monitors {
		monitors = append(monitors, m)
	}
	r.mu.RUnlock()

	for _, m := range monitors {
		m.Stop(reason)
	}
}
