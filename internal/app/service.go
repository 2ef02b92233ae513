// Package service wires the booking feed, event queue, dispatcher and
// monitor registry into one runnable unit and implements the dependencies
// required by the HTTP API.
package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/roomward/roomward/internal/adapters/audit"
	"github.com/roomward/roomward/internal/adapters/device/sim"
	"github.com/roomward/roomward/internal/adapters/history"
	"github.com/roomward/roomward/internal/adapters/ics"
	"github.com/roomward/roomward/internal/adapters/mq/dispatch"
	eventqueue "github.com/roomward/roomward/internal/adapters/mq/queue"
	"github.com/roomward/roomward/internal/config"
	"github.com/roomward/roomward/internal/domain/handled"
	"github.com/roomward/roomward/internal/domain/model"
	"github.com/roomward/roomward/internal/domain/presence"
	"github.com/roomward/roomward/internal/domain/profile"
	"github.com/roomward/roomward/internal/domain/types"
	"github.com/roomward/roomward/internal/monitor"
	"github.com/roomward/roomward/pkg/clock"
	"github.com/roomward/roomward/pkg/logger"
	"github.com/roomward/roomward/pkg/metrics"
)

// bookingFeed is what the service needs from a booking source: lookups,
// lifecycle notifications and the set of currently active bookings.
type bookingFeed interface {
	monitor.BookingSource
	monitor.ActiveLister
}

// shutdownTimeout bounds how long Stop waits for the dispatcher to drain.
const shutdownTimeout = 5 * time.Second

// Service owns the full processing pipeline for one workspace.
type Service struct {
	mu sync.RWMutex

	cfg *config.Config
	clk clock.Clock

	// Core components
	queue      *eventqueue.InMemoryQueue
	tracker    handled.Tracker
	history    *history.RingStore
	matcher    *profile.Matcher
	registry   *monitor.Registry
	dispatcher *dispatch.Dispatcher

	// Workspace adapters
	feed   bookingFeed
	device *sim.Device

	profiles []profile.Profile

	// State
	started     bool
	startedAt   time.Time
	unsubscribe func()

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(log logger.Logger) Option {
	return func(s *Service) {
		if log != nil {
			s.logger = log
		}
	}
}

// WithClock overrides the clock driving booking schedules and monitors.
func WithClock(clk clock.Clock) Option {
	return func(s *Service) {
		if clk != nil {
			s.clk = clk
		}
	}
}

// WithBookingFeed overrides the booking source selected from configuration.
func WithBookingFeed(feed bookingFeed) Option {
	return func(s *Service) {
		if feed != nil {
			s.feed = feed
		}
	}
}

// New constructs a Service from the given configuration.
func New(cfg *config.Config, opts ...Option) *Service {
	s := &Service{
		cfg: cfg,
		clk: clock.System(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start builds and starts the pipeline components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get()
	}

	s.logger.Info(ctx, "starting workspace service",
		logger.String("workspace", s.cfg.Workspace),
		logger.Bool("dryRun", s.cfg.DryRun),
	)
	if s.cfg.PresenceAndPeopleCount {
		s.logger.Warn(ctx, "presence_and_people_count is reserved and not applied")
	}

	profiles, err := s.cfg.BuildProfiles()
	if err != nil {
		return fmt.Errorf("building profiles: %w", err)
	}
	s.profiles = profiles
	s.matcher = profile.NewMatcher(profiles)

	s.queue = eventqueue.NewInMemoryQueue(
		eventqueue.WithCapacity(s.cfg.QueueSize),
	)
	s.tracker = handled.NewInMemoryTracker(
		handled.WithMaxSize(s.cfg.HandledCacheSize),
	)
	s.history = history.NewRingStore(
		history.WithCapacity(s.cfg.HistorySize),
	)
	s.registry = monitor.NewRegistry()

	device, err := s.buildDevice()
	if err != nil {
		return err
	}
	s.device = device

	if s.feed == nil {
		s.feed = s.buildFeed()
	}

	deps := monitor.Deps{
		Sensors:  s.device,
		Prompt:   s.device,
		Releaser: s.device,
		Audit:    s.buildAuditSink(),
	}

	signals := make([]presence.Signal, 0, len(s.cfg.Signals))
	for _, name := range s.cfg.Signals {
		signals = append(signals, presence.Signal(name))
	}

	s.dispatcher = dispatch.New(s.queue, s.feed, s.matcher, s.registry, s.tracker, deps,
		dispatch.WithMonitorOptions(
			monitor.WithClock(s.clk),
			monitor.WithWorkspace(s.cfg.Workspace),
			monitor.WithDryRun(s.cfg.DryRun),
			monitor.WithSignals(signals),
			monitor.WithUIInteraction(s.cfg.UIInteraction),
			monitor.WithReadTimeout(s.cfg.SignalReadTimeout()),
		),
	)

	unsub, err := s.feed.Subscribe(s.onBookingEvent)
	if err != nil {
		return fmt.Errorf("subscribing to booking feed: %w", err)
	}
	s.unsubscribe = unsub

	go s.dispatcher.Run(ctx)

	if starter, ok := s.feed.(interface{ Start(context.Context) error }); ok {
		if err := starter.Start(ctx); err != nil {
			return fmt.Errorf("starting booking feed: %w", err)
		}
	}

	if err := s.resumeActive(ctx); err != nil {
		s.logger.Warn(ctx, "resuming active bookings failed",
			logger.Error(err),
		)
	}

	s.started = true
	s.startedAt = time.Now()
	s.logger.Info(ctx, "workspace service started",
		logger.Int("queueSize", s.cfg.QueueSize),
		logger.Int("profiles", len(profiles)),
	)

	return nil
}

// Stop gracefully shuts down the pipeline.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	ctx := context.Background()
	s.logger.Info(ctx, "stopping workspace service")

	if s.unsubscribe != nil {
		s.unsubscribe()
		s.unsubscribe = nil
	}
	if stopper, ok := s.feed.(interface{ Stop() }); ok {
		stopper.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()
	if err := s.dispatcher.Shutdown(shutdownCtx); err != nil {
		s.logger.Warn(ctx, "dispatcher did not drain in time",
			logger.Error(err),
		)
	}

	s.registry.StopAll(monitor.ReasonShutdown)
	_ = s.queue.Close()

	s.started = false
	s.logger.Info(ctx, "workspace service stopped")
}

// Device returns the workspace device adapter, for demo tooling and tests.
func (s *Service) Device() *sim.Device {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.device
}

// Feed returns the booking source in use.
func (s *Service) Feed() monitor.BookingSource {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.feed
}

// Monitors lists status snapshots for every registered booking monitor.
func (s *Service) Monitors(ctx context.Context) []types.MonitorInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.started {
		return []types.MonitorInfo{}
	}
	return s.registry.Infos(ctx)
}

// RecentActions returns up to n recorded release actions, newest first.
func (s *Service) RecentActions(ctx context.Context, n int) []model.AuditAction {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.started {
		return []model.AuditAction{}
	}
	return s.history.Recent(ctx, n)
}

// Status reports a service-wide status snapshot.
func (s *Service) Status(ctx context.Context) types.ServiceStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()

	status := types.ServiceStatus{
		Workspace: s.cfg.Workspace,
		DryRun:    s.cfg.DryRun,
	}
	if !s.started {
		return status
	}

	names := make([]string, len(s.profiles))
	for i, p := range s.profiles {
		names[i] = p.Name
	}

	status.StartedAt = s.startedAt
	status.UptimeSeconds = time.Since(s.startedAt).Seconds()
	status.ActiveMonitors = s.registry.Len()
	status.QueueDepth = s.queue.Len(ctx)
	status.HandledBookings = s.tracker.Size()
	status.Profiles = names

	metrics.UpdateActiveMonitors(status.ActiveMonitors)
	metrics.UpdateQueueSize(status.QueueDepth)

	return status
}

// onBookingEvent forwards feed notifications into the event queue.
func (s *Service) onBookingEvent(ev model.BookingEvent) {
	ctx := context.Background()
	if !s.queue.Enqueue(ctx, ev) {
		s.logger.Warn(ctx, "dropping booking event, queue unavailable",
			logger.String("bookingID", ev.BookingID),
			logger.String("kind", string(ev.Kind)),
		)
	}
}

// resumeActive enqueues a start notification for every booking already in
// progress, so a restart mid-booking picks monitoring back up.
func (s *Service) resumeActive(ctx context.Context) error {
	active, err := s.feed.Active(ctx)
	if err != nil {
		return err
	}

	for _, b := range active {
		s.onBookingEvent(model.BookingEvent{
			Kind:      model.BookingStarted,
			BookingID: b.ID,
			At:        s.clk.Now(),
		})
	}

	if len(active) > 0 {
		s.logger.Info(ctx, "resumed in-progress bookings",
			logger.Int("count", len(active)),
		)
	}
	return nil
}

// buildDevice selects the workspace device adapter from configuration.
func (s *Service) buildDevice() (*sim.Device, error) {
	switch s.cfg.Device {
	case "", "sim":
		return sim.NewDevice(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDevice, s.cfg.Device)
	}
}

// buildFeed selects the booking source: a calendar feed when one is
// configured, otherwise the scripted in-memory source.
func (s *Service) buildFeed() bookingFeed {
	if s.cfg.Feed.URL != "" {
		opts := []ics.Option{ics.WithClock(s.clk)}
		if s.cfg.Feed.RefreshSchedule != "" {
			opts = append(opts, ics.WithRefreshSchedule(s.cfg.Feed.RefreshSchedule))
		}
		return ics.NewSource(s.cfg.Feed.URL, opts...)
	}
	return sim.NewSource(sim.WithSourceClock(s.clk))
}

// buildAuditSink tees the local action history with the configured remote
// sink, if any.
func (s *Service) buildAuditSink() monitor.AuditSink {
	if s.cfg.Audit.URL == "" {
		return s.history
	}

	opts := []audit.Option{}
	if s.cfg.Audit.Mode != "" {
		opts = append(opts, audit.WithMode(audit.Mode(s.cfg.Audit.Mode)))
	}
	if s.cfg.Audit.Token != "" {
		opts = append(opts, audit.WithToken(s.cfg.Audit.Token))
	}
	if s.cfg.Audit.Recipient != "" {
		opts = append(opts, audit.WithRecipient(s.cfg.Audit.Recipient))
	}
	return audit.Multi(s.history, audit.NewSink(s.cfg.Audit.URL, opts...))
}
