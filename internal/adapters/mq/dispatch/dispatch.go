// Package dispatch consumes booking events off the queue and drives the
// monitor lifecycle for each booking.
package dispatch

import (
	"context"
	"errors"
	"fmt"

	"github.com/roomward/roomward/internal/domain/handled"
	"github.com/roomward/roomward/internal/domain/model"
	"github.com/roomward/roomward/internal/domain/profile"
	"github.com/roomward/roomward/internal/monitor"
	"github.com/roomward/roomward/pkg/logger"
	"github.com/roomward/roomward/pkg/metrics"
)

// Event abstracts what the dispatcher reads off the queue.
// Using the model.BookingEvent type for consistency.
type Event = model.BookingEvent

// Queue defines how the dispatcher receives events.
type Queue interface {
	Dequeue(ctx context.Context) <-chan Event
}

// Matcher resolves a booking to its release profile.
type Matcher interface {
	Match(ctx context.Context, booking model.Booking) (profile.Profile, bool)
}

// Dispatcher routes booking lifecycle events to monitors. A single
// dispatcher consumes the queue so events for one booking are applied in
// order.
type Dispatcher struct {
	queue    Queue
	source   monitor.BookingSource
	matcher  Matcher
	registry *monitor.Registry
	tracker  handled.Tracker
	deps     monitor.Deps
	monOpts  []monitor.Option

	// Shutdown control
	shutdown chan struct{}
	done     chan struct{}

	// Logging
	logger logger.Logger
}

// New creates a dispatcher with configuration options.
func New(q Queue, source monitor.BookingSource, matcher Matcher, registry *monitor.Registry,
	tracker handled.Tracker, deps monitor.Deps, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		queue:    q,
		source:   source,
		matcher:  matcher,
		registry: registry,
		tracker:  tracker,
		deps:     deps,
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
		logger:   logger.Get().Named("dispatch"),
	}

	for _, opt := range opts {
		opt(d)
	}

	return d
}

// Run starts the dispatch loop.
func (d *Dispatcher) Run(ctx context.Context) {
	defer func() {
		close(d.done)
	}()

	eventChan := d.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-d.shutdown:
			return
		case event, ok := <-eventChan:
			if !ok {
				// Channel closed, dispatcher should stop
				return
			}

			if err := d.processEvent(ctx, event); err != nil {
				d.logger.Error(ctx, "error processing booking event", logger.Error(err))
			}
		}
	}
}

// Shutdown gracefully stops the dispatcher.
func (d *Dispatcher) Shutdown(ctx context.Context) error {
	close(d.shutdown)

	select {
	case <-d.done:
		return nil
	case <-ctx.Done():
		d.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// processEvent handles a single booking event.
func (d *Dispatcher) processEvent(ctx context.Context, event Event) error {
	metrics.RecordBookingEvent(string(event.Kind))

	switch event.Kind {
	case model.BookingStarted:
		return d.onBookingStarted(ctx, event.BookingID)
	case model.BookingEnded:
		d.onBookingEnded(ctx, event.BookingID)
		return nil
	default:
		metrics.RecordDispatchError("unknown_event_kind")
		return fmt.Errorf("unknown booking event kind %q", event.Kind)
	}
}

// onBookingStarted resolves the booking, matches it to a profile, and
// starts a monitor unless the booking was already handled.
func (d *Dispatcher) onBookingStarted(ctx context.Context, bookingID string) error {
	if d.tracker.Seen(ctx, bookingID) {
		d.logger.Debug(ctx, "booking already handled; ignoring start event",
			logger.String("bookingID", bookingID),
		)
		return nil
	}
	if _, exists := d.registry.Get(bookingID); exists {
		d.logger.Debug(ctx, "monitor already active; ignoring start event",
			logger.String("bookingID", bookingID),
		)
		return nil
	}

	booking, err := d.source.Get(ctx, bookingID)
	if err != nil {
		if errors.Is(err, monitor.ErrBookingNotFound) {
			metrics.RecordDispatchError("booking_not_found")
			d.logger.Warn(ctx, "booking not found in source; skipping",
				logger.String("bookingID", bookingID),
			)
			return nil
		}
		metrics.RecordDispatchError("source_lookup")
		return fmt.Errorf("booking lookup failed for %s: %w", bookingID, err)
	}

	prof, ok := d.matcher.Match(ctx, booking)
	if !ok {
		metrics.RecordDispatchError("no_profile")
		d.logger.Warn(ctx, "no release profile matched; leaving booking untouched",
			logger.String("bookingID", bookingID),
			logger.String("title", booking.Title),
		)
		d.tracker.Mark(ctx, bookingID)
		return nil
	}

	opts := append([]monitor.Option{}, d.monOpts...)
	opts = append(opts, monitor.WithOnStopped(func(id string, reason monitor.StopReason) {
		d.registry.Remove(id)
		d.tracker.Mark(context.Background(), id)
		d.logger.Info(context.Background(), "monitor finished",
			logger.String("bookingID", id),
			logger.String("reason", string(reason)),
		)
	}))

	m := monitor.New(booking, prof, d.deps, opts...)
	if !d.registry.Add(m) {
		d.logger.Debug(ctx, "monitor registered concurrently; dropping duplicate",
			logger.String("bookingID", bookingID),
		)
		return nil
	}

	if err := m.Start(ctx); err != nil {
		d.registry.Remove(bookingID)
		metrics.RecordDispatchError("monitor_start")
		return fmt.Errorf("monitor start failed for %s: %w", bookingID, err)
	}

	d.logger.Info(ctx, "booking dispatched",
		logger.String("bookingID", bookingID),
		logger.String("title", booking.Title),
		logger.String("profile", prof.Name),
	)
	return nil
}

// onBookingEnded stops the active monitor for a booking, if any.
func (d *Dispatcher) onBookingEnded(ctx context.Context, bookingID string) {
	m, ok := d.registry.Get(bookingID)
	if !ok {
		d.logger.Debug(ctx, "no active monitor for ended booking",
			logger.String("bookingID", bookingID),
		)
		return
	}
	m.Stop(monitor.ReasonBookingEnded)
}
