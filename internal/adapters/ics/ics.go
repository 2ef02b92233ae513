// Package ics adapts a calendar ICS feed into a booking source. It polls
// the feed on a cron schedule and synthesizes booking start and end events
// from the event times, so downstream consumers see the same lifecycle a
// push-capable calendar backend would deliver.
package ics

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/roomward/roomward/internal/domain/model"
	"github.com/roomward/roomward/internal/monitor"
	"github.com/roomward/roomward/pkg/clock"
	"github.com/roomward/roomward/pkg/logger"
)

// Default feed configuration constants.
const (
	defaultFetchTimeout = 15 * time.Second
	defaultRefreshSpec  = "*/5 * * * *"
)

// Source is a BookingSource backed by an ICS feed.
type Source struct {
	url         string
	client      *http.Client
	clk         clock.Clock
	log         logger.Logger
	cron        *cron.Cron
	refreshSpec string
	location    string

	mu       sync.Mutex
	bookings map[string]model.Booking
	timers   map[string][]clock.Timer
	subs     map[int]func(model.BookingEvent)
	nextSub  int
	started  bool
}

// NewSource creates a feed source with configuration options. Start must be
// called to fetch the feed and begin the refresh schedule.
func NewSource(url string, opts ...Option) *Source {
	s := &Source{
		url:         url,
		client:      &http.Client{Timeout: defaultFetchTimeout},
		clk:         clock.System(),
		refreshSpec: defaultRefreshSpec,
		bookings:    make(map[string]model.Booking),
		timers:      make(map[string][]clock.Timer),
		subs:        make(map[int]func(model.BookingEvent)),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.log == nil {
		s.log = logger.Get().Named("ics")
	}
	return s
}

// Start fetches the feed once and schedules periodic refreshes.
func (s *Source) Start(ctx context.Context) error {
	if err := s.Refresh(ctx); err != nil {
		return err
	}

	s.cron = cron.New()
	_, err := s.cron.AddFunc(s.refreshSpec, func() {
		if err := s.Refresh(context.Background()); err != nil {
			s.log.Warn(context.Background(), "feed refresh failed", logger.Error(err))
		}
	})
	if err != nil {
		return fmt.Errorf("invalid refresh schedule %q: %w", s.refreshSpec, err)
	}
	s.cron.Start()

	s.mu.Lock()
	s.started = true
	s.mu.Unlock()
	return nil
}

// Stop halts the refresh schedule and cancels all pending event timers.
func (s *Source) Stop() {
	if s.cron != nil {
		s.cron.Stop()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for id := range s.timers {
		s.cancelTimersLocked(id)
	}
	s.started = false
}

// Refresh fetches and applies the feed once. Bookings that changed their
// times are rescheduled; bookings that disappeared while in progress emit
// an end event.
func (s *Source) Refresh(ctx context.Context) error {
	body, err := s.fetch(ctx)
	if err != nil {
		return err
	}

	parsed, err := parseCalendar(body, s.location)
	if err != nil {
		return err
	}

	now := s.clk.Now()
	var pending []model.BookingEvent

	s.mu.Lock()
	seen := make(map[string]struct{}, len(parsed))
	for _, b := range parsed {
		seen[b.ID] = struct{}{}
		prev, exists := s.bookings[b.ID]
		if exists && prev.Start.Equal(b.Start) && prev.End.Equal(b.End) {
			s.bookings[b.ID] = b // title or organizer may still have changed
			continue
		}
		if exists {
			s.cancelTimersLocked(b.ID)
		}
		s.bookings[b.ID] = b
		pending = append(pending, s.scheduleLocked(b, now)...)
	}
	for id, b := range s.bookings {
		if _, ok := seen[id]; ok {
			continue
		}
		s.cancelTimersLocked(id)
		delete(s.bookings, id)
		if !now.Before(b.Start) && now.Before(b.End) {
			pending = append(pending, model.BookingEvent{
				Kind:      model.BookingEnded,
				BookingID: id,
				At:        now,
			})
		}
	}
	count := len(s.bookings)
	s.mu.Unlock()

	for _, ev := range pending {
		s.emit(ev)
	}

	s.log.Info(ctx, "feed refreshed",
		logger.Int("bookings", count),
		logger.Int("events", len(pending)),
	)
	return nil
}

// Get resolves a booking by id.
func (s *Source) Get(_ context.Context, id string) (model.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.bookings[id]
	if !ok {
		return model.Booking{}, fmt.Errorf("%w: %s", monitor.ErrBookingNotFound, id)
	}
	return b, nil
}

// Subscribe registers a callback for booking lifecycle events.
func (s *Source) Subscribe(onEvent func(model.BookingEvent)) (func(), error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextSub
	s.nextSub++
	s.subs[id] = onEvent
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}, nil
}

// Active lists bookings currently in progress.
func (s *Source) Active(_ context.Context) ([]model.Booking, error) {
	now := s.clk.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	var active []model.Booking
	for _, b := range s.bookings {
		if !now.Before(b.Start) && now.Before(b.End) {
			active = append(active, b)
		}
	}
	return active, nil
}

// scheduleLocked arms start and end timers for a booking and returns events
// that are already due. Must be called with s.mu held.
func (s *Source) scheduleLocked(b model.Booking, now time.Time) []model.BookingEvent {
	if !now.Before(b.End) {
		return nil // already over
	}

	var due []model.BookingEvent
	id := b.ID

	if now.Before(b.Start) {
		startT := s.clk.AfterFunc(b.Start.Sub(now), func() {
			s.emit(model.BookingEvent{Kind: model.BookingStarted, BookingID: id, At: b.Start})
		})
		s.timers[id] = append(s.timers[id], startT)
	} else {
		due = append(due, model.BookingEvent{Kind: model.BookingStarted, BookingID: id, At: now})
	}

	endT := s.clk.AfterFunc(b.End.Sub(now), func() {
		s.emit(model.BookingEvent{Kind: model.BookingEnded, BookingID: id, At: b.End})
	})
	s.timers[id] = append(s.timers[id], endT)

	return due
}

// cancelTimersLocked stops every pending timer for a booking.
// Must be called with s.mu held.
func (s *Source) cancelTimersLocked(id string) {
	for _, t := range s.timers[id] {
		t.Stop()
	}
	delete(s.timers, id)
}

// emit delivers one event to every subscriber.
func (s *Source) emit(ev model.BookingEvent) {
	s.mu.Lock()
	callbacks := make([]func(model.BookingEvent), 0, len(s.subs))
	for _, cb := range s.subs {
		callbacks = append(callbacks, cb)
	}
	s.mu.Unlock()

	for _, cb := range callbacks {
		cb(ev)
	}
}

// fetch downloads the raw feed body.
func (s *Source) fetch(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFeedUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("%w: feed returned %s", ErrFeedUnavailable, resp.Status)
	}
	return io.ReadAll(resp.Body)
}
