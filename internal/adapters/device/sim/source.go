package sim

import (
	"context"
	"fmt"
	"sync"

	"github.com/roomward/roomward/internal/domain/model"
	"github.com/roomward/roomward/internal/monitor"
	"github.com/roomward/roomward/pkg/clock"
)

// Source is a scriptable booking source. Bookings are added from code and
// lifecycle events are pushed to subscribers explicitly.
type Source struct {
	clk clock.Clock

	mu      sync.Mutex
	books   map[string]model.Booking
	active  map[string]bool
	subs    map[int]func(model.BookingEvent)
	nextSub int
}

// NewSource creates an empty scripted source.
func NewSource(opts ...SourceOption) *Source {
	s := &Source{
		clk:    clock.System(),
		books:  make(map[string]model.Booking),
		active: make(map[string]bool),
		subs:   make(map[int]func(model.BookingEvent)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get resolves a booking by id.
func (s *Source) Get(_ context.Context, id string) (model.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.books[id]
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

// Active lists bookings a StartBooking call marked in progress.
func (s *Source) Active(_ context.Context) ([]model.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var active []model.Booking
	for id := range s.active {
		active = append(active, s.books[id])
	}
	return active, nil
}

// AddBooking registers a booking without emitting any event.
func (s *Source) AddBooking(b model.Booking) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.books[b.ID] = b
}

// StartBooking marks a booking in progress and emits a start event.
func (s *Source) StartBooking(id string) {
	s.mu.Lock()
	if _, ok := s.books[id]; !ok {
		s.mu.Unlock()
		return
	}
	s.active[id] = true
	ev := model.BookingEvent{Kind: model.BookingStarted, BookingID: id, At: s.clk.Now()}
	callbacks := s.callbacksLocked()
	s.mu.Unlock()

	for _, cb := range callbacks {
		cb(ev)
	}
}

// EndBooking marks a booking over and emits an end event.
func (s *Source) EndBooking(id string) {
	s.mu.Lock()
	delete(s.active, id)
	ev := model.BookingEvent{Kind: model.BookingEnded, BookingID: id, At: s.clk.Now()}
	callbacks := s.callbacksLocked()
	s.mu.Unlock()

	for _, cb := range callbacks {
		cb(ev)
	}
}

func (s *Source) callbacksLocked() []func(model.BookingEvent) {
	callbacks := make([]func(model.BookingEvent), 0, len(s.subs))
	for _, cb := range s.subs {
		callbacks = append(callbacks, cb)
	}
	return callbacks
}
