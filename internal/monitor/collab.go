// Package monitor implements the per-booking release state machine and the
// process-wide registry of active monitors.
package monitor

import (
	"context"
	"time"

	"github.com/roomward/roomward/internal/domain/model"
	"github.com/roomward/roomward/internal/domain/presence"
)

// BookingSource resolves bookings and emits booking lifecycle notifications.
type BookingSource interface {
	// Get resolves a booking by id. Returns ErrBookingNotFound when the id
	// cannot be resolved.
	Get(ctx context.Context, id string) (model.Booking, error)

	// Subscribe registers a callback for booking lifecycle events and
	// returns an unsubscribe function.
	Subscribe(onEvent func(model.BookingEvent)) (func(), error)
}

// ActiveLister is an optional BookingSource extension listing bookings that
// are currently in progress, used to resume monitoring after a restart.
type ActiveLister interface {
	Active(ctx context.Context) ([]model.Booking, error)
}

// PresenceSensors reads presence signals and delivers change notifications.
// Subscribing to presence.SignalUIInteraction delivers one callback per
// interaction event rather than a held state change.
type PresenceSensors interface {
	presence.Reader

	// Subscribe registers a callback invoked whenever the signal changes
	// (or, for the UI-interaction signal, whenever an interaction occurs)
	// and returns an unsubscribe function.
	Subscribe(signal presence.Signal, onChange func()) (func(), error)
}

// Prompt describes a dismissible occupant-facing message.
type Prompt struct {
	Title    string
	Text     string
	Option   string // label of the single dismiss choice
	Duration time.Duration
}

// PromptRenderer displays and clears occupant-facing prompts.
type PromptRenderer interface {
	Display(ctx context.Context, p Prompt) error
	Clear(ctx context.Context) error
}

// BookingReleaser issues release (decline) requests against the calendar
// system.
type BookingReleaser interface {
	Decline(ctx context.Context, meetingRef string) error
}

// AuditSink delivers audit actions to an external review endpoint.
// Delivery is best-effort; the state machine logs failures and moves on.
type AuditSink interface {
	Report(ctx context.Context, action model.AuditAction) error
}
