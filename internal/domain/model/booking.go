// Package model contains domain models passed between layers.
package model

import "time"

// Booking represents a single room booking as seen by the release engine.
// It is read-only here; the calendar collaborator owns it.
type Booking struct {
	ID         string    // booking identifier used for monitor registry keys
	Title      string    // meeting title, used for keyword profile matching
	Organizer  string    // organizer display name, used for organizer profile matching
	MeetingRef string    // opaque reference used to issue the decline command
	Start      time.Time // booking start instant
	End        time.Time // booking end instant
}

// DurationMinutes returns the whole number of minutes between the booking's
// start and end instants. Bookings crossing an hour or midnight boundary are
// measured by the real distance between the two instants.
func (b Booking) DurationMinutes() int {
	d := b.End.Sub(b.Start)
	if d < 0 {
		d = -d
	}
	return int(d / time.Minute)
}

// BookingEventKind distinguishes booking lifecycle notifications.
type BookingEventKind string

// Booking lifecycle notification kinds.
const (
	BookingStarted BookingEventKind = "started"
	BookingEnded   BookingEventKind = "ended"
)

// BookingEvent is a booking lifecycle notification emitted by a booking
// source and consumed by the dispatcher.
type BookingEvent struct {
	Kind      BookingEventKind
	BookingID string
	At        time.Time
}

// AuditAction is a human-readable record of a monitoring decision, delivered
// to the configured audit sink and retained in the local action history.
type AuditAction struct {
	ID           string    `json:"id"`
	Workspace    string    `json:"workspace"`
	BookingID    string    `json:"booking_id"`
	BookingTitle string    `json:"booking_title"`
	Profile      string    `json:"profile"`
	Action       string    `json:"action"`
	Simulated    bool      `json:"simulated,omitempty"`
	At           time.Time `json:"at"`
}
