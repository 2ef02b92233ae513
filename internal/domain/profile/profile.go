// Package profile defines booking policy profiles and first-match-wins
// profile selection.
package profile

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/roomward/roomward/internal/domain/model"
	"github.com/roomward/roomward/pkg/logger"
)

// Kind selects the matching rule a profile applies to bookings.
type Kind string

// Profile kinds.
const (
	KindDuration   Kind = "duration"
	KindKeywords   Kind = "keywords"
	KindOrganizers Kind = "organizers"
	KindDefault    Kind = "default"
)

// Profile is an ordered policy rule describing how to treat a class of
// bookings. Profiles are immutable configuration loaded at process start.
type Profile struct {
	// Name identifies the profile in logs and audit actions.
	Name string

	// Kind selects the matching rule.
	Kind Kind

	// DurationMin and DurationMax bound the booking duration in minutes for
	// KindDuration. The range is half-open, lower-exclusive: a booking
	// matches iff DurationMin < duration <= DurationMax.
	DurationMin int
	DurationMax int

	// Keywords are case-sensitive substrings matched against the booking
	// title for KindKeywords.
	Keywords []string

	// Organizers are exact, case-sensitive organizer names for KindOrganizers.
	Organizers []string

	// Monitor enables presence monitoring for matched bookings. When false,
	// matched bookings are left untouched.
	Monitor bool

	// StartAfter and StopAfter bound the monitoring window relative to the
	// booking start instant.
	StartAfter time.Duration
	StopAfter  time.Duration

	// RequiredUnoccupied is the countdown length before release.
	RequiredUnoccupied time.Duration

	// AlertBefore is how long before countdown expiry to warn occupants.
	// Must be shorter than RequiredUnoccupied.
	AlertBefore time.Duration
}

// Validate checks that the profile is internally consistent.
func (p Profile) Validate() error {
	switch p.Kind {
	case KindDuration:
		if p.DurationMax <= p.DurationMin {
			return fmt.Errorf("%w: profile %q duration range (%d,%d] is empty",
				ErrInvalidProfile, p.Name, p.DurationMin, p.DurationMax)
		}
	case KindKeywords:
		if len(p.Keywords) == 0 {
			return fmt.Errorf("%w: profile %q has no keywords", ErrInvalidProfile, p.Name)
		}
	case KindOrganizers:
		if len(p.Organizers) == 0 {
			return fmt.Errorf("%w: profile %q has no organizers", ErrInvalidProfile, p.Name)
		}
	case KindDefault:
		// always matches
	default:
		return fmt.Errorf("%w: profile %q has unknown kind %q", ErrInvalidProfile, p.Name, p.Kind)
	}

	if !p.Monitor {
		return nil
	}

	if p.StartAfter < 0 || p.StopAfter <= p.StartAfter {
		return fmt.Errorf("%w: profile %q monitoring window [%s,%s) is empty",
			ErrInvalidProfile, p.Name, p.StartAfter, p.StopAfter)
	}
	if p.RequiredUnoccupied <= 0 {
		return fmt.Errorf("%w: profile %q required unoccupied duration must be positive",
			ErrInvalidProfile, p.Name)
	}
	if p.AlertBefore < 0 || p.AlertBefore >= p.RequiredUnoccupied {
		return fmt.Errorf("%w: profile %q alert lead %s must be shorter than countdown %s",
			ErrInvalidProfile, p.Name, p.AlertBefore, p.RequiredUnoccupied)
	}
	return nil
}

// ValidateList checks every profile in an ordered list.
func ValidateList(profiles []Profile) error {
	if len(profiles) == 0 {
		return fmt.Errorf("%w: profile list is empty", ErrInvalidProfile)
	}
	for _, p := range profiles {
		if err := p.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Matcher evaluates an ordered profile list against bookings.
// It holds no mutable state and is safe for concurrent use.
type Matcher struct {
	profiles []Profile
	log      logger.Logger
}

// Option applies a configuration option to the Matcher.
type Option func(*Matcher)

// WithLogger sets a custom logger for the matcher.
func WithLogger(log logger.Logger) Option {
	return func(m *Matcher) {
		if log != nil {
			m.log = log
		}
	}
}

// NewMatcher creates a Matcher over an ordered profile list. The list is
// copied so later mutation of the caller's slice cannot affect matching.
func NewMatcher(profiles []Profile, opts ...Option) *Matcher {
	m := &Matcher{
		profiles: append([]Profile(nil), profiles...),
	}
	for _, opt := range opts {
		opt(m)
	}

	// A default profile swallows everything after it.
	for i, p := range m.profiles {
		if p.Kind == KindDefault && i != len(m.profiles)-1 {
			m.warnUnreachable(p.Name, len(m.profiles)-1-i)
			break
		}
	}
	return m
}

func (m *Matcher) warnUnreachable(name string, count int) {
	if m.log == nil {
		return
	}
	m.log.Warn(context.Background(), "profiles after a default profile are unreachable",
		logger.String("defaultProfile", name),
		logger.Int("unreachable", count),
	)
}

// Match evaluates profiles in order and returns the first match.
// The second return is false when the list is exhausted without a match,
// which can only happen when no default profile terminates the list.
func (m *Matcher) Match(ctx context.Context, booking model.Booking) (Profile, bool) {
	duration := booking.DurationMinutes()
	for _, p := range m.profiles {
		if !m.matches(ctx, p, duration, booking) {
			continue
		}
		m.debug(ctx, "profile matched",
			logger.String("profile", p.Name),
			logger.String("kind", string(p.Kind)),
			logger.String("bookingID", booking.ID),
		)
		return p, true
	}
	m.debug(ctx, "no profile matched",
		logger.String("bookingID", booking.ID),
		logger.Int("durationMinutes", duration),
	)
	return Profile{}, false
}

func (m *Matcher) matches(ctx context.Context, p Profile, duration int, booking model.Booking) bool {
	switch p.Kind {
	case KindDuration:
		return duration > p.DurationMin && duration <= p.DurationMax
	case KindKeywords:
		for _, kw := range p.Keywords {
			if strings.Contains(booking.Title, kw) {
				return true
			}
		}
		return false
	case KindOrganizers:
		for _, name := range p.Organizers {
			if booking.Organizer == name {
				return true
			}
		}
		return false
	case KindDefault:
		return true
	}
	m.debug(ctx, "skipping profile with unknown kind",
		logger.String("profile", p.Name),
		logger.String("kind", string(p.Kind)),
	)
	return false
}

func (m *Matcher) debug(ctx context.Context, msg string, fields ...logger.Field) {
	if m.log == nil {
		return
	}
	m.log.Debug(ctx, msg, fields...)
}
