// Package config defines service configuration structures and loading hooks.
//
// Conventions:
//   - Provide New() to build a Config with defaults; Load layers file and env.
//   - Durations in config are expressed in minutes, matching how booking
//     policies are written by operators.
//   - External errors must be wrapped via this package's error helpers.
package config

import (
	"fmt"
	"time"

	"github.com/roomward/roomward/internal/domain/profile"
)

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// Workspace names the room this instance watches. Used in audit
	// reports and the status API.
	Workspace string `koanf:"workspace"`

	// DryRun suppresses real decline requests. Monitoring, alerts, and
	// audit reporting still run.
	DryRun bool `koanf:"dry_run"`

	// QueueSize bounds the in-memory booking event queue.
	QueueSize int `koanf:"queue_size"`

	// HandledCacheSize bounds the handled-booking cache.
	HandledCacheSize int `koanf:"handled_cache_size"`

	// HistorySize bounds the recent-action record served by the API.
	HistorySize int `koanf:"history_size"`

	// SignalReadTimeoutMS bounds each presence signal read.
	SignalReadTimeoutMS int `koanf:"signal_read_timeout_ms"`

	// Signals lists the presence signals to aggregate.
	Signals []string `koanf:"signals"`

	// UIInteraction treats device UI activity as presence.
	UIInteraction bool `koanf:"ui_interaction"`

	// PresenceAndPeopleCount requires people count to agree with the
	// presence signals. Reserved: accepted but not yet applied.
	PresenceAndPeopleCount bool `koanf:"presence_and_people_count"`

	// Profiles configures booking release policies, evaluated in order.
	Profiles []ProfileConfig `koanf:"profiles"`

	// Audit configures the external audit endpoint.
	Audit AuditConfig `koanf:"audit"`

	// Feed configures the ICS calendar feed.
	Feed FeedConfig `koanf:"feed"`

	// Device selects the device backend: "sim" is the only built-in.
	Device string `koanf:"device"`
}

// ProfileConfig is the on-disk shape of one release profile. Durations are
// minutes.
type ProfileConfig struct {
	Name                 string   `koanf:"name"`
	Kind                 string   `koanf:"kind"` // duration, keywords, organizers, default
	DurationMinMinutes   int      `koanf:"duration_min_minutes"`
	DurationMaxMinutes   int      `koanf:"duration_max_minutes"`
	Keywords             []string `koanf:"keywords"`
	Organizers           []string `koanf:"organizers"`
	Monitor              bool     `koanf:"monitor"`
	StartAfterMinutes    int      `koanf:"start_after_minutes"`
	StopAfterMinutes     int      `koanf:"stop_after_minutes"`
	RequiredEmptyMinutes int      `koanf:"required_empty_minutes"`
	AlertBeforeMinutes   int      `koanf:"alert_before_minutes"`
}

// AuditConfig configures delivery of release actions.
type AuditConfig struct {
	URL       string `koanf:"url"`
	Mode      string `koanf:"mode"` // webhook or chat
	Token     string `koanf:"token"`
	Recipient string `koanf:"recipient"`
}

// FeedConfig configures the ICS calendar feed.
type FeedConfig struct {
	URL             string `koanf:"url"`
	RefreshSchedule string `koanf:"refresh_schedule"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:            "info",
		Addr:                ":9080",
		Workspace:           "workspace",
		QueueSize:           1024,
		HandledCacheSize:    10_000,
		HistorySize:         200,
		SignalReadTimeoutMS: 3000,
		Signals: []string{
			"active_call",
			"mtr_call",
			"presentation",
			"people_count",
			"people_presence",
		},
		UIInteraction: true,
		Profiles: []ProfileConfig{
			{
				Name:                 "Short Meetings",
				Kind:                 "duration",
				DurationMinMinutes:   0,
				DurationMaxMinutes:   60,
				Monitor:              true,
				StartAfterMinutes:    5,
				StopAfterMinutes:     30,
				RequiredEmptyMinutes: 5,
				AlertBeforeMinutes:   1,
			},
			{
				Name:    "Everything Else",
				Kind:    "default",
				Monitor: false,
			},
		},
		Audit:  AuditConfig{Mode: "webhook"},
		Feed:   FeedConfig{RefreshSchedule: "*/5 * * * *"},
		Device: "sim",
	}
}

// BuildProfiles converts the configured profiles to domain profiles and
// validates the list.
func (c *Config) BuildProfiles() ([]profile.Profile, error) {
	profiles := make([]profile.Profile, 0, len(c.Profiles))
	for _, pc := range c.Profiles {
		profiles = append(profiles, profile.Profile{
			Name:               pc.Name,
			Kind:               profile.Kind(pc.Kind),
			DurationMin:        pc.DurationMinMinutes,
			DurationMax:        pc.DurationMaxMinutes,
			Keywords:           append([]string(nil), pc.Keywords...),
			Organizers:         append([]string(nil), pc.Organizers...),
			Monitor:            pc.Monitor,
			StartAfter:         time.Duration(pc.StartAfterMinutes) * time.Minute,
			StopAfter:          time.Duration(pc.StopAfterMinutes) * time.Minute,
			RequiredUnoccupied: time.Duration(pc.RequiredEmptyMinutes) * time.Minute,
			AlertBefore:        time.Duration(pc.AlertBeforeMinutes) * time.Minute,
		})
	}
	if err := profile.ValidateList(profiles); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return profiles, nil
}

// SignalReadTimeout returns the per-read timeout as a duration.
func (c *Config) SignalReadTimeout() time.Duration {
	return time.Duration(c.SignalReadTimeoutMS) * time.Millisecond
}
