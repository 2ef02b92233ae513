// Package types contains common types used across the application
package types

import "time"

// MonitorInfo is the read shape returned by the status API for one active
// booking monitor.
type MonitorInfo struct {
	BookingID    string     `json:"booking_id"`
	BookingTitle string     `json:"booking_title"`
	Profile      string     `json:"profile"`
	Phase        string     `json:"phase"`
	AlertPending bool       `json:"alert_pending,omitempty"`
	WindowStart  time.Time  `json:"window_start"`
	WindowStop   time.Time  `json:"window_stop"`
	ReleaseAt    *time.Time `json:"release_at,omitempty"` // countdown deadline, set while counting down
}

// ServiceStatus is the read shape returned by the status API for the
// service as a whole.
type ServiceStatus struct {
	Workspace       string    `json:"workspace"`
	DryRun          bool      `json:"dry_run"`
	StartedAt       time.Time `json:"started_at"`
	UptimeSeconds   float64   `json:"uptime_seconds"`
	ActiveMonitors  int       `json:"active_monitors"`
	QueueDepth      int       `json:"queue_depth"`
	HandledBookings int       `json:"handled_bookings"`
	Profiles        []string  `json:"profiles"`
}
