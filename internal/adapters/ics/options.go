// Package ics adapts a calendar ICS feed into a booking source.
package ics

import (
	"net/http"
	"time"

	"github.com/roomward/roomward/pkg/clock"
	"github.com/roomward/roomward/pkg/logger"
)

// Option applies a configuration option to the Source.
type Option func(*Source)

// WithRefreshSchedule sets the cron expression driving feed refreshes.
func WithRefreshSchedule(spec string) Option {
	return func(s *Source) {
		if spec != "" {
			s.refreshSpec = spec
		}
	}
}

// WithLocationFilter keeps only events for the given location.
func WithLocationFilter(location string) Option {
	return func(s *Source) {
		s.location = location
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(s *Source) {
		if client != nil {
			s.client = client
		}
	}
}

// WithFetchTimeout bounds each feed download.
func WithFetchTimeout(timeout time.Duration) Option {
	return func(s *Source) {
		if timeout > 0 {
			s.client.Timeout = timeout
		}
	}
}

// WithClock sets the time source. Defaults to the system clock.
func WithClock(clk clock.Clock) Option {
	return func(s *Source) {
		if clk != nil {
			s.clk = clk
		}
	}
}

// WithLogger sets a custom logger for the source.
func WithLogger(log logger.Logger) Option {
	return func(s *Source) {
		if log != nil {
			s.log = log
		}
	}
}
