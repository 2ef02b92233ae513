// Package audit delivers release actions to an external review endpoint
// over HTTP.
package audit

import (
	"net/http"
	"time"

	"github.com/roomward/roomward/pkg/logger"
)

// Option applies a configuration option to the Sink.
type Option func(*Sink)

// WithMode selects the payload shape.
func WithMode(mode Mode) Option {
	return func(s *Sink) {
		if mode == ModeWebhook || mode == ModeChat {
			s.mode = mode
		}
	}
}

// WithToken sets the bearer token attached to every request.
func WithToken(token string) Option {
	return func(s *Sink) {
		s.token = token
	}
}

// WithRecipient sets the chat recipient used in chat mode.
func WithRecipient(recipient string) Option {
	return func(s *Sink) {
		s.recipient = recipient
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(s *Sink) {
		if client != nil {
			s.client = client
		}
	}
}

// WithTimeout bounds each delivery request.
func WithTimeout(timeout time.Duration) Option {
	return func(s *Sink) {
		if timeout > 0 {
			s.client.Timeout = timeout
		}
	}
}

// WithLogger sets a custom logger for the sink.
func WithLogger(log logger.Logger) Option {
	return func(s *Sink) {
		if log != nil {
			s.log = log
		}
	}
}
