// Package dispatch consumes booking events off the queue and drives the
// monitor lifecycle for each booking.
package dispatch

import (
	"github.com/roomward/roomward/internal/monitor"
	"github.com/roomward/roomward/pkg/logger"
)

// Option applies a configuration option to the Dispatcher.
type Option func(*Dispatcher)

// WithLogger sets a custom logger for the dispatcher.
func WithLogger(log logger.Logger) Option {
	return func(d *Dispatcher) {
		if log != nil {
			d.logger = log
		}
	}
}

// WithMonitorOptions sets the options applied to every monitor the
// dispatcher creates.
func WithMonitorOptions(opts ...monitor.Option) Option {
	return func(d *Dispatcher) {
		d.monOpts = append(d.monOpts, opts...)
	}
}
