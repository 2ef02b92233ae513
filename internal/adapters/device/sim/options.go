// Package sim provides an in-process stand-in for a room device and its
// calendar.
package sim

import (
	"github.com/roomward/roomward/pkg/clock"
	"github.com/roomward/roomward/pkg/logger"
)

// DeviceOption applies a configuration option to the Device.
type DeviceOption func(*Device)

// WithDeviceLogger sets a custom logger for the device.
func WithDeviceLogger(log logger.Logger) DeviceOption {
	return func(d *Device) {
		if log != nil {
			d.log = log
		}
	}
}

// SourceOption applies a configuration option to the Source.
type SourceOption func(*Source)

// WithSourceClock sets the time source used for event timestamps.
func WithSourceClock(clk clock.Clock) SourceOption {
	return func(s *Source) {
		if clk != nil {
			s.clk = clk
		}
	}
}
