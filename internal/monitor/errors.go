package monitor

import (
	"errors"
)

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	ErrBookingNotFound = errors.New("booking not found")
	ErrReleaseFailed   = errors.New("release failed")
	ErrAlreadyStarted  = errors.New("monitor already started")
)
