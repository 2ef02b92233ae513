package audit

import "errors"

// Sentinel kinds for delivery errors.
var (
	ErrDelivery = errors.New("audit delivery failed")
)
