package service

import "errors"

// Service errors.
var (
	// ErrUnknownDevice indicates the configured device kind is not supported.
	ErrUnknownDevice = errors.New("unknown device kind")
)
