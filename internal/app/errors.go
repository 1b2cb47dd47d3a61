package service

import "errors"

// Sentinel kinds for service errors.
var (
	ErrNotStarted       = errors.New("service not started")
	ErrNotReady         = errors.New("report not computed yet")
	ErrBackpressure     = errors.New("refresh queue full")
	ErrDuplicateRequest = errors.New("refresh request already accepted")
	ErrMissingSource    = errors.New("prediction and standings sources are required")
	ErrUnknownTiePolicy = errors.New("unknown tie break policy")
)
