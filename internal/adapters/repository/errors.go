package repository

import "errors"

// Sentinel kinds for report store errors.
var (
	ErrNoSnapshot         = errors.New("no report published yet")
	ErrNotFound           = errors.New("participant not found")
	ErrInvalidLimit       = errors.New("invalid leaderboard limit")
	ErrScoringUnavailable = errors.New("scoring unavailable for the current report")
)
