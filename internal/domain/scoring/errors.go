package scoring

import "errors"

// Sentinel kinds for scoring errors. Both mean scoring is unavailable for the
// run; consensus and insights are still computed.
var (
	ErrEmptyReference      = errors.New("no reference order available")
	ErrDegenerateItemCount = errors.New("reference needs at least two items to score")
)
