package standings

import "errors"

// Sentinel kinds for standings errors.
var (
	ErrUpstreamStatus = errors.New("standings feed returned non-2xx status")
	ErrDecode         = errors.New("standings feed could not be decoded")
)
