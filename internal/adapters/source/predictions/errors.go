package predictions

import "errors"

// Sentinel kinds for prediction loading errors.
var (
	ErrUnsupportedFormat = errors.New("unsupported predictions format")
	ErrMalformedLine     = errors.New("malformed predictions line")
)
