package signals

import "errors"

// Sentinel kinds for signal client errors.
var (
	ErrMissingBaseURL = errors.New("signal base url is required")
	ErrUpstream       = errors.New("signal service returned an error")
	ErrDecode         = errors.New("decode signal response")
)
