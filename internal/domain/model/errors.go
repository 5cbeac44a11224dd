package model

import "errors"

// Sentinel errors for domain model validation.
var (
	ErrInvalidEvent       = errors.New("invalid comparison event")
	ErrUnsupportedOutcome = errors.New("unsupported outcome")
	ErrBaselineExists     = errors.New("baseline already saved")
)
