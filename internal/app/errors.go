package service

import "errors"

// Sentinel kinds for service errors.
var (
	ErrNotStarted   = errors.New("service not started")
	ErrBackpressure = errors.New("ingest queue is full")
	ErrEmptyBatch   = errors.New("batch contains no comparisons")
)
