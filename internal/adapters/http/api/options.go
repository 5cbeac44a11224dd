package api

import (
	"time"

	"github.com/stefanpalsson415/allietosavetheworld-sub011/pkg/logger"
)

type options struct {
	logger logger.Logger
	now    func() time.Time
}

// Option configures the API server.
type Option func(*options)

// WithLogger sets the logger used for server-side failures.
func WithLogger(l logger.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithClock sets the time used for comparisons that carry no timestamp.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}
