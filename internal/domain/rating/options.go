package rating

import (
	"time"

	"github.com/stefanpalsson415/allietosavetheworld-sub011/internal/domain/model"
)

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithLabels sets the competitor labels written into new ratings.
func WithLabels(l model.Labels) Option {
	return func(e *Engine) {
		if l.A != "" && l.B != "" && l.A != l.B {
			e.labels = l
		}
	}
}

// WithClock overrides the time source used for LastUpdated.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}
