package repository

import (
	"time"

	"github.com/stefanpalsson415/allietosavetheworld-sub011/internal/domain/model"
)

// Option applies a configuration option to the MemoryStore.
type Option func(*MemoryStore)

// WithMetricsUpdateInterval sets the interval for background metrics updates.
func WithMetricsUpdateInterval(interval time.Duration) Option {
	return func(s *MemoryStore) {
		if interval > 0 {
			s.metricsUpdateInterval = interval
		}
	}
}

// WithLabels sets the competitor labels used for new family documents.
func WithLabels(l model.Labels) Option {
	return func(s *MemoryStore) {
		if l.A != "" && l.B != "" {
			s.labels = l
		}
	}
}

// WithHistoryCap bounds the match records kept per family.
func WithHistoryCap(n int) Option {
	return func(s *MemoryStore) {
		if n > 0 {
			s.historyCap = n
		}
	}
}
