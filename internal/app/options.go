package service

import (
	"time"

	"github.com/stefanpalsson415/allietosavetheworld-sub011/internal/adapters/repository"
	"github.com/stefanpalsson415/allietosavetheworld-sub011/internal/adapters/signals"
	"github.com/stefanpalsson415/allietosavetheworld-sub011/internal/domain/model"
	"github.com/stefanpalsson415/allietosavetheworld-sub011/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of worker goroutines.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the maximum size of the ingest queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets the size of the event id cache.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithLabels sets the competitor labels.
func WithLabels(l model.Labels) Option {
	return func(s *Service) {
		if l.A != "" && l.B != "" && l.A != l.B {
			s.labels = l
		}
	}
}

// WithStore injects a ready store. It takes precedence over WithSQLitePath.
func WithStore(st repository.Store) Option {
	return func(s *Service) {
		if st != nil {
			s.store = st
		}
	}
}

// WithSQLitePath selects the SQLite store at path. Without it family state
// lives in memory.
func WithSQLitePath(path string) Option {
	return func(s *Service) {
		s.sqlitePath = path
	}
}

// WithScoreCache sets the balance score cache TTL and size.
func WithScoreCache(ttl time.Duration, size int) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.scoreCacheTTL = ttl
		}
		if size > 0 {
			s.scoreCacheSize = size
		}
	}
}

// WithSignalTimeout bounds every signal fetch.
func WithSignalTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.signalTimeout = d
		}
	}
}

// WithSignalURLs points the balance score at the cognitive load, harmony
// and habit services. Empty URLs leave that signal unconnected.
func WithSignalURLs(cognitiveLoad, harmony, habits string) Option {
	return func(s *Service) {
		s.cognitiveLoadURL = cognitiveLoad
		s.harmonyURL = harmony
		s.habitsURL = habits
	}
}

// WithStaticSignals serves every signal without a URL from src.
func WithStaticSignals(src *signals.Static) Option {
	return func(s *Service) {
		s.static = src
	}
}

// WithHistoryLimit sets the default number of weekly scores returned.
func WithHistoryLimit(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.historyLimit = n
		}
	}
}

// WithClock overrides the time source of the engine and aggregator.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}
