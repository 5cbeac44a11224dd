package balance

import (
	"time"

	"github.com/stefanpalsson415/allietosavetheworld-sub011/pkg/logger"
)

// Option applies a configuration option to the Aggregator.
type Option func(*Aggregator)

// WithCognitiveLoadSource sets the mental load signal.
func WithCognitiveLoadSource(s CognitiveLoadSource) Option {
	return func(a *Aggregator) { a.cognitive = s }
}

// WithHarmonySource sets the harmony signal.
func WithHarmonySource(s HarmonySource) Option {
	return func(a *Aggregator) { a.harmony = s }
}

// WithHabitSource sets the habit cycle signal.
func WithHabitSource(s HabitSource) Option {
	return func(a *Aggregator) { a.habits = s }
}

// WithWeights overrides the sub-score weights. Invalid weights are reported
// by NewAggregator.
func WithWeights(w Weights) Option {
	return func(a *Aggregator) { a.weights = w }
}

// WithCacheTTL sets how long a computed score is served from cache.
func WithCacheTTL(ttl time.Duration) Option {
	return func(a *Aggregator) {
		if ttl > 0 {
			a.cacheTTL = ttl
		}
	}
}

// WithCacheSize bounds the number of families kept in the score cache.
func WithCacheSize(n int) Option {
	return func(a *Aggregator) {
		if n > 0 {
			a.cacheSize = n
		}
	}
}

// WithSignalTimeout bounds every sub-score fetch.
func WithSignalTimeout(d time.Duration) Option {
	return func(a *Aggregator) {
		if d > 0 {
			a.signalTimeout = d
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(a *Aggregator) {
		if now != nil {
			a.now = now
		}
	}
}

// WithLogger sets a custom logger for the aggregator.
func WithLogger(l logger.Logger) Option {
	return func(a *Aggregator) {
		if l != nil {
			a.logger = l
		}
	}
}
