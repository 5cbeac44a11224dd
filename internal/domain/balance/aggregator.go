// Package balance combines four independently computed sub-scores into the
// 0-100 family balance score and tracks baseline and improvement.
package balance

import (
	"context"
	"fmt"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/stefanpalsson415/allietosavetheworld-sub011/internal/domain/model"
	"github.com/stefanpalsson415/allietosavetheworld-sub011/pkg/logger"
	"github.com/stefanpalsson415/allietosavetheworld-sub011/pkg/metrics"
)

const (
	defaultCacheTTL      = 5 * time.Minute
	defaultCacheSize     = 1024
	defaultSignalTimeout = 2 * time.Second
)

// Options tune a single Calculate call.
type Options struct {
	// ForceRefresh skips the cache read. The fresh result is still cached.
	ForceRefresh bool
}

type cacheEntry struct {
	score    model.BalanceScore
	storedAt time.Time
}

// Aggregator computes balance scores. All collaborators are injected so
// tests can substitute fakes.
type Aggregator struct {
	ratings   RatingReader
	baselines BaselineStore
	history   ScoreHistoryStore
	cognitive CognitiveLoadSource
	harmony   HarmonySource
	habits    HabitSource

	weights       Weights
	cacheTTL      time.Duration
	cacheSize     int
	signalTimeout time.Duration
	now           func() time.Time
	logger        logger.Logger

	cache *lru.Cache[string, cacheEntry]
	group singleflight.Group
}

// NewAggregator creates an Aggregator. Signal sources are optional; a
// missing source yields that sub-score's neutral default.
func NewAggregator(ratings RatingReader, baselines BaselineStore, history ScoreHistoryStore, opts ...Option) (*Aggregator, error) {
	if ratings == nil {
		return nil, ErrNilRatingReader
	}
	if baselines == nil || history == nil {
		return nil, ErrNilStore
	}
	a := &Aggregator{
		ratings:       ratings,
		baselines:     baselines,
		history:       history,
		weights:       DefaultWeights(),
		cacheTTL:      defaultCacheTTL,
		cacheSize:     defaultCacheSize,
		signalTimeout: defaultSignalTimeout,
		now:           time.Now,
		logger:        logger.Nop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	if err := a.weights.Validate(); err != nil {
		return nil, err
	}
	cache, err := lru.New[string, cacheEntry](a.cacheSize)
	if err != nil {
		return nil, fmt.Errorf("create score cache: %w", err)
	}
	a.cache = cache
	return a, nil
}

// Calculate returns the family's balance score, from cache when a fresh
// entry exists. Concurrent misses for one family share a single computation.
func (a *Aggregator) Calculate(ctx context.Context, familyID string, opts Options) (model.BalanceScore, error) {
	if strings.TrimSpace(familyID) == "" {
		return model.BalanceScore{}, ErrMissingFamilyID
	}
	if !opts.ForceRefresh {
		if s, ok := a.cached(familyID); ok {
			metrics.RecordScoreCache("hit")
			return s, nil
		}
		metrics.RecordScoreCache("miss")
	}

	// The computation is shared and cached, so it must not inherit the
	// cancellation of whichever caller started it. Each signal fetch is
	// still bounded by the signal timeout.
	shared := context.WithoutCancel(ctx)
	v, err, _ := a.group.Do(familyID, func() (any, error) {
		s := a.compute(shared, familyID)
		a.cache.Add(familyID, cacheEntry{score: s, storedAt: a.now()})
		return s, nil
	})
	if err != nil {
		return model.BalanceScore{}, err
	}
	return v.(model.BalanceScore), nil
}

// Invalidate drops the cached score of a family.
func (a *Aggregator) Invalidate(familyID string) {
	a.cache.Remove(familyID)
}

func (a *Aggregator) cached(familyID string) (model.BalanceScore, bool) {
	entry, ok := a.cache.Get(familyID)
	if !ok {
		return model.BalanceScore{}, false
	}
	if a.now().Sub(entry.storedAt) >= a.cacheTTL {
		return model.BalanceScore{}, false
	}
	return entry.score, true
}

// compute fetches the four sub-scores in parallel. Each fetch is bounded by
// the signal timeout and falls back to its neutral default on failure, so
// compute always produces a score.
func (a *Aggregator) compute(ctx context.Context, familyID string) model.BalanceScore {
	start := a.now()
	var mental, tasks, harm, habits component

	var g errgroup.Group
	g.Go(func() error {
		mental = a.fetchMentalLoad(ctx, familyID)
		return nil
	})
	g.Go(func() error {
		tasks = a.fetchTaskDistribution(ctx, familyID)
		return nil
	})
	g.Go(func() error {
		harm = a.fetchHarmony(ctx, familyID)
		return nil
	})
	g.Go(func() error {
		habits = a.fetchHabits(ctx, familyID)
		return nil
	})
	_ = g.Wait()

	total := Total(mental.score, tasks.score, harm.score, habits.score, a.weights)
	interp, celebration := Interpret(total)
	score := model.BalanceScore{
		FamilyID:   familyID,
		TotalScore: total,
		Breakdown: model.Breakdown{
			MentalLoad:          subScore(mental, a.weights.MentalLoad),
			TaskDistribution:    subScore(tasks, a.weights.TaskDistribution),
			RelationshipHarmony: subScore(harm, a.weights.RelationshipHarmony),
			HabitConsistency:    subScore(habits, a.weights.HabitConsistency),
		},
		Timestamp:        a.now(),
		Interpretation:   interp,
		CelebrationLevel: celebration,
		CacheTTL:         a.cacheTTL.Milliseconds(),
	}

	metrics.RecordScoreCalculation(interp.Level, float64(a.now().Sub(start).Microseconds())/1000)
	a.logger.Debug(ctx, "balance score computed",
		logger.Family(familyID),
		logger.Int("total", total),
		logger.String("level", interp.Level),
	)
	return score
}

func (a *Aggregator) fetchMentalLoad(ctx context.Context, familyID string) component {
	if a.cognitive == nil {
		return noData(DefaultMentalLoad, "Cognitive load analysis not connected")
	}
	ctx, cancel := context.WithTimeout(ctx, a.signalTimeout)
	defer cancel()
	people, err := a.cognitive.CognitiveLoad(ctx, familyID)
	if err != nil {
		a.fallback(ctx, familyID, "mental_load", err)
		return failed(DefaultMentalLoad, err)
	}
	return mentalLoad(people)
}

func (a *Aggregator) fetchTaskDistribution(ctx context.Context, familyID string) component {
	ctx, cancel := context.WithTimeout(ctx, a.signalTimeout)
	defer cancel()
	doc, err := a.ratings.Load(ctx, familyID)
	if err != nil {
		a.fallback(ctx, familyID, "task_distribution", err)
		return failed(DefaultTaskDistribution, err)
	}
	return taskDistribution(doc)
}

func (a *Aggregator) fetchHarmony(ctx context.Context, familyID string) component {
	if a.harmony == nil {
		return noData(DefaultHarmony, "Harmony monitoring not yet started")
	}
	ctx, cancel := context.WithTimeout(ctx, a.signalTimeout)
	defer cancel()
	h, err := a.harmony.Harmony(ctx, familyID)
	if err != nil {
		a.fallback(ctx, familyID, "harmony", err)
		return failed(DefaultHarmony, err)
	}
	return harmony(h)
}

func (a *Aggregator) fetchHabits(ctx context.Context, familyID string) component {
	if a.habits == nil {
		return noData(DefaultHabits, "No habits tracked yet")
	}
	ctx, cancel := context.WithTimeout(ctx, a.signalTimeout)
	defer cancel()
	habits, err := a.habits.ActiveHabits(ctx, familyID)
	if err != nil {
		a.fallback(ctx, familyID, "habits", err)
		return failed(DefaultHabits, err)
	}
	return habitConsistency(habits)
}

func (a *Aggregator) fallback(ctx context.Context, familyID, component string, err error) {
	cause := "error"
	if ctx.Err() != nil {
		cause = "timeout"
	}
	metrics.RecordSubScoreFallback(component, cause)
	a.logger.Warn(ctx, "sub-score fell back to default",
		logger.Family(familyID),
		logger.String("component", component),
		logger.String("cause", cause),
		logger.Error(err),
	)
}
