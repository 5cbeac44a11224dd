// Package service wires the rating engine, stores, ingest queue and balance
// aggregator into the operations the HTTP API exposes.
package service

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strings"
	"sync"
	"time"

	eventqueue "github.com/stefanpalsson415/allietosavetheworld-sub011/internal/adapters/mq/queue"
	workerpool "github.com/stefanpalsson415/allietosavetheworld-sub011/internal/adapters/mq/worker"
	"github.com/stefanpalsson415/allietosavetheworld-sub011/internal/adapters/repository"
	"github.com/stefanpalsson415/allietosavetheworld-sub011/internal/adapters/repository/sqlite"
	"github.com/stefanpalsson415/allietosavetheworld-sub011/internal/adapters/signals"
	"github.com/stefanpalsson415/allietosavetheworld-sub011/internal/domain/balance"
	"github.com/stefanpalsson415/allietosavetheworld-sub011/internal/domain/dedupe"
	"github.com/stefanpalsson415/allietosavetheworld-sub011/internal/domain/imbalance"
	"github.com/stefanpalsson415/allietosavetheworld-sub011/internal/domain/model"
	"github.com/stefanpalsson415/allietosavetheworld-sub011/internal/domain/rating"
	"github.com/stefanpalsson415/allietosavetheworld-sub011/internal/domain/weight"
	"github.com/stefanpalsson415/allietosavetheworld-sub011/pkg/logger"
	"github.com/stefanpalsson415/allietosavetheworld-sub011/pkg/metrics"
)

// Result is the outcome of one synchronous comparison.
type Result struct {
	Duplicate bool               `json:"duplicate"`
	Record    *model.MatchRecord `json:"record,omitempty"`
}

// Rejection describes one comparison of a batch that was not accepted.
type Rejection struct {
	Index   int    `json:"index"`
	EventID string `json:"eventId,omitempty"`
	Reason  string `json:"reason"`
}

// BatchResult summarizes an enqueued batch.
type BatchResult struct {
	Accepted   int         `json:"accepted"`
	Duplicates int         `json:"duplicates"`
	Rejected   []Rejection `json:"rejected,omitempty"`
}

// Service implements the API dependencies of the balance system.
type Service struct {
	mu sync.RWMutex

	store      repository.Store
	deduper    dedupe.Deduper
	eventQueue eventqueue.Queue
	workerPool *workerpool.Pool
	engine     *rating.Engine
	calculator *weight.Calculator
	aggregator *balance.Aggregator
	static     *signals.Static

	workerCount      int
	queueSize        int
	dedupeSize       int
	labels           model.Labels
	sqlitePath       string
	scoreCacheTTL    time.Duration
	scoreCacheSize   int
	signalTimeout    time.Duration
	cognitiveLoadURL string
	harmonyURL       string
	habitsURL        string
	historyLimit     int
	now              func() time.Time

	started bool
	logger  logger.Logger
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount:  runtime.NumCPU(),
		queueSize:    10000,
		dedupeSize:   dedupe.DefaultMaxSize,
		labels:       model.DefaultLabels(),
		historyLimit: balance.DefaultHistoryLimit,
		now:          time.Now,
		logger:       logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start builds and starts the service components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return nil
	}

	s.logger.Info(ctx, "starting balance service...")

	if s.store == nil {
		if strings.TrimSpace(s.sqlitePath) != "" {
			st, err := sqlite.Open(ctx, s.sqlitePath, sqlite.WithLabels(s.labels), sqlite.WithClock(s.now))
			if err != nil {
				return fmt.Errorf("open sqlite store: %w", err)
			}
			s.store = st
			s.logger.Info(ctx, "using sqlite store", logger.String("path", s.sqlitePath))
		} else {
			s.store = repository.NewMemoryStore(ctx, repository.WithLabels(s.labels))
			s.logger.Info(ctx, "using memory store")
		}
	}

	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	s.engine = rating.NewEngine(rating.WithLabels(s.labels), rating.WithClock(s.now))
	s.calculator = weight.NewCalculator()

	aggOpts := []balance.Option{
		balance.WithCacheTTL(s.scoreCacheTTL),
		balance.WithCacheSize(s.scoreCacheSize),
		balance.WithSignalTimeout(s.signalTimeout),
		balance.WithClock(s.now),
		balance.WithLogger(s.logger.Named("balance")),
	}
	sigOpts, err := s.signalOptions()
	if err != nil {
		return err
	}
	agg, err := balance.NewAggregator(s.store, s.store, s.store, append(aggOpts, sigOpts...)...)
	if err != nil {
		return fmt.Errorf("create balance aggregator: %w", err)
	}
	s.aggregator = agg

	s.eventQueue = eventqueue.NewInMemoryQueue(eventqueue.WithCapacity(s.queueSize))
	s.workerPool = workerpool.NewPool(s.workerCount, s.eventQueue, s, workerpool.WithLogger(s.logger))
	s.workerPool.Start(ctx)

	s.started = true
	s.logger.Info(ctx, "balance service started",
		logger.Int("workers", s.workerPool.Size()),
		logger.Int("queueSize", s.queueSize),
		logger.Int("dedupeSize", s.dedupeSize),
	)
	return nil
}

// signalOptions connects each signal to its HTTP service when a URL is set,
// otherwise to the static source when one was given.
func (s *Service) signalOptions() ([]balance.Option, error) {
	client := func(url string) (*signals.Client, error) {
		c, err := signals.NewClient(url,
			signals.WithTimeout(s.signalTimeout),
			signals.WithLogger(s.logger.Named("signals")),
		)
		if err != nil {
			return nil, fmt.Errorf("create signal client %q: %w", url, err)
		}
		return c, nil
	}

	var opts []balance.Option
	switch {
	case s.cognitiveLoadURL != "":
		c, err := client(s.cognitiveLoadURL)
		if err != nil {
			return nil, err
		}
		opts = append(opts, balance.WithCognitiveLoadSource(c))
	case s.static != nil:
		opts = append(opts, balance.WithCognitiveLoadSource(s.static))
	}
	switch {
	case s.harmonyURL != "":
		c, err := client(s.harmonyURL)
		if err != nil {
			return nil, err
		}
		opts = append(opts, balance.WithHarmonySource(c))
	case s.static != nil:
		opts = append(opts, balance.WithHarmonySource(s.static))
	}
	switch {
	case s.habitsURL != "":
		c, err := client(s.habitsURL)
		if err != nil {
			return nil, err
		}
		opts = append(opts, balance.WithHabitSource(c))
	case s.static != nil:
		opts = append(opts, balance.WithHabitSource(s.static))
	}
	return opts, nil
}

// Stop drains the ingest queue and closes the store.
func (s *Service) Stop(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return
	}

	s.logger.Info(ctx, "stopping balance service...")
	if err := s.workerPool.Shutdown(ctx); err != nil {
		s.logger.Warn(ctx, "worker pool did not drain", logger.Error(err))
	}
	if err := s.store.Close(); err != nil {
		s.logger.Error(ctx, "error closing store", logger.Error(err))
	}
	s.started = false
	s.logger.Info(ctx, "balance service stopped")
}

func (s *Service) ready() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return ErrNotStarted
	}
	return nil
}

// Labels returns the competitor labels.
func (s *Service) Labels() model.Labels {
	return s.labels
}

// RecordComparison validates, deduplicates and synchronously applies one
// comparison. A repeated event id is reported as a duplicate and changes
// nothing.
func (s *Service) RecordComparison(ctx context.Context, ev model.ComparisonEvent) (Result, error) { //nolint:gocritic // hugeParam: events are values throughout
	if err := s.ready(); err != nil {
		return Result{}, err
	}
	if err := ev.Validate(); err != nil {
		metrics.RecordComparisonRejected("invalid")
		return Result{}, err
	}
	key := dedupe.Key(ev.FamilyID, ev.EventID)
	if ev.EventID != "" && s.deduper.SeenAndRecord(ctx, key) {
		metrics.RecordComparisonDuplicate()
		return Result{Duplicate: true}, nil
	}

	rec, err := s.apply(ctx, ev)
	if err != nil {
		if ev.EventID != "" {
			s.deduper.Unrecord(ctx, key)
		}
		return Result{}, err
	}
	return Result{Record: rec}, nil
}

// SubmitBatch validates and enqueues comparisons for the worker pool.
// Invalid and duplicate entries are skipped. When the queue fills up the
// rest of the batch is left unrecorded and ErrBackpressure is returned with
// the partial result.
func (s *Service) SubmitBatch(ctx context.Context, events []model.ComparisonEvent) (BatchResult, error) {
	if err := s.ready(); err != nil {
		return BatchResult{}, err
	}
	if len(events) == 0 {
		return BatchResult{}, ErrEmptyBatch
	}

	var res BatchResult
	for i, ev := range events {
		if err := ev.Validate(); err != nil {
			metrics.RecordComparisonRejected("invalid")
			res.Rejected = append(res.Rejected, Rejection{Index: i, EventID: ev.EventID, Reason: err.Error()})
			continue
		}
		key := dedupe.Key(ev.FamilyID, ev.EventID)
		if ev.EventID != "" && s.deduper.SeenAndRecord(ctx, key) {
			metrics.RecordComparisonDuplicate()
			res.Duplicates++
			continue
		}
		if err := s.eventQueue.Enqueue(ctx, ev); err != nil {
			if ev.EventID != "" {
				s.deduper.Unrecord(ctx, key)
			}
			if errors.Is(err, eventqueue.ErrFull) {
				for j := i; j < len(events); j++ {
					res.Rejected = append(res.Rejected, Rejection{Index: j, EventID: events[j].EventID, Reason: "queue full"})
				}
				return res, ErrBackpressure
			}
			return res, fmt.Errorf("enqueue comparison: %w", err)
		}
		res.Accepted++
	}
	return res, nil
}

// ApplyComparison is called by workers for queued comparisons. On failure
// the event id is released so the submission can be retried.
func (s *Service) ApplyComparison(ctx context.Context, ev model.ComparisonEvent) error { //nolint:gocritic // hugeParam: events are values throughout
	if _, err := s.apply(ctx, ev); err != nil {
		if ev.EventID != "" {
			s.deduper.Unrecord(ctx, dedupe.Key(ev.FamilyID, ev.EventID))
		}
		return err
	}
	return nil
}

func (s *Service) apply(ctx context.Context, ev model.ComparisonEvent) (*model.MatchRecord, error) { //nolint:gocritic // hugeParam: events are values throughout
	rec, err := s.store.Update(ctx, ev.FamilyID, func(doc *model.FamilyRatings) (*model.MatchRecord, error) {
		return s.engine.Apply(doc, ev)
	})
	if err != nil {
		if errors.Is(err, repository.ErrPersist) || errors.Is(err, repository.ErrConflict) {
			s.logger.Error(ctx, "failed to persist comparison",
				logger.Family(ev.FamilyID),
				logger.String("event_id", ev.EventID),
				logger.Error(err),
			)
		} else {
			metrics.RecordComparisonRejected("invalid")
		}
		return nil, err
	}

	metrics.RecordComparisonApplied(string(ev.Outcome))
	if ev.Outcome == model.OutcomeNeither {
		metrics.RecordUncoveredResponse()
	}
	s.aggregator.Invalidate(ev.FamilyID)
	s.logger.Debug(ctx, "comparison applied",
		logger.Family(ev.FamilyID),
		logger.String("event_id", ev.EventID),
		logger.String("category", ev.Category),
		logger.String("outcome", string(ev.Outcome)),
	)
	return rec, nil
}

// Ratings returns the family's rating document.
func (s *Service) Ratings(ctx context.Context, familyID string) (model.FamilyRatings, error) {
	if err := s.ready(); err != nil {
		return model.FamilyRatings{}, err
	}
	return s.store.Load(ctx, familyID)
}

// CategoryImbalances returns the imbalance of every rated category.
func (s *Service) CategoryImbalances(ctx context.Context, familyID string) (map[string]imbalance.CategoryImbalance, error) {
	doc, err := s.Ratings(ctx, familyID)
	if err != nil {
		return nil, err
	}
	return imbalance.Categories(doc), nil
}

// TaskImbalances returns task imbalances, optionally for one category.
func (s *Service) TaskImbalances(ctx context.Context, familyID, category string) (map[string]imbalance.TaskImbalance, error) {
	doc, err := s.Ratings(ctx, familyID)
	if err != nil {
		return nil, err
	}
	return imbalance.Tasks(doc, category), nil
}

// Uncovered returns the uncovered-task summary with the top limit tasks.
func (s *Service) Uncovered(ctx context.Context, familyID string, limit int) (imbalance.UncoveredSummary, error) {
	doc, err := s.Ratings(ctx, familyID)
	if err != nil {
		return imbalance.UncoveredSummary{}, err
	}
	return imbalance.Uncovered(doc, limit), nil
}

// Recommendations returns rebalancing suggestions.
func (s *Service) Recommendations(ctx context.Context, familyID string) ([]imbalance.Recommendation, error) {
	doc, err := s.Ratings(ctx, familyID)
	if err != nil {
		return nil, err
	}
	return imbalance.Recommendations(doc), nil
}

// WeightStatistics summarizes the weights of the most recent matches.
func (s *Service) WeightStatistics(ctx context.Context, familyID string) (imbalance.WeightStats, error) {
	if err := s.ready(); err != nil {
		return imbalance.WeightStats{}, err
	}
	history, err := s.store.RecentHistory(ctx, familyID, imbalance.HistoryScanLimit)
	if err != nil {
		return imbalance.WeightStats{}, err
	}
	return imbalance.WeightStatistics(history), nil
}

// MatchHistory returns up to limit match records, newest first.
func (s *Service) MatchHistory(ctx context.Context, familyID string, limit int) ([]model.MatchRecord, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	return s.store.RecentHistory(ctx, familyID, limit)
}

// BalanceScore returns the composite score, recomputing when refresh is set.
func (s *Service) BalanceScore(ctx context.Context, familyID string, refresh bool) (model.BalanceScore, error) {
	if err := s.ready(); err != nil {
		return model.BalanceScore{}, err
	}
	return s.aggregator.Calculate(ctx, familyID, balance.Options{ForceRefresh: refresh})
}

// SaveBaseline stores the family's first score as its baseline.
func (s *Service) SaveBaseline(ctx context.Context, familyID string) (model.Baseline, error) {
	if err := s.ready(); err != nil {
		return model.Baseline{}, err
	}
	return s.aggregator.SaveBaseline(ctx, familyID)
}

// Improvement compares the current score with the baseline.
func (s *Service) Improvement(ctx context.Context, familyID string) (model.Improvement, error) {
	if err := s.ready(); err != nil {
		return model.Improvement{}, err
	}
	return s.aggregator.Improvement(ctx, familyID)
}

// RecordWeeklyScore stores this week's score.
func (s *Service) RecordWeeklyScore(ctx context.Context, familyID string) (model.WeeklyScore, error) {
	if err := s.ready(); err != nil {
		return model.WeeklyScore{}, err
	}
	return s.aggregator.RecordWeeklyScore(ctx, familyID)
}

// ScoreHistory returns weekly scores in chronological order.
func (s *Service) ScoreHistory(ctx context.Context, familyID string, limit int) ([]model.WeeklyScore, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = s.historyLimit
	}
	return s.aggregator.ScoreHistory(ctx, familyID, limit)
}

// ComputeWeight runs the task weight calculator.
func (s *Service) ComputeWeight(task model.TaskDescriptor, p model.FamilyPriorities) (weight.Result, error) {
	if err := s.ready(); err != nil {
		return weight.Result{}, err
	}
	return s.calculator.WeightResult(task, p)
}

// SurveyBalance computes the weighted survey balance.
func (s *Service) SurveyBalance(questions []imbalance.Question, responses map[string]string, p model.FamilyPriorities) (imbalance.SurveyResult, error) {
	if err := s.ready(); err != nil {
		return imbalance.SurveyResult{}, err
	}
	return imbalance.SurveyBalance(questions, responses, p, s.labels, s.calculator), nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]any{
		"started":     s.started,
		"workerCount": s.workerCount,
		"queueSize":   s.queueSize,
		"dedupeSize":  s.dedupeSize,
		"labels":      s.labels,
	}
	if s.started {
		ctx := context.Background()
		families := s.store.Count(ctx)
		stats["queueLength"] = s.eventQueue.Len()
		stats["families"] = families
		stats["seenEvents"] = s.deduper.Size()
		stats["cachedScores"] = s.aggregator.CacheLen()

		metrics.UpdateFamiliesActive(families)
		metrics.UpdateQueue(s.eventQueue.Len(), s.eventQueue.Capacity())
	}
	return stats
}
