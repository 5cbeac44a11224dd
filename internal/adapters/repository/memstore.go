package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/stefanpalsson415/allietosavetheworld-sub011/internal/domain/model"
	"github.com/stefanpalsson415/allietosavetheworld-sub011/pkg/metrics"
)

const (
	defaultHistoryCap            = 1000
	defaultMetricsUpdateInterval = 5 * time.Second
)

// family holds everything stored for one family. mu serializes writers of
// that family only.
type family struct {
	mu       sync.Mutex
	doc      model.FamilyRatings
	history  []model.MatchRecord // oldest first
	baseline *model.Baseline
	weekly   []model.WeeklyScore // ordered by WeekID
}

// MemoryStore is an in-memory Store. Different families update in parallel.
type MemoryStore struct {
	mu       sync.RWMutex
	families map[string]*family

	labels                model.Labels
	historyCap            int
	metricsUpdateInterval time.Duration

	wg       sync.WaitGroup
	stopChan chan struct{}
	stopOnce sync.Once
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore constructs a memory store and starts its metrics updater,
// which stops on Close or when ctx is done.
func NewMemoryStore(ctx context.Context, opts ...Option) *MemoryStore {
	s := &MemoryStore{
		families:              make(map[string]*family),
		labels:                model.DefaultLabels(),
		historyCap:            defaultHistoryCap,
		metricsUpdateInterval: defaultMetricsUpdateInterval,
		stopChan:              make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.startMetricsUpdater(ctx)
	return s
}

func (s *MemoryStore) get(familyID string) (*family, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	f, ok := s.families[familyID]
	return f, ok
}

func (s *MemoryStore) getOrCreate(familyID string) *family {
	if f, ok := s.get(familyID); ok {
		return f
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if f, ok := s.families[familyID]; ok {
		return f
	}
	f := &family{doc: model.NewFamilyRatings(familyID, s.labels)}
	s.families[familyID] = f
	return f
}

// Load returns a copy of the family document.
func (s *MemoryStore) Load(_ context.Context, familyID string) (model.FamilyRatings, error) {
	if strings.TrimSpace(familyID) == "" {
		return model.FamilyRatings{}, ErrMissingFamilyID
	}
	f, ok := s.get(familyID)
	if !ok {
		return model.NewFamilyRatings(familyID, s.labels), nil
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.doc.Clone(), nil
}

// Update applies fn under the family lock and commits only on success.
func (s *MemoryStore) Update(ctx context.Context, familyID string, fn UpdateFunc) (*model.MatchRecord, error) {
	if strings.TrimSpace(familyID) == "" {
		return nil, ErrMissingFamilyID
	}
	start := time.Now()
	defer func() {
		metrics.RecordRatingUpdateLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f := s.getOrCreate(familyID)
	f.mu.Lock()
	defer f.mu.Unlock()

	work := f.doc.Clone()
	rec, err := fn(&work)
	if err != nil {
		return nil, err
	}
	work.FamilyID = familyID
	work.Version = f.doc.Version + 1
	f.doc = work

	if rec != nil {
		f.history = append(f.history, *rec)
		if over := len(f.history) - s.historyCap; over > 0 {
			f.history = append(f.history[:0:0], f.history[over:]...)
		}
	}
	return rec, nil
}

// RecentHistory returns up to limit records, newest first.
func (s *MemoryStore) RecentHistory(_ context.Context, familyID string, limit int) ([]model.MatchRecord, error) {
	if limit <= 0 {
		return nil, ErrInvalidLimit
	}
	f, ok := s.get(familyID)
	if !ok {
		return []model.MatchRecord{}, nil
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	n := min(limit, len(f.history))
	out := make([]model.MatchRecord, 0, n)
	for i := len(f.history) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, f.history[i])
	}
	return out, nil
}

// GetBaseline returns the family's baseline if one was saved.
func (s *MemoryStore) GetBaseline(_ context.Context, familyID string) (model.Baseline, bool, error) {
	f, ok := s.get(familyID)
	if !ok {
		return model.Baseline{}, false, nil
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.baseline == nil {
		return model.Baseline{}, false, nil
	}
	return *f.baseline, true, nil
}

// PutBaseline stores b unless a baseline already exists.
func (s *MemoryStore) PutBaseline(_ context.Context, familyID string, b model.Baseline) error {
	if strings.TrimSpace(familyID) == "" {
		return ErrMissingFamilyID
	}
	f := s.getOrCreate(familyID)
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.baseline != nil {
		return ErrBaselineExists
	}
	f.baseline = &b
	return nil
}

// PutWeeklyScore stores ws, replacing an entry of the same week.
func (s *MemoryStore) PutWeeklyScore(_ context.Context, familyID string, ws model.WeeklyScore) error {
	if strings.TrimSpace(familyID) == "" {
		return ErrMissingFamilyID
	}
	f := s.getOrCreate(familyID)
	f.mu.Lock()
	defer f.mu.Unlock()
	i := sort.Search(len(f.weekly), func(i int) bool { return f.weekly[i].WeekID >= ws.WeekID })
	if i < len(f.weekly) && f.weekly[i].WeekID == ws.WeekID {
		f.weekly[i] = ws
		return nil
	}
	f.weekly = append(f.weekly, model.WeeklyScore{})
	copy(f.weekly[i+1:], f.weekly[i:])
	f.weekly[i] = ws
	return nil
}

// ListWeeklyScores returns up to limit weekly scores, newest week first.
func (s *MemoryStore) ListWeeklyScores(_ context.Context, familyID string, limit int) ([]model.WeeklyScore, error) {
	if limit <= 0 {
		return nil, ErrInvalidLimit
	}
	f, ok := s.get(familyID)
	if !ok {
		return []model.WeeklyScore{}, nil
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.WeeklyScore, 0, min(limit, len(f.weekly)))
	for i := len(f.weekly) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, f.weekly[i])
	}
	return out, nil
}

// Count returns the number of families tracked.
func (s *MemoryStore) Count(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.families)
}

// Close stops the background metrics updater.
func (s *MemoryStore) Close() error {
	s.stopOnce.Do(func() { close(s.stopChan) })
	s.wg.Wait()
	return nil
}

// startMetricsUpdater periodically publishes the number of active families.
func (s *MemoryStore) startMetricsUpdater(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.metricsUpdateInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stopChan:
				return
			case <-ticker.C:
				metrics.UpdateFamiliesActive(s.Count(ctx))
			}
		}
	}()
}
