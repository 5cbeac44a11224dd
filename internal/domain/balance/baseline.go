package balance

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/stefanpalsson415/allietosavetheworld-sub011/internal/domain/model"
	"github.com/stefanpalsson415/allietosavetheworld-sub011/pkg/logger"
	"github.com/stefanpalsson415/allietosavetheworld-sub011/pkg/metrics"
)

// MaxCharge caps the monthly improvement charge.
const MaxCharge = 50

// DefaultHistoryLimit is the number of weekly scores returned by default.
const DefaultHistoryLimit = 12

const noBaselineMessage = "First month free - establishing baseline!"

// EstimatedCharge converts an improvement in points to the billable charge:
// zero for no improvement, one per point, capped at MaxCharge.
func EstimatedCharge(improvement int) int {
	return min(MaxCharge, max(0, improvement))
}

// SaveBaseline computes a fresh score and stores it as the family's
// baseline. It fails with ErrBaselineExists when a baseline is already saved.
func (a *Aggregator) SaveBaseline(ctx context.Context, familyID string) (model.Baseline, error) {
	if strings.TrimSpace(familyID) == "" {
		return model.Baseline{}, ErrMissingFamilyID
	}
	if _, ok, err := a.baselines.GetBaseline(ctx, familyID); err != nil {
		return model.Baseline{}, fmt.Errorf("read baseline: %w", err)
	} else if ok {
		return model.Baseline{}, ErrBaselineExists
	}

	score, err := a.Calculate(ctx, familyID, Options{ForceRefresh: true})
	if err != nil {
		return model.Baseline{}, err
	}
	b := model.Baseline{Score: score, SavedAt: a.now()}
	if err := a.baselines.PutBaseline(ctx, familyID, b); err != nil {
		if errors.Is(err, ErrBaselineExists) {
			return model.Baseline{}, ErrBaselineExists
		}
		return model.Baseline{}, fmt.Errorf("write baseline: %w", err)
	}

	metrics.RecordBaselineSaved()
	a.logger.Info(ctx, "baseline saved", logger.Family(familyID), logger.Int("total", score.TotalScore))
	return b, nil
}

// Improvement compares the current score with the baseline. Without a
// baseline HasBaseline is false and no score is computed.
func (a *Aggregator) Improvement(ctx context.Context, familyID string) (model.Improvement, error) {
	if strings.TrimSpace(familyID) == "" {
		return model.Improvement{}, ErrMissingFamilyID
	}
	b, ok, err := a.baselines.GetBaseline(ctx, familyID)
	if err != nil {
		return model.Improvement{}, fmt.Errorf("read baseline: %w", err)
	}
	if !ok {
		return model.Improvement{HasBaseline: false, Message: noBaselineMessage}, nil
	}

	current, err := a.Calculate(ctx, familyID, Options{})
	if err != nil {
		return model.Improvement{}, err
	}

	base := b.Score.TotalScore
	delta := current.TotalScore - base
	pct := 0
	if base > 0 {
		pct = int(math.Round(float64(delta) / float64(base) * 100))
	}
	start := b.Score.Timestamp
	if start.IsZero() {
		start = b.SavedAt
	}
	days := int(math.Floor(a.now().Sub(start).Hours() / 24))

	return model.Improvement{
		HasBaseline:           true,
		Baseline:              base,
		Current:               current.TotalScore,
		Improvement:           delta,
		ImprovementPercentage: pct,
		StartDate:             &start,
		DaysTracking:          max(0, days),
		EstimatedCharge:       EstimatedCharge(delta),
	}, nil
}

// RecordWeeklyScore computes a fresh score and stores it under the current
// ISO week, replacing any earlier score for that week.
func (a *Aggregator) RecordWeeklyScore(ctx context.Context, familyID string) (model.WeeklyScore, error) {
	score, err := a.Calculate(ctx, familyID, Options{ForceRefresh: true})
	if err != nil {
		return model.WeeklyScore{}, err
	}
	now := a.now()
	ws := model.WeeklyScore{WeekID: model.WeekID(now), Score: score, RecordedAt: now}
	if err := a.history.PutWeeklyScore(ctx, familyID, ws); err != nil {
		return model.WeeklyScore{}, fmt.Errorf("write weekly score: %w", err)
	}
	return ws, nil
}

// ScoreHistory returns up to limit weekly scores in chronological order.
func (a *Aggregator) ScoreHistory(ctx context.Context, familyID string, limit int) ([]model.WeeklyScore, error) {
	if strings.TrimSpace(familyID) == "" {
		return nil, ErrMissingFamilyID
	}
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	scores, err := a.history.ListWeeklyScores(ctx, familyID, limit)
	if err != nil {
		return nil, fmt.Errorf("read score history: %w", err)
	}
	out := make([]model.WeeklyScore, len(scores))
	for i, s := range scores {
		out[len(scores)-1-i] = s
	}
	return out, nil
}

// CacheLen returns the number of cached family scores.
func (a *Aggregator) CacheLen() int {
	return a.cache.Len()
}
