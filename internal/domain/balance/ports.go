package balance

import (
	"context"

	"github.com/stefanpalsson415/allietosavetheworld-sub011/internal/domain/model"
)

// RatingReader loads a family's rating document. Families with no data
// yield an empty document, not an error.
type RatingReader interface {
	Load(ctx context.Context, familyID string) (model.FamilyRatings, error)
}

// PersonLoad is one person's cognitive load counts.
type PersonLoad struct {
	PersonID     string  `json:"personId"`
	Name         string  `json:"name"`
	Anticipation float64 `json:"anticipation"`
	Monitoring   float64 `json:"monitoring"`
	Execution    float64 `json:"execution"`
}

// CognitiveLoadSource reports per-person cognitive load for a family.
type CognitiveLoadSource interface {
	CognitiveLoad(ctx context.Context, familyID string) ([]PersonLoad, error)
}

// HarmonyReading is the family's harmony signal. Available is false until
// harmony monitoring has produced a level.
type HarmonyReading struct {
	Available        bool    `json:"available"`
	Level            float64 `json:"level"`
	StressIndicators int     `json:"stressIndicators"`
	CascadeRisk      string  `json:"cascadeRisk,omitempty"`
	Trend            string  `json:"trend,omitempty"`
}

// HarmonySource reports the family's relationship harmony.
type HarmonySource interface {
	Harmony(ctx context.Context, familyID string) (HarmonyReading, error)
}

// Habit is one habit of the active cycle.
type Habit struct {
	Name            string `json:"name"`
	TargetFrequency int    `json:"targetFrequency"`
	CompletionCount int    `json:"completionCount"`
	Active          bool   `json:"active"`
}

// HabitSource reports the habits of the family's active cycle.
type HabitSource interface {
	ActiveHabits(ctx context.Context, familyID string) ([]Habit, error)
}

// BaselineStore keeps one immutable baseline per family. PutBaseline
// returns ErrBaselineExists when one is already stored.
type BaselineStore interface {
	GetBaseline(ctx context.Context, familyID string) (model.Baseline, bool, error)
	PutBaseline(ctx context.Context, familyID string, b model.Baseline) error
}

// ScoreHistoryStore keeps weekly scores. A second score for the same week
// replaces the first. ListWeeklyScores returns the newest limit entries,
// newest first.
type ScoreHistoryStore interface {
	PutWeeklyScore(ctx context.Context, familyID string, s model.WeeklyScore) error
	ListWeeklyScores(ctx context.Context, familyID string, limit int) ([]model.WeeklyScore, error)
}
