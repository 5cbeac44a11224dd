// Package model contains domain models passed between layers.
package model

import (
	"fmt"
	"strings"
	"time"
)

// Outcome is the normalized answer to one comparison question.
type Outcome string

// Outcomes. Neither is not a rating event; it feeds the uncovered counters.
const (
	OutcomeA       Outcome = "A"
	OutcomeB       Outcome = "B"
	OutcomeBoth    Outcome = "Both"
	OutcomeDraw    Outcome = "Draw"
	OutcomeNeither Outcome = "Neither"
)

// Valid reports whether o is one of the known outcomes.
func (o Outcome) Valid() bool {
	switch o {
	case OutcomeA, OutcomeB, OutcomeBoth, OutcomeDraw, OutcomeNeither:
		return true
	}
	return false
}

// Result maps o to the score of competitor A. ok is false for outcomes that
// do not move ratings.
func (o Outcome) Result() (result float64, ok bool) {
	switch o {
	case OutcomeA:
		return 1, true
	case OutcomeB:
		return 0, true
	case OutcomeBoth, OutcomeDraw:
		return 0.5, true
	}
	return 0, false
}

// ParseOutcome normalizes a raw answer token. It accepts the canonical
// outcome names and the competitor labels, case-insensitively.
func ParseOutcome(raw string, l Labels) (Outcome, error) {
	token := strings.ToLower(strings.TrimSpace(raw))
	switch token {
	case "a", strings.ToLower(l.A):
		return OutcomeA, nil
	case "b", strings.ToLower(l.B):
		return OutcomeB, nil
	case "both", "shared":
		return OutcomeBoth, nil
	case "draw", "tie":
		return OutcomeDraw, nil
	case "neither", "none":
		return OutcomeNeither, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedOutcome, raw)
}

// ComparisonEvent is one answered comparison question. It is never mutated
// after creation.
type ComparisonEvent struct {
	EventID    string    `json:"eventId"`
	FamilyID   string    `json:"familyId"`
	QuestionID string    `json:"questionId,omitempty"`
	Category   string    `json:"category"`
	TaskType   string    `json:"taskType"`
	Outcome    Outcome   `json:"outcome"`
	Weight     float64   `json:"weight"`
	Timestamp  time.Time `json:"timestamp"`
}

// TaskKey is the task identifier ratings are kept under. Events without a
// task type are rated against their category.
func (e ComparisonEvent) TaskKey() string {
	if e.TaskType != "" {
		return e.TaskType
	}
	return e.Category
}

// Validate checks the fields the rating pipeline depends on.
func (e ComparisonEvent) Validate() error {
	if strings.TrimSpace(e.FamilyID) == "" {
		return fmt.Errorf("%w: family id is required", ErrInvalidEvent)
	}
	if strings.TrimSpace(e.Category) == "" {
		return fmt.Errorf("%w: category is required", ErrInvalidEvent)
	}
	if !e.Outcome.Valid() {
		return fmt.Errorf("%w: %q", ErrUnsupportedOutcome, e.Outcome)
	}
	return nil
}

// RatingChange describes how one competitor's rating moved.
type RatingChange struct {
	RatingBefore      float64 `json:"ratingBefore"`
	RatingAfter       float64 `json:"ratingAfter"`
	UncertaintyBefore float64 `json:"uncertaintyBefore"`
	UncertaintyAfter  float64 `json:"uncertaintyAfter"`
	Expected          float64 `json:"expected"`
	Change            float64 `json:"change"`
}

// LevelChange holds both competitors' changes at one level.
type LevelChange struct {
	A RatingChange `json:"a"`
	B RatingChange `json:"b"`
}

// MatchRecord is the history entry written for every applied event.
// CategoryChange and TaskChange are nil for Neither outcomes.
type MatchRecord struct {
	EventID          string       `json:"eventId"`
	FamilyID         string       `json:"familyId"`
	QuestionID       string       `json:"questionId,omitempty"`
	Category         string       `json:"category"`
	TaskType         string       `json:"taskType"`
	Outcome          Outcome      `json:"outcome"`
	Weight           float64      `json:"weight"`
	WeightMultiplier float64      `json:"weightMultiplier"`
	CategoryChange   *LevelChange `json:"categoryChange,omitempty"`
	TaskChange       *LevelChange `json:"taskChange,omitempty"`
	ImpactA          float64      `json:"impactA"`
	ImpactB          float64      `json:"impactB"`
	Timestamp        time.Time    `json:"timestamp"`
}
