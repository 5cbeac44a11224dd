package model

import (
	"fmt"
	"time"
)

// SubScore is one weighted component of the balance score.
type SubScore struct {
	Score        float64        `json:"score"`
	Weight       float64        `json:"weight"`
	Contribution int            `json:"contribution"`
	Details      map[string]any `json:"details,omitempty"`
}

// Breakdown lists the four sub-scores.
type Breakdown struct {
	MentalLoad          SubScore `json:"mentalLoad"`
	TaskDistribution    SubScore `json:"taskDistribution"`
	RelationshipHarmony SubScore `json:"relationshipHarmony"`
	HabitConsistency    SubScore `json:"habitConsistency"`
}

// Interpretation is the presentation lookup for a total score.
type Interpretation struct {
	Level   string `json:"level"`
	Message string `json:"message"`
	Color   string `json:"color"`
}

// BalanceScore is the 0-100 composite for one family.
type BalanceScore struct {
	FamilyID         string         `json:"familyId"`
	TotalScore       int            `json:"totalScore"`
	Breakdown        Breakdown      `json:"breakdown"`
	Timestamp        time.Time      `json:"timestamp"`
	Interpretation   Interpretation `json:"interpretation"`
	CelebrationLevel string         `json:"celebrationLevel"`
	CacheTTL         int64          `json:"cacheTtlMs"` // milliseconds
}

// Baseline is the first saved score of a family. It is never overwritten.
type Baseline struct {
	Score   BalanceScore `json:"score"`
	SavedAt time.Time    `json:"savedAt"`
}

// Improvement compares the current score with the baseline.
type Improvement struct {
	HasBaseline           bool       `json:"hasBaseline"`
	Message               string     `json:"message,omitempty"`
	Baseline              int        `json:"baseline"`
	Current               int        `json:"current"`
	Improvement           int        `json:"improvement"`
	ImprovementPercentage int        `json:"improvementPercentage"`
	StartDate             *time.Time `json:"startDate,omitempty"`
	DaysTracking          int        `json:"daysTracking"`
	EstimatedCharge       int        `json:"estimatedCharge"`
}

// WeeklyScore is a score recorded under an ISO week.
type WeeklyScore struct {
	WeekID     string       `json:"weekId"`
	Score      BalanceScore `json:"score"`
	RecordedAt time.Time    `json:"recordedAt"`
}

// WeekID formats t as an ISO week identifier, e.g. 2026-W07.
func WeekID(t time.Time) string {
	year, week := t.ISOWeek()
	return fmt.Sprintf("%d-W%02d", year, week)
}
