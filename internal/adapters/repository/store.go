// Package repository stores per-family rating documents, match history,
// balance baselines and weekly scores.
package repository

import (
	"context"

	"github.com/stefanpalsson415/allietosavetheworld-sub011/internal/domain/model"
)

// UpdateFunc mutates a working copy of a family document. Returning an error
// discards the copy. The returned record, if any, is appended to the match
// history in the same write.
type UpdateFunc func(doc *model.FamilyRatings) (*model.MatchRecord, error)

// Store provides serialized read-modify-write access to family state.
type Store interface {
	// Load returns the family document. Unknown families get an empty
	// document with initial ratings, never an error.
	Load(ctx context.Context, familyID string) (model.FamilyRatings, error)

	// Update runs fn on the family document and persists the result. Updates
	// of one family are serialized; errors from fn are returned unchanged and
	// persistence failures wrap ErrPersist.
	Update(ctx context.Context, familyID string, fn UpdateFunc) (*model.MatchRecord, error)

	// RecentHistory returns up to limit match records, newest first.
	RecentHistory(ctx context.Context, familyID string, limit int) ([]model.MatchRecord, error)

	// GetBaseline returns the stored baseline and whether one exists.
	GetBaseline(ctx context.Context, familyID string) (model.Baseline, bool, error)
	// PutBaseline stores the first baseline; later calls fail with ErrBaselineExists.
	PutBaseline(ctx context.Context, familyID string, b model.Baseline) error

	// PutWeeklyScore stores s, replacing any score of the same week.
	PutWeeklyScore(ctx context.Context, familyID string, s model.WeeklyScore) error
	// ListWeeklyScores returns up to limit weekly scores, newest first.
	ListWeeklyScores(ctx context.Context, familyID string, limit int) ([]model.WeeklyScore, error)

	// Count returns the number of families with stored state.
	Count(ctx context.Context) int

	Close() error
}
