package model

import (
	"time"
)

// Rating anchors.
const (
	InitialRating      = 1500.0
	InitialUncertainty = 350.0
	MinUncertainty     = 50.0
)

// Labels are the display names of the two competitors.
type Labels struct {
	A string `json:"a"`
	B string `json:"b"`
}

// DefaultLabels returns the labels used when none are configured.
func DefaultLabels() Labels {
	return Labels{A: "Mama", B: "Papa"}
}

// Rating is one competitor's standing in a category or task.
type Rating struct {
	SubjectID   string  `json:"subjectId"`
	Rating      float64 `json:"rating"`
	Uncertainty float64 `json:"uncertainty"`
	MatchCount  int     `json:"matchCount"`
}

// NewRating returns a rating at the anchor with full uncertainty.
func NewRating(subjectID string) Rating {
	return Rating{SubjectID: subjectID, Rating: InitialRating, Uncertainty: InitialUncertainty}
}

// RatingPair holds both competitors' ratings for one key.
type RatingPair struct {
	A Rating `json:"a"`
	B Rating `json:"b"`
}

// NewRatingPair returns a fresh pair labelled with l.
func NewRatingPair(l Labels) RatingPair {
	return RatingPair{A: NewRating(l.A), B: NewRating(l.B)}
}

// TaskRatingPair is a RatingPair for a task type plus its shared and uncovered counts.
type TaskRatingPair struct {
	RatingPair
	Category     string `json:"category"`
	BothCount    int    `json:"bothCount"`
	NeitherCount int    `json:"neitherCount"`
}

// UncoveredCounters count neither-party responses.
type UncoveredCounters struct {
	ByCategory map[string]int `json:"byCategory"`
	ByTask     map[string]int `json:"byTask"`
	Total      int            `json:"total"`
}

// FamilyRatings is the per-family rating document. Version is bumped on
// every successful write and is used by stores for optimistic concurrency.
type FamilyRatings struct {
	FamilyID    string                    `json:"familyId"`
	Categories  map[string]RatingPair     `json:"categories"`
	Tasks       map[string]TaskRatingPair `json:"tasks"`
	Uncovered   UncoveredCounters         `json:"uncovered"`
	Global      RatingPair                `json:"global"`
	Version     int64                     `json:"version"`
	LastUpdated time.Time                 `json:"lastUpdated"`
}

// NewFamilyRatings returns an empty document for familyID.
func NewFamilyRatings(familyID string, l Labels) FamilyRatings {
	return FamilyRatings{
		FamilyID:   familyID,
		Categories: map[string]RatingPair{},
		Tasks:      map[string]TaskRatingPair{},
		Uncovered: UncoveredCounters{
			ByCategory: map[string]int{},
			ByTask:     map[string]int{},
		},
		Global: NewRatingPair(l),
	}
}

// Clone returns a deep copy so callers can mutate it without touching the original.
func (f FamilyRatings) Clone() FamilyRatings {
	out := f
	out.Categories = make(map[string]RatingPair, len(f.Categories))
	for k, v := range f.Categories {
		out.Categories[k] = v
	}
	out.Tasks = make(map[string]TaskRatingPair, len(f.Tasks))
	for k, v := range f.Tasks {
		out.Tasks[k] = v
	}
	out.Uncovered.ByCategory = make(map[string]int, len(f.Uncovered.ByCategory))
	for k, v := range f.Uncovered.ByCategory {
		out.Uncovered.ByCategory[k] = v
	}
	out.Uncovered.ByTask = make(map[string]int, len(f.Uncovered.ByTask))
	for k, v := range f.Uncovered.ByTask {
		out.Uncovered.ByTask[k] = v
	}
	return out
}

// EnsureMaps initializes nil maps, e.g. after decoding a sparse document.
func (f *FamilyRatings) EnsureMaps() {
	if f.Categories == nil {
		f.Categories = map[string]RatingPair{}
	}
	if f.Tasks == nil {
		f.Tasks = map[string]TaskRatingPair{}
	}
	if f.Uncovered.ByCategory == nil {
		f.Uncovered.ByCategory = map[string]int{}
	}
	if f.Uncovered.ByTask == nil {
		f.Uncovered.ByTask = map[string]int{}
	}
}

// Severity buckets a rating gap.
type Severity string

// Severity levels.
const (
	SeverityBalanced Severity = "balanced"
	SeverityMild     Severity = "mild"
	SeverityModerate Severity = "moderate"
	SeveritySevere   Severity = "severe"
)

// ImbalanceSnapshot is a derived view of one category. It is never stored.
type ImbalanceSnapshot struct {
	Category   string   `json:"category"`
	RatingGap  float64  `json:"ratingGap"`
	Confidence float64  `json:"confidence"`
	Leader     string   `json:"leader"`
	Severity   Severity `json:"severity"`
}
