// Package rating implements the pairwise rating update between two
// competitors and its application to a family's rating document.
package rating

import (
	"fmt"
	"math"
	"time"

	"github.com/stefanpalsson415/allietosavetheworld-sub011/internal/domain/model"
)

// Rating constants.
const (
	BaseK            = 32.0
	AverageWeight    = 5.0
	MinMultiplier    = 0.4
	MaxMultiplier    = 2.5
	UncertaintyDecay = 0.95
)

// UpdateInput is one pairwise comparison.
type UpdateInput struct {
	RatingA      float64
	RatingB      float64
	UncertaintyA float64
	UncertaintyB float64
	Outcome      model.Outcome
	Weight       float64
}

// UpdateResult holds the new ratings and the intermediate values.
type UpdateResult struct {
	RatingA          float64 `json:"ratingA"`
	RatingB          float64 `json:"ratingB"`
	UncertaintyA     float64 `json:"uncertaintyA"`
	UncertaintyB     float64 `json:"uncertaintyB"`
	ExpectedA        float64 `json:"expectedA"`
	ExpectedB        float64 `json:"expectedB"`
	ChangeA          float64 `json:"changeA"`
	ChangeB          float64 `json:"changeB"`
	WeightMultiplier float64 `json:"weightMultiplier"`
}

// Engine applies comparison outcomes to ratings. It keeps no per-call
// state and is safe for concurrent use; callers serialize writes per family.
type Engine struct {
	labels model.Labels
	now    func() time.Time
}

// NewEngine creates an Engine.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		labels: model.DefaultLabels(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Labels returns the competitor labels the engine writes.
func (e *Engine) Labels() model.Labels { return e.labels }

// WeightMultiplier scales K by task weight relative to the average weight.
// Non-finite or non-positive weights count as average.
func WeightMultiplier(weight float64) float64 {
	if math.IsNaN(weight) || math.IsInf(weight, 0) || weight <= 0 {
		weight = AverageWeight
	}
	return math.Min(MaxMultiplier, math.Max(MinMultiplier, weight/AverageWeight))
}

// Expected returns the logistic expectation of A beating B.
func Expected(ratingA, ratingB float64) float64 {
	return 1 / (1 + math.Pow(10, (ratingB-ratingA)/400))
}

// DecayUncertainty shrinks u geometrically, floored at the minimum. The
// result never exceeds u.
func DecayUncertainty(u float64) float64 {
	next := math.Round(math.Max(model.MinUncertainty, u*UncertaintyDecay))
	if next > u {
		return u
	}
	return next
}

// Update computes one rating update. Each side's K scales with its own
// uncertainty, so the two changes need not cancel out.
func (e *Engine) Update(in UpdateInput) (UpdateResult, error) {
	result, ok := in.Outcome.Result()
	if !ok {
		return UpdateResult{}, fmt.Errorf("%w: %q", ErrUnsupportedOutcome, in.Outcome)
	}

	expA := Expected(in.RatingA, in.RatingB)
	expB := 1 - expA
	mult := WeightMultiplier(in.Weight)
	kA := BaseK * (in.UncertaintyA / 100) * mult
	kB := BaseK * (in.UncertaintyB / 100) * mult

	newA := math.Round(in.RatingA + kA*(result-expA))
	newB := math.Round(in.RatingB + kB*((1-result)-expB))

	return UpdateResult{
		RatingA:          newA,
		RatingB:          newB,
		UncertaintyA:     DecayUncertainty(in.UncertaintyA),
		UncertaintyB:     DecayUncertainty(in.UncertaintyB),
		ExpectedA:        expA,
		ExpectedB:        expB,
		ChangeA:          math.Round(newA - in.RatingA),
		ChangeB:          math.Round(newB - in.RatingB),
		WeightMultiplier: mult,
	}, nil
}

// Apply folds one event into doc and returns the history record. Neither
// outcomes only bump the uncovered counters. On error doc is left untouched.
func (e *Engine) Apply(doc *model.FamilyRatings, ev model.ComparisonEvent) (*model.MatchRecord, error) {
	if err := ev.Validate(); err != nil {
		return nil, err
	}
	doc.EnsureMaps()

	taskKey := ev.TaskKey()
	weight := ev.Weight
	if math.IsNaN(weight) || math.IsInf(weight, 0) || weight <= 0 {
		weight = AverageWeight
	}
	rec := &model.MatchRecord{
		EventID:          ev.EventID,
		FamilyID:         doc.FamilyID,
		QuestionID:       ev.QuestionID,
		Category:         ev.Category,
		TaskType:         taskKey,
		Outcome:          ev.Outcome,
		Weight:           weight,
		WeightMultiplier: WeightMultiplier(weight),
		Timestamp:        ev.Timestamp,
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = e.now()
	}

	cat, ok := doc.Categories[ev.Category]
	if !ok {
		cat = model.NewRatingPair(e.labels)
	}
	task, ok := doc.Tasks[taskKey]
	if !ok {
		task = model.TaskRatingPair{RatingPair: model.NewRatingPair(e.labels), Category: ev.Category}
	}

	if ev.Outcome == model.OutcomeNeither {
		task.NeitherCount++
		doc.Tasks[taskKey] = task
		doc.Categories[ev.Category] = cat
		doc.Uncovered.ByCategory[ev.Category]++
		doc.Uncovered.ByTask[taskKey]++
		doc.Uncovered.Total++
		doc.LastUpdated = rec.Timestamp
		return rec, nil
	}

	catRes, err := e.Update(inputFor(cat, ev.Outcome, weight))
	if err != nil {
		return nil, err
	}
	taskRes, err := e.Update(inputFor(task.RatingPair, ev.Outcome, weight))
	if err != nil {
		return nil, err
	}

	if ev.Outcome == model.OutcomeBoth {
		task.BothCount++
	}
	rec.CategoryChange = levelChange(cat, catRes)
	rec.TaskChange = levelChange(task.RatingPair, taskRes)
	rec.ImpactA = math.Abs(catRes.ChangeA * weight)
	rec.ImpactB = math.Abs(catRes.ChangeB * weight)

	doc.Categories[ev.Category] = advance(cat, catRes)
	task.RatingPair = advance(task.RatingPair, taskRes)
	doc.Tasks[taskKey] = task
	e.recomputeGlobal(doc)
	doc.LastUpdated = rec.Timestamp
	return rec, nil
}

// ResponseCount is the number of rated events folded into doc. Each event
// adds one match to both competitors of its category.
func ResponseCount(doc model.FamilyRatings) int {
	total := 0
	for _, p := range doc.Categories {
		total += p.A.MatchCount + p.B.MatchCount
	}
	return total / 2
}

func inputFor(p model.RatingPair, o model.Outcome, weight float64) UpdateInput {
	return UpdateInput{
		RatingA:      p.A.Rating,
		RatingB:      p.B.Rating,
		UncertaintyA: p.A.Uncertainty,
		UncertaintyB: p.B.Uncertainty,
		Outcome:      o,
		Weight:       weight,
	}
}

func advance(p model.RatingPair, r UpdateResult) model.RatingPair {
	p.A.Rating, p.A.Uncertainty = r.RatingA, r.UncertaintyA
	p.B.Rating, p.B.Uncertainty = r.RatingB, r.UncertaintyB
	p.A.MatchCount++
	p.B.MatchCount++
	return p
}

func levelChange(before model.RatingPair, r UpdateResult) *model.LevelChange {
	return &model.LevelChange{
		A: model.RatingChange{
			RatingBefore:      before.A.Rating,
			RatingAfter:       r.RatingA,
			UncertaintyBefore: before.A.Uncertainty,
			UncertaintyAfter:  r.UncertaintyA,
			Expected:          r.ExpectedA,
			Change:            r.ChangeA,
		},
		B: model.RatingChange{
			RatingBefore:      before.B.Rating,
			RatingAfter:       r.RatingB,
			UncertaintyBefore: before.B.Uncertainty,
			UncertaintyAfter:  r.UncertaintyB,
			Expected:          r.ExpectedB,
			Change:            r.ChangeB,
		},
	}
}

// recomputeGlobal sets global ratings to the match-weighted mean of the
// category ratings.
func (e *Engine) recomputeGlobal(doc *model.FamilyRatings) {
	var totalA, totalB float64
	var matchesA, matchesB int
	for _, p := range doc.Categories {
		totalA += p.A.Rating * float64(p.A.MatchCount)
		totalB += p.B.Rating * float64(p.B.MatchCount)
		matchesA += p.A.MatchCount
		matchesB += p.B.MatchCount
	}
	if doc.Global.A.SubjectID == "" {
		doc.Global = model.NewRatingPair(e.labels)
	}
	if matchesA > 0 {
		doc.Global.A.Rating = math.Round(totalA / float64(matchesA))
		doc.Global.A.MatchCount = matchesA
	}
	if matchesB > 0 {
		doc.Global.B.Rating = math.Round(totalB / float64(matchesB))
		doc.Global.B.MatchCount = matchesB
	}
}
