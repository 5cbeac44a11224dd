package loadgen

import (
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"

	"github.com/stefanpalsson415/allietosavetheworld-sub011/internal/domain/model"
)

const (
	tasksPerCategory = 4
	sharedRate       = 0.1
	minWeight        = 1.0
	maxWeight        = 15.0
	timestampSpread  = 7 * 24 * time.Hour
)

// Comparison is one entry of a batch request body.
type Comparison struct {
	EventID    string  `json:"eventId"`
	QuestionID string  `json:"questionId"`
	Category   string  `json:"category"`
	TaskType   string  `json:"taskType"`
	Weight     float64 `json:"weight"`
	Timestamp  string  `json:"timestamp"`
	Outcome    string  `json:"outcome"`
}

// FamilyPlan is everything generated for one family plus the totals the
// service is expected to end up with once every comparison is applied.
type FamilyPlan struct {
	FamilyID    string       `json:"familyId"`
	Comparisons []Comparison `json:"comparisons"`
	Unique      int          `json:"unique"`
	Neither     int          `json:"neither"`
}

// Generate builds one plan per family. The same seed yields the same
// outcomes, categories and weights; event and family ids are always fresh.
func Generate(cfg *Config, now time.Time) []FamilyPlan {
	seed := cfg.Seed
	if seed == 0 {
		seed = uint64(now.UnixNano())
	}
	rnd := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	categories := model.SurveyCategories()

	plans := make([]FamilyPlan, cfg.Families)
	for f := range plans {
		dups := int(float64(cfg.EventsPerFamily) * cfg.DuplicateRate)
		unique := cfg.EventsPerFamily - dups
		plan := FamilyPlan{
			FamilyID:    "loadgen-" + uuid.NewString(),
			Comparisons: make([]Comparison, 0, cfg.EventsPerFamily),
			Unique:      unique,
		}
		for range unique {
			c := generateComparison(rnd, cfg, categories, now)
			if c.Outcome == string(model.OutcomeNeither) {
				plan.Neither++
			}
			plan.Comparisons = append(plan.Comparisons, c)
		}
		// Resends reuse an earlier event id and must be dropped by the service.
		for range dups {
			plan.Comparisons = append(plan.Comparisons, plan.Comparisons[rnd.IntN(unique)])
		}
		plans[f] = plan
	}
	return plans
}

func generateComparison(rnd *rand.Rand, cfg *Config, categories []string, now time.Time) Comparison {
	category := categories[rnd.IntN(len(categories))]
	task := rnd.IntN(tasksPerCategory)
	return Comparison{
		EventID:    uuid.NewString(),
		QuestionID: fmt.Sprintf("q-%s-%d", category, task),
		Category:   category,
		TaskType:   fmt.Sprintf("%s #%d", category, task),
		Weight:     minWeight + rnd.Float64()*(maxWeight-minWeight),
		Timestamp:  now.Add(-time.Duration(rnd.Int64N(int64(timestampSpread)))).UTC().Format(time.RFC3339),
		Outcome:    string(pickOutcome(rnd, cfg)),
	}
}

func pickOutcome(rnd *rand.Rand, cfg *Config) model.Outcome {
	switch p := rnd.Float64(); {
	case p < cfg.NeitherRate:
		return model.OutcomeNeither
	case p < cfg.NeitherRate+sharedRate:
		return model.OutcomeBoth
	}
	if rnd.Float64() < cfg.Bias {
		return model.OutcomeA
	}
	return model.OutcomeB
}
