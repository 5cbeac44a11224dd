package imbalance

import (
	"math"
	"strings"

	"github.com/stefanpalsson415/allietosavetheworld-sub011/internal/domain/model"
	"github.com/stefanpalsson415/allietosavetheworld-sub011/internal/domain/weight"
)

// Burnout risk levels.
const (
	BurnoutUnknown  = "unknown"
	BurnoutMinimal  = "minimal"
	BurnoutLow      = "low"
	BurnoutModerate = "moderate"
	BurnoutHigh     = "high"
	BurnoutSevere   = "severe"
)

// Question is one entry of the full survey question set.
type Question struct {
	ID   string               `json:"id"`
	Task model.TaskDescriptor `json:"task"`
}

// CategoryBalance is the weighted answer split of one survey category.
// Percentages are 0-100.
type CategoryBalance struct {
	A                 float64 `json:"a"`
	B                 float64 `json:"b"`
	Neutral           float64 `json:"neutral"`
	Imbalance         float64 `json:"imbalance"`
	QuestionCount     int     `json:"questionCount"`
	PossibleQuestions int     `json:"possibleQuestions"`
	Coverage          float64 `json:"coverage"`
	BurnoutRisk       string  `json:"burnoutRisk"`
}

// OverallBalance is the category-weighted mean of every answered category.
type OverallBalance struct {
	A           float64 `json:"a"`
	B           float64 `json:"b"`
	Neutral     float64 `json:"neutral"`
	Imbalance   float64 `json:"imbalance"`
	BurnoutRisk string  `json:"burnoutRisk"`
}

// SurveyResult is the output of SurveyBalance.
type SurveyResult struct {
	Categories map[string]CategoryBalance `json:"categoryBalance"`
	Overall    OverallBalance             `json:"overallBalance"`
}

type tally struct {
	a, b, neutral, total float64
	questions           int
}

// SurveyBalance computes the weighted answer split per category from raw
// survey responses keyed by question id. Keys may carry a prefix such as
// "week-1-user-123-q45". Answers other than the two labels, Both, Neutral
// and Neither are ignored.
func SurveyBalance(questions []Question, responses map[string]string, p model.FamilyPriorities, l model.Labels, calc *weight.Calculator) SurveyResult {
	tallies := make(map[string]*tally)
	possible := make(map[string]int)
	for _, c := range model.SurveyCategories() {
		tallies[c] = &tally{}
	}
	byID := make(map[string]Question, len(questions))
	for _, q := range questions {
		byID[q.ID] = q
		if _, ok := tallies[q.Task.Category]; ok {
			possible[q.Task.Category]++
		}
	}

	for key, value := range responses {
		side, ok := surveySide(value, l)
		if !ok {
			continue
		}
		q, found := byID[questionID(key)]
		if !found {
			continue
		}
		t, tracked := tallies[q.Task.Category]
		if !tracked {
			continue
		}
		w := calc.ComputeWeight(surveyTask(q.Task), p)
		t.questions++
		t.total += w
		switch side {
		case model.OutcomeA:
			t.a += w
		case model.OutcomeB:
			t.b += w
		default:
			t.a += w / 2
			t.b += w / 2
			t.neutral += w
		}
	}

	res := SurveyResult{Categories: make(map[string]CategoryBalance)}
	var totalWeight, wA, wB, wNeutral, wImbalance float64
	for category, t := range tallies {
		if t.total <= 0 {
			continue
		}
		cb := categoryBalance(t, possible[category])
		res.Categories[category] = cb

		combined := calc.CategoryWeight(category, p) * float64(cb.QuestionCount)
		wA += cb.A * combined
		wB += cb.B * combined
		wNeutral += cb.Neutral * combined
		wImbalance += cb.Imbalance * combined
		totalWeight += combined
	}

	if totalWeight <= 0 {
		res.Overall = OverallBalance{A: 50, B: 50, BurnoutRisk: BurnoutUnknown}
		return res
	}
	res.Overall = OverallBalance{
		A:           wA / totalWeight,
		B:           wB / totalWeight,
		Neutral:     wNeutral / totalWeight,
		Imbalance:   wImbalance / totalWeight,
		BurnoutRisk: OverallBurnoutRisk(wA/totalWeight, wB/totalWeight),
	}
	return res
}

// categoryBalance applies the coverage dampening: when fewer than half of a
// category's possible questions were answered, the imbalance is scaled by
// 0.5 + coverage.
func categoryBalance(t *tally, possible int) CategoryBalance {
	a := t.a / t.total * 100
	b := t.b / t.total * 100
	divisor := possible
	if divisor == 0 {
		divisor = 1
	}
	coverage := float64(t.questions) / float64(divisor)
	damp := 1.0
	if coverage < 0.5 {
		damp = 0.5 + coverage
	}

	risk := BurnoutLow
	switch {
	case a > 75:
		risk = BurnoutHigh
		if a > 90 {
			risk = BurnoutSevere
		}
	case b > 75:
		risk = BurnoutHigh
		if b > 90 {
			risk = BurnoutSevere
		}
	case math.Abs(a-b) > 40:
		risk = BurnoutModerate
	}

	return CategoryBalance{
		A:                 a,
		B:                 b,
		Neutral:           t.neutral / t.total * 100,
		Imbalance:         math.Abs(a-b) * damp,
		QuestionCount:     t.questions,
		PossibleQuestions: possible,
		Coverage:          coverage,
		BurnoutRisk:       risk,
	}
}

// OverallBurnoutRisk grades the gap between two percentages.
func OverallBurnoutRisk(a, b float64) string {
	gap := math.Abs(a - b)
	switch {
	case gap > 50:
		return BurnoutSevere
	case gap > 35:
		return BurnoutHigh
	case gap > 20:
		return BurnoutModerate
	case gap > 10:
		return BurnoutLow
	}
	return BurnoutMinimal
}

// surveyTask fills the survey defaults for factors a question leaves empty.
// Survey weights ignore research impact and child development, so both
// always multiply by 1.0.
func surveyTask(t model.TaskDescriptor) model.TaskDescriptor {
	if t.BaseWeight <= 0 {
		t.BaseWeight = model.DefaultBaseWeight
	}
	if t.Frequency == "" {
		t.Frequency = model.FrequencyWeekly
	}
	if t.Invisibility == "" {
		t.Invisibility = model.InvisibilityPartially
	}
	if t.EmotionalLabor == "" {
		t.EmotionalLabor = model.EmotionalLaborModerate
	}
	t.ResearchImpact = model.ResearchImpactStandard
	t.ChildDevelopment = ""
	if t.TimeRequired == "" {
		t.TimeRequired = model.TimeModerate
	}
	if t.Complexity == "" {
		t.Complexity = model.ComplexityBasic
	}
	return t
}

func surveySide(value string, l model.Labels) (model.Outcome, bool) {
	switch value {
	case l.A:
		return model.OutcomeA, true
	case l.B:
		return model.OutcomeB, true
	case "Both", "Neutral", "Neither":
		return model.OutcomeBoth, true
	}
	return "", false
}

// questionID strips response key prefixes: "week-1-user-123-q45" -> "q45",
// "user-7" -> "7".
func questionID(key string) string {
	if i := strings.Index(key, "-q"); i >= 0 {
		rest := key[i+2:]
		if j := strings.Index(rest, "-q"); j >= 0 {
			rest = rest[:j]
		}
		return "q" + rest
	}
	if i := strings.LastIndex(key, "-"); i >= 0 {
		return key[i+1:]
	}
	return key
}
