package balance

import (
	"math"
	"sort"

	"github.com/stefanpalsson415/allietosavetheworld-sub011/internal/domain/model"
)

// Neutral defaults used when a sub-score has no data or its source failed.
const (
	DefaultMentalLoad       = 50.0
	DefaultTaskDistribution = 50.0
	DefaultHarmony          = 75.0
	DefaultHabits           = 0.0
)

const (
	anticipationFactor = 2.0
	monitoringFactor   = 1.5
	executionFactor    = 1.0

	// an average category gap of 600 rating points scores zero
	gapPerPoint = 6.0
)

// component is a sub-score before weighting.
type component struct {
	score   float64
	details map[string]any
}

func noData(score float64, msg string) component {
	return component{score: score, details: map[string]any{"dataAvailable": false, "message": msg}}
}

func failed(score float64, err error) component {
	return component{score: score, details: map[string]any{"dataAvailable": false, "error": err.Error()}}
}

// MentalLoadScore scores how evenly cognitive load is spread. Load is
// anticipation x2 + monitoring x1.5 + execution x1 per person.
func MentalLoadScore(people []PersonLoad) (score float64, details map[string]any) {
	c := mentalLoad(people)
	return c.score, c.details
}

func mentalLoad(people []PersonLoad) component {
	if len(people) < 2 {
		return noData(DefaultMentalLoad, "Need at least 2 family members with data")
	}

	type load struct {
		name  string
		value float64
	}
	loads := make([]load, 0, len(people))
	var total float64
	for _, p := range people {
		v := nonNegative(p.Anticipation)*anticipationFactor +
			nonNegative(p.Monitoring)*monitoringFactor +
			nonNegative(p.Execution)*executionFactor
		name := p.Name
		if name == "" {
			name = p.PersonID
		}
		loads = append(loads, load{name: name, value: v})
		total += v
	}
	if total == 0 {
		return noData(DefaultMentalLoad, "No cognitive load data yet")
	}

	sort.SliceStable(loads, func(i, j int) bool { return loads[i].value > loads[j].value })
	highest, lowest := loads[0].value, loads[len(loads)-1].value
	ratio := math.Abs(highest-lowest) / total

	distribution := make([]map[string]any, 0, len(loads))
	for _, l := range loads {
		distribution = append(distribution, map[string]any{
			"name":          l.name,
			"percentage":    math.Round(l.value / total * 100),
			"cognitiveLoad": math.Round(l.value),
		})
	}
	return component{
		score: math.Round(100 * (1 - ratio)),
		details: map[string]any{
			"dataAvailable":    true,
			"totalLoad":        total,
			"imbalanceRatio":   math.Round(ratio*100) / 100,
			"distribution":     distribution,
			"leader":           loads[0].name,
			"leaderPercentage": math.Round(highest / total * 100),
		},
	}
}

// TaskDistributionScore scores the average rating gap over the core
// categories present in doc.
func TaskDistributionScore(doc model.FamilyRatings) (score float64, details map[string]any) {
	c := taskDistribution(doc)
	return c.score, c.details
}

func taskDistribution(doc model.FamilyRatings) component {
	type gap struct {
		Category string  `json:"category"`
		Gap      float64 `json:"gap"`
		Leader   string  `json:"leader"`
	}
	var gaps []gap
	var total float64
	for _, cat := range model.CoreCategories() {
		p, ok := doc.Categories[cat]
		if !ok {
			continue
		}
		g := math.Abs(p.A.Rating - p.B.Rating)
		leader := p.B.SubjectID
		if p.A.Rating > p.B.Rating {
			leader = p.A.SubjectID
		}
		gaps = append(gaps, gap{Category: cat, Gap: g, Leader: leader})
		total += g
	}
	if len(gaps) == 0 {
		return noData(DefaultTaskDistribution, "Need survey responses to calculate task distribution")
	}

	avg := total / float64(len(gaps))
	sort.SliceStable(gaps, func(i, j int) bool { return gaps[i].Gap > gaps[j].Gap })
	return component{
		score: math.Max(0, math.Round(100-avg/gapPerPoint)),
		details: map[string]any{
			"dataAvailable":     true,
			"averageGap":        math.Round(avg),
			"categoryGaps":      gaps,
			"mostImbalanced":    gaps[0].Category,
			"mostImbalancedGap": math.Round(gaps[0].Gap),
		},
	}
}

// HarmonyScore uses the reported harmony level, clamped to 0-100. A level
// of zero is a real reading and scores 0; it is not treated as missing.
// Only an unavailable or NaN reading falls back to DefaultHarmony.
func HarmonyScore(h HarmonyReading) (score float64, details map[string]any) {
	c := harmony(h)
	return c.score, c.details
}

func harmony(h HarmonyReading) component {
	if !h.Available || math.IsNaN(h.Level) {
		return noData(DefaultHarmony, "Harmony monitoring not yet started")
	}
	level := clamp(h.Level, 0, 100)
	trend := h.Trend
	if trend == "" {
		trend = "stable"
	}
	risk := h.CascadeRisk
	if risk == "" {
		risk = "Low"
	}
	return component{
		score: level,
		details: map[string]any{
			"dataAvailable":    true,
			"harmonyLevel":     level,
			"stressIndicators": h.StressIndicators,
			"cascadeRisk":      risk,
			"trend":            trend,
		},
	}
}

// HabitScore is the completion rate of the active habit cycle, capped at 100.
func HabitScore(habits []Habit) (score float64, details map[string]any) {
	c := habitConsistency(habits)
	return c.score, c.details
}

func habitConsistency(habits []Habit) component {
	if len(habits) == 0 {
		return noData(DefaultHabits, "No habits tracked yet")
	}
	var target, completed, active int
	for _, h := range habits {
		target += max(0, h.TargetFrequency)
		completed += max(0, h.CompletionCount)
		if h.Active {
			active++
		}
	}
	rate := 0.0
	if target > 0 {
		rate = math.Min(100, math.Round(float64(completed)/float64(target)*100))
	}
	return component{
		score: rate,
		details: map[string]any{
			"dataAvailable":  true,
			"totalHabits":    len(habits),
			"totalTarget":    target,
			"totalCompleted": completed,
			"completionRate": rate,
			"activeHabits":   active,
		},
	}
}

// Total combines four sub-scores with w. Non-finite sub-scores count as
// zero and the result is clamped to [0,100].
func Total(mentalLoad, taskDistribution, harmony, habits float64, w Weights) int {
	sum := finite(mentalLoad)*w.MentalLoad +
		finite(taskDistribution)*w.TaskDistribution +
		finite(harmony)*w.RelationshipHarmony +
		finite(habits)*w.HabitConsistency
	return int(clamp(math.Round(sum), 0, 100))
}

// Interpret maps a total score to its presentation level and celebration tier.
func Interpret(total int) (model.Interpretation, string) {
	switch {
	case total >= 80:
		return model.Interpretation{
			Level:   "Thriving",
			Message: "Your family balance is excellent! Keep up the amazing work.",
			Color:   "green",
		}, "epic"
	case total >= 60:
		return model.Interpretation{
			Level:   "Growing",
			Message: "You're making great progress! A few more improvements and you'll be thriving.",
			Color:   "blue",
		}, "great"
	case total >= 40:
		return model.Interpretation{
			Level:   "Improving",
			Message: "You're on the right track. Keep working toward better balance.",
			Color:   "yellow",
		}, "good"
	}
	return model.Interpretation{
		Level:   "Getting Started",
		Message: "Every journey starts somewhere. Keep going!",
		Color:   "orange",
	}, "keep-going"
}

func subScore(c component, weight float64) model.SubScore {
	s := finite(c.score)
	return model.SubScore{
		Score:        s,
		Weight:       weight,
		Contribution: int(math.Round(s * weight)),
		Details:      c.details,
	}
}

func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

func nonNegative(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	return v
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(hi, math.Max(lo, v))
}
