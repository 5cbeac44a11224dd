// Package imbalance derives human-readable imbalance views from a family's
// rating document. Every function is pure; nothing here is persisted.
package imbalance

import (
	"math"
	"sort"

	"github.com/stefanpalsson415/allietosavetheworld-sub011/internal/domain/model"
)

// Severity thresholds on the rating gap.
const (
	severeGap   = 200
	moderateGap = 100
	mildGap     = 50
)

// DefaultTopUncovered is the length of the ranked uncovered task list.
const DefaultTopUncovered = 10

// CategoryImbalance summarizes one category.
type CategoryImbalance struct {
	Score      float64          `json:"score"`
	Confidence float64          `json:"confidence"`
	Leader     string           `json:"leader"`
	Ratings    model.RatingPair `json:"ratings"`
	MatchCount int              `json:"matchCount"`
	Severity   model.Severity   `json:"severity"`
}

// TaskImbalance summarizes one task type.
type TaskImbalance struct {
	CategoryImbalance
	Category     string `json:"category"`
	NeitherCount int    `json:"neitherCount"`
	BothCount    int    `json:"bothCount"`
	IsUncovered  bool   `json:"isUncovered"`
}

// UncoveredTask is one entry of the ranked uncovered list.
type UncoveredTask struct {
	Task  string `json:"task"`
	Count int    `json:"count"`
}

// UncoveredSummary is the uncovered counters plus the ranked task list.
type UncoveredSummary struct {
	ByCategory map[string]int  `json:"byCategory"`
	ByTask     map[string]int  `json:"byTask"`
	Total      int             `json:"total"`
	Top        []UncoveredTask `json:"topUncoveredTasks"`
}

// Severity buckets a rating gap.
func Severity(gap float64) model.Severity {
	switch {
	case gap > severeGap:
		return model.SeveritySevere
	case gap > moderateGap:
		return model.SeverityModerate
	case gap > mildGap:
		return model.SeverityMild
	}
	return model.SeverityBalanced
}

// Confidence is 1 minus the mean uncertainty relative to the initial
// uncertainty, clamped to [0,1].
func Confidence(p model.RatingPair) float64 {
	avg := (p.A.Uncertainty + p.B.Uncertainty) / 2
	return math.Min(1, math.Max(0, 1-avg/model.InitialUncertainty))
}

func summarize(p model.RatingPair) CategoryImbalance {
	gap := math.Abs(p.A.Rating - p.B.Rating)
	leader := p.B.SubjectID
	if p.A.Rating > p.B.Rating {
		leader = p.A.SubjectID
	}
	return CategoryImbalance{
		Score:      gap,
		Confidence: Confidence(p),
		Leader:     leader,
		Ratings:    p,
		MatchCount: min(p.A.MatchCount, p.B.MatchCount),
		Severity:   Severity(gap),
	}
}

// Categories returns the imbalance of every category in doc.
func Categories(doc model.FamilyRatings) map[string]CategoryImbalance {
	out := make(map[string]CategoryImbalance, len(doc.Categories))
	for name, p := range doc.Categories {
		out[name] = summarize(p)
	}
	return out
}

// Tasks returns task imbalances, optionally restricted to one category.
// An empty category selects all tasks.
func Tasks(doc model.FamilyRatings, category string) map[string]TaskImbalance {
	out := make(map[string]TaskImbalance)
	for name, t := range doc.Tasks {
		if category != "" && t.Category != category {
			continue
		}
		total := t.A.MatchCount + t.B.MatchCount
		out[name] = TaskImbalance{
			CategoryImbalance: summarize(t.RatingPair),
			Category:          t.Category,
			NeitherCount:      t.NeitherCount,
			BothCount:         t.BothCount,
			IsUncovered:       float64(t.NeitherCount) > float64(total)*0.5,
		}
	}
	return out
}

// Uncovered returns the uncovered counters with the top n tasks by neither
// count. Ties are ordered by task name. n <= 0 uses DefaultTopUncovered.
func Uncovered(doc model.FamilyRatings, n int) UncoveredSummary {
	if n <= 0 {
		n = DefaultTopUncovered
	}
	s := UncoveredSummary{
		ByCategory: make(map[string]int, len(doc.Uncovered.ByCategory)),
		ByTask:     make(map[string]int, len(doc.Uncovered.ByTask)),
		Total:      doc.Uncovered.Total,
		Top:        make([]UncoveredTask, 0, len(doc.Uncovered.ByTask)),
	}
	for k, v := range doc.Uncovered.ByCategory {
		s.ByCategory[k] = v
	}
	for k, v := range doc.Uncovered.ByTask {
		s.ByTask[k] = v
		s.Top = append(s.Top, UncoveredTask{Task: k, Count: v})
	}
	sort.Slice(s.Top, func(i, j int) bool {
		if s.Top[i].Count != s.Top[j].Count {
			return s.Top[i].Count > s.Top[j].Count
		}
		return s.Top[i].Task < s.Top[j].Task
	})
	if len(s.Top) > n {
		s.Top = s.Top[:n]
	}
	return s
}

// Snapshots returns one snapshot per category, largest gap first.
func Snapshots(doc model.FamilyRatings) []model.ImbalanceSnapshot {
	out := make([]model.ImbalanceSnapshot, 0, len(doc.Categories))
	for name, c := range Categories(doc) {
		out = append(out, model.ImbalanceSnapshot{
			Category:   name,
			RatingGap:  c.Score,
			Confidence: c.Confidence,
			Leader:     c.Leader,
			Severity:   c.Severity,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].RatingGap != out[j].RatingGap {
			return out[i].RatingGap > out[j].RatingGap
		}
		return out[i].Category < out[j].Category
	})
	return out
}
