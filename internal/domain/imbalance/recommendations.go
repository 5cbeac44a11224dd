package imbalance

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/stefanpalsson415/allietosavetheworld-sub011/internal/domain/model"
)

const (
	recommendationConfidence = 0.5
	maxRecommendations       = 5
)

// Recommendation suggests rebalancing one category.
type Recommendation struct {
	Category       string         `json:"category"`
	Severity       model.Severity `json:"severity"`
	Suggestion     string         `json:"suggestion"`
	CurrentBalance map[string]int `json:"currentBalance"`
	Confidence     float64        `json:"confidence"`
}

// Recommendations returns up to five confident categories ordered by gap,
// each naming the competitor that should take on more.
func Recommendations(doc model.FamilyRatings) []Recommendation {
	type entry struct {
		name string
		c    CategoryImbalance
	}
	entries := make([]entry, 0, len(doc.Categories))
	for name, c := range Categories(doc) {
		if c.Confidence > recommendationConfidence {
			entries = append(entries, entry{name, c})
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].c.Score != entries[j].c.Score {
			return entries[i].c.Score > entries[j].c.Score
		}
		return entries[i].name < entries[j].name
	})
	if len(entries) > maxRecommendations {
		entries = entries[:maxRecommendations]
	}

	out := make([]Recommendation, 0, len(entries))
	for _, e := range entries {
		a, b := e.c.Ratings.A, e.c.Ratings.B
		under := a.SubjectID
		if e.c.Leader == a.SubjectID {
			under = b.SubjectID
		}
		sum := a.Rating + b.Rating
		balance := map[string]int{a.SubjectID: 50, b.SubjectID: 50}
		if sum > 0 {
			balance[a.SubjectID] = int(math.Round(a.Rating / sum * 100))
			balance[b.SubjectID] = int(math.Round(b.Rating / sum * 100))
		}
		out = append(out, Recommendation{
			Category:       e.name,
			Severity:       e.c.Severity,
			Suggestion:     fmt.Sprintf("Consider having %s take on more %s tasks", under, strings.TrimSuffix(strings.ToLower(e.name), " tasks")),
			CurrentBalance: balance,
			Confidence:     e.c.Confidence,
		})
	}
	return out
}
