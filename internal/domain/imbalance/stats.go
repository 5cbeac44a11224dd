package imbalance

import (
	"math"

	"github.com/stefanpalsson415/allietosavetheworld-sub011/internal/domain/model"
)

// HistoryWindow bounds the number of rated records statistics count.
const HistoryWindow = 50

// HistoryScanLimit bounds the number of history records fetched to fill
// HistoryWindow when Neither records are interleaved.
const HistoryScanLimit = 500

const (
	defaultAverageWeight = 5.0
	highWeightThreshold  = 7.0
)

// SidePair holds one value per competitor.
type SidePair struct {
	A float64 `json:"a"`
	B float64 `json:"b"`
}

// WeightStats describes the task weights of recent rated events.
type WeightStats struct {
	AverageWeight      float64     `json:"averageWeight"`
	WeightDistribution map[int]int `json:"weightDistribution"`
	HighWeightWins     SidePair    `json:"highWeightWins"`
	TotalWeightedLoad  SidePair    `json:"totalWeightedLoad"`
	MatchCount         int         `json:"matchCount"`
}

// WeightStatistics summarizes the most recent HistoryWindow rated records.
// Records are expected newest first; Neither records carry no load and are
// skipped before the window is applied.
func WeightStatistics(history []model.MatchRecord) WeightStats {
	stats := WeightStats{AverageWeight: defaultAverageWeight, WeightDistribution: map[int]int{}}

	var total float64
	for _, rec := range history {
		if rec.Outcome == model.OutcomeNeither {
			continue
		}
		if stats.MatchCount == HistoryWindow {
			break
		}
		w := rec.Weight
		if w <= 0 || math.IsNaN(w) || math.IsInf(w, 0) {
			w = defaultAverageWeight
		}
		total += w
		stats.MatchCount++
		stats.WeightDistribution[int(math.Floor(w))]++

		switch rec.Outcome {
		case model.OutcomeA:
			stats.TotalWeightedLoad.A += w
			if w > highWeightThreshold {
				stats.HighWeightWins.A++
			}
		case model.OutcomeB:
			stats.TotalWeightedLoad.B += w
			if w > highWeightThreshold {
				stats.HighWeightWins.B++
			}
		case model.OutcomeBoth, model.OutcomeDraw:
			stats.TotalWeightedLoad.A += w / 2
			stats.TotalWeightedLoad.B += w / 2
		}
	}
	if stats.MatchCount > 0 {
		stats.AverageWeight = total / float64(stats.MatchCount)
	}
	return stats
}
