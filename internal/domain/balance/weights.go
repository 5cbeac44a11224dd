package balance

import (
	"fmt"
	"math"
)

// Weights is the share of each sub-score in the total. They must sum to 1.
type Weights struct {
	MentalLoad          float64
	TaskDistribution    float64
	RelationshipHarmony float64
	HabitConsistency    float64
}

// DefaultWeights returns 40/30/20/10.
func DefaultWeights() Weights {
	return Weights{
		MentalLoad:          0.40,
		TaskDistribution:    0.30,
		RelationshipHarmony: 0.20,
		HabitConsistency:    0.10,
	}
}

// Sum returns the total of all weights.
func (w Weights) Sum() float64 {
	return w.MentalLoad + w.TaskDistribution + w.RelationshipHarmony + w.HabitConsistency
}

// Validate checks that weights sum to 1.0 and none are negative.
func (w Weights) Validate() error {
	if math.Abs(w.Sum()-1.0) > 0.001 {
		return fmt.Errorf("%w: weights sum to %.4f, must sum to 1.0", ErrInvalidWeights, w.Sum())
	}
	for _, v := range []float64{w.MentalLoad, w.TaskDistribution, w.RelationshipHarmony, w.HabitConsistency} {
		if v < 0 {
			return fmt.Errorf("%w: negative weight %f", ErrInvalidWeights, v)
		}
	}
	return nil
}
