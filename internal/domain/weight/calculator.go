// Package weight converts task metadata into a significance weight.
package weight

import (
	"fmt"
	"math"
	"strings"

	"github.com/stefanpalsson415/allietosavetheworld-sub011/internal/domain/model"
)

// Calculator computes task weights. It holds only immutable tables and is
// safe for concurrent use.
type Calculator struct {
	categoryWeights map[string]float64
	highKeywords    []string
	mediumKeywords  []string
}

// Factors lists every multiplier that went into a weight.
type Factors struct {
	Base             float64 `json:"base"`
	Frequency        float64 `json:"frequency"`
	Invisibility     float64 `json:"invisibility"`
	EmotionalLabor   float64 `json:"emotionalLabor"`
	ResearchImpact   float64 `json:"researchImpact"`
	ChildDevelopment float64 `json:"childDevelopment"`
	Priority         float64 `json:"priority"`
	TimeRequired     float64 `json:"timeRequired"`
	Complexity       float64 `json:"complexity"`

	InferredImpact model.ResearchImpact `json:"inferredResearchImpact,omitempty"`
}

// Result is a weight rounded to two decimals plus its factors.
type Result struct {
	Weight  float64 `json:"weight"`
	Factors Factors `json:"factors"`
}

// NewCalculator returns a Calculator with the default tables.
func NewCalculator(opts ...Option) *Calculator {
	c := &Calculator{
		categoryWeights: make(map[string]float64, len(defaultCategoryWeights)),
		highKeywords:    defaultHighImpactKeywords,
		mediumKeywords:  defaultMediumImpactKeywords,
	}
	for k, v := range defaultCategoryWeights {
		c.categoryWeights[k] = v
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ComputeWeight returns the unrounded weight of task for a family. Unknown
// factor values multiply by 1.0.
func (c *Calculator) ComputeWeight(task model.TaskDescriptor, priorities model.FamilyPriorities) float64 {
	f := c.factors(task, priorities)
	return f.Base * f.Frequency * f.Invisibility * f.EmotionalLabor * f.ResearchImpact *
		f.ChildDevelopment * f.Priority * f.TimeRequired * f.Complexity
}

// WeightResult validates task and returns its weight rounded to two decimals.
func (c *Calculator) WeightResult(task model.TaskDescriptor, priorities model.FamilyPriorities) (Result, error) {
	if err := Validate(task); err != nil {
		return Result{}, err
	}
	f := c.factors(task, priorities)
	w := f.Base * f.Frequency * f.Invisibility * f.EmotionalLabor * f.ResearchImpact *
		f.ChildDevelopment * f.Priority * f.TimeRequired * f.Complexity
	return Result{Weight: math.Round(w*100) / 100, Factors: f}, nil
}

// Validate rejects tasks the calculator cannot place in a category.
func Validate(task model.TaskDescriptor) error {
	if strings.TrimSpace(task.Category) == "" {
		return fmt.Errorf("%w: category", ErrMissingField)
	}
	if math.IsNaN(task.BaseWeight) || math.IsInf(task.BaseWeight, 0) {
		return fmt.Errorf("%w: base weight must be finite", ErrMissingField)
	}
	return nil
}

// PriorityMultiplier returns the multiplier for category under priorities.
func PriorityMultiplier(category string, p model.FamilyPriorities) float64 {
	switch {
	case category == "":
		return PriorityNone
	case p.Highest == category:
		return PriorityHighest
	case p.Secondary == category:
		return PrioritySecondary
	case p.Tertiary == category:
		return PriorityTertiary
	}
	return PriorityNone
}

// CategoryWeight returns the base weight of a survey category, with the
// family's priorities overriding it. Unknown categories weigh 1.
func (c *Calculator) CategoryWeight(category string, p model.FamilyPriorities) float64 {
	switch PriorityMultiplier(category, p) {
	case PriorityHighest:
		return PriorityHighest
	case PrioritySecondary:
		return PrioritySecondary
	case PriorityTertiary:
		return PriorityTertiary
	}
	if w, ok := c.categoryWeights[category]; ok {
		return w
	}
	return 1
}

// InferResearchImpact classifies free text by keyword. High-impact keywords
// win over medium ones; anything else is standard.
func (c *Calculator) InferResearchImpact(description, category string) model.ResearchImpact {
	text := strings.ToLower(description + " " + category)
	for _, kw := range c.highKeywords {
		if strings.Contains(text, kw) {
			return model.ResearchImpactHigh
		}
	}
	for _, kw := range c.mediumKeywords {
		if strings.Contains(text, kw) {
			return model.ResearchImpactMedium
		}
	}
	return model.ResearchImpactStandard
}

func (c *Calculator) factors(task model.TaskDescriptor, p model.FamilyPriorities) Factors {
	base := task.BaseWeight
	if base <= 0 || math.IsNaN(base) || math.IsInf(base, 0) {
		base = model.DefaultBaseWeight
	}

	impact := task.ResearchImpact
	var inferred model.ResearchImpact
	if impact == "" {
		impact = c.InferResearchImpact(task.Description, task.Category)
		inferred = impact
	}

	return Factors{
		Base:             base,
		Frequency:        lookup(frequencyMultipliers, task.Frequency),
		Invisibility:     lookup(invisibilityMultipliers, task.Invisibility),
		EmotionalLabor:   lookup(emotionalLaborMultipliers, task.EmotionalLabor),
		ResearchImpact:   lookup(researchImpactMultipliers, impact),
		ChildDevelopment: lookup(childDevelopmentMultipliers, task.ChildDevelopment),
		Priority:         PriorityMultiplier(task.Category, p),
		TimeRequired:     lookup(timeRequiredMultipliers, task.TimeRequired),
		Complexity:       lookup(complexityMultipliers, task.Complexity),
		InferredImpact:   inferred,
	}
}

func lookup[K comparable](table map[K]float64, key K) float64 {
	if v, ok := table[key]; ok {
		return v
	}
	return 1.0
}
