package weight

import "github.com/stefanpalsson415/allietosavetheworld-sub011/internal/domain/model"

var frequencyMultipliers = map[model.Frequency]float64{
	model.FrequencyDaily:     1.5,
	model.FrequencySeveral:   1.3,
	model.FrequencyWeekly:    1.2,
	model.FrequencyMonthly:   1.0,
	model.FrequencyQuarterly: 0.8,
	model.FrequencyYearly:    0.7,
	model.FrequencySeasonal:  0.9,
}

var invisibilityMultipliers = map[model.Invisibility]float64{
	model.InvisibilityHighly:     1.0,
	model.InvisibilityPartially:  1.2,
	model.InvisibilityMostly:     1.35,
	model.InvisibilityCompletely: 1.5,
}

var emotionalLaborMultipliers = map[model.EmotionalLabor]float64{
	model.EmotionalLaborMinimal:  1.0,
	model.EmotionalLaborLow:      1.1,
	model.EmotionalLaborModerate: 1.2,
	model.EmotionalLaborHigh:     1.3,
	model.EmotionalLaborExtreme:  1.4,
}

var researchImpactMultipliers = map[model.ResearchImpact]float64{
	model.ResearchImpactHigh:     1.3,
	model.ResearchImpactMedium:   1.15,
	model.ResearchImpactStandard: 1.0,
}

var childDevelopmentMultipliers = map[model.ChildDevelopment]float64{
	model.ChildDevelopmentHigh:     1.25,
	model.ChildDevelopmentModerate: 1.15,
	model.ChildDevelopmentLimited:  1.0,
}

var timeRequiredMultipliers = map[model.TimeRequired]float64{
	model.TimeMinimal:     0.8,
	model.TimeShort:       0.9,
	model.TimeModerate:    1.0,
	model.TimeExtended:    1.2,
	model.TimeSignificant: 1.4,
}

var complexityMultipliers = map[model.Complexity]float64{
	model.ComplexitySimple:      0.9,
	model.ComplexityBasic:       1.0,
	model.ComplexityModerate:    1.1,
	model.ComplexityComplex:     1.2,
	model.ComplexitySpecialized: 1.3,
}

// Priority multipliers.
const (
	PriorityHighest   = 1.5
	PrioritySecondary = 1.3
	PriorityTertiary  = 1.1
	PriorityNone      = 1.0
)

var defaultCategoryWeights = map[string]float64{
	model.CategoryVisibleHousehold:   1.0,
	model.CategoryInvisibleHousehold: 1.2,
	model.CategoryVisibleParental:    1.1,
	model.CategoryInvisibleParental:  1.5,
	model.CategoryAdministrative:     1.3,
	model.CategoryFinancial:          1.2,
	model.CategoryEmotionalSupport:   1.4,
	model.CategoryHealthcare:         1.3,
	model.CategoryEducation:          1.2,
	model.CategorySocial:             1.1,
}

// Keyword lists for research impact inference. Matching is by lower-cased
// substring against the description and category.
var defaultHighImpactKeywords = []string{
	"emotional", "mental load", "anticipat", "worry", "child development",
	"bedtime", "homework", "medical", "doctor", "health", "therapy",
	"conflict", "comfort", "milestone", "school",
}

var defaultMediumImpactKeywords = []string{
	"meal", "schedule", "planning", "appointment", "activities", "routine",
	"budget", "bills", "birthday", "gift", "social", "playdate",
}
