package model

// Task factor levels. Values outside these sets are accepted and weigh 1.0.
type (
	Frequency        string
	Invisibility     string
	EmotionalLabor   string
	ResearchImpact   string
	ChildDevelopment string
	TimeRequired     string
	Complexity       string
)

// Frequency levels.
const (
	FrequencyDaily     Frequency = "daily"
	FrequencySeveral   Frequency = "several"
	FrequencyWeekly    Frequency = "weekly"
	FrequencyMonthly   Frequency = "monthly"
	FrequencyQuarterly Frequency = "quarterly"
	FrequencyYearly    Frequency = "yearly"
	FrequencySeasonal  Frequency = "seasonal"
)

// Invisibility levels.
const (
	InvisibilityHighly     Invisibility = "highly"
	InvisibilityPartially  Invisibility = "partially"
	InvisibilityMostly     Invisibility = "mostly"
	InvisibilityCompletely Invisibility = "completely"
)

// Emotional labor levels.
const (
	EmotionalLaborMinimal  EmotionalLabor = "minimal"
	EmotionalLaborLow      EmotionalLabor = "low"
	EmotionalLaborModerate EmotionalLabor = "moderate"
	EmotionalLaborHigh     EmotionalLabor = "high"
	EmotionalLaborExtreme  EmotionalLabor = "extreme"
)

// Research impact levels.
const (
	ResearchImpactHigh     ResearchImpact = "high"
	ResearchImpactMedium   ResearchImpact = "medium"
	ResearchImpactStandard ResearchImpact = "standard"
)

// Child development impact levels.
const (
	ChildDevelopmentHigh     ChildDevelopment = "high"
	ChildDevelopmentModerate ChildDevelopment = "moderate"
	ChildDevelopmentLimited  ChildDevelopment = "limited"
)

// Time required levels.
const (
	TimeMinimal     TimeRequired = "minimal"
	TimeShort       TimeRequired = "short"
	TimeModerate    TimeRequired = "moderate"
	TimeExtended    TimeRequired = "extended"
	TimeSignificant TimeRequired = "significant"
)

// Complexity levels.
const (
	ComplexitySimple      Complexity = "simple"
	ComplexityBasic       Complexity = "basic"
	ComplexityModerate    Complexity = "moderate"
	ComplexityComplex     Complexity = "complex"
	ComplexitySpecialized Complexity = "specialized"
)

// DefaultBaseWeight is used when a task carries no positive base weight.
const DefaultBaseWeight = 3.0

// TaskDescriptor is immutable reference data describing one household or
// parenting task. ResearchImpact may be left empty to have it inferred from
// Description and Category.
type TaskDescriptor struct {
	Category         string           `json:"category"`
	Frequency        Frequency        `json:"frequency,omitempty"`
	Invisibility     Invisibility     `json:"invisibility,omitempty"`
	EmotionalLabor   EmotionalLabor   `json:"emotionalLabor,omitempty"`
	ResearchImpact   ResearchImpact   `json:"researchImpact,omitempty"`
	ChildDevelopment ChildDevelopment `json:"childDevelopment,omitempty"`
	BaseWeight       float64          `json:"baseWeight,omitempty"`
	Description      string           `json:"description,omitempty"`
	TimeRequired     TimeRequired     `json:"timeRequired,omitempty"`
	Complexity       Complexity       `json:"complexity,omitempty"`
}

// FamilyPriorities names the categories a family cares about most.
type FamilyPriorities struct {
	Highest   string `json:"highestPriority,omitempty"`
	Secondary string `json:"secondaryPriority,omitempty"`
	Tertiary  string `json:"tertiaryPriority,omitempty"`
}

// Survey categories.
const (
	CategoryVisibleHousehold   = "Visible Household Tasks"
	CategoryInvisibleHousehold = "Invisible Household Tasks"
	CategoryVisibleParental    = "Visible Parental Tasks"
	CategoryInvisibleParental  = "Invisible Parental Tasks"
	CategoryAdministrative     = "Administrative Tasks"
	CategoryFinancial          = "Financial Tasks"
	CategoryEmotionalSupport   = "Emotional Support"
	CategoryHealthcare         = "Healthcare Management"
	CategoryEducation          = "Education Support"
	CategorySocial             = "Social Management"
)

// CoreCategories are the four categories the task distribution sub-score reads.
func CoreCategories() []string {
	return []string{
		CategoryVisibleHousehold,
		CategoryInvisibleHousehold,
		CategoryVisibleParental,
		CategoryInvisibleParental,
	}
}

// SurveyCategories lists every category the survey balance tracks, in display order.
func SurveyCategories() []string {
	return []string{
		CategoryVisibleHousehold,
		CategoryInvisibleHousehold,
		CategoryVisibleParental,
		CategoryInvisibleParental,
		CategoryAdministrative,
		CategoryFinancial,
		CategoryEmotionalSupport,
		CategoryHealthcare,
		CategoryEducation,
		CategorySocial,
	}
}
