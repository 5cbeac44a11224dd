package weight

// Option applies a configuration option to the Calculator.
type Option func(*Calculator)

// WithCategoryWeights overrides the per-category base weights used by the
// survey balance. Non-positive values are ignored.
func WithCategoryWeights(weights map[string]float64) Option {
	return func(c *Calculator) {
		for category, w := range weights {
			if w > 0 {
				c.categoryWeights[category] = w
			}
		}
	}
}

// WithResearchKeywords replaces the keyword lists used to infer research
// impact. An empty list keeps the default for that level.
func WithResearchKeywords(high, medium []string) Option {
	return func(c *Calculator) {
		if len(high) > 0 {
			c.highKeywords = append([]string(nil), high...)
		}
		if len(medium) > 0 {
			c.mediumKeywords = append([]string(nil), medium...)
		}
	}
}
