package match

import (
	"strings"

	"carespace-backend/config"
)

// CompatibilityHigh is the only strength currently emitted.
const CompatibilityHigh = "High"

// SpecialtyRules decides whether a space category suits a specialty. The
// first rule whose specialty keyword matches decides; specialties matching
// no rule are compatible with every category.
type SpecialtyRules struct {
	rules []config.SpecialtyRule
}

// NewSpecialtyRules creates the rule set.
func NewSpecialtyRules(rules []config.SpecialtyRule) *SpecialtyRules {
	normalized := make([]config.SpecialtyRule, len(rules))
	for i, r := range rules {
		normalized[i] = config.SpecialtyRule{
			SpecialtyKeywords: lowerAll(r.SpecialtyKeywords),
			CategoryKeywords:  lowerAll(r.CategoryKeywords),
		}
	}
	return &SpecialtyRules{rules: normalized}
}

// Compatible reports whether a doctor of specialty may use a space of
// category.
func (s *SpecialtyRules) Compatible(specialty, category string) bool {
	sp := strings.ToLower(specialty)
	for _, r := range s.rules {
		if containsAny(sp, r.SpecialtyKeywords) {
			return containsAny(strings.ToLower(category), r.CategoryKeywords)
		}
	}
	return true
}
