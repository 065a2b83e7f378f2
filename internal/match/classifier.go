// Package match holds the keyword tables that decide which spaces suit an
// activity and which spaces suit a doctor's specialty.
package match

import (
	"strings"

	"carespace-backend/config"
	"carespace-backend/internal/model"
)

// Classifier maps free-text activity labels to suitable spaces. Rules are
// tried in order and the first whose activity keyword appears in the label
// wins.
type Classifier struct {
	rules []config.ActivityRule
}

// NewClassifier creates a classifier over rules. Keywords are compared
// case-insensitively.
func NewClassifier(rules []config.ActivityRule) *Classifier {
	normalized := make([]config.ActivityRule, len(rules))
	for i, r := range rules {
		normalized[i] = config.ActivityRule{
			ActivityKeywords: lowerAll(r.ActivityKeywords),
			UsesKeywords:     lowerAll(r.UsesKeywords),
			CategoryKeywords: lowerAll(r.CategoryKeywords),
			Specialty:        r.Specialty,
		}
	}
	return &Classifier{rules: normalized}
}

func (c *Classifier) ruleFor(activity string) (config.ActivityRule, bool) {
	a := strings.ToLower(strings.TrimSpace(activity))
	if a == "" {
		return config.ActivityRule{}, false
	}
	for _, r := range c.rules {
		if containsAny(a, r.ActivityKeywords) {
			return r, true
		}
	}
	return config.ActivityRule{}, false
}

// RoomKeywordsFor returns the uses and category keywords acceptable for
// activity. A nil result means every space is acceptable.
func (c *Classifier) RoomKeywordsFor(activity string) []string {
	r, ok := c.ruleFor(activity)
	if !ok {
		return nil
	}
	keywords := make([]string, 0, len(r.UsesKeywords)+len(r.CategoryKeywords))
	seen := make(map[string]bool)
	for _, k := range append(append([]string{}, r.UsesKeywords...), r.CategoryKeywords...) {
		if !seen[k] {
			seen[k] = true
			keywords = append(keywords, k)
		}
	}
	return keywords
}

// SpecialtyFor returns the specialty keyword associated with activity, or
// "" when no rule names one.
func (c *Classifier) SpecialtyFor(activity string) string {
	r, _ := c.ruleFor(activity)
	return r.Specialty
}

// Admits reports whether space suits activity. Activities matching no rule
// admit every space.
func (c *Classifier) Admits(activity string, space model.Space) bool {
	r, ok := c.ruleFor(activity)
	if !ok {
		return true
	}
	return containsAny(strings.ToLower(space.Uses), r.UsesKeywords) ||
		containsAny(strings.ToLower(space.Category), r.CategoryKeywords)
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if k != "" && strings.Contains(s, k) {
			return true
		}
	}
	return false
}

func lowerAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.ToLower(strings.TrimSpace(s)); s != "" {
			out = append(out, s)
		}
	}
	return out
}
