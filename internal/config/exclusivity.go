package config

import (
	"fmt"
	"strings"
)

// ExclusivityRule names the sibling datasets of every dataset whose name
// starts with Prefix. An empty prefix matches every dataset.
type ExclusivityRule struct {
	Prefix   string   `yaml:"prefix"`
	Siblings []string `yaml:"siblings"`
}

// ExclusivityRules decide which datasets may not share an article.
type ExclusivityRules []ExclusivityRule

// DefaultExclusivityRules keeps test data out of the tve set and every
// other set out of the test sets.
func DefaultExclusivityRules() ExclusivityRules {
	return ExclusivityRules{
		{Prefix: "test", Siblings: []string{"tve"}},
		{Prefix: "", Siblings: []string{"test", "test-clean", "test-spotlight"}},
	}
}

// SiblingsFor returns the siblings of the named dataset. The rule with the
// longest matching prefix wins; no match means no siblings.
func (r ExclusivityRules) SiblingsFor(name string) []string {
	best := -1
	for i, rule := range r {
		if !strings.HasPrefix(name, rule.Prefix) {
			continue
		}
		if best < 0 || len(rule.Prefix) > len(r[best].Prefix) {
			best = i
		}
	}
	if best < 0 {
		return nil
	}
	return r[best].Siblings
}

// Validate rejects rules without siblings and duplicate prefixes.
func (r ExclusivityRules) Validate() error {
	seen := make(map[string]bool, len(r))
	for _, rule := range r {
		if len(rule.Siblings) == 0 {
			return fmt.Errorf("%w: prefix %q has no siblings", ErrInvalidExclusivityRule, rule.Prefix)
		}
		if seen[rule.Prefix] {
			return fmt.Errorf("%w: prefix %q listed twice", ErrInvalidExclusivityRule, rule.Prefix)
		}
		seen[rule.Prefix] = true
	}
	return nil
}
