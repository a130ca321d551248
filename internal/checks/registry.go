package checks

import (
	"fmt"
	"sort"

	"github.com/example/wp-plugin-qa/internal/report"
	"github.com/example/wp-plugin-qa/internal/rules"
)

// Tools are the external collaborators handed to check constructors.
type Tools struct {
	Linter         Linter
	Syntax         SyntaxChecker
	Standard       string
	CompatStandard string
}

// Factory builds a check instance.
type Factory func(tools Tools) Check

// Registry maps check names to constructors.
type Registry map[string]Factory

// NewRegistry returns the built-in checks plus one rule check per extra rule.
func NewRegistry(extra ...rules.Rule) (Registry, error) {
	r := Registry{}
	r[report.CheckSyntax] = func(t Tools) Check { return &SyntaxCheck{Checker: t.Syntax} }
	r[report.CheckCodingStandards] = func(t Tools) Check { return NewCodingStandardsCheck(t.Linter, t.Standard) }
	r[report.CheckCompatibility] = func(t Tools) Check { return NewCompatibilityCheck(t.Linter, t.CompatStandard) }
	for _, rule := range rules.Catalog() {
		r.addRule(rule)
	}
	for _, rule := range extra {
		if _, dup := r[rule.Name]; dup {
			return nil, fmt.Errorf("rule %q conflicts with an existing check", rule.Name)
		}
		r.addRule(rule)
	}
	return r, nil
}

func (r Registry) addRule(rule rules.Rule) {
	r[rule.Name] = func(Tools) Check { return &RuleCheck{Rule: rule} }
}

// Names returns every registered check name, sorted.
func (r Registry) Names() []string {
	names := make([]string, 0, len(r))
	for name := range r {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// BuildChecks instantiates checks from the provided names, in order and without duplicates.
func (r Registry) BuildChecks(names []string, tools Tools) ([]Check, error) {
	if len(names) == 0 {
		return nil, nil
	}

	var checks []Check
	seen := map[string]struct{}{}
	for _, name := range names {
		factory, ok := r[name]
		if !ok {
			return nil, fmt.Errorf("unknown check: %s", name)
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		checks = append(checks, factory(tools))
	}
	return checks, nil
}
