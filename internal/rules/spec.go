package rules

import (
	"fmt"
	"regexp"
	"strings"
)

// Spec is the configuration-file form of a rule.
type Spec struct {
	Name            string   `yaml:"name"`
	Title           string   `yaml:"title,omitempty"`
	Kind            string   `yaml:"kind"`
	Patterns        []string `yaml:"patterns"`
	Exclude         string   `yaml:"exclude,omitempty"`
	Extensions      []string `yaml:"extensions,omitempty"`
	Severity        string   `yaml:"severity,omitempty"`
	CaseInsensitive bool     `yaml:"caseInsensitive,omitempty"`
	Message         string   `yaml:"message,omitempty"`
}

// Compile validates spec and turns it into a Rule. For absence rules the patterns are
// guard substrings, for function rules function names, and for line rules regular expressions.
func Compile(spec Spec) (Rule, error) {
	name := strings.TrimSpace(spec.Name)
	if name == "" {
		return Rule{}, fmt.Errorf("rule name is required")
	}
	if len(spec.Patterns) == 0 {
		return Rule{}, fmt.Errorf("rule %s: at least one pattern is required", name)
	}

	severity, err := ParseSeverity(spec.Severity)
	if err != nil {
		return Rule{}, fmt.Errorf("rule %s: %w", name, err)
	}

	rule := Rule{
		Name:       name,
		Title:      spec.Title,
		Kind:       Kind(strings.ToLower(strings.TrimSpace(spec.Kind))),
		Extensions: normalizeExts(spec.Extensions),
		Severity:   severity,
		Message:    spec.Message,
	}
	if rule.Title == "" {
		rule.Title = name
	}
	if len(rule.Extensions) == 0 {
		rule.Extensions = append([]string(nil), phpSource...)
	}

	var exclude *regexp.Regexp
	if spec.Exclude != "" {
		exclude, err = compilePattern(spec.Exclude, spec.CaseInsensitive)
		if err != nil {
			return Rule{}, fmt.Errorf("rule %s: exclude: %w", name, err)
		}
	}

	switch rule.Kind {
	case KindAbsence:
		rule.Guards = append([]string(nil), spec.Patterns...)
	case KindFunction:
		for _, fn := range spec.Patterns {
			m := Function(strings.TrimSpace(fn))
			m.Exclude = exclude
			rule.Matchers = append(rule.Matchers, m)
		}
	case KindLine:
		for _, pattern := range spec.Patterns {
			expr, err := compilePattern(pattern, spec.CaseInsensitive)
			if err != nil {
				return Rule{}, fmt.Errorf("rule %s: %w", name, err)
			}
			rule.Matchers = append(rule.Matchers, Matcher{Label: pattern, Expr: expr, Exclude: exclude})
		}
	default:
		return Rule{}, fmt.Errorf("rule %s: unknown kind %q (absence, line, function)", name, spec.Kind)
	}

	return rule, nil
}

func compilePattern(pattern string, caseInsensitive bool) (*regexp.Regexp, error) {
	if caseInsensitive {
		pattern = "(?i)" + pattern
	}
	return regexp.Compile(pattern)
}

func normalizeExts(exts []string) []string {
	var out []string
	for _, ext := range exts {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		out = append(out, ext)
	}
	return out
}
