package rules

import (
	"fmt"
	"regexp"
	"strings"
)

// Severity classifies how urgently a finding needs attention.
type Severity string

const (
	SeverityInfo     Severity = "informational"
	SeverityReview   Severity = "review"
	SeverityCritical Severity = "critical"
)

// ParseSeverity accepts the canonical names plus the short forms info and crit.
func ParseSeverity(value string) (Severity, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "informational", "info":
		return SeverityInfo, nil
	case "review", "":
		return SeverityReview, nil
	case "critical", "crit":
		return SeverityCritical, nil
	default:
		return "", fmt.Errorf("unknown severity %q", value)
	}
}

// Kind selects how a rule's patterns are applied to a file.
type Kind string

const (
	// KindAbsence flags a file once when none of the rule's guard strings occur in it.
	KindAbsence Kind = "absence"
	// KindLine flags every line matching a matcher.
	KindLine Kind = "line"
	// KindFunction flags every line containing a call of a named function.
	KindFunction Kind = "function"
)

// Matcher is one labelled pattern of a line or function rule.
type Matcher struct {
	Label   string
	Expr    *regexp.Regexp
	Exclude *regexp.Regexp // matching lines are not reported
	// Extensions narrows the rule's extensions for this matcher only.
	Extensions []string
}

func (m Matcher) applies(ext string) bool {
	return len(m.Extensions) == 0 || containsExt(m.Extensions, ext)
}

// Rule is a named, static check definition.
type Rule struct {
	Name       string
	Title      string
	Kind       Kind
	Guards     []string
	Matchers   []Matcher
	Extensions []string
	Severity   Severity
	// Message is the finding text for absence rules.
	Message string
	// BlocksExecution marks rules whose findings forbid running the plugin's code.
	BlocksExecution bool
}

// Applies reports whether the rule scans files with the given extension.
func (r Rule) Applies(ext string) bool {
	return len(r.Extensions) == 0 || containsExt(r.Extensions, ext)
}

// Finding is one located occurrence of a rule in a file.
type Finding struct {
	Rule    string `json:"rule"`
	Matcher string `json:"matcher,omitempty"`
	Path    string `json:"path"`
	Line    int    `json:"line"`
	Text    string `json:"text"`
}

// String renders the finding as "path:line: [matcher] text".
func (f Finding) String() string {
	if f.Matcher == "" {
		return fmt.Sprintf("%s:%d: %s", f.Path, f.Line, f.Text)
	}
	return fmt.Sprintf("%s:%d: [%s] %s", f.Path, f.Line, f.Matcher, f.Text)
}

// Function builds a matcher for calls of name. The name must not be part of a longer
// identifier, a variable, or a method/static call.
func Function(name string, exts ...string) Matcher {
	return Matcher{
		Label:      name,
		Expr:       regexp.MustCompile(`(?:^|[^\w$>:])` + regexp.QuoteMeta(name) + `\s*\(`),
		Extensions: exts,
	}
}

// Line builds a regular-expression matcher.
func Line(label, expr string) Matcher {
	return Matcher{Label: label, Expr: regexp.MustCompile(expr)}
}

// LineExcept builds a matcher that ignores lines matching exclude.
func LineExcept(label, expr, exclude string) Matcher {
	m := Line(label, expr)
	m.Exclude = regexp.MustCompile(exclude)
	return m
}

func containsExt(list []string, ext string) bool {
	for _, candidate := range list {
		if strings.EqualFold(candidate, ext) {
			return true
		}
	}
	return false
}
