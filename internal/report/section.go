package report

import (
	"fmt"
	"strings"

	"github.com/example/wp-plugin-qa/internal/rules"
)

// Names of sections that are not backed by a scanner rule.
const (
	CheckSyntax          = "syntax"
	CheckCodingStandards = "coding-standards"
	CheckCompatibility   = "php-compatibility"
	CheckActivation      = "activation"
)

// Status is the outcome of a single check.
type Status string

const (
	StatusClean    Status = "clean"
	StatusFindings Status = "findings"
	StatusFailed   Status = "failed"
	StatusSkipped  Status = "skipped"
)

// Section is the aggregated result of one check and backs exactly one artifact.
type Section struct {
	Check    string          `json:"check"`
	Title    string          `json:"title"`
	Severity rules.Severity  `json:"severity"`
	Findings []rules.Finding `json:"findings,omitempty"`
	// Raw is tool output captured verbatim.
	Raw     string `json:"raw,omitempty"`
	Count   int    `json:"count"`
	Failure string `json:"failure,omitempty"`
	Skipped string `json:"skipped,omitempty"`
	// Blocking is set for sections whose findings forbid executing plugin code.
	Blocking bool `json:"-"`
}

// Status derives the section outcome.
func (s Section) Status() Status {
	switch {
	case s.Skipped != "":
		return StatusSkipped
	case s.Failure != "":
		return StatusFailed
	case s.Count > 0:
		return StatusFindings
	default:
		return StatusClean
	}
}

// Collector accumulates the findings of one rule.
type Collector struct {
	rule     rules.Rule
	findings []rules.Finding
}

// NewCollector starts an empty collection for rule.
func NewCollector(rule rules.Rule) *Collector {
	return &Collector{rule: rule}
}

// Add appends findings. Findings of other rules are rejected.
func (c *Collector) Add(findings ...rules.Finding) error {
	for _, f := range findings {
		if f.Rule != c.rule.Name {
			return fmt.Errorf("finding for rule %s added to section %s", f.Rule, c.rule.Name)
		}
	}
	c.findings = append(c.findings, findings...)
	return nil
}

// Section builds the report section with the rule's static severity.
func (c *Collector) Section() Section {
	return Section{
		Check:    c.rule.Name,
		Title:    c.rule.Title,
		Severity: c.rule.Severity,
		Findings: append([]rules.Finding(nil), c.findings...),
		Count:    len(c.findings),
		Blocking: c.rule.BlocksExecution,
	}
}

// RawSection wraps verbatim tool output. count is the number of non-empty output lines.
func RawSection(check, title string, severity rules.Severity, raw string) Section {
	return Section{
		Check:    check,
		Title:    title,
		Severity: severity,
		Raw:      raw,
		Count:    countLines(raw),
	}
}

// FailedSection records a check that could not complete.
func FailedSection(check, title string, severity rules.Severity, err error) Section {
	return Section{Check: check, Title: title, Severity: severity, Failure: err.Error()}
}

// SkippedSection records a check that was not run.
func SkippedSection(check, title string, severity rules.Severity, reason string) Section {
	return Section{Check: check, Title: title, Severity: severity, Skipped: reason}
}

func countLines(raw string) int {
	n := 0
	for _, line := range strings.Split(raw, "\n") {
		if strings.TrimSpace(line) != "" {
			n++
		}
	}
	return n
}
