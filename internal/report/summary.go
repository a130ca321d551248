package report

import (
	"fmt"

	"github.com/example/wp-plugin-qa/internal/rules"
	"github.com/example/wp-plugin-qa/internal/target"
)

// Activation probe states recorded in the summary.
const (
	ActivationPassed   = "passed"
	ActivationFailed   = "failed"
	ActivationSkipped  = "skipped"
	ActivationDisabled = "disabled"
)

// ActivationStep is one external call made by the activation probe.
type ActivationStep struct {
	Action   string `json:"action"`
	ExitCode int    `json:"exitCode"`
	Output   string `json:"output,omitempty"`
	Error    string `json:"error,omitempty"`
}

// Activation is the probe outcome folded into the summary.
type Activation struct {
	State  string           `json:"state"`
	Detail string           `json:"detail,omitempty"`
	Steps  []ActivationStep `json:"steps,omitempty"`
}

// Section renders the probe outcome as the activation report section.
func (a Activation) Section() Section {
	s := Section{
		Check:    CheckActivation,
		Title:    "Plugin activation probe",
		Severity: rules.SeverityCritical,
	}

	switch a.State {
	case ActivationSkipped, ActivationDisabled:
		s.Skipped = a.Detail
		return s
	}

	var raw string
	for _, step := range a.Steps {
		line := fmt.Sprintf("%s: exit %d", step.Action, step.ExitCode)
		if step.Error != "" {
			line += ": " + step.Error
			s.Count++
		}
		raw += line + "\n"
		if step.Output != "" {
			raw += indent(step.Output) + "\n"
		}
	}
	s.Raw = raw
	if a.State == ActivationFailed && s.Count == 0 {
		s.Count = 1
	}
	return s
}

// SectionSummary is one row of the overview table.
type SectionSummary struct {
	Check    string         `json:"check"`
	Title    string         `json:"title"`
	Count    int            `json:"count"`
	Severity rules.Severity `json:"severity"`
	Status   Status         `json:"status"`
}

// Summary is the terminal artifact of a run.
type Summary struct {
	Plugin            string           `json:"plugin"`
	Root              string           `json:"root"`
	Revision          *target.Revision `json:"revision,omitempty"`
	Checks            []SectionSummary `json:"checks"`
	TotalFindings     int              `json:"totalFindings"`
	FailedChecks      int              `json:"failedChecks"`
	ActivationSkipped bool             `json:"activationSkipped"`
	SkipReason        string           `json:"skipReason,omitempty"`
	Activation        Activation       `json:"activation"`
	Recommendations   []string         `json:"recommendations"`
}

// Aggregator collects sections in check order.
type Aggregator struct {
	sections []Section
}

// Record appends a finished section.
func (a *Aggregator) Record(sections ...Section) {
	a.sections = append(a.sections, sections...)
}

// Sections returns the recorded sections in order.
func (a *Aggregator) Sections() []Section {
	return append([]Section(nil), a.sections...)
}

// ActivationGate reports whether the activation probe must be skipped because a blocking
// section has findings.
func (a *Aggregator) ActivationGate() (skip bool, reason string) {
	for _, s := range a.sections {
		if s.Blocking && s.Count > 0 {
			return true, fmt.Sprintf("%s found %d finding(s); plugin code is not executed", s.Check, s.Count)
		}
	}
	return false, ""
}

// Summary builds the run summary. The activation outcome is taken as given; a skipped
// outcome marks the summary skipped with its detail as the reason.
func (a *Aggregator) Summary(t target.ScanTarget, rev *target.Revision, activation Activation) Summary {
	sum := Summary{
		Plugin:     t.Name,
		Root:       t.Root,
		Revision:   rev,
		Activation: activation,
	}
	sum.ActivationSkipped, sum.SkipReason = a.ActivationGate()
	if activation.State == ActivationSkipped {
		sum.ActivationSkipped = true
		if activation.Detail != "" {
			sum.SkipReason = activation.Detail
		}
	}

	counts := map[string]int{}
	for _, s := range a.sections {
		status := s.Status()
		sum.Checks = append(sum.Checks, SectionSummary{
			Check:    s.Check,
			Title:    s.Title,
			Count:    s.Count,
			Severity: s.Severity,
			Status:   status,
		})
		if status == StatusFailed {
			sum.FailedChecks++
		}
		if s.Check != CheckActivation {
			sum.TotalFindings += s.Count
		}
		counts[s.Check] = s.Count
	}
	sum.Recommendations = Recommend(a.sections, counts)
	return sum
}
