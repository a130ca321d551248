package report

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/owenrumney/go-sarif/v2/sarif"

	"github.com/example/wp-plugin-qa/internal/rules"
)

const (
	toolName = "wp-plugin-qa"
	toolURI  = "https://github.com/example/wp-plugin-qa"
)

// BuildSARIF converts the located findings of every section into a SARIF 2.1.0 report.
// Sections holding only raw tool output contribute nothing.
func BuildSARIF(sections []Section) (*sarif.Report, error) {
	report, err := sarif.New(sarif.Version210)
	if err != nil {
		return nil, fmt.Errorf("failed to create SARIF report: %w", err)
	}

	run := sarif.NewRunWithInformationURI(toolName, toolURI)
	for _, s := range sections {
		if len(s.Findings) == 0 {
			continue
		}
		level := sarifLevel(s.Severity)
		rule := run.AddRule(s.Check).
			WithDescription(s.Title).
			WithDefaultConfiguration(&sarif.ReportingConfiguration{Level: level})

		for _, f := range s.Findings {
			physical := sarif.NewPhysicalLocation().
				WithArtifactLocation(sarif.NewArtifactLocation().WithUri(f.Path))
			if f.Line > 0 {
				physical = physical.WithRegion(sarif.NewRegion().WithStartLine(f.Line))
			}

			message := f.Text
			if f.Matcher != "" {
				message = "[" + f.Matcher + "] " + f.Text
			}

			result := sarif.NewRuleResult(rule.ID).
				WithMessage(sarif.NewTextMessage(message)).
				WithLevel(level).
				WithLocations([]*sarif.Location{sarif.NewLocation().WithPhysicalLocation(physical)})
			run.AddResult(result)
		}
	}
	report.AddRun(run)
	return report, nil
}

// WriteSARIF writes findings.sarif into the report directory.
func (w *Writer) WriteSARIF(sections []Section) (string, error) {
	if err := w.ensureDir(); err != nil {
		return "", err
	}

	report, err := BuildSARIF(sections)
	if err != nil {
		return "", err
	}

	path := filepath.Join(w.Dir, SARIFFile)
	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("error writing SARIF report: %w", err)
	}
	defer func() { _ = file.Close() }()

	if err := report.PrettyWrite(file); err != nil {
		return "", err
	}
	return path, nil
}

func sarifLevel(severity rules.Severity) string {
	switch severity {
	case rules.SeverityCritical:
		return "error"
	case rules.SeverityReview:
		return "warning"
	default:
		return "note"
	}
}
