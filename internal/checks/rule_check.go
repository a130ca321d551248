package checks

import (
	"context"

	"github.com/example/wp-plugin-qa/internal/report"
	"github.com/example/wp-plugin-qa/internal/rules"
)

// RuleCheck runs one scanner rule over every candidate file.
type RuleCheck struct {
	Rule rules.Rule
}

func (c *RuleCheck) Name() string             { return c.Rule.Name }
func (c *RuleCheck) Title() string            { return c.Rule.Title }
func (c *RuleCheck) Severity() rules.Severity { return c.Rule.Severity }

// Run scans files in walk order. Unreadable, binary and oversized files are logged and skipped.
func (c *RuleCheck) Run(ctx context.Context, rc *RunContext) (report.Section, error) {
	scanner := rc.Scanner
	if scanner == nil {
		scanner = rules.NewScanner()
	}

	collector := report.NewCollector(c.Rule)
	for _, candidate := range rc.Files {
		findings, err := scanner.Scan(candidate, c.Rule)
		if err != nil {
			rc.logger().Warnw("skipping file", "check", c.Rule.Name, "path", candidate.Rel, "error", err)
			continue
		}
		if err := collector.Add(findings...); err != nil {
			return report.Section{}, err
		}
	}
	return collector.Section(), nil
}
