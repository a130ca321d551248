package checks

import (
	"context"
	"fmt"
	"strings"

	"github.com/example/wp-plugin-qa/internal/bridge"
	"github.com/example/wp-plugin-qa/internal/report"
	"github.com/example/wp-plugin-qa/internal/rules"
)

// Linter runs a PHP_CodeSniffer standard over a tree.
type Linter interface {
	Check(ctx context.Context, in bridge.CodingStandardsInput) (bridge.Output, error)
}

// SyntaxChecker lints individual PHP files.
type SyntaxChecker interface {
	SyntaxCheck(ctx context.Context, files []string) (bridge.SyntaxResult, error)
}

// StandardCheck runs one phpcs standard and keeps its report verbatim.
type StandardCheck struct {
	CheckName  string
	CheckTitle string
	Standard   string
	// Versioned passes the run's PHP version as testVersion.
	Versioned bool
	Linter    Linter
}

// NewCodingStandardsCheck checks the tree against a coding standard such as WordPress.
func NewCodingStandardsCheck(linter Linter, standard string) *StandardCheck {
	return &StandardCheck{
		CheckName:  report.CheckCodingStandards,
		CheckTitle: "Coding standards (" + standard + ")",
		Standard:   standard,
		Linter:     linter,
	}
}

// NewCompatibilityCheck checks the tree against the configured PHP versions.
func NewCompatibilityCheck(linter Linter, standard string) *StandardCheck {
	return &StandardCheck{
		CheckName:  report.CheckCompatibility,
		CheckTitle: "PHP compatibility (" + standard + ")",
		Standard:   standard,
		Versioned:  true,
		Linter:     linter,
	}
}

func (c *StandardCheck) Name() string             { return c.CheckName }
func (c *StandardCheck) Title() string            { return c.CheckTitle }
func (c *StandardCheck) Severity() rules.Severity { return rules.SeverityReview }

// Run invokes phpcs unless the tree has no PHP files. A tool failure keeps the captured output.
func (c *StandardCheck) Run(ctx context.Context, rc *RunContext) (report.Section, error) {
	if len(rc.PHPFiles()) == 0 {
		return report.RawSection(c.CheckName, c.CheckTitle, c.Severity(), ""), nil
	}

	in := bridge.CodingStandardsInput{
		Root:       rc.Target.Root,
		Standard:   c.Standard,
		Exclusions: rc.Exclusions.Names(),
	}
	if c.Versioned {
		in.PHPVersion = rc.PHPVersion
	}

	out, err := c.Linter.Check(ctx, in)
	if err != nil {
		s := report.FailedSection(c.CheckName, c.CheckTitle, c.Severity(), err)
		s.Raw = out.Combined()
		return s, nil
	}
	return report.RawSection(c.CheckName, c.CheckTitle, c.Severity(), out.Stdout), nil
}

// SyntaxCheck runs php -l over every PHP candidate.
type SyntaxCheck struct {
	Checker SyntaxChecker
}

var syntaxRule = rules.Rule{
	Name:     report.CheckSyntax,
	Title:    "PHP syntax",
	Severity: rules.SeverityCritical,
}

func (c *SyntaxCheck) Name() string             { return syntaxRule.Name }
func (c *SyntaxCheck) Title() string            { return syntaxRule.Title }
func (c *SyntaxCheck) Severity() rules.Severity { return syntaxRule.Severity }

// Run reports one finding per file the linter rejects, located at the reported line when known.
func (c *SyntaxCheck) Run(ctx context.Context, rc *RunContext) (report.Section, error) {
	files := rc.PHPFiles()
	collector := report.NewCollector(syntaxRule)
	if len(files) == 0 {
		return collector.Section(), nil
	}

	paths := make([]string, 0, len(files))
	rel := make(map[string]string, len(files))
	for _, f := range files {
		paths = append(paths, f.Path)
		rel[f.Path] = f.Rel
	}

	result, runErr := c.Checker.SyntaxCheck(ctx, paths)
	if runErr != nil && ctx.Err() != nil {
		return report.Section{}, runErr
	}
	for _, failure := range result.Failing {
		path := rel[failure.Path]
		if path == "" {
			path = failure.Path
		}
		text := strings.ReplaceAll(strings.TrimSpace(failure.Message), failure.Path, path)
		if text == "" {
			text = "php -l rejected the file"
		}
		if err := collector.Add(rules.Finding{Rule: syntaxRule.Name, Matcher: "php -l", Path: path, Line: failure.Line, Text: text}); err != nil {
			return report.Section{}, err
		}
	}

	section := collector.Section()
	if runErr != nil {
		// Files rejected before the failing call stay in the section.
		rc.logger().Warnw("syntax check stopped early", "checked", result.Checked, "files", len(paths), "error", runErr)
		section.Failure = fmt.Sprintf("%v (after %d of %d files)", runErr, result.Checked, len(paths))
	}
	return section, nil
}
