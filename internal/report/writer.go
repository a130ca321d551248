package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	// NoneFound is written in place of findings when a check found nothing.
	NoneFound = "None found."

	SummaryFile = "summary.txt"
	JSONFile    = "summary.json"
	SARIFFile   = "findings.sarif"
)

// Writer serializes sections and summaries into a report directory.
type Writer struct {
	Dir string
	Now func() time.Time
}

// NewWriter returns a writer for dir using the wall clock.
func NewWriter(dir string) *Writer {
	return &Writer{Dir: dir, Now: time.Now}
}

func (w *Writer) timestamp() string {
	now := time.Now
	if w.Now != nil {
		now = w.Now
	}
	return now().UTC().Format(time.RFC3339)
}

func (w *Writer) ensureDir() error {
	if w.Dir == "" {
		return fmt.Errorf("report directory cannot be empty")
	}
	return os.MkdirAll(w.Dir, 0o755)
}

// SectionPath returns the artifact path for a check.
func (w *Writer) SectionPath(check string) string {
	return filepath.Join(w.Dir, check+".txt")
}

// WriteSection writes the artifact for one section and returns its path.
func (w *Writer) WriteSection(s Section) (string, error) {
	if err := w.ensureDir(); err != nil {
		return "", err
	}

	var b strings.Builder
	heading(&b, s.Title)
	fmt.Fprintf(&b, "Check:     %s\n", s.Check)
	fmt.Fprintf(&b, "Severity:  %s\n", s.Severity)
	fmt.Fprintf(&b, "Status:    %s\n", s.Status())
	fmt.Fprintf(&b, "Generated: %s\n\n", w.timestamp())

	switch {
	case s.Skipped != "":
		fmt.Fprintf(&b, "Skipped: %s\n", s.Skipped)
	case s.Failure != "":
		fmt.Fprintf(&b, "Check failed: %s\n", s.Failure)
		for i, f := range s.Findings {
			if i == 0 {
				b.WriteString("\n")
			}
			b.WriteString(f.String() + "\n")
		}
		if s.Raw != "" {
			b.WriteString("\n" + strings.TrimRight(s.Raw, "\n") + "\n")
		}
	case len(s.Findings) > 0:
		for _, f := range s.Findings {
			b.WriteString(f.String() + "\n")
		}
	case strings.TrimSpace(s.Raw) != "":
		b.WriteString(strings.TrimRight(s.Raw, "\n") + "\n")
	default:
		b.WriteString(NoneFound + "\n")
	}

	fmt.Fprintf(&b, "\nTotal: %d\n", s.Count)

	path := w.SectionPath(s.Check)
	return path, os.WriteFile(path, []byte(b.String()), 0o644)
}

// WriteSummary writes the overview artifact.
func (w *Writer) WriteSummary(sum Summary) (string, error) {
	if err := w.ensureDir(); err != nil {
		return "", err
	}

	var b strings.Builder
	heading(&b, "QA summary for "+sum.Plugin)
	fmt.Fprintf(&b, "Root:      %s\n", sum.Root)
	if sum.Revision != nil {
		fmt.Fprintf(&b, "Revision:  %s\n", sum.Revision)
	}
	fmt.Fprintf(&b, "Generated: %s\n\n", w.timestamp())

	fmt.Fprintf(&b, "%-24s %6s  %-13s  %s\n", "CHECK", "COUNT", "SEVERITY", "STATUS")
	fmt.Fprintf(&b, "%-24s %6s  %-13s  %s\n", strings.Repeat("-", 24), strings.Repeat("-", 6), strings.Repeat("-", 13), strings.Repeat("-", 8))
	for _, row := range sum.Checks {
		fmt.Fprintf(&b, "%-24s %6d  %-13s  %s\n", row.Check, row.Count, row.Severity, row.Status)
	}

	fmt.Fprintf(&b, "\nTotal findings: %d\n", sum.TotalFindings)
	fmt.Fprintf(&b, "Failed checks:  %d\n\n", sum.FailedChecks)

	fmt.Fprintf(&b, "Activation tests skipped: %t\n", sum.ActivationSkipped)
	if sum.SkipReason != "" {
		fmt.Fprintf(&b, "Skip reason: %s\n", sum.SkipReason)
	}
	fmt.Fprintf(&b, "Activation probe: %s", sum.Activation.State)
	if sum.Activation.Detail != "" {
		fmt.Fprintf(&b, " (%s)", sum.Activation.Detail)
	}
	b.WriteString("\n\n")

	if len(sum.Recommendations) == 0 {
		b.WriteString("Recommendations: none\n")
	} else {
		b.WriteString("Recommendations:\n")
		for _, rec := range sum.Recommendations {
			b.WriteString("- " + rec + "\n")
		}
	}

	path := filepath.Join(w.Dir, SummaryFile)
	return path, os.WriteFile(path, []byte(b.String()), 0o644)
}

// WriteJSON writes the summary and sections as indented JSON.
func (w *Writer) WriteJSON(sum Summary, sections []Section) (string, error) {
	if err := w.ensureDir(); err != nil {
		return "", err
	}

	payload := struct {
		GeneratedAt string    `json:"generatedAt"`
		Summary     Summary   `json:"summary"`
		Sections    []Section `json:"sections"`
	}{
		GeneratedAt: w.timestamp(),
		Summary:     sum,
		Sections:    sections,
	}

	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return "", err
	}

	path := filepath.Join(w.Dir, JSONFile)
	return path, os.WriteFile(path, append(data, '\n'), 0o644)
}

func heading(b *strings.Builder, title string) {
	b.WriteString(title + "\n")
	b.WriteString(strings.Repeat("=", len(title)) + "\n")
}

func indent(text string) string {
	lines := strings.Split(strings.TrimRight(text, "\n"), "\n")
	for i, line := range lines {
		lines[i] = "    " + line
	}
	return strings.Join(lines, "\n")
}
