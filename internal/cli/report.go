package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/example/wp-plugin-qa/internal/events"
	"github.com/example/wp-plugin-qa/internal/report"
)

// summaryArtifact mirrors the layout of summary.json.
type summaryArtifact struct {
	GeneratedAt string         `json:"generatedAt"`
	Summary     report.Summary `json:"summary"`
}

func newReportCmd() *cobra.Command {
	var inputPath string
	var summaryPath string

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Emit aggregate stats from a summary.json artifact",
		RunE: func(cmd *cobra.Command, args []string) error {
			if inputPath == "" {
				return &UsageError{Err: errors.New("--input is required")}
			}

			data, err := os.ReadFile(inputPath)
			if err != nil {
				return err
			}

			var artifact summaryArtifact
			if err := json.Unmarshal(data, &artifact); err != nil {
				return fmt.Errorf("%s is not a summary artifact: %w", inputPath, err)
			}
			if artifact.Summary.Plugin == "" {
				return fmt.Errorf("%s is not a summary artifact: missing plugin", inputPath)
			}

			stats := summaryStats(inputPath, artifact)

			emitter := events.NewEmitter(cmd.OutOrStdout())
			if err := emitter.Send(events.ReportSummary, artifact.Summary.Plugin, stats); err != nil {
				return err
			}

			if summaryPath != "" {
				if err := writeReportSummary(summaryPath, stats); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Summary written to %s\n", summaryPath)
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&inputPath, "input", "", "Path to a summary.json artifact")
	cmd.Flags().StringVar(&summaryPath, "summary-file", "", "Optional path to store the stats as JSON")
	if err := cmd.MarkFlagRequired("input"); err != nil {
		panic(err)
	}

	return cmd
}

func summaryStats(input string, artifact summaryArtifact) map[string]interface{} {
	sum := artifact.Summary
	bySeverity := map[string]int{}
	byStatus := map[string]int{}
	for _, c := range sum.Checks {
		byStatus[string(c.Status)]++
		// Probe step errors are not findings.
		if c.Check != report.CheckActivation {
			bySeverity[string(c.Severity)] += c.Count
		}
	}

	return map[string]interface{}{
		"input":              input,
		"plugin":             sum.Plugin,
		"generatedAt":        artifact.GeneratedAt,
		"checks":             len(sum.Checks),
		"totalFindings":      sum.TotalFindings,
		"failedChecks":       sum.FailedChecks,
		"findingsBySeverity": bySeverity,
		"checksByStatus":     byStatus,
		"activation":         sum.Activation.State,
		"activationSkipped":  sum.ActivationSkipped,
		"recommendations":    len(sum.Recommendations),
	}
}

func writeReportSummary(path string, stats map[string]interface{}) error {
	data, err := json.MarshalIndent(stats, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o600)
}
