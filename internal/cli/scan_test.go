package cli

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/example/wp-plugin-qa/internal/report"
	"github.com/example/wp-plugin-qa/internal/sweep"
	"github.com/example/wp-plugin-qa/internal/target"
)

const guardedPlugin = "<?php\ndefined( 'ABSPATH' ) || exit;\nadd_action( 'init', 'demo_init' );\n"

func readSummary(t *testing.T, dir string) summaryArtifact {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(dir, report.JSONFile))
	if err != nil {
		t.Fatalf("read summary: %v", err)
	}
	var artifact summaryArtifact
	if err := json.Unmarshal(data, &artifact); err != nil {
		t.Fatalf("decode summary: %v", err)
	}
	return artifact
}

func TestScanCommandWritesReports(t *testing.T) {
	root := writePlugin(t, map[string]string{"demo-plugin.php": guardedPlugin})
	outputDir := t.TempDir()

	stdout, _, err := execute(newTestApp(t, nil),
		"scan", root,
		"--profile", "quick",
		"--output-dir", outputDir,
		"--formats", "text,json",
		"--skip-activation",
	)
	if err != nil {
		t.Fatalf("scan command failed: %v", err)
	}

	reportDir := filepath.Join(outputDir, "demo-plugin")
	for _, name := range []string{report.SummaryFile, report.JSONFile, "direct-access.txt", "activation.txt"} {
		if _, err := os.Stat(filepath.Join(reportDir, name)); err != nil {
			t.Fatalf("expected %s: %v", name, err)
		}
	}
	if _, err := os.Stat(filepath.Join(reportDir, report.SARIFFile)); !os.IsNotExist(err) {
		t.Fatalf("sarif output was not requested, stat err = %v", err)
	}

	sum := readSummary(t, reportDir).Summary
	if sum.Plugin != "demo-plugin" || sum.TotalFindings != 0 {
		t.Fatalf("unexpected summary %+v", sum)
	}
	if sum.Activation.State != report.ActivationDisabled {
		t.Fatalf("activation state = %q, want disabled", sum.Activation.State)
	}

	if !strings.Contains(stdout, `"type":"run-start"`) || !strings.Contains(stdout, `"type":"run-finished"`) {
		t.Fatalf("expected NDJSON progress events, got:\n%s", stdout)
	}
}

func TestScanCommandProbesActivation(t *testing.T) {
	root := writePlugin(t, map[string]string{"demo-plugin.php": guardedPlugin})
	outputDir := t.TempDir()
	site := &fakeSite{}

	_, _, err := execute(newTestApp(t, site),
		"scan", root,
		"--profile", "quick",
		"--output-dir", outputDir,
		"--formats", "json",
	)
	if err != nil {
		t.Fatalf("scan command failed: %v", err)
	}

	if site.calls[0] != "is-installed" {
		t.Fatalf("site must be checked first, calls = %v", site.calls)
	}
	if site.active {
		t.Fatal("plugin should be left inactive")
	}
	sum := readSummary(t, filepath.Join(outputDir, "demo-plugin")).Summary
	if sum.Activation.State != report.ActivationPassed {
		t.Fatalf("activation = %+v", sum.Activation)
	}
}

func TestScanCommandPreconditionFailure(t *testing.T) {
	root := writePlugin(t, map[string]string{"demo-plugin.php": guardedPlugin})
	outputDir := t.TempDir()
	site := &fakeSite{installErr: errors.New("This does not seem to be a WordPress installation.")}

	_, _, err := execute(newTestApp(t, site), "scan", root, "--output-dir", outputDir, "--profile", "quick")

	var precondition *sweep.PreconditionError
	if !errors.As(err, &precondition) {
		t.Fatalf("expected precondition error, got %v", err)
	}
	if _, err := os.Stat(filepath.Join(outputDir, "demo-plugin")); !os.IsNotExist(err) {
		t.Fatalf("no reports should be written, stat err = %v", err)
	}
}

func TestScanCommandMissingDirectory(t *testing.T) {
	outputDir := t.TempDir()
	_, _, err := execute(newTestApp(t, nil),
		"scan", filepath.Join(t.TempDir(), "absent"),
		"--output-dir", outputDir,
		"--skip-activation",
	)

	var notFound *target.NotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("expected not-found error, got %v", err)
	}
}

func TestScanCommandRejectsInvalidConfig(t *testing.T) {
	root := writePlugin(t, map[string]string{"demo-plugin.php": guardedPlugin})
	_, _, err := execute(newTestApp(t, nil), "scan", root, "--jobs", "0", "--skip-activation")
	if err == nil || !strings.Contains(err.Error(), "jobs") {
		t.Fatalf("expected jobs validation error, got %v", err)
	}
}
