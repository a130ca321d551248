package sweep

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/example/wp-plugin-qa/internal/bridge"
	"github.com/example/wp-plugin-qa/internal/checks"
	"github.com/example/wp-plugin-qa/internal/config"
	"github.com/example/wp-plugin-qa/internal/events"
	"github.com/example/wp-plugin-qa/internal/probe"
	"github.com/example/wp-plugin-qa/internal/report"
	"github.com/example/wp-plugin-qa/internal/rules"
	"github.com/example/wp-plugin-qa/internal/target"
	"github.com/example/wp-plugin-qa/internal/walker"
)

// State is a step of a run.
type State string

const (
	StateInit         State = "init"
	StateResolve      State = "resolve"
	StatePrecondition State = "precondition"
	StateScan         State = "scan"
	StateAggregate    State = "aggregate"
	StateWrite        State = "write"
	StateProbe        State = "probe"
	StateDone         State = "done"
)

// Runner executes one QA sweep over a plugin directory.
type Runner struct {
	Config config.RuntimeConfig
	Tools  checks.Tools
	// Site is required when Config.Activation is set.
	Site   bridge.SiteManager
	Locks  *probe.SiteLocks
	Logger *zap.SugaredLogger
	Events *events.Emitter
	Now    func() time.Time
}

// Result describes what a run produced.
type Result struct {
	Target    target.ScanTarget
	ReportDir string
	Sections  []report.Section
	Summary   report.Summary
	Artifacts []string
}

func (r *Runner) logger() *zap.SugaredLogger {
	if r.Logger == nil {
		return zap.NewNop().Sugar()
	}
	return r.Logger
}

func (r *Runner) enter(state State) {
	r.logger().Debugw("sweep state", "state", state)
}

func (r *Runner) emit(typ, message string, fields map[string]interface{}) {
	if err := r.Events.Send(typ, message, fields); err != nil {
		r.logger().Warnw("failed to emit event", "type", typ, "error", err)
	}
}

// Run resolves input, runs the configured checks, writes every artifact and, unless
// skipped, probes plugin activation. Resolution and precondition failures return before
// anything is written. Later failures are returned after the reports exist.
func (r *Runner) Run(ctx context.Context, input string) (Result, error) {
	cfg := r.Config
	logger := r.logger()
	r.enter(StateInit)

	registry, err := cfg.Registry()
	if err != nil {
		return Result{}, err
	}
	built, err := registry.BuildChecks(cfg.Checks, r.Tools)
	if err != nil {
		return Result{}, err
	}

	r.enter(StateResolve)
	tgt, err := target.Resolve(input)
	if err != nil {
		return Result{}, err
	}
	result := Result{Target: tgt, ReportDir: filepath.Join(cfg.OutputDir, tgt.Name)}

	if cfg.Activation {
		r.enter(StatePrecondition)
		if r.Site == nil {
			return result, &PreconditionError{Site: cfg.WPPath, Err: fmt.Errorf("no site manager configured")}
		}
		if err := r.Site.IsInstalled(ctx); err != nil {
			return result, &PreconditionError{Site: r.Site.Site(), Err: err}
		}
	}

	r.enter(StateScan)
	exclusions := walker.NewExclusionSet(cfg.Exclusions...)
	if rel, ok := reportsInside(tgt.Root, cfg.OutputDir, result.ReportDir); ok {
		exclusions.AddPath(rel)
	}
	w := &walker.Walker{Root: tgt.Root, Exclude: exclusions, Logger: logger}
	files, err := w.Collect(ctx)
	if err != nil && ctx.Err() == nil {
		return result, fmt.Errorf("walking %s: %w", tgt.Root, err)
	}

	var revision *target.Revision
	if rev, ok := target.DescribeRevision(tgt.Root); ok {
		revision = &rev
	}

	r.emit(events.RunStart, tgt.Name, map[string]interface{}{
		"root":    tgt.Root,
		"files":   len(files),
		"checks":  cfg.Checks,
		"profile": cfg.Profile,
	})
	logger.Infow("scanning plugin", "plugin", tgt.Name, "files", len(files), "checks", len(built), "jobs", cfg.Jobs)

	rc := &checks.RunContext{
		Target:     tgt,
		Files:      files,
		Exclusions: exclusions,
		PHPVersion: cfg.PHPVersion,
		Scanner:    rules.NewScanner(),
		Logger:     logger,
	}
	sections := checks.Run(ctx, built, rc, cfg.Jobs, func(_ int, s report.Section, elapsed time.Duration) {
		r.emit(events.CheckFinished, s.Check, map[string]interface{}{
			"status":   s.Status(),
			"count":    s.Count,
			"duration": elapsed.String(),
		})
	})

	r.enter(StateAggregate)
	var agg report.Aggregator
	agg.Record(sections...)
	skip, reason := agg.ActivationGate()
	if !skip && cfg.Activation && ctx.Err() == nil {
		skip, reason = r.highRiskGate(ctx, rc, sections)
	}

	r.enter(StateWrite)
	writer := &report.Writer{Dir: result.ReportDir, Now: r.Now}
	for _, s := range sections {
		path, err := writer.WriteSection(s)
		if err != nil {
			return result, fmt.Errorf("writing %s report: %w", s.Check, err)
		}
		result.Artifacts = append(result.Artifacts, path)
		r.emit(events.ArtifactWritten, path, map[string]interface{}{"check": s.Check})
	}

	activation, probeErr := r.activation(ctx, tgt, skip, reason)

	agg.Record(activation.Section())
	result.Sections = agg.Sections()
	path, err := writer.WriteSection(activation.Section())
	if err != nil {
		return result, fmt.Errorf("writing activation report: %w", err)
	}
	result.Artifacts = append(result.Artifacts, path)
	r.emit(events.ArtifactWritten, path, map[string]interface{}{"check": report.CheckActivation})

	result.Summary = agg.Summary(tgt, revision, activation)
	if err := r.writeSummaries(writer, &result); err != nil {
		return result, err
	}

	r.enter(StateDone)
	r.emit(events.RunFinished, tgt.Name, map[string]interface{}{
		"totalFindings":     result.Summary.TotalFindings,
		"failedChecks":      result.Summary.FailedChecks,
		"activationSkipped": result.Summary.ActivationSkipped,
		"reportDir":         result.ReportDir,
	})

	switch {
	case probeErr != nil:
		return result, probeErr
	case ctx.Err() != nil:
		return result, fmt.Errorf("run interrupted: %w", ctx.Err())
	case allFailed(sections):
		return result, ErrAllChecksFailed
	}
	return result, nil
}

func (r *Runner) activation(ctx context.Context, tgt target.ScanTarget, skip bool, reason string) (report.Activation, error) {
	switch {
	case !r.Config.Activation:
		return report.Activation{State: report.ActivationDisabled, Detail: "activation probe disabled"}, nil
	case skip:
		r.logger().Warnw("activation probe skipped", "plugin", tgt.Name, "reason", reason)
		r.emit(events.ActivationSkipped, reason, map[string]interface{}{"plugin": tgt.Name})
		return report.Activation{State: report.ActivationSkipped, Detail: reason}, nil
	case ctx.Err() != nil:
		return report.Activation{State: report.ActivationSkipped, Detail: "run interrupted"}, nil
	}

	r.enter(StateProbe)
	prober := &probe.Prober{Site: r.Site, Locks: r.Locks, Logger: r.logger()}
	activation, err := prober.Probe(ctx, tgt.Name)
	r.emit(events.ActivationFinished, activation.State, map[string]interface{}{
		"plugin": tgt.Name,
		"steps":  len(activation.Steps),
	})
	return activation, err
}

// highRiskGate makes sure the tree was scanned for high-risk calls before plugin code is
// executed. The rule runs unreported when it is not among the configured checks; a
// configured run that did not complete blocks the probe.
func (r *Runner) highRiskGate(ctx context.Context, rc *checks.RunContext, sections []report.Section) (bool, string) {
	for _, s := range sections {
		if s.Check != rules.HighRiskFunctions {
			continue
		}
		if status := s.Status(); status == report.StatusFailed || status == report.StatusSkipped {
			return true, fmt.Sprintf("%s did not complete (%s); plugin code is not executed", s.Check, status)
		}
		return false, ""
	}

	rule, ok := rules.Lookup(rules.HighRiskFunctions)
	if !ok {
		return true, "high-risk scan not available; plugin code is not executed"
	}
	r.logger().Debugw("running unlisted high-risk scan before activation", "check", rule.Name)
	section, err := checks.SafeRun(ctx, &checks.RuleCheck{Rule: rule}, rc)
	switch {
	case err != nil:
		return true, fmt.Sprintf("%s scan failed: %v; plugin code is not executed", rule.Name, err)
	case section.Count > 0:
		return true, fmt.Sprintf("%s found %d finding(s); plugin code is not executed", rule.Name, section.Count)
	}
	return false, ""
}

// reportsInside returns the root-relative path to exclude when reports are written inside
// the plugin tree. The output directory itself is preferred unless it is the root.
func reportsInside(root, outputDir, reportDir string) (string, bool) {
	for _, dir := range []string{outputDir, reportDir} {
		abs, err := filepath.Abs(dir)
		if err != nil {
			continue
		}
		rel, err := filepath.Rel(root, abs)
		if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			continue
		}
		return filepath.ToSlash(rel), true
	}
	return "", false
}

func (r *Runner) writeSummaries(writer *report.Writer, result *Result) error {
	record := func(path string) {
		result.Artifacts = append(result.Artifacts, path)
		r.emit(events.ArtifactWritten, path, nil)
	}

	path, err := writer.WriteSummary(result.Summary)
	if err != nil {
		return fmt.Errorf("writing summary: %w", err)
	}
	record(path)

	if r.Config.HasFormat(config.FormatJSON) {
		path, err := writer.WriteJSON(result.Summary, result.Sections)
		if err != nil {
			return fmt.Errorf("writing JSON summary: %w", err)
		}
		record(path)
	}

	if r.Config.HasFormat(config.FormatSARIF) {
		path, err := writer.WriteSARIF(result.Sections)
		if err != nil {
			return fmt.Errorf("writing SARIF report: %w", err)
		}
		record(path)
	}
	return nil
}

func allFailed(sections []report.Section) bool {
	if len(sections) == 0 {
		return false
	}
	for _, s := range sections {
		if s.Status() != report.StatusFailed {
			return false
		}
	}
	return true
}
