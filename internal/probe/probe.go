package probe

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/example/wp-plugin-qa/internal/bridge"
	"github.com/example/wp-plugin-qa/internal/report"
)

// DebugFlag is switched on for the duration of a probe so activation errors reach the log.
const DebugFlag = "WP_DEBUG"

// ErrStateNotRestored means the plugin was left in a different active state than it started in.
var ErrStateNotRestored = errors.New("plugin activation state was not restored")

// SiteLocks serializes probes per WordPress install.
type SiteLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewSiteLocks returns an empty registry.
func NewSiteLocks() *SiteLocks {
	return &SiteLocks{locks: make(map[string]*sync.Mutex)}
}

// Lock blocks until site is free and returns the release function.
func (l *SiteLocks) Lock(site string) func() {
	l.mu.Lock()
	m, ok := l.locks[site]
	if !ok {
		m = &sync.Mutex{}
		l.locks[site] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}

var defaultLocks = NewSiteLocks()

// Prober cycles a plugin through deactivate, activate and deactivate, then restores the site.
type Prober struct {
	Site   bridge.SiteManager
	Locks  *SiteLocks
	Logger *zap.SugaredLogger
}

// New returns a prober sharing the process-wide lock registry.
func New(site bridge.SiteManager, logger *zap.SugaredLogger) *Prober {
	return &Prober{Site: site, Locks: defaultLocks, Logger: logger}
}

type recorder struct {
	steps  []report.ActivationStep
	failed []string
}

func (r *recorder) record(action string, out bridge.Output, err error, checkExit bool) bool {
	step := report.ActivationStep{
		Action:   action,
		ExitCode: out.ExitCode,
		Output:   strings.TrimSpace(out.Combined()),
	}
	ok := err == nil && (!checkExit || out.ExitCode == 0)
	switch {
	case err != nil:
		step.Error = err.Error()
	case !ok:
		step.Error = fmt.Sprintf("exit status %d", out.ExitCode)
	}
	if !ok {
		r.failed = append(r.failed, action)
	}
	r.steps = append(r.steps, step)
	return ok
}

// Probe runs the activation cycle for slug. Restoration steps run even after ctx is
// cancelled. ErrStateNotRestored is returned alongside the recorded outcome.
func (p *Prober) Probe(ctx context.Context, slug string) (report.Activation, error) {
	logger := p.Logger
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	locks := p.Locks
	if locks == nil {
		locks = defaultLocks
	}

	unlock := locks.Lock(p.Site.Site())
	defer unlock()

	var rec recorder
	original, out, err := p.Site.IsPluginActive(ctx, slug)
	if !rec.record("is-active", out, err, false) {
		return report.Activation{
			State:  report.ActivationFailed,
			Detail: "could not read the plugin's active state; site left untouched",
			Steps:  rec.steps,
		}, nil
	}

	restoreCtx := context.WithoutCancel(ctx)

	debugValue, debugDefined, err := p.Site.ConfigFlag(ctx, DebugFlag)
	debugSet := false
	if rec.record("config get "+DebugFlag, bridge.Output{Stdout: debugValue}, err, false) {
		out, err = p.Site.SetConfigFlag(ctx, DebugFlag, "true")
		debugSet = rec.record("config set "+DebugFlag+" true", out, err, true)
	}

	for _, active := range []bool{false, true, false} {
		if ctx.Err() != nil {
			break
		}
		out, err = p.Site.SetPluginActive(ctx, slug, active)
		rec.record(toggleAction(active), out, err, true)
	}

	var restoreErr error
	out, err = p.Site.SetPluginActive(restoreCtx, slug, original)
	rec.record("restore "+toggleAction(original), out, err, true)
	now, out, err := p.Site.IsPluginActive(restoreCtx, slug)
	if !rec.record("verify", out, err, false) || now != original {
		restoreErr = fmt.Errorf("%w: %s expected active=%t", ErrStateNotRestored, slug, original)
		logger.Errorw("plugin state not restored", "plugin", slug, "site", p.Site.Site(), "expected_active", original)
	}

	if debugSet {
		if debugDefined {
			out, err = p.Site.SetConfigFlag(restoreCtx, DebugFlag, debugValue)
			rec.record("restore "+DebugFlag+" "+debugValue, out, err, true)
		} else {
			out, err = p.Site.DeleteConfigFlag(restoreCtx, DebugFlag)
			rec.record("delete "+DebugFlag, out, err, true)
		}
	}

	result := report.Activation{State: report.ActivationPassed, Steps: rec.steps}
	if len(rec.failed) > 0 {
		result.State = report.ActivationFailed
		result.Detail = "failed steps: " + strings.Join(rec.failed, ", ")
	} else {
		result.Detail = "deactivate, activate and deactivate succeeded"
	}
	if ctx.Err() != nil && result.State == report.ActivationPassed {
		result.State = report.ActivationFailed
		result.Detail = "interrupted before the cycle completed"
	}
	logger.Infow("activation probe finished", "plugin", slug, "state", result.State)
	return result, restoreErr
}

func toggleAction(active bool) string {
	if active {
		return "activate"
	}
	return "deactivate"
}
