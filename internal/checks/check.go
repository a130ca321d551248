package checks

import (
	"context"

	"go.uber.org/zap"

	"github.com/example/wp-plugin-qa/internal/report"
	"github.com/example/wp-plugin-qa/internal/rules"
	"github.com/example/wp-plugin-qa/internal/target"
	"github.com/example/wp-plugin-qa/internal/walker"
)

// RunContext carries everything a check needs for one run. It is shared read-only by all checks.
type RunContext struct {
	Target     target.ScanTarget
	Files      []walker.FileCandidate
	Exclusions walker.ExclusionSet
	PHPVersion string
	Scanner    *rules.Scanner
	Logger     *zap.SugaredLogger
}

func (rc *RunContext) logger() *zap.SugaredLogger {
	if rc.Logger == nil {
		return zap.NewNop().Sugar()
	}
	return rc.Logger
}

// PHPFiles returns the candidates with a .php extension.
func (rc *RunContext) PHPFiles() []walker.FileCandidate {
	var out []walker.FileCandidate
	for _, c := range rc.Files {
		if c.Ext == ".php" {
			out = append(out, c)
		}
	}
	return out
}

// Check is implemented by every unit of work that produces one report section.
type Check interface {
	Name() string
	Title() string
	Severity() rules.Severity
	Run(ctx context.Context, rc *RunContext) (report.Section, error)
}
