package checks

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/example/wp-plugin-qa/internal/report"
)

// MaxJobs caps the worker pool.
const MaxJobs = 16

// Interrupted is the skip reason for checks that never started because the run was cancelled.
const Interrupted = "interrupted"

// Done is called once per finished check with its position in the input slice.
type Done func(index int, section report.Section, elapsed time.Duration)

// SafeRun executes a check and converts a panic into an error.
func SafeRun(ctx context.Context, check Check, rc *RunContext) (section report.Section, err error) {
	defer func() {
		if r := recover(); r != nil {
			stack := string(debug.Stack())
			err = fmt.Errorf("check %s panicked: %v", check.Name(), r)
			rc.logger().Errorw("check panicked", "check", check.Name(), "panic", r, "stack", stack)
		}
	}()
	return check.Run(ctx, rc)
}

// Run executes checks and returns one section per check, in input order.
// With jobs > 1 checks run on a fixed worker pool. Checks not started before ctx is
// cancelled are recorded as skipped; a running check is allowed to finish.
func Run(ctx context.Context, checks []Check, rc *RunContext, jobs int, done Done) []report.Section {
	sections := make([]report.Section, len(checks))
	if len(checks) == 0 {
		return sections
	}
	if jobs < 1 {
		jobs = 1
	}
	if jobs > MaxJobs {
		jobs = MaxJobs
	}
	if jobs > len(checks) {
		jobs = len(checks)
	}

	var mu sync.Mutex
	execute := func(i int) {
		check := checks[i]
		start := time.Now()
		var section report.Section
		if ctx.Err() != nil {
			section = report.SkippedSection(check.Name(), check.Title(), check.Severity(), Interrupted)
		} else {
			section = runOne(ctx, check, rc)
		}
		elapsed := time.Since(start)

		mu.Lock()
		defer mu.Unlock()
		sections[i] = section
		if done != nil {
			done(i, section, elapsed)
		}
	}

	if jobs == 1 {
		for i := range checks {
			execute(i)
		}
		return sections
	}

	tasks := make(chan int, len(checks))
	var wg sync.WaitGroup
	for w := 0; w < jobs; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range tasks {
				execute(i)
			}
		}()
	}
	for i := range checks {
		tasks <- i
	}
	close(tasks)
	wg.Wait()
	return sections
}

func runOne(ctx context.Context, check Check, rc *RunContext) report.Section {
	section, err := SafeRun(ctx, check, rc)
	switch {
	case err == nil:
		return section
	case errors.Is(err, context.Canceled) && ctx.Err() != nil:
		return report.SkippedSection(check.Name(), check.Title(), check.Severity(), Interrupted)
	default:
		rc.logger().Warnw("check failed", "check", check.Name(), "error", err)
		return report.FailedSection(check.Name(), check.Title(), check.Severity(), err)
	}
}
