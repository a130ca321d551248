package bridge

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"go.uber.org/zap"
)

// DefaultTimeout bounds a single external call when no timeout is configured.
const DefaultTimeout = 5 * time.Minute

// ErrTimeout is wrapped by Run when a call exceeds its timeout.
var ErrTimeout = errors.New("external tool timed out")

// Output is what an external call produced. A non-zero exit is reported here, not as an error.
type Output struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Combined returns stdout followed by stderr.
func (o Output) Combined() string {
	switch {
	case o.Stderr == "":
		return o.Stdout
	case o.Stdout == "":
		return o.Stderr
	default:
		return strings.TrimRight(o.Stdout, "\n") + "\n" + o.Stderr
	}
}

// Runner executes external binaries.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (Output, error)
}

// CommandRunner executes real binaries with a per-call timeout.
type CommandRunner struct {
	Timeout time.Duration
	Logger  *zap.SugaredLogger
}

// NewRunner returns a command runner bounded by timeout.
func NewRunner(timeout time.Duration, logger *zap.SugaredLogger) *CommandRunner {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &CommandRunner{Timeout: timeout, Logger: logger}
}

// Run executes name with args. Start failures, timeouts and cancellation return an error.
func (r *CommandRunner) Run(ctx context.Context, name string, args ...string) (Output, error) {
	logger := r.Logger
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	timeout := r.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var stdout, stderr bytes.Buffer
	// Binary names come from configuration and arguments are built programmatically;
	// no shell is involved.
	cmd := exec.CommandContext(callCtx, name, args...) // #nosec G204
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	logger.Debugw("running external tool", "binary", name, "args", args)
	err := cmd.Run()
	out := Output{Stdout: stdout.String(), Stderr: stderr.String()}

	if ctxErr := callCtx.Err(); ctxErr != nil {
		out.ExitCode = -1
		if ctx.Err() != nil {
			return out, fmt.Errorf("%s interrupted: %w", name, ctx.Err())
		}
		logger.Warnw("external tool timed out", "binary", name, "timeout", timeout.String())
		return out, fmt.Errorf("%s after %s: %w", name, timeout, ErrTimeout)
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		out.ExitCode = exitErr.ExitCode()
		return out, nil
	}
	if err != nil {
		out.ExitCode = -1
		return out, fmt.Errorf("failed to run %s: %w", name, err)
	}
	return out, nil
}

// EnsureBinary verifies that binary is discoverable on PATH.
func EnsureBinary(binary string) error {
	if _, err := exec.LookPath(binary); err != nil {
		return fmt.Errorf("%s binary not found: %w", binary, err)
	}
	return nil
}
