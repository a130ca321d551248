package bridge

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"
)

type call struct {
	name string
	args []string
}

// fakeRunner records calls and answers by the space-joined argument list.
type fakeRunner struct {
	calls   []call
	outputs map[string]Output
	err     error
}

func (f *fakeRunner) Run(ctx context.Context, name string, args ...string) (Output, error) {
	f.calls = append(f.calls, call{name: name, args: append([]string(nil), args...)})
	if f.err != nil {
		return Output{ExitCode: -1}, f.err
	}
	return f.outputs[strings.Join(args, " ")], nil
}

func TestCommandRunnerExitCodeIsNotAnError(t *testing.T) {
	r := NewRunner(time.Second, nil)
	out, err := r.Run(context.Background(), "sh", "-c", "echo out; echo err 1>&2; exit 3")
	if err != nil {
		t.Fatalf("non-zero exit should not be an error: %v", err)
	}
	if out.ExitCode != 3 {
		t.Fatalf("expected exit code 3, got %d", out.ExitCode)
	}
	if out.Stdout != "out\n" || out.Stderr != "err\n" {
		t.Fatalf("unexpected output %+v", out)
	}
	if out.Combined() != "out\nerr\n" {
		t.Fatalf("unexpected combined output %q", out.Combined())
	}
}

func TestCommandRunnerTimeout(t *testing.T) {
	r := NewRunner(50*time.Millisecond, nil)
	_, err := r.Run(context.Background(), "sleep", "5")
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
}

func TestCommandRunnerCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r := NewRunner(time.Second, nil)
	_, err := r.Run(ctx, "sleep", "5")
	if err == nil || errors.Is(err, ErrTimeout) {
		t.Fatalf("expected cancellation error, got %v", err)
	}
}

func TestCommandRunnerMissingBinary(t *testing.T) {
	r := NewRunner(time.Second, nil)
	if _, err := r.Run(context.Background(), "nonexistent-binary-12345"); err == nil {
		t.Fatal("expected an error for a missing binary")
	}
}

func TestEnsureBinary(t *testing.T) {
	if err := EnsureBinary("sh"); err != nil {
		t.Fatalf("EnsureBinary should succeed for sh: %v", err)
	}
	if err := EnsureBinary("nonexistent-binary-12345"); err == nil {
		t.Fatal("EnsureBinary should fail for a nonexistent binary")
	}
}

func TestCodingStandardsArgs(t *testing.T) {
	tests := []struct {
		name  string
		input CodingStandardsInput
		want  []string
	}{
		{
			name:  "coding standards",
			input: CodingStandardsInput{Root: "/src/demo", Standard: "WordPress", Exclusions: []string{"vendor", "node_modules"}},
			want: []string{
				"--standard=WordPress", "--extensions=php", "--report=emacs", "--basepath=/src/demo",
				"--ignore=*/vendor/*,*/node_modules/*", "-q", "/src/demo",
			},
		},
		{
			name:  "report directory inside the plugin",
			input: CodingStandardsInput{Root: "/src/demo", Standard: "WordPress", Exclusions: []string{"/qa-out", "vendor"}},
			want: []string{
				"--standard=WordPress", "--extensions=php", "--report=emacs", "--basepath=/src/demo",
				"--ignore=/src/demo/qa-out/*,*/vendor/*", "-q", "/src/demo",
			},
		},
		{
			name:  "compatibility",
			input: CodingStandardsInput{Root: "/src/demo", Standard: "PHPCompatibilityWP", PHPVersion: "7.4-"},
			want: []string{
				"--standard=PHPCompatibilityWP", "--extensions=php", "--report=emacs", "--basepath=/src/demo",
				"--runtime-set", "testVersion", "7.4-", "-q", "/src/demo",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := codingStandardsArgs(tt.input)
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("unexpected args\n got: %v\nwant: %v", got, tt.want)
			}
		})
	}
}

func TestPHPCSProcessingFailure(t *testing.T) {
	runner := &fakeRunner{outputs: map[string]Output{}}
	p := &PHPCS{Runner: runner, Binary: "phpcs"}
	in := CodingStandardsInput{Root: "/r", Standard: "WordPress"}

	runner.outputs[strings.Join(codingStandardsArgs(in), " ")] = Output{Stdout: "a.php:1:1: error - x\n", ExitCode: 2}
	if _, err := p.Check(context.Background(), in); err != nil {
		t.Fatalf("exit 2 reports issues, not a failure: %v", err)
	}

	runner.outputs[strings.Join(codingStandardsArgs(in), " ")] = Output{Stderr: "ERROR: the standard is not installed", ExitCode: 3}
	out, err := p.Check(context.Background(), in)
	if err == nil {
		t.Fatal("exit 3 should be a failure")
	}
	if out.Stderr == "" {
		t.Fatal("output should be kept alongside the failure")
	}
}

func TestSyntaxCheck(t *testing.T) {
	runner := &fakeRunner{outputs: map[string]Output{
		"-l /r/ok.php":  {Stdout: "No syntax errors detected in /r/ok.php\n"},
		"-l /r/bad.php": {
			Stdout:   "PHP Parse error:  syntax error, unexpected end of file in /r/bad.php on line 7\nErrors parsing /r/bad.php\n",
			ExitCode: 255,
		},
	}}
	p := &PHPLinter{Runner: runner, Binary: "php"}

	result, err := p.SyntaxCheck(context.Background(), []string{"/r/ok.php", "/r/bad.php"})
	if err != nil {
		t.Fatalf("SyntaxCheck returned error: %v", err)
	}
	if result.Checked != 2 || result.ExitCode != 255 {
		t.Fatalf("unexpected result %+v", result)
	}
	if len(result.Failing) != 1 {
		t.Fatalf("expected one failing file, got %+v", result.Failing)
	}
	f := result.Failing[0]
	if f.Path != "/r/bad.php" || f.Line != 7 || !strings.HasPrefix(f.Message, "PHP Parse error") {
		t.Fatalf("unexpected failure %+v", f)
	}
}

func TestSyntaxCheckStopsOnRunnerError(t *testing.T) {
	runner := &fakeRunner{err: ErrTimeout}
	p := &PHPLinter{Runner: runner, Binary: "php"}
	if _, err := p.SyntaxCheck(context.Background(), []string{"/r/a.php", "/r/b.php"}); !errors.Is(err, ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
	if len(runner.calls) != 1 {
		t.Fatalf("expected the run to stop after the first error, got %d calls", len(runner.calls))
	}
}

func TestWPCLICommands(t *testing.T) {
	runner := &fakeRunner{outputs: map[string]Output{
		"core is-installed --path=/var/www":              {},
		"plugin is-active demo --path=/var/www":          {ExitCode: 1},
		"config get WP_DEBUG --path=/var/www":            {Stdout: "false\n"},
		"config get WP_MISSING --path=/var/www":          {ExitCode: 1, Stderr: "Error: not defined"},
		"plugin activate demo --path=/var/www":           {Stdout: "Success: Activated\n"},
		"config set WP_DEBUG true --raw --path=/var/www": {},
	}}
	wp := &WPCLI{Runner: runner, Binary: "wp", Path: "/var/www"}
	ctx := context.Background()

	if err := wp.IsInstalled(ctx); err != nil {
		t.Fatalf("IsInstalled: %v", err)
	}
	active, _, err := wp.IsPluginActive(ctx, "demo")
	if err != nil || active {
		t.Fatalf("expected inactive plugin, got active=%v err=%v", active, err)
	}
	value, defined, err := wp.ConfigFlag(ctx, "WP_DEBUG")
	if err != nil || !defined || value != "false" {
		t.Fatalf("unexpected WP_DEBUG read: %q %v %v", value, defined, err)
	}
	if _, defined, _ := wp.ConfigFlag(ctx, "WP_MISSING"); defined {
		t.Fatal("missing constant should not be defined")
	}
	out, err := wp.SetPluginActive(ctx, "demo", true)
	if err != nil || !strings.Contains(out.Stdout, "Activated") {
		t.Fatalf("unexpected activate result %+v %v", out, err)
	}
	if _, err := wp.SetConfigFlag(ctx, "WP_DEBUG", "true"); err != nil {
		t.Fatalf("SetConfigFlag: %v", err)
	}
	if wp.Site() != "/var/www" {
		t.Fatalf("unexpected site %q", wp.Site())
	}
}

func TestWPCLINotInstalled(t *testing.T) {
	runner := &fakeRunner{outputs: map[string]Output{
		"core is-installed": {ExitCode: 1, Stderr: "Error: This does not seem to be a WordPress installation."},
	}}
	wp := &WPCLI{Runner: runner, Binary: "wp"}
	err := wp.IsInstalled(context.Background())
	if err == nil || !strings.Contains(err.Error(), "WordPress installation") {
		t.Fatalf("expected installation error, got %v", err)
	}
	if wp.Site() != "." {
		t.Fatalf("unexpected default site %q", wp.Site())
	}
}

func TestNewToolchainDefaults(t *testing.T) {
	tc := NewToolchain(Options{})
	want := []string{"php", "phpcs", "wp"}
	if !reflect.DeepEqual(tc.Binaries(), want) {
		t.Fatalf("unexpected binaries %v", tc.Binaries())
	}
}
