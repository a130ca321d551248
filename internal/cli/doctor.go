package cli

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/example/wp-plugin-qa/internal/bridge"
	"github.com/example/wp-plugin-qa/internal/config"
	"github.com/example/wp-plugin-qa/internal/report"
)

const (
	statusOK      = "✓"
	statusFailed  = "✗"
	statusSkipped = "⊘"
)

type doctorCheck struct {
	Name   string
	Status string
	Detail string
	Error  error
}

func newDoctorCmd(a *app) *cobra.Command {
	flags := &runtimeFlagSet{}
	var timeout int

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Validate external tools, the WordPress install, and configuration",
		Long: `The doctor subcommand checks the environment a scan depends on:
- Go runtime version
- php, phpcs and wp binaries required by the configured checks
- WordPress install reachable through WP-CLI (when the activation probe is enabled)
- configuration validity and the output directory`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loader.Load(flags.toOverrides(cmd))
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), time.Duration(timeout)*time.Second)
			defer cancel()

			results := runDoctorChecks(ctx, a, cfg)
			printDoctorReport(cmd, results)

			for _, check := range results {
				if check.Error != nil {
					return errors.New("doctor checks failed")
				}
			}

			fmt.Fprintln(cmd.OutOrStdout(), "\n"+statusOK+" All checks passed. Ready to scan.")
			return nil
		},
	}

	bindRuntimeFlags(cmd, flags)
	cmd.Flags().IntVar(&timeout, "timeout", 30, "Timeout in seconds for tool and site checks")

	return cmd
}

func runDoctorChecks(ctx context.Context, a *app, cfg config.RuntimeConfig) []doctorCheck {
	logger := a.log()
	results := []doctorCheck{checkGoVersion()}

	results = append(results,
		checkBinary(ctx, logger, "php", cfg.PHPBinary, usesCheck(cfg, report.CheckSyntax)),
		checkBinary(ctx, logger, "phpcs", cfg.PHPCSBinary, usesCheck(cfg, report.CheckCodingStandards, report.CheckCompatibility)),
	)

	wp := checkBinary(ctx, logger, "wp", cfg.WPBinary, cfg.Activation)
	results = append(results, wp)
	switch {
	case !cfg.Activation:
		results = append(results, doctorCheck{Name: "WordPress Install", Status: statusSkipped, Detail: "Skipped (activation probe disabled)"})
	case wp.Error != nil:
		results = append(results, doctorCheck{Name: "WordPress Install", Status: statusSkipped, Detail: "Skipped (wp binary missing)"})
	default:
		_, site := a.newToolchain(cfg, logger)
		results = append(results, checkWordPress(ctx, site))
	}

	results = append(results, checkConfiguration(cfg), checkOutputDirectory(cfg.OutputDir))
	return results
}

func checkGoVersion() doctorCheck {
	return doctorCheck{
		Name:   "Go Runtime",
		Status: statusOK,
		Detail: fmt.Sprintf("Version %s", runtime.Version()),
	}
}

func usesCheck(cfg config.RuntimeConfig, names ...string) bool {
	for _, configured := range cfg.Checks {
		for _, name := range names {
			if configured == name {
				return true
			}
		}
	}
	return false
}

func checkBinary(ctx context.Context, logger *zap.SugaredLogger, label, binary string, required bool) doctorCheck {
	name := label + " Binary"
	if !required {
		return doctorCheck{Name: name, Status: statusSkipped, Detail: "Skipped (not needed by configured checks)"}
	}

	if err := bridge.EnsureBinary(binary); err != nil {
		return doctorCheck{Name: name, Status: statusFailed, Detail: "Not found in PATH", Error: err}
	}

	detail := "Available"
	if version := binaryVersion(ctx, logger, binary); version != "" {
		detail = version
	}
	return doctorCheck{Name: name, Status: statusOK, Detail: detail}
}

// binaryVersion returns the first line of `<binary> --version`, or "" when it cannot be read.
func binaryVersion(ctx context.Context, logger *zap.SugaredLogger, binary string) string {
	out, err := bridge.NewRunner(5*time.Second, logger).Run(ctx, binary, "--version")
	if err != nil || out.ExitCode != 0 {
		return ""
	}
	line, _, _ := strings.Cut(strings.TrimSpace(out.Stdout), "\n")
	return strings.TrimSpace(line)
}

func checkWordPress(ctx context.Context, site bridge.SiteManager) doctorCheck {
	if site == nil {
		return doctorCheck{Name: "WordPress Install", Status: statusFailed, Detail: "No site manager", Error: errors.New("no site manager configured")}
	}
	if err := site.IsInstalled(ctx); err != nil {
		return doctorCheck{Name: "WordPress Install", Status: statusFailed, Detail: site.Site(), Error: err}
	}
	return doctorCheck{Name: "WordPress Install", Status: statusOK, Detail: site.Site()}
}

func checkConfiguration(cfg config.RuntimeConfig) doctorCheck {
	if err := cfg.Validate(); err != nil {
		return doctorCheck{
			Name:   "Configuration",
			Status: statusFailed,
			Detail: "Invalid configuration",
			Error:  err,
		}
	}

	return doctorCheck{
		Name:   "Configuration",
		Status: statusOK,
		Detail: fmt.Sprintf("profile=%s, %d checks, php=%s", cfg.Profile, len(cfg.Checks), cfg.PHPVersion),
	}
}

func checkOutputDirectory(outputDir string) doctorCheck {
	if err := ensureOutputDir(outputDir); err != nil {
		return doctorCheck{
			Name:   "Output Directory",
			Status: statusFailed,
			Detail: outputDir,
			Error:  err,
		}
	}

	return doctorCheck{
		Name:   "Output Directory",
		Status: statusOK,
		Detail: outputDir,
	}
}

func printDoctorReport(cmd *cobra.Command, results []doctorCheck) {
	fmt.Fprintln(cmd.OutOrStdout(), "Running environment diagnostics...")

	for _, check := range results {
		fmt.Fprintf(cmd.OutOrStdout(), "%s %-30s %s\n", check.Status, check.Name+":", check.Detail)
		if check.Error != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "   Error: %v\n", check.Error)
		}
	}
}
