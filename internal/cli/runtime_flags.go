package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/wp-plugin-qa/internal/checks"
	"github.com/example/wp-plugin-qa/internal/config"
)

// runtimeFlagSet tracks shared scan/doctor/init flags before they are converted into config overrides.
type runtimeFlagSet struct {
	profile        string
	phpVersion     string
	checks         string
	exclude        string
	outputDir      string
	formats        string
	jobs           int
	skipActivation bool
	wpPath         string
	toolTimeout    time.Duration
	standard       string
}

func bindRuntimeFlags(cmd *cobra.Command, flags *runtimeFlagSet) {
	cmd.Flags().StringVar(&flags.profile, "profile", "", "Check profile: standard, strict, or quick")
	cmd.Flags().StringVar(&flags.phpVersion, "php-version", "", "PHP versions to test compatibility against (e.g. 7.4-)")
	cmd.Flags().StringVar(&flags.checks, "checks", "", "Comma-separated checks to run (overrides the profile)")
	cmd.Flags().StringVar(&flags.exclude, "exclude", "", "Comma-separated directory names to exclude in addition to the defaults")
	cmd.Flags().StringVar(&flags.outputDir, "output-dir", "", "Directory for report artifacts")
	cmd.Flags().StringVar(&flags.formats, "formats", "", "Comma-separated output formats (text,sarif,json)")
	cmd.Flags().IntVar(&flags.jobs, "jobs", 0, fmt.Sprintf("Number of checks to run concurrently (1-%d)", checks.MaxJobs))
	cmd.Flags().BoolVar(&flags.skipActivation, "skip-activation", false, "Do not run the WP-CLI activation probe")
	cmd.Flags().StringVar(&flags.wpPath, "wp-path", "", "WordPress install used for the activation probe")
	cmd.Flags().DurationVar(&flags.toolTimeout, "tool-timeout", 0, "Timeout for each external tool call")
	cmd.Flags().StringVar(&flags.standard, "standard", "", "PHP_CodeSniffer coding standard")
}

func (f runtimeFlagSet) toOverrides(cmd *cobra.Command) config.Overrides {
	ov := config.Overrides{}
	if cmd.Flags().Changed("profile") {
		ov.Profile = f.profile
	}

	if cmd.Flags().Changed("php-version") {
		ov.PHPVersion = f.phpVersion
	}

	if cmd.Flags().Changed("checks") {
		ov.Checks = config.ParseList(f.checks)
	}

	if cmd.Flags().Changed("exclude") {
		ov.Exclusions = config.ParseList(f.exclude)
	}

	if cmd.Flags().Changed("output-dir") {
		ov.OutputDir = f.outputDir
	}

	if cmd.Flags().Changed("formats") {
		ov.Formats = config.ParseList(f.formats)
	}

	if cmd.Flags().Changed("jobs") {
		ov.Jobs = f.jobs
		ov.JobsSet = true
	}

	if cmd.Flags().Changed("skip-activation") {
		activation := !f.skipActivation
		ov.Activation = &activation
	}

	if cmd.Flags().Changed("wp-path") {
		ov.WPPath = f.wpPath
	}

	if cmd.Flags().Changed("tool-timeout") {
		ov.ToolTimeout = f.toolTimeout
	}

	if cmd.Flags().Changed("standard") {
		ov.Standard = f.standard
	}

	return ov
}
