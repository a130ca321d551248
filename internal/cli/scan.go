package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/example/wp-plugin-qa/internal/events"
	"github.com/example/wp-plugin-qa/internal/sweep"
)

func newScanCmd(a *app) *cobra.Command {
	flags := &runtimeFlagSet{}

	cmd := &cobra.Command{
		Use:   "scan <plugin-dir>",
		Short: "Run the QA sweep over a plugin directory",
		Long: `Scans a plugin source tree for missing direct-access guards, syntax errors,
high-risk function calls and security-relevant patterns, runs PHP_CodeSniffer, and
cycles the plugin through deactivate/activate/deactivate with WP-CLI unless high-risk
code was found. Reports are written to <output-dir>/<plugin-name>/.`,
		Args: exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loader.Load(flags.toOverrides(cmd))
			if err != nil {
				return err
			}

			if err := cfg.Validate(); err != nil {
				return err
			}

			logger := a.log()
			tools, site := a.newToolchain(cfg, logger)
			runner := &sweep.Runner{
				Config: cfg,
				Tools:  tools,
				Logger: logger,
				Events: events.NewEmitter(cmd.OutOrStdout()),
			}
			if cfg.Activation {
				runner.Site = site
			}

			result, err := runner.Run(cmd.Context(), args[0])
			if result.ReportDir != "" && len(result.Artifacts) > 0 {
				logger.Infow("reports written",
					"dir", result.ReportDir,
					"findings", result.Summary.TotalFindings,
					"failed_checks", result.Summary.FailedChecks,
					"activation", result.Summary.Activation.State,
				)
			}
			if err != nil {
				return fmt.Errorf("scan failed: %w", err)
			}
			return nil
		},
	}

	bindRuntimeFlags(cmd, flags)

	return cmd
}
