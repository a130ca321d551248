package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/example/wp-plugin-qa/internal/bridge"
	"github.com/example/wp-plugin-qa/internal/checks"
	"github.com/example/wp-plugin-qa/internal/config"
)

var version = "dev"

// UsageError reports a malformed command line.
type UsageError struct {
	Err error
}

func (e *UsageError) Error() string {
	return e.Err.Error()
}

func (e *UsageError) Unwrap() error {
	return e.Err
}

// app holds what the commands share. newToolchain is swapped in tests.
type app struct {
	loader       *config.Loader
	verbose      bool
	logger       *zap.SugaredLogger
	newToolchain func(cfg config.RuntimeConfig, logger *zap.SugaredLogger) (checks.Tools, bridge.SiteManager)
}

func defaultToolchain(cfg config.RuntimeConfig, logger *zap.SugaredLogger) (checks.Tools, bridge.SiteManager) {
	tc := bridge.NewToolchain(bridge.Options{
		PHPCSBinary: cfg.PHPCSBinary,
		PHPBinary:   cfg.PHPBinary,
		WPBinary:    cfg.WPBinary,
		WPPath:      cfg.WPPath,
		Timeout:     cfg.ToolTimeout,
		Logger:      logger,
	})
	tools := checks.Tools{
		Linter:         tc.PHPCS,
		Syntax:         tc.PHP,
		Standard:       cfg.Standard,
		CompatStandard: cfg.CompatStandard,
	}
	return tools, tc.WP
}

// Execute builds the root command tree and runs the CLI. Usage errors print the usage of
// the failing command before returning.
func Execute(ctx context.Context) error {
	root := newRootCmd(&app{
		loader:       &config.Loader{ConfigPath: config.DefaultConfigPath},
		newToolchain: defaultToolchain,
	})
	cmd, err := root.ExecuteContextC(ctx)
	var usage *UsageError
	if errors.As(err, &usage) && cmd != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), cmd.UsageString())
	}
	return err
}

func newRootCmd(a *app) *cobra.Command {
	var configPath string

	rootCmd := &cobra.Command{
		Use:           "wp-plugin-qa",
		Short:         "Quality-assurance sweep for WordPress plugin source trees",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       version,
	}
	rootCmd.SetVersionTemplate("wp-plugin-qa version {{.Version}}\n")
	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return &UsageError{Err: err}
	})

	rootCmd.PersistentFlags().StringVar(&configPath, "config", a.loader.ConfigPath, "Path to plugin-qa.config.yml (optional)")
	rootCmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		if configPath != "" {
			a.loader.ConfigPath = configPath
		}
		a.logger = newLogger(cmd.ErrOrStderr(), a.verbose)
	}

	rootCmd.AddCommand(
		newScanCmd(a),
		newDoctorCmd(a),
		newInitCmd(a),
		newRulesCmd(a),
		newReportCmd(),
	)

	return rootCmd
}

func newLogger(w io.Writer, verbose bool) *zap.SugaredLogger {
	level := zapcore.InfoLevel
	if verbose {
		level = zapcore.DebugLevel
	}
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderCfg.EncodeLevel = zapcore.CapitalLevelEncoder
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encoderCfg), zapcore.AddSync(w), level)
	return zap.New(core).Sugar()
}

func (a *app) log() *zap.SugaredLogger {
	if a.logger == nil {
		return zap.NewNop().Sugar()
	}
	return a.logger
}

func exactArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := cobra.ExactArgs(n)(cmd, args); err != nil {
			return &UsageError{Err: err}
		}
		return nil
	}
}
