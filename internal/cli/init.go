package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/example/wp-plugin-qa/internal/config"
)

func newInitCmd(a *app) *cobra.Command {
	flags := &runtimeFlagSet{}
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a starter plugin-qa.config.yml and validate it",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := a.loader.ConfigPath
			if fileExists(path) && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}

			// The existing file must not leak into the starter when overwriting.
			loader := config.Loader{ConfigPath: os.DevNull}
			cfg, err := loader.Load(flags.toOverrides(cmd))
			if err != nil {
				return err
			}

			if err := cfg.Validate(); err != nil {
				return err
			}

			data, err := config.Starter(cfg)
			if err != nil {
				return err
			}
			if err := os.WriteFile(path, data, 0o644); err != nil {
				return err
			}

			if err := ensureOutputDir(cfg.OutputDir); err != nil {
				return err
			}

			a.log().Debugw("starter config written", "path", path, "profile", cfg.Profile)
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (profile %s). Reports will be stored in %s\n", path, cfg.Profile, cfg.OutputDir)
			return nil
		},
	}

	bindRuntimeFlags(cmd, flags)
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing config file")

	return cmd
}
