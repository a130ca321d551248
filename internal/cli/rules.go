package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/example/wp-plugin-qa/internal/checks"
)

func newRulesCmd(a *app) *cobra.Command {
	flags := &runtimeFlagSet{}

	cmd := &cobra.Command{
		Use:   "rules",
		Short: "List every available check and whether the current configuration runs it",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loader.Load(flags.toOverrides(cmd))
			if err != nil {
				return err
			}

			registry, err := cfg.Registry()
			if err != nil {
				return err
			}

			enabled := map[string]bool{}
			for _, name := range cfg.Checks {
				enabled[name] = true
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%-24s %-13s %-7s %s\n", "CHECK", "SEVERITY", "ENABLED", "TITLE")
			for _, name := range registry.Names() {
				check := registry[name](checks.Tools{})
				mark := "no"
				if enabled[name] {
					mark = "yes"
				}
				fmt.Fprintf(out, "%-24s %-13s %-7s %s\n", name, check.Severity(), mark, check.Title())
			}
			return nil
		},
	}

	bindRuntimeFlags(cmd, flags)

	return cmd
}
