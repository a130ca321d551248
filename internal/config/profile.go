package config

import (
	"fmt"
	"sort"

	"github.com/example/wp-plugin-qa/internal/report"
	"github.com/example/wp-plugin-qa/internal/rules"
)

// Profile names.
const (
	ProfileStandard = "standard"
	ProfileStrict   = "strict"
	ProfileQuick    = "quick"
)

type profile struct {
	checks     []string
	phpVersion string
}

var ruleChecks = []string{
	rules.DirectAccess,
	rules.HighRiskFunctions,
	rules.UnsafeDeserialization,
	rules.SQLQueries,
	rules.InputHandling,
	rules.OutputEscaping,
	rules.NonceChecks,
	rules.CapabilityChecks,
	rules.Credentials,
}

func join(lists ...[]string) []string {
	var out []string
	for _, l := range lists {
		out = append(out, l...)
	}
	return out
}

var profiles = map[string]profile{
	ProfileStandard: {
		checks:     join([]string{report.CheckSyntax}, ruleChecks, []string{report.CheckCodingStandards, report.CheckCompatibility}),
		phpVersion: "7.4-",
	},
	ProfileStrict: {
		checks: join([]string{report.CheckSyntax}, ruleChecks,
			[]string{rules.DebugOutput, rules.DeprecatedFunctions, report.CheckCodingStandards, report.CheckCompatibility}),
		phpVersion: "8.0-",
	},
	// quick runs only the built-in scanner and needs no external tools.
	ProfileQuick: {
		checks:     ruleChecks,
		phpVersion: "7.4-",
	},
}

// ProfileNames lists the known profiles, sorted.
func ProfileNames() []string {
	names := make([]string, 0, len(profiles))
	for name := range profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (c *RuntimeConfig) applyProfile(name string) error {
	p, ok := profiles[name]
	if !ok {
		return fmt.Errorf("unknown profile %q", name)
	}
	c.Profile = name
	c.Checks = append([]string(nil), p.checks...)
	c.PHPVersion = p.phpVersion
	return nil
}
