package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/example/wp-plugin-qa/internal/report"
	"github.com/example/wp-plugin-qa/internal/rules"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), DefaultConfigPath)
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestDefaultsAreValid(t *testing.T) {
	cfg, err := Loader{ConfigPath: filepath.Join(t.TempDir(), "missing.yml")}.Load(Overrides{})
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
	if cfg.Profile != ProfileStandard || cfg.PHPVersion != "7.4-" || cfg.Jobs != 1 || !cfg.Activation {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.Checks[0] != report.CheckSyntax || cfg.Checks[len(cfg.Checks)-1] != report.CheckCompatibility {
		t.Fatalf("unexpected default checks: %v", cfg.Checks)
	}
}

func TestLoaderLayersFileEnvAndFlags(t *testing.T) {
	path := writeConfig(t, strings.Join([]string{
		"phpVersion: \"8.1-\"",
		"jobs: 4",
		"outputDir: out",
		"exclude: legacy, tmp",
		"formats:",
		"  - text",
		"  - sarif",
		"toolTimeout: 90s",
		"activation: false",
	}, "\n"))

	t.Setenv(envJobs, "6")
	t.Setenv(envFormats, "text json")

	cfg, err := Loader{ConfigPath: path}.Load(Overrides{OutputDir: "flag-out"})
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate config: %v", err)
	}

	if cfg.PHPVersion != "8.1-" {
		t.Fatalf("expected php version from file, got %s", cfg.PHPVersion)
	}
	if cfg.Jobs != 6 {
		t.Fatalf("env override should set jobs to 6, got %d", cfg.Jobs)
	}
	if cfg.OutputDir != "flag-out" {
		t.Fatalf("flag should win for output dir, got %s", cfg.OutputDir)
	}
	if strings.Join(cfg.Formats, ",") != "text,json" {
		t.Fatalf("unexpected formats: %#v", cfg.Formats)
	}
	if cfg.ToolTimeout != 90*time.Second {
		t.Fatalf("unexpected timeout %s", cfg.ToolTimeout)
	}
	if cfg.Activation {
		t.Fatal("activation should be disabled by the file")
	}
	joined := strings.Join(cfg.Exclusions, ",")
	if !strings.Contains(joined, "vendor") || !strings.HasSuffix(joined, "legacy,tmp") {
		t.Fatalf("exclusions should extend the defaults, got %v", cfg.Exclusions)
	}
}

func TestProfiles(t *testing.T) {
	strict, err := Loader{ConfigPath: "-"}.Load(Overrides{Profile: ProfileStrict})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if strict.PHPVersion != "8.0-" {
		t.Fatalf("strict profile should target PHP 8, got %s", strict.PHPVersion)
	}
	if !contains(strict.Checks, rules.DebugOutput) || !contains(strict.Checks, rules.DeprecatedFunctions) {
		t.Fatalf("strict profile should add debug and deprecated checks: %v", strict.Checks)
	}

	quick, err := Loader{ConfigPath: "-"}.Load(Overrides{Profile: ProfileQuick, PHPVersion: "8.2"})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if contains(quick.Checks, report.CheckCodingStandards) || contains(quick.Checks, report.CheckSyntax) {
		t.Fatalf("quick profile should not run external tools: %v", quick.Checks)
	}
	if quick.PHPVersion != "8.2" {
		t.Fatalf("explicit php version should win over the profile, got %s", quick.PHPVersion)
	}

	if _, err := (Loader{ConfigPath: "-"}).Load(Overrides{Profile: "paranoid"}); err == nil {
		t.Fatal("expected unknown profile error")
	}
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*RuntimeConfig)
		want   string
	}{
		{"php version", func(c *RuntimeConfig) { c.PHPVersion = "seven" }, "php version"},
		{"jobs", func(c *RuntimeConfig) { c.Jobs = 17 }, "jobs"},
		{"timeout", func(c *RuntimeConfig) { c.ToolTimeout = 0 }, "timeout"},
		{"format", func(c *RuntimeConfig) { c.Formats = []string{"xml"} }, "format"},
		{"output dir", func(c *RuntimeConfig) { c.OutputDir = "" }, "output directory"},
		{"no checks", func(c *RuntimeConfig) { c.Checks = nil }, "no checks"},
		{"unknown check", func(c *RuntimeConfig) { c.Checks = []string{"nope"} }, "unknown check"},
		{"bad extra rule", func(c *RuntimeConfig) { c.ExtraRules = []rules.Spec{{Name: "x"}} }, "extra rule"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultRuntimeConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}

func TestExtraRulesFromFile(t *testing.T) {
	path := writeConfig(t, strings.Join([]string{
		"checks: [direct-access, todo-comments]",
		"extraRules:",
		"  - name: todo-comments",
		"    title: TODO comments",
		"    kind: line",
		"    patterns: ['TODO']",
		"    severity: info",
	}, "\n"))

	cfg, err := Loader{ConfigPath: path}.Load(Overrides{})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	registry, err := cfg.Registry()
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	if _, ok := registry["todo-comments"]; !ok {
		t.Fatal("extra rule should be registered")
	}
}

func TestInvalidEnvIsReported(t *testing.T) {
	t.Setenv(envToolTimeout, "soon")
	if _, err := (Loader{ConfigPath: "-"}).Load(Overrides{}); err == nil {
		t.Fatal("expected an error for an invalid timeout")
	}
}

func TestStarterRoundTrips(t *testing.T) {
	data, err := Starter(DefaultRuntimeConfig())
	if err != nil {
		t.Fatalf("starter: %v", err)
	}
	var file FileConfig
	if err := yaml.Unmarshal(data, &file); err != nil {
		t.Fatalf("starter config is not valid YAML: %v", err)
	}

	path := writeConfig(t, string(data))
	cfg, err := Loader{ConfigPath: path}.Load(Overrides{})
	if err != nil {
		t.Fatalf("load starter: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("starter config should validate: %v", err)
	}
}

func TestParseList(t *testing.T) {
	got := ParseList("text, sarif\njson  ")
	if strings.Join(got, "|") != "text|sarif|json" {
		t.Fatalf("unexpected list %v", got)
	}
	if ParseList("   ") != nil {
		t.Fatal("blank input should yield nil")
	}
}

func contains(list []string, value string) bool {
	for _, v := range list {
		if v == value {
			return true
		}
	}
	return false
}
