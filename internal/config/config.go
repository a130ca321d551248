package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/example/wp-plugin-qa/internal/bridge"
	"github.com/example/wp-plugin-qa/internal/checks"
	"github.com/example/wp-plugin-qa/internal/rules"
	"github.com/example/wp-plugin-qa/internal/walker"
)

const (
	DefaultConfigPath = "plugin-qa.config.yml"

	envProfile        = "PLUGINQA_PROFILE"
	envPHPVersion     = "PLUGINQA_PHP_VERSION"
	envStandard       = "PLUGINQA_STANDARD"
	envCompatStandard = "PLUGINQA_COMPAT_STANDARD"
	envOutputDir      = "PLUGINQA_OUTPUT_DIR"
	envExclude        = "PLUGINQA_EXCLUDE"
	envChecks         = "PLUGINQA_CHECKS"
	envJobs           = "PLUGINQA_JOBS"
	envActivation     = "PLUGINQA_ACTIVATION"
	envWPPath         = "PLUGINQA_WP_PATH"
	envToolTimeout    = "PLUGINQA_TOOL_TIMEOUT"
	envFormats        = "PLUGINQA_FORMATS"
	envPHPCSBinary    = "PLUGINQA_PHPCS_BINARY"
	envPHPBinary      = "PLUGINQA_PHP_BINARY"
	envWPBinary       = "PLUGINQA_WP_BINARY"
)

// Output formats. Text artifacts are always written.
const (
	FormatText  = "text"
	FormatSARIF = "sarif"
	FormatJSON  = "json"
)

var phpVersionPattern = regexp.MustCompile(`^\d+\.\d+(-(\d+\.\d+)?)?$`)

// Loader merges configuration coming from profiles, files, environment variables, and CLI flags.
type Loader struct {
	ConfigPath string
}

// RuntimeConfig contains the fully merged settings of a scan.
type RuntimeConfig struct {
	Profile        string
	PHPVersion     string
	Standard       string
	CompatStandard string
	OutputDir      string
	Exclusions     []string
	Checks         []string
	Jobs           int
	Activation     bool
	WPPath         string
	ToolTimeout    time.Duration
	Formats        []string
	PHPCSBinary    string
	PHPBinary      string
	WPBinary       string
	ExtraRules     []rules.Spec
}

// Overrides captures values coming from the config file, env vars or CLI flags.
// Zero values mean "not set".
type Overrides struct {
	Profile        string
	PHPVersion     string
	Standard       string
	CompatStandard string
	OutputDir      string
	Exclusions     []string
	Checks         []string
	Jobs           int
	JobsSet        bool
	Activation     *bool
	WPPath         string
	ToolTimeout    time.Duration
	Formats        []string
	PHPCSBinary    string
	PHPBinary      string
	WPBinary       string
	ExtraRules     []rules.Spec
}

// DefaultRuntimeConfig returns the baseline configuration of the standard profile.
func DefaultRuntimeConfig() RuntimeConfig {
	cfg := RuntimeConfig{
		Standard:       "WordPress",
		CompatStandard: "PHPCompatibilityWP",
		OutputDir:      "qa-reports",
		Exclusions:     append([]string(nil), walker.DefaultExclusions...),
		Jobs:           1,
		Activation:     true,
		ToolTimeout:    bridge.DefaultTimeout,
		Formats:        []string{FormatText, FormatSARIF, FormatJSON},
		PHPCSBinary:    "phpcs",
		PHPBinary:      "php",
		WPBinary:       "wp",
	}
	_ = cfg.applyProfile(ProfileStandard)
	return cfg
}

// Load resolves the final runtime configuration. The profile is applied first, so any
// explicit setting wins over it.
func (l Loader) Load(override Overrides) (RuntimeConfig, error) {
	cfg := DefaultRuntimeConfig()
	path := l.ConfigPath
	if path == "" {
		path = DefaultConfigPath
	}

	var fileOv Overrides
	if fileExists(path) {
		var err error
		fileOv, err = loadFromFile(path)
		if err != nil {
			return cfg, fmt.Errorf("config file %s: %w", path, err)
		}
	}

	envOv, err := overridesFromEnv()
	if err != nil {
		return cfg, err
	}

	profile := ProfileStandard
	for _, ov := range []Overrides{fileOv, envOv, override} {
		if ov.Profile != "" {
			profile = ov.Profile
		}
	}
	if err := cfg.applyProfile(profile); err != nil {
		return cfg, err
	}

	for _, ov := range []Overrides{fileOv, envOv, override} {
		cfg.apply(ov)
	}
	return cfg, nil
}

// Validate ensures the config can drive a scan.
func (c RuntimeConfig) Validate() error {
	if _, ok := profiles[c.Profile]; !ok {
		return fmt.Errorf("unknown profile %q (expected one of %s)", c.Profile, strings.Join(ProfileNames(), ", "))
	}

	if !phpVersionPattern.MatchString(c.PHPVersion) {
		return fmt.Errorf("php version %q must look like 7.4, 7.4- or 7.4-8.3", c.PHPVersion)
	}

	if c.Jobs < 1 || c.Jobs > checks.MaxJobs {
		return fmt.Errorf("jobs must be between 1 and %d (got %d)", checks.MaxJobs, c.Jobs)
	}

	if c.ToolTimeout <= 0 {
		return fmt.Errorf("tool timeout must be positive (got %s)", c.ToolTimeout)
	}

	if len(c.Formats) == 0 {
		return errors.New("at least one output format must be specified")
	}
	for _, f := range c.Formats {
		switch f {
		case FormatText, FormatSARIF, FormatJSON:
		default:
			return fmt.Errorf("unknown output format %q", f)
		}
	}

	if c.OutputDir == "" {
		return errors.New("output directory cannot be empty")
	}

	if len(c.Checks) == 0 {
		return errors.New("no checks configured")
	}

	registry, err := c.Registry()
	if err != nil {
		return err
	}
	for _, name := range c.Checks {
		if _, ok := registry[name]; !ok {
			return fmt.Errorf("unknown check: %s", name)
		}
	}

	return nil
}

// Registry returns the built-in checks plus the compiled extra rules.
func (c RuntimeConfig) Registry() (checks.Registry, error) {
	extra := make([]rules.Rule, 0, len(c.ExtraRules))
	for _, spec := range c.ExtraRules {
		rule, err := rules.Compile(spec)
		if err != nil {
			return nil, fmt.Errorf("extra rule: %w", err)
		}
		extra = append(extra, rule)
	}
	return checks.NewRegistry(extra...)
}

// HasFormat reports whether format output is enabled.
func (c RuntimeConfig) HasFormat(format string) bool {
	for _, f := range c.Formats {
		if f == format {
			return true
		}
	}
	return false
}

func (c *RuntimeConfig) apply(src Overrides) {
	setString(&c.PHPVersion, src.PHPVersion)
	setString(&c.Standard, src.Standard)
	setString(&c.CompatStandard, src.CompatStandard)
	setString(&c.OutputDir, src.OutputDir)
	setString(&c.WPPath, src.WPPath)
	setString(&c.PHPCSBinary, src.PHPCSBinary)
	setString(&c.PHPBinary, src.PHPBinary)
	setString(&c.WPBinary, src.WPBinary)

	if len(src.Exclusions) > 0 {
		c.Exclusions = mergeList(c.Exclusions, src.Exclusions)
	}

	if len(src.Checks) > 0 {
		c.Checks = cleanList(src.Checks)
	}

	if src.JobsSet {
		c.Jobs = src.Jobs
	}

	if src.Activation != nil {
		c.Activation = *src.Activation
	}

	if src.ToolTimeout != 0 {
		c.ToolTimeout = src.ToolTimeout
	}

	if len(src.Formats) > 0 {
		c.Formats = cleanList(src.Formats)
	}

	if len(src.ExtraRules) > 0 {
		c.ExtraRules = append(c.ExtraRules, src.ExtraRules...)
	}
}

func setString(dst *string, value string) {
	if value = strings.TrimSpace(value); value != "" {
		*dst = value
	}
}

// FileConfig is the on-disk YAML layout.
type FileConfig struct {
	Profile        string       `yaml:"profile,omitempty"`
	PHPVersion     string       `yaml:"phpVersion,omitempty"`
	Standard       string       `yaml:"standard,omitempty"`
	CompatStandard string       `yaml:"compatStandard,omitempty"`
	OutputDir      string       `yaml:"outputDir,omitempty"`
	Exclude        listValue    `yaml:"exclude,omitempty"`
	Checks         listValue    `yaml:"checks,omitempty"`
	Jobs           *int         `yaml:"jobs,omitempty"`
	Activation     *bool        `yaml:"activation,omitempty"`
	WPPath         string       `yaml:"wpPath,omitempty"`
	ToolTimeout    string       `yaml:"toolTimeout,omitempty"`
	Formats        listValue    `yaml:"formats,omitempty"`
	PHPCSBinary    string       `yaml:"phpcsBinary,omitempty"`
	PHPBinary      string       `yaml:"phpBinary,omitempty"`
	WPBinary       string       `yaml:"wpBinary,omitempty"`
	ExtraRules     []rules.Spec `yaml:"extraRules,omitempty"`
}

func loadFromFile(path string) (Overrides, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Overrides{}, err
	}

	var raw FileConfig
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return Overrides{}, err
	}

	over := Overrides{
		Profile:        raw.Profile,
		PHPVersion:     raw.PHPVersion,
		Standard:       raw.Standard,
		CompatStandard: raw.CompatStandard,
		OutputDir:      raw.OutputDir,
		Exclusions:     raw.Exclude,
		Checks:         raw.Checks,
		Activation:     raw.Activation,
		WPPath:         raw.WPPath,
		Formats:        raw.Formats,
		PHPCSBinary:    raw.PHPCSBinary,
		PHPBinary:      raw.PHPBinary,
		WPBinary:       raw.WPBinary,
		ExtraRules:     raw.ExtraRules,
	}

	if raw.Jobs != nil {
		over.Jobs = *raw.Jobs
		over.JobsSet = true
	}

	if raw.ToolTimeout != "" {
		timeout, err := time.ParseDuration(raw.ToolTimeout)
		if err != nil {
			return Overrides{}, fmt.Errorf("toolTimeout: %w", err)
		}
		over.ToolTimeout = timeout
	}

	return over, nil
}

// Starter renders cfg as a config file.
func Starter(cfg RuntimeConfig) ([]byte, error) {
	jobs := cfg.Jobs
	activation := cfg.Activation
	file := FileConfig{
		Profile:        cfg.Profile,
		PHPVersion:     cfg.PHPVersion,
		Standard:       cfg.Standard,
		CompatStandard: cfg.CompatStandard,
		OutputDir:      cfg.OutputDir,
		Exclude:        cfg.Exclusions,
		Checks:         cfg.Checks,
		Jobs:           &jobs,
		Activation:     &activation,
		WPPath:         cfg.WPPath,
		ToolTimeout:    cfg.ToolTimeout.String(),
		Formats:        cfg.Formats,
		ExtraRules:     cfg.ExtraRules,
	}
	return yaml.Marshal(file)
}

func overridesFromEnv() (Overrides, error) {
	ov := Overrides{
		Profile:        os.Getenv(envProfile),
		PHPVersion:     os.Getenv(envPHPVersion),
		Standard:       os.Getenv(envStandard),
		CompatStandard: os.Getenv(envCompatStandard),
		OutputDir:      os.Getenv(envOutputDir),
		Exclusions:     ParseList(os.Getenv(envExclude)),
		Checks:         ParseList(os.Getenv(envChecks)),
		WPPath:         os.Getenv(envWPPath),
		Formats:        ParseList(os.Getenv(envFormats)),
		PHPCSBinary:    os.Getenv(envPHPCSBinary),
		PHPBinary:      os.Getenv(envPHPBinary),
		WPBinary:       os.Getenv(envWPBinary),
	}

	if value := os.Getenv(envJobs); value != "" {
		parsed, err := strconv.Atoi(value)
		if err != nil {
			return ov, fmt.Errorf("%s: %w", envJobs, err)
		}
		ov.Jobs = parsed
		ov.JobsSet = true
	}

	if value := os.Getenv(envActivation); value != "" {
		parsed, err := strconv.ParseBool(value)
		if err != nil {
			return ov, fmt.Errorf("%s: %w", envActivation, err)
		}
		ov.Activation = &parsed
	}

	if value := os.Getenv(envToolTimeout); value != "" {
		parsed, err := time.ParseDuration(value)
		if err != nil {
			return ov, fmt.Errorf("%s: %w", envToolTimeout, err)
		}
		ov.ToolTimeout = parsed
	}

	return ov, nil
}

// ParseList splits comma, whitespace or newline separated input.
func ParseList(input string) []string {
	return splitOnDelimiters(input, []rune{',', '\n', '\r', ' ', '\t'})
}

func splitOnDelimiters(input string, delims []rune) []string {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return nil
	}

	separator := func(r rune) bool {
		for _, d := range delims {
			if r == d {
				return true
			}
		}
		return false
	}

	return cleanList(strings.FieldsFunc(trimmed, separator))
}

func cleanList(values []string) []string {
	var out []string
	for _, v := range values {
		candidate := strings.TrimSpace(v)
		if candidate != "" {
			out = append(out, candidate)
		}
	}
	return out
}

func mergeList(base, extra []string) []string {
	out := append([]string(nil), base...)
	seen := make(map[string]struct{}, len(base))
	for _, v := range base {
		seen[v] = struct{}{}
	}
	for _, v := range cleanList(extra) {
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

func fileExists(path string) bool {
	if path == "" {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// listValue enables YAML fields that can be specified as a scalar or sequence.
type listValue []string

func (l *listValue) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.SequenceNode:
		var out []string
		for _, node := range value.Content {
			out = append(out, strings.TrimSpace(node.Value))
		}
		*l = cleanList(out)
	case yaml.ScalarNode:
		*l = ParseList(value.Value)
	default:
		return fmt.Errorf("unsupported YAML type for a list")
	}
	return nil
}
