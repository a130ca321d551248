package rules

// Check names of the built-in rules.
const (
	DirectAccess          = "direct-access"
	HighRiskFunctions     = "high-risk-functions"
	UnsafeDeserialization = "unsafe-deserialization"
	SQLQueries            = "sql-queries"
	InputHandling         = "input-handling"
	OutputEscaping        = "output-escaping"
	NonceChecks           = "nonce-checks"
	CapabilityChecks      = "capability-checks"
	Credentials           = "credentials"
	DebugOutput           = "debug-output"
	DeprecatedFunctions   = "deprecated-functions"
)

var (
	phpSource = []string{".php", ".inc"}
	phpOnly   = []string{".php"}
)

// DirectAccessGuards are the accepted idioms that stop a file from running outside WordPress.
var DirectAccessGuards = []string{
	"defined( 'ABSPATH' )",
	"defined('ABSPATH')",
	`defined( "ABSPATH" )`,
	`defined("ABSPATH")`,
	"defined( 'WPINC' )",
	"defined('WPINC')",
	`defined( "WPINC" )`,
	`defined("WPINC")`,
	"function_exists( 'add_action' )",
	"function_exists('add_action')",
}

// Catalog returns the built-in rules in report order. Each call returns fresh slices.
func Catalog() []Rule {
	return []Rule{
		{
			Name:       DirectAccess,
			Title:      "Files without a direct access guard",
			Kind:       KindAbsence,
			Guards:     append([]string(nil), DirectAccessGuards...),
			Extensions: phpOnly,
			Severity:   SeverityReview,
			Message:    "no direct access guard found",
		},
		{
			Name:  HighRiskFunctions,
			Title: "High-risk function calls",
			Kind:  KindFunction,
			Matchers: []Matcher{
				Function("eval"),
				Function("exec", phpOnly...),
				Function("shell_exec", phpSource...),
				Function("passthru", phpSource...),
				Function("system", phpSource...),
				Function("popen", phpSource...),
				Function("proc_open", phpSource...),
				Function("base64_decode", phpSource...),
			},
			Extensions:      []string{".php", ".inc", ".js"},
			Severity:        SeverityCritical,
			BlocksExecution: true,
		},
		{
			Name:       UnsafeDeserialization,
			Title:      "Unsafe deserialization",
			Kind:       KindFunction,
			Matchers:   []Matcher{Function("unserialize")},
			Extensions: phpSource,
			Severity:   SeverityReview,
		},
		{
			Name:  SQLQueries,
			Title: "Database queries built without prepare()",
			Kind:  KindLine,
			Matchers: []Matcher{
				LineExcept("wpdb", `\$wpdb->(?:query|get_results|get_row|get_var|get_col)\s*\(`, `->prepare\s*\(`),
			},
			Extensions: phpSource,
			Severity:   SeverityReview,
		},
		{
			Name:       InputHandling,
			Title:      "Unsanitized request input",
			Kind:       KindLine,
			Matchers:   superglobalMatchers(),
			Extensions: phpSource,
			Severity:   SeverityReview,
		},
		{
			Name:  OutputEscaping,
			Title: "Output without escaping",
			Kind:  KindLine,
			Matchers: []Matcher{
				LineExcept("echo", `\b(?:echo|print)\s[^;]*\$\w+`, escapingFunctions),
				LineExcept("short-echo", `<\?=\s*\$\w+`, escapingFunctions),
			},
			Extensions: phpSource,
			Severity:   SeverityReview,
		},
		{
			Name:  NonceChecks,
			Title: "Nonce verification calls",
			Kind:  KindFunction,
			Matchers: []Matcher{
				Function("wp_verify_nonce"),
				Function("check_admin_referer"),
				Function("check_ajax_referer"),
			},
			Extensions: phpSource,
			Severity:   SeverityInfo,
		},
		{
			Name:  CapabilityChecks,
			Title: "Capability checks",
			Kind:  KindFunction,
			Matchers: []Matcher{
				Function("current_user_can"),
				Function("user_can"),
			},
			Extensions: phpSource,
			Severity:   SeverityInfo,
		},
		{
			Name:  Credentials,
			Title: "Hard-coded credentials",
			Kind:  KindLine,
			Matchers: []Matcher{
				LineExcept("credential",
					`(?i)\b(?:api[_-]?key|secret(?:[_-]?key)?|password|passwd|auth[_-]?token|access[_-]?token)\b['"]?\s*(?:=>|=|:)\s*['"][^'"\s]{6,}['"]`,
					`(?i)(?:get_option|getenv|placeholder|example|your[_-])`),
			},
			Extensions: []string{".php", ".inc", ".js", ".json", ".yml", ".yaml", ".ini", ".env", ".xml"},
			Severity:   SeverityCritical,
		},
		{
			Name:  DebugOutput,
			Title: "Leftover debugging output",
			Kind:  KindFunction,
			Matchers: []Matcher{
				Function("var_dump"),
				Function("print_r"),
				Function("error_log"),
				Function("debug_print_backtrace"),
			},
			Extensions: phpSource,
			Severity:   SeverityReview,
		},
		{
			Name:  DeprecatedFunctions,
			Title: "Removed or deprecated PHP functions",
			Kind:  KindFunction,
			Matchers: []Matcher{
				Function("create_function"),
				Function("each"),
				Function("mysql_query"),
				Function("mysql_connect"),
				Function("ereg"),
				Function("eregi"),
				Function("split"),
			},
			Extensions: phpSource,
			Severity:   SeverityReview,
		},
	}
}

// Lookup returns the built-in rule with the given name.
func Lookup(name string) (Rule, bool) {
	for _, rule := range Catalog() {
		if rule.Name == name {
			return rule, true
		}
	}
	return Rule{}, false
}

const escapingFunctions = `\b(?:esc_\w+|wp_kses\w*|absint|intval|number_format_i18n|wp_json_encode|json_encode)\s*\(`

func superglobalMatchers() []Matcher {
	const sanitized = `\b(?:sanitize_\w+|absint|intval|floatval|wp_unslash|esc_\w+|isset|empty|wp_verify_nonce)\s*\(`
	names := []string{"GET", "POST", "REQUEST", "COOKIE", "SERVER", "FILES"}
	out := make([]Matcher, 0, len(names))
	for _, name := range names {
		out = append(out, LineExcept("$_"+name, `\$_`+name+`\s*\[`, sanitized))
	}
	return out
}
