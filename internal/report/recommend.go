package report

import "github.com/example/wp-plugin-qa/internal/rules"

// recommendations apply when the keyed check has findings.
var recommendations = map[string]string{
	rules.DirectAccess:          "Add `defined( 'ABSPATH' ) || exit;` at the top of every PHP file that runs code.",
	rules.HighRiskFunctions:     "Remove eval/exec-style calls or replace them with WordPress APIs; activation tests stay disabled until they are gone.",
	rules.UnsafeDeserialization: "Replace unserialize() on untrusted data with json_decode(), or pass array( 'allowed_classes' => false ).",
	rules.SQLQueries:            "Build queries with $wpdb->prepare() placeholders instead of string concatenation.",
	rules.InputHandling:         "Sanitize request input with wp_unslash() and a sanitize_*() function before use.",
	rules.OutputEscaping:        "Escape output late with esc_html(), esc_attr(), esc_url() or wp_kses().",
	rules.Credentials:           "Move credentials out of the source tree into options or environment configuration and rotate them.",
	rules.DebugOutput:           "Remove var_dump(), print_r() and error_log() debugging before release.",
	rules.DeprecatedFunctions:   "Replace removed PHP functions (create_function, each, mysql_*, ereg, split).",
	CheckSyntax:                 "Fix PHP syntax errors; affected files fatal as soon as they are loaded.",
	CheckCodingStandards:        "Run phpcbf to fix auto-fixable coding standard violations and review the remainder.",
	CheckCompatibility:          "Resolve PHP compatibility issues for the targeted PHP versions.",
	CheckActivation:             "Activation or deactivation failed; inspect wp-content/debug.log on the test site.",
}

// inputGuardRecommendations apply when the keyed check found nothing while request input is read.
var inputGuardRecommendations = map[string]string{
	rules.NonceChecks:      "Request input is read but no nonce is verified; add wp_verify_nonce() or check_admin_referer().",
	rules.CapabilityChecks: "Request input is read but no capability is checked; guard handlers with current_user_can().",
}

// Recommend derives recommendation lines from section counts, in section order.
func Recommend(sections []Section, counts map[string]int) []string {
	out := []string{}
	readsInput := counts[rules.InputHandling] > 0
	for _, s := range sections {
		if s.Status() == StatusSkipped || s.Status() == StatusFailed {
			continue
		}
		if text, ok := recommendations[s.Check]; ok && s.Count > 0 {
			out = append(out, text)
		}
		if text, ok := inputGuardRecommendations[s.Check]; ok && s.Count == 0 && readsInput {
			out = append(out, text)
		}
	}
	return out
}
