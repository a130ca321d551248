package rules

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/example/wp-plugin-qa/internal/walker"
)

const (
	// DefaultMaxFileBytes bounds the size of a file the scanner will read.
	DefaultMaxFileBytes = 5 * 1024 * 1024

	binarySniffBytes = 8000
	maxTextRunes     = 240
)

var (
	// ErrUndecodable is returned for files that do not look like text.
	ErrUndecodable = errors.New("file is not decodable as text")
	// ErrTooLarge is returned for files above the scanner's size limit.
	ErrTooLarge = errors.New("file exceeds scan size limit")
)

// Scanner applies rules to file candidates.
type Scanner struct {
	MaxFileBytes int64
}

// NewScanner returns a scanner with the default size limit.
func NewScanner() *Scanner {
	return &Scanner{MaxFileBytes: DefaultMaxFileBytes}
}

// Scan reads the candidate and applies rule to it. Files the rule does not apply to yield nothing.
func (s *Scanner) Scan(c walker.FileCandidate, rule Rule) ([]Finding, error) {
	if !rule.Applies(c.Ext) {
		return nil, nil
	}

	if s.MaxFileBytes > 0 {
		info, err := os.Stat(c.Path)
		if err != nil {
			return nil, err
		}
		if info.Size() > s.MaxFileBytes {
			return nil, fmt.Errorf("%s: %w", c.Rel, ErrTooLarge)
		}
	}

	data, err := os.ReadFile(c.Path)
	if err != nil {
		return nil, err
	}
	if isBinary(data) {
		return nil, fmt.Errorf("%s: %w", c.Rel, ErrUndecodable)
	}

	return ScanContent(c.Rel, c.Ext, data, rule), nil
}

// ScanContent applies rule to already loaded content. rel is recorded verbatim as the finding path.
func ScanContent(rel, ext string, data []byte, rule Rule) []Finding {
	if rule.Kind == KindAbsence {
		for _, guard := range rule.Guards {
			if bytes.Contains(data, []byte(guard)) {
				return nil
			}
		}
		message := rule.Message
		if message == "" {
			message = "required pattern not found"
		}
		return []Finding{{Rule: rule.Name, Path: rel, Line: 1, Text: message}}
	}

	var matchers []Matcher
	for _, m := range rule.Matchers {
		if m.applies(ext) {
			matchers = append(matchers, m)
		}
	}
	if len(matchers) == 0 {
		return nil
	}

	var findings []Finding
	for idx, line := range bytes.Split(data, []byte{'\n'}) {
		line = bytes.TrimSuffix(line, []byte{'\r'})
		for _, m := range matchers {
			if !m.Expr.Match(line) {
				continue
			}
			if m.Exclude != nil && m.Exclude.Match(line) {
				continue
			}
			findings = append(findings, Finding{
				Rule:    rule.Name,
				Matcher: m.Label,
				Path:    rel,
				Line:    idx + 1,
				Text:    clip(string(line)),
			})
		}
	}
	return findings
}

func isBinary(data []byte) bool {
	sniff := data
	if len(sniff) > binarySniffBytes {
		sniff = sniff[:binarySniffBytes]
	}
	return bytes.IndexByte(sniff, 0) >= 0
}

func clip(line string) string {
	line = strings.TrimSpace(line)
	if utf8.RuneCountInString(line) <= maxTextRunes {
		return line
	}
	runes := []rune(line)
	return string(runes[:maxTextRunes]) + "…"
}
