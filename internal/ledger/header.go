package ledger

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// =============================================================================
// ACCOUNT HEADER DETECTOR
// =============================================================================

// HeaderRule selects how account header rows are recognised. Exactly one rule
// is active per run.
type HeaderRule string

const (
	// HeaderRulePrefix accepts rows whose text starts with the word "conta"
	// ("Conta: 11101 ...", "Conta Analítica 11101 ..."). A transaction whose
	// history merely mentions a "conta" is not a header under this rule.
	HeaderRulePrefix HeaderRule = "prefix"

	// HeaderRuleContains accepts any row whose text contains "conta"
	// anywhere, including inside longer words such as "contabilidade".
	HeaderRuleContains HeaderRule = "contains"
)

// ParseHeaderRule validates a rule name. Empty selects HeaderRulePrefix.
func ParseHeaderRule(s string) (HeaderRule, error) {
	switch HeaderRule(strings.ToLower(strings.TrimSpace(s))) {
	case "", HeaderRulePrefix:
		return HeaderRulePrefix, nil
	case HeaderRuleContains:
		return HeaderRuleContains, nil
	default:
		return "", fmt.Errorf("unknown header rule %q (want %q or %q)", s, HeaderRulePrefix, HeaderRuleContains)
	}
}

// DefaultMinCodeDigits is the shortest digit run taken as an account code.
const DefaultMinCodeDigits = 5

const headerToken = "conta"

var nameMarker = regexp.MustCompile(`(?i)nome:\s*(.*)`)

// Detector recognises account header rows and extracts their label.
type Detector struct {
	rule HeaderRule
	code *regexp.Regexp
}

// NewDetector builds a detector. minCodeDigits <= 0 uses DefaultMinCodeDigits.
func NewDetector(rule HeaderRule, minCodeDigits int) *Detector {
	if rule == "" {
		rule = HeaderRulePrefix
	}
	if minCodeDigits <= 0 {
		minCodeDigits = DefaultMinCodeDigits
	}
	return &Detector{
		rule: rule,
		code: regexp.MustCompile(fmt.Sprintf(`\d{%d,}`, minCodeDigits)),
	}
}

// Rule returns the active header rule.
func (d *Detector) Rule() HeaderRule { return d.rule }

// Matches reports whether text is an account header under the active rule.
func (d *Detector) Matches(text string) bool {
	folded := strings.TrimSpace(Fold(text))
	if d.rule == HeaderRuleContains {
		return strings.Contains(folded, headerToken)
	}
	if !strings.HasPrefix(folded, headerToken) {
		return false
	}
	rest := folded[len(headerToken):]
	if rest == "" {
		return true
	}
	r, _ := utf8.DecodeRuneInString(rest)
	return !unicode.IsLetter(r)
}

// Detect returns the account label for a header row. ok is false when the
// text is not a header.
func (d *Detector) Detect(text string) (label string, ok bool) {
	if !d.Matches(text) {
		return "", false
	}
	return d.Label(text), true
}

// Label extracts "<code> - <name>" from header text. When either the code or
// the "Nome:" marker is missing the trimmed text itself is the label.
func (d *Detector) Label(text string) string {
	text = strings.TrimSpace(text)
	code := d.code.FindString(text)
	name := nameMarker.FindStringSubmatch(text)
	if code == "" || name == nil {
		return text
	}
	return code + " - " + strings.TrimSpace(name[1])
}
