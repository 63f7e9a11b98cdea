// =============================================================================
// Razão Normalizer - Validation Review
// =============================================================================
//
// This module reviews a cleaned ledger table and reports rows an accountant
// should look at. The review never changes the table and never blocks the
// output: every finding is reported, the file is written anyway.
//
// RULES:
//   | rule                 | finding                                          |
//   |----------------------|--------------------------------------------------|
//   | conta_nao_identificada | transaction found before any account header    |
//   | valores_zerados      | Crédito and Débito are both zero                 |
//   | debito_e_credito     | Crédito and Débito are both non-zero             |
//   | data_invalida        | Data does not parse in any known date layout     |
//
// ERROR HANDLING:
//   - Issues are collected, not returned one by one
//   - Each issue carries the output row, field and value
//   - Every rule is a warning; TreatWarningsAsErrors marks the result invalid
//
// =============================================================================

package validation

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ginjaninja78/razao/internal/ledger"
	"github.com/ginjaninja78/razao/internal/types"
)

// =============================================================================
// ISSUE TYPES
// =============================================================================

// Severity ranks an issue.
type Severity string

const (
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Rule names.
const (
	RuleUnassigned  = "conta_nao_identificada"
	RuleZeroAmounts = "valores_zerados"
	RuleBothAmounts = "debito_e_credito"
	RuleInvalidDate = "data_invalida"
)

// Issue is a single review finding.
type Issue struct {
	Severity Severity

	// Row is the 1-based line of the row in the output file; line 1 is the
	// header, so the first transaction is on line 2.
	Row int

	Field   string
	Value   string
	Rule    string
	Message string
}

// Error implements the error interface.
func (i *Issue) Error() string {
	return fmt.Sprintf("[%s] linha %d, campo '%s': %s (valor: '%s')",
		strings.ToUpper(string(i.Severity)),
		i.Row,
		i.Field,
		i.Message,
		i.Value,
	)
}

// =============================================================================
// REVIEW RESULT
// =============================================================================

// Result summarizes a review.
type Result struct {
	// IsValid is false when an error-severity issue was found.
	IsValid bool

	Issues       []*Issue
	ErrorCount   int
	WarningCount int

	// RowsReviewed is the number of table rows inspected.
	RowsReviewed int
}

// =============================================================================
// VALIDATOR
// =============================================================================

// Options configures the review.
type Options struct {
	// UnidentifiedAccount is the Conta label of rows without a header.
	// Default: ledger.DefaultUnidentifiedAccount
	UnidentifiedAccount string

	// DateLayouts are the accepted Data layouts (time.Parse syntax).
	// Default: DefaultDateLayouts
	DateLayouts []string

	// AcceptSerialDates accepts spreadsheet day serials such as "45296".
	// Default: true through DefaultOptions.
	AcceptSerialDates bool

	// TreatWarningsAsErrors escalates every warning.
	TreatWarningsAsErrors bool
}

// DefaultDateLayouts covers the layouts Brazilian ledger exports use.
var DefaultDateLayouts = []string{
	"02/01/2006",
	"2/1/2006",
	"02/01/06",
	"2006-01-02",
	"02-01-2006",
	"02.01.2006",
	"2006/01/02",
	"20060102",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"02/01/2006 15:04:05",
	"1/2/06 15:04",
}

// maxSerialDate is 9999-12-31 as a spreadsheet serial.
const maxSerialDate = 2958465

// DefaultOptions returns the default review options.
func DefaultOptions() Options {
	return Options{
		UnidentifiedAccount: ledger.DefaultUnidentifiedAccount,
		DateLayouts:         DefaultDateLayouts,
		AcceptSerialDates:   true,
	}
}

// Validator reviews cleaned tables.
type Validator struct {
	options Options
}

// NewValidator creates a validator. Empty option fields take defaults.
func NewValidator(options Options) *Validator {
	d := DefaultOptions()
	if options.UnidentifiedAccount == "" {
		options.UnidentifiedAccount = d.UnidentifiedAccount
	}
	if len(options.DateLayouts) == 0 {
		options.DateLayouts = d.DateLayouts
	}
	return &Validator{options: options}
}

// Validate reviews table with the default options and returns the issues.
func Validate(table *types.Table) []*Issue {
	return NewValidator(DefaultOptions()).ValidateAll(table).Issues
}

// ValidateAll reviews every row of the table.
func (v *Validator) ValidateAll(table *types.Table) *Result {
	result := &Result{IsValid: true, Issues: make([]*Issue, 0)}
	if table == nil {
		return result
	}
	result.RowsReviewed = len(table.Rows)

	for i, row := range table.Rows {
		for _, issue := range v.ValidateRow(i+2, row) {
			if v.options.TreatWarningsAsErrors {
				issue.Severity = SeverityError
			}
			result.Issues = append(result.Issues, issue)

			if issue.Severity == SeverityError {
				result.ErrorCount++
				result.IsValid = false
			} else {
				result.WarningCount++
			}
		}
	}
	return result
}

// ValidateRow applies every rule to one row. line is the row's line in the
// output file.
func (v *Validator) ValidateRow(line int, row types.CleanRow) []*Issue {
	var issues []*Issue
	warn := func(field, value, rule, message string) {
		issues = append(issues, &Issue{
			Severity: SeverityWarning,
			Row:      line,
			Field:    field,
			Value:    value,
			Rule:     rule,
			Message:  message,
		})
	}

	if conta, _ := row.Get(types.FieldConta); strings.TrimSpace(conta.String()) == v.options.UnidentifiedAccount {
		warn(types.FieldConta, conta.String(), RuleUnassigned, "lançamento antes do primeiro cabeçalho de conta")
	}

	credito, _ := row.Get(types.FieldCredito)
	debito, _ := row.Get(types.FieldDebito)
	c, d := ledger.NormalizeAmount(credito), ledger.NormalizeAmount(debito)
	switch {
	case c == 0 && d == 0:
		warn(types.FieldCredito, "0", RuleZeroAmounts, "crédito e débito zerados")
	case c != 0 && d != 0:
		warn(types.FieldDebito, fmt.Sprintf("%s / %s", debito, credito), RuleBothAmounts, "crédito e débito preenchidos na mesma linha")
	}

	if data, _ := row.Get(types.FieldData); !v.isDate(data) {
		warn(types.FieldData, data.String(), RuleInvalidDate, "data em formato não reconhecido")
	}

	return issues
}

// isDate reports whether the Data cell holds a recognizable date.
func (v *Validator) isDate(c types.Cell) bool {
	value := strings.TrimSpace(c.String())
	if value == "" {
		return false
	}

	for _, layout := range v.options.DateLayouts {
		if _, err := time.Parse(layout, value); err == nil {
			return true
		}
	}

	if v.options.AcceptSerialDates {
		if n, err := strconv.ParseFloat(value, 64); err == nil && n >= 1 && n <= maxSerialDate {
			return true
		}
	}
	return false
}

// =============================================================================
// REPORTING
// =============================================================================

// FormatIssues formats issues for display or logging.
func FormatIssues(issues []*Issue) string {
	if len(issues) == 0 {
		return "Nenhuma pendência encontrada."
	}

	var builder strings.Builder
	fmt.Fprintf(&builder, "Revisão concluída com %d pendência(s):\n\n", len(issues))
	for i, issue := range issues {
		fmt.Fprintf(&builder, "%d. %s\n", i+1, issue.Error())
	}
	return builder.String()
}

// CountByRule groups issue counts by rule name.
func CountByRule(issues []*Issue) map[string]int {
	counts := make(map[string]int)
	for _, issue := range issues {
		counts[issue.Rule]++
	}
	return counts
}
