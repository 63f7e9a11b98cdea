package ledger

import (
	"strings"

	"github.com/ginjaninja78/razao/internal/types"
)

// =============================================================================
// COLUMN LAYOUT
// =============================================================================

// Layout maps the source header onto canonical fields and passthrough
// columns. It is computed once per table.
type Layout struct {
	// canonical maps a canonical field to its source column index.
	canonical map[string]int

	// passthrough lists the source columns copied verbatim, in source order.
	passthrough []passthroughColumn
}

type passthroughColumn struct {
	name  string
	index int
}

// NewLayout resolves columns. Source names are compared folded and trimmed,
// so "DÉBITO" and " Debito " both fill Débito. The first source column that
// resolves to a canonical field wins; placeholder columns are never kept.
func NewLayout(columns []string) *Layout {
	l := &Layout{canonical: make(map[string]int)}
	seen := make(map[string]bool)
	for i, name := range columns {
		if types.IsPlaceholderColumn(name) {
			continue
		}
		if field, ok := canonicalFor(name); ok {
			if _, taken := l.canonical[field]; !taken {
				l.canonical[field] = i
				continue
			}
		}
		trimmed := strings.TrimSpace(name)
		if seen[trimmed] || types.IsCanonical(trimmed) {
			continue
		}
		seen[trimmed] = true
		l.passthrough = append(l.passthrough, passthroughColumn{name: trimmed, index: i})
	}
	return l
}

var foldedCanonical = func() map[string]string {
	m := make(map[string]string, len(types.CanonicalFields))
	for _, f := range types.CanonicalFields {
		m[Fold(f)] = f
	}
	return m
}()

func canonicalFor(name string) (string, bool) {
	f, ok := foldedCanonical[strings.TrimSpace(Fold(name))]
	return f, ok
}

// Index returns the source column index of a canonical field.
func (l *Layout) Index(field string) (int, bool) {
	i, ok := l.canonical[field]
	return i, ok
}

// Value returns the row's cell for a canonical field, empty when the column
// does not exist.
func (l *Layout) Value(row types.RawRow, field string) types.Cell {
	i, ok := l.canonical[field]
	if !ok {
		return types.Empty()
	}
	return row.Cell(i)
}

// Columns returns the output columns: canonical fields, then passthrough.
func (l *Layout) Columns() []string {
	cols := append([]string(nil), types.CanonicalFields...)
	for _, p := range l.passthrough {
		cols = append(cols, p.name)
	}
	return cols
}

// =============================================================================
// TRANSACTION CLASSIFIER
// =============================================================================

// Kind is the outcome of classifying one row.
type Kind int

const (
	// Skip rows produce no output and leave the context untouched.
	Skip Kind = iota
	// Transaction rows produce one CleanRow.
	Transaction
	// Header rows replace the active account.
	Header
)

func (k Kind) String() string {
	switch k {
	case Transaction:
		return "transaction"
	case Header:
		return "header"
	default:
		return "skip"
	}
}

// SkipReason explains why a row was skipped.
type SkipReason int

const (
	NotSkipped SkipReason = iota
	SkipBalance
	SkipNoDate
	SkipUndated
)

func (r SkipReason) String() string {
	switch r {
	case SkipBalance:
		return "saldo anterior"
	case SkipNoDate:
		return "empty date"
	case SkipUndated:
		return "date without digits"
	default:
		return ""
	}
}

const balanceMarker = "saldo anterior"

// Classifier decides the Kind of each row and builds transaction rows.
type Classifier struct {
	detector *Detector
	layout   *Layout
	numbers  NumberFormat
}

// NewClassifier wires a detector, a column layout and a number format.
func NewClassifier(detector *Detector, layout *Layout, numbers NumberFormat) *Classifier {
	return &Classifier{detector: detector, layout: layout, numbers: numbers}
}

// Classify applies the decision order: header, balance row, missing date,
// date with digits. lowerText is the row text already folded.
func (c *Classifier) Classify(row types.RawRow, lowerText string) Kind {
	k, _ := c.classify(row, lowerText)
	return k
}

func (c *Classifier) classify(row types.RawRow, lowerText string) (Kind, SkipReason) {
	if c.detector.Matches(lowerText) {
		return Header, NotSkipped
	}
	if strings.Contains(lowerText, balanceMarker) {
		return Skip, SkipBalance
	}
	date := c.layout.Value(row, types.FieldData)
	if date.IsEmpty() {
		return Skip, SkipNoDate
	}
	if hasDigit(date.String()) {
		return Transaction, NotSkipped
	}
	return Skip, SkipUndated
}

// Materialize builds the CleanRow for a transaction row carrying account.
func (c *Classifier) Materialize(row types.RawRow, account string) types.CleanRow {
	out := types.NewCleanRow(len(types.CanonicalFields) + len(c.layout.passthrough))
	out.Set(types.FieldData, types.Text(strings.TrimSpace(c.layout.Value(row, types.FieldData).String())))
	out.Set(types.FieldCredito, types.Number(c.numbers.Normalize(c.layout.Value(row, types.FieldCredito))))
	out.Set(types.FieldDebito, types.Number(c.numbers.Normalize(c.layout.Value(row, types.FieldDebito))))
	out.Set(types.FieldHistorico, types.Text(c.layout.Value(row, types.FieldHistorico).String()))
	out.Set(types.FieldConta, types.Text(account))
	for _, p := range c.layout.passthrough {
		out.Set(p.name, row.Cell(p.index))
	}
	return out
}
