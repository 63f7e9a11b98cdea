// =============================================================================
// Razão Normalizer - Shared Types
// =============================================================================
//
// This package contains the table types shared by the parsers, the ledger
// normalizer and the writers. Keeping them here avoids import cycles between:
//   - csvparser / xlsxparser  (produce RawTable)
//   - ledger                  (RawTable -> Table)
//   - tablewriter / validation / report (consume Table)
//
// =============================================================================

package types

import (
	"regexp"
	"strconv"
	"strings"
)

// =============================================================================
// CANONICAL FIELDS
// =============================================================================

// Canonical output columns, in their fixed output order.
const (
	FieldData      = "Data"
	FieldCredito   = "Crédito"
	FieldDebito    = "Débito"
	FieldHistorico = "Histórico"
	FieldConta     = "Conta"
)

// CanonicalFields lists the canonical columns in output order.
var CanonicalFields = []string{FieldData, FieldCredito, FieldDebito, FieldHistorico, FieldConta}

// IsCanonical reports whether name is one of the canonical output columns.
func IsCanonical(name string) bool {
	for _, f := range CanonicalFields {
		if f == name {
			return true
		}
	}
	return false
}

// IsNumericField reports whether the canonical column holds a monetary value.
func IsNumericField(name string) bool {
	return name == FieldCredito || name == FieldDebito
}

// =============================================================================
// CELL
// =============================================================================

// CellKind tells which member of a Cell is meaningful.
type CellKind int

const (
	CellEmpty CellKind = iota
	CellText
	CellNumber
)

// Cell is a single source or output value: empty, text or number.
type Cell struct {
	Kind   CellKind
	Text   string
	Number float64
}

// Empty returns an empty cell.
func Empty() Cell { return Cell{} }

// Text returns a text cell. Blank text stays text; IsEmpty treats it as empty.
func Text(s string) Cell { return Cell{Kind: CellText, Text: s} }

// Number returns a numeric cell.
func Number(f float64) Cell { return Cell{Kind: CellNumber, Number: f} }

// IsEmpty reports whether the cell is absent or whitespace-only text.
func (c Cell) IsEmpty() bool {
	switch c.Kind {
	case CellText:
		return strings.TrimSpace(c.Text) == ""
	case CellNumber:
		return false
	default:
		return true
	}
}

// String renders the cell as text. Numbers use the shortest representation
// that round-trips ("1500", "200.5").
func (c Cell) String() string {
	switch c.Kind {
	case CellText:
		return c.Text
	case CellNumber:
		return strconv.FormatFloat(c.Number, 'f', -1, 64)
	default:
		return ""
	}
}

// =============================================================================
// RAW TABLE (parser output)
// =============================================================================

// RawRow is one source row. Cells are positional and aligned with the
// Columns of the RawTable the row belongs to.
type RawRow struct {
	// Number is the 1-based row number in the source sheet or file.
	Number int

	// Cells holds the row's values. It may be shorter than Columns.
	Cells []Cell
}

// Cell returns the value at index i, or an empty cell when out of range.
func (r RawRow) Cell(i int) Cell {
	if i < 0 || i >= len(r.Cells) {
		return Empty()
	}
	return r.Cells[i]
}

// Text joins every non-empty cell with a single space.
func (r RawRow) Text() string {
	parts := make([]string, 0, len(r.Cells))
	for _, c := range r.Cells {
		if c.IsEmpty() {
			continue
		}
		parts = append(parts, strings.TrimSpace(c.String()))
	}
	return strings.Join(parts, " ")
}

// IsBlank reports whether every cell is empty.
func (r RawRow) IsBlank() bool {
	for _, c := range r.Cells {
		if !c.IsEmpty() {
			return false
		}
	}
	return true
}

// RawTable is the parsed input: a header plus data rows.
type RawTable struct {
	// Columns contains the header names, placeholders included.
	Columns []string

	// Rows contains every data row after the header, in source order.
	Rows []RawRow

	// SourceFile is the path the table was read from, if any.
	SourceFile string
}

// placeholderPattern matches generated header names: pandas style
// "Unnamed: 3" and the "Column_3" names produced for blank headers.
var placeholderPattern = regexp.MustCompile(`(?i)^(unnamed(:\s*\d+)?|column_\d+)$`)

// IsPlaceholderColumn reports whether a header name is an exporter artefact
// that must not be carried into the output.
func IsPlaceholderColumn(name string) bool {
	name = strings.TrimSpace(name)
	return name == "" || placeholderPattern.MatchString(name)
}

// =============================================================================
// CLEAN TABLE (normalizer output)
// =============================================================================

// CleanRow is an ordered column -> value mapping.
type CleanRow struct {
	keys   []string
	values map[string]Cell
}

// NewCleanRow returns an empty row with room for n columns.
func NewCleanRow(n int) CleanRow {
	return CleanRow{
		keys:   make([]string, 0, n),
		values: make(map[string]Cell, n),
	}
}

// Set stores a value, appending the column if it is new.
func (r *CleanRow) Set(column string, value Cell) {
	if r.values == nil {
		r.values = make(map[string]Cell)
	}
	if _, ok := r.values[column]; !ok {
		r.keys = append(r.keys, column)
	}
	r.values[column] = value
}

// Get returns the value stored for column.
func (r CleanRow) Get(column string) (Cell, bool) {
	c, ok := r.values[column]
	return c, ok
}

// Keys returns the row's columns in insertion order.
func (r CleanRow) Keys() []string {
	return append([]string(nil), r.keys...)
}

// Len returns the number of columns in the row.
func (r CleanRow) Len() int { return len(r.keys) }

// Table is the cleaned output table.
type Table struct {
	// Columns is the output layout: canonical fields, then passthrough columns.
	Columns []string

	// Rows contains one entry per detected transaction, in source order.
	Rows []CleanRow
}

// Value returns the cell of row i at column, or an empty cell.
func (t *Table) Value(i int, column string) Cell {
	if i < 0 || i >= len(t.Rows) {
		return Empty()
	}
	c, _ := t.Rows[i].Get(column)
	return c
}
