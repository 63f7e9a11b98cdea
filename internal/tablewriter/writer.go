// =============================================================================
// Razão Normalizer - Table Writer Module
// =============================================================================
//
// This module writes the cleaned ledger table to disk. One table becomes one
// output file; the format follows the output extension:
//
//   | extension | layout                                                    |
//   |-----------|-----------------------------------------------------------|
//   | .xlsx     | one sheet, header row in bold, amounts as numbers         |
//   | .csv      | UTF-8 with BOM, ";" separated, amounts with the locale    |
//   |           | decimal separator so the file can be normalized again     |
//   | .xml      | <razao><lancamento n="1"><Data>..</Data>..</lancamento>   |
//
// =============================================================================

package tablewriter

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ginjaninja78/razao/internal/ledger"
	"github.com/ginjaninja78/razao/internal/types"
)

// Format is an output file format.
type Format string

const (
	FormatXLSX Format = "xlsx"
	FormatCSV  Format = "csv"
	FormatXML  Format = "xml"
)

// ParseFormat validates a format name, with or without a leading dot.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s)), ".")); f {
	case FormatXLSX, FormatCSV, FormatXML:
		return f, nil
	default:
		return "", fmt.Errorf("unsupported output format %q", s)
	}
}

// FormatFromPath derives the format from a file extension.
func FormatFromPath(path string) (Format, error) {
	return ParseFormat(filepath.Ext(path))
}

// =============================================================================
// WRITE OPTIONS
// =============================================================================

// Options controls the writers. Zero values take the defaults below.
type Options struct {
	// CSVDelimiter separates CSV fields. Default: ';'
	CSVDelimiter rune

	// Numbers formats amounts in CSV output. Default: ledger.Brazilian
	Numbers ledger.NumberFormat

	// SheetName names the XLSX worksheet. Default: "Razao"
	SheetName string

	// XMLRootTag and XMLRowTag name the XML elements.
	// Defaults: "razao", "lancamento"
	XMLRootTag string
	XMLRowTag  string

	// Indent is the XML indentation. Default: two spaces
	Indent string
}

// DefaultOptions returns the default write options.
func DefaultOptions() Options {
	return Options{
		CSVDelimiter: ';',
		Numbers:      ledger.Brazilian,
		SheetName:    "Razao",
		XMLRootTag:   "razao",
		XMLRowTag:    "lancamento",
		Indent:       "  ",
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.CSVDelimiter == 0 {
		o.CSVDelimiter = d.CSVDelimiter
	}
	if o.Numbers.Decimal == 0 {
		o.Numbers = d.Numbers
	}
	if o.SheetName == "" {
		o.SheetName = d.SheetName
	}
	if o.XMLRootTag == "" {
		o.XMLRootTag = d.XMLRootTag
	}
	if o.XMLRowTag == "" {
		o.XMLRowTag = d.XMLRowTag
	}
	if o.Indent == "" {
		o.Indent = d.Indent
	}
	return o
}

// =============================================================================
// WRITE FUNCTIONS
// =============================================================================

// Write saves the table to path in the format given by its extension.
//
// PARAMETERS:
//   - path: The output file. Its directory must exist.
//   - table: The cleaned table.
//   - opts: The write options.
//
// RETURNS:
//   - An error if the extension is unsupported or the file cannot be written.
//     A failed write leaves no partial file behind.
func Write(path string, table *types.Table, opts Options) error {
	format, err := FormatFromPath(path)
	if err != nil {
		return err
	}

	// Written next to the target and renamed, so readers never see half a file.
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if err := Encode(tmp, format, table, opts); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close output file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("failed to move output file into place: %w", err)
	}
	return nil
}

// Encode writes the table to w in the given format.
func Encode(w io.Writer, format Format, table *types.Table, opts Options) error {
	opts = opts.withDefaults()
	if table == nil {
		table = &types.Table{Columns: types.CanonicalFields}
	}

	switch format {
	case FormatXLSX:
		return writeXLSX(w, table, opts)
	case FormatCSV:
		return writeCSV(w, table, opts)
	case FormatXML:
		return writeXML(w, table, opts)
	default:
		return fmt.Errorf("unsupported output format %q", format)
	}
}
