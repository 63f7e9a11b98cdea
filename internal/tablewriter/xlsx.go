package tablewriter

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/razao/internal/types"
)

// Column widths, in characters.
var columnWidths = map[string]float64{
	types.FieldData:      12,
	types.FieldCredito:   15,
	types.FieldDebito:    15,
	types.FieldHistorico: 50,
	types.FieldConta:     35,
}

const defaultColumnWidth = 18

// writeXLSX streams the table into a single-sheet workbook.
func writeXLSX(w io.Writer, table *types.Table, opts Options) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", opts.SheetName); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}
	amountStyle, err := f.NewStyle(&excelize.Style{NumFmt: 4}) // #,##0.00
	if err != nil {
		return fmt.Errorf("failed to create amount style: %w", err)
	}

	sw, err := f.NewStreamWriter(opts.SheetName)
	if err != nil {
		return fmt.Errorf("failed to open sheet writer: %w", err)
	}

	for i, column := range table.Columns {
		width, ok := columnWidths[column]
		if !ok {
			width = defaultColumnWidth
		}
		if err := sw.SetColWidth(i+1, i+1, width); err != nil {
			return fmt.Errorf("failed to set column width: %w", err)
		}
	}

	header := make([]interface{}, len(table.Columns))
	for i, column := range table.Columns {
		header[i] = excelize.Cell{StyleID: headerStyle, Value: column}
	}
	if err := sw.SetRow("A1", header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for r, row := range table.Rows {
		values := make([]interface{}, len(table.Columns))
		for c, column := range table.Columns {
			v, _ := row.Get(column)
			switch v.Kind {
			case types.CellNumber:
				if types.IsNumericField(column) {
					values[c] = excelize.Cell{StyleID: amountStyle, Value: v.Number}
				} else {
					values[c] = v.Number
				}
			case types.CellText:
				values[c] = v.Text
			default:
				values[c] = nil
			}
		}

		cell, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, values); err != nil {
			return fmt.Errorf("failed to write row %d: %w", r+2, err)
		}
	}

	if err := sw.Flush(); err != nil {
		return fmt.Errorf("failed to flush sheet: %w", err)
	}
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}
