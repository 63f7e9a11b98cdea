// =============================================================================
// Razão Normalizer - Workbook Parser
// =============================================================================
//
// This module reads the first sheet of a ledger workbook into a RawTable.
//
// CELL MAPPING:
//   | Excel cell                          | RawTable cell          |
//   |-------------------------------------|------------------------|
//   | empty                               | Empty                  |
//   | number (general, currency, ...)     | Number(raw value)      |
//   | number with a date or time format   | Text(formatted value)  |
//   | string, boolean, formula result     | Text(formatted value)  |
//
// Dates stay text because the normalizer only checks that Data carries a
// digit, and the formatted value is what the accountant sees.
//
// Supported files: .xlsx and .xlsm (excelize), .xls (see xls.go).
//
// =============================================================================

package xlsxparser

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/razao/internal/types"
)

var (
	// ErrNoSheets is returned for a workbook without worksheets.
	ErrNoSheets = errors.New("workbook has no sheets")

	// ErrEmptySheet is returned when the first sheet has no header row.
	ErrEmptySheet = errors.New("first sheet is empty")
)

// =============================================================================
// PARSER FUNCTIONS
// =============================================================================

// Parse reads the first sheet of an .xlsx or .xlsm workbook.
//
// PARAMETERS:
//   - filePath: The path to the workbook.
//   - headerRow: The 1-based row holding the column names.
//
// RETURNS:
//   - The raw table with SourceFile set.
//   - An error if the workbook cannot be opened or the sheet is empty.
func Parse(filePath string, headerRow int) (*types.RawTable, error) {
	f, err := excelize.OpenFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheetName := f.GetSheetName(0)
	if sheetName == "" {
		return nil, ErrNoSheets
	}

	rows, err := readSheet(f, sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheetName, err)
	}

	table, err := tableFromCells(rows, headerRow)
	if err != nil {
		return nil, err
	}
	table.SourceFile = filePath
	return table, nil
}

// readSheet returns every row of the sheet as typed cells.
func readSheet(f *excelize.File, sheetName string) ([][]types.Cell, error) {
	formatted, err := f.GetRows(sheetName)
	if err != nil {
		return nil, err
	}
	raw, err := f.GetRows(sheetName, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, err
	}

	rows := make([][]types.Cell, len(formatted))
	for r := range formatted {
		width := len(formatted[r])
		if r < len(raw) && len(raw[r]) > width {
			width = len(raw[r])
		}

		cells := make([]types.Cell, width)
		for c := 0; c < width; c++ {
			shown := at(formatted, r, c)
			value := at(raw, r, c)

			cellName, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				return nil, err
			}
			cellType, err := f.GetCellType(sheetName, cellName)
			if err != nil {
				return nil, err
			}

			cells[c] = toCell(shown, value, cellType)
		}
		rows[r] = cells
	}
	return rows, nil
}

func at(rows [][]string, r, c int) string {
	if r >= len(rows) || c >= len(rows[r]) {
		return ""
	}
	return rows[r][c]
}

// toCell maps one worksheet cell to a RawTable cell.
func toCell(shown, raw string, cellType excelize.CellType) types.Cell {
	if shown == "" && raw == "" {
		return types.Empty()
	}
	if cellType == excelize.CellTypeUnset || cellType == excelize.CellTypeNumber {
		if v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64); err == nil && !looksLikeDate(shown) {
			return types.Number(v)
		}
	}
	if shown == "" {
		return types.Text(raw)
	}
	return types.Text(shown)
}

// looksLikeDate reports whether a formatted numeric value was rendered with a
// date or time format: "05/01/2024", "2024-01-05", "08:30".
func looksLikeDate(shown string) bool {
	shown = strings.TrimSpace(shown)
	if strings.ContainsAny(shown, "/:") {
		return true
	}
	return strings.LastIndex(shown, "-") > 0
}

// =============================================================================
// TABLE ASSEMBLY
// =============================================================================

// tableFromCells splits the header row from the data rows. Rows above the
// header are dropped; every row below it is kept, blank ones included.
func tableFromCells(rows [][]types.Cell, headerRow int) (*types.RawTable, error) {
	if headerRow < 1 {
		headerRow = 1
	}
	if len(rows) < headerRow {
		return nil, ErrEmptySheet
	}

	width := 0
	for _, row := range rows[headerRow-1:] {
		if len(row) > width {
			width = len(row)
		}
	}

	table := &types.RawTable{
		Columns: headerNames(rows[headerRow-1], width),
		Rows:    make([]types.RawRow, 0, len(rows)-headerRow),
	}
	for i := headerRow; i < len(rows); i++ {
		table.Rows = append(table.Rows, types.RawRow{Number: i + 1, Cells: rows[i]})
	}
	return table, nil
}

// headerNames names blank header cells "Unnamed: N" (0-based), the name
// spreadsheet exports usually carry for them.
func headerNames(header []types.Cell, width int) []string {
	if width < len(header) {
		width = len(header)
	}
	names := make([]string, width)
	for i := range names {
		name := ""
		if i < len(header) {
			name = strings.TrimSpace(header[i].String())
		}
		if name == "" {
			name = fmt.Sprintf("Unnamed: %d", i)
		}
		names[i] = name
	}
	return names
}
