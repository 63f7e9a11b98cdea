package xlsxparser

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shakinm/xlsReader/xls"

	"github.com/ginjaninja78/razao/internal/types"
)

// ParseXLS reads the first sheet of a legacy .xls (BIFF8) workbook.
//
// The reader exposes cell text only, so a cell whose text is a plain
// decimal number ("1500", "200.5") becomes a Number and everything else
// stays Text.
func ParseXLS(filePath string, headerRow int) (*types.RawTable, error) {
	workbook, err := xls.OpenFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	if workbook.GetNumberSheets() == 0 {
		return nil, ErrNoSheets
	}

	sheet, err := workbook.GetSheet(0)
	if err != nil || sheet == nil {
		return nil, ErrNoSheets
	}

	var rows [][]types.Cell
	for _, xlsRow := range sheet.GetRows() {
		cols := xlsRow.GetCols()
		cells := make([]types.Cell, len(cols))
		for i, col := range cols {
			if col == nil {
				cells[i] = types.Empty()
				continue
			}
			cells[i] = xlsCell(col.GetString())
		}
		rows = append(rows, cells)
	}

	table, err := tableFromCells(rows, headerRow)
	if err != nil {
		return nil, err
	}
	table.SourceFile = filePath
	return table, nil
}

func xlsCell(s string) types.Cell {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return types.Empty()
	}
	if v, err := strconv.ParseFloat(trimmed, 64); err == nil {
		return types.Number(v)
	}
	return types.Text(s)
}
