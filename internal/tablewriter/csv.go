package tablewriter

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/ginjaninja78/razao/internal/types"
)

// utf8BOM makes Excel open the file as UTF-8.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// writeCSV writes a header line and one line per row. Amounts use the
// configured decimal separator and no grouping.
func writeCSV(w io.Writer, table *types.Table, opts Options) error {
	if _, err := w.Write(utf8BOM); err != nil {
		return fmt.Errorf("failed to write BOM: %w", err)
	}

	writer := csv.NewWriter(w)
	writer.Comma = opts.CSVDelimiter
	writer.UseCRLF = true

	if err := writer.Write(table.Columns); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	record := make([]string, len(table.Columns))
	for _, row := range table.Rows {
		for i, column := range table.Columns {
			v, _ := row.Get(column)
			if v.Kind == types.CellNumber {
				record[i] = opts.Numbers.Format(v.Number)
				continue
			}
			record[i] = v.String()
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("failed to flush CSV: %w", err)
	}
	return nil
}
