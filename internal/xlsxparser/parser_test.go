package xlsxparser

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/razao/internal/types"
)

func writeWorkbook(t *testing.T, rows ...[]interface{}) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		r := row
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &r))
	}

	path := filepath.Join(t.TempDir(), "razao.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func TestParse_LedgerWorkbook(t *testing.T) {
	path := writeWorkbook(t,
		[]interface{}{"Data", "Débito", "Crédito", "Histórico"},
		[]interface{}{"Conta 12345 Nome: Caixa"},
		[]interface{}{"05/01/2024", nil, 1500.0, "Depósito", "extra"},
		[]interface{}{time.Date(2024, 1, 6, 0, 0, 0, 0, time.UTC), 200.5, nil, "Pagamento"},
	)

	table, err := Parse(path, 1)
	require.NoError(t, err)

	assert.Equal(t, path, table.SourceFile)
	assert.Equal(t, []string{"Data", "Débito", "Crédito", "Histórico", "Unnamed: 4"}, table.Columns)
	require.Len(t, table.Rows, 3)

	header := table.Rows[0]
	assert.Equal(t, 2, header.Number)
	assert.Equal(t, "Conta 12345 Nome: Caixa", header.Text())

	tx := table.Rows[1]
	assert.Equal(t, types.Text("05/01/2024"), tx.Cell(0))
	assert.True(t, tx.Cell(1).IsEmpty())
	assert.Equal(t, types.Number(1500), tx.Cell(2))
	assert.Equal(t, types.Text("Depósito"), tx.Cell(3))
	assert.Equal(t, types.Text("extra"), tx.Cell(4))

	dated := table.Rows[2]
	assert.Equal(t, types.CellText, dated.Cell(0).Kind, "date formatted cells stay text")
	assert.Contains(t, dated.Cell(0).Text, "24")
	assert.Equal(t, types.Number(200.5), dated.Cell(1))
}

func TestParse_HeaderRow(t *testing.T) {
	path := writeWorkbook(t,
		[]interface{}{"Razão Analítico - Empresa X"},
		[]interface{}{"Data", "Débito"},
		[]interface{}{"05/01/2024", 10.0},
	)

	table, err := Parse(path, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"Data", "Débito"}, table.Columns)
	require.Len(t, table.Rows, 1)
	assert.Equal(t, 3, table.Rows[0].Number)
}

func TestParse_EmptyWorkbook(t *testing.T) {
	path := writeWorkbook(t)
	_, err := Parse(path, 1)
	assert.ErrorIs(t, err, ErrEmptySheet)
}

func TestParse_MissingFile(t *testing.T) {
	_, err := Parse(filepath.Join(t.TempDir(), "absent.xlsx"), 1)
	assert.Error(t, err)

	_, err = ParseXLS(filepath.Join(t.TempDir(), "absent.xls"), 1)
	assert.Error(t, err)
}

func TestToCell(t *testing.T) {
	tests := []struct {
		name     string
		shown    string
		raw      string
		cellType excelize.CellType
		want     types.Cell
	}{
		{"empty", "", "", excelize.CellTypeUnset, types.Empty()},
		{"plain number", "1500", "1500", excelize.CellTypeUnset, types.Number(1500)},
		{"currency format", "R$ 1.500,00", "1500", excelize.CellTypeUnset, types.Number(1500)},
		{"negative", "-200.5", "-200.5", excelize.CellTypeNumber, types.Number(-200.5)},
		{"date format", "05/01/2024", "45296", excelize.CellTypeUnset, types.Text("05/01/2024")},
		{"iso date format", "2024-01-05", "45296", excelize.CellTypeUnset, types.Text("2024-01-05")},
		{"time format", "08:30", "0.354166", excelize.CellTypeUnset, types.Text("08:30")},
		{"shared string digits", "12345", "12345", excelize.CellTypeSharedString, types.Text("12345")},
		{"text", "Depósito", "Depósito", excelize.CellTypeSharedString, types.Text("Depósito")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, toCell(tt.shown, tt.raw, tt.cellType))
		})
	}
}

func TestXLSCell(t *testing.T) {
	assert.Equal(t, types.Empty(), xlsCell("  "))
	assert.Equal(t, types.Number(1500), xlsCell("1500"))
	assert.Equal(t, types.Number(200.5), xlsCell("200.5"))
	assert.Equal(t, types.Text("1.500,00"), xlsCell("1.500,00"))
	assert.Equal(t, types.Text("Conta 12345"), xlsCell("Conta 12345"))
}

func TestTableFromCells_PadsHeader(t *testing.T) {
	rows := [][]types.Cell{
		{types.Text("Data"), types.Empty()},
		{types.Text("05/01/2024"), types.Text("a"), types.Text("b")},
	}
	table, err := tableFromCells(rows, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"Data", "Unnamed: 1", "Unnamed: 2"}, table.Columns)

	_, err = tableFromCells(rows, 3)
	assert.ErrorIs(t, err, ErrEmptySheet)
}
