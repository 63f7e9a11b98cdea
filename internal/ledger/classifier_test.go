package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/razao/internal/types"
)

func textRow(n int, cells ...string) types.RawRow {
	row := types.RawRow{Number: n}
	for _, c := range cells {
		if c == "" {
			row.Cells = append(row.Cells, types.Empty())
			continue
		}
		row.Cells = append(row.Cells, types.Text(c))
	}
	return row
}

func newTestClassifier(columns ...string) *Classifier {
	return NewClassifier(NewDetector(HeaderRulePrefix, 0), NewLayout(columns), Brazilian)
}

func TestLayout_ResolvesCanonicalColumns(t *testing.T) {
	l := NewLayout([]string{" data ", "DEBITO", "Credito", "Historico", "Unnamed: 4", "Documento", "", "Column_8", "Lote"})

	i, ok := l.Index(types.FieldData)
	require.True(t, ok)
	assert.Equal(t, 0, i)
	i, ok = l.Index(types.FieldDebito)
	require.True(t, ok)
	assert.Equal(t, 1, i)
	i, ok = l.Index(types.FieldCredito)
	require.True(t, ok)
	assert.Equal(t, 2, i)

	assert.Equal(t,
		[]string{"Data", "Crédito", "Débito", "Histórico", "Conta", "Documento", "Lote"},
		l.Columns())
}

func TestClassifier_DecisionOrder(t *testing.T) {
	c := newTestClassifier("Data", "Débito", "Crédito", "Histórico")

	tests := []struct {
		name string
		row  types.RawRow
		want Kind
	}{
		{"header", textRow(1, "Conta 12345 Nome: Caixa", "", "", ""), Header},
		{"balance with valid date", textRow(2, "2024-01-01", "", "", "Saldo Anterior"), Skip},
		{"balance in date column", textRow(3, "Saldo Anterior", "", "", ""), Skip},
		{"blank row", textRow(4, "", "", "", ""), Skip},
		{"missing date", textRow(5, "", "10,00", "", "Tarifa"), Skip},
		{"date without digits", textRow(6, "Total", "10,00", "", ""), Skip},
		{"transaction", textRow(7, "05/01/2024", "", "1.500,00", "Depósito"), Transaction},
		{"loose date", textRow(8, "jan 5", "", "", ""), Transaction},
		{"history mentions conta", textRow(9, "06/01/2024", "80,00", "", "Pagamento conta de luz"), Transaction},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.Classify(tt.row, Fold(tt.row.Text())))
		})
	}
}

func TestClassifier_NoDateColumn(t *testing.T) {
	c := newTestClassifier("Dia", "Valor")
	assert.Equal(t, Skip, c.Classify(textRow(1, "05/01/2024", "10,00"), "05/01/2024 10,00"))
}

func TestClassifier_NumericDate(t *testing.T) {
	c := newTestClassifier("Data", "Débito")
	row := types.RawRow{Number: 1, Cells: []types.Cell{types.Number(45296), types.Text("10,00")}}
	assert.Equal(t, Transaction, c.Classify(row, Fold(row.Text())))
}

func TestClassifier_Materialize(t *testing.T) {
	c := newTestClassifier("Data", "Débito", "Crédito", "Histórico", "Unnamed: 4", "Documento")
	row := textRow(7, " 05/01/2024 ", "200,50", "", "Pagamento", "lixo", "NF 123")

	out := c.Materialize(row, "100 - Banco")

	assert.Equal(t, []string{"Data", "Crédito", "Débito", "Histórico", "Conta", "Documento"}, out.Keys())
	v, _ := out.Get(types.FieldData)
	assert.Equal(t, types.Text("05/01/2024"), v)
	v, _ = out.Get(types.FieldDebito)
	assert.Equal(t, types.Number(200.50), v)
	v, _ = out.Get(types.FieldCredito)
	assert.Equal(t, types.Number(0), v)
	v, _ = out.Get(types.FieldConta)
	assert.Equal(t, types.Text("100 - Banco"), v)
	v, _ = out.Get("Documento")
	assert.Equal(t, types.Text("NF 123"), v)
}

func TestKind_String(t *testing.T) {
	assert.Equal(t, "header", Header.String())
	assert.Equal(t, "transaction", Transaction.String())
	assert.Equal(t, "skip", Skip.String())
}
