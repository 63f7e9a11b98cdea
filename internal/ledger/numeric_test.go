package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ginjaninja78/razao/internal/types"
)

func TestNormalize_Brazilian(t *testing.T) {
	tests := []struct {
		name string
		in   types.Cell
		want float64
	}{
		{"thousands and decimal", types.Text("1.234,56"), 1234.56},
		{"decimal only", types.Text("200,50"), 200.50},
		{"integer text", types.Text("1.500"), 1500},
		{"currency symbol", types.Text("R$ 1.500,00"), 1500},
		{"surrounding spaces", types.Text("  10,5 "), 10.5},
		{"empty text", types.Text(""), 0},
		{"whitespace", types.Text("   "), 0},
		{"missing", types.Empty(), 0},
		{"number", types.Number(42), 42},
		{"fractional number", types.Number(200.5), 200.5},
		{"two decimal separators", types.Text("1,2,3"), 0},
		{"letters only", types.Text("n/a"), 0},
		{"sign is dropped", types.Text("-200,50"), 200.50},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Brazilian.Normalize(tt.in), 1e-9)
		})
	}
}

func TestNormalize_International(t *testing.T) {
	assert.InDelta(t, 1234.56, International.Normalize(types.Text("1,234.56")), 1e-9)
	assert.InDelta(t, 0.0, International.Normalize(types.Text("1.2.3")), 1e-9)
}

func TestNormalizeAmount_DefaultsToBrazilian(t *testing.T) {
	assert.InDelta(t, 1234.56, NormalizeAmount(types.Text("1.234,56")), 1e-9)
	assert.Equal(t, 0.0, NormalizeAmount(types.Empty()))
	assert.Equal(t, 42.0, NormalizeAmount(types.Number(42)))
}

func TestNumberFormat_FormatRoundTrips(t *testing.T) {
	for _, f := range []NumberFormat{Brazilian, International} {
		for _, v := range []float64{0, 1500, 200.5, 1234.56} {
			assert.InDelta(t, v, f.ParseText(f.Format(v)), 1e-9, "format %q value %v", string(f.Decimal), v)
		}
	}
	assert.Equal(t, "1234,56", Brazilian.Format(1234.56))
	assert.Equal(t, "1234.56", International.Format(1234.56))
}

func TestNumberFormatFor(t *testing.T) {
	assert.Equal(t, Brazilian, NumberFormatFor("pt-BR"))
	assert.Equal(t, Brazilian, NumberFormatFor(""))
	assert.Equal(t, International, NumberFormatFor("en-US"))
}
