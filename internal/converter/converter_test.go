package converter

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/razao/internal/config"
	"github.com/ginjaninja78/razao/internal/ledger"
	"github.com/ginjaninja78/razao/internal/types"
	"github.com/ginjaninja78/razao/internal/validation"
)

const ledgerCSV = "Data;Débito;Crédito;Histórico\n" +
	"Conta 11101 Nome: Caixa Geral;;;\n" +
	"05/01/2024;;1.500,00;Depósito\n" +
	"Saldo Anterior;;;\n" +
	"06/01/2024;200,50;;Pagamento\n" +
	"Conta 21201 Nome: Fornecedores;;;\n" +
	"07/01/2024;;;Estorno\n"

func writeInput(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func newConverter(t *testing.T, opts Options) *Converter {
	t.Helper()
	c, err := New(opts)
	require.NoError(t, err)
	return c
}

func TestRun_CSVToXLSX(t *testing.T) {
	input := writeInput(t, "razao.csv", ledgerCSV)
	output := filepath.Join(t.TempDir(), "razao_limpo.xlsx")

	result, err := newConverter(t, Options{}).Run(context.Background(), input, output)
	require.NoError(t, err)

	assert.Equal(t, output, result.OutputPath)
	assert.Equal(t, 2, result.Stats.Headers)
	assert.Equal(t, 3, result.Stats.Transactions)
	assert.Equal(t, 1, result.Stats.SkippedBalance)
	require.Len(t, result.Table.Rows, 3)
	assert.Equal(t, types.Text("21201 - Fornecedores"), result.Table.Value(2, types.FieldConta))

	require.Len(t, result.Issues, 1)
	assert.Equal(t, validation.RuleZeroAmounts, result.Issues[0].Rule)
	assert.Equal(t, 4, result.Issues[0].Row)

	require.Len(t, result.Report.Accounts, 2)
	assert.Equal(t, "11101 - Caixa Geral", result.Report.Accounts[0].Account)
	assert.Equal(t, "1500.00", result.Report.Accounts[0].Credito.StringFixed(2))

	f, err := excelize.OpenFile(output)
	require.NoError(t, err)
	defer f.Close()
	conta, err := f.GetCellValue(f.GetSheetName(0), "E2")
	require.NoError(t, err)
	assert.Equal(t, "11101 - Caixa Geral", conta)
}

func TestRun_DryRun(t *testing.T) {
	input := writeInput(t, "razao.csv", ledgerCSV)

	result, err := newConverter(t, Options{SkipValidation: true}).Run(context.Background(), input, "")
	require.NoError(t, err)
	assert.Empty(t, result.OutputPath)
	assert.Nil(t, result.Issues)
	assert.Len(t, result.Table.Rows, 3)
}

func TestRun_LedgerOptions(t *testing.T) {
	input := writeInput(t, "razao.csv", "Data,Debito,Credito,Historico\n"+
		"01/02/2024,\"1,234.56\",,Antes do cabeçalho\n"+
		"Conta 123 Nome: Caixa,,,\n"+
		"02/02/2024,10.5,,Depois\n")

	c := newConverter(t, Options{
		Input: config.InputConfig{Delimiter: ","},
		Ledger: config.LedgerConfig{
			MinCodeDigits:       3,
			NumberLocale:        "en-US",
			UnidentifiedAccount: "SEM CONTA",
		},
	})
	result, err := c.Run(context.Background(), input, "")
	require.NoError(t, err)

	require.Len(t, result.Table.Rows, 2)
	assert.Equal(t, types.Text("SEM CONTA"), result.Table.Value(0, types.FieldConta))
	assert.Equal(t, types.Number(1234.56), result.Table.Value(0, types.FieldDebito))
	assert.Equal(t, types.Text("123 - Caixa"), result.Table.Value(1, types.FieldConta))
	assert.Equal(t, 1, validation.CountByRule(result.Issues)[validation.RuleUnassigned])
}

func TestRun_UnsupportedInput(t *testing.T) {
	input := writeInput(t, "razao.pdf", "x")

	result, err := newConverter(t, Options{}).Run(context.Background(), input, "")
	assert.Nil(t, result)
	assert.True(t, IsKind(err, KindLoad))
	assert.ErrorIs(t, err, ErrUnsupportedInput)
}

func TestRun_MissingInput(t *testing.T) {
	_, err := newConverter(t, Options{}).Run(context.Background(), filepath.Join(t.TempDir(), "absent.csv"), "")
	assert.True(t, IsKind(err, KindLoad))
}

func TestRun_Cancelled(t *testing.T) {
	input := writeInput(t, "razao.csv", ledgerCSV)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newConverter(t, Options{}).Run(ctx, input, "")
	assert.True(t, IsKind(err, KindNormalize))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRun_SaveFailureCanBeRetried(t *testing.T) {
	input := writeInput(t, "razao.csv", ledgerCSV)
	outDir := filepath.Join(t.TempDir(), "saida")
	output := filepath.Join(outDir, "razao_limpo.csv")

	c := newConverter(t, Options{})
	result, err := c.Run(context.Background(), input, output)
	require.Error(t, err)
	assert.True(t, IsKind(err, KindSave))
	require.NotNil(t, result)
	require.NotNil(t, result.Table)
	assert.Empty(t, result.OutputPath)

	require.NoError(t, os.MkdirAll(outDir, 0o755))
	require.NoError(t, c.Save(context.Background(), result, output))
	assert.Equal(t, output, result.OutputPath)
	assert.FileExists(t, output)
}

func TestRun_ProgressObserver(t *testing.T) {
	input := writeInput(t, "razao.csv", ledgerCSV)

	var fractions []float64
	c := newConverter(t, Options{
		Progress: ledger.ProgressFunc(func(fraction float64, _ string) {
			fractions = append(fractions, fraction)
		}),
	})
	_, err := c.Run(context.Background(), input, "")
	require.NoError(t, err)
	require.NotEmpty(t, fractions)
	assert.Equal(t, 1.0, fractions[len(fractions)-1])
}

func TestNew_InvalidHeaderRule(t *testing.T) {
	_, err := New(Options{Ledger: config.LedgerConfig{HeaderRule: "regex"}})
	assert.Error(t, err)
}

func TestExplain(t *testing.T) {
	input := writeInput(t, "razao.csv", ledgerCSV)

	decisions, err := newConverter(t, Options{}).Explain(context.Background(), input)
	require.NoError(t, err)
	require.Len(t, decisions, 6)
	assert.Equal(t, ledger.Header, decisions[0].Kind)
	assert.Equal(t, "11101 - Caixa Geral", decisions[0].Account)
	assert.Equal(t, ledger.Skip, decisions[2].Kind)
}

func TestOptionsFor(t *testing.T) {
	cfg := config.Default()
	profile := &config.Profile{
		Name:                 "dominio",
		FileMatchingPatterns: []string{"*.csv"},
		Ledger:               config.LedgerConfig{HeaderRule: "contains"},
	}

	opts, err := OptionsFor(cfg, profile)
	require.NoError(t, err)
	assert.Equal(t, "contains", opts.Ledger.HeaderRule)
	assert.Equal(t, cfg.Output, opts.Output)
}
