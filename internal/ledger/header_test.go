package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetector_Label(t *testing.T) {
	d := NewDetector(HeaderRulePrefix, 0)

	assert.Equal(t, "12345 - Caixa Geral", d.Label("Conta 12345 Nome: Caixa Geral"))
	assert.Equal(t, "11101 - Bancos Conta Movimento", d.Label("  Conta: 11101   nome:  Bancos Conta Movimento  "))
	assert.Equal(t, "Conta 123 Nome: Curta", d.Label("Conta 123 Nome: Curta"), "short code falls back to the text")
	assert.Equal(t, "Conta 12345 Caixa", d.Label(" Conta 12345 Caixa "), "missing Nome: falls back to the text")
}

func TestDetector_MinCodeDigits(t *testing.T) {
	d := NewDetector(HeaderRulePrefix, 3)
	assert.Equal(t, "100 - Banco", d.Label("Conta 100 Nome: Banco"))
}

func TestDetector_PrefixRule(t *testing.T) {
	d := NewDetector(HeaderRulePrefix, 0)

	accepted := []string{
		"Conta 12345 Nome: Caixa Geral",
		"CONTA: 12345",
		"conta analitica 11101 Nome: Bancos",
		"Conta Analítica: 11101 Nome: Bancos",
		"  Conta",
	}
	for _, text := range accepted {
		assert.True(t, d.Matches(text), "expected header: %q", text)
	}

	rejected := []string{
		"2024-01-05 Pagamento conta de luz 150,00",
		"Contabilidade geral",
		"Contas a pagar",
		"Saldo da conta",
		"",
	}
	for _, text := range rejected {
		assert.False(t, d.Matches(text), "expected non-header: %q", text)
	}
}

func TestDetector_ContainsRule(t *testing.T) {
	d := NewDetector(HeaderRuleContains, 0)

	assert.True(t, d.Matches("Conta 12345 Nome: Caixa"))
	assert.True(t, d.Matches("2024-01-05 Pagamento conta de luz"))
	assert.True(t, d.Matches("Contabilidade"))
	assert.False(t, d.Matches("2024-01-05 Depósito 1.500,00"))
}

func TestDetector_Detect(t *testing.T) {
	d := NewDetector(HeaderRulePrefix, 0)

	label, ok := d.Detect("Conta 12345 Nome: Caixa Geral")
	require.True(t, ok)
	assert.Equal(t, "12345 - Caixa Geral", label)

	_, ok = d.Detect("2024-01-05 Depósito")
	assert.False(t, ok)
}

func TestParseHeaderRule(t *testing.T) {
	r, err := ParseHeaderRule("")
	require.NoError(t, err)
	assert.Equal(t, HeaderRulePrefix, r)

	r, err = ParseHeaderRule(" Contains ")
	require.NoError(t, err)
	assert.Equal(t, HeaderRuleContains, r)

	_, err = ParseHeaderRule("regex")
	assert.Error(t, err)
}

func TestFold(t *testing.T) {
	assert.Equal(t, "credito", Fold("Crédito"))
	assert.Equal(t, "historico", Fold("HISTÓRICO"))
	assert.Equal(t, "saldo anterior", Fold("SALDO ANTERIOR"))
}
