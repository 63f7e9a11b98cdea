// =============================================================================
// Razão Normalizer - Run Report
// =============================================================================
//
// This module totals a cleaned ledger per account. Amounts are summed as
// decimals so that a long ledger of cents adds up exactly; float64 sums drift
// after a few thousand rows.
//
// =============================================================================

package report

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/ginjaninja78/razao/internal/types"
)

// AccountTotals holds the totals of a single account.
type AccountTotals struct {
	Account      string
	Transactions int
	Credito      decimal.Decimal
	Debito       decimal.Decimal
}

// Balance returns Crédito minus Débito.
func (a AccountTotals) Balance() decimal.Decimal {
	return a.Credito.Sub(a.Debito)
}

// Report summarizes a cleaned table.
type Report struct {
	// Accounts lists one entry per Conta value, in first-seen order.
	Accounts []AccountTotals

	Transactions int
	Credito      decimal.Decimal
	Debito       decimal.Decimal
}

// Build totals every row of table per Conta value.
func Build(table *types.Table) *Report {
	r := &Report{Credito: decimal.Zero, Debito: decimal.Zero}
	if table == nil {
		return r
	}

	index := make(map[string]int)
	for _, row := range table.Rows {
		conta, _ := row.Get(types.FieldConta)
		account := strings.TrimSpace(conta.String())

		i, ok := index[account]
		if !ok {
			i = len(r.Accounts)
			index[account] = i
			r.Accounts = append(r.Accounts, AccountTotals{
				Account: account,
				Credito: decimal.Zero,
				Debito:  decimal.Zero,
			})
		}

		credito := amount(row, types.FieldCredito)
		debito := amount(row, types.FieldDebito)

		a := &r.Accounts[i]
		a.Transactions++
		a.Credito = a.Credito.Add(credito)
		a.Debito = a.Debito.Add(debito)

		r.Transactions++
		r.Credito = r.Credito.Add(credito)
		r.Debito = r.Debito.Add(debito)
	}
	return r
}

// amount reads a normalized amount cell. Cleaned tables only hold numbers in
// the amount columns; anything else counts as zero.
func amount(row types.CleanRow, field string) decimal.Decimal {
	c, ok := row.Get(field)
	if !ok || c.Kind != types.CellNumber {
		return decimal.Zero
	}
	return decimal.NewFromFloat(c.Number)
}

// Top returns the n accounts with the most transactions. Ties keep their
// first-seen order.
func (r *Report) Top(n int) []AccountTotals {
	out := append([]AccountTotals(nil), r.Accounts...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Transactions > out[j].Transactions
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// Format renders the report as an aligned text table.
//
// PARAMETERS:
//   - limit: maximum number of accounts listed, 0 for all.
//
// RETURNS:
//   - The report text, ending with a totals line.
func (r *Report) Format(limit int) string {
	accounts := r.Accounts
	if limit > 0 {
		accounts = r.Top(limit)
	}

	width := len("Conta")
	for _, a := range accounts {
		if n := len([]rune(a.Account)); n > width {
			width = n
		}
	}

	var b strings.Builder
	line := func(account string, count int, credito, debito decimal.Decimal) {
		pad := width - len([]rune(account))
		fmt.Fprintf(&b, "%s%s  %8d  %15s  %15s\n",
			account, strings.Repeat(" ", pad), count, credito.StringFixed(2), debito.StringFixed(2))
	}

	fmt.Fprintf(&b, "%s%s  %8s  %15s  %15s\n",
		"Conta", strings.Repeat(" ", width-len("Conta")), "Lanç.", "Crédito", "Débito")
	for _, a := range accounts {
		line(a.Account, a.Transactions, a.Credito, a.Debito)
	}
	if len(accounts) < len(r.Accounts) {
		fmt.Fprintf(&b, "... mais %d conta(s)\n", len(r.Accounts)-len(accounts))
	}
	line("TOTAL", r.Transactions, r.Credito, r.Debito)
	return b.String()
}
