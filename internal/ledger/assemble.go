package ledger

import "github.com/ginjaninja78/razao/internal/types"

// Assemble builds the output table. Canonical fields come first in fixed
// order, then every other column in first-seen order (the columns argument
// seeds that order, later rows may add more). Missing canonical values are
// defaulted: 0 for Crédito and Débito, "" for the rest. Row order is kept.
func Assemble(columns []string, rows []types.CleanRow) *types.Table {
	order := append([]string(nil), types.CanonicalFields...)
	seen := make(map[string]bool, len(order)+len(columns))
	for _, f := range order {
		seen[f] = true
	}
	add := func(name string) {
		if !seen[name] {
			seen[name] = true
			order = append(order, name)
		}
	}
	for _, c := range columns {
		add(c)
	}
	for _, r := range rows {
		for _, k := range r.Keys() {
			add(k)
		}
	}

	out := make([]types.CleanRow, len(rows))
	for i, r := range rows {
		row := types.NewCleanRow(len(order))
		for _, col := range order {
			v, ok := r.Get(col)
			if !ok {
				v = defaultFor(col)
			}
			row.Set(col, v)
		}
		out[i] = row
	}
	return &types.Table{Columns: order, Rows: out}
}

func defaultFor(column string) types.Cell {
	if types.IsNumericField(column) {
		return types.Number(0)
	}
	if types.IsCanonical(column) {
		return types.Text("")
	}
	return types.Empty()
}
