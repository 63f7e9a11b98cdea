// =============================================================================
// Razão Normalizer - Ledger Normalizer
// =============================================================================
//
// Normalize turns a raw ledger export into a clean transaction table.
//
// PROCESSING:
//   Rows are scanned in source order. Each row is classified as:
//     - Header      : replaces the active account, emits nothing
//     - Skip        : balance carry rows, blank rows, rows without a date
//     - Transaction : emits one CleanRow carrying the active account
//
//   The active account lives in a LedgerContext created per call, so the
//   scan is a sequential fold and cannot be parallelised.
//
//   Transactions before the first header keep the value of a source Conta
//   column when there is one, otherwise they get the unidentified label.
//
// =============================================================================

package ledger

import (
	"context"
	"fmt"
	"strings"

	"github.com/ginjaninja78/razao/internal/types"
)

// DefaultUnidentifiedAccount is the Conta value for transactions that appear
// before the first account header.
const DefaultUnidentifiedAccount = "NÃO IDENTIFICADA"

// DefaultProgressEvery is the default number of rows between progress calls.
const DefaultProgressEvery = 500

// cancelCheckInterval is how many rows are scanned between context checks.
const cancelCheckInterval = 256

// =============================================================================
// OPTIONS
// =============================================================================

// Options configures one normalization run.
type Options struct {
	// HeaderRule selects the account header rule. Default: HeaderRulePrefix.
	HeaderRule HeaderRule

	// MinCodeDigits is the shortest digit run taken as an account code.
	// Default: 5.
	MinCodeDigits int

	// Numbers is the monetary text format. Default: Brazilian.
	Numbers NumberFormat

	// UnidentifiedAccount is written to Conta for rows preceding the first
	// header. Default: DefaultUnidentifiedAccount.
	UnidentifiedAccount string

	// RejectUnassigned drops transactions that precede the first header
	// instead of labelling them with UnidentifiedAccount.
	RejectUnassigned bool

	// Progress receives scan progress. Optional.
	Progress ProgressObserver

	// ProgressEvery bounds the call frequency of Progress. Default: 500.
	ProgressEvery int
}

// DefaultOptions returns the options used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		HeaderRule:          HeaderRulePrefix,
		MinCodeDigits:       DefaultMinCodeDigits,
		Numbers:             Brazilian,
		UnidentifiedAccount: DefaultUnidentifiedAccount,
		ProgressEvery:       DefaultProgressEvery,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.HeaderRule == "" {
		o.HeaderRule = d.HeaderRule
	}
	if o.MinCodeDigits <= 0 {
		o.MinCodeDigits = d.MinCodeDigits
	}
	if o.Numbers.Decimal == 0 {
		o.Numbers = d.Numbers
	}
	if o.UnidentifiedAccount == "" {
		o.UnidentifiedAccount = d.UnidentifiedAccount
	}
	if o.ProgressEvery <= 0 {
		o.ProgressEvery = d.ProgressEvery
	}
	return o
}

// =============================================================================
// CONTEXT, STATS AND RESULT
// =============================================================================

// LedgerContext is the transient scan state.
type LedgerContext struct {
	// ActiveAccount is nil until the first header row is seen.
	ActiveAccount *string
}

// Account returns the active label, or fallback before the first header.
func (c *LedgerContext) Account(fallback string) string {
	if c.ActiveAccount == nil {
		return fallback
	}
	return *c.ActiveAccount
}

// Stats counts how rows were classified.
type Stats struct {
	RowsScanned      int
	Headers          int
	Transactions     int
	SkippedBalance   int
	SkippedNoDate    int
	SkippedUndated   int
	Unassigned       int
	RejectedUnassign int
}

// Skipped returns the total number of skipped rows.
func (s Stats) Skipped() int {
	return s.SkippedBalance + s.SkippedNoDate + s.SkippedUndated + s.RejectedUnassign
}

// Decision records how a single source row was classified.
type Decision struct {
	Row     int
	Kind    Kind
	Reason  SkipReason
	Account string
	Text    string
}

// Result is the output of a normalization run.
type Result struct {
	Table *types.Table
	Stats Stats
}

// =============================================================================
// NORMALIZE
// =============================================================================

// Normalize classifies every row of raw and assembles the clean table.
//
// PARAMETERS:
//   - ctx: checked periodically; cancellation aborts the scan.
//   - raw: the parsed input table.
//   - opts: run options, zero values take defaults.
//
// RETURNS:
//   - The clean table and classification stats.
//   - An error only when ctx is cancelled.
func Normalize(ctx context.Context, raw *types.RawTable, opts Options) (*Result, error) {
	return scan(ctx, raw, opts, nil)
}

// Explain runs the same scan as Normalize and reports the decision taken for
// each source row.
func Explain(ctx context.Context, raw *types.RawTable, opts Options) ([]Decision, error) {
	var decisions []Decision
	_, err := scan(ctx, raw, opts, func(d Decision) {
		decisions = append(decisions, d)
	})
	return decisions, err
}

func scan(ctx context.Context, raw *types.RawTable, opts Options, visit func(Decision)) (*Result, error) {
	opts = opts.withDefaults()
	if raw == nil {
		raw = &types.RawTable{}
	}

	layout := NewLayout(raw.Columns)
	detector := NewDetector(opts.HeaderRule, opts.MinCodeDigits)
	classifier := NewClassifier(detector, layout, opts.Numbers)
	progress := newThrottle(opts.Progress, opts.ProgressEvery, len(raw.Rows))

	var (
		lc    LedgerContext
		stats Stats
		rows  = make([]types.CleanRow, 0, len(raw.Rows))
	)

	for i, row := range raw.Rows {
		if i%cancelCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, fmt.Errorf("scan stopped at row %d: %w", row.Number, err)
			}
		}
		stats.RowsScanned++

		text := row.Text()
		kind, reason := classifier.classify(row, Fold(text))
		d := Decision{Row: row.Number, Kind: kind, Reason: reason, Text: text}

		switch kind {
		case Header:
			label := detector.Label(text)
			lc.ActiveAccount = &label
			stats.Headers++
			d.Account = label
		case Transaction:
			account := lc.Account(opts.UnidentifiedAccount)
			carried := false
			if lc.ActiveAccount == nil {
				// Already normalized input carries its account in a Conta column.
				if c := layout.Value(row, types.FieldConta); !c.IsEmpty() {
					account = strings.TrimSpace(c.String())
					carried = true
				}
			}
			d.Account = account
			if lc.ActiveAccount == nil && !carried {
				if opts.RejectUnassigned {
					stats.RejectedUnassign++
					d.Kind = Skip
					break
				}
				stats.Unassigned++
			}
			rows = append(rows, classifier.Materialize(row, account))
			stats.Transactions++
		default:
			switch reason {
			case SkipBalance:
				stats.SkippedBalance++
			case SkipNoDate:
				stats.SkippedNoDate++
			default:
				stats.SkippedUndated++
			}
		}

		if visit != nil {
			visit(d)
		}
		progress.row(i + 1)
	}
	progress.done()

	return &Result{
		Table: Assemble(layout.Columns(), rows),
		Stats: stats,
	}, nil
}
