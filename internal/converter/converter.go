// =============================================================================
// Razão Normalizer - Converter Module
// =============================================================================
//
// This module runs the cleaning pipeline for a single ledger export.
//
// PIPELINE:
//   1. Load the input (CSV/TXT, XLSX/XLSM or XLS) into a RawTable
//   2. Normalize it into the clean table (header propagation, amounts)
//   3. Review the clean table (warnings only, never blocks the output)
//   4. Total the table per account
//   5. Write the output file (XLSX, CSV or XML, by extension)
//
// CONCURRENCY:
//   A Converter holds no mutable state after New, so one value can be shared
//   by goroutines processing different files.
//
// =============================================================================

package converter

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/ginjaninja78/razao/internal/config"
	"github.com/ginjaninja78/razao/internal/csvparser"
	"github.com/ginjaninja78/razao/internal/ledger"
	"github.com/ginjaninja78/razao/internal/logger"
	"github.com/ginjaninja78/razao/internal/report"
	"github.com/ginjaninja78/razao/internal/tablewriter"
	"github.com/ginjaninja78/razao/internal/types"
	"github.com/ginjaninja78/razao/internal/validation"
	"github.com/ginjaninja78/razao/internal/xlsxparser"
)

// =============================================================================
// RESULT STRUCTURE
// =============================================================================

// Result is the outcome of processing a single file.
type Result struct {
	// InputPath is the file that was processed.
	InputPath string

	// OutputPath is the written file. Empty for dry runs and failed saves.
	OutputPath string

	// Table is the clean table. It is kept after a failed save so that Save
	// can be called again without recomputation.
	Table *types.Table

	// Stats counts how the source rows were classified.
	Stats ledger.Stats

	// Issues are the review findings. Nil when validation is skipped.
	Issues []*validation.Issue

	// Report holds the per-account totals.
	Report *report.Report

	// Duration is the time taken by the whole pipeline.
	Duration time.Duration
}

// =============================================================================
// CONVERTER STRUCTURE
// =============================================================================

// Options configures a Converter.
type Options struct {
	// Input controls the parsing of delimited text files.
	Input config.InputConfig

	// Ledger controls the normalization.
	Ledger config.LedgerConfig

	// Output controls the writers.
	Output config.OutputConfig

	// SkipValidation turns the review off.
	SkipValidation bool

	// Progress receives normalization progress. Optional.
	Progress ledger.ProgressObserver
}

// OptionsFor builds the converter options for one file from the main
// configuration and the profile matching the file, if any.
func OptionsFor(cfg *config.MainConfig, profile *config.Profile) (Options, error) {
	input, ledgerCfg, err := cfg.Resolve(profile)
	if err != nil {
		return Options{}, err
	}
	return Options{
		Input:          input,
		Ledger:         ledgerCfg,
		Output:         cfg.Output,
		SkipValidation: cfg.Processing.SkipValidation,
	}, nil
}

// Converter runs the pipeline with a fixed set of options.
type Converter struct {
	input      config.InputConfig
	ledger     ledger.Options
	writer     tablewriter.Options
	review     bool
	validation validation.Options
}

// New creates a Converter.
//
// PARAMETERS:
//   - opts: The pipeline settings. Zero values take defaults.
//
// RETURNS:
//   - The converter.
//   - An error if the header rule is unknown.
func New(opts Options) (*Converter, error) {
	rule := ledger.HeaderRule("")
	if opts.Ledger.HeaderRule != "" {
		r, err := ledger.ParseHeaderRule(opts.Ledger.HeaderRule)
		if err != nil {
			return nil, err
		}
		rule = r
	}

	numbers := ledger.NumberFormatFor(opts.Ledger.NumberLocale)

	ledgerOpts := ledger.Options{
		HeaderRule:          rule,
		MinCodeDigits:       opts.Ledger.MinCodeDigits,
		Numbers:             numbers,
		UnidentifiedAccount: opts.Ledger.UnidentifiedAccount,
		RejectUnassigned:    opts.Ledger.RejectUnassigned,
		Progress:            opts.Progress,
		ProgressEvery:       opts.Ledger.ProgressEvery,
	}

	writerOpts := tablewriter.Options{
		Numbers:    numbers,
		SheetName:  opts.Output.SheetName,
		XMLRootTag: opts.Output.XMLRootTag,
		XMLRowTag:  opts.Output.XMLRowTag,
	}
	if d := []rune(opts.Output.CSVDelimiter); len(d) == 1 {
		writerOpts.CSVDelimiter = d[0]
	}

	reviewOpts := validation.DefaultOptions()
	if opts.Ledger.UnidentifiedAccount != "" {
		reviewOpts.UnidentifiedAccount = opts.Ledger.UnidentifiedAccount
	}

	input := opts.Input
	if input.HeaderRow < 1 {
		input.HeaderRow = 1
	}

	return &Converter{
		input:      input,
		ledger:     ledgerOpts,
		writer:     writerOpts,
		review:     !opts.SkipValidation,
		validation: reviewOpts,
	}, nil
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

// Run processes inputPath and writes the clean table to outputPath.
//
// PARAMETERS:
//   - ctx: Carries the logger; cancellation aborts the normalization.
//   - inputPath: The ledger export.
//   - outputPath: The output file; its extension selects the format. An
//     empty path is a dry run: everything but the write is done.
//
// RETURNS:
//   - The result. It is non-nil whenever the input was loaded, including
//     when the save failed.
//   - A *Error describing the failing stage.
func (c *Converter) Run(ctx context.Context, inputPath, outputPath string) (*Result, error) {
	start := time.Now()
	log := logger.FromContext(ctx).With().Str("file", filepath.Base(inputPath)).Logger()

	// =========================================================================
	// STEP 1: LOAD
	// =========================================================================

	raw, err := Load(inputPath, c.input)
	if err != nil {
		return nil, &Error{Kind: KindLoad, Path: inputPath, Err: err}
	}
	log.Debug().Int("rows", len(raw.Rows)).Int("columns", len(raw.Columns)).Msg("Loaded input")

	// =========================================================================
	// STEP 2: NORMALIZE
	// =========================================================================

	normalized, err := ledger.Normalize(ctx, raw, c.ledger)
	if err != nil {
		return nil, &Error{Kind: KindNormalize, Path: inputPath, Err: err}
	}

	result := &Result{
		InputPath: inputPath,
		Table:     normalized.Table,
		Stats:     normalized.Stats,
	}
	log.Debug().
		Int("headers", result.Stats.Headers).
		Int("transactions", result.Stats.Transactions).
		Int("skipped", result.Stats.Skipped()).
		Int("unassigned", result.Stats.Unassigned).
		Msg("Normalized")

	// =========================================================================
	// STEP 3: REVIEW
	// =========================================================================

	if c.review {
		review := validation.NewValidator(c.validation).ValidateAll(result.Table)
		result.Issues = review.Issues
		if len(review.Issues) > 0 {
			log.Debug().Interface("rules", validation.CountByRule(review.Issues)).Msg("Review found issues")
		}
	}

	// =========================================================================
	// STEP 4: REPORT
	// =========================================================================

	result.Report = report.Build(result.Table)

	// =========================================================================
	// STEP 5: SAVE
	// =========================================================================

	if outputPath != "" {
		if err := c.Save(ctx, result, outputPath); err != nil {
			result.Duration = time.Since(start)
			return result, err
		}
	}

	result.Duration = time.Since(start)
	log.Info().
		Int("transactions", result.Stats.Transactions).
		Int("issues", len(result.Issues)).
		Str("output", result.OutputPath).
		Dur("duration", result.Duration).
		Msg("Processed")

	return result, nil
}

// Save writes result.Table to outputPath and records the path on success.
// It can be called again after a failure.
func (c *Converter) Save(ctx context.Context, result *Result, outputPath string) error {
	if err := tablewriter.Write(outputPath, result.Table, c.writer); err != nil {
		logger.FromContext(ctx).Debug().Err(err).Str("output", outputPath).Msg("Save failed")
		return &Error{Kind: KindSave, Path: outputPath, Err: err}
	}
	result.OutputPath = outputPath
	return nil
}

// Explain loads inputPath and reports the classification of every row.
func (c *Converter) Explain(ctx context.Context, inputPath string) ([]ledger.Decision, error) {
	raw, err := Load(inputPath, c.input)
	if err != nil {
		return nil, &Error{Kind: KindLoad, Path: inputPath, Err: err}
	}
	decisions, err := ledger.Explain(ctx, raw, c.ledger)
	if err != nil {
		return nil, &Error{Kind: KindNormalize, Path: inputPath, Err: err}
	}
	return decisions, nil
}

// =============================================================================
// INPUT LOADING
// =============================================================================

// SupportedInputExtensions lists the readable input extensions.
var SupportedInputExtensions = []string{".csv", ".txt", ".xlsx", ".xlsm", ".xls"}

// Load reads a ledger export into a RawTable, choosing the parser by file
// extension.
func Load(path string, input config.InputConfig) (*types.RawTable, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".csv", ".txt":
		return csvparser.Parse(path, input)
	case ".xlsx", ".xlsm":
		return xlsxparser.Parse(path, input.HeaderRow)
	case ".xls":
		return xlsxparser.ParseXLS(path, input.HeaderRow)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedInput, ext)
	}
}
