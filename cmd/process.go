// =============================================================================
// Razão Normalizer - Process Command
// =============================================================================
//
// This file defines the 'process' command, the main command of the CLI.
//
// COMMAND USAGE:
//   razao process [flags]
//
// FLAGS:
//   --file         : Process a single file instead of the input directory
//   --output       : Output file or directory (default: the output directory)
//   --format       : Output format: xlsx, csv or xml
//   --header-rule  : Account header rule: prefix or contains
//   --dry-run      : Run the whole pipeline without writing anything
//
// PROCESSING PIPELINE:
//   1. Load the source profiles
//   2. Discover the input files (or take --file)
//   3. For each file, concurrently up to processing.max_concurrency:
//      a. Pick the matching profile
//      b. Load, normalize, review and total the ledger
//      c. Write the cleaned table
//      d. Archive the input when archiving is on
//   4. Write the error log and the run summary
//
// =============================================================================

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/ginjaninja78/razao/internal/config"
	"github.com/ginjaninja78/razao/internal/converter"
	"github.com/ginjaninja78/razao/internal/ledger"
	"github.com/ginjaninja78/razao/internal/logger"
	"github.com/ginjaninja78/razao/internal/tablewriter"
	"github.com/ginjaninja78/razao/pkg/utils"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

var (
	filePath   string
	outputPath string
	formatFlag string
	headerRule string
	dryRun     bool
)

// reportLimit caps the accounts listed per file on the terminal.
const reportLimit = 10

var (
	okMark   = color.New(color.FgGreen, color.Bold)
	failMark = color.New(color.FgRed, color.Bold)
	warnText = color.New(color.FgYellow)
	dimText  = color.New(color.FgHiBlack)
)

// =============================================================================
// PROCESS COMMAND DEFINITION
// =============================================================================

var processCmd = &cobra.Command{
	Use:   "process",
	Short: "Clean ledger exports into flat tables",
	Long: `The process command cleans every ledger export found in the input directory,
or the single file given with --file.

Each file is processed independently; a failure in one file does not stop the
others unless processing.stop_on_error is set.

On success:
  - The cleaned table is written to the output directory
  - The input is moved to the archive when processing.archive_on_success is set
  - Review findings are written to the error log

On error:
  - The input stays where it is
  - The failure is written to the error log`,

	RunE: func(cmd *cobra.Command, args []string) error {
		return runProcess(cmd.Context(), cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(processCmd)

	processCmd.Flags().StringVarP(&filePath, "file", "f", "", "Process a single file")
	processCmd.Flags().StringVarP(&outputPath, "output", "o", "", "Output file (with --file) or directory")
	processCmd.Flags().StringVar(&formatFlag, "format", "", "Output format: xlsx, csv or xml (default from config)")
	processCmd.Flags().StringVar(&headerRule, "header-rule", "", "Account header rule: prefix or contains (default from config)")
	processCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Run the pipeline without writing any file")
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

// fileOutcome is the result of one file, collected for the summary.
type fileOutcome struct {
	input  string
	output string
	result *converter.Result
	err    error
}

func runProcess(ctx context.Context, out io.Writer) error {
	startTime := time.Now()
	log := logger.FromContext(ctx)
	cfg := appConfig

	// =========================================================================
	// STEP 1: RESOLVE SETTINGS
	// =========================================================================

	if headerRule != "" {
		if _, err := ledger.ParseHeaderRule(headerRule); err != nil {
			return err
		}
		cfg.Ledger.HeaderRule = headerRule
	}

	format, err := outputFormat(cfg)
	if err != nil {
		return err
	}

	profiles, err := config.LoadProfiles(cfg.Paths.ProfilesDir)
	if err != nil {
		return fmt.Errorf("failed to load profiles: %w", err)
	}
	log.Debug().Int("profiles", len(profiles)).Msg("Profiles loaded")

	fm := utils.NewFileManager(cfg.Paths.InputDir, cfg.Paths.OutputDir, cfg.Paths.InputArchiveDir, cfg.Paths.LogsDir)
	fm.ArchiveOnSuccess = cfg.Processing.ArchiveOnSuccess && !dryRun

	// =========================================================================
	// STEP 2: DISCOVER INPUT FILES
	// =========================================================================

	var inputFiles []string
	if filePath != "" {
		if !utils.FileExists(filePath) {
			return fmt.Errorf("input file not found: %s", filePath)
		}
		inputFiles = []string{filePath}
	} else {
		inputFiles, err = fm.DiscoverInputFiles(nil)
		if err != nil {
			return err
		}
	}

	if len(inputFiles) == 0 {
		fmt.Fprintf(out, "No ledger files found in %s\n", cfg.Paths.InputDir)
		return nil
	}

	if !dryRun {
		if err := fm.EnsureDirectories(); err != nil {
			return err
		}
	}

	fmt.Fprintf(out, "Processing %d file(s)...\n", len(inputFiles))

	// =========================================================================
	// STEP 3: PROCESS FILES CONCURRENTLY
	// =========================================================================

	var (
		mu       sync.Mutex
		outcomes = make([]fileOutcome, len(inputFiles))
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Processing.MaxConcurrency)

	for i, input := range inputFiles {
		g.Go(func() error {
			outcome := processFile(gctx, cfg, profiles, fm, format, input)

			mu.Lock()
			outcomes[i] = outcome
			printOutcome(out, outcome)
			mu.Unlock()

			if outcome.err != nil && cfg.Processing.StopOnError {
				return outcome.err
			}
			return nil
		})
	}

	stopErr := g.Wait()

	// =========================================================================
	// STEP 4: SUMMARY AND LOGS
	// =========================================================================

	summary := utils.ProcessingSummary{StartTime: startTime}
	var entries []utils.ErrorLogEntry
	for _, o := range outcomes {
		if o.input == "" {
			// never started: cancelled by stop_on_error
			continue
		}
		entries = append(entries, logEntries(o)...)
		if o.err != nil {
			summary.Fail(failedInfo(o))
			continue
		}
		summary.Add(processedInfo(o))
	}
	summary.EndTime = time.Now()

	printSummary(out, summary)

	if len(inputFiles) == 1 && len(summary.ProcessedFiles) == 1 {
		fmt.Fprintln(out)
		fmt.Fprint(out, summary.ProcessedFiles[0].Report)
	}

	if !dryRun {
		if path, err := fm.WriteErrorLog(entries); err != nil {
			log.Warn().Err(err).Msg("Failed to write error log")
		} else if path != "" {
			fmt.Fprintf(out, "Error log:   %s\n", path)
		}
		if path, err := fm.WriteSummaryLog(summary); err != nil {
			log.Warn().Err(err).Msg("Failed to write summary log")
		} else {
			fmt.Fprintf(out, "Summary log: %s\n", path)
		}
	}

	if stopErr != nil {
		return fmt.Errorf("stopped on error: %w", stopErr)
	}
	if summary.FailedFiles > 0 {
		return fmt.Errorf("%d of %d file(s) failed", summary.FailedFiles, summary.TotalFiles)
	}
	return nil
}

// processFile runs the pipeline for one input file.
func processFile(ctx context.Context, cfg *config.MainConfig, profiles []*config.Profile, fm *utils.FileManager, format tablewriter.Format, input string) fileOutcome {
	outcome := fileOutcome{input: input}

	profile := config.FindProfile(profiles, input)
	log := logger.FromContext(ctx).With().Str("file", filepath.Base(input)).Logger()
	if profile != nil {
		log = log.With().Str("profile", profile.Name).Logger()
	}
	ctx = logger.WithContext(ctx, log)

	opts, err := converter.OptionsFor(cfg, profile)
	if err != nil {
		outcome.err = err
		return outcome
	}
	opts.Progress = progressLogger(log)

	conv, err := converter.New(opts)
	if err != nil {
		outcome.err = err
		return outcome
	}

	outcome.output = resolveOutputPath(fm, cfg, format, input)
	target := outcome.output
	if dryRun {
		target = ""
	}

	outcome.result, outcome.err = conv.Run(ctx, input, target)
	if outcome.err != nil && converter.IsKind(outcome.err, converter.KindSave) {
		// one retry: the table is already computed
		log.Warn().Err(outcome.err).Msg("Save failed, retrying")
		outcome.err = conv.Save(ctx, outcome.result, target)
	}
	if outcome.err != nil {
		log.Error().Err(outcome.err).Msg("Processing failed")
		return outcome
	}

	if fm.ArchiveOnSuccess {
		if archived, err := fm.ArchiveInputFile(input); err != nil {
			log.Warn().Err(err).Msg("Failed to archive input")
		} else {
			log.Debug().Str("archive", archived).Msg("Input archived")
		}
	}
	return outcome
}

// outputFormat picks the output format: --format, then the --output
// extension for a single file, then the configuration.
func outputFormat(cfg *config.MainConfig) (tablewriter.Format, error) {
	if formatFlag != "" {
		return tablewriter.ParseFormat(formatFlag)
	}
	if filePath != "" && outputPath != "" && filepath.Ext(outputPath) != "" && !isDir(outputPath) {
		return tablewriter.FormatFromPath(outputPath)
	}
	return tablewriter.ParseFormat(cfg.Output.Format)
}

func resolveOutputPath(fm *utils.FileManager, cfg *config.MainConfig, format tablewriter.Format, input string) string {
	switch {
	case outputPath == "":
		return fm.OutputPath(cfg.Output.NameFormat, input, string(format))
	case filePath != "" && !isDir(outputPath):
		return outputPath
	default:
		return filepath.Join(outputPath, utils.GenerateOutputFileName(cfg.Output.NameFormat, input, string(format), time.Now()))
	}
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func progressLogger(log zerolog.Logger) ledger.ProgressObserver {
	return ledger.ProgressFunc(func(fraction float64, message string) {
		log.Debug().Float64("fraction", fraction).Msg(message)
	})
}

// =============================================================================
// OUTPUT HELPERS
// =============================================================================

func printOutcome(out io.Writer, o fileOutcome) {
	name := filepath.Base(o.input)
	if o.err != nil {
		failMark.Fprint(out, "  ✗ ")
		fmt.Fprintf(out, "%s: %v\n", name, o.err)
		return
	}

	okMark.Fprint(out, "  ✓ ")
	target := o.output
	if dryRun {
		target += " (dry run)"
	}
	fmt.Fprintf(out, "%s -> %s ", name, target)

	s := o.result.Stats
	dimText.Fprintf(out, "[%d lançamentos, %d contas, %d ignoradas]", s.Transactions, s.Headers, s.Skipped())
	if n := len(o.result.Issues); n > 0 {
		warnText.Fprintf(out, " %d pendência(s)", n)
	}
	fmt.Fprintln(out)
}

func printSummary(out io.Writer, s utils.ProcessingSummary) {
	fmt.Fprintln(out, "\n=== Processing Complete ===")
	fmt.Fprintf(out, "Total files:   %d\n", s.TotalFiles)
	fmt.Fprintf(out, "Successful:    %d\n", s.SuccessfulFiles)
	if s.FailedFiles > 0 {
		failMark.Fprintf(out, "Errors:        %d\n", s.FailedFiles)
	} else {
		fmt.Fprintf(out, "Errors:        %d\n", s.FailedFiles)
	}
	fmt.Fprintf(out, "Transactions:  %d\n", s.TotalTransactions)
	if s.TotalUnassigned > 0 {
		warnText.Fprintf(out, "Unassigned:    %d\n", s.TotalUnassigned)
	}
	if s.ReviewIssues > 0 {
		warnText.Fprintf(out, "Review issues: %d\n", s.ReviewIssues)
	}
	fmt.Fprintf(out, "Time elapsed:  %s\n", s.EndTime.Sub(s.StartTime).Round(time.Millisecond))
}

func processedInfo(o fileOutcome) utils.ProcessedFileInfo {
	r := o.result
	info := utils.ProcessedFileInfo{
		InputFile:    o.input,
		OutputFile:   r.OutputPath,
		Rows:         r.Stats.RowsScanned,
		Headers:      r.Stats.Headers,
		Transactions: r.Stats.Transactions,
		Skipped:      r.Stats.Skipped(),
		Unassigned:   r.Stats.Unassigned,
		Issues:       len(r.Issues),
		ProcessTime:  r.Duration,
	}
	if r.Report != nil {
		info.Report = r.Report.Format(reportLimit)
	}
	return info
}

func failedInfo(o fileOutcome) utils.FailedFileInfo {
	info := utils.FailedFileInfo{InputFile: o.input, ErrorMessage: o.err.Error()}
	var ce *converter.Error
	if errors.As(o.err, &ce) {
		info.ErrorType = string(ce.Kind)
	}
	return info
}

func logEntries(o fileOutcome) []utils.ErrorLogEntry {
	now := time.Now()
	name := filepath.Base(o.input)

	if o.err != nil {
		info := failedInfo(o)
		return []utils.ErrorLogEntry{{
			Timestamp: now,
			FileName:  name,
			Severity:  "error",
			ErrorType: info.ErrorType,
			Message:   info.ErrorMessage,
		}}
	}

	entries := make([]utils.ErrorLogEntry, 0, len(o.result.Issues))
	for _, issue := range o.result.Issues {
		entries = append(entries, utils.ErrorLogEntry{
			Timestamp: now,
			FileName:  name,
			Severity:  string(issue.Severity),
			ErrorType: issue.Rule,
			Message:   issue.Message,
			RowNumber: issue.Row,
			FieldName: issue.Field,
			Value:     issue.Value,
		})
	}
	return entries
}
