// =============================================================================
// Razão Normalizer - File Manager Utility
// =============================================================================
//
// This module provides the file handling around a batch run:
//   - Input discovery in the input directory
//   - Output file naming
//   - Archival of processed inputs
//   - Error log and run summary files
//
// ARCHIVAL STRATEGY:
//   - Inputs are moved to the archive directory after a successful run, when
//     archiving is on
//   - Failed inputs stay where they are
//   - Logs are written to the logs directory, one pair of files per run
//
// =============================================================================

package utils

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// FILE MANAGER
// =============================================================================

// DefaultInputExtensions are the ledger export types picked up by discovery.
var DefaultInputExtensions = []string{".csv", ".txt", ".xlsx", ".xlsm", ".xls"}

// FileManager handles file operations for a batch run.
type FileManager struct {
	// InputDir is scanned for ledger exports.
	InputDir string

	// OutputDir receives the cleaned tables.
	OutputDir string

	// InputArchiveDir receives processed inputs.
	InputArchiveDir string

	// LogsDir receives the error and summary logs.
	LogsDir string

	// UseDateSubdirs archives into dated subdirectories.
	// Example: input_archive/2024/01/15/razao.csv
	UseDateSubdirs bool

	// ArchiveOnSuccess enables ArchiveInputFile.
	ArchiveOnSuccess bool

	// now is replaced in tests.
	now func() time.Time
}

// NewFileManager creates a FileManager for the given directories.
func NewFileManager(inputDir, outputDir, inputArchiveDir, logsDir string) *FileManager {
	return &FileManager{
		InputDir:        inputDir,
		OutputDir:       outputDir,
		InputArchiveDir: inputArchiveDir,
		LogsDir:         logsDir,
		now:             time.Now,
	}
}

func (fm *FileManager) clock() time.Time {
	if fm.now == nil {
		return time.Now()
	}
	return fm.now()
}

// EnsureDirectories creates the output and logs directories, and the archive
// directory when archiving is on.
func (fm *FileManager) EnsureDirectories() error {
	dirs := []string{fm.OutputDir, fm.LogsDir}
	if fm.ArchiveOnSuccess {
		dirs = append(dirs, fm.InputArchiveDir)
	}

	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

// =============================================================================
// FILE DISCOVERY
// =============================================================================

// DiscoverInputFiles lists the ledger exports in the input directory.
//
// PARAMETERS:
//   - extensions: Accepted extensions, with the leading dot. Empty means
//     DefaultInputExtensions.
//
// RETURNS:
//   - The matching file paths, sorted by name. Subdirectories, hidden files
//     and Office lock files ("~$razao.xlsx") are left out.
//   - An error if the directory cannot be read.
func (fm *FileManager) DiscoverInputFiles(extensions []string) ([]string, error) {
	if len(extensions) == 0 {
		extensions = DefaultInputExtensions
	}
	accepted := make(map[string]bool, len(extensions))
	for _, ext := range extensions {
		accepted[strings.ToLower(ext)] = true
	}

	entries, err := os.ReadDir(fm.InputDir)
	if err != nil {
		return nil, fmt.Errorf("failed to scan input directory: %w", err)
	}

	var files []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") || strings.HasPrefix(name, "~$") {
			continue
		}
		if accepted[strings.ToLower(filepath.Ext(name))] {
			files = append(files, filepath.Join(fm.InputDir, name))
		}
	}
	sort.Strings(files)
	return files, nil
}

// =============================================================================
// FILE ARCHIVAL
// =============================================================================

// ArchiveInputFile moves a processed input to the archive directory. It is a
// no-op returning filePath when archiving is off.
func (fm *FileManager) ArchiveInputFile(filePath string) (string, error) {
	if !fm.ArchiveOnSuccess {
		return filePath, nil
	}

	archivePath := fm.archivePath(filePath)
	if err := os.MkdirAll(filepath.Dir(archivePath), 0o755); err != nil {
		return "", fmt.Errorf("failed to create archive directory: %w", err)
	}

	if err := os.Rename(filePath, archivePath); err != nil {
		// Cross-device moves fall back to copy and delete.
		if err := copyFile(filePath, archivePath); err != nil {
			return "", fmt.Errorf("failed to copy file to archive: %w", err)
		}
		if err := os.Remove(filePath); err != nil {
			return "", fmt.Errorf("failed to remove original file: %w", err)
		}
	}
	return archivePath, nil
}

func (fm *FileManager) archivePath(filePath string) string {
	dir := fm.InputArchiveDir
	if fm.UseDateSubdirs {
		dir = filepath.Join(dir, fm.clock().Format("2006/01/02"))
	}
	return filepath.Join(dir, filepath.Base(filePath))
}

// =============================================================================
// OUTPUT FILE NAMING
// =============================================================================

// OutputPath returns the output path for an input file inside OutputDir.
func (fm *FileManager) OutputPath(nameFormat, inputPath, ext string) string {
	return filepath.Join(fm.OutputDir, GenerateOutputFileName(nameFormat, inputPath, ext, fm.clock()))
}

// GenerateOutputFileName builds an output file name.
//
// PARAMETERS:
//   - format: The name template.
//     Placeholders:
//       {name}      - input file name without extension
//       {uuid}      - a random UUID
//       {timestamp} - YYYYMMDD_HHMMSS
//       {date}      - YYYYMMDD
//       {ext}       - the output extension, without the dot
//   - inputPath: The input file.
//   - ext: The output extension, with or without the dot.
//   - now: The time used for {timestamp} and {date}.
//
// RETURNS:
//   - The file name. ".ext" is appended when the template does not already
//     end with it.
//
// EXAMPLE:
//   format: "{name}_limpo.{ext}", input "in/Razao Jan.csv", ext "xlsx"
//   output: "Razao Jan_limpo.xlsx"
func GenerateOutputFileName(format, inputPath, ext string, now time.Time) string {
	ext = strings.TrimPrefix(ext, ".")
	if format == "" {
		format = "{name}_limpo.{ext}"
	}
	base := filepath.Base(inputPath)

	replacer := strings.NewReplacer(
		"{name}", strings.TrimSuffix(base, filepath.Ext(base)),
		"{uuid}", uuid.New().String(),
		"{timestamp}", now.Format("20060102_150405"),
		"{date}", now.Format("20060102"),
		"{ext}", ext,
	)
	name := replacer.Replace(format)

	if !strings.HasSuffix(strings.ToLower(name), "."+strings.ToLower(ext)) {
		name += "." + ext
	}
	return name
}

// =============================================================================
// ERROR LOG GENERATION
// =============================================================================

// ErrorLogEntry is one line item of the error log: a failed file or a review
// finding of a processed one.
type ErrorLogEntry struct {
	Timestamp time.Time
	FileName  string
	Severity  string
	ErrorType string
	Message   string
	RowNumber int
	FieldName string
	Value     string
}

// WriteErrorLog writes the entries of a run to LogsDir.
//
// RETURNS:
//   - The path to the log file, or "" when there is nothing to write.
//   - An error if writing fails.
func (fm *FileManager) WriteErrorLog(entries []ErrorLogEntry) (string, error) {
	if len(entries) == 0 {
		return "", nil
	}

	now := fm.clock()
	logPath := filepath.Join(fm.LogsDir, fmt.Sprintf("error_log_%s.txt", now.Format("20060102_150405")))

	file, err := os.Create(logPath)
	if err != nil {
		return "", fmt.Errorf("failed to create error log: %w", err)
	}
	defer file.Close()

	w := bufio.NewWriter(file)
	fmt.Fprintf(w, "Razão Normalizer - Error Log\n"+
		"Generated: %s\n"+
		"Total Entries: %d\n"+
		"%s\n\n",
		now.Format("2006-01-02 15:04:05"), len(entries), rule)

	for i, entry := range entries {
		fmt.Fprintf(w, "Entry #%d\n", i+1)
		fmt.Fprintf(w, "  Timestamp:  %s\n", entry.Timestamp.Format("2006-01-02 15:04:05"))
		fmt.Fprintf(w, "  File:       %s\n", entry.FileName)
		if entry.Severity != "" {
			fmt.Fprintf(w, "  Severity:   %s\n", entry.Severity)
		}
		fmt.Fprintf(w, "  Type:       %s\n", entry.ErrorType)
		fmt.Fprintf(w, "  Message:    %s\n", entry.Message)
		if entry.RowNumber > 0 {
			fmt.Fprintf(w, "  Row:        %d\n", entry.RowNumber)
		}
		if entry.FieldName != "" {
			fmt.Fprintf(w, "  Field:      %s\n", entry.FieldName)
		}
		if entry.Value != "" {
			fmt.Fprintf(w, "  Value:      %s\n", entry.Value)
		}
		w.WriteString("\n")
	}
	fmt.Fprintf(w, "%s\nEnd of Error Log\n", rule)

	if err := w.Flush(); err != nil {
		return "", fmt.Errorf("failed to flush error log: %w", err)
	}
	return logPath, nil
}

const rule = "================================================================================"

// =============================================================================
// PROCESSING SUMMARY
// =============================================================================

// ProcessingSummary describes a batch run.
type ProcessingSummary struct {
	StartTime       time.Time
	EndTime         time.Time
	TotalFiles      int
	SuccessfulFiles int
	FailedFiles     int

	TotalRows         int
	TotalTransactions int
	TotalHeaders      int
	TotalSkipped      int
	TotalUnassigned   int
	ReviewIssues      int

	ProcessedFiles  []ProcessedFileInfo
	FailedFilesList []FailedFileInfo
}

// ProcessedFileInfo describes a successfully processed file.
type ProcessedFileInfo struct {
	InputFile    string
	OutputFile   string
	ArchivePath  string
	Rows         int
	Headers      int
	Transactions int
	Skipped      int
	Unassigned   int
	Issues       int
	ProcessTime  time.Duration

	// Report is the per-account totals table, already formatted.
	Report string
}

// FailedFileInfo describes a failed file.
type FailedFileInfo struct {
	InputFile    string
	ErrorType    string
	ErrorMessage string
}

// Add records a processed file and updates the totals.
func (s *ProcessingSummary) Add(info ProcessedFileInfo) {
	s.TotalFiles++
	s.SuccessfulFiles++
	s.TotalRows += info.Rows
	s.TotalHeaders += info.Headers
	s.TotalTransactions += info.Transactions
	s.TotalSkipped += info.Skipped
	s.TotalUnassigned += info.Unassigned
	s.ReviewIssues += info.Issues
	s.ProcessedFiles = append(s.ProcessedFiles, info)
}

// Fail records a failed file.
func (s *ProcessingSummary) Fail(info FailedFileInfo) {
	s.TotalFiles++
	s.FailedFiles++
	s.FailedFilesList = append(s.FailedFilesList, info)
}

// WriteSummaryLog writes the run summary to LogsDir.
//
// RETURNS:
//   - The path to the summary file.
//   - An error if writing fails.
func (fm *FileManager) WriteSummaryLog(summary ProcessingSummary) (string, error) {
	summaryPath := filepath.Join(fm.LogsDir,
		fmt.Sprintf("processing_summary_%s.txt", fm.clock().Format("20060102_150405")))

	file, err := os.Create(summaryPath)
	if err != nil {
		return "", fmt.Errorf("failed to create summary file: %w", err)
	}
	defer file.Close()

	w := bufio.NewWriter(file)
	if err := WriteSummary(w, summary); err != nil {
		return "", err
	}
	if err := w.Flush(); err != nil {
		return "", fmt.Errorf("failed to flush summary file: %w", err)
	}
	return summaryPath, nil
}

// WriteSummary renders the summary text.
func WriteSummary(w io.Writer, summary ProcessingSummary) error {
	b := &strings.Builder{}
	fmt.Fprintf(b, "Razão Normalizer - Processing Summary\n%s\n\n", rule)
	fmt.Fprintf(b, "Run Information:\n"+
		"  Start Time:     %s\n"+
		"  End Time:       %s\n"+
		"  Duration:       %s\n\n",
		summary.StartTime.Format("2006-01-02 15:04:05"),
		summary.EndTime.Format("2006-01-02 15:04:05"),
		summary.EndTime.Sub(summary.StartTime).Round(time.Millisecond))
	fmt.Fprintf(b, "Statistics:\n"+
		"  Total Files:        %d\n"+
		"  Successful:         %d\n"+
		"  Failed:             %d\n"+
		"  Rows Scanned:       %d\n"+
		"  Account Headers:    %d\n"+
		"  Transactions:       %d\n"+
		"  Skipped Rows:       %d\n"+
		"  Unassigned:         %d\n"+
		"  Review Issues:      %d\n\n",
		summary.TotalFiles,
		summary.SuccessfulFiles,
		summary.FailedFiles,
		summary.TotalRows,
		summary.TotalHeaders,
		summary.TotalTransactions,
		summary.TotalSkipped,
		summary.TotalUnassigned,
		summary.ReviewIssues)

	if len(summary.ProcessedFiles) > 0 {
		fmt.Fprintf(b, "Successful Files:\n%s\n", strings.Repeat("-", len(rule)))
		for _, pf := range summary.ProcessedFiles {
			fmt.Fprintf(b, "  Input:        %s\n", pf.InputFile)
			fmt.Fprintf(b, "  Output:       %s\n", pf.OutputFile)
			if pf.ArchivePath != "" && pf.ArchivePath != pf.InputFile {
				fmt.Fprintf(b, "  Archived:     %s\n", pf.ArchivePath)
			}
			fmt.Fprintf(b, "  Transactions: %d (headers %d, skipped %d, unassigned %d)\n",
				pf.Transactions, pf.Headers, pf.Skipped, pf.Unassigned)
			fmt.Fprintf(b, "  Issues:       %d\n", pf.Issues)
			fmt.Fprintf(b, "  Process Time: %s\n", pf.ProcessTime.Round(time.Millisecond))
			if pf.Report != "" {
				for _, line := range strings.Split(strings.TrimRight(pf.Report, "\n"), "\n") {
					fmt.Fprintf(b, "    %s\n", line)
				}
			}
			b.WriteString("\n")
		}
	}

	if len(summary.FailedFilesList) > 0 {
		fmt.Fprintf(b, "Failed Files:\n%s\n", strings.Repeat("-", len(rule)))
		for _, ff := range summary.FailedFilesList {
			fmt.Fprintf(b, "  File:  %s\n", ff.InputFile)
			if ff.ErrorType != "" {
				fmt.Fprintf(b, "  Stage: %s\n", ff.ErrorType)
			}
			fmt.Fprintf(b, "  Error: %s\n\n", ff.ErrorMessage)
		}
	}

	fmt.Fprintf(b, "%s\nEnd of Summary\n", rule)
	_, err := io.WriteString(w, b.String())
	return err
}

// =============================================================================
// UTILITY FUNCTIONS
// =============================================================================

func copyFile(src, dst string) error {
	sourceFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer sourceFile.Close()

	destFile, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer destFile.Close()

	if _, err := io.Copy(destFile, sourceFile); err != nil {
		return err
	}
	return destFile.Sync()
}

// FileExists reports whether path exists.
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}
