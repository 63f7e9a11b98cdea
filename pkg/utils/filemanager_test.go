package utils

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, 1, 15, 14, 30, 22, 0, time.UTC)

func newTestManager(t *testing.T) *FileManager {
	t.Helper()
	root := t.TempDir()
	fm := NewFileManager(
		filepath.Join(root, "input"),
		filepath.Join(root, "output"),
		filepath.Join(root, "input_archive"),
		filepath.Join(root, "logs"),
	)
	fm.now = func() time.Time { return fixedNow }
	require.NoError(t, os.MkdirAll(fm.InputDir, 0o755))
	return fm
}

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
}

func TestDiscoverInputFiles(t *testing.T) {
	fm := newTestManager(t)
	for _, name := range []string{"b.xlsx", "a.CSV", "c.xls", "notes.pdf", ".hidden.csv", "~$b.xlsx", "d.txt"} {
		touch(t, filepath.Join(fm.InputDir, name))
	}
	require.NoError(t, os.Mkdir(filepath.Join(fm.InputDir, "sub.csv"), 0o755))

	files, err := fm.DiscoverInputFiles(nil)
	require.NoError(t, err)

	var names []string
	for _, f := range files {
		names = append(names, filepath.Base(f))
	}
	assert.Equal(t, []string{"a.CSV", "b.xlsx", "c.xls", "d.txt"}, names)

	files, err = fm.DiscoverInputFiles([]string{".xls"})
	require.NoError(t, err)
	assert.Len(t, files, 1)
}

func TestDiscoverInputFiles_MissingDir(t *testing.T) {
	fm := NewFileManager(filepath.Join(t.TempDir(), "absent"), "", "", "")
	_, err := fm.DiscoverInputFiles(nil)
	assert.Error(t, err)
}

func TestGenerateOutputFileName(t *testing.T) {
	assert.Equal(t, "Razao Jan_limpo.xlsx", GenerateOutputFileName("", "in/Razao Jan.csv", "xlsx", fixedNow))
	assert.Equal(t, "razao_20240115.csv", GenerateOutputFileName("{name}_{date}", "razao.xls", ".csv", fixedNow))
	assert.Equal(t, "razao_20240115_143022.xml", GenerateOutputFileName("{name}_{timestamp}.xml", "razao.xlsx", "xml", fixedNow))

	name := GenerateOutputFileName("{uuid}.{ext}", "razao.csv", "xlsx", fixedNow)
	assert.Regexp(t, regexp.MustCompile(`^[0-9a-f-]{36}\.xlsx$`), name)
}

func TestOutputPath(t *testing.T) {
	fm := newTestManager(t)
	assert.Equal(t, filepath.Join(fm.OutputDir, "razao_limpo.csv"), fm.OutputPath("{name}_limpo.{ext}", "/x/razao.xlsx", "csv"))
}

func TestArchiveInputFile(t *testing.T) {
	fm := newTestManager(t)
	input := filepath.Join(fm.InputDir, "razao.csv")
	touch(t, input)

	path, err := fm.ArchiveInputFile(input)
	require.NoError(t, err)
	assert.Equal(t, input, path, "archiving is off by default")
	assert.FileExists(t, input)

	fm.ArchiveOnSuccess = true
	fm.UseDateSubdirs = true
	path, err = fm.ArchiveInputFile(input)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(fm.InputArchiveDir, "2024", "01", "15", "razao.csv"), path)
	assert.FileExists(t, path)
	assert.False(t, FileExists(input))
}

func TestEnsureDirectories(t *testing.T) {
	fm := newTestManager(t)
	require.NoError(t, fm.EnsureDirectories())
	assert.DirExists(t, fm.OutputDir)
	assert.DirExists(t, fm.LogsDir)
	assert.NoDirExists(t, fm.InputArchiveDir)

	fm.ArchiveOnSuccess = true
	require.NoError(t, fm.EnsureDirectories())
	assert.DirExists(t, fm.InputArchiveDir)
}

func TestWriteErrorLog(t *testing.T) {
	fm := newTestManager(t)
	require.NoError(t, fm.EnsureDirectories())

	path, err := fm.WriteErrorLog(nil)
	require.NoError(t, err)
	assert.Empty(t, path)

	path, err = fm.WriteErrorLog([]ErrorLogEntry{{
		Timestamp: fixedNow,
		FileName:  "razao.csv",
		Severity:  "warning",
		ErrorType: "data_invalida",
		Message:   "data em formato não reconhecido",
		RowNumber: 7,
		FieldName: "Data",
		Value:     "ontem",
	}})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(fm.LogsDir, "error_log_20240115_143022.txt"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)
	assert.Contains(t, text, "Total Entries: 1")
	assert.Contains(t, text, "  Row:        7\n")
	assert.Contains(t, text, "  Value:      ontem\n")
}

func TestProcessingSummary(t *testing.T) {
	var s ProcessingSummary
	s.StartTime = fixedNow
	s.EndTime = fixedNow.Add(1500 * time.Millisecond)
	s.Add(ProcessedFileInfo{InputFile: "a.csv", OutputFile: "a_limpo.xlsx", Rows: 10, Headers: 2, Transactions: 6, Skipped: 2, Issues: 1, Report: "Conta\nTOTAL\n"})
	s.Add(ProcessedFileInfo{InputFile: "b.csv", OutputFile: "b_limpo.xlsx", Rows: 5, Headers: 1, Transactions: 4, Unassigned: 1})
	s.Fail(FailedFileInfo{InputFile: "c.pdf", ErrorType: "load", ErrorMessage: "unsupported input file type"})

	assert.Equal(t, 3, s.TotalFiles)
	assert.Equal(t, 2, s.SuccessfulFiles)
	assert.Equal(t, 1, s.FailedFiles)
	assert.Equal(t, 15, s.TotalRows)
	assert.Equal(t, 10, s.TotalTransactions)
	assert.Equal(t, 1, s.TotalUnassigned)

	var b strings.Builder
	require.NoError(t, WriteSummary(&b, s))
	out := b.String()
	assert.Contains(t, out, "Duration:       1.5s")
	assert.Contains(t, out, "  Transactions:       10\n")
	assert.Contains(t, out, "    TOTAL\n")
	assert.Contains(t, out, "  Stage: load\n")

	fm := newTestManager(t)
	require.NoError(t, fm.EnsureDirectories())
	path, err := fm.WriteSummaryLog(s)
	require.NoError(t, err)
	assert.FileExists(t, path)
}
