package cmd

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleLedger = "Data;Débito;Crédito;Histórico\n" +
	"Conta 11101 Nome: Caixa Geral;;;\n" +
	"05/01/2024;;1.500,00;Depósito\n" +
	"Saldo Anterior;;;\n" +
	"06/01/2024;200,50;;Pagamento\n"

// setupWorkspace writes a config file pointing every directory into a
// temporary root and returns the config path and the root.
func setupWorkspace(t *testing.T) (string, string) {
	t.Helper()
	root := t.TempDir()
	for _, dir := range []string{"input", "profiles"} {
		require.NoError(t, os.MkdirAll(filepath.Join(root, dir), 0o755))
	}

	cfg := fmt.Sprintf(`paths:
  input_dir: %[1]s/input
  output_dir: %[1]s/output
  input_archive_dir: %[1]s/archive
  logs_dir: %[1]s/logs
  profiles_dir: %[1]s/profiles
output:
  format: csv
processing:
  max_concurrency: 2
  archive_on_success: true
`, root)
	cfgPath := filepath.Join(root, "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfg), 0o644))
	return cfgPath, root
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	filePath, outputPath, formatFlag, headerRule, dryRun = "", "", "", "", false

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestProcess_InputDirectory(t *testing.T) {
	cfgPath, root := setupWorkspace(t)
	require.NoError(t, os.WriteFile(filepath.Join(root, "input", "razao.csv"), []byte(sampleLedger), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "input", "notas.pdf"), []byte("x"), 0o644))

	out, err := execute(t, "--config", cfgPath, "process")
	require.NoError(t, err, out)

	assert.Contains(t, out, "razao.csv -> ")
	assert.Contains(t, out, "Successful:    1")
	assert.FileExists(t, filepath.Join(root, "output", "razao_limpo.csv"))
	assert.FileExists(t, filepath.Join(root, "archive", "razao.csv"))
	assert.NoFileExists(t, filepath.Join(root, "input", "razao.csv"))

	summaries, err := filepath.Glob(filepath.Join(root, "logs", "processing_summary_*.txt"))
	require.NoError(t, err)
	assert.Len(t, summaries, 1)
}

func TestProcess_DryRunWritesNothing(t *testing.T) {
	cfgPath, root := setupWorkspace(t)
	input := filepath.Join(root, "input", "razao.csv")
	require.NoError(t, os.WriteFile(input, []byte(sampleLedger), 0o644))

	out, err := execute(t, "--config", cfgPath, "process", "--file", input, "--format", "xml", "--dry-run")
	require.NoError(t, err, out)

	assert.Contains(t, out, "razao_limpo.xml (dry run)")
	assert.Contains(t, out, "11101 - Caixa Geral")
	assert.NoDirExists(t, filepath.Join(root, "output"))
	assert.FileExists(t, input)
}

func TestProcess_FailedFileReturnsError(t *testing.T) {
	cfgPath, root := setupWorkspace(t)
	input := filepath.Join(root, "input", "razao.xlsx")
	require.NoError(t, os.WriteFile(input, []byte("not a workbook"), 0o644))

	out, err := execute(t, "--config", cfgPath, "process", "--file", input)
	require.Error(t, err)
	assert.Contains(t, out, "✗ razao.xlsx")
	assert.FileExists(t, input, "failed inputs are not archived")

	logs, _ := filepath.Glob(filepath.Join(root, "logs", "error_log_*.txt"))
	assert.Len(t, logs, 1)
}

func TestProcess_InvalidHeaderRule(t *testing.T) {
	cfgPath, _ := setupWorkspace(t)
	_, err := execute(t, "--config", cfgPath, "process", "--header-rule", "regex")
	assert.Error(t, err)
}

func TestClassify(t *testing.T) {
	cfgPath, root := setupWorkspace(t)
	input := filepath.Join(root, "input", "razao.csv")
	require.NoError(t, os.WriteFile(input, []byte(sampleLedger), 0o644))

	out, err := execute(t, "--config", cfgPath, "classify", "--file", input)
	require.NoError(t, err, out)
	assert.Contains(t, out, "11101 - Caixa Geral")
	assert.Contains(t, out, "saldo anterior")
	assert.Contains(t, out, "1 header(s), 2 transaction(s), 1 skipped")
}
