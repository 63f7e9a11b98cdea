// =============================================================================
// Razão Normalizer - Main Entry Point
// =============================================================================
//
// USAGE:
//   razao process    - Clean every ledger export in the input directory
//   razao classify   - Show how each row of a file is classified
//   razao version    - Display the application version
//
// ARCHITECTURE:
//   - cmd/       : CLI command definitions (Cobra)
//   - internal/  : parsers, ledger normalizer, review, report, writers
//   - pkg/utils  : file discovery, naming, archival and run logs
//   - profiles/  : per-source overrides (header rule, delimiter, ...)
//
// =============================================================================

package main

import (
	"github.com/ginjaninja78/razao/cmd"
)

func main() {
	cmd.Execute()
}
