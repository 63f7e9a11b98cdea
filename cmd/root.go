// =============================================================================
// Razão Normalizer - Root Command
// =============================================================================
//
// This file defines the root command of the CLI. Every subcommand shares the
// configuration and logger set up here.
//
// COBRA CLI STRUCTURE:
//   rootCmd (razao)
//   ├── processCmd  (razao process)
//   ├── classifyCmd (razao classify)
//   └── versionCmd  (razao version)
//
// CONFIGURATION:
//   Before any subcommand runs, the root command:
//   1. Loads the main configuration (--config, RAZAO_* environment variables)
//   2. Builds the logger (--verbose forces debug level)
//   3. Stores the logger in the command context
//
// =============================================================================

package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/razao/internal/config"
	"github.com/ginjaninja78/razao/internal/logger"
)

// =============================================================================
// GLOBAL VARIABLES
// =============================================================================

// cfgFile holds the path to the main configuration file.
var cfgFile string

// verbose enables debug logging.
var verbose bool

// appConfig is loaded by the root command before any subcommand runs.
var appConfig *config.MainConfig

// =============================================================================
// ROOT COMMAND DEFINITION
// =============================================================================

var rootCmd = &cobra.Command{
	Use:   "razao",
	Short: "Razão Normalizer - clean general ledger exports into a flat table",
	Long: `Razão Normalizer turns the general ledger ("razão") exports of accounting
systems into a flat table with one row per transaction.

Account header rows are detected and their label is written to the Conta
column of every transaction that follows. Balance carry-forward rows and
undated rows are dropped, and Débito/Crédito text such as "1.234,56" becomes
a number.

Supported inputs:  .csv .txt .xlsx .xlsm .xls
Supported outputs: .xlsx .csv .xml

Example Usage:
  razao process                          # Clean every file in the input directory
  razao process --file razao.xlsx        # Clean a single file
  razao process --format csv --dry-run   # Show what would be written
  razao classify --file razao.csv        # Show how each row is classified`,

	SilenceUsage: true,

	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadMainConfig(cfgFile)
		if err != nil {
			return fmt.Errorf("failed to load main config: %w", err)
		}
		if verbose {
			cfg.Logging.Level = "debug"
		}
		appConfig = cfg

		log := logger.New(logger.Options{Level: cfg.Logging.Level, JSON: cfg.Logging.JSON})
		cmd.SetContext(logger.WithContext(cmd.Context(), log))
		log.Debug().Str("config", cfgFile).Msg("Configuration loaded")
		return nil
	},

	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// =============================================================================
// EXECUTE FUNCTION
// =============================================================================

// Execute runs the root command. Interrupts cancel the running command.
// It is called by main.main().
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

// =============================================================================
// INITIALIZATION
// =============================================================================

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile,
		"config",
		"config.yaml",
		"Path to the main configuration file",
	)

	rootCmd.PersistentFlags().BoolVarP(
		&verbose,
		"verbose",
		"v",
		false,
		"Enable debug logging",
	)
}
