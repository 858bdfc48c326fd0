// =============================================================================
// DIAN to Siigo Converter - Root Command
// =============================================================================
//
// This file defines the root command for the Cobra CLI. All other commands
// are attached to it.
//
// COBRA CLI STRUCTURE:
//   rootCmd (dian2siigo)
//   ├── convertCmd (dian2siigo convert <file>)
//   ├── inspectCmd (dian2siigo inspect <file>)
//   ├── serveCmd   (dian2siigo serve)
//   └── versionCmd (dian2siigo version)
//
// CONFIGURATION:
//   Before any subcommand runs, the root command:
//   1. Loads the configuration file (optional, defaults otherwise)
//   2. Sets up logging, forcing debug level with --verbose
//
// =============================================================================

package cmd

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/ginjaninja78/dian-siigo-converter/internal/config"
	"github.com/ginjaninja78/dian-siigo-converter/internal/converter"
	"github.com/ginjaninja78/dian-siigo-converter/internal/logger"
)

// =============================================================================
// GLOBAL VARIABLES
// =============================================================================

// cfgFile holds the path to the main configuration file.
var cfgFile string

// verbose enables debug logging when set to true.
var verbose bool

// mainConfig is loaded once in PersistentPreRunE.
var mainConfig *config.MainConfig

// =============================================================================
// ROOT COMMAND DEFINITION
// =============================================================================

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "dian2siigo",
	Short: "DIAN to Siigo Converter - Turn DIAN invoice exports into Siigo ledger imports",
	Long: `dian2siigo reads the invoice listings downloaded from the DIAN portal
(received or issued electronic invoices) and produces the accounting entries
Siigo imports: CUENTA, CC, OBSERVACIONES, DEBITO, CREDITO, VALOR_BASE,
TERCERO and H.

Key Features:
  - Reads .csv, .xlsx and legacy .xls exports, with title rows above the header
  - Detects purchases (recibidos) or sales (enviados) automatically
  - Splits totals into net amount and VAT with a configurable chart of accounts
  - Validates every row before writing an Excel or CSV import file

Example Usage:
  dian2siigo convert Documentos_recibidos.xlsx
  dian2siigo convert ventas.csv --kind ventas --format csv --output out/ventas.csv
  dian2siigo inspect export.xlsx
  dian2siigo serve --addr :9000`,

	SilenceUsage:  true,
	SilenceErrors: true,

	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initConfig()
	},

	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// =============================================================================
// EXECUTE FUNCTION
// =============================================================================

// Execute runs the root command. It is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
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
		"Path to the configuration file (optional)",
	)

	rootCmd.PersistentFlags().BoolVarP(
		&verbose,
		"verbose",
		"v",
		false,
		"Enable debug logging",
	)
}

// initConfig loads the configuration and sets up logging.
func initConfig() error {
	cfg, err := config.LoadMainConfig(cfgFile)
	if err != nil {
		return err
	}
	if err := logger.Setup(cfg.GetLoggerConfig()); err != nil {
		return fmt.Errorf("failed to set up logging: %w", err)
	}
	if verbose {
		logger.SetLevel(zerolog.DebugLevel)
	}
	mainConfig = cfg

	cliLog := logger.WithComponent("cli")
	cliLog.Debug().Str("config", cfgFile).Msg("Configuration loaded")
	return nil
}

// newConverter builds a converter from the loaded configuration.
func newConverter() (*converter.Converter, error) {
	return converter.New(mainConfig, logger.WithComponent("converter"))
}
