// =============================================================================
// DIAN to Siigo Converter - Configuration Module
// =============================================================================
//
// This module loads the application configuration: where exports go, how
// input CSV files are decoded, the Siigo chart of accounts, logging and the
// HTTP service.
//
// CONFIGURATION SOURCES (later wins):
//   1. Built-in defaults (the standard Siigo accounts and 19% VAT)
//   2. config.yaml (optional)
//   3. Environment variables, including a .env file loaded by main
//
// =============================================================================

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ginjaninja78/dian-siigo-converter/internal/logger"
	"github.com/ginjaninja78/dian-siigo-converter/internal/types"
)

// =============================================================================
// MAIN CONFIGURATION STRUCTURE
// =============================================================================

// MainConfig holds the global application configuration.
type MainConfig struct {
	// =========================================================================
	// OUTPUT SETTINGS
	// =========================================================================

	// OutputDir is where exports are written when no explicit path is given.
	// Default: "."
	OutputDir string `yaml:"output_dir"`

	// OutputFormat is the export format: "xlsx" or "csv".
	// Default: "xlsx"
	OutputFormat string `yaml:"output_format"`

	// FileNameFormat builds export file names.
	// Placeholders:
	//   {kind}      - Compras or Ventas
	//   {date}      - Current date (YYYYMMDD)
	//   {timestamp} - Current timestamp (YYYYMMDD_HHMMSS)
	//   {uuid}      - The run id
	//   {original}  - Source file name without extension
	// Default: "{kind}_Siigo_{date}"
	FileNameFormat string `yaml:"file_name_format"`

	// AmountStyle controls how DEBITO/CREDITO/VALOR_BASE are written:
	// "number" writes whole numbers, "pesos" writes "200.000,00" text.
	// Default: "number"
	AmountStyle string `yaml:"amount_style"`

	// WriteWarningLog writes a text log of load warnings next to the export.
	// Default: false
	WriteWarningLog bool `yaml:"write_warning_log"`

	// =========================================================================
	// INPUT SETTINGS
	// =========================================================================

	// ProbeRows is how many leading rows are searched for the header.
	// Default: 10 (values below 10 are raised to 10)
	ProbeRows int `yaml:"probe_rows"`

	// CSV contains settings for reading and writing CSV files.
	CSV CSVSettings `yaml:"csv"`

	// =========================================================================
	// ACCOUNTING
	// =========================================================================

	// Accounts is the chart of accounts and VAT rate used for entries.
	Accounts AccountsConfig `yaml:"accounts"`

	// =========================================================================
	// LOGGING / SERVICE
	// =========================================================================

	Logging LoggingConfig `yaml:"logging"`
	Server  ServerConfig  `yaml:"server"`
}

// =============================================================================
// CSV SETTINGS STRUCTURE
// =============================================================================

// CSVSettings contains settings for CSV input and output.
type CSVSettings struct {
	// Delimiter is the input field separator. Empty means detect it from
	// the first lines of the file.
	// Common values: "," (comma), ";" (semicolon), "\t" (tab), "|" (pipe)
	Delimiter string `yaml:"delimiter"`

	// Encoding is the input character encoding. "auto" reads UTF-8 and falls
	// back to Windows-1252 when the bytes are not valid UTF-8.
	// Values: "auto", "UTF-8", "ISO-8859-1", "Windows-1252"
	// Default: "auto"
	Encoding string `yaml:"encoding"`

	// OutputDelimiter is the separator for CSV exports.
	// Default: ";"
	OutputDelimiter string `yaml:"output_delimiter"`

	// OutputEncoding is the encoding of CSV exports. Siigo's importer reads
	// Windows-1252.
	// Values: "UTF-8", "Windows-1252"
	// Default: "Windows-1252"
	OutputEncoding string `yaml:"output_encoding"`
}

// =============================================================================
// ACCOUNTS STRUCTURE
// =============================================================================

// AccountsConfig is the chart of accounts used for purchases and sales.
type AccountsConfig struct {
	// VATRate is the flat VAT rate. Default: 0.19
	VATRate float64 `yaml:"vat_rate"`

	// PurchaseExpense is debited with the net amount of a purchase.
	// Default: "14, 51, 61"
	PurchaseExpense string `yaml:"purchase_expense"`

	// PurchaseVAT is debited with deductible VAT. Default: "24080103"
	PurchaseVAT string `yaml:"purchase_vat"`

	// SalesIncome is credited with the net amount of a sale. Default: "41"
	SalesIncome string `yaml:"sales_income"`

	// SalesVAT is credited with generated VAT. Default: "24080101"
	SalesVAT string `yaml:"sales_vat"`

	// SalesVATCredit is debited with the invoice total. Default: "13050501"
	SalesVATCredit string `yaml:"sales_vat_credit"`
}

// =============================================================================
// LOGGING AND SERVER STRUCTURES
// =============================================================================

// LoggingConfig mirrors logger.LogConfig in YAML form.
type LoggingConfig struct {
	Level      string `yaml:"level"`
	Format     string `yaml:"format"`
	Output     string `yaml:"output"`
	TimeFormat string `yaml:"time_format"`
}

// ServerConfig configures the HTTP service.
type ServerConfig struct {
	// Addr is the listen address. Default: ":8080"
	Addr string `yaml:"addr"`

	// MaxUploadMB caps the size of uploaded files. Default: 20
	MaxUploadMB int64 `yaml:"max_upload_mb"`

	// RequestTimeout bounds a single conversion. Default: 60s
	RequestTimeout time.Duration `yaml:"request_timeout"`

	// ShutdownTimeout bounds graceful shutdown. Default: 15s
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// =============================================================================
// CONFIGURATION LOADING FUNCTIONS
// =============================================================================

// Default returns the configuration used when no file is present.
func Default() *MainConfig {
	cfg := &MainConfig{}
	applyMainConfigDefaults(cfg)
	return cfg
}

// LoadMainConfig loads the configuration from a YAML file, applies defaults
// and environment overrides, and validates the result.
//
// PARAMETERS:
//   - configPath: The path to the configuration file. A missing file is not
//     an error; defaults are used instead.
//
// RETURNS:
//   - A pointer to the MainConfig struct.
//   - An error if the file cannot be read or parsed, or fails validation.
func LoadMainConfig(configPath string) (*MainConfig, error) {
	var config MainConfig

	if configPath != "" {
		data, err := os.ReadFile(configPath)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			// Defaults only.
		case err != nil:
			return nil, fmt.Errorf("failed to read config file: %w", err)
		default:
			if err := yaml.Unmarshal(data, &config); err != nil {
				return nil, fmt.Errorf("failed to parse config file: %w", err)
			}
		}
	}

	applyMainConfigDefaults(&config)
	if err := applyEnvOverrides(&config); err != nil {
		return nil, err
	}

	if err := validateMainConfig(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// applyMainConfigDefaults sets default values for any missing configuration.
func applyMainConfigDefaults(config *MainConfig) {
	if config.OutputDir == "" {
		config.OutputDir = "."
	}
	if config.OutputFormat == "" {
		config.OutputFormat = "xlsx"
	}
	if config.FileNameFormat == "" {
		config.FileNameFormat = "{kind}_Siigo_{date}"
	}
	if config.AmountStyle == "" {
		config.AmountStyle = "number"
	}
	if config.ProbeRows < 10 {
		config.ProbeRows = 10
	}

	if config.CSV.Encoding == "" {
		config.CSV.Encoding = "auto"
	}
	if config.CSV.OutputDelimiter == "" {
		config.CSV.OutputDelimiter = ";"
	}
	if config.CSV.OutputEncoding == "" {
		config.CSV.OutputEncoding = "Windows-1252"
	}

	a := &config.Accounts
	if a.VATRate == 0 {
		a.VATRate = 0.19
	}
	if a.PurchaseExpense == "" {
		a.PurchaseExpense = "14, 51, 61"
	}
	if a.PurchaseVAT == "" {
		a.PurchaseVAT = "24080103"
	}
	if a.SalesIncome == "" {
		a.SalesIncome = "41"
	}
	if a.SalesVAT == "" {
		a.SalesVAT = "24080101"
	}
	if a.SalesVATCredit == "" {
		a.SalesVATCredit = "13050501"
	}

	def := logger.DefaultConfig()
	if config.Logging.Level == "" {
		config.Logging.Level = def.Level
	}
	if config.Logging.Format == "" {
		config.Logging.Format = def.Format
	}
	if config.Logging.Output == "" {
		config.Logging.Output = def.Output
	}
	if config.Logging.TimeFormat == "" {
		config.Logging.TimeFormat = def.TimeFormat
	}

	if config.Server.Addr == "" {
		config.Server.Addr = ":8080"
	}
	if config.Server.MaxUploadMB <= 0 {
		config.Server.MaxUploadMB = 20
	}
	if config.Server.RequestTimeout <= 0 {
		config.Server.RequestTimeout = 60 * time.Second
	}
	if config.Server.ShutdownTimeout <= 0 {
		config.Server.ShutdownTimeout = 15 * time.Second
	}
}

// applyEnvOverrides lets deployment environments adjust the few settings
// that differ between machines.
func applyEnvOverrides(config *MainConfig) error {
	config.Logging.Level = getEnv("DIAN_LOG_LEVEL", config.Logging.Level)
	config.Logging.Format = getEnv("DIAN_LOG_FORMAT", config.Logging.Format)
	config.OutputDir = getEnv("DIAN_OUTPUT_DIR", config.OutputDir)
	config.Server.Addr = getEnv("DIAN_SERVER_ADDR", config.Server.Addr)

	if v := os.Getenv("DIAN_VAT_RATE"); v != "" {
		rate, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("%w: DIAN_VAT_RATE %q: %v", types.ErrInvalidConfig, v, err)
		}
		config.Accounts.VATRate = rate
	}
	return nil
}

// validateMainConfig validates the main configuration.
func validateMainConfig(config *MainConfig) error {
	var problems []string

	switch strings.ToLower(config.OutputFormat) {
	case "xlsx", "csv":
	default:
		problems = append(problems, fmt.Sprintf("output_format must be xlsx or csv, got %q", config.OutputFormat))
	}

	switch strings.ToLower(config.AmountStyle) {
	case "number", "pesos":
	default:
		problems = append(problems, fmt.Sprintf("amount_style must be number or pesos, got %q", config.AmountStyle))
	}

	if config.Accounts.VATRate <= 0 || config.Accounts.VATRate >= 1 {
		problems = append(problems, fmt.Sprintf("accounts.vat_rate must be between 0 and 1, got %v", config.Accounts.VATRate))
	}

	switch strings.ToLower(config.CSV.Encoding) {
	case "auto", "utf-8", "utf8", "iso-8859-1", "latin1", "windows-1252", "cp1252":
	default:
		problems = append(problems, fmt.Sprintf("csv.encoding %q is not supported", config.CSV.Encoding))
	}

	switch strings.ToLower(config.CSV.OutputEncoding) {
	case "utf-8", "utf8", "windows-1252", "cp1252":
	default:
		problems = append(problems, fmt.Sprintf("csv.output_encoding %q is not supported", config.CSV.OutputEncoding))
	}

	if len(config.CSV.OutputDelimiter) != 1 {
		problems = append(problems, fmt.Sprintf("csv.output_delimiter must be one character, got %q", config.CSV.OutputDelimiter))
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", types.ErrInvalidConfig, strings.Join(problems, "; "))
	}
	return nil
}

// GetLoggerConfig returns the logger configuration.
func (c *MainConfig) GetLoggerConfig() logger.LogConfig {
	return logger.LogConfig{
		Level:      c.Logging.Level,
		Format:     c.Logging.Format,
		TimeFormat: c.Logging.TimeFormat,
		Output:     c.Logging.Output,
	}
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
