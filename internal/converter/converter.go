// =============================================================================
// DIAN to Siigo Converter - Converter Module
// =============================================================================
//
// This module orchestrates the conversion of one DIAN export into Siigo
// ledger rows. The CLI and the HTTP service both go through it.
//
// CONVERSION PIPELINE:
//   1. Load the file into invoice records (header, roles, amounts)
//   2. Decide the kind (purchases or sales) unless it was given
//   3. Generate ledger entries against the chart of accounts
//   4. Validate the entries for the Siigo importer
//   5. Export (skipped for dry runs)
//
// Nothing is exported when any step fails. Load warnings are kept on the
// Result whether or not the run succeeds.
//
// CONCURRENCY:
//   A Converter holds only read-only configuration and may be shared by
//   concurrent runs.
//
// =============================================================================

package converter

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ginjaninja78/dian-siigo-converter/internal/config"
	"github.com/ginjaninja78/dian-siigo-converter/internal/header"
	"github.com/ginjaninja78/dian-siigo-converter/internal/ledger"
	"github.com/ginjaninja78/dian-siigo-converter/internal/loader"
	"github.com/ginjaninja78/dian-siigo-converter/internal/siigowriter"
	"github.com/ginjaninja78/dian-siigo-converter/internal/types"
	"github.com/ginjaninja78/dian-siigo-converter/internal/validation"
	"github.com/ginjaninja78/dian-siigo-converter/pkg/utils"
)

// =============================================================================
// REQUEST AND RESULT
// =============================================================================

// Request describes one conversion. Exactly one of Path, Reader or Grid
// is used, in that order.
type Request struct {
	// Path is a file on disk.
	Path string

	// Name is the file name for Reader and Grid input. It supplies the
	// extension and the kind hint.
	Name string

	// Reader is an uploaded file.
	Reader io.ReadSeeker

	// Grid is an already-read table.
	Grid []types.RawRow

	// Kind forces purchases or sales. Empty or KindAuto detects it.
	Kind types.Kind
}

func (r Request) name() string {
	if r.Path != "" {
		return filepath.Base(r.Path)
	}
	return r.Name
}

// Result represents the outcome of converting a single file.
type Result struct {
	// RunID identifies the run in logs and file names.
	RunID string `json:"run_id"`

	// Source is the input file name.
	Source string `json:"source"`

	Kind types.Kind `json:"kind"`

	// KindReason explains how Kind was chosen.
	KindReason string `json:"kind_reason"`

	// Table is the loaded input. It is set even when a later step fails.
	Table *loader.Table `json:"-"`

	Entries    []types.LedgerEntry          `json:"entries"`
	Validation *validation.ValidationResult `json:"validation,omitempty"`
	Warnings   []types.Warning              `json:"warnings,omitempty"`

	// OutputFile is the export path. Empty for dry runs.
	OutputFile string `json:"output_file,omitempty"`

	// WarningLog is the warning log path, if one was written.
	WarningLog string `json:"warning_log,omitempty"`

	Stats Stats `json:"stats"`
}

// Stats contains run statistics.
type Stats struct {
	// InvoiceCount is the number of invoices kept after filtering.
	InvoiceCount int `json:"invoice_count"`

	// Dropped is the number of rows removed by the document-type filter.
	Dropped int `json:"dropped"`

	EntryCount  int   `json:"entry_count"`
	TotalDebit  int64 `json:"total_debit"`
	TotalCredit int64 `json:"total_credit"`

	Duration time.Duration `json:"duration"`
}

// =============================================================================
// CONVERTER STRUCTURE
// =============================================================================

// Converter runs the conversion pipeline with a fixed configuration.
type Converter struct {
	cfg       *config.MainConfig
	log       zerolog.Logger
	generator *ledger.Generator
	loadOpts  loader.Options
	writeOpts siigowriter.Options
}

// New creates a Converter.
//
// PARAMETERS:
//   - cfg: The main configuration. Nil means config.Default().
//   - log: The logger for pipeline events.
//
// RETURNS:
//   - A new Converter.
//   - An error wrapping types.ErrInvalidConfig if the chart is unusable.
func New(cfg *config.MainConfig, log zerolog.Logger) (*Converter, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	chart := ledger.ChartFromConfig(cfg.Accounts)
	if err := chart.Validate(); err != nil {
		return nil, err
	}
	return &Converter{
		cfg:       cfg,
		log:       log,
		generator: ledger.NewGenerator(chart),
		loadOpts:  loader.OptionsFromConfig(cfg),
		writeOpts: siigowriter.OptionsFromConfig(cfg),
	}, nil
}

// Chart returns the chart of accounts in use.
func (c *Converter) Chart() ledger.Chart {
	return c.generator.Chart()
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

// Run executes the pipeline up to validation. Call Export to write the
// entries.
//
// RETURNS:
//   - The Result. It is never nil and carries the warnings collected
//     before any failure.
//   - The first error that stopped the run.
func (c *Converter) Run(ctx context.Context, req Request) (*Result, error) {
	start := time.Now()
	result := &Result{
		RunID:  uuid.New().String(),
		Source: req.name(),
	}
	log := c.log.With().Str("run_id", result.RunID).Str("source", result.Source).Logger()
	defer func() { result.Stats.Duration = time.Since(start) }()

	// =========================================================================
	// STEP 1: LOAD
	// =========================================================================

	log.Info().Msg("Loading file")

	table, err := c.load(ctx, req)
	result.Table = table
	if table != nil {
		result.Warnings = append(result.Warnings, table.Warnings...)
		result.Stats.Dropped = table.Dropped
	}
	if err != nil {
		c.logWarnings(log, result.Warnings)
		return result, err
	}

	result.Stats.InvoiceCount = len(table.Records)
	log.Debug().
		Int("header_row", table.HeaderRow+1).
		Int("data_rows", table.DataRows).
		Int("invoices", len(table.Records)).
		Int("dropped", table.Dropped).
		Msg("Loaded invoices")

	if err := ctx.Err(); err != nil {
		return result, err
	}

	// =========================================================================
	// STEP 2: DETERMINE KIND
	// =========================================================================

	result.Kind, result.KindReason = req.Kind, "requested"
	if result.Kind == "" || result.Kind == types.KindAuto {
		result.Kind, result.KindReason = ledger.DetectKind(result.Source, table.Roles)
	}
	log.Info().Str("kind", string(result.Kind)).Str("reason", result.KindReason).Msg("Kind selected")

	result.Warnings = append(result.Warnings, identityWarnings(result.Kind, table.Roles)...)
	c.logWarnings(log, result.Warnings)

	// =========================================================================
	// STEP 3: GENERATE ENTRIES
	// =========================================================================

	entries, err := c.generator.Generate(result.Kind, table.Records)
	if err != nil {
		return result, err
	}
	result.Entries = entries
	result.Stats.EntryCount = len(entries)

	if err := ctx.Err(); err != nil {
		return result, err
	}

	// =========================================================================
	// STEP 4: VALIDATE
	// =========================================================================

	result.Validation = validation.Validate(entries, c.Chart().Codes(result.Kind))
	result.Stats.TotalDebit = result.Validation.TotalDebit
	result.Stats.TotalCredit = result.Validation.TotalCredit

	for _, problem := range result.Validation.Errors {
		ev := log.Warn()
		if problem.Severity == validation.SeverityError {
			ev = log.Error()
		}
		ev.Int("entry", problem.Entry).
			Int("row", problem.SourceRow).
			Str("field", problem.Field).
			Str("rule", problem.Rule).
			Msg(problem.Message)
	}
	if err := result.Validation.Err(); err != nil {
		return result, err
	}

	log.Info().
		Int("entries", result.Stats.EntryCount).
		Int64("debit", result.Stats.TotalDebit).
		Int64("credit", result.Stats.TotalCredit).
		Msg("Entries generated")

	return result, nil
}

// load reads the request input into a table.
func (c *Converter) load(ctx context.Context, req Request) (*loader.Table, error) {
	switch {
	case req.Path != "":
		return loader.Load(ctx, req.Path, c.loadOpts)
	case req.Reader != nil:
		return loader.LoadReader(ctx, req.Reader, req.Name, c.loadOpts)
	case req.Grid != nil:
		return loader.LoadGrid(req.Name, req.Grid, c.loadOpts)
	}
	return nil, errors.New("converter: request has no input")
}

// identityWarnings reports missing third-party columns for kind. Entries
// are still generated, with an empty TERCERO or a fallback memo.
func identityWarnings(kind types.Kind, roles header.RoleMap) []types.Warning {
	var taxID, name header.Role
	switch kind {
	case types.KindPurchases:
		taxID, name = header.NITEmisor, header.NombreEmisor
	case types.KindSales:
		taxID, name = header.NITReceptor, header.NombreReceptor
	default:
		return nil
	}

	var warnings []types.Warning
	if !roles.Has(taxID) {
		warnings = append(warnings, types.Warning{
			Column:  string(taxID),
			Message: "no tax id column, TERCERO will be empty",
		})
	}
	if !roles.Has(name) {
		warnings = append(warnings, types.Warning{
			Column:  string(name),
			Message: "no name column, OBSERVACIONES falls back to the row number",
		})
	}
	return warnings
}

func (c *Converter) logWarnings(log zerolog.Logger, warnings []types.Warning) {
	for _, w := range warnings {
		ev := log.Warn()
		if w.Row > 0 {
			ev = ev.Int("row", w.Row)
		}
		if w.Column != "" {
			ev = ev.Str("column", w.Column)
		}
		if w.Value != "" {
			ev = ev.Str("value", w.Value)
		}
		ev.Msg(w.Message)
	}
}

// =============================================================================
// EXPORT
// =============================================================================

// Export writes the entries of a successful run.
//
// PARAMETERS:
//   - result: A Result returned by Run without error.
//   - format: "xlsx" or "csv". Empty means the extension of path, or the
//     configured output format.
//   - path: The destination. Empty means a name built from the configured
//     file name format inside the output directory.
//
// RETURNS:
//   - The path written.
//   - An error if the file cannot be written.
func (c *Converter) Export(result *Result, format, path string) (string, error) {
	if len(result.Entries) == 0 {
		return "", &types.EmptyResultError{Stage: "generate", Dropped: result.Stats.Dropped}
	}

	format = strings.ToLower(format)
	if format == "" && path != "" {
		format = strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	}
	if format == "" {
		format = c.writeOpts.Format
	}

	if path == "" {
		path = filepath.Join(c.cfg.OutputDir, c.OutputFileName(result, format))
	}

	opts := c.writeOpts
	opts.Format = format
	if err := siigowriter.WriteFile(path, result.Entries, opts); err != nil {
		return "", fmt.Errorf("export %s: %w", path, err)
	}
	result.OutputFile = path
	c.log.Info().Str("run_id", result.RunID).Str("file", path).Msg("Wrote export")

	if c.cfg.WriteWarningLog && len(result.Warnings) > 0 {
		logPath, err := utils.WriteWarningLog(result.Warnings, filepath.Dir(path), result.Source)
		if err != nil {
			// The export itself succeeded.
			c.log.Warn().Err(err).Msg("Failed to write warning log")
		} else {
			result.WarningLog = logPath
		}
	}

	return path, nil
}

// OutputFileName builds the default export name for result.
func (c *Converter) OutputFileName(result *Result, format string) string {
	return utils.GenerateOutputFileName(c.cfg.FileNameFormat, format, map[string]string{
		"kind":     result.Kind.Label(),
		"uuid":     result.RunID,
		"original": utils.BaseName(result.Source),
	})
}
