// =============================================================================
// DIAN to Siigo Converter - Table Loader
// =============================================================================
//
// This module turns a DIAN export into normalized invoice records:
//
//   1. Read the file as an untyped grid (CSV or workbook)
//   2. Locate the header row among the first rows
//   3. Infer column roles from the header names
//   4. Keep only invoices when a document-type column exists
//   5. Normalize Total, IVA and withholding amounts
//
// Bad cells never stop a load: they become zero and a warning. Only a file
// that cannot be read, or one without any usable total column, fails.
//
// =============================================================================

package loader

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/ginjaninja78/dian-siigo-converter/internal/amount"
	"github.com/ginjaninja78/dian-siigo-converter/internal/config"
	"github.com/ginjaninja78/dian-siigo-converter/internal/csvparser"
	"github.com/ginjaninja78/dian-siigo-converter/internal/header"
	"github.com/ginjaninja78/dian-siigo-converter/internal/transform"
	"github.com/ginjaninja78/dian-siigo-converter/internal/types"
	"github.com/ginjaninja78/dian-siigo-converter/internal/xlsxparser"
)

// invoiceMarker selects invoice rows when a document-type column exists.
const invoiceMarker = "factura"

// =============================================================================
// OPTIONS AND RESULT
// =============================================================================

// Options controls how a file is read.
type Options struct {
	// ProbeRows is how many leading rows are searched for the header.
	ProbeRows int

	// CSV holds delimiter and encoding settings for text input.
	CSV config.CSVSettings
}

// OptionsFromConfig builds loader options from the main configuration.
func OptionsFromConfig(cfg *config.MainConfig) Options {
	return Options{ProbeRows: cfg.ProbeRows, CSV: cfg.CSV}
}

// Table is the outcome of loading one file.
type Table struct {
	// Source is the file name the table was read from.
	Source string

	// HeaderRow is the 0-based index of the header in the raw grid.
	HeaderRow int

	Headers []string
	Roles   header.RoleMap

	// Records holds the invoices that passed the document-type filter.
	Records []types.InvoiceRecord

	// DataRows counts the non-empty rows below the header.
	DataRows int

	// Dropped counts rows removed by the document-type filter.
	Dropped int

	Warnings []types.Warning
}

func (t *Table) warn(w types.Warning) {
	t.Warnings = append(t.Warnings, w)
}

// =============================================================================
// LOADING FUNCTIONS
// =============================================================================

// Load reads and normalizes the file at path.
//
// PARAMETERS:
//   - ctx: Checked between stages; a cancelled load returns ctx.Err().
//   - path: The .csv, .txt, .xlsx, .xlsm or .xls file.
//   - opts: Reading options.
//
// RETURNS:
//   - The loaded table. On a *types.MissingColumnError the table is still
//     returned with its headers and roles, for diagnosis.
//   - A *types.FileAccessError, *types.MissingColumnError or
//     *types.EmptyResultError when the file cannot be used.
func Load(ctx context.Context, path string, opts Options) (*Table, error) {
	rows, err := ReadFile(path, opts.CSV)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return LoadGrid(filepath.Base(path), rows, opts)
}

// LoadReader is Load for an in-memory upload. name supplies the extension.
func LoadReader(ctx context.Context, r io.ReadSeeker, name string, opts Options) (*Table, error) {
	rows, err := ReadGrid(r, name, opts.CSV)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return LoadGrid(name, rows, opts)
}

// LoadGrid normalizes an already-read grid.
func LoadGrid(name string, rows []types.RawRow, opts Options) (*Table, error) {
	probe := opts.ProbeRows
	if probe < header.DefaultProbeRows {
		probe = header.DefaultProbeRows
	}
	if probe > len(rows) {
		probe = len(rows)
	}

	headerRow, err := header.Locate(rows[:probe])
	if err != nil {
		return nil, &types.FileAccessError{Op: "locate header", Path: name, Err: err}
	}

	table := &Table{
		Source:    name,
		HeaderRow: headerRow,
		Headers:   cleanHeaders(rows[headerRow]),
	}

	data := extractDataRows(rows[headerRow+1:], len(table.Headers))
	table.DataRows = len(data)

	roles, warnings := header.InferRoles(table.Headers, data)
	table.Roles = roles
	table.Warnings = append(table.Warnings, warnings...)

	if !roles.Has(header.Total) {
		return table, &types.MissingColumnError{
			Roles: []string{string(header.Total)},
			Hint:  header.SuggestColumn(table.Headers, header.Total),
		}
	}

	docType, hasDocType := roles[header.TipoDocumento]
	if !hasDocType {
		table.warn(types.Warning{Message: "no document type column, keeping every row"})
	}
	vatCol, hasVAT := roles[header.IVA]
	if !hasVAT {
		table.warn(types.Warning{Message: "no IVA column, VAT defaults to 0 for every row"})
	}
	totalCol := roles[header.Total]

	for i, row := range data {
		ordinal := i + 1

		rec := types.InvoiceRecord{Row: ordinal}
		if hasDocType {
			rec.DocumentType = row.Cell(docType.Index)
			if !strings.Contains(strings.ToLower(rec.DocumentType), invoiceMarker) {
				table.Dropped++
				continue
			}
		}

		rec.Total = decimal.NewNullDecimal(table.amountAt(row, ordinal, totalCol))
		if hasVAT {
			rec.VAT = decimal.NewNullDecimal(table.amountAt(row, ordinal, vatCol))
		} else {
			rec.VAT = decimal.NewNullDecimal(decimal.Zero)
		}

		for _, role := range header.WithholdingRoles {
			if col, ok := roles[role]; ok {
				if rec.Withholdings == nil {
					rec.Withholdings = make(map[string]decimal.Decimal)
				}
				rec.Withholdings[string(role)] = table.amountAt(row, ordinal, col)
			}
		}

		rec.IssuerTaxID = cellFor(row, roles, header.NITEmisor, transform.CleanTaxID)
		rec.IssuerName = cellFor(row, roles, header.NombreEmisor, transform.CleanName)
		rec.ReceiverTaxID = cellFor(row, roles, header.NITReceptor, transform.CleanTaxID)
		rec.ReceiverName = cellFor(row, roles, header.NombreReceptor, transform.CleanName)

		table.Records = append(table.Records, rec)
	}

	if len(table.Records) == 0 {
		return table, &types.EmptyResultError{Stage: "load", Dropped: table.Dropped}
	}
	return table, nil
}

// amountAt parses the cell of col in row, recording a warning on failure.
func (t *Table) amountAt(row types.RawRow, ordinal int, col header.Column) decimal.Decimal {
	v, w := amount.Parse(row.Cell(col.Index))
	if w != nil {
		w.Row = ordinal
		w.Column = col.Name
		t.warn(*w)
	}
	return v
}

// cellFor returns the cleaned value of role in row, or "" when unmapped.
func cellFor(row types.RawRow, roles header.RoleMap, role header.Role, clean transform.Func) string {
	col, ok := roles[role]
	if !ok {
		return ""
	}
	return clean(row.Cell(col.Index))
}

// =============================================================================
// GRID HELPERS
// =============================================================================

// cleanHeaders trims header names and names blank ones "Column_N".
func cleanHeaders(row types.RawRow) []string {
	headers := make([]string, len(row))
	for i, h := range row {
		h = transform.CleanCell(h)
		if h == "" {
			h = fmt.Sprintf("Column_%d", i+1)
		}
		headers[i] = h
	}
	return headers
}

// extractDataRows drops empty rows and pads short ones to width.
func extractDataRows(rows []types.RawRow, width int) []types.RawRow {
	data := make([]types.RawRow, 0, len(rows))
	for _, row := range rows {
		if row.IsEmpty() {
			continue
		}
		if len(row) < width {
			padded := make(types.RawRow, width)
			copy(padded, row)
			row = padded
		}
		data = append(data, row)
	}
	return data
}

// =============================================================================
// FILE READING
// =============================================================================

// ReadFile reads path into a raw grid, choosing the reader by extension.
func ReadFile(path string, settings config.CSVSettings) ([]types.RawRow, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".txt":
		return csvparser.Parse(path, settings)
	case ".xlsx", ".xlsm", ".xls":
		return xlsxparser.Parse(path)
	}
	return nil, unsupported(path)
}

// ReadGrid reads an in-memory file into a raw grid, choosing the reader by
// the extension of name.
func ReadGrid(r io.ReadSeeker, name string, settings config.CSVSettings) ([]types.RawRow, error) {
	var (
		rows []types.RawRow
		err  error
	)
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv", ".txt":
		rows, err = csvparser.ReadGrid(r, settings)
	case ".xlsx", ".xlsm", ".xls":
		rows, err = xlsxparser.ReadGrid(r, name)
	default:
		return nil, unsupported(name)
	}
	if err != nil {
		return nil, &types.FileAccessError{Op: "read", Path: name, Err: err}
	}
	return rows, nil
}

func unsupported(name string) error {
	return &types.FileAccessError{
		Op:   "detect format",
		Path: name,
		Err:  fmt.Errorf("%w: %q", types.ErrUnsupportedFormat, filepath.Ext(name)),
	}
}
