// =============================================================================
// DIAN to Siigo Converter - Siigo Writer Module
// =============================================================================
//
// This module writes generated ledger rows in the layout the Siigo importer
// expects:
//
//   CUENTA | CC | OBSERVACIONES | DEBITO | CREDITO | VALOR_BASE | TERCERO | H
//
// OUTPUT FORMATS:
//   - XLSX: one sheet named "Siigo", bold header, capped auto column widths
//   - CSV:  ";" separated, Windows-1252 by default
//   - Preview: an aligned text table for the terminal
//
// AMOUNTS:
//   Amounts are whole pesos. They are written as numbers, or as display text
//   ("200.000,00") when AmountStyle is "pesos". Missing amounts stay blank.
//
// =============================================================================

package siigowriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"text/tabwriter"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/ginjaninja78/dian-siigo-converter/internal/amount"
	"github.com/ginjaninja78/dian-siigo-converter/internal/config"
	"github.com/ginjaninja78/dian-siigo-converter/internal/types"
)

// SheetName is the worksheet Siigo imports from.
const SheetName = "Siigo"

// maxColumnWidth caps auto-sized XLSX columns.
const maxColumnWidth = 50

// Amount styles.
const (
	StyleNumber = "number"
	StylePesos  = "pesos"
)

// =============================================================================
// WRITE OPTIONS
// =============================================================================

// Options contains options for writing exports.
type Options struct {
	// Format is "xlsx" or "csv". Empty means infer from the file extension.
	Format string

	// AmountStyle is StyleNumber or StylePesos.
	AmountStyle string

	// CSVDelimiter separates CSV fields. Default: ';'
	CSVDelimiter rune

	// CSVEncoding is "UTF-8" or "Windows-1252". Default: "Windows-1252"
	CSVEncoding string
}

// DefaultOptions returns the default write options.
func DefaultOptions() Options {
	return Options{
		Format:       "xlsx",
		AmountStyle:  StyleNumber,
		CSVDelimiter: ';',
		CSVEncoding:  "Windows-1252",
	}
}

// OptionsFromConfig builds write options from the main configuration.
func OptionsFromConfig(cfg *config.MainConfig) Options {
	opts := DefaultOptions()
	opts.Format = strings.ToLower(cfg.OutputFormat)
	opts.AmountStyle = strings.ToLower(cfg.AmountStyle)
	opts.CSVEncoding = cfg.CSV.OutputEncoding
	if r, _ := utf8.DecodeRuneInString(cfg.CSV.OutputDelimiter); r != utf8.RuneError {
		opts.CSVDelimiter = r
	}
	return opts
}

// =============================================================================
// WRITE FUNCTIONS
// =============================================================================

// WriteFile writes entries to path, creating parent directories.
//
// PARAMETERS:
//   - path: Destination file. Its extension decides the format when
//     opts.Format is empty.
//   - entries: The ledger rows to write.
//   - opts: Write options.
//
// RETURNS:
//   - An error if the file cannot be created or written.
func WriteFile(path string, entries []types.LedgerEntry, opts Options) error {
	if opts.Format == "" {
		opts.Format = strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}

	if err := Write(file, entries, opts); err != nil {
		file.Close()
		os.Remove(path)
		return err
	}
	return file.Close()
}

// Write writes entries to w in opts.Format.
func Write(w io.Writer, entries []types.LedgerEntry, opts Options) error {
	switch strings.ToLower(opts.Format) {
	case "xlsx":
		return WriteXLSX(w, entries, opts)
	case "csv":
		return WriteCSV(w, entries, opts)
	}
	return fmt.Errorf("unsupported output format %q", opts.Format)
}

// WriteXLSX writes entries as a workbook with a single "Siigo" sheet.
func WriteXLSX(w io.Writer, entries []types.LedgerEntry, opts Options) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	widths := make([]int, len(types.LedgerColumns))
	for col, name := range types.LedgerColumns {
		if err := setCell(f, col, 1, name); err != nil {
			return err
		}
		widths[col] = utf8.RuneCountInString(name)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}
	lastHeader, _ := excelize.CoordinatesToCellName(len(types.LedgerColumns), 1)
	if err := f.SetCellStyle(SheetName, "A1", lastHeader, bold); err != nil {
		return fmt.Errorf("failed to style header: %w", err)
	}

	for i, e := range entries {
		for col, v := range cellValues(e, opts.AmountStyle) {
			if v == nil {
				continue
			}
			if err := setCell(f, col, i+2, v); err != nil {
				return err
			}
			if n := utf8.RuneCountInString(fmt.Sprint(v)); n > widths[col] {
				widths[col] = n
			}
		}
	}

	for col, width := range widths {
		name, _ := excelize.ColumnNumberToName(col + 1)
		if err := f.SetColWidth(SheetName, name, name, float64(min(width+2, maxColumnWidth))); err != nil {
			return fmt.Errorf("failed to size column %s: %w", name, err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func setCell(f *excelize.File, col, row int, v interface{}) error {
	cell, err := excelize.CoordinatesToCellName(col+1, row)
	if err != nil {
		return err
	}
	if err := f.SetCellValue(SheetName, cell, v); err != nil {
		return fmt.Errorf("failed to set %s: %w", cell, err)
	}
	return nil
}

// WriteCSV writes entries as delimited text.
func WriteCSV(w io.Writer, entries []types.LedgerEntry, opts Options) error {
	var out io.Writer = w
	var closer io.Closer

	switch strings.ToLower(opts.CSVEncoding) {
	case "", "windows-1252", "cp1252":
		// Characters outside cp1252 are replaced rather than failing the export.
		tw := transform.NewWriter(w, encoding.ReplaceUnsupported(charmap.Windows1252.NewEncoder()))
		out, closer = tw, tw
	case "utf-8", "utf8":
	default:
		return fmt.Errorf("unsupported CSV encoding %q", opts.CSVEncoding)
	}

	writer := csv.NewWriter(out)
	if opts.CSVDelimiter != 0 {
		writer.Comma = opts.CSVDelimiter
	} else {
		writer.Comma = ';'
	}

	if err := writer.Write(types.LedgerColumns); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, e := range entries {
		if err := writer.Write(textValues(e, opts.AmountStyle)); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("failed to flush CSV: %w", err)
	}

	if closer != nil {
		return closer.Close()
	}
	return nil
}

// WritePreview prints up to limit entries as an aligned table with peso
// formatting. limit <= 0 prints everything.
func WritePreview(w io.Writer, entries []types.LedgerEntry, limit int) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, strings.Join(types.LedgerColumns, "\t")+"\t")

	shown := entries
	if limit > 0 && len(shown) > limit {
		shown = shown[:limit]
	}
	for _, e := range shown {
		fmt.Fprintln(tw, strings.Join(textValues(e, StylePesos), "\t")+"\t")
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if len(shown) < len(entries) {
		_, err := fmt.Fprintf(w, "... %d more rows\n", len(entries)-len(shown))
		return err
	}
	return nil
}

// =============================================================================
// CELL RENDERING
// =============================================================================

// cellValues returns the typed cell values of e in column order; nil
// means a blank cell.
func cellValues(e types.LedgerEntry, style string) []interface{} {
	values := []interface{}{e.Account, e.CostCenter, e.Memo, nil, nil, nil, e.ThirdParty, nil}
	for i, amt := range []*int64{e.Debit, e.Credit, e.VATBase} {
		if amt == nil {
			continue
		}
		if style == StylePesos {
			values[3+i] = amount.FormatPesos(*amt)
		} else {
			values[3+i] = *amt
		}
	}
	if e.CostCenter == "" {
		values[1] = nil
	}
	if e.Flag != nil {
		values[7] = *e.Flag
	}
	return values
}

// textValues renders e as CSV/preview text.
func textValues(e types.LedgerEntry, style string) []string {
	cells := cellValues(e, style)
	out := make([]string, len(cells))
	for i, v := range cells {
		switch v := v.(type) {
		case nil:
		case int64:
			out[i] = strconv.FormatInt(v, 10)
		case int:
			out[i] = strconv.Itoa(v)
		case string:
			out[i] = v
		}
	}
	return out
}
