// =============================================================================
// DIAN to Siigo Converter - Convert Command
// =============================================================================
//
// This file defines the 'convert' command, the main command of the tool.
//
// COMMAND USAGE:
//   dian2siigo convert <file> [flags]
//
// FLAGS:
//   --kind      : compras, ventas or auto (default auto)
//   --format    : xlsx or csv (default from config)
//   --output    : Export path (default {kind}_Siigo_{date} in output_dir)
//   --dry-run   : Generate and validate without writing a file
//   --preview   : Print the first N generated rows
//   --json      : Print the run summary as JSON
//
// =============================================================================

package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/dian-siigo-converter/internal/amount"
	"github.com/ginjaninja78/dian-siigo-converter/internal/converter"
	"github.com/ginjaninja78/dian-siigo-converter/internal/siigowriter"
	"github.com/ginjaninja78/dian-siigo-converter/internal/types"
)

// defaultDryRunPreview is how many rows a dry run prints when --preview is
// not given.
const defaultDryRunPreview = 100

// =============================================================================
// COMMAND FLAGS
// =============================================================================

var (
	kindFlag    string
	formatFlag  string
	outputPath  string
	dryRun      bool
	previewRows int
	jsonOutput  bool
)

// =============================================================================
// CONVERT COMMAND DEFINITION
// =============================================================================

var convertCmd = &cobra.Command{
	Use:   "convert <file>",
	Short: "Convert a DIAN export into a Siigo import file",
	Long: `The convert command loads a DIAN invoice export, books every invoice as
purchases or sales, validates the resulting rows and writes them as an Excel
or CSV file ready for the Siigo importer.

Credit notes and other non-invoice documents are skipped when the export has a
document type column. Cells that cannot be read are treated as 0 and reported
as warnings; a missing Total column stops the conversion.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runConvert(cmd.Context(), cmd.OutOrStdout(), args[0])
	},
}

func init() {
	rootCmd.AddCommand(convertCmd)

	convertCmd.Flags().StringVar(&kindFlag, "kind", "auto", "Ledger side: compras, ventas or auto")
	convertCmd.Flags().StringVar(&formatFlag, "format", "", "Export format: xlsx or csv (default from config)")
	convertCmd.Flags().StringVarP(&outputPath, "output", "o", "", "Export path (default {kind}_Siigo_{date} in output_dir)")
	convertCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Generate and validate without writing a file")
	convertCmd.Flags().IntVar(&previewRows, "preview", 0, "Print the first N generated rows")
	convertCmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the run summary as JSON")
}

// =============================================================================
// MAIN CONVERSION FUNCTION
// =============================================================================

// runSummary is what --json prints.
type runSummary struct {
	RunID      string          `json:"run_id"`
	Source     string          `json:"source"`
	Kind       types.Kind      `json:"kind"`
	KindReason string          `json:"kind_reason"`
	OutputFile string          `json:"output_file,omitempty"`
	WarningLog string          `json:"warning_log,omitempty"`
	DryRun     bool            `json:"dry_run"`
	Stats      converter.Stats `json:"stats"`
	Warnings   []types.Warning `json:"warnings,omitempty"`
}

func runConvert(ctx context.Context, out io.Writer, path string) error {
	if ctx == nil {
		ctx = context.Background()
	}

	kind, err := types.ParseKind(kindFlag)
	if err != nil {
		return err
	}

	conv, err := newConverter()
	if err != nil {
		return err
	}

	// =========================================================================
	// STEP 1: GENERATE AND VALIDATE
	// =========================================================================

	result, err := conv.Run(ctx, converter.Request{Path: path, Kind: kind})
	if err != nil {
		return err
	}

	// =========================================================================
	// STEP 2: EXPORT
	// =========================================================================

	if !dryRun {
		if _, err := conv.Export(result, formatFlag, outputPath); err != nil {
			return err
		}
	}

	// =========================================================================
	// STEP 3: REPORT
	// =========================================================================

	if jsonOutput {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(runSummary{
			RunID:      result.RunID,
			Source:     result.Source,
			Kind:       result.Kind,
			KindReason: result.KindReason,
			OutputFile: result.OutputFile,
			WarningLog: result.WarningLog,
			DryRun:     dryRun,
			Stats:      result.Stats,
			Warnings:   result.Warnings,
		})
	}

	preview := previewRows
	if dryRun && preview == 0 {
		preview = defaultDryRunPreview
	}
	if preview > 0 {
		if err := siigowriter.WritePreview(out, result.Entries, preview); err != nil {
			return err
		}
		fmt.Fprintln(out)
	}

	printSummary(out, result)
	return nil
}

func printSummary(out io.Writer, result *converter.Result) {
	s := result.Stats
	fmt.Fprintln(out, "=== DIAN to Siigo Converter ===")
	fmt.Fprintf(out, "Source:        %s\n", result.Source)
	fmt.Fprintf(out, "Kind:          %s (%s)\n", result.Kind.Label(), result.KindReason)
	fmt.Fprintf(out, "Invoices:      %d\n", s.InvoiceCount)
	if s.Dropped > 0 {
		fmt.Fprintf(out, "Skipped rows:  %d (not invoices)\n", s.Dropped)
	}
	fmt.Fprintf(out, "Ledger rows:   %d\n", s.EntryCount)
	fmt.Fprintf(out, "Total debit:   %s\n", amount.FormatPesos(s.TotalDebit))
	fmt.Fprintf(out, "Total credit:  %s\n", amount.FormatPesos(s.TotalCredit))
	if len(result.Warnings) > 0 {
		fmt.Fprintf(out, "Warnings:      %d\n", len(result.Warnings))
	}
	if result.OutputFile != "" {
		fmt.Fprintf(out, "Output:        %s\n", result.OutputFile)
	}
	if result.WarningLog != "" {
		fmt.Fprintf(out, "Warning log:   %s\n", result.WarningLog)
	}
	fmt.Fprintf(out, "Elapsed:       %s\n", s.Duration.Round(time.Millisecond))
}
