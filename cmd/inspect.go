package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/dian-siigo-converter/internal/converter"
)

var inspectJSON bool

// inspectCmd shows how a file would be read, without converting it.
var inspectCmd = &cobra.Command{
	Use:   "inspect <file>",
	Short: "Show the header row, column roles and warnings of an export",
	Long: `The inspect command loads an export and prints where its header row was
found, which column was assigned each role (Total, IVA, NIT Emisor, ...), the
kind auto-detection would choose, and any warnings. Use it when a conversion
reports a missing column.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		conv, err := newConverter()
		if err != nil {
			return err
		}
		in, err := conv.Inspect(ctx, converter.Request{Path: args[0]})
		if err != nil {
			return err
		}

		if inspectJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(in)
		}
		return printInspection(cmd.OutOrStdout(), in)
	},
}

func init() {
	rootCmd.AddCommand(inspectCmd)
	inspectCmd.Flags().BoolVar(&inspectJSON, "json", false, "Print the inspection as JSON")
}

func printInspection(out io.Writer, in *converter.Inspection) error {
	fmt.Fprintf(out, "Source:      %s\n", in.Source)
	fmt.Fprintf(out, "Header row:  %d\n", in.HeaderRow)
	fmt.Fprintf(out, "Data rows:   %d (%d invoices, %d skipped)\n", in.DataRows, in.Invoices, in.Dropped)
	fmt.Fprintf(out, "Kind:        %s (%s)\n\n", in.Kind.Label(), in.KindReason)

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ROLE\tCOLUMN\tINDEX")
	for _, rc := range in.Roles {
		fmt.Fprintf(tw, "%s\t%s\t%d\n", rc.Role, rc.Column, rc.Index+1)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if len(in.Warnings) > 0 {
		fmt.Fprintf(out, "\nWarnings (%d):\n", len(in.Warnings))
		for _, w := range in.Warnings {
			fmt.Fprintf(out, "  - %s\n", w)
		}
	}
	if in.Problem != "" {
		fmt.Fprintf(out, "\nProblem: %s\n", in.Problem)
	}
	return nil
}
