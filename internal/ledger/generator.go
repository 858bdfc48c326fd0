package ledger

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/ginjaninja78/dian-siigo-converter/internal/transform"
	"github.com/ginjaninja78/dian-siigo-converter/internal/types"
)

// vatFlag marks rows that carry VAT in the H column.
const vatFlag = 1

// Generator books invoice records against a Chart.
type Generator struct {
	chart Chart
}

// NewGenerator returns a Generator for chart.
func NewGenerator(chart Chart) *Generator {
	return &Generator{chart: chart}
}

// Chart returns the chart the generator books with.
func (g *Generator) Chart() Chart {
	return g.chart
}

// split holds the rounded amounts derived from one record.
type split struct {
	total int64
	vat   int64
	net   int64
	base  int64
}

// derive computes net-of-VAT and VAT base for rec. All three amounts are
// rounded half away from zero to whole pesos.
func (g *Generator) derive(rec types.InvoiceRecord) split {
	total := rec.Total.Decimal
	vat := rec.VAT.Decimal

	base := decimal.Zero
	if vat.IsPositive() {
		base = vat.Div(g.chart.VATRate)
	}

	return split{
		total: toPesos(total),
		vat:   toPesos(vat),
		net:   toPesos(total.Sub(vat)),
		base:  toPesos(base),
	}
}

func toPesos(d decimal.Decimal) int64 {
	return d.Round(0).IntPart()
}

// Generate dispatches to Purchases or Sales.
func (g *Generator) Generate(kind types.Kind, records []types.InvoiceRecord) ([]types.LedgerEntry, error) {
	switch kind {
	case types.KindPurchases:
		return g.Purchases(records)
	case types.KindSales:
		return g.Sales(records)
	}
	return nil, fmt.Errorf("ledger: cannot generate entries for kind %q", kind)
}

// Purchases books received invoices: the net amount is debited to the
// expense account and, when there is VAT, the VAT is debited to the
// deductible VAT account with its base.
func (g *Generator) Purchases(records []types.InvoiceRecord) ([]types.LedgerEntry, error) {
	if err := requireAmounts(records); err != nil {
		return nil, err
	}

	entries := make([]types.LedgerEntry, 0, len(records)*2)
	for _, rec := range records {
		if rec.IsZero() {
			continue
		}
		s := g.derive(rec)
		memo := memoFor(rec.IssuerName, "Compra", rec.Row)

		entries = append(entries, types.LedgerEntry{
			Account:    g.chart.PurchaseExpense,
			Memo:       memo,
			Debit:      types.Int64(s.net),
			ThirdParty: rec.IssuerTaxID,
			SourceRow:  rec.Row,
		})

		if rec.VAT.Decimal.IsPositive() {
			entries = append(entries, types.LedgerEntry{
				Account:    g.chart.PurchaseVAT,
				Memo:       memo,
				Debit:      types.Int64(s.vat),
				VATBase:    types.Int64(s.base),
				ThirdParty: rec.IssuerTaxID,
				Flag:       types.Int(vatFlag),
				SourceRow:  rec.Row,
			})
		}
	}

	if len(entries) == 0 {
		return nil, &types.EmptyResultError{Stage: "generate"}
	}
	return entries, nil
}

// Sales books issued invoices: the net amount is credited to income and,
// when there is VAT, the VAT is credited to generated VAT and the full
// invoice total is debited to the VAT credit account.
func (g *Generator) Sales(records []types.InvoiceRecord) ([]types.LedgerEntry, error) {
	if err := requireAmounts(records); err != nil {
		return nil, err
	}

	entries := make([]types.LedgerEntry, 0, len(records)*3)
	for _, rec := range records {
		if rec.IsZero() {
			continue
		}
		s := g.derive(rec)
		memo := memoFor(rec.ReceiverName, "Venta", rec.Row)

		entries = append(entries, types.LedgerEntry{
			Account:    g.chart.SalesIncome,
			Memo:       memo,
			Credit:     types.Int64(s.net),
			ThirdParty: rec.ReceiverTaxID,
			SourceRow:  rec.Row,
		})

		if rec.VAT.Decimal.IsPositive() {
			entries = append(entries,
				types.LedgerEntry{
					Account:    g.chart.SalesVAT,
					Memo:       memo,
					Credit:     types.Int64(s.vat),
					VATBase:    types.Int64(s.base),
					ThirdParty: rec.ReceiverTaxID,
					Flag:       types.Int(vatFlag),
					SourceRow:  rec.Row,
				},
				types.LedgerEntry{
					Account:    g.chart.SalesVATCredit,
					Memo:       memo,
					Debit:      types.Int64(s.total),
					ThirdParty: rec.ReceiverTaxID,
					SourceRow:  rec.Row,
				},
			)
		}
	}

	if len(entries) == 0 {
		return nil, &types.EmptyResultError{Stage: "generate"}
	}
	return entries, nil
}

// memoFor returns the truncated counterparty name, or "<prefix> <row>".
func memoFor(name, prefix string, row int) string {
	if memo := transform.Memo(name); memo != "" {
		return memo
	}
	return fmt.Sprintf("%s %d", prefix, row)
}

// requireAmounts rejects records that were not produced by the loader.
func requireAmounts(records []types.InvoiceRecord) error {
	var missingTotal, missingVAT bool
	for _, rec := range records {
		missingTotal = missingTotal || !rec.Total.Valid
		missingVAT = missingVAT || !rec.VAT.Valid
	}

	var roles []string
	if missingTotal {
		roles = append(roles, "Total")
	}
	if missingVAT {
		roles = append(roles, "IVA")
	}
	if len(roles) > 0 {
		return &types.MissingColumnError{Roles: roles}
	}
	return nil
}
