// Package ledger turns invoice records into Siigo accounting rows.
package ledger

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/ginjaninja78/dian-siigo-converter/internal/config"
	"github.com/ginjaninja78/dian-siigo-converter/internal/types"
)

// Chart is the chart of accounts and VAT rate entries are booked with.
// It is a value: generators never modify it.
type Chart struct {
	VATRate decimal.Decimal

	// Purchases.
	PurchaseExpense string
	PurchaseVAT     string

	// Sales.
	SalesIncome    string
	SalesVAT       string
	SalesVATCredit string
}

// DefaultChart returns the standard Siigo accounts at the 19% VAT rate.
func DefaultChart() Chart {
	return Chart{
		VATRate:         decimal.RequireFromString("0.19"),
		PurchaseExpense: "14, 51, 61",
		PurchaseVAT:     "24080103",
		SalesIncome:     "41",
		SalesVAT:        "24080101",
		SalesVATCredit:  "13050501",
	}
}

// ChartFromConfig builds a Chart from the accounts section of the config.
func ChartFromConfig(a config.AccountsConfig) Chart {
	return Chart{
		VATRate:         decimal.NewFromFloat(a.VATRate),
		PurchaseExpense: a.PurchaseExpense,
		PurchaseVAT:     a.PurchaseVAT,
		SalesIncome:     a.SalesIncome,
		SalesVAT:        a.SalesVAT,
		SalesVATCredit:  a.SalesVATCredit,
	}
}

// Validate checks that the rate is usable and every account is set.
func (c Chart) Validate() error {
	const op = "ledger.Chart.Validate"

	if !c.VATRate.IsPositive() || c.VATRate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return fmt.Errorf("%s: %w: VAT rate %s out of range", op, types.ErrInvalidConfig, c.VATRate)
	}
	for name, code := range map[string]string{
		"purchase expense": c.PurchaseExpense,
		"purchase VAT":     c.PurchaseVAT,
		"sales income":     c.SalesIncome,
		"sales VAT":        c.SalesVAT,
		"sales VAT credit": c.SalesVATCredit,
	} {
		if strings.TrimSpace(code) == "" {
			return fmt.Errorf("%s: %w: %s account is empty", op, types.ErrInvalidConfig, name)
		}
	}
	return nil
}

// Codes returns the accounts used for kind.
func (c Chart) Codes(kind types.Kind) []string {
	switch kind {
	case types.KindPurchases:
		return []string{c.PurchaseExpense, c.PurchaseVAT}
	case types.KindSales:
		return []string{c.SalesIncome, c.SalesVAT, c.SalesVATCredit}
	}
	return []string{c.PurchaseExpense, c.PurchaseVAT, c.SalesIncome, c.SalesVAT, c.SalesVATCredit}
}
