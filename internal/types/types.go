// =============================================================================
// DIAN to Siigo Converter - Shared Types
// =============================================================================
//
// This package contains shared types used across multiple modules to avoid
// import cycles. Types defined here are used by:
//   - loader
//   - ledger
//   - validation
//   - siigowriter
//   - converter
//
// =============================================================================

package types

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// =============================================================================
// RAW INPUT
// =============================================================================

// RawRow is one untyped row of a source file. Blank cells are "".
type RawRow []string

// IsEmpty reports whether every cell of the row is blank.
func (r RawRow) IsEmpty() bool {
	for _, cell := range r {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// Cell returns the trimmed value at index i, or "" when the row is short.
func (r RawRow) Cell(i int) string {
	if i < 0 || i >= len(r) {
		return ""
	}
	return strings.TrimSpace(r[i])
}

// =============================================================================
// CONVERSION KIND
// =============================================================================

// Kind selects which side of the ledger an export is booked on.
type Kind string

const (
	// KindPurchases books received invoices (DIAN "recibidos").
	KindPurchases Kind = "compras"

	// KindSales books issued invoices (DIAN "enviados").
	KindSales Kind = "ventas"

	// KindAuto lets the converter decide from the file name and columns.
	KindAuto Kind = "auto"
)

// ParseKind accepts the Spanish and English spellings of a kind.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return KindAuto, nil
	case "compras", "compra", "purchases", "purchase":
		return KindPurchases, nil
	case "ventas", "venta", "sales", "sale":
		return KindSales, nil
	}
	return "", fmt.Errorf("unknown kind %q (expected compras, ventas or auto)", s)
}

// Label is the capitalized Spanish name used in file names and summaries.
func (k Kind) Label() string {
	switch k {
	case KindPurchases:
		return "Compras"
	case KindSales:
		return "Ventas"
	}
	return "Auto"
}

// =============================================================================
// INVOICE RECORD
// =============================================================================

// InvoiceRecord is one normalized row of a DIAN export.
type InvoiceRecord struct {
	// Row is the 1-based position of the record among the file's data rows,
	// counted before document-type filtering.
	Row int

	// Total and VAT are always Valid once the loader has produced the record.
	Total decimal.NullDecimal
	VAT   decimal.NullDecimal

	IssuerTaxID   string
	IssuerName    string
	ReceiverTaxID string
	ReceiverName  string

	// DocumentType is the raw "Tipo de documento" value, if the column exists.
	DocumentType string

	// Withholdings holds ICA and retention columns present in the file,
	// keyed by role name.
	Withholdings map[string]decimal.Decimal
}

// IsZero reports whether both the total and the VAT amount are zero.
func (r InvoiceRecord) IsZero() bool {
	return r.Total.Decimal.IsZero() && r.VAT.Decimal.IsZero()
}

// =============================================================================
// LEDGER ENTRY
// =============================================================================

// LedgerColumns is the Siigo import column order.
var LedgerColumns = []string{"CUENTA", "CC", "OBSERVACIONES", "DEBITO", "CREDITO", "VALOR_BASE", "TERCERO", "H"}

// LedgerEntry is one row of the Siigo accounting table.
type LedgerEntry struct {
	Account    string `json:"cuenta"`
	CostCenter string `json:"cc"`
	Memo       string `json:"observaciones"`
	Debit      *int64 `json:"debito"`
	Credit     *int64 `json:"credito"`
	VATBase    *int64 `json:"valor_base"`
	ThirdParty string `json:"tercero"`
	Flag       *int   `json:"h"`

	// SourceRow links the entry back to the invoice that produced it.
	SourceRow int `json:"-"`
}

// Int64 returns a pointer to v, for populating optional amounts.
func Int64(v int64) *int64 {
	return &v
}

// Int returns a pointer to v.
func Int(v int) *int {
	return &v
}
