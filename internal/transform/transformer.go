// =============================================================================
// DIAN to Siigo Converter - Cell Transformations
// =============================================================================
//
// This module provides the text transformations applied to DIAN cells before
// they reach the ledger:
//   - Header folding (lower case, no accents) for role matching
//   - Tax id cleanup (NIT digits only)
//   - Memo truncation to the Siigo OBSERVACIONES limit
//   - Excel text-cell unwrapping
//
// Transformations are plain func(string) string values so they can be
// chained per column.
//
// =============================================================================

package transform

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// MaxMemoLength is the OBSERVACIONES column limit in Siigo, in characters.
const MaxMemoLength = 50

// Func is a single cell transformation.
type Func func(string) string

// Chain applies fns in order.
func Chain(fns ...Func) Func {
	return func(s string) string {
		for _, fn := range fns {
			s = fn(s)
		}
		return s
	}
}

// =============================================================================
// HEADER FOLDING
// =============================================================================

// Fold lower-cases s, strips accents and collapses inner whitespace, so
// "Razón  Social" and "razon social" compare equal.
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	return strings.Join(strings.Fields(strings.ToLower(folded)), " ")
}

// =============================================================================
// CELL CLEANUP
// =============================================================================

// CleanCell trims s and unwraps the ="..." form Excel uses to keep long
// numbers as text.
func CleanCell(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, `="`) && strings.HasSuffix(s, `"`) && len(s) >= 3 {
		s = s[2 : len(s)-1]
	}
	return strings.TrimSpace(s)
}

// CleanTaxID reduces a NIT cell to its digits.
//
// Spreadsheets that stored the NIT as a number hand it back as "900123456.0";
// that float suffix is dropped before the digits are kept, so it does not
// add a trailing zero.
func CleanTaxID(s string) string {
	s = CleanCell(s)
	for _, suffix := range []string{".00", ".0", ",00", ",0"} {
		if strings.HasSuffix(s, suffix) {
			s = strings.TrimSuffix(s, suffix)
			break
		}
	}
	if strings.EqualFold(s, "nan") {
		return ""
	}
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, s)
}

// CleanName trims a counterparty name and drops spreadsheet null markers.
func CleanName(s string) string {
	s = CleanCell(s)
	switch strings.ToLower(s) {
	case "nan", "none", "null":
		return ""
	}
	return strings.Join(strings.Fields(s), " ")
}

// Truncate cuts s to at most n characters (runes, not bytes).
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// Memo prepares a counterparty name for the OBSERVACIONES column.
var Memo = Chain(CleanName, func(s string) string { return Truncate(s, MaxMemoLength) })

// IsDigits reports whether s is non-empty and made only of ASCII digits.
func IsDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
