// Package amount parses and renders Colombian peso amounts.
//
// DIAN exports mix locale conventions: the same file may carry "1.234,56",
// "1,234.56" or plain "1234.56" depending on who produced it. Parse resolves
// the decimal separator by position, and Format/FormatPesos render amounts the
// way Siigo users read them ("200.000,00").
package amount

import (
	"strings"
	"unicode"

	"github.com/shopspring/decimal"

	"github.com/ginjaninja78/dian-siigo-converter/internal/types"
)

// blankValues are cell texts that mean "no amount" rather than a bad amount.
var blankValues = map[string]bool{
	"":     true,
	"-":    true,
	"nan":  true,
	"none": true,
	"null": true,
}

// Parse converts locale-formatted numeric text into an exact decimal.
//
// Blank cells yield zero without a warning. Text that cannot be read as a
// number yields zero and a warning; Parse never fails.
func Parse(text string) (decimal.Decimal, *types.Warning) {
	s := unwrapExcelText(strings.TrimSpace(text))
	if blankValues[strings.ToLower(s)] {
		return decimal.Zero, nil
	}

	s = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) || r == '$' {
			return -1
		}
		return r
	}, s)

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = s[1 : len(s)-1]
	}
	s = strings.TrimPrefix(s, "+")

	s = normalizeSeparators(s)

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, &types.Warning{
			Value:   text,
			Message: "unparseable amount, using 0",
		}
	}
	if negative {
		d = d.Neg()
	}
	return d, nil
}

// normalizeSeparators rewrites s so that "." is the only decimal separator
// and no thousands separators remain.
func normalizeSeparators(s string) string {
	lastDot := strings.LastIndex(s, ".")
	lastComma := strings.LastIndex(s, ",")

	switch {
	case lastDot >= 0 && lastComma >= 0:
		if lastComma > lastDot {
			// 1.234,56
			s = strings.ReplaceAll(s, ".", "")
			return strings.Replace(s, ",", ".", 1)
		}
		// 1,234.56
		return strings.ReplaceAll(s, ",", "")

	case lastComma >= 0:
		if strings.Count(s, ",") == 1 {
			return strings.Replace(s, ",", ".", 1)
		}
		return strings.ReplaceAll(s, ",", "")

	case strings.Count(s, ".") > 1:
		// 1.234.567 can only be thousands grouping.
		return strings.ReplaceAll(s, ".", "")
	}
	return s
}

// unwrapExcelText strips the ="..." wrapper spreadsheets use to force text.
func unwrapExcelText(s string) string {
	if strings.HasPrefix(s, `="`) && strings.HasSuffix(s, `"`) && len(s) >= 3 {
		return s[2 : len(s)-1]
	}
	return strings.Trim(s, `"`)
}

// LooksNumeric reports whether s is made of digits once separators, currency
// symbols, spaces and a leading sign are ignored.
func LooksNumeric(s string) bool {
	s = strings.TrimSpace(s)
	s = strings.TrimLeft(s, "+-")
	digits := 0
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			digits++
		case r == '.' || r == ',' || r == '$' || unicode.IsSpace(r):
		default:
			return false
		}
	}
	return digits > 0
}
