package amount

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// zeroPesos is what every formatter returns for missing input.
const zeroPesos = "0,00"

// FormatPesos renders a whole-peso amount as "200.000,00".
func FormatPesos(n int64) string {
	if n == 0 {
		return zeroPesos
	}
	sign := ""
	u := uint64(n)
	if n < 0 {
		sign = "-"
		u = uint64(-(n + 1)) + 1
	}
	return sign + groupThousands(strconv.FormatUint(u, 10)) + ",00"
}

// Format renders d rounded to centavos, e.g. 1234.5 -> "1.234,50".
func Format(d decimal.Decimal) string {
	fixed := d.Round(2).StringFixed(2)
	if fixed == "0.00" || fixed == "-0.00" {
		return zeroPesos
	}

	sign := ""
	if strings.HasPrefix(fixed, "-") {
		sign = "-"
		fixed = fixed[1:]
	}
	intPart, frac, _ := strings.Cut(fixed, ".")
	return sign + groupThousands(intPart) + "," + frac
}

// FormatOptional renders nil as "0,00".
func FormatOptional(n *int64) string {
	if n == nil {
		return zeroPesos
	}
	return FormatPesos(*n)
}

// FormatText parses s and renders it. Unparseable text renders as "0,00".
func FormatText(s string) string {
	d, _ := Parse(s)
	return Format(d)
}

// groupThousands inserts "." every three digits from the right.
func groupThousands(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	var b strings.Builder
	lead := len(digits) % 3
	if lead > 0 {
		b.WriteString(digits[:lead])
	}
	for i := lead; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte('.')
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}
