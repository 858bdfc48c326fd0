// Package header finds the header row of a DIAN export and works out which
// column plays which role (total, VAT, issuer NIT, ...).
//
// DIAN exports are not clean tables: portal downloads and hand-edited sheets
// often carry title rows, report dates or blank lines above the real header,
// and column names vary between portal versions. Locate scans the first rows
// for header keywords; InferRoles maps column names to roles with an ordered
// list of matchers.
package header

import (
	"strings"

	"github.com/ginjaninja78/dian-siigo-converter/internal/transform"
	"github.com/ginjaninja78/dian-siigo-converter/internal/types"
)

// DefaultProbeRows is how many leading rows are searched for the header.
const DefaultProbeRows = 10

// keywords mark a row as the header when any of them appears in it.
var keywords = []string{"total", "iva", "nit", "emisor", "receptor"}

// Locate returns the index of the header row within rows.
//
// The first row whose text contains a header keyword wins. Without one, the
// first non-empty row is used. ErrNoHeader is returned only when every row
// is empty.
func Locate(rows []types.RawRow) (int, error) {
	firstNonEmpty := -1
	for i, row := range rows {
		if row.IsEmpty() {
			continue
		}
		if firstNonEmpty < 0 {
			firstNonEmpty = i
		}
		text := rowText(row)
		for _, kw := range keywords {
			if strings.Contains(text, kw) {
				return i, nil
			}
		}
	}
	if firstNonEmpty >= 0 {
		return firstNonEmpty, nil
	}
	return -1, types.ErrNoHeader
}

// rowText joins the non-empty cells of row, folded for matching.
func rowText(row types.RawRow) string {
	parts := make([]string, 0, len(row))
	for _, cell := range row {
		if c := strings.TrimSpace(cell); c != "" {
			parts = append(parts, c)
		}
	}
	return transform.Fold(strings.Join(parts, " "))
}
