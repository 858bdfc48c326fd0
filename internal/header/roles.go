package header

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/schollz/closestmatch"

	"github.com/ginjaninja78/dian-siigo-converter/internal/amount"
	"github.com/ginjaninja78/dian-siigo-converter/internal/transform"
	"github.com/ginjaninja78/dian-siigo-converter/internal/types"
)

// Role is the meaning a column has for the conversion.
type Role string

const (
	Total          Role = "Total"
	IVA            Role = "IVA"
	NITEmisor      Role = "NITEmisor"
	NombreEmisor   Role = "NombreEmisor"
	NITReceptor    Role = "NITReceptor"
	NombreReceptor Role = "NombreReceptor"
	TipoDocumento  Role = "TipoDocumento"
	ICA            Role = "ICA"
	ReteIVA        Role = "ReteIVA"
	ReteRenta      Role = "ReteRenta"
	ReteICA        Role = "ReteICA"
)

// WithholdingRoles are the tax columns normalized alongside Total and IVA.
var WithholdingRoles = []Role{ICA, ReteIVA, ReteRenta, ReteICA}

// Column identifies a source column.
type Column struct {
	Index int    `json:"index"`
	Name  string `json:"name"`
}

// RoleMap maps each resolved role to its source column.
type RoleMap map[Role]Column

// Has reports whether role was resolved.
func (m RoleMap) Has(role Role) bool {
	_, ok := m[role]
	return ok
}

// numericSampleSize is how many non-empty values are inspected when
// guessing the total column from its contents.
const numericSampleSize = 10

// predicate tests a folded column name.
type predicate func(name string) bool

type matcher struct {
	role  Role
	match predicate
}

func has(name string, parts ...string) bool {
	for _, p := range parts {
		if !strings.Contains(name, p) {
			return false
		}
	}
	return true
}

// hasWord reports whether word appears in name as a whole token, so "nit"
// matches "NIT." and "Nit/CC" but not "Valor Unitario".
func hasWord(name, word string) bool {
	tokens := strings.FieldsFunc(name, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, tok := range tokens {
		if tok == word {
			return true
		}
	}
	return false
}

func equals(want string) predicate {
	return func(name string) bool { return name == want }
}

// matchers run in this order; within a matcher every column is tried and
// the last matching column wins.
var matchers = []matcher{
	{Total, func(n string) bool {
		return (has(n, "total") && !has(n, "base")) || has(n, "valor", "total") || has(n, "monetario")
	}},
	{IVA, func(n string) bool {
		return (has(n, "iva") && !has(n, "rete") && !has(n, "total")) || has(n, "impuesto", "valor")
	}},
	{NITEmisor, func(n string) bool { return has(n, "nit", "emisor") || has(n, "documento", "emisor") }},
	{NITReceptor, func(n string) bool { return has(n, "nit", "receptor") || has(n, "documento", "receptor") }},
	{NombreEmisor, func(n string) bool { return has(n, "nombre", "emisor") || has(n, "razon", "social") }},
	{NombreReceptor, func(n string) bool { return has(n, "nombre", "receptor") }},
	{TipoDocumento, func(n string) bool { return has(n, "tipo", "documento") }},
	{ICA, equals("ica")},
	{ReteIVA, equals("rete iva")},
	{ReteRenta, equals("rete renta")},
	{ReteICA, equals("rete ica")},
}

// InferRoles maps headers to roles. data is used only for the numeric
// fallback on the total column and may be nil.
func InferRoles(headers []string, data []types.RawRow) (RoleMap, []types.Warning) {
	roles := make(RoleMap)
	var warnings []types.Warning

	folded := make([]string, len(headers))
	for i, h := range headers {
		folded[i] = transform.Fold(h)
	}

	for _, m := range matchers {
		for i, name := range folded {
			if name != "" && m.match(name) {
				roles[m.role] = Column{Index: i, Name: strings.TrimSpace(headers[i])}
			}
		}
	}

	for _, role := range []Role{NITEmisor, NITReceptor} {
		if roles.Has(role) {
			continue
		}
		for i, name := range folded {
			if hasWord(name, "nit") {
				roles[role] = Column{Index: i, Name: strings.TrimSpace(headers[i])}
				warnings = append(warnings, types.Warning{
					Column:  headers[i],
					Message: fmt.Sprintf("no %s column, using first NIT column", role),
				})
				break
			}
		}
	}

	if !roles.Has(Total) {
		if col, ok := numericFallback(headers, data, roles); ok {
			roles[Total] = col
			warnings = append(warnings, types.Warning{
				Column:  col.Name,
				Message: "no total column by name, using last numeric column",
			})
		}
	}

	return roles, warnings
}

// numericFallback picks the last column whose sampled values are mostly
// numeric. Columns already holding another role are skipped.
func numericFallback(headers []string, data []types.RawRow, roles RoleMap) (Column, bool) {
	taken := make(map[int]bool, len(roles))
	for _, col := range roles {
		taken[col.Index] = true
	}

	width := len(headers)
	for _, row := range data {
		if len(row) > width {
			width = len(row)
		}
	}

	for i := width - 1; i >= 0; i-- {
		if taken[i] {
			continue
		}
		sampled, numeric := 0, 0
		for _, row := range data {
			v := row.Cell(i)
			if v == "" {
				continue
			}
			sampled++
			if amount.LooksNumeric(v) {
				numeric++
			}
			if sampled == numericSampleSize {
				break
			}
		}
		if sampled > 0 && numeric*2 > sampled {
			name := fmt.Sprintf("Column_%d", i+1)
			if i < len(headers) && strings.TrimSpace(headers[i]) != "" {
				name = strings.TrimSpace(headers[i])
			}
			return Column{Index: i, Name: name}, true
		}
	}
	return Column{}, false
}

// SuggestColumn returns the header that most resembles role, or "" when
// there are no headers to choose from.
func SuggestColumn(headers []string, role Role) string {
	byFolded := make(map[string]string, len(headers))
	keys := make([]string, 0, len(headers))
	for _, h := range headers {
		f := transform.Fold(h)
		if f == "" {
			continue
		}
		if _, dup := byFolded[f]; !dup {
			keys = append(keys, f)
		}
		byFolded[f] = strings.TrimSpace(h)
	}
	if len(keys) == 0 {
		return ""
	}
	cm := closestmatch.New(keys, []int{2, 3})
	return byFolded[cm.Closest(strings.ToLower(string(role)))]
}
