package ledger

import (
	"path/filepath"
	"strings"

	"github.com/ginjaninja78/dian-siigo-converter/internal/header"
	"github.com/ginjaninja78/dian-siigo-converter/internal/types"
)

// DetectKind decides whether a file holds purchases or sales.
//
// The DIAN portal names its downloads after the mailbox they come from
// ("recibidos" for purchases, "enviados" for sales), so the file name is
// checked first. Otherwise an issuer NIT column means purchases and a
// receiver NIT column alone means sales. The reason is returned for logs.
func DetectKind(fileName string, roles header.RoleMap) (types.Kind, string) {
	name := strings.ToLower(filepath.Base(fileName))
	switch {
	case strings.Contains(name, "recibido"):
		return types.KindPurchases, "file name mentions recibidos"
	case strings.Contains(name, "enviado"):
		return types.KindSales, "file name mentions enviados"
	}

	if col, ok := roles[header.NITEmisor]; ok && isNamedFor(col, "emisor") {
		return types.KindPurchases, "issuer NIT column present"
	}
	if col, ok := roles[header.NITReceptor]; ok && isNamedFor(col, "receptor") {
		return types.KindSales, "receiver NIT column present"
	}
	return types.KindPurchases, "no hint found, defaulting to purchases"
}

// isNamedFor ignores columns that only got the role through the generic
// NIT fallback.
func isNamedFor(col header.Column, keyword string) bool {
	return strings.Contains(strings.ToLower(col.Name), keyword)
}
