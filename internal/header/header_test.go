package header

import (
	"errors"
	"testing"

	"github.com/ginjaninja78/dian-siigo-converter/internal/types"
)

func TestLocate(t *testing.T) {
	tests := []struct {
		name    string
		rows    []types.RawRow
		want    int
		wantErr error
	}{
		{
			name: "header after title and blank rows",
			rows: []types.RawRow{
				{"Reporte de documentos", ""},
				{"Periodo: 2024-01", ""},
				{"", ""},
				{"CUFE", "NIT Emisor", "Nombre Emisor", "Total"},
				{"abc", "900123456", "ACME", "119000"},
			},
			want: 3,
		},
		{
			name: "first row is header",
			rows: []types.RawRow{
				{"Folio", "IVA", "Total"},
				{"1", "19000", "119000"},
			},
			want: 0,
		},
		{
			name: "keyword match is case and accent insensitive",
			rows: []types.RawRow{
				{"Listado"},
				{"Documento", "RECEPTOR", "Valor"},
			},
			want: 1,
		},
		{
			name: "no keyword falls back to first non-empty row",
			rows: []types.RawRow{
				{"", " "},
				{"Folio", "Fecha", "Valor"},
				{"1", "2024-01-01", "5000"},
			},
			want: 1,
		},
		{
			name:    "all empty",
			rows:    []types.RawRow{{""}, {" ", ""}, {}},
			want:    -1,
			wantErr: types.ErrNoHeader,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Locate(tt.rows)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Locate() error = %v, want %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("Locate() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestInferRolesDIANHeaders(t *testing.T) {
	headers := []string{
		"Tipo de documento", "CUFE/CUDE", "Folio", "Prefijo", "Fecha Emisión",
		"NIT Emisor", "Nombre Emisor", "NIT Receptor", "Nombre Receptor",
		"IVA", "ICA", "IC", "INC", "Timbre", "Rete IVA", "Rete Renta", "Rete ICA",
		"Total", "Estado", "Grupo",
	}

	roles, warnings := InferRoles(headers, nil)
	if len(warnings) != 0 {
		t.Errorf("unexpected warnings: %v", warnings)
	}

	want := map[Role]int{
		TipoDocumento:  0,
		NITEmisor:      5,
		NombreEmisor:   6,
		NITReceptor:    7,
		NombreReceptor: 8,
		IVA:            9,
		ICA:            10,
		ReteIVA:        14,
		ReteRenta:      15,
		ReteICA:        16,
		Total:          17,
	}
	for role, idx := range want {
		col, ok := roles[role]
		if !ok {
			t.Errorf("role %s not mapped", role)
			continue
		}
		if col.Index != idx {
			t.Errorf("role %s mapped to column %d (%q), want %d", role, col.Index, col.Name, idx)
		}
	}
}

func TestInferRolesAlternateNames(t *testing.T) {
	tests := []struct {
		name    string
		headers []string
		role    Role
		want    int
	}{
		{"valor total", []string{"Valor Total", "Base"}, Total, 0},
		{"total base excluded", []string{"Total Base", "Valor Monetario"}, Total, 1},
		{"last match wins", []string{"Total", "Subtotal"}, Total, 1},
		{"impuesto valor", []string{"Valor Impuesto"}, IVA, 0},
		{"rete iva is not iva", []string{"IVA", "Rete IVA"}, IVA, 0},
		{"total iva is not iva", []string{"Total IVA", "IVA"}, IVA, 1},
		{"razon social", []string{"Razón Social"}, NombreEmisor, 0},
		{"documento emisor", []string{"Documento Emisor"}, NITEmisor, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			roles, _ := InferRoles(tt.headers, nil)
			col, ok := roles[tt.role]
			if !ok {
				t.Fatalf("role %s not mapped", tt.role)
			}
			if col.Index != tt.want {
				t.Errorf("role %s = column %d, want %d", tt.role, col.Index, tt.want)
			}
		})
	}
}

func TestInferRolesNumericFallback(t *testing.T) {
	headers := []string{"Folio", "Cliente", "Valor", "Observación"}
	data := []types.RawRow{
		{"1", "ACME", "119.000,00", "pagada"},
		{"2", "Beta", "50.000", ""},
		{"3", "Gamma", "n/a", "pendiente"},
		{"4", "Delta", "1.000", ""},
	}

	roles, warnings := InferRoles(headers, data)
	col, ok := roles[Total]
	if !ok {
		t.Fatal("expected numeric fallback to map Total")
	}
	if col.Index != 2 || col.Name != "Valor" {
		t.Errorf("Total = %+v, want column 2 (Valor)", col)
	}
	if len(warnings) != 1 {
		t.Errorf("expected one fallback warning, got %v", warnings)
	}
}

func TestInferRolesNoNumericColumn(t *testing.T) {
	headers := []string{"Folio", "Cliente"}
	data := []types.RawRow{{"FE-1", "ACME"}, {"FE-2", "Beta"}}

	roles, _ := InferRoles(headers, data)
	if roles.Has(Total) {
		t.Errorf("expected no Total, got %+v", roles[Total])
	}
}

func TestInferRolesNITFallback(t *testing.T) {
	roles, warnings := InferRoles([]string{"NIT", "Nombre", "Total"}, nil)
	if roles[NITEmisor].Index != 0 || roles[NITReceptor].Index != 0 {
		t.Errorf("expected both NIT roles on column 0, got %+v", roles)
	}
	if len(warnings) != 2 {
		t.Errorf("expected two fallback warnings, got %v", warnings)
	}
}

func TestInferRolesNITFallbackWholeWord(t *testing.T) {
	tests := []struct {
		name    string
		headers []string
		want    int
	}{
		{name: "unit value is not a NIT", headers: []string{"Valor Unitario", "Total"}, want: -1},
		{name: "dotted", headers: []string{"Valor Unitario", "Nit.", "Total"}, want: 1},
		{name: "combined", headers: []string{"Nit/CC", "Total"}, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			roles, _ := InferRoles(tt.headers, nil)
			col, ok := roles[NITEmisor]
			switch {
			case tt.want < 0 && ok:
				t.Errorf("NITEmisor = %+v, want none", col)
			case tt.want >= 0 && (!ok || col.Index != tt.want):
				t.Errorf("NITEmisor = %+v, want index %d", col, tt.want)
			}
		})
	}
}

func TestSuggestColumn(t *testing.T) {
	if got := SuggestColumn(nil, Total); got != "" {
		t.Errorf("SuggestColumn(nil) = %q, want empty", got)
	}
	got := SuggestColumn([]string{"Folio", "Tot", "Cliente"}, Total)
	if got != "Tot" {
		t.Errorf("SuggestColumn = %q, want %q", got, "Tot")
	}
}
