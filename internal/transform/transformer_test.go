package transform

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestFold(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Razón Social", "razon social"},
		{"  NIT   Emisor ", "nit emisor"},
		{"Número de Factura", "numero de factura"},
		{"IVA", "iva"},
	}
	for _, tt := range tests {
		if got := Fold(tt.input); got != tt.want {
			t.Errorf("Fold(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestCleanTaxID(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain", "900123456", "900123456"},
		{"float artifact", "900123456.0", "900123456"},
		{"dotted with check digit", "900.123.456-7", "9001234567"},
		{"inner zero kept", "800.012.345", "800012345"},
		{"excel text", `="0012345"`, "0012345"},
		{"nan", "nan", ""},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CleanTaxID(tt.input); got != tt.want {
				t.Errorf("CleanTaxID(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestMemo(t *testing.T) {
	long := strings.Repeat("Ñandú ", 20)
	got := Memo(long)
	if n := utf8.RuneCountInString(got); n != MaxMemoLength {
		t.Errorf("Memo length = %d runes, want %d", n, MaxMemoLength)
	}
	if !utf8.ValidString(got) {
		t.Error("Memo cut a multi-byte character")
	}

	if got := Memo("  ACME   S.A.S  "); got != "ACME S.A.S" {
		t.Errorf("Memo = %q, want %q", got, "ACME S.A.S")
	}
	if got := Memo("nan"); got != "" {
		t.Errorf("Memo(nan) = %q, want empty", got)
	}
}

func TestIsDigits(t *testing.T) {
	if !IsDigits("900123456") {
		t.Error("expected digits")
	}
	if IsDigits("") || IsDigits("90a") {
		t.Error("expected non-digits")
	}
}
