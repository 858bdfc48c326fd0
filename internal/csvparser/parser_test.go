package csvparser

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"golang.org/x/text/encoding/charmap"

	"github.com/ginjaninja78/dian-siigo-converter/internal/config"
	"github.com/ginjaninja78/dian-siigo-converter/internal/types"
)

const semicolonExport = "Reporte DIAN\n" +
	"Tipo de documento;NIT Emisor;Nombre Emisor;IVA;Total\n" +
	"Factura electrónica;900123456;Compañía Ñandú;19.000,00;119.000,00\n" +
	"Nota crédito;900123456;Compañía Ñandú;1.900,00;11.900,00\n"

func TestSniffDelimiter(t *testing.T) {
	tests := []struct {
		name string
		text string
		want rune
	}{
		{"comma", "a,b,c\n1,2,3\n", ','},
		{"semicolon with decimal commas", semicolonExport, ';'},
		{"tab", "a\tb\n1\t2\n", '\t'},
		{"pipe", "a|b|c\n1|2|3\n", '|'},
		{"quoted commas ignored", "a;b\n\"1,5\";\"2,5\"\n\"3,5\";\"4,5\"\n", ';'},
		{"single column defaults to comma", "total\n100\n", ','},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SniffDelimiter(tt.text); got != tt.want {
				t.Errorf("SniffDelimiter() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestReadGridUTF8WithBOM(t *testing.T) {
	input := "\xEF\xBB\xBFNIT Emisor,Total\n900123456,119000\n"
	rows, err := ReadGrid(strings.NewReader(input), config.CSVSettings{})
	if err != nil {
		t.Fatalf("ReadGrid() error = %v", err)
	}
	want := []types.RawRow{{"NIT Emisor", "Total"}, {"900123456", "119000"}}
	if !reflect.DeepEqual(rows, want) {
		t.Errorf("ReadGrid() = %q, want %q", rows, want)
	}
}

func TestReadGridWindows1252MatchesUTF8(t *testing.T) {
	encoded, err := charmap.Windows1252.NewEncoder().String(semicolonExport)
	if err != nil {
		t.Fatalf("encode fixture: %v", err)
	}

	fromUTF8, err := ReadGrid(strings.NewReader(semicolonExport), config.CSVSettings{Encoding: "auto"})
	if err != nil {
		t.Fatalf("ReadGrid(utf8) error = %v", err)
	}
	fromCP1252, err := ReadGrid(strings.NewReader(encoded), config.CSVSettings{Encoding: "auto"})
	if err != nil {
		t.Fatalf("ReadGrid(cp1252) error = %v", err)
	}

	if !reflect.DeepEqual(fromUTF8, fromCP1252) {
		t.Errorf("decoded grids differ:\n%q\n%q", fromUTF8, fromCP1252)
	}
	if got := fromCP1252[2][2]; got != "Compañía Ñandú" {
		t.Errorf("name cell = %q", got)
	}
	if len(fromUTF8[0]) != 1 || len(fromUTF8[1]) != 5 {
		t.Errorf("expected ragged title row, got widths %d and %d", len(fromUTF8[0]), len(fromUTF8[1]))
	}
}

func TestReadGridExplicitSettings(t *testing.T) {
	encoded, _ := charmap.ISO8859_1.NewEncoder().String("Razón Social|Total\nÑu|5\n")
	rows, err := ReadGrid(strings.NewReader(encoded), config.CSVSettings{Delimiter: "pipe", Encoding: "ISO-8859-1"})
	if err != nil {
		t.Fatalf("ReadGrid() error = %v", err)
	}
	if rows[0][0] != "Razón Social" || rows[1][0] != "Ñu" {
		t.Errorf("ReadGrid() = %q", rows)
	}
}

func TestReadGridUnsupportedEncoding(t *testing.T) {
	if _, err := ReadGrid(strings.NewReader("a"), config.CSVSettings{Encoding: "EBCDIC"}); err == nil {
		t.Error("expected error for unsupported encoding")
	}
}

func TestParseMissingFile(t *testing.T) {
	_, err := Parse(filepath.Join(t.TempDir(), "nope.csv"), config.CSVSettings{})
	if !errors.Is(err, types.ErrFileAccess) {
		t.Fatalf("Parse() error = %v, want ErrFileAccess", err)
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Parse() error should wrap os.ErrNotExist, got %v", err)
	}
}
