package xlsxparser

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/dian-siigo-converter/internal/types"
)

func buildWorkbook(t *testing.T, rows [][]interface{}) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatalf("cell name: %v", err)
		}
		r := row
		if err := f.SetSheetRow("Sheet1", cell, &r); err != nil {
			t.Fatalf("SetSheetRow: %v", err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("WriteToBuffer: %v", err)
	}
	return buf.Bytes()
}

func TestReadGridXLSX(t *testing.T) {
	data := buildWorkbook(t, [][]interface{}{
		{"Documentos recibidos"},
		{},
		{"NIT Emisor", "Nombre Emisor", "IVA", "Total"},
		{"900123456", "ACME S.A.S", 19000, 119000},
	})

	rows, err := ReadGrid(bytes.NewReader(data), "export.xlsx")
	if err != nil {
		t.Fatalf("ReadGrid() error = %v", err)
	}
	if len(rows) != 4 {
		t.Fatalf("got %d rows, want 4: %q", len(rows), rows)
	}
	if got := rows[2].Cell(0); got != "NIT Emisor" {
		t.Errorf("header cell = %q", got)
	}
	if !rows[1].IsEmpty() {
		t.Errorf("row 2 should be empty, got %q", rows[1])
	}
	if got := rows[3].Cell(3); got != "119000" {
		t.Errorf("total cell = %q, want 119000", got)
	}
}

func TestReadGridXLSXWithXLSExtension(t *testing.T) {
	data := buildWorkbook(t, [][]interface{}{{"Total"}, {5000}})

	rows, err := ReadGrid(bytes.NewReader(data), "mislabelled.xls")
	if err != nil {
		t.Fatalf("ReadGrid() error = %v", err)
	}
	if rows[1].Cell(0) != "5000" {
		t.Errorf("rows = %q", rows)
	}
}

func TestReadGridGarbage(t *testing.T) {
	_, err := ReadGrid(bytes.NewReader([]byte("not a workbook")), "x.xlsx")
	if err == nil {
		t.Fatal("expected error for garbage input")
	}
}

func TestParse(t *testing.T) {
	path := filepath.Join(t.TempDir(), "in.xlsx")
	if err := os.WriteFile(path, buildWorkbook(t, [][]interface{}{{"Total"}, {1}}), 0o644); err != nil {
		t.Fatal(err)
	}
	rows, err := Parse(path)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(rows) != 2 {
		t.Errorf("got %d rows", len(rows))
	}

	_, err = Parse(filepath.Join(t.TempDir(), "missing.xlsx"))
	if !errors.Is(err, types.ErrFileAccess) {
		t.Errorf("Parse(missing) error = %v, want ErrFileAccess", err)
	}
}

func TestReadGridXLSXNumberFormats(t *testing.T) {
	custom := `"$" #,##0`
	tests := []struct {
		name  string
		style *excelize.Style
		value interface{}
		want  string
	}{
		{name: "general", style: &excelize.Style{NumFmt: 0}, value: 119000, want: "119000"},
		{name: "thousands", style: &excelize.Style{NumFmt: 3}, value: 119000, want: "119000"},
		{name: "thousands with decimals", style: &excelize.Style{NumFmt: 4}, value: 119000.5, want: "119000.5"},
		{name: "date", style: &excelize.Style{NumFmt: 14}, value: 45292, want: "45292"},
		{name: "custom currency", style: &excelize.Style{CustomNumFmt: &custom}, value: 2500000, want: "2500000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := excelize.NewFile()
			defer f.Close()

			if err := f.SetCellValue("Sheet1", "A1", "Total"); err != nil {
				t.Fatal(err)
			}
			if err := f.SetCellValue("Sheet1", "A2", tt.value); err != nil {
				t.Fatal(err)
			}
			style, err := f.NewStyle(tt.style)
			if err != nil {
				t.Fatalf("NewStyle: %v", err)
			}
			if err := f.SetCellStyle("Sheet1", "A2", "A2", style); err != nil {
				t.Fatal(err)
			}
			buf, err := f.WriteToBuffer()
			if err != nil {
				t.Fatal(err)
			}

			rows, err := ReadGrid(bytes.NewReader(buf.Bytes()), "formatted.xlsx")
			if err != nil {
				t.Fatalf("ReadGrid() error = %v", err)
			}
			if got := rows[1].Cell(0); got != tt.want {
				t.Errorf("cell = %q, want %q", got, tt.want)
			}
		})
	}
}
