// =============================================================================
// DIAN to Siigo Converter - Workbook Parser Module
// =============================================================================
//
// This module reads the first sheet of a DIAN workbook export into an
// untyped grid. Two formats are supported:
//   - .xlsx / .xlsm, read with excelize
//   - legacy .xls (BIFF), read with xlsReader
//
// The DIAN portal and the tools around it are not consistent about file
// extensions, so when the format implied by the extension fails to open the
// other reader is tried before giving up.
//
// =============================================================================

package xlsxparser

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/shakinm/xlsReader/xls"
	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/dian-siigo-converter/internal/types"
)

// =============================================================================
// PARSER FUNCTIONS
// =============================================================================

// Parse reads the first sheet of a workbook file.
//
// PARAMETERS:
//   - filePath: The path to the .xlsx, .xlsm or .xls file.
//
// RETURNS:
//   - The rows of the first sheet, header rows included.
//   - A *types.FileAccessError if the workbook cannot be opened or read.
func Parse(filePath string) ([]types.RawRow, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, &types.FileAccessError{Op: "open", Path: filePath, Err: err}
	}

	rows, err := ReadGrid(bytes.NewReader(data), filePath)
	if err != nil {
		return nil, &types.FileAccessError{Op: "read workbook", Path: filePath, Err: err}
	}
	return rows, nil
}

// ReadGrid reads the first sheet from r. name is used only for its
// extension, which decides which reader is tried first.
func ReadGrid(r io.ReadSeeker, name string) ([]types.RawRow, error) {
	readers := []func(io.ReadSeeker) ([]types.RawRow, error){readXLSX, readXLS}
	if strings.EqualFold(filepath.Ext(name), ".xls") {
		readers[0], readers[1] = readers[1], readers[0]
	}

	var errs []error
	for _, read := range readers {
		if _, err := r.Seek(0, io.SeekStart); err != nil {
			return nil, fmt.Errorf("failed to rewind workbook: %w", err)
		}
		rows, err := read(r)
		if err == nil {
			return rows, nil
		}
		errs = append(errs, err)
	}
	return nil, errors.Join(errs...)
}

// readXLSX reads the first sheet with excelize.
func readXLSX(r io.ReadSeeker) ([]types.RawRow, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("xlsx: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("xlsx: workbook has no sheets")
	}

	// Raw values: a display format such as #,##0 would turn 119000 into
	// "119,000", which reads back as 119.
	cells, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("xlsx: failed to read sheet %q: %w", sheets[0], err)
	}

	rows := make([]types.RawRow, len(cells))
	for i, row := range cells {
		rows[i] = types.RawRow(row)
	}
	return rows, nil
}

// readXLS reads the first sheet of a BIFF workbook with xlsReader.
// xlsReader can panic on truncated streams; that is reported as an error.
func readXLS(r io.ReadSeeker) (rows []types.RawRow, err error) {
	defer func() {
		if p := recover(); p != nil {
			rows, err = nil, fmt.Errorf("xls: malformed workbook: %v", p)
		}
	}()

	workbook, err := xls.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("xls: %w", err)
	}
	if workbook.GetNumberSheets() == 0 {
		return nil, errors.New("xls: workbook has no sheets")
	}

	sheet, err := workbook.GetSheet(0)
	if err != nil {
		return nil, fmt.Errorf("xls: failed to read first sheet: %w", err)
	}

	for _, row := range sheet.GetRows() {
		if row == nil {
			rows = append(rows, types.RawRow{})
			continue
		}
		var cells types.RawRow
		for _, cell := range row.GetCols() {
			cells = append(cells, cell.GetString())
		}
		rows = append(rows, cells)
	}
	return rows, nil
}
