// =============================================================================
// DIAN to Siigo Converter - CSV Parser Module
// =============================================================================
//
// This module reads delimited-text DIAN exports into an untyped grid. The
// header is NOT interpreted here: exports often carry title rows above the
// real header, so header detection happens later on the raw rows.
//
// FEATURES:
//   - UTF-8 with or without BOM (Excel's "CSV UTF-8" adds one)
//   - ISO-8859-1 / Windows-1252 input, detected or configured
//   - Delimiter detection among comma, semicolon, tab and pipe
//   - Lenient quoting and ragged rows
//
// =============================================================================

package csvparser

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/ginjaninja78/dian-siigo-converter/internal/config"
	"github.com/ginjaninja78/dian-siigo-converter/internal/types"
)

// utf8BOM is stripped from the start of the input.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// candidateDelimiters are tried, in this order, when none is configured.
var candidateDelimiters = []rune{',', ';', '\t', '|'}

// sniffLines is how many non-empty lines are inspected to pick a delimiter.
const sniffLines = 20

// =============================================================================
// PARSER FUNCTIONS
// =============================================================================

// Parse reads a CSV file and returns its rows.
//
// PARAMETERS:
//   - filePath: The path to the CSV file.
//   - settings: Delimiter and encoding settings.
//
// RETURNS:
//   - The rows of the file, header rows included.
//   - A *types.FileAccessError if the file cannot be opened or parsed.
func Parse(filePath string, settings config.CSVSettings) ([]types.RawRow, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, &types.FileAccessError{Op: "open", Path: filePath, Err: err}
	}
	defer file.Close()

	rows, err := ReadGrid(file, settings)
	if err != nil {
		return nil, &types.FileAccessError{Op: "read csv", Path: filePath, Err: err}
	}
	return rows, nil
}

// ReadGrid reads every row from r.
func ReadGrid(r io.Reader, settings config.CSVSettings) ([]types.RawRow, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read input: %w", err)
	}

	text, err := decode(bytes.TrimPrefix(raw, utf8BOM), settings.Encoding)
	if err != nil {
		return nil, err
	}

	reader := csv.NewReader(strings.NewReader(text))
	configureReader(reader, settings, text)

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse CSV: %w", err)
	}

	rows := make([]types.RawRow, len(records))
	for i, rec := range records {
		rows[i] = types.RawRow(rec)
	}
	return rows, nil
}

// decode converts raw bytes to a UTF-8 string.
func decode(raw []byte, encoding string) (string, error) {
	var decoder *charmap.Charmap

	switch strings.ToLower(encoding) {
	case "utf-8", "utf8":
		return string(raw), nil
	case "iso-8859-1", "latin1":
		decoder = charmap.ISO8859_1
	case "windows-1252", "cp1252":
		decoder = charmap.Windows1252
	case "", "auto":
		if utf8.Valid(raw) {
			return string(raw), nil
		}
		// Files saved from Excel on Windows without "UTF-8" are cp1252.
		decoder = charmap.Windows1252
	default:
		return "", fmt.Errorf("unsupported encoding %q", encoding)
	}

	out, _, err := transform.Bytes(decoder.NewDecoder(), raw)
	if err != nil {
		return "", fmt.Errorf("failed to decode %s input: %w", encoding, err)
	}
	return string(out), nil
}

// configureReader applies the delimiter and leniency settings.
func configureReader(reader *csv.Reader, settings config.CSVSettings, text string) {
	switch settings.Delimiter {
	case "":
		reader.Comma = SniffDelimiter(text)
	case "\\t", "tab", "TAB":
		reader.Comma = '\t'
	case "|", "pipe", "PIPE":
		reader.Comma = '|'
	case ";", "semicolon":
		reader.Comma = ';'
	default:
		r, _ := utf8.DecodeRuneInString(settings.Delimiter)
		reader.Comma = r
	}

	// Allow variable number of fields per row.
	// Title rows above the header have fewer cells than the data.
	reader.FieldsPerRecord = -1

	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
}

// =============================================================================
// DELIMITER DETECTION
// =============================================================================

// SniffDelimiter picks the candidate delimiter whose per-line count is the
// most consistent across the first lines of text. A delimiter that appears
// the same number of times on more lines wins; ties go to the higher count,
// then to candidate order. Comma is returned when nothing is found.
func SniffDelimiter(text string) rune {
	lines := make([]string, 0, sniffLines)
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		lines = append(lines, line)
		if len(lines) == sniffLines {
			break
		}
	}

	best := ','
	bestLines, bestCount := 0, 0
	for _, d := range candidateDelimiters {
		freq := make(map[int]int)
		for _, line := range lines {
			if n := countOutsideQuotes(line, d); n > 0 {
				freq[n]++
			}
		}
		modeCount, modeLines := 0, 0
		for count, lineCount := range freq {
			if lineCount > modeLines || (lineCount == modeLines && count > modeCount) {
				modeCount, modeLines = count, lineCount
			}
		}
		if modeLines > bestLines || (modeLines == bestLines && modeCount > bestCount) {
			best, bestLines, bestCount = d, modeLines, modeCount
		}
	}
	return best
}

// countOutsideQuotes counts d in line, ignoring double-quoted sections.
func countOutsideQuotes(line string, d rune) int {
	n := 0
	quoted := false
	for _, r := range line {
		switch {
		case r == '"':
			quoted = !quoted
		case r == d && !quoted:
			n++
		}
	}
	return n
}
