// =============================================================================
// DIAN to Siigo Converter - File Manager Utility
// =============================================================================
//
// This module provides the file utilities shared by the CLI and the server:
//   - Directory management
//   - Output file naming from a placeholder template
//   - Warning log generation next to the export
//
// =============================================================================

package utils

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ginjaninja78/dian-siigo-converter/internal/types"
)

// =============================================================================
// DIRECTORY MANAGEMENT
// =============================================================================

// EnsureDirectory creates dir and its parents if they do not exist.
func EnsureDirectory(dir string) error {
	if dir == "" || dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	return nil
}

// FileExists reports whether path exists and is a regular file.
func FileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// =============================================================================
// FILE NAMING
// =============================================================================

// GenerateOutputFileName generates an output file name from a format string.
//
// PARAMETERS:
//   - format: The format string for the file name.
//     Placeholders:
//     {uuid}      - A random UUID, unless params supplies one
//     {timestamp} - Current timestamp (YYYYMMDD_HHMMSS)
//     {date}      - Current date (YYYYMMDD)
//     {time}      - Current time (HHMMSS)
//     {kind}      - "Compras" or "Ventas"
//     {original}  - Input file name (without extension)
//   - ext: The extension to enforce, e.g. "xlsx" or ".csv".
//   - params: A map of placeholder values.
//
// RETURNS:
//   - The generated file name.
//
// EXAMPLE:
//
//	format: "{kind}_Siigo_{date}"
//	params: {"kind": "Compras"}
//	output: "Compras_Siigo_20240115.xlsx"
func GenerateOutputFileName(format, ext string, params map[string]string) string {
	now := time.Now()

	replacements := map[string]string{
		"{uuid}":      uuid.New().String(),
		"{timestamp}": now.Format("20060102_150405"),
		"{date}":      now.Format("20060102"),
		"{time}":      now.Format("150405"),
	}
	for key, value := range params {
		replacements["{"+key+"}"] = value
	}

	result := format
	for placeholder, value := range replacements {
		result = strings.ReplaceAll(result, placeholder, value)
	}
	result = sanitizeFileName(result)

	if ext = strings.TrimPrefix(strings.ToLower(ext), "."); ext != "" {
		if !strings.HasSuffix(strings.ToLower(result), "."+ext) {
			result += "." + ext
		}
	}
	return result
}

// sanitizeFileName replaces path separators and characters Windows rejects.
func sanitizeFileName(name string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '_'
		}
		return r
	}, name)
}

// BaseName returns the file name of path without its extension.
func BaseName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// =============================================================================
// WARNING LOG GENERATION
// =============================================================================

// WriteWarningLog writes load warnings to a text file in outputDir.
//
// PARAMETERS:
//   - warnings: The warnings to write.
//   - outputDir: The directory to write the log file.
//   - source: The input file the warnings refer to.
//
// RETURNS:
//   - The path to the log file, or "" when there is nothing to write.
//   - An error if writing fails.
func WriteWarningLog(warnings []types.Warning, outputDir, source string) (string, error) {
	if len(warnings) == 0 {
		return "", nil
	}
	if err := EnsureDirectory(outputDir); err != nil {
		return "", err
	}

	now := time.Now()
	logName := fmt.Sprintf("warnings_%s_%s.txt", sanitizeFileName(BaseName(source)), now.Format("20060102_150405"))
	logPath := filepath.Join(outputDir, logName)

	file, err := os.Create(logPath)
	if err != nil {
		return "", fmt.Errorf("failed to create warning log: %w", err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)

	fmt.Fprintf(writer, "DIAN to Siigo Converter - Warning Log\n"+
		"Generated: %s\n"+
		"Source: %s\n"+
		"Total Warnings: %d\n"+
		"================================================================================\n\n",
		now.Format("2006-01-02 15:04:05"),
		source,
		len(warnings))

	for i, w := range warnings {
		fmt.Fprintf(writer, "Warning #%d\n", i+1)
		if w.Row > 0 {
			fmt.Fprintf(writer, "  Row:     %d\n", w.Row)
		}
		if w.Column != "" {
			fmt.Fprintf(writer, "  Column:  %s\n", w.Column)
		}
		if w.Value != "" {
			fmt.Fprintf(writer, "  Value:   %s\n", w.Value)
		}
		fmt.Fprintf(writer, "  Message: %s\n\n", w.Message)
	}

	writer.WriteString("================================================================================\n" +
		"End of Warning Log\n")

	if err := writer.Flush(); err != nil {
		return "", fmt.Errorf("failed to flush warning log: %w", err)
	}
	return logPath, nil
}
