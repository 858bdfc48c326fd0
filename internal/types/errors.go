package types

import (
	"errors"
	"fmt"
	"strings"
)

// Conversion errors. Concrete error types below match these with errors.Is.
var (
	// ErrMissingColumn is returned when a mandatory column role cannot be
	// resolved after every fallback heuristic.
	ErrMissingColumn = errors.New("missing required column")

	// ErrFileAccess is returned when the source cannot be opened or parsed
	// as tabular data.
	ErrFileAccess = errors.New("cannot read source file")

	// ErrEmptyResult is returned when a run has nothing to process.
	ErrEmptyResult = errors.New("nothing to process")

	// ErrNoHeader is returned when every probed row is empty.
	ErrNoHeader = errors.New("no header row found")

	// ErrUnsupportedFormat is returned for file extensions the loader
	// does not know how to read.
	ErrUnsupportedFormat = errors.New("unsupported file format")

	// ErrInvalidConfig is returned when configuration values are unusable.
	ErrInvalidConfig = errors.New("invalid configuration")
)

// Warning is a recoverable problem found while loading a file. The
// affected value has already been defaulted when a Warning is recorded.
type Warning struct {
	// Row is the 1-based data row, or 0 for file-level warnings.
	Row int `json:"row,omitempty"`

	// Column is the source column name, if any.
	Column string `json:"column,omitempty"`

	// Value is the offending cell text, if any.
	Value string `json:"value,omitempty"`

	Message string `json:"message"`
}

func (w Warning) String() string {
	var b strings.Builder
	if w.Row > 0 {
		fmt.Fprintf(&b, "row %d: ", w.Row)
	}
	if w.Column != "" {
		fmt.Fprintf(&b, "column %q: ", w.Column)
	}
	b.WriteString(w.Message)
	if w.Value != "" {
		fmt.Fprintf(&b, " (value: %q)", w.Value)
	}
	return b.String()
}

// MissingColumnError names the roles that could not be mapped.
type MissingColumnError struct {
	Roles []string

	// Hint is the closest header in the file, when one looks related.
	Hint string
}

func (e *MissingColumnError) Error() string {
	msg := fmt.Sprintf("%s: %s", ErrMissingColumn, strings.Join(e.Roles, ", "))
	if e.Hint != "" {
		msg += fmt.Sprintf(" (closest header: %q)", e.Hint)
	}
	return msg
}

// Is reports whether target is ErrMissingColumn.
func (e *MissingColumnError) Is(target error) bool {
	return target == ErrMissingColumn
}

// FileAccessError wraps an I/O or parse failure on the source file.
type FileAccessError struct {
	// Op is the operation that failed (e.g. "open", "read csv").
	Op   string
	Path string
	Err  error
}

func (e *FileAccessError) Error() string {
	return fmt.Sprintf("%s: %s %s: %v", ErrFileAccess, e.Op, e.Path, e.Err)
}

// Unwrap returns the underlying error for error unwrapping.
func (e *FileAccessError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrFileAccess.
func (e *FileAccessError) Is(target error) bool {
	return target == ErrFileAccess
}

// EmptyResultError reports a run that produced no usable records or rows.
type EmptyResultError struct {
	// Stage is "load" or "generate".
	Stage string

	// Dropped counts rows removed by the document-type filter.
	Dropped int
}

func (e *EmptyResultError) Error() string {
	switch e.Stage {
	case "load":
		if e.Dropped > 0 {
			return fmt.Sprintf("%s: no invoice records found (%d non-invoice rows dropped)", ErrEmptyResult, e.Dropped)
		}
		return fmt.Sprintf("%s: no invoice records found", ErrEmptyResult)
	case "generate":
		return fmt.Sprintf("%s: no ledger rows generated", ErrEmptyResult)
	}
	return ErrEmptyResult.Error()
}

// Is reports whether target is ErrEmptyResult.
func (e *EmptyResultError) Is(target error) bool {
	return target == ErrEmptyResult
}
