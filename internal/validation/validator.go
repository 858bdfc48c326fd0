// =============================================================================
// DIAN to Siigo Converter - Validation Engine
// =============================================================================
//
// This module checks generated ledger rows against what the Siigo importer
// accepts before anything is exported:
//   - CUENTA must be one of the configured accounts
//   - Exactly one of DEBITO / CREDITO per row
//   - OBSERVACIONES at most 50 characters
//   - TERCERO digits only
//   - H and VALOR_BASE appear together
//
// ERROR HANDLING:
//   - Problems are collected, not returned one by one
//   - Each problem carries the entry index and the invoice row it came from
//   - Severity "error" blocks the export, "warning" is reported only
//
// =============================================================================

package validation

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/ginjaninja78/dian-siigo-converter/internal/transform"
	"github.com/ginjaninja78/dian-siigo-converter/internal/types"
)

// ErrInvalidEntries is returned by Result.Err when any error was found.
var ErrInvalidEntries = errors.New("ledger entries failed validation")

// Severity levels.
const (
	SeverityError   = "error"
	SeverityWarning = "warning"
)

// =============================================================================
// VALIDATION ERROR TYPES
// =============================================================================

// ValidationError represents a single validation problem.
type ValidationError struct {
	// Severity is SeverityError or SeverityWarning.
	Severity string `json:"severity"`

	// Field is the Siigo column that failed validation.
	Field string `json:"field"`

	// Value is the offending value, rendered as text.
	Value string `json:"value,omitempty"`

	// Rule names the check that failed.
	Rule string `json:"rule"`

	Message string `json:"message"`

	// Entry is the 1-based position of the row in the output.
	Entry int `json:"entry"`

	// SourceRow is the invoice row that produced the entry.
	SourceRow int `json:"source_row,omitempty"`
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("[%s] Entry %d (invoice row %d), Field '%s': %s (value: '%s')",
		strings.ToUpper(e.Severity),
		e.Entry,
		e.SourceRow,
		e.Field,
		e.Message,
		e.Value,
	)
}

// =============================================================================
// VALIDATION RESULT
// =============================================================================

// ValidationResult contains the results of validation.
type ValidationResult struct {
	// IsValid is true if there are no errors.
	IsValid bool `json:"is_valid"`

	// Errors contains all problems, warnings included.
	Errors []*ValidationError `json:"errors,omitempty"`

	ErrorCount       int `json:"error_count"`
	WarningCount     int `json:"warning_count"`
	EntriesValidated int `json:"entries_validated"`

	// TotalDebit and TotalCredit sum the DEBITO and CREDITO columns.
	TotalDebit  int64 `json:"total_debit"`
	TotalCredit int64 `json:"total_credit"`
}

// Err returns nil for a valid result, or an error listing the first
// problems found.
func (r *ValidationResult) Err() error {
	if r.IsValid {
		return nil
	}
	const shown = 5
	var msgs []string
	for _, e := range r.Errors {
		if e.Severity != SeverityError && r.ErrorCount > 0 {
			continue
		}
		msgs = append(msgs, e.Error())
		if len(msgs) == shown {
			break
		}
	}
	return fmt.Errorf("%w: %d error(s), %d warning(s): %s",
		ErrInvalidEntries, r.ErrorCount, r.WarningCount, strings.Join(msgs, "; "))
}

// =============================================================================
// VALIDATOR
// =============================================================================

// Validator checks ledger entries against a set of allowed accounts.
type Validator struct {
	accounts map[string]bool
	options  ValidationOptions
}

// ValidationOptions contains options for validation.
type ValidationOptions struct {
	// StopOnFirstError stops validation after the first error.
	// Default: false
	StopOnFirstError bool

	// TreatWarningsAsErrors makes any warning invalidate the result.
	// Default: false
	TreatWarningsAsErrors bool
}

// DefaultValidationOptions returns the default validation options.
func DefaultValidationOptions() ValidationOptions {
	return ValidationOptions{}
}

// NewValidator creates a Validator accepting the given account codes.
func NewValidator(accounts []string) *Validator {
	return NewValidatorWithOptions(accounts, DefaultValidationOptions())
}

// NewValidatorWithOptions creates a Validator with custom options.
func NewValidatorWithOptions(accounts []string, options ValidationOptions) *Validator {
	allowed := make(map[string]bool, len(accounts))
	for _, a := range accounts {
		allowed[a] = true
	}
	return &Validator{accounts: allowed, options: options}
}

// =============================================================================
// MAIN VALIDATION FUNCTION
// =============================================================================

// Validate checks entries against accounts with default options.
func Validate(entries []types.LedgerEntry, accounts []string) *ValidationResult {
	return NewValidator(accounts).ValidateAll(entries)
}

// ValidateAll validates all entries and returns a detailed result.
func (v *Validator) ValidateAll(entries []types.LedgerEntry) *ValidationResult {
	result := &ValidationResult{
		IsValid:          true,
		EntriesValidated: len(entries),
	}

	for i := range entries {
		e := &entries[i]
		if e.Debit != nil {
			result.TotalDebit += *e.Debit
		}
		if e.Credit != nil {
			result.TotalCredit += *e.Credit
		}

		for _, problem := range v.ValidateEntry(i+1, e) {
			result.Errors = append(result.Errors, problem)

			if problem.Severity == SeverityError {
				result.ErrorCount++
				result.IsValid = false
				if v.options.StopOnFirstError {
					return result
				}
				continue
			}

			result.WarningCount++
			if v.options.TreatWarningsAsErrors {
				result.IsValid = false
			}
		}
	}

	return result
}

// ValidateEntry checks one entry. index is its 1-based output position.
func (v *Validator) ValidateEntry(index int, e *types.LedgerEntry) []*ValidationError {
	var problems []*ValidationError
	add := func(severity, field, value, rule, message string) {
		problems = append(problems, &ValidationError{
			Severity:  severity,
			Field:     field,
			Value:     value,
			Rule:      rule,
			Message:   message,
			Entry:     index,
			SourceRow: e.SourceRow,
		})
	}

	if !v.accounts[e.Account] {
		add(SeverityError, "CUENTA", e.Account, "known_account", "account is not in the chart of accounts")
	}

	switch {
	case e.Debit != nil && e.Credit != nil:
		add(SeverityError, "DEBITO", amountText(e.Debit), "single_side", "row has both debit and credit")
	case e.Debit == nil && e.Credit == nil:
		add(SeverityError, "DEBITO", "", "single_side", "row has neither debit nor credit")
	}

	amounts := []struct {
		field string
		value *int64
	}{
		{"DEBITO", e.Debit},
		{"CREDITO", e.Credit},
		{"VALOR_BASE", e.VATBase},
	}
	for _, a := range amounts {
		if a.value != nil && *a.value < 0 {
			add(SeverityWarning, a.field, amountText(a.value), "non_negative", "negative amount, check for credit notes")
		}
	}

	if n := utf8.RuneCountInString(e.Memo); n > transform.MaxMemoLength {
		add(SeverityError, "OBSERVACIONES", e.Memo, "max_length",
			fmt.Sprintf("memo has %d characters, limit is %d", n, transform.MaxMemoLength))
	}

	switch {
	case e.ThirdParty == "":
		add(SeverityWarning, "TERCERO", "", "third_party", "no third-party tax id")
	case !transform.IsDigits(e.ThirdParty):
		add(SeverityError, "TERCERO", e.ThirdParty, "digits_only", "tax id must contain digits only")
	}

	if (e.Flag != nil) != (e.VATBase != nil) {
		add(SeverityError, "H", flagText(e.Flag), "vat_marker", "H flag and VALOR_BASE must appear together")
	}

	return problems
}

func amountText(p *int64) string {
	if p == nil {
		return ""
	}
	return fmt.Sprint(*p)
}

func flagText(p *int) string {
	if p == nil {
		return ""
	}
	return fmt.Sprint(*p)
}
