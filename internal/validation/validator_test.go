package validation

import (
	"errors"
	"strings"
	"testing"

	"github.com/ginjaninja78/dian-siigo-converter/internal/types"
)

var accounts = []string{"14, 51, 61", "24080103"}

func validPurchase() []types.LedgerEntry {
	return []types.LedgerEntry{
		{Account: "14, 51, 61", Memo: "ACME", Debit: types.Int64(100000), ThirdParty: "900123456", SourceRow: 1},
		{Account: "24080103", Memo: "ACME", Debit: types.Int64(19000), VATBase: types.Int64(100000),
			ThirdParty: "900123456", Flag: types.Int(1), SourceRow: 1},
	}
}

func TestValidateValidEntries(t *testing.T) {
	result := Validate(validPurchase(), accounts)
	if !result.IsValid || len(result.Errors) != 0 {
		t.Errorf("expected valid result, got %+v", result.Errors)
	}
	if result.TotalDebit != 119000 || result.TotalCredit != 0 {
		t.Errorf("totals = %d/%d", result.TotalDebit, result.TotalCredit)
	}
	if result.Err() != nil {
		t.Errorf("Err() = %v", result.Err())
	}
}

func TestValidateEntryRules(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(e *types.LedgerEntry)
		rule     string
		severity string
	}{
		{"unknown account", func(e *types.LedgerEntry) { e.Account = "9999" }, "known_account", SeverityError},
		{"both sides", func(e *types.LedgerEntry) { e.Credit = types.Int64(1) }, "single_side", SeverityError},
		{"no side", func(e *types.LedgerEntry) { e.Debit = nil }, "single_side", SeverityError},
		{"negative", func(e *types.LedgerEntry) { e.Debit = types.Int64(-5) }, "non_negative", SeverityWarning},
		{"long memo", func(e *types.LedgerEntry) { e.Memo = strings.Repeat("x", 51) }, "max_length", SeverityError},
		{"empty tercero", func(e *types.LedgerEntry) { e.ThirdParty = "" }, "third_party", SeverityWarning},
		{"non digit tercero", func(e *types.LedgerEntry) { e.ThirdParty = "900-1" }, "digits_only", SeverityError},
		{"flag without base", func(e *types.LedgerEntry) { e.Flag = types.Int(1) }, "vat_marker", SeverityError},
	}

	v := NewValidator(accounts)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := validPurchase()[0]
			tt.mutate(&e)
			problems := v.ValidateEntry(1, &e)
			if len(problems) != 1 {
				t.Fatalf("got %d problems, want 1: %v", len(problems), problems)
			}
			if problems[0].Rule != tt.rule || problems[0].Severity != tt.severity {
				t.Errorf("problem = %+v, want rule %s severity %s", problems[0], tt.rule, tt.severity)
			}
			if problems[0].SourceRow != 1 {
				t.Errorf("SourceRow = %d, want 1", problems[0].SourceRow)
			}
		})
	}
}

func TestValidateAllCountsAndErr(t *testing.T) {
	entries := validPurchase()
	entries[0].Credit = types.Int64(100000)
	entries[1].ThirdParty = ""

	result := Validate(entries, accounts)
	if result.IsValid {
		t.Fatal("expected invalid result")
	}
	if result.ErrorCount != 1 || result.WarningCount != 1 {
		t.Errorf("counts = %d errors, %d warnings; want 1 and 1", result.ErrorCount, result.WarningCount)
	}

	err := result.Err()
	if !errors.Is(err, ErrInvalidEntries) {
		t.Fatalf("Err() = %v, want ErrInvalidEntries", err)
	}
	if !strings.Contains(err.Error(), "both debit and credit") {
		t.Errorf("Err() should mention the error, got %v", err)
	}
}

func TestValidatorOptions(t *testing.T) {
	entries := validPurchase()
	entries[0].ThirdParty = ""

	strict := NewValidatorWithOptions(accounts, ValidationOptions{TreatWarningsAsErrors: true})
	if result := strict.ValidateAll(entries); result.IsValid {
		t.Error("warnings should invalidate a strict result")
	}

	entries = validPurchase()
	entries[0].Account = "x"
	entries[1].Account = "y"
	stop := NewValidatorWithOptions(accounts, ValidationOptions{StopOnFirstError: true})
	if result := stop.ValidateAll(entries); result.ErrorCount != 1 {
		t.Errorf("ErrorCount = %d, want 1 with StopOnFirstError", result.ErrorCount)
	}
}

func TestNegativeAmountsReportedInColumnOrder(t *testing.T) {
	e := validPurchase()[1]
	e.Debit = types.Int64(-19000)
	e.Credit = types.Int64(-1)
	e.VATBase = types.Int64(-100000)

	v := NewValidator(accounts)
	for run := 0; run < 20; run++ {
		var fields []string
		for _, p := range v.ValidateEntry(1, &e) {
			if p.Rule == "non_negative" {
				fields = append(fields, p.Field)
			}
		}
		if got := strings.Join(fields, ","); got != "DEBITO,CREDITO,VALOR_BASE" {
			t.Fatalf("run %d: non_negative fields = %s", run, got)
		}
	}
}
