package core

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{"dot separator", "12.34", "12.34", false},
		{"comma separator", "12,34", "12.34", false},
		{"integer", "2000", "2000.00", false},
		{"negative", "-150.50", "-150.50", false},
		{"whitespace", "  99.99  ", "99.99", false},
		{"empty", "", "", true},
		{"letters", "abc", "", true},
		{"double separator", "1.2.3", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseAmount(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Errorf("ParseAmount(%q) expected error, got %s", tt.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseAmount(%q) unexpected error: %v", tt.input, err)
			}
			if FormatAmount(got) != tt.want {
				t.Errorf("ParseAmount(%q) = %s, want %s", tt.input, FormatAmount(got), tt.want)
			}
		})
	}
}

func TestCoerceSign(t *testing.T) {
	tests := []struct {
		name  string
		kind  StreamKind
		input string
		want  string
	}{
		{"income positive stays positive", Income, "2000", "2000.00"},
		{"income negative flipped", Income, "-2000", "2000.00"},
		{"expense positive flipped", Expense, "100", "-100.00"},
		{"expense negative stays negative", Expense, "-100", "-100.00"},
		{"expense zero", Expense, "0", "0.00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := ParseAmount(tt.input)
			if err != nil {
				t.Fatalf("ParseAmount(%q): %v", tt.input, err)
			}
			got := CoerceSign(tt.kind, d)
			if FormatAmount(got) != tt.want {
				t.Errorf("CoerceSign(%s, %s) = %s, want %s", tt.kind, tt.input, FormatAmount(got), tt.want)
			}
		})
	}
}

func TestSumTotals(t *testing.T) {
	incomes := []Stream{
		{Amount: decimal.RequireFromString("2000")},
	}
	expenses := []Stream{
		{Amount: decimal.RequireFromString("-100")},
		{Amount: decimal.RequireFromString("-200")},
	}

	totals := SumTotals(incomes, expenses)

	if FormatAmount(totals.Income) != "2000.00" {
		t.Errorf("income total = %s, want 2000.00", FormatAmount(totals.Income))
	}
	if FormatAmount(totals.Expenses) != "-300.00" {
		t.Errorf("expense total = %s, want -300.00", FormatAmount(totals.Expenses))
	}
	if FormatAmount(totals.Net) != "1700.00" {
		t.Errorf("net total = %s, want 1700.00", FormatAmount(totals.Net))
	}
}

func TestSumTotalsEmpty(t *testing.T) {
	totals := SumTotals(nil, nil)

	if FormatAmount(totals.Income) != "0.00" {
		t.Errorf("empty income total = %s, want 0.00", FormatAmount(totals.Income))
	}
	if FormatAmount(totals.Expenses) != "0.00" {
		t.Errorf("empty expense total = %s, want 0.00", FormatAmount(totals.Expenses))
	}
	if FormatAmount(totals.Net) != "0.00" {
		t.Errorf("empty net total = %s, want 0.00", FormatAmount(totals.Net))
	}
}
