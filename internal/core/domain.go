package core

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	// DefaultBudgetName is used when a client does not name a budget.
	DefaultBudgetName = "My Budget"

	// DefaultIncomeCategory is applied to income entries created without a category.
	DefaultIncomeCategory = "salary"

	// DefaultExpenseCategory is applied to expense entries created without a category.
	DefaultExpenseCategory = "expense"

	// UnknownMerchant is the fallback merchant name for synced transactions.
	UnknownMerchant = "Unknown Merchant"

	// UncategorizedCategory is the fallback category for synced transactions.
	UncategorizedCategory = "Uncategorized"
)

// StreamKind distinguishes income entries from expense entries.
type StreamKind string

const (
	Income  StreamKind = "income"
	Expense StreamKind = "expense"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrForbidden        = errors.New("forbidden")
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrInvalidDate      = errors.New("invalid date")
	ErrEmptyMerchant    = errors.New("empty merchant name")
	ErrEmptyDescription = errors.New("empty description")
	ErrProvider         = errors.New("provider error")
	ErrSyncInProgress   = errors.New("sync already in progress")
	ErrBudgetExists     = errors.New("budget already exists")
)

type (
	// User is a local account resolved from an identity-provider subject.
	// Users are created lazily on first authenticated request and never
	// deleted by this system.
	User struct {
		ID          int64
		ClerkUserID string
		Email       string
		BudgetID    string
	}

	// Budget is a named monthly grouping of income and expense streams.
	// Date always holds the first day of its month; (UserID, Name, Date)
	// is unique.
	Budget struct {
		ID     int64
		UserID int64
		Name   string
		Date   time.Time
	}

	// Stream is a single ledger line item attached to a budget. Income
	// streams store a positive amount, expense streams a non-positive one,
	// regardless of the sign the client sent.
	Stream struct {
		ID           int64
		BudgetID     int64
		MerchantName string
		Description  string
		Amount       decimal.Decimal
		Category     string
	}

	// BankAccount mirrors one external financial-institution account.
	BankAccount struct {
		ID               int64
		UserID           int64
		PlaidAccountID   string
		PlaidAccessToken string
		PlaidItemID      string
		AccountName      string
		AccountType      string
		AccountSubtype   string
		Mask             string
		InstitutionName  string
		IsActive         bool
		SyncCursor       string
		LastSyncedAt     time.Time
	}

	// Transaction mirrors one external bank transaction. Amount is always
	// the absolute value; PlaidTransactionID is the sole deduplication key.
	Transaction struct {
		ID                 int64
		UserID             int64
		BankAccountID      int64
		PlaidTransactionID string
		PlaidAccountID     string
		Amount             decimal.Decimal
		MerchantName       string
		AuthorizedDate     time.Time
		DatePaid           time.Time
		Category           string
		CreatedAt          string
	}

	// Totals aggregates a budget's streams. Expenses carry their stored
	// negative sign, so Net = Income + Expenses.
	Totals struct {
		Income   decimal.Decimal
		Expenses decimal.Decimal
		Net      decimal.Decimal
	}
)

// Label renders the budget for listings, e.g. "vacation - 2025-07".
func (b Budget) Label() string {
	return fmt.Sprintf("%s - %s", b.Name, b.Date.Format("2006-01"))
}

// Validate checks the fields required to persist a stream. Amount sign is
// not checked here; CoerceSign is responsible for it.
func (s Stream) Validate() error {
	if strings.TrimSpace(s.MerchantName) == "" {
		return ErrEmptyMerchant
	}
	if strings.TrimSpace(s.Description) == "" {
		return ErrEmptyDescription
	}
	if len(s.MerchantName) > 100 || len(s.Description) > 100 {
		return errors.New("field too long (max 100 characters)")
	}
	return nil
}

// DefaultCategory returns the category applied when the client omits one.
func (k StreamKind) DefaultCategory() string {
	if k == Income {
		return DefaultIncomeCategory
	}
	return DefaultExpenseCategory
}

// SumTotals computes budget totals from already-signed stream amounts.
// Absence of entries yields zeros, never an error.
func SumTotals(incomes, expenses []Stream) Totals {
	t := Totals{
		Income:   decimal.Zero,
		Expenses: decimal.Zero,
	}
	for _, s := range incomes {
		t.Income = t.Income.Add(s.Amount)
	}
	for _, s := range expenses {
		t.Expenses = t.Expenses.Add(s.Amount)
	}
	t.Net = t.Income.Add(t.Expenses)
	return t
}
