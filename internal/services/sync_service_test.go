package services

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"budgetbox/internal/bank"
	"budgetbox/internal/core"
	"budgetbox/internal/storage"
)

// fakeBank serves canned sync pages keyed by access token. Pages for one
// token are consumed in order; the last page repeats if the cursor loop
// over-fetches.
type fakeBank struct {
	pages map[string][]bank.SyncPage
	calls map[string]int
	fail  map[string]error
}

func newFakeBank() *fakeBank {
	return &fakeBank{
		pages: make(map[string][]bank.SyncPage),
		calls: make(map[string]int),
		fail:  make(map[string]error),
	}
}

func (f *fakeBank) CreateLinkToken(ctx context.Context, clientUserID string) (string, error) {
	return "link-token-" + clientUserID, nil
}

func (f *fakeBank) ExchangePublicToken(ctx context.Context, publicToken string) (bank.ExchangeResult, error) {
	return bank.ExchangeResult{
		AccessToken:     "access-" + publicToken,
		ItemID:          "item-" + publicToken,
		InstitutionName: "Fake Bank",
		Accounts: []bank.Account{
			{AccountID: "acct-" + publicToken, Name: "Checking", Type: "depository", Subtype: "checking", Mask: "0000"},
		},
	}, nil
}

func (f *fakeBank) SyncTransactions(ctx context.Context, accessToken, cursor string) (bank.SyncPage, error) {
	if err := f.fail[accessToken]; err != nil {
		return bank.SyncPage{}, err
	}
	pages := f.pages[accessToken]
	if len(pages) == 0 {
		return bank.SyncPage{NextCursor: cursor}, nil
	}
	i := f.calls[accessToken]
	f.calls[accessToken]++
	if i >= len(pages) {
		i = len(pages) - 1
	}
	return pages[i], nil
}

func newTestStorage(t *testing.T) *storage.SQLiteRepository {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository: %v", err)
	}
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func seedUser(t *testing.T, repo *storage.SQLiteRepository) core.User {
	t.Helper()
	user, _, err := repo.GetOrCreateUserByClerkID(context.Background(), "user_test")
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return user
}

func seedAccount(t *testing.T, repo *storage.SQLiteRepository, userID int64, token string) core.BankAccount {
	t.Helper()
	account, err := repo.CreateBankAccount(context.Background(), core.BankAccount{
		UserID:           userID,
		PlaidAccountID:   "plaid-" + token,
		PlaidAccessToken: token,
		PlaidItemID:      "item-" + token,
		AccountName:      "Checking " + token,
		AccountType:      "depository",
		AccountSubtype:   "checking",
		Mask:             "0000",
		InstitutionName:  "Fake Bank",
	})
	if err != nil {
		t.Fatalf("seed account: %v", err)
	}
	return account
}

func addedItem(id string, amount float64) bank.Transaction {
	return bank.Transaction{
		TransactionID:  id,
		AccountID:      "plaid-token-1",
		Amount:         decimal.NewFromFloat(amount),
		MerchantName:   "Cafe",
		Name:           "CAFE PURCHASE",
		Date:           "2025-07-04",
		AuthorizedDate: "2025-07-03",
		Category:       "Food",
	}
}

func TestSyncUserNoAccounts(t *testing.T) {
	repo := newTestStorage(t)
	user := seedUser(t, repo)
	svc := NewSyncService(repo, newFakeBank(), nil)

	_, err := svc.SyncUser(context.Background(), user)
	if !errors.Is(err, ErrNoLinkedAccounts) {
		t.Errorf("got %v, want ErrNoLinkedAccounts", err)
	}
}

func TestSyncUserAppliesPages(t *testing.T) {
	repo := newTestStorage(t)
	user := seedUser(t, repo)
	account := seedAccount(t, repo, user.ID, "token-1")

	fb := newFakeBank()
	fb.pages["token-1"] = []bank.SyncPage{
		{Added: []bank.Transaction{addedItem("txn-1", 12.50)}, NextCursor: "c1", HasMore: true},
		{Added: []bank.Transaction{addedItem("txn-2", 3.20)}, NextCursor: "c2", HasMore: false},
	}
	svc := NewSyncService(repo, fb, nil)

	result, err := svc.SyncUser(context.Background(), user)
	if err != nil {
		t.Fatalf("SyncUser: %v", err)
	}
	if result.Added != 2 {
		t.Errorf("added = %d, want 2", result.Added)
	}
	if len(result.Warnings) != 0 {
		t.Errorf("unexpected warnings: %v", result.Warnings)
	}

	// Cursor committed only after all pages applied.
	got, err := repo.GetBankAccount(context.Background(), account.ID)
	if err != nil {
		t.Fatalf("GetBankAccount: %v", err)
	}
	if got.SyncCursor != "c2" {
		t.Errorf("cursor = %q, want %q", got.SyncCursor, "c2")
	}
	if got.LastSyncedAt.IsZero() {
		t.Error("last synced at not set")
	}
}

func TestSyncReplayDeduplicates(t *testing.T) {
	repo := newTestStorage(t)
	user := seedUser(t, repo)
	seedAccount(t, repo, user.ID, "token-1")

	fb := newFakeBank()
	fb.pages["token-1"] = []bank.SyncPage{
		{Added: []bank.Transaction{addedItem("txn-1", 12.50)}, NextCursor: "c1"},
		{Added: []bank.Transaction{addedItem("txn-1", 12.50)}, NextCursor: "c1"},
	}
	svc := NewSyncService(repo, fb, nil)

	first, err := svc.SyncUser(context.Background(), user)
	if err != nil {
		t.Fatalf("first sync: %v", err)
	}
	if first.Added != 1 {
		t.Errorf("first sync added = %d, want 1", first.Added)
	}

	second, err := svc.SyncUser(context.Background(), user)
	if err != nil {
		t.Fatalf("replayed sync: %v", err)
	}
	if second.Added != 0 {
		t.Errorf("replayed sync added = %d, want 0", second.Added)
	}

	count, err := repo.CountTransactionsByPlaidID(context.Background(), "txn-1")
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Errorf("got %d rows for txn-1, want exactly 1", count)
	}
}

func TestSyncRemovedAbsentIsNoop(t *testing.T) {
	repo := newTestStorage(t)
	user := seedUser(t, repo)
	seedAccount(t, repo, user.ID, "token-1")

	fb := newFakeBank()
	fb.pages["token-1"] = []bank.SyncPage{
		{Removed: []string{"never-seen"}, NextCursor: "c1"},
	}
	svc := NewSyncService(repo, fb, nil)

	result, err := svc.SyncUser(context.Background(), user)
	if err != nil {
		t.Fatalf("SyncUser: %v", err)
	}
	if result.Removed != 0 {
		t.Errorf("removed = %d, want 0 for an absent id", result.Removed)
	}
	if len(result.Warnings) != 0 {
		t.Errorf("unexpected warnings: %v", result.Warnings)
	}
}

func TestSyncModifiedMissingIsSkipped(t *testing.T) {
	repo := newTestStorage(t)
	user := seedUser(t, repo)
	seedAccount(t, repo, user.ID, "token-1")

	fb := newFakeBank()
	fb.pages["token-1"] = []bank.SyncPage{
		{Modified: []bank.Transaction{addedItem("never-synced", 9.99)}, NextCursor: "c1"},
	}
	svc := NewSyncService(repo, fb, nil)

	result, err := svc.SyncUser(context.Background(), user)
	if err != nil {
		t.Fatalf("SyncUser: %v", err)
	}
	if result.Modified != 0 {
		t.Errorf("modified = %d, want 0 for a never-synced id", result.Modified)
	}
}

func TestSyncModifiedOverwrites(t *testing.T) {
	repo := newTestStorage(t)
	user := seedUser(t, repo)
	seedAccount(t, repo, user.ID, "token-1")

	updated := addedItem("txn-1", 20.00)
	updated.MerchantName = "Renamed Cafe"

	fb := newFakeBank()
	fb.pages["token-1"] = []bank.SyncPage{
		{Added: []bank.Transaction{addedItem("txn-1", 12.50)}, NextCursor: "c1"},
		{Modified: []bank.Transaction{updated}, NextCursor: "c2"},
	}
	svc := NewSyncService(repo, fb, nil)

	if _, err := svc.SyncUser(context.Background(), user); err != nil {
		t.Fatalf("first sync: %v", err)
	}
	result, err := svc.SyncUser(context.Background(), user)
	if err != nil {
		t.Fatalf("second sync: %v", err)
	}
	if result.Modified != 1 {
		t.Errorf("modified = %d, want 1", result.Modified)
	}

	rows, err := repo.ListTransactions(context.Background(), user.ID, 10)
	if err != nil {
		t.Fatalf("ListTransactions: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("got %d rows, want 1", len(rows))
	}
	if rows[0].MerchantName != "Renamed Cafe" {
		t.Errorf("merchant = %q, want %q", rows[0].MerchantName, "Renamed Cafe")
	}
	if !rows[0].Amount.Equal(decimal.NewFromFloat(20.00)) {
		t.Errorf("amount = %s, want 20", rows[0].Amount)
	}
}

func TestSyncPartialFailureIsolation(t *testing.T) {
	repo := newTestStorage(t)
	user := seedUser(t, repo)
	seedAccount(t, repo, user.ID, "token-bad")
	seedAccount(t, repo, user.ID, "token-good")

	fb := newFakeBank()
	fb.fail["token-bad"] = fmt.Errorf("institution down")
	fb.pages["token-good"] = []bank.SyncPage{
		{Added: []bank.Transaction{addedItem("txn-1", 5.00)}, NextCursor: "c1"},
	}
	svc := NewSyncService(repo, fb, nil)

	result, err := svc.SyncUser(context.Background(), user)
	if err != nil {
		t.Fatalf("SyncUser should not fail outright: %v", err)
	}
	if result.Added != 1 {
		t.Errorf("added = %d, want 1 from the healthy account", result.Added)
	}
	if len(result.Warnings) != 1 {
		t.Fatalf("got %d warnings, want 1", len(result.Warnings))
	}
	if !strings.Contains(result.Warnings[0], "institution down") {
		t.Errorf("warning %q should carry the provider message", result.Warnings[0])
	}
}

func TestSyncGuardBlocksConcurrentRun(t *testing.T) {
	repo := newTestStorage(t)
	user := seedUser(t, repo)
	account := seedAccount(t, repo, user.ID, "token-1")

	ok, err := repo.TryBeginSync(context.Background(), account.ID)
	if err != nil || !ok {
		t.Fatalf("pre-acquire guard: ok=%v err=%v", ok, err)
	}

	fb := newFakeBank()
	fb.pages["token-1"] = []bank.SyncPage{
		{Added: []bank.Transaction{addedItem("txn-1", 5.00)}, NextCursor: "c1"},
	}
	svc := NewSyncService(repo, fb, nil)

	result, err := svc.SyncUser(context.Background(), user)
	if err != nil {
		t.Fatalf("SyncUser: %v", err)
	}
	if result.Added != 0 {
		t.Errorf("added = %d, want 0 while the guard is held", result.Added)
	}
	if len(result.Warnings) != 1 {
		t.Errorf("got %d warnings, want 1 for the guarded account", len(result.Warnings))
	}
}

func TestMirrorTransactionDefaults(t *testing.T) {
	svc := NewSyncService(nil, nil, nil)
	account := core.BankAccount{ID: 7, UserID: 3}

	t.Run("merchant priority and date fallback", func(t *testing.T) {
		item := bank.Transaction{
			TransactionID: "txn-1",
			Amount:        decimal.NewFromFloat(-12.50),
			Name:          "RAW DESCRIPTION",
			Date:          "2025-07-04",
		}
		got := svc.mirrorTransaction(account, item)
		if got.MerchantName != "RAW DESCRIPTION" {
			t.Errorf("merchant = %q, want raw description fallback", got.MerchantName)
		}
		if got.Category != core.UncategorizedCategory {
			t.Errorf("category = %q, want %q", got.Category, core.UncategorizedCategory)
		}
		want := time.Date(2025, 7, 4, 0, 0, 0, 0, time.UTC)
		if !got.AuthorizedDate.Equal(want) {
			t.Errorf("authorized date = %v, want posting-date fallback %v", got.AuthorizedDate, want)
		}
		if got.Amount.IsNegative() {
			t.Errorf("amount = %s, want absolute value", got.Amount)
		}
	})

	t.Run("unknown merchant literal", func(t *testing.T) {
		item := bank.Transaction{TransactionID: "txn-2", Date: "2025-07-04"}
		got := svc.mirrorTransaction(account, item)
		if got.MerchantName != core.UnknownMerchant {
			t.Errorf("merchant = %q, want %q", got.MerchantName, core.UnknownMerchant)
		}
	})
}
