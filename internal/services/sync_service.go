package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"budgetbox/internal/bank"
	"budgetbox/internal/core"
	"budgetbox/internal/events"
	"budgetbox/internal/storage"
)

// ErrNoLinkedAccounts is returned when a sync is requested before any bank
// account has been linked.
var ErrNoLinkedAccounts = errors.New("no bank account linked")

// SyncService reconciles the local transaction mirror with the provider's
// incremental feed, one bank account at a time.
type SyncService struct {
	storage *storage.SQLiteRepository
	bank    bank.Client
	events  *events.Client
}

func NewSyncService(storage *storage.SQLiteRepository, bankClient bank.Client, eventsClient *events.Client) *SyncService {
	return &SyncService{storage: storage, bank: bankClient, events: eventsClient}
}

// CreatedTransaction pairs a newly mirrored transaction with its account's
// display name for the response payload.
type CreatedTransaction struct {
	Transaction core.Transaction
	AccountName string
}

// SyncResult aggregates a whole user's sync: applied counts, the rows
// created this run, and per-account warnings for failures that did not
// stop the other accounts.
type SyncResult struct {
	Added    int
	Modified int
	Removed  int
	Created  []CreatedTransaction
	Warnings []string
}

// SyncUser syncs every active linked account of the user. One account's
// failure is recorded as a warning and does not abort the rest.
func (s *SyncService) SyncUser(ctx context.Context, user core.User) (SyncResult, error) {
	accounts, err := s.storage.ListActiveBankAccounts(ctx, user.ID)
	if err != nil {
		return SyncResult{}, fmt.Errorf("list bank accounts: %w", err)
	}
	if len(accounts) == 0 {
		return SyncResult{}, ErrNoLinkedAccounts
	}

	var result SyncResult
	for _, account := range accounts {
		if account.PlaidAccessToken == "" {
			continue
		}

		accountResult, err := s.syncAccount(ctx, account)
		if err != nil {
			slog.WarnContext(ctx, "Account sync failed",
				"error", err,
				"bank_account_id", account.ID,
				"account_name", account.AccountName)
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("%s: %v", account.AccountName, err))
			continue
		}

		result.Added += accountResult.Added
		result.Modified += accountResult.Modified
		result.Removed += accountResult.Removed
		result.Created = append(result.Created, accountResult.Created...)
	}

	return result, nil
}

// syncAccount drives the cursor loop for one account: fetch every pending
// page, apply added/modified/removed locally, then commit the cursor. The
// cursor commit happens only after all pages are applied, so a crash
// mid-sync re-fetches from the old cursor and the upsert key absorbs the
// replayed adds.
func (s *SyncService) syncAccount(ctx context.Context, account core.BankAccount) (SyncResult, error) {
	ok, err := s.storage.TryBeginSync(ctx, account.ID)
	if err != nil {
		return SyncResult{}, err
	}
	if !ok {
		return SyncResult{}, core.ErrSyncInProgress
	}
	defer func() {
		if err := s.storage.EndSync(context.WithoutCancel(ctx), account.ID); err != nil {
			slog.ErrorContext(ctx, "Failed to release sync guard",
				"error", err, "bank_account_id", account.ID)
		}
	}()

	cursor := account.SyncCursor
	var added, modified []bank.Transaction
	var removed []string
	for {
		page, err := s.bank.SyncTransactions(ctx, account.PlaidAccessToken, cursor)
		if err != nil {
			return SyncResult{}, fmt.Errorf("%w: %v", core.ErrProvider, err)
		}
		added = append(added, page.Added...)
		modified = append(modified, page.Modified...)
		removed = append(removed, page.Removed...)
		cursor = page.NextCursor
		if !page.HasMore {
			break
		}
	}

	var result SyncResult
	for _, item := range added {
		t := s.mirrorTransaction(account, item)
		created, err := s.storage.UpsertTransaction(ctx, t)
		if err != nil {
			return SyncResult{}, fmt.Errorf("apply added: %w", err)
		}
		if created {
			result.Added++
			result.Created = append(result.Created, CreatedTransaction{
				Transaction: t,
				AccountName: account.AccountName,
			})
		}
	}

	for _, item := range modified {
		t := s.mirrorTransaction(account, item)
		err := s.storage.UpdateTransactionByPlaidID(ctx, t)
		if errors.Is(err, core.ErrNotFound) {
			// Never mirrored locally, or already covered by an add.
			continue
		}
		if err != nil {
			return SyncResult{}, fmt.Errorf("apply modified: %w", err)
		}
		result.Modified++
	}

	for _, id := range removed {
		err := s.storage.DeleteTransactionByPlaidID(ctx, id)
		if errors.Is(err, core.ErrNotFound) {
			continue
		}
		if err != nil {
			return SyncResult{}, fmt.Errorf("apply removed: %w", err)
		}
		result.Removed++
	}

	if err := s.storage.CommitSyncCursor(ctx, account.ID, cursor, time.Now()); err != nil {
		return SyncResult{}, err
	}

	slog.InfoContext(ctx, "Account synced",
		"bank_account_id", account.ID,
		"account_name", account.AccountName,
		"added", result.Added,
		"modified", result.Modified,
		"removed", result.Removed)

	s.publishSyncCompleted(ctx, account, result)

	return result, nil
}

// mirrorTransaction shapes a provider delta into a local mirror row:
// absolute amount, merchant-name priority, category default, authorized
// date falling back to the posting date.
func (s *SyncService) mirrorTransaction(account core.BankAccount, item bank.Transaction) core.Transaction {
	merchant := item.MerchantName
	if merchant == "" {
		merchant = item.Name
	}
	if merchant == "" {
		merchant = core.UnknownMerchant
	}

	category := item.Category
	if category == "" {
		category = core.UncategorizedCategory
	}

	datePaid, err := core.ParseDate(item.Date)
	if err != nil {
		datePaid = core.FirstOfMonth(time.Now())
	}
	authorized := datePaid
	if item.AuthorizedDate != "" {
		if parsed, err := core.ParseDate(item.AuthorizedDate); err == nil {
			authorized = parsed
		}
	}

	return core.Transaction{
		UserID:             account.UserID,
		BankAccountID:      account.ID,
		PlaidTransactionID: item.TransactionID,
		PlaidAccountID:     item.AccountID,
		Amount:             item.Amount.Abs(),
		MerchantName:       merchant,
		AuthorizedDate:     authorized,
		DatePaid:           datePaid,
		Category:           category,
	}
}

func (s *SyncService) publishSyncCompleted(ctx context.Context, account core.BankAccount, result SyncResult) {
	if s.events == nil {
		return
	}
	msg := &events.SyncCompletedMessage{
		UserID:        account.UserID,
		BankAccountID: account.ID,
		Added:         result.Added,
		Modified:      result.Modified,
		Removed:       result.Removed,
		Timestamp:     time.Now(),
	}
	if err := s.events.PublishSyncCompleted(ctx, msg); err != nil {
		// Event delivery is best-effort; the sync itself succeeded.
		slog.ErrorContext(ctx, "Failed to publish sync completed event",
			"error", err, "bank_account_id", account.ID)
	}
}
