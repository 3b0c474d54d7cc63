package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"budgetbox/internal/core"
)

const bankAccountColumns = `id, user_id, plaid_account_id, plaid_access_token, plaid_item_id,
	account_name, account_type, account_subtype, mask, institution_name,
	is_active, sync_cursor, last_synced_at`

// CreateBankAccount records a newly linked external account.
func (r *SQLiteRepository) CreateBankAccount(ctx context.Context, a core.BankAccount) (core.BankAccount, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO bank_accounts (user_id, plaid_account_id, plaid_access_token, plaid_item_id,
			account_name, account_type, account_subtype, mask, institution_name)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.UserID, a.PlaidAccountID, a.PlaidAccessToken, a.PlaidItemID,
		a.AccountName, a.AccountType, a.AccountSubtype, a.Mask, a.InstitutionName)
	if err != nil {
		return core.BankAccount{}, fmt.Errorf("create bank account: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.BankAccount{}, fmt.Errorf("read bank account id: %w", err)
	}
	a.ID = id
	a.IsActive = true
	return a, nil
}

// GetBankAccount fetches a bank account by id.
func (r *SQLiteRepository) GetBankAccount(ctx context.Context, id int64) (core.BankAccount, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+bankAccountColumns+` FROM bank_accounts WHERE id = ?`, id)
	return scanBankAccount(row)
}

// GetBankAccountByPlaidID looks an account up by its external id, the
// uniqueness key for linking.
func (r *SQLiteRepository) GetBankAccountByPlaidID(ctx context.Context, plaidAccountID string) (core.BankAccount, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+bankAccountColumns+` FROM bank_accounts WHERE plaid_account_id = ?`, plaidAccountID)
	return scanBankAccount(row)
}

// ListActiveBankAccounts returns the user's linked, still-active accounts.
func (r *SQLiteRepository) ListActiveBankAccounts(ctx context.Context, userID int64) ([]core.BankAccount, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+bankAccountColumns+` FROM bank_accounts
		 WHERE user_id = ? AND is_active = 1
		 ORDER BY institution_name, account_name`, userID)
	if err != nil {
		return nil, fmt.Errorf("list bank accounts: %w", err)
	}
	defer rows.Close()

	var accounts []core.BankAccount
	for rows.Next() {
		account, err := scanBankAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, account)
	}
	return accounts, rows.Err()
}

// DeactivateBankAccount unlinks an account. Mirrored transactions are
// retained.
func (r *SQLiteRepository) DeactivateBankAccount(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE bank_accounts SET is_active = 0 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deactivate bank account: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deactivate bank account rows affected: %w", err)
	}
	if affected == 0 {
		return core.ErrNotFound
	}
	return nil
}

// TryBeginSync flips the account's syncing flag with a compare-and-swap,
// guarding against two concurrent syncs double-fetching the same cursor.
// It returns false when another sync holds the flag.
func (r *SQLiteRepository) TryBeginSync(ctx context.Context, id int64) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE bank_accounts SET syncing = 1 WHERE id = ? AND syncing = 0`, id)
	if err != nil {
		return false, fmt.Errorf("begin sync: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("begin sync rows affected: %w", err)
	}
	return affected == 1, nil
}

// ResetSyncFlags releases every held syncing flag and returns how many
// were released. A crash between TryBeginSync and EndSync leaves the flag
// set with no holder; processes call this once at startup so those
// accounts are not locked out of syncing forever.
func (r *SQLiteRepository) ResetSyncFlags(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE bank_accounts SET syncing = 0 WHERE syncing = 1`)
	if err != nil {
		return 0, fmt.Errorf("reset sync flags: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("reset sync flags rows affected: %w", err)
	}
	return affected, nil
}

// EndSync releases the syncing flag.
func (r *SQLiteRepository) EndSync(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx,
		`UPDATE bank_accounts SET syncing = 0 WHERE id = ?`, id); err != nil {
		return fmt.Errorf("end sync: %w", err)
	}
	return nil
}

// CommitSyncCursor persists the advanced cursor and sync timestamp. Called
// only after all pages for the account have been applied locally, so a
// crash mid-sync never moves the cursor past unapplied data.
func (r *SQLiteRepository) CommitSyncCursor(ctx context.Context, id int64, cursor string, syncedAt time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE bank_accounts SET sync_cursor = ?, last_synced_at = ? WHERE id = ?`,
		cursor, syncedAt.UTC().Format(time.RFC3339), id)
	if err != nil {
		return fmt.Errorf("commit sync cursor: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("commit sync cursor rows affected: %w", err)
	}
	if affected == 0 {
		return core.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBankAccount(row rowScanner) (core.BankAccount, error) {
	var a core.BankAccount
	var isActive int
	var lastSynced string
	err := row.Scan(&a.ID, &a.UserID, &a.PlaidAccountID, &a.PlaidAccessToken, &a.PlaidItemID,
		&a.AccountName, &a.AccountType, &a.AccountSubtype, &a.Mask, &a.InstitutionName,
		&isActive, &a.SyncCursor, &lastSynced)
	if errors.Is(err, sql.ErrNoRows) {
		return core.BankAccount{}, core.ErrNotFound
	}
	if err != nil {
		return core.BankAccount{}, fmt.Errorf("scan bank account: %w", err)
	}
	a.IsActive = isActive == 1
	if lastSynced != "" {
		a.LastSyncedAt, _ = time.Parse(time.RFC3339, lastSynced)
	}
	return a, nil
}
