package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"budgetbox/internal/core"

	"github.com/shopspring/decimal"
)

// TransactionRow is a mirrored transaction joined with its account's
// display names for API responses.
type TransactionRow struct {
	core.Transaction
	BankAccountName string
	InstitutionName string
}

// UpsertTransaction inserts a mirrored transaction keyed by its external
// id. An existing row with the same plaid_transaction_id is left untouched
// and created=false is returned; this is the sync de-duplication guarantee.
func (r *SQLiteRepository) UpsertTransaction(ctx context.Context, t core.Transaction) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO transactions (user_id, bank_account_id, plaid_transaction_id, plaid_account_id,
			amount, merchant_name, authorized_date, date_paid, category)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(plaid_transaction_id) DO NOTHING`,
		t.UserID, t.BankAccountID, t.PlaidTransactionID, t.PlaidAccountID,
		core.FormatAmount(t.Amount), t.MerchantName,
		t.AuthorizedDate.Format(core.DateFormat), t.DatePaid.Format(core.DateFormat), t.Category)
	if err != nil {
		return false, fmt.Errorf("upsert transaction: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("upsert transaction rows affected: %w", err)
	}
	return affected == 1, nil
}

// UpdateTransactionByPlaidID overwrites the mutable fields of a mirrored
// row during sync. A missing row returns core.ErrNotFound; sync treats
// that as a silent skip.
func (r *SQLiteRepository) UpdateTransactionByPlaidID(ctx context.Context, t core.Transaction) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE transactions SET amount = ?, merchant_name = ?, authorized_date = ?, date_paid = ?, category = ?, plaid_account_id = ?
		 WHERE plaid_transaction_id = ?`,
		core.FormatAmount(t.Amount), t.MerchantName,
		t.AuthorizedDate.Format(core.DateFormat), t.DatePaid.Format(core.DateFormat),
		t.Category, t.PlaidAccountID, t.PlaidTransactionID)
	if err != nil {
		return fmt.Errorf("update transaction by plaid id: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update transaction rows affected: %w", err)
	}
	if affected == 0 {
		return core.ErrNotFound
	}
	return nil
}

// DeleteTransactionByPlaidID removes a mirrored row during sync. A missing
// row returns core.ErrNotFound; absence is not an error to the sync loop.
func (r *SQLiteRepository) DeleteTransactionByPlaidID(ctx context.Context, plaidTransactionID string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM transactions WHERE plaid_transaction_id = ?`, plaidTransactionID)
	if err != nil {
		return fmt.Errorf("delete transaction by plaid id: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete transaction rows affected: %w", err)
	}
	if affected == 0 {
		return core.ErrNotFound
	}
	return nil
}

// GetTransaction fetches one mirrored transaction by local id.
func (r *SQLiteRepository) GetTransaction(ctx context.Context, id int64) (core.Transaction, error) {
	var t core.Transaction
	var amount, authorized, paid string
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, bank_account_id, plaid_transaction_id, plaid_account_id,
			amount, merchant_name, authorized_date, date_paid, category, created_at
		 FROM transactions WHERE id = ?`, id).
		Scan(&t.ID, &t.UserID, &t.BankAccountID, &t.PlaidTransactionID, &t.PlaidAccountID,
			&amount, &t.MerchantName, &authorized, &paid, &t.Category, &t.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, core.ErrNotFound
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction: %w", err)
	}
	if err := fillTransactionFields(&t, amount, authorized, paid); err != nil {
		return core.Transaction{}, err
	}
	return t, nil
}

// CountTransactionsByPlaidID reports how many rows exist for an external
// id. Used by tests to assert the dedup invariant; the unique index keeps
// it at most 1.
func (r *SQLiteRepository) CountTransactionsByPlaidID(ctx context.Context, plaidTransactionID string) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM transactions WHERE plaid_transaction_id = ?`, plaidTransactionID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count transactions: %w", err)
	}
	return n, nil
}

// UpdateTransaction applies client edits to display fields of a mirrored
// row.
func (r *SQLiteRepository) UpdateTransaction(ctx context.Context, t core.Transaction) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE transactions SET merchant_name = ?, category = ?, authorized_date = ?, date_paid = ? WHERE id = ?`,
		t.MerchantName, t.Category,
		t.AuthorizedDate.Format(core.DateFormat), t.DatePaid.Format(core.DateFormat), t.ID)
	if err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update transaction rows affected: %w", err)
	}
	if affected == 0 {
		return core.ErrNotFound
	}
	return nil
}

// DeleteTransaction removes a mirrored row by local id.
func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete transaction rows affected: %w", err)
	}
	if affected == 0 {
		return core.ErrNotFound
	}
	return nil
}

// ListTransactions returns the user's most recent mirrored transactions,
// newest authorized date first, joined with account display names.
func (r *SQLiteRepository) ListTransactions(ctx context.Context, userID int64, limit int) ([]TransactionRow, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT t.id, t.user_id, t.bank_account_id, t.plaid_transaction_id, t.plaid_account_id,
			t.amount, t.merchant_name, t.authorized_date, t.date_paid, t.category, t.created_at,
			a.account_name, a.institution_name
		 FROM transactions t
		 JOIN bank_accounts a ON a.id = t.bank_account_id
		 WHERE t.user_id = ?
		 ORDER BY t.authorized_date DESC, t.id DESC
		 LIMIT ?`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var result []TransactionRow
	for rows.Next() {
		var row TransactionRow
		var amount, authorized, paid string
		if err := rows.Scan(&row.ID, &row.UserID, &row.BankAccountID, &row.PlaidTransactionID, &row.PlaidAccountID,
			&amount, &row.MerchantName, &authorized, &paid, &row.Category, &row.CreatedAt,
			&row.BankAccountName, &row.InstitutionName); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		if err := fillTransactionFields(&row.Transaction, amount, authorized, paid); err != nil {
			return nil, err
		}
		result = append(result, row)
	}
	return result, rows.Err()
}

func fillTransactionFields(t *core.Transaction, amount, authorized, paid string) error {
	var err error
	t.Amount, err = decimal.NewFromString(amount)
	if err != nil {
		return fmt.Errorf("parse transaction amount: %w", err)
	}
	t.AuthorizedDate, err = core.ParseDate(authorized)
	if err != nil {
		return fmt.Errorf("parse authorized date: %w", err)
	}
	t.DatePaid, err = core.ParseDate(paid)
	if err != nil {
		return fmt.Errorf("parse paid date: %w", err)
	}
	return nil
}
