package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"budgetbox/internal/core"

	"github.com/shopspring/decimal"
)

func streamTable(kind core.StreamKind) string {
	if kind == core.Income {
		return "income_streams"
	}
	return "expense_streams"
}

// CreateStream inserts a ledger entry. The amount must already carry the
// kind's coerced sign.
func (r *SQLiteRepository) CreateStream(ctx context.Context, kind core.StreamKind, s core.Stream) (core.Stream, error) {
	res, err := r.db.ExecContext(ctx,
		fmt.Sprintf(`INSERT INTO %s (budget_id, merchant_name, description, amount, category) VALUES (?, ?, ?, ?, ?)`, streamTable(kind)),
		s.BudgetID, s.MerchantName, s.Description, core.FormatAmount(s.Amount), s.Category)
	if err != nil {
		return core.Stream{}, fmt.Errorf("create %s stream: %w", kind, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.Stream{}, fmt.Errorf("read stream id: %w", err)
	}
	s.ID = id
	return s, nil
}

// GetStream fetches a ledger entry together with the owning user id, so
// callers can enforce the stream -> budget -> user ownership chain in one
// query.
func (r *SQLiteRepository) GetStream(ctx context.Context, kind core.StreamKind, id int64) (core.Stream, int64, error) {
	var s core.Stream
	var ownerID int64
	var amount string
	err := r.db.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT s.id, s.budget_id, s.merchant_name, s.description, s.amount, s.category, b.user_id
			FROM %s s JOIN budgets b ON b.id = s.budget_id WHERE s.id = ?`, streamTable(kind)), id).
		Scan(&s.ID, &s.BudgetID, &s.MerchantName, &s.Description, &amount, &s.Category, &ownerID)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Stream{}, 0, core.ErrNotFound
	}
	if err != nil {
		return core.Stream{}, 0, fmt.Errorf("get %s stream: %w", kind, err)
	}
	s.Amount, err = decimal.NewFromString(amount)
	if err != nil {
		return core.Stream{}, 0, fmt.Errorf("parse stream amount: %w", err)
	}
	return s, ownerID, nil
}

// UpdateStream overwrites a ledger entry's mutable fields.
func (r *SQLiteRepository) UpdateStream(ctx context.Context, kind core.StreamKind, s core.Stream) error {
	res, err := r.db.ExecContext(ctx,
		fmt.Sprintf(`UPDATE %s SET merchant_name = ?, description = ?, amount = ?, category = ? WHERE id = ?`, streamTable(kind)),
		s.MerchantName, s.Description, core.FormatAmount(s.Amount), s.Category, s.ID)
	if err != nil {
		return fmt.Errorf("update %s stream: %w", kind, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update stream rows affected: %w", err)
	}
	if affected == 0 {
		return core.ErrNotFound
	}
	return nil
}

// DeleteStream removes a ledger entry.
func (r *SQLiteRepository) DeleteStream(ctx context.Context, kind core.StreamKind, id int64) error {
	res, err := r.db.ExecContext(ctx,
		fmt.Sprintf(`DELETE FROM %s WHERE id = ?`, streamTable(kind)), id)
	if err != nil {
		return fmt.Errorf("delete %s stream: %w", kind, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete stream rows affected: %w", err)
	}
	if affected == 0 {
		return core.ErrNotFound
	}
	return nil
}

// ListStreams returns a budget's entries of one kind, insertion-ordered.
func (r *SQLiteRepository) ListStreams(ctx context.Context, kind core.StreamKind, budgetID int64) ([]core.Stream, error) {
	rows, err := r.db.QueryContext(ctx,
		fmt.Sprintf(`SELECT id, budget_id, merchant_name, description, amount, category FROM %s WHERE budget_id = ? ORDER BY id`, streamTable(kind)),
		budgetID)
	if err != nil {
		return nil, fmt.Errorf("list %s streams: %w", kind, err)
	}
	defer rows.Close()

	var streams []core.Stream
	for rows.Next() {
		var s core.Stream
		var amount string
		if err := rows.Scan(&s.ID, &s.BudgetID, &s.MerchantName, &s.Description, &amount, &s.Category); err != nil {
			return nil, fmt.Errorf("scan stream: %w", err)
		}
		s.Amount, err = decimal.NewFromString(amount)
		if err != nil {
			return nil, fmt.Errorf("parse stream amount: %w", err)
		}
		streams = append(streams, s)
	}
	return streams, rows.Err()
}
