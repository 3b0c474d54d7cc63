package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"budgetbox/internal/core"
)

// GetOrCreateBudget resolves the budget for (user, name, month), creating
// it if absent. date must already be first-of-month; callers normalize via
// core.ParseMonth. The lookup is idempotent: two calls with identical
// arguments return the same row.
func (r *SQLiteRepository) GetOrCreateBudget(ctx context.Context, userID int64, name string, date time.Time) (core.Budget, error) {
	budget, err := r.GetBudgetByKey(ctx, userID, name, date)
	if err == nil {
		return budget, nil
	}
	if !errors.Is(err, core.ErrNotFound) {
		return core.Budget{}, err
	}

	res, err := r.db.ExecContext(ctx,
		`INSERT INTO budgets (user_id, name, date) VALUES (?, ?, ?)`,
		userID, name, date.Format(core.DateFormat))
	if err != nil {
		// Unique (user, name, date) may have been raced by a parallel
		// request; re-read before giving up.
		if existing, lookupErr := r.GetBudgetByKey(ctx, userID, name, date); lookupErr == nil {
			return existing, nil
		}
		return core.Budget{}, fmt.Errorf("create budget: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return core.Budget{}, fmt.Errorf("read budget id: %w", err)
	}

	return core.Budget{ID: id, UserID: userID, Name: name, Date: date}, nil
}

// GetBudget fetches a budget by id.
func (r *SQLiteRepository) GetBudget(ctx context.Context, id int64) (core.Budget, error) {
	var budget core.Budget
	var date string
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, name, date FROM budgets WHERE id = ?`, id).
		Scan(&budget.ID, &budget.UserID, &budget.Name, &date)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Budget{}, core.ErrNotFound
	}
	if err != nil {
		return core.Budget{}, fmt.Errorf("get budget: %w", err)
	}
	budget.Date, err = core.ParseDate(date)
	if err != nil {
		return core.Budget{}, fmt.Errorf("parse budget date: %w", err)
	}
	return budget, nil
}

// ListBudgets returns all of a user's budgets ordered by date descending.
func (r *SQLiteRepository) ListBudgets(ctx context.Context, userID int64) ([]core.Budget, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, name, date FROM budgets WHERE user_id = ? ORDER BY date DESC, id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	defer rows.Close()

	var budgets []core.Budget
	for rows.Next() {
		var budget core.Budget
		var date string
		if err := rows.Scan(&budget.ID, &budget.UserID, &budget.Name, &date); err != nil {
			return nil, fmt.Errorf("scan budget: %w", err)
		}
		budget.Date, err = core.ParseDate(date)
		if err != nil {
			return nil, fmt.Errorf("parse budget date: %w", err)
		}
		budgets = append(budgets, budget)
	}
	return budgets, rows.Err()
}

// RenameBudget updates a budget's name.
func (r *SQLiteRepository) RenameBudget(ctx context.Context, id int64, name string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE budgets SET name = ? WHERE id = ?`, name, id)
	if err != nil {
		return fmt.Errorf("rename budget: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rename budget rows affected: %w", err)
	}
	if affected == 0 {
		return core.ErrNotFound
	}
	return nil
}

// DeleteBudget removes a budget and cascades to its streams, returning the
// cascaded row counts for client confirmation.
func (r *SQLiteRepository) DeleteBudget(ctx context.Context, id int64) (incomes, expenses int64, err error) {
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM income_streams WHERE budget_id = ?`, id).Scan(&incomes); err != nil {
		return 0, 0, fmt.Errorf("count income streams: %w", err)
	}
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM expense_streams WHERE budget_id = ?`, id).Scan(&expenses); err != nil {
		return 0, 0, fmt.Errorf("count expense streams: %w", err)
	}

	res, err := r.db.ExecContext(ctx, `DELETE FROM budgets WHERE id = ?`, id)
	if err != nil {
		return 0, 0, fmt.Errorf("delete budget: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, 0, fmt.Errorf("delete budget rows affected: %w", err)
	}
	if affected == 0 {
		return 0, 0, core.ErrNotFound
	}
	return incomes, expenses, nil
}

// GetBudgetByKey fetches a budget by its unique (user, name, month) key.
func (r *SQLiteRepository) GetBudgetByKey(ctx context.Context, userID int64, name string, date time.Time) (core.Budget, error) {
	var budget core.Budget
	var stored string
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, name, date FROM budgets WHERE user_id = ? AND name = ? AND date = ?`,
		userID, name, date.Format(core.DateFormat)).
		Scan(&budget.ID, &budget.UserID, &budget.Name, &stored)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Budget{}, core.ErrNotFound
	}
	if err != nil {
		return core.Budget{}, fmt.Errorf("get budget by key: %w", err)
	}
	budget.Date, err = core.ParseDate(stored)
	if err != nil {
		return core.Budget{}, fmt.Errorf("parse budget date: %w", err)
	}
	return budget, nil
}
