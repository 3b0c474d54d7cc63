package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"budgetbox/internal/core"
)

// GetOrCreateUserByClerkID resolves the local user for an identity-provider
// subject, creating it with a placeholder email on first sight. The second
// return value reports whether a new row was created.
func (r *SQLiteRepository) GetOrCreateUserByClerkID(ctx context.Context, clerkUserID string) (core.User, bool, error) {
	user, err := r.getUserByClerkID(ctx, clerkUserID)
	if err == nil {
		return user, false, nil
	}
	if !errors.Is(err, core.ErrNotFound) {
		return core.User{}, false, err
	}

	email := fmt.Sprintf("user_%s@example.com", clerkUserID)
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO users (clerk_user_id, email, budget_id) VALUES (?, ?, ?)`,
		clerkUserID, email, clerkUserID)
	if err != nil {
		// A concurrent first request may have inserted the same subject.
		if existing, lookupErr := r.getUserByClerkID(ctx, clerkUserID); lookupErr == nil {
			return existing, false, nil
		}
		return core.User{}, false, fmt.Errorf("create user: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return core.User{}, false, fmt.Errorf("read user id: %w", err)
	}

	slog.InfoContext(ctx, "User created on first sign-in", "user_id", id, "clerk_user_id", clerkUserID)

	return core.User{
		ID:          id,
		ClerkUserID: clerkUserID,
		Email:       email,
		BudgetID:    clerkUserID,
	}, true, nil
}

// GetUser fetches a user by local id.
func (r *SQLiteRepository) GetUser(ctx context.Context, id int64) (core.User, error) {
	var user core.User
	var clerkID sql.NullString
	err := r.db.QueryRowContext(ctx,
		`SELECT id, clerk_user_id, email, budget_id FROM users WHERE id = ?`, id).
		Scan(&user.ID, &clerkID, &user.Email, &user.BudgetID)
	if errors.Is(err, sql.ErrNoRows) {
		return core.User{}, core.ErrNotFound
	}
	if err != nil {
		return core.User{}, fmt.Errorf("get user: %w", err)
	}
	user.ClerkUserID = clerkID.String
	return user, nil
}

// ListUserIDsWithActiveAccounts returns the users the sync worker should
// visit.
func (r *SQLiteRepository) ListUserIDsWithActiveAccounts(ctx context.Context) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT DISTINCT user_id FROM bank_accounts WHERE is_active = 1`)
	if err != nil {
		return nil, fmt.Errorf("list users with active accounts: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan user id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *SQLiteRepository) getUserByClerkID(ctx context.Context, clerkUserID string) (core.User, error) {
	var user core.User
	var clerkID sql.NullString
	err := r.db.QueryRowContext(ctx,
		`SELECT id, clerk_user_id, email, budget_id FROM users WHERE clerk_user_id = ?`, clerkUserID).
		Scan(&user.ID, &clerkID, &user.Email, &user.BudgetID)
	if errors.Is(err, sql.ErrNoRows) {
		return core.User{}, core.ErrNotFound
	}
	if err != nil {
		return core.User{}, fmt.Errorf("get user by clerk id: %w", err)
	}
	user.ClerkUserID = clerkID.String
	return user, nil
}
