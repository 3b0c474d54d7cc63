package services

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"budgetbox/internal/core"
	"budgetbox/internal/storage"
)

// ApprovalService copies a mirrored bank transaction into the ledger as an
// expense entry. The source Transaction row is left untouched, so a second
// approval of the same transaction creates a second expense entry; callers
// track approval state themselves.
type ApprovalService struct {
	storage *storage.SQLiteRepository
}

func NewApprovalService(storage *storage.SQLiteRepository) *ApprovalService {
	return &ApprovalService{storage: storage}
}

// ApproveInput selects the transaction and, optionally, the target budget.
// With BudgetID set the expense lands in that budget (ownership checked);
// with Date set, in that month's default budget; with neither, in the
// default budget of the transaction's own month.
type ApproveInput struct {
	TransactionID int64
	Description   string
	BudgetID      *int64
	Date          string
}

// Approve converts the transaction into an expense stream. The amount is
// always the negated absolute value of the transaction amount.
func (s *ApprovalService) Approve(ctx context.Context, user core.User, in ApproveInput) (core.Stream, error) {
	t, err := s.storage.GetTransaction(ctx, in.TransactionID)
	if err != nil {
		return core.Stream{}, err
	}
	if t.UserID != user.ID {
		return core.Stream{}, core.ErrForbidden
	}

	var budget core.Budget
	switch {
	case in.BudgetID != nil:
		budget, err = s.storage.GetBudget(ctx, *in.BudgetID)
		if err != nil {
			return core.Stream{}, err
		}
		if budget.UserID != user.ID {
			return core.Stream{}, core.ErrForbidden
		}
	case in.Date != "":
		budget, err = s.storage.GetOrCreateBudget(ctx, user.ID, core.DefaultBudgetName,
			core.ParseMonth(in.Date, time.Now()))
		if err != nil {
			return core.Stream{}, err
		}
	default:
		budget, err = s.storage.GetOrCreateBudget(ctx, user.ID, core.DefaultBudgetName,
			core.FirstOfMonth(t.AuthorizedDate))
		if err != nil {
			return core.Stream{}, err
		}
	}

	description := strings.TrimSpace(in.Description)
	if description == "" {
		description = t.MerchantName
	}

	stream := core.Stream{
		BudgetID:     budget.ID,
		MerchantName: t.MerchantName,
		Description:  description,
		Amount:       t.Amount.Abs().Neg(),
		Category:     t.Category,
	}
	created, err := s.storage.CreateStream(ctx, core.Expense, stream)
	if err != nil {
		return core.Stream{}, err
	}

	slog.InfoContext(ctx, "Transaction approved into ledger",
		"transaction_id", t.ID,
		"stream_id", created.ID,
		"budget_id", budget.ID,
		"amount", core.FormatAmount(created.Amount))

	return created, nil
}
