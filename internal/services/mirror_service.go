package services

import (
	"context"
	"log/slog"
	"strings"

	"budgetbox/internal/core"
	"budgetbox/internal/storage"
)

// transactionListLimit caps the transaction listing, matching the client's
// "last 50" view.
const transactionListLimit = 50

// MirrorService exposes the locally mirrored transactions for reading and
// client-side edits. Reconciliation itself belongs to SyncService.
type MirrorService struct {
	storage *storage.SQLiteRepository
}

func NewMirrorService(storage *storage.SQLiteRepository) *MirrorService {
	return &MirrorService{storage: storage}
}

// UpdateTransactionInput is a partial update of a mirrored row's display
// fields.
type UpdateTransactionInput struct {
	MerchantName   *string
	Category       *string
	AuthorizedDate *string
	DatePaid       *string
}

// List returns the user's most recent mirrored transactions.
func (s *MirrorService) List(ctx context.Context, user core.User) ([]storage.TransactionRow, error) {
	return s.storage.ListTransactions(ctx, user.ID, transactionListLimit)
}

// Update applies client edits to a mirrored transaction the user owns.
func (s *MirrorService) Update(ctx context.Context, user core.User, id int64, in UpdateTransactionInput) (core.Transaction, error) {
	t, err := s.storage.GetTransaction(ctx, id)
	if err != nil {
		return core.Transaction{}, err
	}
	if t.UserID != user.ID {
		return core.Transaction{}, core.ErrForbidden
	}

	if in.MerchantName != nil {
		t.MerchantName = strings.TrimSpace(*in.MerchantName)
	}
	if in.Category != nil {
		t.Category = strings.TrimSpace(*in.Category)
	}
	if in.AuthorizedDate != nil {
		parsed, err := core.ParseDate(*in.AuthorizedDate)
		if err != nil {
			return core.Transaction{}, core.ErrInvalidDate
		}
		t.AuthorizedDate = parsed
	}
	if in.DatePaid != nil {
		parsed, err := core.ParseDate(*in.DatePaid)
		if err != nil {
			return core.Transaction{}, core.ErrInvalidDate
		}
		t.DatePaid = parsed
	}

	if err := s.storage.UpdateTransaction(ctx, t); err != nil {
		return core.Transaction{}, err
	}
	return t, nil
}

// Delete removes a mirrored transaction the user owns and returns a
// snapshot for client display.
func (s *MirrorService) Delete(ctx context.Context, user core.User, id int64) (core.Transaction, error) {
	t, err := s.storage.GetTransaction(ctx, id)
	if err != nil {
		return core.Transaction{}, err
	}
	if t.UserID != user.ID {
		return core.Transaction{}, core.ErrForbidden
	}
	if err := s.storage.DeleteTransaction(ctx, id); err != nil {
		return core.Transaction{}, err
	}

	slog.InfoContext(ctx, "Mirrored transaction deleted", "transaction_id", id, "user_id", user.ID)
	return t, nil
}
