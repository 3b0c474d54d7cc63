package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"budgetbox/internal/core"
	"budgetbox/internal/storage"
)

// LedgerService owns income and expense stream CRUD, including the amount
// sign conventions and the stream -> budget -> user ownership checks.
type LedgerService struct {
	storage *storage.SQLiteRepository
}

func NewLedgerService(storage *storage.SQLiteRepository) *LedgerService {
	return &LedgerService{storage: storage}
}

// CreateStreamInput is the payload for a new ledger entry. Date and
// BudgetName select the target budget the same way GET /budget/ does.
type CreateStreamInput struct {
	BudgetName   string
	Date         string
	MerchantName string
	Description  string
	Amount       string
	Category     string
}

// UpdateStreamInput carries a partial update; only non-nil fields are
// applied.
type UpdateStreamInput struct {
	MerchantName *string
	Description  *string
	Amount       *string
	Category     *string
}

// Create validates and inserts a stream into the month's budget, creating
// the budget on first touch. The amount sign is force-corrected for the
// kind no matter what the client sent.
func (s *LedgerService) Create(ctx context.Context, user core.User, kind core.StreamKind, in CreateStreamInput) (core.Stream, error) {
	amount, err := core.ParseAmount(in.Amount)
	if err != nil {
		return core.Stream{}, err
	}

	name := in.BudgetName
	if name == "" {
		name = core.DefaultBudgetName
	}
	budget, err := s.storage.GetOrCreateBudget(ctx, user.ID, name, core.ParseMonth(in.Date, time.Now()))
	if err != nil {
		return core.Stream{}, fmt.Errorf("resolve budget: %w", err)
	}

	category := strings.TrimSpace(in.Category)
	if category == "" {
		category = kind.DefaultCategory()
	}

	stream := core.Stream{
		BudgetID:     budget.ID,
		MerchantName: strings.TrimSpace(in.MerchantName),
		Description:  strings.TrimSpace(in.Description),
		Amount:       core.CoerceSign(kind, amount),
		Category:     category,
	}
	if err := stream.Validate(); err != nil {
		return core.Stream{}, err
	}

	created, err := s.storage.CreateStream(ctx, kind, stream)
	if err != nil {
		return core.Stream{}, err
	}

	slog.InfoContext(ctx, "Stream created",
		"kind", kind,
		"stream_id", created.ID,
		"budget_id", budget.ID,
		"merchant", created.MerchantName,
		"amount", core.FormatAmount(created.Amount))

	return created, nil
}

// Update applies a partial update to a stream the user owns. The amount is
// re-validated and re-signed exactly as on create.
func (s *LedgerService) Update(ctx context.Context, user core.User, kind core.StreamKind, id int64, in UpdateStreamInput) (core.Stream, error) {
	stream, ownerID, err := s.storage.GetStream(ctx, kind, id)
	if err != nil {
		return core.Stream{}, err
	}
	if ownerID != user.ID {
		return core.Stream{}, core.ErrForbidden
	}

	if in.MerchantName != nil {
		stream.MerchantName = strings.TrimSpace(*in.MerchantName)
	}
	if in.Description != nil {
		stream.Description = strings.TrimSpace(*in.Description)
	}
	if in.Category != nil {
		stream.Category = strings.TrimSpace(*in.Category)
	}
	if in.Amount != nil {
		amount, err := core.ParseAmount(*in.Amount)
		if err != nil {
			return core.Stream{}, err
		}
		stream.Amount = core.CoerceSign(kind, amount)
	}
	if err := stream.Validate(); err != nil {
		return core.Stream{}, err
	}

	if err := s.storage.UpdateStream(ctx, kind, stream); err != nil {
		return core.Stream{}, err
	}
	return stream, nil
}

// Delete removes a stream the user owns and returns a snapshot of the
// deleted entry for client display.
func (s *LedgerService) Delete(ctx context.Context, user core.User, kind core.StreamKind, id int64) (core.Stream, error) {
	stream, ownerID, err := s.storage.GetStream(ctx, kind, id)
	if err != nil {
		return core.Stream{}, err
	}
	if ownerID != user.ID {
		return core.Stream{}, core.ErrForbidden
	}
	if err := s.storage.DeleteStream(ctx, kind, id); err != nil {
		return core.Stream{}, err
	}

	slog.InfoContext(ctx, "Stream deleted", "kind", kind, "stream_id", id)
	return stream, nil
}
