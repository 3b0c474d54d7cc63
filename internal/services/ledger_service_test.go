package services

import (
	"context"
	"errors"
	"testing"

	"budgetbox/internal/core"
)

func TestCreateStreamSignCoercion(t *testing.T) {
	repo := newTestStorage(t)
	user := seedUser(t, repo)
	svc := NewLedgerService(repo)
	ctx := context.Background()

	tests := []struct {
		name   string
		kind   core.StreamKind
		amount string
		want   string
	}{
		{"income stays positive", core.Income, "2000", "2000.00"},
		{"negative income flipped positive", core.Income, "-2000", "2000.00"},
		{"expense stays negative", core.Expense, "-100", "-100.00"},
		{"positive expense flipped negative", core.Expense, "100", "-100.00"},
		{"comma decimal separator", core.Expense, "12,50", "-12.50"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			created, err := svc.Create(ctx, user, tt.kind, CreateStreamInput{
				Date:         "2025-07",
				MerchantName: "Shop",
				Description:  "Purchase",
				Amount:       tt.amount,
			})
			if err != nil {
				t.Fatalf("Create: %v", err)
			}
			if got := core.FormatAmount(created.Amount); got != tt.want {
				t.Errorf("stored amount = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestCreateStreamValidation(t *testing.T) {
	repo := newTestStorage(t)
	user := seedUser(t, repo)
	svc := NewLedgerService(repo)
	ctx := context.Background()

	_, err := svc.Create(ctx, user, core.Income, CreateStreamInput{
		MerchantName: "Shop", Description: "d", Amount: "not-a-number",
	})
	if !errors.Is(err, core.ErrInvalidAmount) {
		t.Errorf("bad amount: got %v, want ErrInvalidAmount", err)
	}

	_, err = svc.Create(ctx, user, core.Income, CreateStreamInput{
		Description: "d", Amount: "10",
	})
	if !errors.Is(err, core.ErrEmptyMerchant) {
		t.Errorf("missing merchant: got %v, want ErrEmptyMerchant", err)
	}
}

func TestCreateStreamDefaultCategory(t *testing.T) {
	repo := newTestStorage(t)
	user := seedUser(t, repo)
	svc := NewLedgerService(repo)
	ctx := context.Background()

	income, err := svc.Create(ctx, user, core.Income, CreateStreamInput{
		MerchantName: "Employer", Description: "Paycheck", Amount: "2000",
	})
	if err != nil {
		t.Fatalf("Create income: %v", err)
	}
	if income.Category != core.DefaultIncomeCategory {
		t.Errorf("income category = %q, want %q", income.Category, core.DefaultIncomeCategory)
	}

	expense, err := svc.Create(ctx, user, core.Expense, CreateStreamInput{
		MerchantName: "Shop", Description: "Purchase", Amount: "10",
	})
	if err != nil {
		t.Fatalf("Create expense: %v", err)
	}
	if expense.Category != core.DefaultExpenseCategory {
		t.Errorf("expense category = %q, want %q", expense.Category, core.DefaultExpenseCategory)
	}
}

func TestUpdateStreamPartial(t *testing.T) {
	repo := newTestStorage(t)
	user := seedUser(t, repo)
	svc := NewLedgerService(repo)
	ctx := context.Background()

	created, err := svc.Create(ctx, user, core.Expense, CreateStreamInput{
		MerchantName: "Shop", Description: "Purchase", Amount: "-50", Category: "food",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	// Only the amount changes; the client sends a positive value and the
	// expense sign convention is re-applied.
	amount := "75"
	updated, err := svc.Update(ctx, user, core.Expense, created.ID, UpdateStreamInput{Amount: &amount})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got := core.FormatAmount(updated.Amount); got != "-75.00" {
		t.Errorf("amount = %s, want -75.00", got)
	}
	if updated.MerchantName != "Shop" || updated.Description != "Purchase" || updated.Category != "food" {
		t.Errorf("untouched fields changed: %+v", updated)
	}
}

func TestStreamOwnershipEnforced(t *testing.T) {
	repo := newTestStorage(t)
	owner := seedUser(t, repo)
	intruder, _, err := repo.GetOrCreateUserByClerkID(context.Background(), "user_other")
	if err != nil {
		t.Fatalf("seed intruder: %v", err)
	}
	svc := NewLedgerService(repo)
	ctx := context.Background()

	created, err := svc.Create(ctx, owner, core.Expense, CreateStreamInput{
		MerchantName: "Shop", Description: "Purchase", Amount: "-50",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	desc := "hijacked"
	if _, err := svc.Update(ctx, intruder, core.Expense, created.ID, UpdateStreamInput{Description: &desc}); !errors.Is(err, core.ErrForbidden) {
		t.Errorf("update by intruder: got %v, want ErrForbidden", err)
	}
	if _, err := svc.Delete(ctx, intruder, core.Expense, created.ID); !errors.Is(err, core.ErrForbidden) {
		t.Errorf("delete by intruder: got %v, want ErrForbidden", err)
	}
}

func TestDeleteStreamReturnsSnapshot(t *testing.T) {
	repo := newTestStorage(t)
	user := seedUser(t, repo)
	svc := NewLedgerService(repo)
	ctx := context.Background()

	created, err := svc.Create(ctx, user, core.Income, CreateStreamInput{
		MerchantName: "Employer", Description: "Paycheck", Amount: "2000",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	snapshot, err := svc.Delete(ctx, user, core.Income, created.ID)
	if err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if snapshot.ID != created.ID || snapshot.MerchantName != "Employer" {
		t.Errorf("snapshot = %+v, want the deleted entry", snapshot)
	}

	if _, _, err := repo.GetStream(ctx, core.Income, created.ID); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("stream still present after delete: %v", err)
	}
}
