// Package services orchestrates the domain operations over storage, the
// bank provider and the event broker.
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"budgetbox/internal/core"
	"budgetbox/internal/storage"
)

// BudgetService owns budget resolution, listing, renaming and deletion.
type BudgetService struct {
	storage *storage.SQLiteRepository
}

func NewBudgetService(storage *storage.SQLiteRepository) *BudgetService {
	return &BudgetService{storage: storage}
}

// BudgetOverview is a budget with its streams and computed totals.
type BudgetOverview struct {
	Budget   core.Budget
	Incomes  []core.Stream
	Expenses []core.Stream
	Totals   core.Totals
}

// ResolveOrCreate finds or creates the user's budget for the month named
// by rawDate ("YYYY-MM" or "YYYY-MM-DD"; anything else means the current
// month). An empty name means the default budget.
func (s *BudgetService) ResolveOrCreate(ctx context.Context, user core.User, name, rawDate string) (core.Budget, error) {
	if name == "" {
		name = core.DefaultBudgetName
	}
	date := core.ParseMonth(rawDate, time.Now())
	return s.storage.GetOrCreateBudget(ctx, user.ID, name, date)
}

// Overview resolves the month's budget and loads its streams and totals.
func (s *BudgetService) Overview(ctx context.Context, user core.User, name, rawDate string) (BudgetOverview, error) {
	budget, err := s.ResolveOrCreate(ctx, user, name, rawDate)
	if err != nil {
		return BudgetOverview{}, fmt.Errorf("resolve budget: %w", err)
	}

	incomes, err := s.storage.ListStreams(ctx, core.Income, budget.ID)
	if err != nil {
		return BudgetOverview{}, fmt.Errorf("list incomes: %w", err)
	}
	expenses, err := s.storage.ListStreams(ctx, core.Expense, budget.ID)
	if err != nil {
		return BudgetOverview{}, fmt.Errorf("list expenses: %w", err)
	}

	return BudgetOverview{
		Budget:   budget,
		Incomes:  incomes,
		Expenses: expenses,
		Totals:   core.SumTotals(incomes, expenses),
	}, nil
}

// List returns all of the user's budgets, newest month first.
func (s *BudgetService) List(ctx context.Context, user core.User) ([]core.Budget, error) {
	return s.storage.ListBudgets(ctx, user.ID)
}

// Rename changes a budget's name after verifying ownership. The new name
// must not collide with another budget of the same user and month.
func (s *BudgetService) Rename(ctx context.Context, user core.User, budgetID int64, name string) (core.Budget, error) {
	budget, err := s.storage.GetBudget(ctx, budgetID)
	if err != nil {
		return core.Budget{}, err
	}
	if budget.UserID != user.ID {
		return core.Budget{}, core.ErrForbidden
	}
	if name == "" {
		name = core.DefaultBudgetName
	}
	if name == budget.Name {
		return budget, nil
	}
	if _, err := s.storage.GetBudgetByKey(ctx, user.ID, name, budget.Date); err == nil {
		return core.Budget{}, core.ErrBudgetExists
	} else if !errors.Is(err, core.ErrNotFound) {
		return core.Budget{}, err
	}
	if err := s.storage.RenameBudget(ctx, budgetID, name); err != nil {
		return core.Budget{}, err
	}
	budget.Name = name
	return budget, nil
}

// Delete removes a budget and everything under it, returning the cascaded
// stream counts for client confirmation.
func (s *BudgetService) Delete(ctx context.Context, user core.User, budgetID int64) (incomes, expenses int64, err error) {
	budget, err := s.storage.GetBudget(ctx, budgetID)
	if err != nil {
		return 0, 0, err
	}
	if budget.UserID != user.ID {
		return 0, 0, core.ErrForbidden
	}
	return s.storage.DeleteBudget(ctx, budgetID)
}
