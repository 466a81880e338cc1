package finance_test

import (
	"context"
	"errors"
	"testing"

	appErrors "github.com/moneyfi/backend/errors"
	"github.com/moneyfi/backend/internal/finance"
	"github.com/shopspring/decimal"
)

func TestValidateAllocations(t *testing.T) {
	if err := finance.ValidateAllocations(); err != nil {
		t.Fatalf("allocation table does not close to 100%%: %v", err)
	}
}

func TestAllocate(t *testing.T) {
	allocations := finance.Allocate(amount("1000"))

	byCategory := make(map[string]decimal.Decimal, len(allocations))
	total := decimal.Zero
	for _, allocation := range allocations {
		byCategory[allocation.Category] = allocation.MoneyLimit
		total = total.Add(allocation.MoneyLimit)
	}

	if !byCategory["Food"].Equal(amount("130")) {
		t.Errorf("Food limit = %s, want 130", byCategory["Food"])
	}
	if !byCategory["Goal"].Equal(amount("180")) {
		t.Errorf("Goal limit = %s, want 180", byCategory["Goal"])
	}
	if !byCategory["Miscellaneous"].Equal(amount("50")) {
		t.Errorf("Miscellaneous limit = %s, want 50", byCategory["Miscellaneous"])
	}
	// The split must conserve the total.
	if !total.Equal(amount("1000")) {
		t.Errorf("allocated total = %s, want 1000", total)
	}
}

func TestSaveBudget(t *testing.T) {
	ft := newTestTracker()
	ctx := context.Background()
	period := finance.Period{Month: 3, Year: 2025}

	seedIncome(t, &ft, "Job", "800", "2025-03-01", "Salary", false)

	if _, err := ft.SaveBudget(ctx, testAccount, amount("1000"), period); !errors.Is(err, appErrors.ErrBudgetExceedsIncome) {
		t.Fatalf("expected ErrBudgetExceedsIncome, got %v", err)
	}
	// A period without any income is a zero aggregate, not missing data.
	if _, err := ft.SaveBudget(ctx, testAccount, amount("100"), finance.Period{Month: 7, Year: 2025}); !errors.Is(err, appErrors.ErrBudgetExceedsIncome) {
		t.Fatalf("expected ErrBudgetExceedsIncome for an income-less period, got %v", err)
	}
	if _, err := ft.SaveBudget(ctx, testAccount, amount("500"), finance.Period{Year: 2025}); !errors.Is(err, appErrors.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for a budget without a month, got %v", err)
	}

	plans, err := ft.SaveBudget(ctx, testAccount, amount("500"), period)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(plans) != 11 {
		t.Fatalf("plan count = %d, want 11", len(plans))
	}

	// Re-allocating the same period replaces the plans instead of stacking.
	plans, err = ft.SaveBudget(ctx, testAccount, amount("800"), period)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	details, err := ft.BudgetDetails(ctx, testAccount, finance.CategoryAll, period)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(details) != len(plans) {
		t.Errorf("detail count after re-allocation = %d, want %d", len(details), len(plans))
	}
	totalLimit := decimal.Zero
	for _, detail := range details {
		totalLimit = totalLimit.Add(detail.MoneyLimit)
	}
	if !totalLimit.Equal(amount("800")) {
		t.Errorf("total limit after re-allocation = %s, want 800", totalLimit)
	}
}

func TestBudgetDetailsProgress(t *testing.T) {
	ft := newTestTracker()
	ctx := context.Background()
	period := finance.Period{Month: 3, Year: 2025}

	seedIncome(t, &ft, "Job", "1000", "2025-03-01", "Salary", false)
	if _, err := ft.SaveBudget(ctx, testAccount, amount("1000"), period); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Food's limit is 130; spending 117 of it is 90%.
	seedExpense(t, &ft, "117", "2025-03-10", "Food")

	details, err := ft.BudgetDetails(ctx, testAccount, "Food", period)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(details) != 1 {
		t.Fatalf("detail count = %d, want 1", len(details))
	}

	food := details[0]
	if !food.CurrentSpending.Equal(amount("117")) {
		t.Errorf("current spending = %s, want 117", food.CurrentSpending)
	}
	if !food.Remaining.Equal(amount("13")) {
		t.Errorf("remaining = %s, want 13", food.Remaining)
	}
	if !food.ProgressPercentage.Equal(amount("90")) {
		t.Errorf("progress = %s, want 90", food.ProgressPercentage)
	}

	if _, err := ft.BudgetDetails(ctx, testAccount, finance.CategoryAll, finance.Period{Month: 7, Year: 2025}); !errors.Is(err, appErrors.ErrNotFound) {
		t.Errorf("expected ErrNotFound for a month without a plan, got %v", err)
	}
}

func TestUpdateBudgets(t *testing.T) {
	ft := newTestTracker()
	ctx := context.Background()
	period := finance.Period{Month: 3, Year: 2025}

	seedIncome(t, &ft, "Job", "1000", "2025-03-01", "Salary", false)
	plans, err := ft.SaveBudget(ctx, testAccount, amount("1000"), period)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Sending the stored values back is a no-op, not an error.
	unchanged := []finance.BudgetLimitUpdate{
		{ID: plans[0].ID, MoneyLimit: plans[0].MoneyLimit},
		{ID: plans[1].ID, MoneyLimit: plans[1].MoneyLimit},
	}
	applied, err := ft.UpdateBudgets(ctx, testAccount, unchanged)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if applied != 0 {
		t.Errorf("applied = %d for identical limits, want 0", applied)
	}

	applied, err = ft.UpdateBudgets(ctx, testAccount, []finance.BudgetLimitUpdate{
		{ID: plans[0].ID, MoneyLimit: plans[0].MoneyLimit},
		{ID: plans[1].ID, MoneyLimit: amount("42")},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if applied != 1 {
		t.Errorf("applied = %d, want 1", applied)
	}

	stored, err := ft.BudgetDetails(ctx, testAccount, plans[1].Category, period)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !stored[0].MoneyLimit.Equal(amount("42")) {
		t.Errorf("limit after update = %s, want 42", stored[0].MoneyLimit)
	}

	if _, err := ft.UpdateBudgets(ctx, testAccount, []finance.BudgetLimitUpdate{
		{ID: plans[0].ID, MoneyLimit: amount("-1")},
	}); !errors.Is(err, appErrors.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for a negative limit, got %v", err)
	}
	if _, err := ft.UpdateBudgets(ctx, testAccount, nil); !errors.Is(err, appErrors.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for an empty update, got %v", err)
	}
}
