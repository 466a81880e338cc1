package finance_test

import (
	"context"
	"errors"
	"testing"
	"time"

	appErrors "github.com/moneyfi/backend/errors"
	"github.com/moneyfi/backend/internal/finance"
	"github.com/moneyfi/backend/internal/storage"
	"github.com/shopspring/decimal"
)

const testAccount = "acct-1"

func newTestTracker() finance.FinanceTracker {
	return finance.NewFinanceTracker(storage.NewInMemoryStorage())
}

func mustDate(t *testing.T, value string) time.Time {
	t.Helper()
	date, err := time.Parse("2006-01-02", value)
	if err != nil {
		t.Fatalf("bad test date %q: %v", value, err)
	}
	return date
}

func amount(value string) decimal.Decimal {
	return decimal.RequireFromString(value)
}

func seedIncome(t *testing.T, ft *finance.FinanceTracker, source string, value string, date string, category string, recurring bool) finance.IncomeRecord {
	t.Helper()
	record, err := ft.SaveIncome(context.Background(), testAccount, finance.IncomeRequest{
		Source:    source,
		Amount:    amount(value),
		Date:      mustDate(t, date),
		Category:  category,
		Recurring: recurring,
	})
	if err != nil {
		t.Fatalf("failed to seed income %s: %v", source, err)
	}
	return record
}

func seedExpense(t *testing.T, ft *finance.FinanceTracker, value string, date string, category string) finance.ExpenseRecord {
	t.Helper()
	record, err := ft.SaveExpense(context.Background(), testAccount, finance.ExpenseRequest{
		Amount:   amount(value),
		Date:     mustDate(t, date),
		Category: category,
	})
	if err != nil {
		t.Fatalf("failed to seed expense: %v", err)
	}
	return record
}

func TestAvailableBalance(t *testing.T) {
	ft := newTestTracker()
	ctx := context.Background()

	balance, err := ft.AvailableBalance(ctx, testAccount)
	if err != nil {
		t.Fatalf("unexpected error for fresh account: %v", err)
	}
	if !balance.IsZero() {
		t.Errorf("fresh account balance = %s, want 0", balance)
	}

	seedIncome(t, &ft, "Job", "1000", "2025-03-01", "Salary", false)
	seedExpense(t, &ft, "250", "2025-03-10", "Food")

	if _, err := ft.SaveGoal(ctx, testAccount, finance.GoalRequest{
		Name:          "Vacation",
		CurrentAmount: amount("300"),
		TargetAmount:  amount("900"),
		Category:      "Vacation",
	}); err != nil {
		t.Fatalf("failed to save goal: %v", err)
	}

	balance, err = ft.AvailableBalance(ctx, testAccount)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// 1000 income - 250 expenses - 300 committed to the goal.
	if !balance.Equal(amount("450")) {
		t.Errorf("balance = %s, want 450", balance)
	}
}

func TestSaveExpenseRejectsOverdraft(t *testing.T) {
	ft := newTestTracker()
	ctx := context.Background()

	seedIncome(t, &ft, "Job", "1000", "2025-03-01", "Salary", false)

	_, err := ft.SaveExpense(ctx, testAccount, finance.ExpenseRequest{
		Amount:   amount("1200"),
		Date:     mustDate(t, "2025-03-15"),
		Category: "Shopping",
	})
	if !errors.Is(err, appErrors.ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}

	// A failed save must leave the ledger untouched.
	balance, err := ft.AvailableBalance(ctx, testAccount)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !balance.Equal(amount("1000")) {
		t.Errorf("balance after rejected expense = %s, want 1000", balance)
	}
}

func TestSaveExpenseValidation(t *testing.T) {
	ft := newTestTracker()
	ctx := context.Background()
	seedIncome(t, &ft, "Job", "1000", "2025-03-01", "Salary", false)

	tests := []struct {
		name    string
		request finance.ExpenseRequest
	}{
		{
			name:    "zero amount",
			request: finance.ExpenseRequest{Amount: amount("0"), Date: mustDate(t, "2025-03-15"), Category: "Food"},
		},
		{
			name:    "negative amount",
			request: finance.ExpenseRequest{Amount: amount("-5"), Date: mustDate(t, "2025-03-15"), Category: "Food"},
		},
		{
			name:    "missing category",
			request: finance.ExpenseRequest{Amount: amount("5"), Date: mustDate(t, "2025-03-15")},
		},
		{
			name:    "missing date",
			request: finance.ExpenseRequest{Amount: amount("5"), Category: "Food"},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := ft.SaveExpense(ctx, testAccount, tc.request); !errors.Is(err, appErrors.ErrInvalidInput) {
				t.Errorf("expected ErrInvalidInput, got %v", err)
			}
		})
	}
}

func TestUpdateExpenseNoOp(t *testing.T) {
	ft := newTestTracker()
	ctx := context.Background()

	seedIncome(t, &ft, "Job", "1000", "2025-03-01", "Salary", false)
	record := seedExpense(t, &ft, "250", "2025-03-10", "Food")

	_, changed, err := ft.UpdateExpense(ctx, testAccount, record.ID, finance.ExpenseRequest{
		Amount:   record.Amount,
		Date:     record.Date,
		Category: record.Category,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if changed {
		t.Error("identical patch reported as a change")
	}

	total, err := ft.TotalExpense(ctx, testAccount, finance.AllTime, finance.CategoryAll)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !total.Equal(amount("250")) {
		t.Errorf("total expense after no-op = %s, want 250", total)
	}
}

func TestUpdateExpenseIncreaseGatedByBalance(t *testing.T) {
	ft := newTestTracker()
	ctx := context.Background()

	seedIncome(t, &ft, "Job", "1000", "2025-03-01", "Salary", false)
	record := seedExpense(t, &ft, "800", "2025-03-10", "Food")

	// Balance is 200; raising the expense by 300 overdraws.
	_, _, err := ft.UpdateExpense(ctx, testAccount, record.ID, finance.ExpenseRequest{
		Amount:   amount("1100"),
		Date:     record.Date,
		Category: record.Category,
	})
	if !errors.Is(err, appErrors.ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}

	// Shrinking it is always legal.
	updated, changed, err := ft.UpdateExpense(ctx, testAccount, record.ID, finance.ExpenseRequest{
		Amount:   amount("500"),
		Date:     record.Date,
		Category: record.Category,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !changed || !updated.Amount.Equal(amount("500")) {
		t.Errorf("update not applied: changed=%v amount=%s", changed, updated.Amount)
	}
}

func TestTotalIncomeEmptyScope(t *testing.T) {
	ft := newTestTracker()
	ctx := context.Background()

	if _, err := ft.TotalIncome(ctx, testAccount, finance.AllTime, finance.CategoryAll); !errors.Is(err, appErrors.ErrNotFound) {
		t.Errorf("expected ErrNotFound for empty scope, got %v", err)
	}

	seedIncome(t, &ft, "Job", "1000", "2025-03-01", "Salary", false)
	if _, err := ft.TotalIncome(ctx, testAccount, finance.Period{Month: 7, Year: 2025}, finance.CategoryAll); !errors.Is(err, appErrors.ErrNotFound) {
		t.Errorf("expected ErrNotFound for a month without records, got %v", err)
	}
}

func TestDeleteExpensesRestoresBalance(t *testing.T) {
	ft := newTestTracker()
	ctx := context.Background()

	seedIncome(t, &ft, "Job", "1000", "2025-03-01", "Salary", false)
	first := seedExpense(t, &ft, "300", "2025-03-10", "Food")
	second := seedExpense(t, &ft, "200", "2025-03-12", "Shopping")

	if err := ft.DeleteExpenses(ctx, testAccount, []string{first.ID, second.ID}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	balance, err := ft.AvailableBalance(ctx, testAccount)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !balance.Equal(amount("1000")) {
		t.Errorf("balance after batch delete = %s, want 1000", balance)
	}
}

func TestPeriodSummary(t *testing.T) {
	ft := newTestTracker()
	ctx := context.Background()

	seedIncome(t, &ft, "Job", "600", "2025-03-01", "Salary", true)
	seedIncome(t, &ft, "Freelance", "400", "2025-03-05", "Side", false)
	seedExpense(t, &ft, "250", "2025-03-10", "Food")

	if _, err := ft.SaveGoal(ctx, testAccount, finance.GoalRequest{
		Name:          "Laptop",
		CurrentAmount: amount("100"),
		TargetAmount:  amount("800"),
		Category:      "Electronics",
	}); err != nil {
		t.Fatalf("failed to save goal: %v", err)
	}

	summary, err := ft.PeriodSummary(ctx, testAccount, finance.Period{Month: 3, Year: 2025})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !summary.TotalIncome.Equal(amount("1000")) {
		t.Errorf("total income = %s, want 1000", summary.TotalIncome)
	}
	if !summary.TotalExpenses.Equal(amount("250")) {
		t.Errorf("total expenses = %s, want 250", summary.TotalExpenses)
	}
	if !summary.AvailableBalance.Equal(amount("650")) {
		t.Errorf("available balance = %s, want 650", summary.AvailableBalance)
	}
	if !summary.TotalGoalCurrent.Equal(amount("100")) || !summary.TotalGoalTarget.Equal(amount("800")) {
		t.Errorf("goal totals = %s/%s, want 100/800", summary.TotalGoalCurrent, summary.TotalGoalTarget)
	}
	if summary.RecurringPercent != 60 {
		t.Errorf("recurring percentage = %d, want 60", summary.RecurringPercent)
	}
}
