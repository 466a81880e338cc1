package finance_test

import (
	"context"
	"errors"
	"testing"

	appErrors "github.com/moneyfi/backend/errors"
	"github.com/moneyfi/backend/internal/finance"
)

func TestSaveIncomeDuplicateSource(t *testing.T) {
	ft := newTestTracker()
	ctx := context.Background()

	seedIncome(t, &ft, "Acme Corp", "1000", "2025-03-01", "Salary", false)

	tests := []struct {
		name     string
		source   string
		category string
		wantErr  error
	}{
		{
			name:     "same source same category",
			source:   "Acme Corp",
			category: "Salary",
			wantErr:  appErrors.ErrDuplicateSource,
		},
		{
			name:     "source match is case-insensitive",
			source:   "acme corp",
			category: "Salary",
			wantErr:  appErrors.ErrDuplicateSource,
		},
		{
			name:     "same source different category",
			source:   "Acme Corp",
			category: "Bonus",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ft.SaveIncome(ctx, testAccount, finance.IncomeRequest{
				Source:   tc.source,
				Amount:   amount("500"),
				Date:     mustDate(t, "2025-03-02"),
				Category: tc.category,
			})
			if tc.wantErr == nil {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tc.wantErr) {
				t.Errorf("expected %v, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestUpdateIncomeNoOp(t *testing.T) {
	ft := newTestTracker()
	ctx := context.Background()

	record := seedIncome(t, &ft, "Job", "1000", "2025-03-01", "Salary", false)

	_, changed, err := ft.UpdateIncome(ctx, testAccount, record.ID, finance.IncomeRequest{
		Source:   record.Source,
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

	total, err := ft.TotalIncome(ctx, testAccount, finance.AllTime, finance.CategoryAll)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !total.Equal(amount("1000")) {
		t.Errorf("total income after no-op = %s, want 1000", total)
	}
}

func TestUpdateIncomeReductionBlockedByExpenses(t *testing.T) {
	ft := newTestTracker()
	ctx := context.Background()

	record := seedIncome(t, &ft, "Job", "1000", "2025-03-01", "Salary", false)
	seedExpense(t, &ft, "800", "2025-03-10", "Food")

	// 700 of income no longer covers the period's 800 of expenses.
	_, _, err := ft.UpdateIncome(ctx, testAccount, record.ID, finance.IncomeRequest{
		Source:   record.Source,
		Amount:   amount("700"),
		Date:     record.Date,
		Category: record.Category,
	})
	if !errors.Is(err, appErrors.ErrIncomeTooLowForExpenses) {
		t.Fatalf("expected ErrIncomeTooLowForExpenses, got %v", err)
	}

	// Reducing to exactly the expense total is still legal.
	updated, changed, err := ft.UpdateIncome(ctx, testAccount, record.ID, finance.IncomeRequest{
		Source:   record.Source,
		Amount:   amount("800"),
		Date:     record.Date,
		Category: record.Category,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !changed || !updated.Amount.Equal(amount("800")) {
		t.Errorf("reduction not applied: changed=%v amount=%s", changed, updated.Amount)
	}
}

func TestSoftDeleteIncomeBlockedByExpenses(t *testing.T) {
	ft := newTestTracker()
	ctx := context.Background()

	record := seedIncome(t, &ft, "Job", "1000", "2025-03-01", "Salary", false)
	seedExpense(t, &ft, "1000", "2025-03-10", "Food")

	err := ft.SoftDeleteIncome(ctx, testAccount, record.ID)
	if !errors.Is(err, appErrors.ErrCannotDeleteIncomeInUse) {
		t.Fatalf("expected ErrCannotDeleteIncomeInUse, got %v", err)
	}

	// The failed delete must leave the record active.
	total, err := ft.TotalIncome(ctx, testAccount, finance.AllTime, finance.CategoryAll)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !total.Equal(amount("1000")) {
		t.Errorf("total income after rejected delete = %s, want 1000", total)
	}
}

func TestSoftDeleteAndRevertRoundTrip(t *testing.T) {
	ft := newTestTracker()
	ctx := context.Background()

	record := seedIncome(t, &ft, "Job", "1000", "2025-03-01", "Salary", false)
	seedIncome(t, &ft, "Freelance", "500", "2025-03-05", "Side", false)

	if err := ft.SoftDeleteIncome(ctx, testAccount, record.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Deleted records leave every aggregate.
	total, err := ft.TotalIncome(ctx, testAccount, finance.AllTime, finance.CategoryAll)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !total.Equal(amount("500")) {
		t.Errorf("total income with one record deleted = %s, want 500", total)
	}

	deleted, err := ft.GetIncomes(ctx, testAccount, finance.IncomeFilter{Category: finance.CategoryAll, Deleted: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(deleted) != 1 || deleted[0].ID != record.ID {
		t.Fatalf("deleted listing = %v, want just %s", deleted, record.ID)
	}

	// Deleting again is not a legal transition.
	if err := ft.SoftDeleteIncome(ctx, testAccount, record.ID); !errors.Is(err, appErrors.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for double delete, got %v", err)
	}

	if err := ft.RevertIncome(ctx, testAccount, record.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	total, err = ft.TotalIncome(ctx, testAccount, finance.AllTime, finance.CategoryAll)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !total.Equal(amount("1500")) {
		t.Errorf("total income after revert = %s, want 1500", total)
	}

	// Reverting an active record is not a legal transition either.
	if err := ft.RevertIncome(ctx, testAccount, record.ID); !errors.Is(err, appErrors.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for revert of active record, got %v", err)
	}
}

func TestRevertIncomeDuplicateSourceTakenMeanwhile(t *testing.T) {
	ft := newTestTracker()
	ctx := context.Background()

	record := seedIncome(t, &ft, "Acme Corp", "1000", "2025-03-01", "Salary", false)
	if err := ft.SoftDeleteIncome(ctx, testAccount, record.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// The (source, category) pair is free again and gets re-taken.
	seedIncome(t, &ft, "Acme Corp", "1200", "2025-04-01", "Salary", false)

	if err := ft.RevertIncome(ctx, testAccount, record.ID); !errors.Is(err, appErrors.ErrDuplicateSource) {
		t.Errorf("expected ErrDuplicateSource, got %v", err)
	}
}

func TestRevertIncomeBalanceCheck(t *testing.T) {
	ft := newTestTracker()
	ctx := context.Background()

	small := seedIncome(t, &ft, "Side Gig", "100", "2025-03-01", "Side", false)
	big := seedIncome(t, &ft, "Job", "1000", "2025-03-05", "Salary", false)

	// Commit 600 to a goal, then delete both incomes: the balance goes to -600.
	// The delete check only guards expenses, which is exactly why revert
	// re-validates against the balance.
	if _, err := ft.SaveGoal(ctx, testAccount, finance.GoalRequest{
		Name:          "Vacation",
		CurrentAmount: amount("600"),
		TargetAmount:  amount("2000"),
		Category:      "Vacation",
	}); err != nil {
		t.Fatalf("failed to save goal: %v", err)
	}
	if err := ft.SoftDeleteIncome(ctx, testAccount, small.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := ft.SoftDeleteIncome(ctx, testAccount, big.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// -600 + 100 is still negative.
	if err := ft.RevertIncome(ctx, testAccount, small.ID); !errors.Is(err, appErrors.ErrRevertWouldViolateBalance) {
		t.Errorf("expected ErrRevertWouldViolateBalance, got %v", err)
	}

	// -600 + 1000 recovers the books.
	if err := ft.RevertIncome(ctx, testAccount, big.ID); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestIncomeCheckEndpointsReportOnly(t *testing.T) {
	ft := newTestTracker()
	ctx := context.Background()

	record := seedIncome(t, &ft, "Job", "1000", "2025-03-01", "Salary", false)
	seedExpense(t, &ft, "900", "2025-03-10", "Food")

	allowed, err := ft.IncomeDeleteCheck(ctx, testAccount, record.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if allowed {
		t.Error("delete check allowed removing the only income covering 900 of expenses")
	}

	allowed, err = ft.IncomeUpdateCheck(ctx, testAccount, record.ID, finance.IncomeRequest{
		Amount: amount("850"),
		Date:   record.Date,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if allowed {
		t.Error("update check allowed reducing income below the period's expenses")
	}

	allowed, err = ft.IncomeUpdateCheck(ctx, testAccount, record.ID, finance.IncomeRequest{
		Amount: amount("950"),
		Date:   record.Date,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !allowed {
		t.Error("update check rejected a reduction that still covers the expenses")
	}

	// The checks themselves never mutate.
	total, err := ft.TotalIncome(ctx, testAccount, finance.AllTime, finance.CategoryAll)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !total.Equal(amount("1000")) {
		t.Errorf("total income after checks = %s, want 1000", total)
	}
}
