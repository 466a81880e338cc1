package finance_test

import (
	"context"
	"errors"
	"testing"
	"time"

	appErrors "github.com/moneyfi/backend/errors"
	"github.com/moneyfi/backend/internal/finance"
)

func TestSaveGoalValidation(t *testing.T) {
	ft := newTestTracker()
	ctx := context.Background()
	seedIncome(t, &ft, "Job", "1000", "2025-03-01", "Salary", false)

	tests := []struct {
		name    string
		request finance.GoalRequest
		wantErr error
	}{
		{
			name:    "empty name",
			request: finance.GoalRequest{TargetAmount: amount("500"), Category: "Savings"},
			wantErr: appErrors.ErrInvalidInput,
		},
		{
			name: "target below current",
			request: finance.GoalRequest{
				Name:          "Car",
				CurrentAmount: amount("600"),
				TargetAmount:  amount("500"),
				Category:      "Vehicle",
			},
			wantErr: appErrors.ErrInvalidTarget,
		},
		{
			name: "target equal to current",
			request: finance.GoalRequest{
				Name:          "Car",
				CurrentAmount: amount("500"),
				TargetAmount:  amount("500"),
				Category:      "Vehicle",
			},
			wantErr: appErrors.ErrInvalidTarget,
		},
		{
			name: "initial amount above balance",
			request: finance.GoalRequest{
				Name:          "Car",
				CurrentAmount: amount("1200"),
				TargetAmount:  amount("5000"),
				Category:      "Vehicle",
			},
			wantErr: appErrors.ErrInsufficientBalance,
		},
		{
			name: "valid",
			request: finance.GoalRequest{
				Name:          "Car",
				CurrentAmount: amount("200"),
				TargetAmount:  amount("5000"),
				Category:      "Vehicle",
			},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ft.SaveGoal(ctx, testAccount, tc.request)
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

func TestAddAmount(t *testing.T) {
	ft := newTestTracker()
	ctx := context.Background()

	seedIncome(t, &ft, "Job", "1000", "2025-03-01", "Salary", false)
	goal, err := ft.SaveGoal(ctx, testAccount, finance.GoalRequest{
		Name:          "Vacation",
		CurrentAmount: amount("100"),
		TargetAmount:  amount("600"),
		Category:      "Vacation",
	})
	if err != nil {
		t.Fatalf("failed to save goal: %v", err)
	}
	// Balance is now 900.

	if _, err := ft.AddAmount(ctx, testAccount, goal.ID, amount("0")); !errors.Is(err, appErrors.ErrInsufficientBalance) {
		t.Errorf("expected ErrInsufficientBalance for zero contribution, got %v", err)
	}
	if _, err := ft.AddAmount(ctx, testAccount, goal.ID, amount("950")); !errors.Is(err, appErrors.ErrInsufficientBalance) {
		t.Errorf("expected ErrInsufficientBalance for overdraft, got %v", err)
	}
	// 500 still fits the balance but overshoots the remaining target.
	if _, err := ft.AddAmount(ctx, testAccount, goal.ID, amount("501")); !errors.Is(err, appErrors.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for overshooting the target, got %v", err)
	}

	funded, err := ft.AddAmount(ctx, testAccount, goal.ID, amount("200"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !funded.CurrentAmount.Equal(amount("300")) {
		t.Errorf("current amount = %s, want 300", funded.CurrentAmount)
	}
	if funded.Status != finance.GoalActive {
		t.Errorf("status = %s, want %s", funded.Status, finance.GoalActive)
	}

	// The contribution decreases the balance by exactly its amount.
	balance, err := ft.AvailableBalance(ctx, testAccount)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !balance.Equal(amount("700")) {
		t.Errorf("balance after contribution = %s, want 700", balance)
	}

	// Funding to the exact target completes the goal.
	completed, err := ft.AddAmount(ctx, testAccount, goal.ID, amount("300"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if completed.Status != finance.GoalCompleted {
		t.Errorf("status = %s, want %s", completed.Status, finance.GoalCompleted)
	}
	if !completed.ProgressPercentage.Equal(amount("100")) {
		t.Errorf("progress = %s, want 100", completed.ProgressPercentage)
	}
}

func TestUpdateGoal(t *testing.T) {
	ft := newTestTracker()
	ctx := context.Background()

	seedIncome(t, &ft, "Job", "1000", "2025-03-01", "Salary", false)
	goal, err := ft.SaveGoal(ctx, testAccount, finance.GoalRequest{
		Name:          "Vacation",
		CurrentAmount: amount("100"),
		TargetAmount:  amount("600"),
		Category:      "Vacation",
	})
	if err != nil {
		t.Fatalf("failed to save goal: %v", err)
	}

	// Identical fields are a reported no-op.
	_, changed, err := ft.UpdateGoal(ctx, testAccount, goal.ID, finance.GoalRequest{
		Name:          goal.Name,
		CurrentAmount: goal.CurrentAmount,
		TargetAmount:  goal.TargetAmount,
		Category:      goal.Category,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if changed {
		t.Error("identical patch reported as a change")
	}

	// Raising the committed amount past the balance is rejected.
	_, _, err = ft.UpdateGoal(ctx, testAccount, goal.ID, finance.GoalRequest{
		Name:          goal.Name,
		CurrentAmount: amount("1100"),
		TargetAmount:  amount("2000"),
		Category:      goal.Category,
	})
	if !errors.Is(err, appErrors.ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}

	updated, changed, err := ft.UpdateGoal(ctx, testAccount, goal.ID, finance.GoalRequest{
		Name:          "Summer trip",
		CurrentAmount: amount("400"),
		TargetAmount:  amount("800"),
		Category:      goal.Category,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !changed || updated.Name != "Summer trip" {
		t.Errorf("update not applied: changed=%v name=%s", changed, updated.Name)
	}

	// The extra 300 came out of the balance.
	balance, err := ft.AvailableBalance(ctx, testAccount)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !balance.Equal(amount("600")) {
		t.Errorf("balance after update = %s, want 600", balance)
	}
}

func TestDeleteGoalReleasesBalance(t *testing.T) {
	ft := newTestTracker()
	ctx := context.Background()

	seedIncome(t, &ft, "Job", "1000", "2025-03-01", "Salary", false)
	goal, err := ft.SaveGoal(ctx, testAccount, finance.GoalRequest{
		Name:          "Vacation",
		CurrentAmount: amount("400"),
		TargetAmount:  amount("600"),
		Category:      "Vacation",
	})
	if err != nil {
		t.Fatalf("failed to save goal: %v", err)
	}

	if err := ft.DeleteGoal(ctx, testAccount, goal.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := ft.DeleteGoal(ctx, testAccount, goal.ID); !errors.Is(err, appErrors.ErrNotFound) {
		t.Errorf("expected ErrNotFound for double delete, got %v", err)
	}

	balance, err := ft.AvailableBalance(ctx, testAccount)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !balance.Equal(amount("1000")) {
		t.Errorf("balance after goal delete = %s, want 1000", balance)
	}
}

func TestGoalStatusAndDaysRemaining(t *testing.T) {
	ft := newTestTracker()
	ctx := context.Background()
	seedIncome(t, &ft, "Job", "1000", "2025-03-01", "Salary", false)

	overdue, err := ft.SaveGoal(ctx, testAccount, finance.GoalRequest{
		Name:          "Missed",
		CurrentAmount: amount("10"),
		TargetAmount:  amount("100"),
		Deadline:      time.Now().UTC().AddDate(0, 0, -30),
		Category:      "Savings",
	})
	if err != nil {
		t.Fatalf("failed to save goal: %v", err)
	}
	if overdue.Status != finance.GoalOverdue {
		t.Errorf("status = %s, want %s", overdue.Status, finance.GoalOverdue)
	}
	if overdue.DaysRemaining != 0 {
		t.Errorf("days remaining for a past deadline = %d, want 0", overdue.DaysRemaining)
	}

	active, err := ft.SaveGoal(ctx, testAccount, finance.GoalRequest{
		Name:          "On track",
		CurrentAmount: amount("10"),
		TargetAmount:  amount("100"),
		Deadline:      time.Now().UTC().AddDate(0, 0, 30),
		Category:      "Savings",
	})
	if err != nil {
		t.Fatalf("failed to save goal: %v", err)
	}
	if active.Status != finance.GoalActive {
		t.Errorf("status = %s, want %s", active.Status, finance.GoalActive)
	}
	if active.DaysRemaining < 28 || active.DaysRemaining > 30 {
		t.Errorf("days remaining = %d, want about 30", active.DaysRemaining)
	}

	totalCurrent, err := ft.TotalCurrentGoalAmount(ctx, testAccount)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !totalCurrent.Equal(amount("20")) {
		t.Errorf("total current = %s, want 20", totalCurrent)
	}
	totalTarget, err := ft.TotalTargetGoalAmount(ctx, testAccount)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !totalTarget.Equal(amount("200")) {
		t.Errorf("total target = %s, want 200", totalTarget)
	}
}
