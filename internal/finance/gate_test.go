package finance_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	appErrors "github.com/moneyfi/backend/errors"
	"github.com/moneyfi/backend/internal/finance"
	"github.com/moneyfi/backend/internal/storage"
)

// conflictingStore wraps the in-memory store and fails the first N goal
// updates with a version conflict, as a concurrent writer would.
type conflictingStore struct {
	finance.Storage
	conflicts int
	calls     int
}

func (s *conflictingStore) UpdateGoal(ctx context.Context, goal finance.Goal) error {
	s.calls++
	if s.calls <= s.conflicts {
		return fmt.Errorf("%w: goal version is stale", appErrors.ErrConflict)
	}
	return s.Storage.UpdateGoal(ctx, goal)
}

func seedConflictGoal(t *testing.T, ft *finance.FinanceTracker) finance.GoalDetails {
	t.Helper()
	ctx := context.Background()
	seedIncome(t, ft, "Job", "1000", "2025-03-01", "Salary", false)
	goal, err := ft.SaveGoal(ctx, testAccount, finance.GoalRequest{
		Name:         "Car",
		TargetAmount: amount("500"),
		Category:     "Vehicle",
	})
	if err != nil {
		t.Fatalf("failed to seed goal: %v", err)
	}
	return goal
}

func TestCommitRetriesOnceOnConflict(t *testing.T) {
	store := &conflictingStore{Storage: storage.NewInMemoryStorage(), conflicts: 1}
	ft := finance.NewFinanceTracker(store)
	goal := seedConflictGoal(t, &ft)

	funded, err := ft.AddAmount(context.Background(), testAccount, goal.ID, amount("200"))
	if err != nil {
		t.Fatalf("a single conflict should be retried away, got %v", err)
	}
	if !funded.CurrentAmount.Equal(amount("200")) {
		t.Errorf("current amount = %s, want 200", funded.CurrentAmount)
	}
	if store.calls != 2 {
		t.Errorf("update calls = %d, want 2", store.calls)
	}
}

func TestCommitGivesUpAfterSecondConflict(t *testing.T) {
	store := &conflictingStore{Storage: storage.NewInMemoryStorage(), conflicts: 2}
	ft := finance.NewFinanceTracker(store)
	goal := seedConflictGoal(t, &ft)

	_, err := ft.AddAmount(context.Background(), testAccount, goal.ID, amount("200"))
	if !errors.Is(err, appErrors.ErrConcurrentModification) {
		t.Fatalf("expected ErrConcurrentModification, got %v", err)
	}
	if store.calls != 2 {
		t.Errorf("update calls = %d, want 2", store.calls)
	}

	goals, err := ft.GetGoals(context.Background(), testAccount)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(goals) != 1 || !goals[0].CurrentAmount.Equal(amount("0")) {
		t.Errorf("an abandoned commit must leave the goal unfunded")
	}
}
