package finance

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	appErrors "github.com/moneyfi/backend/errors"
	"github.com/shopspring/decimal"
)

// Goal tracker. A goal's money comes out of the shared available balance the
// moment it is committed, so every funding path runs through the gate.
// Status, days remaining and progress are derived on every read.

func (ft *FinanceTracker) SaveGoal(ctx context.Context, accountID string, request GoalRequest) (GoalDetails, error) {
	if strings.TrimSpace(request.Name) == "" {
		return GoalDetails{}, fmt.Errorf("%w: goal name is empty", appErrors.ErrInvalidInput)
	}
	if err := checkAmountPositive(request.TargetAmount, "target amount"); err != nil {
		return GoalDetails{}, err
	}
	if request.CurrentAmount.Sign() < 0 {
		return GoalDetails{}, fmt.Errorf("%w: current amount cannot be negative", appErrors.ErrInvalidInput)
	}
	if request.TargetAmount.LessThanOrEqual(request.CurrentAmount) {
		return GoalDetails{}, fmt.Errorf("%w: target amount of %s must exceed the current amount of %s",
			appErrors.ErrInvalidTarget, request.TargetAmount.StringFixed(2), request.CurrentAmount.StringFixed(2))
	}

	now := time.Now().UTC()
	goal := Goal{
		ID:            uuid.New().String(),
		Name:          request.Name,
		CurrentAmount: request.CurrentAmount,
		TargetAmount:  request.TargetAmount,
		Deadline:      request.Deadline,
		Category:      request.Category,
		CreatedAt:     now,
		UpdatedAt:     now,
		CreatedBy:     accountID,
	}

	err := ft.commit(ctx, func(ctx context.Context) error {
		if goal.CurrentAmount.Sign() > 0 {
			if err := ft.checkBalanceCovers(ctx, accountID, goal.CurrentAmount, "initial goal amount"); err != nil {
				return err
			}
		}
		return ft.storage.SaveGoal(ctx, goal)
	})
	if err != nil {
		return GoalDetails{}, err
	}
	return ft.deriveGoal(goal), nil
}

func (ft *FinanceTracker) GetGoals(ctx context.Context, accountID string) ([]GoalDetails, error) {
	goals, err := ft.storage.GetGoals(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to get goals: %w", err)
	}
	details := make([]GoalDetails, 0, len(goals))
	for _, goal := range goals {
		details = append(details, ft.deriveGoal(goal))
	}
	return details, nil
}

// AddAmount funds a goal from the available balance. The contribution must
// be positive, fit the balance, and may not push the goal past its target.
func (ft *FinanceTracker) AddAmount(ctx context.Context, accountID string, goalID string, amount decimal.Decimal) (GoalDetails, error) {
	if amount.Sign() <= 0 {
		return GoalDetails{}, fmt.Errorf("%w: contribution must be greater than zero", appErrors.ErrInsufficientBalance)
	}

	var funded Goal
	err := ft.commit(ctx, func(ctx context.Context) error {
		goal, err := ft.storage.GetGoalById(ctx, accountID, goalID)
		if err != nil {
			return fmt.Errorf("failed to get goal: %w", err)
		}

		if err := ft.checkBalanceCovers(ctx, accountID, amount, "goal contribution"); err != nil {
			return err
		}
		remaining := goal.TargetAmount.Sub(goal.CurrentAmount)
		if amount.GreaterThan(remaining) {
			return fmt.Errorf("%w: contribution of %s exceeds the remaining target of %s",
				appErrors.ErrInvalidInput, amount.StringFixed(2), remaining.StringFixed(2))
		}

		goal.CurrentAmount = goal.CurrentAmount.Add(amount)
		goal.UpdatedAt = time.Now().UTC()
		if err := ft.storage.UpdateGoal(ctx, goal); err != nil {
			return err
		}
		funded = goal
		return nil
	})
	if err != nil {
		return GoalDetails{}, err
	}
	return ft.deriveGoal(funded), nil
}

// UpdateGoal applies a direct edit. Raising the committed amount draws the
// difference from the balance; a no-op patch is reported, not failed.
func (ft *FinanceTracker) UpdateGoal(ctx context.Context, accountID string, goalID string, request GoalRequest) (GoalDetails, bool, error) {
	if strings.TrimSpace(request.Name) == "" {
		return GoalDetails{}, false, fmt.Errorf("%w: goal name is empty", appErrors.ErrInvalidInput)
	}
	if request.CurrentAmount.Sign() < 0 {
		return GoalDetails{}, false, fmt.Errorf("%w: current amount cannot be negative", appErrors.ErrInvalidInput)
	}
	if request.TargetAmount.LessThanOrEqual(request.CurrentAmount) {
		return GoalDetails{}, false, fmt.Errorf("%w: target amount of %s must exceed the current amount of %s",
			appErrors.ErrInvalidTarget, request.TargetAmount.StringFixed(2), request.CurrentAmount.StringFixed(2))
	}

	var updated Goal
	changed := false
	err := ft.commit(ctx, func(ctx context.Context) error {
		stored, err := ft.storage.GetGoalById(ctx, accountID, goalID)
		if err != nil {
			return fmt.Errorf("failed to get goal: %w", err)
		}

		if stored.Name == request.Name && stored.CurrentAmount.Equal(request.CurrentAmount) &&
			stored.TargetAmount.Equal(request.TargetAmount) && stored.Deadline.Equal(request.Deadline) &&
			stored.Category == request.Category {
			updated, changed = stored, false
			return nil
		}

		delta := request.CurrentAmount.Sub(stored.CurrentAmount)
		if delta.Sign() > 0 {
			if err := ft.checkBalanceCovers(ctx, accountID, delta, "goal amount increase"); err != nil {
				return err
			}
		}

		stored.Name = request.Name
		stored.CurrentAmount = request.CurrentAmount
		stored.TargetAmount = request.TargetAmount
		stored.Deadline = request.Deadline
		stored.Category = request.Category
		stored.UpdatedAt = time.Now().UTC()

		if err := ft.storage.UpdateGoal(ctx, stored); err != nil {
			return err
		}
		updated, changed = stored, true
		return nil
	})
	if err != nil {
		return GoalDetails{}, false, err
	}
	return ft.deriveGoal(updated), changed, nil
}

// DeleteGoal hard-removes the goal; the committed amount flows back into the
// available balance. Confirmation is the caller's concern.
func (ft *FinanceTracker) DeleteGoal(ctx context.Context, accountID string, goalID string) error {
	if _, err := ft.storage.GetGoalById(ctx, accountID, goalID); err != nil {
		return fmt.Errorf("failed to get goal: %w", err)
	}
	if err := ft.storage.DeleteGoal(ctx, accountID, goalID); err != nil {
		return fmt.Errorf("failed to delete goal: %w", err)
	}
	return nil
}

func (ft *FinanceTracker) TotalCurrentGoalAmount(ctx context.Context, accountID string) (decimal.Decimal, error) {
	goals, err := ft.storage.GetGoals(ctx, accountID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to get goals: %w", err)
	}
	total := decimal.Zero
	for _, goal := range goals {
		total = total.Add(goal.CurrentAmount)
	}
	return total, nil
}

func (ft *FinanceTracker) TotalTargetGoalAmount(ctx context.Context, accountID string) (decimal.Decimal, error) {
	goals, err := ft.storage.GetGoals(ctx, accountID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to get goals: %w", err)
	}
	total := decimal.Zero
	for _, goal := range goals {
		total = total.Add(goal.TargetAmount)
	}
	return total, nil
}

func (ft *FinanceTracker) deriveGoal(goal Goal) GoalDetails {
	detail := GoalDetails{Goal: goal, Status: GoalActive}

	if goal.CurrentAmount.GreaterThanOrEqual(goal.TargetAmount) {
		detail.Status = GoalCompleted
	} else if !goal.Deadline.IsZero() && goal.Deadline.Before(time.Now().UTC().Truncate(24*time.Hour)) {
		detail.Status = GoalOverdue
	}

	if days := int(time.Until(goal.Deadline).Hours() / 24); days > 0 {
		detail.DaysRemaining = days
	}
	if goal.TargetAmount.Sign() > 0 {
		detail.ProgressPercentage = goal.CurrentAmount.Div(goal.TargetAmount).Mul(oneHundred).Round(2)
	}
	return detail
}
