package finance

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	appErrors "github.com/moneyfi/backend/errors"
	"github.com/shopspring/decimal"
)

// Ledger aggregator: pure reads over the raw records. Nothing here caches;
// the available balance is recomputed from ledger state on every call so a
// stale number can never gate a mutation.

func sumIncomes(records []IncomeRecord) decimal.Decimal {
	total := decimal.Zero
	for _, record := range records {
		total = total.Add(record.Amount)
	}
	return total
}

func sumExpenses(records []ExpenseRecord) decimal.Decimal {
	total := decimal.Zero
	for _, record := range records {
		total = total.Add(record.Amount)
	}
	return total
}

// TotalIncome sums non-deleted income for the scope. An empty scope is
// reported as NotFound so the caller can show a "no data" state.
func (ft *FinanceTracker) TotalIncome(ctx context.Context, accountID string, period Period, category string) (decimal.Decimal, error) {
	records, err := ft.storage.GetFilteredIncomes(ctx, accountID, IncomeFilter{Period: period, Category: category})
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to get incomes: %w", err)
	}
	if len(records) == 0 {
		return decimal.Zero, fmt.Errorf("%w: no income recorded for the selected range", appErrors.ErrNotFound)
	}
	return sumIncomes(records), nil
}

func (ft *FinanceTracker) TotalExpense(ctx context.Context, accountID string, period Period, category string) (decimal.Decimal, error) {
	records, err := ft.storage.GetFilteredExpenses(ctx, accountID, ExpenseFilter{Period: period, Category: category})
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to get expenses: %w", err)
	}
	if len(records) == 0 {
		return decimal.Zero, fmt.Errorf("%w: no expenses recorded for the selected range", appErrors.ErrNotFound)
	}
	return sumExpenses(records), nil
}

// AvailableBalance is all-time income minus all-time expenses minus the money
// already committed to goals. Empty scopes count as zero here, not NotFound:
// a fresh account has a balance of 0, not "no balance".
func (ft *FinanceTracker) AvailableBalance(ctx context.Context, accountID string) (decimal.Decimal, error) {
	incomes, err := ft.storage.GetFilteredIncomes(ctx, accountID, IncomeFilter{Category: CategoryAll})
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to get incomes: %w", err)
	}
	expenses, err := ft.storage.GetFilteredExpenses(ctx, accountID, ExpenseFilter{Category: CategoryAll})
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to get expenses: %w", err)
	}
	goals, err := ft.storage.GetGoals(ctx, accountID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to get goals: %w", err)
	}

	committed := decimal.Zero
	for _, goal := range goals {
		committed = committed.Add(goal.CurrentAmount)
	}
	return sumIncomes(incomes).Sub(sumExpenses(expenses)).Sub(committed), nil
}

// PeriodSummary builds the overview aggregate for one period. It is a view,
// recomputed on demand.
func (ft *FinanceTracker) PeriodSummary(ctx context.Context, accountID string, period Period) (PeriodAggregate, error) {
	incomes, err := ft.storage.GetFilteredIncomes(ctx, accountID, IncomeFilter{Period: period, Category: CategoryAll})
	if err != nil {
		return PeriodAggregate{}, fmt.Errorf("failed to get incomes: %w", err)
	}
	expenses, err := ft.storage.GetFilteredExpenses(ctx, accountID, ExpenseFilter{Period: period, Category: CategoryAll})
	if err != nil {
		return PeriodAggregate{}, fmt.Errorf("failed to get expenses: %w", err)
	}
	budgets, err := ft.storage.GetBudgets(ctx, accountID, CategoryAll, period)
	if err != nil {
		return PeriodAggregate{}, fmt.Errorf("failed to get budgets: %w", err)
	}
	goals, err := ft.storage.GetGoals(ctx, accountID)
	if err != nil {
		return PeriodAggregate{}, fmt.Errorf("failed to get goals: %w", err)
	}
	balance, err := ft.AvailableBalance(ctx, accountID)
	if err != nil {
		return PeriodAggregate{}, err
	}

	summary := PeriodAggregate{
		Period:           period,
		TotalIncome:      sumIncomes(incomes),
		TotalExpenses:    sumExpenses(expenses),
		AvailableBalance: balance,
	}
	for _, plan := range budgets {
		summary.TotalBudgetLimit = summary.TotalBudgetLimit.Add(plan.MoneyLimit)
	}
	for _, goal := range goals {
		summary.TotalGoalCurrent = summary.TotalGoalCurrent.Add(goal.CurrentAmount)
		summary.TotalGoalTarget = summary.TotalGoalTarget.Add(goal.TargetAmount)
	}

	recurring := decimal.Zero
	for _, record := range incomes {
		if record.Recurring {
			recurring = recurring.Add(record.Amount)
		}
	}
	if summary.TotalIncome.Sign() > 0 {
		summary.RecurringPercent = int(recurring.Div(summary.TotalIncome).Mul(decimal.NewFromInt(100)).Round(0).IntPart())
	}
	return summary, nil
}

// --- EXPENSES --- //

func (ft *FinanceTracker) SaveExpense(ctx context.Context, accountID string, request ExpenseRequest) (ExpenseRecord, error) {
	if err := checkAmountPositive(request.Amount, "expense amount"); err != nil {
		return ExpenseRecord{}, err
	}
	if request.Category == "" {
		return ExpenseRecord{}, fmt.Errorf("%w: expense category is empty", appErrors.ErrInvalidInput)
	}
	if request.Date.IsZero() {
		return ExpenseRecord{}, fmt.Errorf("%w: expense date is required", appErrors.ErrInvalidInput)
	}

	now := time.Now().UTC()
	record := ExpenseRecord{
		ID:          uuid.New().String(),
		Amount:      request.Amount,
		Date:        request.Date,
		Category:    request.Category,
		Description: request.Description,
		Recurring:   request.Recurring,
		CreatedAt:   now,
		UpdatedAt:   now,
		CreatedBy:   accountID,
	}

	err := ft.commit(ctx, func(ctx context.Context) error {
		if err := ft.checkBalanceCovers(ctx, accountID, record.Amount, "expense"); err != nil {
			return err
		}
		return ft.storage.SaveExpense(ctx, record)
	})
	if err != nil {
		return ExpenseRecord{}, err
	}
	return record, nil
}

func (ft *FinanceTracker) GetExpenses(ctx context.Context, accountID string, filter ExpenseFilter) ([]ExpenseRecord, error) {
	records, err := ft.storage.GetFilteredExpenses(ctx, accountID, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to get expenses: %w", err)
	}
	return records, nil
}

// UpdateExpense applies the patch and reports whether anything changed.
// A no-op patch is a distinguishable outcome, not an error.
func (ft *FinanceTracker) UpdateExpense(ctx context.Context, accountID string, expenseID string, request ExpenseRequest) (ExpenseRecord, bool, error) {
	if err := checkAmountPositive(request.Amount, "expense amount"); err != nil {
		return ExpenseRecord{}, false, err
	}

	var updated ExpenseRecord
	changed := false
	err := ft.commit(ctx, func(ctx context.Context) error {
		stored, err := ft.storage.GetExpenseById(ctx, accountID, expenseID)
		if err != nil {
			return fmt.Errorf("failed to get expense: %w", err)
		}

		if stored.Amount.Equal(request.Amount) && stored.Date.Equal(request.Date) &&
			stored.Category == request.Category && stored.Description == request.Description &&
			stored.Recurring == request.Recurring {
			updated, changed = stored, false
			return nil
		}

		// Only the growth of the expense draws on the balance.
		delta := request.Amount.Sub(stored.Amount)
		if delta.Sign() > 0 {
			if err := ft.checkBalanceCovers(ctx, accountID, delta, "expense increase"); err != nil {
				return err
			}
		}

		stored.Amount = request.Amount
		stored.Date = request.Date
		stored.Category = request.Category
		stored.Description = request.Description
		stored.Recurring = request.Recurring
		stored.UpdatedAt = time.Now().UTC()

		if err := ft.storage.UpdateExpense(ctx, stored); err != nil {
			return err
		}
		updated, changed = stored, true
		return nil
	})
	if err != nil {
		return ExpenseRecord{}, false, err
	}
	return updated, changed, nil
}

// DeleteExpenses hard-removes the given records. Removal only raises the
// available balance, so no balance check gates it.
func (ft *FinanceTracker) DeleteExpenses(ctx context.Context, accountID string, expenseIDs []string) error {
	if len(expenseIDs) == 0 {
		return fmt.Errorf("%w: no expense ids given", appErrors.ErrInvalidInput)
	}
	if err := ft.storage.DeleteExpenses(ctx, accountID, expenseIDs); err != nil {
		return fmt.Errorf("failed to delete expenses: %w", err)
	}
	return nil
}
