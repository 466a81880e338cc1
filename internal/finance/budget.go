package finance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	appErrors "github.com/moneyfi/backend/errors"
	"github.com/moneyfi/backend/logging"
	"github.com/shopspring/decimal"
)

// Budget allocator: one fixed percentage per category, the whole table
// summing to exactly 100. The table is the single owner of the weights;
// allocate and re-allocate both read it, nothing else defines percentages.

type CategoryAllocation struct {
	Category   string
	Percentage decimal.Decimal
	MoneyLimit decimal.Decimal
}

var categoryAllocations = []CategoryAllocation{
	{Category: "Food", Percentage: decimal.NewFromInt(13)},
	{Category: "Travelling", Percentage: decimal.NewFromInt(7)},
	{Category: "Entertainment", Percentage: decimal.NewFromInt(5)},
	{Category: "Groceries", Percentage: decimal.NewFromInt(8)},
	{Category: "Shopping", Percentage: decimal.NewFromInt(10)},
	{Category: "Bills & utilities", Percentage: decimal.NewFromInt(10)},
	{Category: "House Rent", Percentage: decimal.NewFromInt(10)},
	{Category: "Emi and loans", Percentage: decimal.NewFromInt(6)},
	{Category: "Health & Medical", Percentage: decimal.NewFromInt(8)},
	{Category: "Goal", Percentage: decimal.NewFromInt(18)},
	{Category: "Miscellaneous", Percentage: decimal.NewFromInt(5)},
}

var oneHundred = decimal.NewFromInt(100)

// ValidateAllocations checks the percentage closure once at process start.
// A table that does not sum to 100 is a configuration error, not a runtime one.
func ValidateAllocations() error {
	total := decimal.Zero
	for _, allocation := range categoryAllocations {
		total = total.Add(allocation.Percentage)
	}
	if !total.Equal(oneHundred) {
		return fmt.Errorf("budget allocation percentages sum to %s, want 100", total.String())
	}
	return nil
}

// Allocate splits a total budget across the fixed category weights.
// Idempotent and order-independent: the result only depends on the total.
func Allocate(totalBudget decimal.Decimal) []CategoryAllocation {
	allocations := make([]CategoryAllocation, len(categoryAllocations))
	for i, allocation := range categoryAllocations {
		allocation.MoneyLimit = totalBudget.Mul(allocation.Percentage).Div(oneHundred)
		allocations[i] = allocation
	}
	return allocations
}

// SaveBudget allocates the total across the category table and persists the
// period's plans. A total above the period's income is rejected.
func (ft *FinanceTracker) SaveBudget(ctx context.Context, accountID string, totalBudget decimal.Decimal, period Period) ([]BudgetPlan, error) {
	if err := checkAmountPositive(totalBudget, "budget amount"); err != nil {
		return nil, err
	}
	if period.Month < 1 || period.Month > 12 || period.Year == 0 {
		return nil, fmt.Errorf("%w: budget plans need a concrete month and year", appErrors.ErrInvalidInput)
	}

	totalIncome, err := ft.TotalIncome(ctx, accountID, period, CategoryAll)
	if errors.Is(err, appErrors.ErrNotFound) {
		// An income-less period is a zero aggregate here, so the budget is
		// judged against zero rather than failing as missing data.
		totalIncome, err = decimal.Zero, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get total income for budget validation: %w", err)
	}
	if totalBudget.GreaterThan(totalIncome) {
		return nil, fmt.Errorf("%w: budget of %s exceeds the period's income of %s",
			appErrors.ErrBudgetExceedsIncome, totalBudget.StringFixed(2), totalIncome.StringFixed(2))
	}

	now := time.Now().UTC()
	plans := make([]BudgetPlan, 0, len(categoryAllocations))
	for _, allocation := range Allocate(totalBudget) {
		plans = append(plans, BudgetPlan{
			ID:         uuid.New().String(),
			Category:   allocation.Category,
			Percentage: allocation.Percentage,
			MoneyLimit: allocation.MoneyLimit,
			Month:      period.Month,
			Year:       period.Year,
			CreatedAt:  now,
			UpdatedAt:  now,
			CreatedBy:  accountID,
		})
	}

	if err := ft.storage.SaveBudgets(ctx, plans); err != nil {
		return nil, fmt.Errorf("failed to save budget plans: %w", err)
	}
	logging.Logger.Infof("budget of %s allocated across %d categories for %02d/%d",
		totalBudget.StringFixed(2), len(plans), period.Month, period.Year)
	return plans, nil
}

// BudgetDetails returns the period's plans with spending, remaining and
// progress derived from the expense records at read time.
func (ft *FinanceTracker) BudgetDetails(ctx context.Context, accountID string, category string, period Period) ([]BudgetDetails, error) {
	plans, err := ft.storage.GetBudgets(ctx, accountID, category, period)
	if err != nil {
		return nil, fmt.Errorf("failed to get budgets: %w", err)
	}
	if len(plans) == 0 {
		return nil, fmt.Errorf("%w: no budget plan for the selected range", appErrors.ErrNotFound)
	}

	expenses, err := ft.storage.GetFilteredExpenses(ctx, accountID, ExpenseFilter{Period: period, Category: category})
	if err != nil {
		return nil, fmt.Errorf("failed to get expenses: %w", err)
	}
	spentByCategory := make(map[string]decimal.Decimal)
	for _, expense := range expenses {
		spentByCategory[expense.Category] = spentByCategory[expense.Category].Add(expense.Amount)
	}

	details := make([]BudgetDetails, 0, len(plans))
	for _, plan := range plans {
		spending := spentByCategory[plan.Category]
		detail := BudgetDetails{
			BudgetPlan:      plan,
			CurrentSpending: spending,
			Remaining:       plan.MoneyLimit.Sub(spending),
		}
		if plan.MoneyLimit.Sign() > 0 {
			detail.ProgressPercentage = spending.Div(plan.MoneyLimit).Mul(oneHundred).Round(2)
		}
		details = append(details, detail)
	}
	return details, nil
}

// UpdateBudgets applies the modified money limits and returns how many
// entries actually changed; zero changes is a reportable outcome for the
// caller, not an error.
func (ft *FinanceTracker) UpdateBudgets(ctx context.Context, accountID string, updates []BudgetLimitUpdate) (int, error) {
	if len(updates) == 0 {
		return 0, fmt.Errorf("%w: no budget updates given", appErrors.ErrInvalidInput)
	}

	applied := 0
	for _, update := range updates {
		if update.MoneyLimit.Sign() < 0 {
			return applied, fmt.Errorf("%w: money limit cannot be negative", appErrors.ErrInvalidInput)
		}
		stored, err := ft.storage.GetBudgetById(ctx, accountID, update.ID)
		if err != nil {
			return applied, fmt.Errorf("failed to get budget %s: %w", update.ID, err)
		}
		if stored.MoneyLimit.Equal(update.MoneyLimit) {
			continue
		}
		if err := ft.storage.UpdateBudgetLimit(ctx, accountID, update.ID, update.MoneyLimit); err != nil {
			return applied, fmt.Errorf("failed to update budget %s: %w", update.ID, err)
		}
		applied++
	}
	return applied, nil
}
