package storage

import (
	"fmt"
	"time"

	"github.com/moneyfi/backend/internal/finance"
	"github.com/shopspring/decimal"
)

// Raw row shapes scanned out of MySQL. DECIMAL columns arrive as strings and
// are converted once, here, so the rest of the code only sees decimal.Decimal.

type dbIncomeRow struct {
	ID        string
	Source    string
	Amount    string
	Date      time.Time
	Category  string
	Recurring bool
	Deleted   bool
	Version   int64
	CreatedAt time.Time
	UpdatedAt time.Time
	CreatedBy string
}

func (row dbIncomeRow) toRecord() (finance.IncomeRecord, error) {
	amount, err := decimal.NewFromString(row.Amount)
	if err != nil {
		return finance.IncomeRecord{}, fmt.Errorf("bad amount %q for income %s: %w", row.Amount, row.ID, err)
	}
	return finance.IncomeRecord{
		ID:        row.ID,
		Source:    row.Source,
		Amount:    amount,
		Date:      row.Date,
		Category:  row.Category,
		Recurring: row.Recurring,
		Deleted:   row.Deleted,
		Version:   row.Version,
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
		CreatedBy: row.CreatedBy,
	}, nil
}

type dbExpenseRow struct {
	ID          string
	Amount      string
	Date        time.Time
	Category    string
	Description string
	Recurring   bool
	Version     int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
	CreatedBy   string
}

func (row dbExpenseRow) toRecord() (finance.ExpenseRecord, error) {
	amount, err := decimal.NewFromString(row.Amount)
	if err != nil {
		return finance.ExpenseRecord{}, fmt.Errorf("bad amount %q for expense %s: %w", row.Amount, row.ID, err)
	}
	return finance.ExpenseRecord{
		ID:          row.ID,
		Amount:      amount,
		Date:        row.Date,
		Category:    row.Category,
		Description: row.Description,
		Recurring:   row.Recurring,
		Version:     row.Version,
		CreatedAt:   row.CreatedAt,
		UpdatedAt:   row.UpdatedAt,
		CreatedBy:   row.CreatedBy,
	}, nil
}

type dbBudgetRow struct {
	ID         string
	Category   string
	Percentage string
	MoneyLimit string
	Month      int
	Year       int
	Version    int64
	CreatedAt  time.Time
	UpdatedAt  time.Time
	CreatedBy  string
}

func (row dbBudgetRow) toPlan() (finance.BudgetPlan, error) {
	percentage, err := decimal.NewFromString(row.Percentage)
	if err != nil {
		return finance.BudgetPlan{}, fmt.Errorf("bad percentage %q for budget %s: %w", row.Percentage, row.ID, err)
	}
	limit, err := decimal.NewFromString(row.MoneyLimit)
	if err != nil {
		return finance.BudgetPlan{}, fmt.Errorf("bad money limit %q for budget %s: %w", row.MoneyLimit, row.ID, err)
	}
	return finance.BudgetPlan{
		ID:         row.ID,
		Category:   row.Category,
		Percentage: percentage,
		MoneyLimit: limit,
		Month:      row.Month,
		Year:       row.Year,
		Version:    row.Version,
		CreatedAt:  row.CreatedAt,
		UpdatedAt:  row.UpdatedAt,
		CreatedBy:  row.CreatedBy,
	}, nil
}

type dbGoalRow struct {
	ID            string
	Name          string
	CurrentAmount string
	TargetAmount  string
	Deadline      *time.Time
	Category      string
	Version       int64
	CreatedAt     time.Time
	UpdatedAt     time.Time
	CreatedBy     string
}

func (row dbGoalRow) toGoal() (finance.Goal, error) {
	current, err := decimal.NewFromString(row.CurrentAmount)
	if err != nil {
		return finance.Goal{}, fmt.Errorf("bad current amount %q for goal %s: %w", row.CurrentAmount, row.ID, err)
	}
	target, err := decimal.NewFromString(row.TargetAmount)
	if err != nil {
		return finance.Goal{}, fmt.Errorf("bad target amount %q for goal %s: %w", row.TargetAmount, row.ID, err)
	}
	goal := finance.Goal{
		ID:            row.ID,
		Name:          row.Name,
		CurrentAmount: current,
		TargetAmount:  target,
		Category:      row.Category,
		Version:       row.Version,
		CreatedAt:     row.CreatedAt,
		UpdatedAt:     row.UpdatedAt,
		CreatedBy:     row.CreatedBy,
	}
	if row.Deadline != nil {
		goal.Deadline = *row.Deadline
	}
	return goal, nil
}
